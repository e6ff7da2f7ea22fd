package domain

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/credstore/internal/errors"
)

func TestKeySettings_Validate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		settings KeySettings
		wantErr  bool
	}{
		{
			name:     "Minimal",
			settings: KeySettings{Algorithm: ES256},
		},
		{
			name: "Authenticated",
			settings: KeySettings{
				Algorithm:              EdDSA,
				AuthenticationRequired: true,
				Passphrase:             "abc123",
				AuthenticationTimeout:  time.Minute,
			},
		},
		{
			name: "ValidityWindow",
			settings: KeySettings{
				Algorithm:  ES256,
				ValidFrom:  now,
				ValidUntil: now.Add(time.Hour),
			},
		},
		{
			name:     "MissingAlgorithm",
			settings: KeySettings{},
			wantErr:  true,
		},
		{
			name:     "UnknownAlgorithm",
			settings: KeySettings{Algorithm: "RS256"},
			wantErr:  true,
		},
		{
			name:     "AuthenticationWithoutPassphrase",
			settings: KeySettings{Algorithm: ES256, AuthenticationRequired: true},
			wantErr:  true,
		},
		{
			name:     "PassphraseWithoutAuthentication",
			settings: KeySettings{Algorithm: ES256, Passphrase: "abc123"},
			wantErr:  true,
		},
		{
			name: "ShortPassphrase",
			settings: KeySettings{
				Algorithm:              ES256,
				AuthenticationRequired: true,
				Passphrase:             "12345",
			},
			wantErr: true,
		},
		{
			name: "NegativeTimeout",
			settings: KeySettings{
				Algorithm:              ES256,
				AuthenticationRequired: true,
				Passphrase:             "abc123",
				AuthenticationTimeout:  -time.Second,
			},
			wantErr: true,
		},
		{
			name: "InvertedWindow",
			settings: KeySettings{
				Algorithm:  ES256,
				ValidFrom:  now,
				ValidUntil: now.Add(-time.Hour),
			},
			wantErr: true,
		},
		{
			name: "ChallengeTooLong",
			settings: KeySettings{
				Algorithm:            ES256,
				AttestationChallenge: []byte(strings.Repeat("x", 1025)),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestKeyRecord_CheckUsable(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := from.Add(24 * time.Hour)
	record := &KeyRecord{Alias: "k", Algorithm: ES256, ValidFrom: from, ValidUntil: until}

	assert.NoError(t, record.CheckUsable(PurposeSign, from.Add(time.Hour)))
	assert.NoError(t, record.CheckUsable(PurposeSign, from))
	assert.NoError(t, record.CheckUsable(PurposeSign, until))
	assert.ErrorIs(t, record.CheckUsable(PurposeSign, from.Add(-time.Second)), ErrKeyNotValid)
	assert.ErrorIs(t, record.CheckUsable(PurposeSign, until.Add(time.Second)), ErrKeyNotValid)
	assert.ErrorIs(t, record.CheckUsable(PurposeAgreeKey, from.Add(time.Hour)), ErrWrongKeyPurpose)

	open := &KeyRecord{Alias: "open", Algorithm: X25519}
	assert.NoError(t, open.CheckUsable(PurposeAgreeKey, time.Time{}.Add(time.Hour)))
}

func TestKeyRecord_Info(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	record := &KeyRecord{
		Alias:                  "k",
		Algorithm:              ES256,
		PublicKey:              der,
		AuthenticationRequired: true,
		PassphraseHash:         "$argon2id$...",
		AuthenticationTimeout:  time.Minute,
	}

	info := record.Info("software")
	assert.Equal(t, "k", info.Alias)
	assert.Equal(t, "software", info.SecureAreaID)
	assert.True(t, info.AuthenticationRequired)
	assert.Equal(t, time.Minute, info.AuthenticationTimeout)
	assert.True(t, info.IsValidAt(time.Now()))

	pub, err := info.ParsePublicKey()
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pub))

	info.PublicKey = []byte("garbage")
	_, err = info.ParsePublicKey()
	assert.Error(t, err)
}
