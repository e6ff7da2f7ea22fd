package domain

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"time"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	customValidation "github.com/allisson/credstore/internal/validation"
)

// MinPassphraseLength is the shortest passphrase accepted for an
// authentication-bound key.
const MinPassphraseLength = 6

// KeySettings configures a key at creation time.
//
// A zero ValidFrom or ValidUntil leaves that side of the validity window open.
// AuthenticationTimeout only applies to keys with AuthenticationRequired: a
// successful unlock opens a session of that length during which the key can be
// used without unlock data. Zero means every use must be unlocked.
type KeySettings struct {
	Algorithm              Algorithm
	AuthenticationRequired bool
	Passphrase             string
	AuthenticationTimeout  time.Duration
	ValidFrom              time.Time
	ValidUntil             time.Time
	AttestationChallenge   []byte
}

// Validate checks the settings independently of any backend.
func (s KeySettings) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Algorithm, validation.Required, validation.By(func(value interface{}) error {
			if !value.(Algorithm).Valid() {
				return validation.NewError("validation_algorithm", "is not a known algorithm")
			}
			return nil
		})),
		validation.Field(&s.Passphrase,
			validation.When(s.AuthenticationRequired, validation.Required).
				Else(validation.Empty.Error("requires authenticationRequired")),
			customValidation.PassphraseStrength{MinLength: MinPassphraseLength},
		),
		validation.Field(&s.AuthenticationTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.ValidUntil, validation.When(
			!s.ValidFrom.IsZero() && !s.ValidUntil.IsZero(),
			validation.Min(s.ValidFrom).Error("must not be before validFrom"),
		)),
		validation.Field(&s.AttestationChallenge, validation.Length(0, 1024)),
	)
	if err != nil {
		return customValidation.WrapValidationError(err)
	}
	return nil
}

// KeyUnlockData carries the user authentication for a single operation.
type KeyUnlockData struct {
	Passphrase string
}

// KeyInfo describes a provisioned key. It never carries private material.
type KeyInfo struct {
	Alias                  string
	SecureAreaID           string
	Algorithm              Algorithm
	PublicKey              []byte // PKIX, ASN.1 DER
	AttestationChain       [][]byte
	AuthenticationRequired bool
	AuthenticationTimeout  time.Duration
	ValidFrom              time.Time
	ValidUntil             time.Time
	CreatedAt              time.Time
}

// ParsePublicKey decodes PublicKey into an *ecdsa.PublicKey,
// ed25519.PublicKey or *ecdh.PublicKey.
func (k *KeyInfo) ParsePublicKey() (crypto.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(k.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// IsValidAt reports whether t falls inside the key validity window.
func (k *KeyInfo) IsValidAt(t time.Time) bool {
	return isWithin(t, k.ValidFrom, k.ValidUntil)
}

// KeyRecord is the persisted form of a key, stored CBOR-encoded in table
// SecureArea_<identifier> under the key alias.
//
// Software keys carry WrappedPrivateKey, the PKCS#8 private key sealed under a
// master key with the alias as AAD. Externally held keys (AWS KMS) carry only
// ExternalKeyID.
type KeyRecord struct {
	Alias                  string                   `cbor:"alias"`
	Algorithm              Algorithm                `cbor:"algorithm"`
	PublicKey              []byte                   `cbor:"publicKey"`
	AttestationChain       [][]byte                 `cbor:"attestationChain"`
	AuthenticationRequired bool                     `cbor:"authenticationRequired"`
	PassphraseHash         string                   `cbor:"passphraseHash,omitempty"`
	AuthenticationTimeout  time.Duration            `cbor:"authenticationTimeout"`
	ValidFrom              time.Time                `cbor:"validFrom"`
	ValidUntil             time.Time                `cbor:"validUntil"`
	CreatedAt              time.Time                `cbor:"createdAt"`
	WrappedPrivateKey      *cryptoDomain.WrappedKey `cbor:"wrappedPrivateKey,omitempty"`
	ExternalKeyID          string                   `cbor:"externalKeyId,omitempty"`
}

// Info projects the record into KeyInfo for callers.
func (r *KeyRecord) Info(secureAreaID string) *KeyInfo {
	return &KeyInfo{
		Alias:                  r.Alias,
		SecureAreaID:           secureAreaID,
		Algorithm:              r.Algorithm,
		PublicKey:              r.PublicKey,
		AttestationChain:       r.AttestationChain,
		AuthenticationRequired: r.AuthenticationRequired,
		AuthenticationTimeout:  r.AuthenticationTimeout,
		ValidFrom:              r.ValidFrom,
		ValidUntil:             r.ValidUntil,
		CreatedAt:              r.CreatedAt,
	}
}

// CheckUsable verifies purpose and validity window for an operation at now.
func (r *KeyRecord) CheckUsable(purpose Purpose, now time.Time) error {
	if r.Algorithm.Purpose() != purpose {
		return ErrWrongKeyPurpose
	}
	if !isWithin(now, r.ValidFrom, r.ValidUntil) {
		return ErrKeyNotValid
	}
	return nil
}

func isWithin(t, from, until time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !until.IsZero() && t.After(until) {
		return false
	}
	return true
}
