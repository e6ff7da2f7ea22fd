package service

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

func TestRawFromDERSignature(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	require.NoError(t, err)

	sum, err := digest(secureAreaDomain.ES512, []byte("data"))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		der, err := ecdsa.SignASN1(rand.Reader, key, sum)
		require.NoError(t, err)

		raw, err := rawFromDERSignature(der, secureAreaDomain.ES512.SignatureSize())
		require.NoError(t, err)
		assert.Len(t, raw, 132)

		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err)
		ok, err := VerifySignature(secureAreaDomain.ES512, pubDER, []byte("data"), raw)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestRawFromDERSignature_Malformed(t *testing.T) {
	tests := []struct {
		name string
		der  []byte
	}{
		{name: "Empty", der: nil},
		{name: "NotASequence", der: []byte{0x02, 0x01, 0x01}},
		{name: "TrailingData", der: []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x00}},
		{name: "ZeroR", der: []byte{0x30, 0x06, 0x02, 0x01, 0x00, 0x02, 0x01, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rawFromDERSignature(tt.der, 64)
			assert.ErrorIs(t, err, errMalformedSignature)
		})
	}
}

func TestVerifySignature_Ed25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)

	signature := ed25519.Sign(priv, []byte("data"))

	ok, err := VerifySignature(secureAreaDomain.EdDSA, pubDER, []byte("data"), signature)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = VerifySignature(secureAreaDomain.ES256, pubDER, []byte("data"), signature)
	assert.ErrorIs(t, err, secureAreaDomain.ErrWrongKeyPurpose)
}

func TestVerifySignature_WrongLength(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	ok, err := VerifySignature(secureAreaDomain.ES256, pubDER, []byte("data"), make([]byte, 63))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParsePeerPublicKey(t *testing.T) {
	p256, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	t.Run("RawPoint", func(t *testing.T) {
		peer, err := parsePeerPublicKey(ecdh.P256(), p256.PublicKey().Bytes())
		require.NoError(t, err)
		assert.True(t, peer.Equal(p256.PublicKey()))
	})

	t.Run("PKIXFromECDSA", func(t *testing.T) {
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
		require.NoError(t, err)

		peer, err := parsePeerPublicKey(ecdh.P256(), der)
		require.NoError(t, err)

		expected, err := ecKey.PublicKey.ECDH()
		require.NoError(t, err)
		assert.True(t, peer.Equal(expected))
	})

	t.Run("PKIXWrongType", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalPKIXPublicKey(pub)
		require.NoError(t, err)

		_, err = parsePeerPublicKey(ecdh.P256(), der)
		assert.ErrorIs(t, err, secureAreaDomain.ErrInvalidPublicKey)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := parsePeerPublicKey(ecdh.X25519(), []byte("short"))
		assert.ErrorIs(t, err, secureAreaDomain.ErrInvalidPublicKey)
	})
}
