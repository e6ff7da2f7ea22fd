package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
)

func newTestKeyChain(t *testing.T, activeID string, ids ...string) *cryptoDomain.MasterKeyChain {
	t.Helper()
	keys := make([]*cryptoDomain.MasterKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, &cryptoDomain.MasterKey{ID: id, Key: randomKey(t)})
	}
	mkc, err := cryptoDomain.NewMasterKeyChain(activeID, keys...)
	require.NoError(t, err)
	t.Cleanup(mkc.Close)
	return mkc
}

func TestKeyWrapperService_WrapUnwrap(t *testing.T) {
	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			wrapper := NewKeyWrapper(NewAEADManager(), newTestKeyChain(t, "mk1", "mk1"), alg)

			plaintext := []byte("private key material")
			wrapped, err := wrapper.Wrap(plaintext, []byte("alias"))
			require.NoError(t, err)
			assert.Equal(t, "mk1", wrapped.MasterKeyID)
			assert.Equal(t, alg, wrapped.Algorithm)
			assert.NotContains(t, string(wrapped.Ciphertext), "private key material")

			got, err := wrapper.Unwrap(wrapped, []byte("alias"))
			require.NoError(t, err)
			assert.Equal(t, plaintext, got)
		})
	}
}

func TestKeyWrapperService_AADBinding(t *testing.T) {
	wrapper := NewKeyWrapper(NewAEADManager(), newTestKeyChain(t, "mk1", "mk1"), cryptoDomain.AESGCM)

	wrapped, err := wrapper.Wrap([]byte("key"), []byte("alias-a"))
	require.NoError(t, err)

	_, err = wrapper.Unwrap(wrapped, []byte("alias-b"))
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

func TestKeyWrapperService_Rotation(t *testing.T) {
	keyChain := newTestKeyChain(t, "mk1", "mk1")
	old := NewKeyWrapper(NewAEADManager(), keyChain, cryptoDomain.AESGCM)
	wrapped, err := old.Wrap([]byte("key"), nil)
	require.NoError(t, err)

	mk1, ok := keyChain.Get("mk1")
	require.True(t, ok)
	rotated, err := cryptoDomain.NewMasterKeyChain(
		"mk2",
		mk1,
		&cryptoDomain.MasterKey{ID: "mk2", Key: randomKey(t)},
	)
	require.NoError(t, err)
	defer rotated.Close()

	wrapper := NewKeyWrapper(NewAEADManager(), rotated, cryptoDomain.ChaCha20)

	got, err := wrapper.Unwrap(wrapped, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), got)

	fresh, err := wrapper.Wrap([]byte("key"), nil)
	require.NoError(t, err)
	assert.Equal(t, "mk2", fresh.MasterKeyID)
	assert.Equal(t, cryptoDomain.ChaCha20, fresh.Algorithm)
}

func TestKeyWrapperService_UnknownMasterKey(t *testing.T) {
	wrapper := NewKeyWrapper(NewAEADManager(), newTestKeyChain(t, "mk1", "mk1"), cryptoDomain.AESGCM)

	_, err := wrapper.Unwrap(&cryptoDomain.WrappedKey{MasterKeyID: "retired", Algorithm: cryptoDomain.AESGCM}, nil)
	assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyNotFound)
}

func TestKeyWrapperService_UnsupportedAlgorithm(t *testing.T) {
	wrapper := NewKeyWrapper(NewAEADManager(), newTestKeyChain(t, "mk1", "mk1"), cryptoDomain.Algorithm("des"))

	_, err := wrapper.Wrap([]byte("key"), nil)
	assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
}
