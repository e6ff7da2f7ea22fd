package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
)

// KeyWrapperService wraps private key material with the active master key.
//
// Each wrap records the master key ID and algorithm, so rotating
// ACTIVE_MASTER_KEY_ID or KEY_WRAP_ALGORITHM never strands existing keys as
// long as the old master key stays configured.
type KeyWrapperService struct {
	aeadManager AEADManager
	keyChain    *cryptoDomain.MasterKeyChain
	algorithm   cryptoDomain.Algorithm
}

// NewKeyWrapper creates a KeyWrapperService that seals new material with algorithm.
func NewKeyWrapper(
	aeadManager AEADManager,
	keyChain *cryptoDomain.MasterKeyChain,
	algorithm cryptoDomain.Algorithm,
) *KeyWrapperService {
	return &KeyWrapperService{
		aeadManager: aeadManager,
		keyChain:    keyChain,
		algorithm:   algorithm,
	}
}

// Wrap seals plaintext under the active master key.
func (w *KeyWrapperService) Wrap(plaintext, aad []byte) (*cryptoDomain.WrappedKey, error) {
	masterKey, ok := w.keyChain.Active()
	if !ok {
		return nil, cryptoDomain.ErrActiveMasterKeyNotFound
	}

	aead, err := w.aeadManager.CreateCipher(masterKey.Key, w.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key: %w", err)
	}

	return &cryptoDomain.WrappedKey{
		MasterKeyID: masterKey.ID,
		Algorithm:   w.algorithm,
		Ciphertext:  ciphertext,
		Nonce:       nonce,
	}, nil
}

// Unwrap opens wrapped with the master key it was sealed under.
func (w *KeyWrapperService) Unwrap(wrapped *cryptoDomain.WrappedKey, aad []byte) ([]byte, error) {
	masterKey, ok := w.keyChain.Get(wrapped.MasterKeyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cryptoDomain.ErrMasterKeyNotFound, wrapped.MasterKeyID)
	}

	aead, err := w.aeadManager.CreateCipher(masterKey.Key, wrapped.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(wrapped.Ciphertext, wrapped.Nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
