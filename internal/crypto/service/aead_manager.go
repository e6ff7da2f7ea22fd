package service

import (
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
)

// masterKeySize is the only key size accepted for wrapping ciphers.
const masterKeySize = 32

var aeadConstructors = map[cryptoDomain.Algorithm]func(key []byte) (AEAD, error){
	cryptoDomain.AESGCM:   NewAESGCM,
	cryptoDomain.ChaCha20: NewChaCha20Poly1305,
}

// AEADManagerService builds the cipher named by a WrappedKey algorithm.
type AEADManagerService struct{}

// NewAEADManager returns an AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns ErrInvalidKeySize unless key is 32 bytes and
// ErrUnsupportedAlgorithm for algorithms without a constructor.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != masterKeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	newCipher, ok := aeadConstructors[alg]
	if !ok {
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	return newCipher(key)
}
