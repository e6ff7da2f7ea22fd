// Package service seals software secure area keys at rest: AEAD ciphers,
// gocloud.dev keepers for the master keys, and the key wrapper on top.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
)

// AEAD is a keyed cipher with a fresh random nonce per Encrypt.
type AEAD interface {
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager builds an AEAD for a key and algorithm.
type AEADManager interface {
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KMSService opens the keeper that decrypts master keys. The caller closes it.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

// KeyWrapper seals private key material under the active master key.
// Unwrap picks the master key named in the WrappedKey, so keys sealed
// before a rotation stay readable; aad must match what Wrap was given.
type KeyWrapper interface {
	Wrap(plaintext, aad []byte) (*cryptoDomain.WrappedKey, error)
	Unwrap(wrapped *cryptoDomain.WrappedKey, aad []byte) ([]byte, error)
}
