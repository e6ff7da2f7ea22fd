// Package domain defines the key-wrapping primitives used to protect private key
// material at rest: AEAD algorithms, master keys and wrapped key envelopes.
package domain

// Algorithm identifies the AEAD cipher used to wrap private key material.
//
// Both algorithms use a 256-bit key, a 12-byte random nonce and a 16-byte tag.
// Prefer AESGCM on CPUs with AES-NI and ChaCha20 elsewhere.
type Algorithm string

const (
	// AESGCM is AES-256-GCM.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm maps a configuration value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM, ChaCha20:
		return Algorithm(s), nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
