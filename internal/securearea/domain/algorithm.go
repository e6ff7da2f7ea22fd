// Package domain defines the key model shared by every secure area backend:
// algorithms, key settings, key metadata and the persisted key record.
package domain

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"slices"
)

// Algorithm identifies the kind of key a secure area provisions. Names follow
// the COSE/JOSE registry.
type Algorithm string

const (
	// ES256 is ECDSA over P-256 with SHA-256.
	ES256 Algorithm = "ES256"
	// ES384 is ECDSA over P-384 with SHA-384.
	ES384 Algorithm = "ES384"
	// ES512 is ECDSA over P-521 with SHA-512.
	ES512 Algorithm = "ES512"
	// EdDSA is Ed25519.
	EdDSA Algorithm = "EdDSA"
	// ECDHP256 is ECDH key agreement over P-256.
	ECDHP256 Algorithm = "ECDH-P256"
	// ECDHP384 is ECDH key agreement over P-384.
	ECDHP384 Algorithm = "ECDH-P384"
	// X25519 is ECDH key agreement over Curve25519.
	X25519 Algorithm = "X25519"
)

// Purpose is what a key may be used for. Every key has exactly one.
type Purpose string

const (
	PurposeSign     Purpose = "sign"
	PurposeAgreeKey Purpose = "agree_key"
)

// AllAlgorithms lists every algorithm known to the domain, signing first.
func AllAlgorithms() []Algorithm {
	return []Algorithm{ES256, ES384, ES512, EdDSA, ECDHP256, ECDHP384, X25519}
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return slices.Contains(AllAlgorithms(), a)
}

// Purpose returns the single purpose keys of this algorithm serve.
func (a Algorithm) Purpose() Purpose {
	switch a {
	case ECDHP256, ECDHP384, X25519:
		return PurposeAgreeKey
	default:
		return PurposeSign
	}
}

// Curve returns the NIST curve for ECDSA algorithms and nil otherwise.
func (a Algorithm) Curve() elliptic.Curve {
	switch a {
	case ES256:
		return elliptic.P256()
	case ES384:
		return elliptic.P384()
	case ES512:
		return elliptic.P521()
	default:
		return nil
	}
}

// ECDHCurve returns the key agreement curve for agreement algorithms and nil otherwise.
func (a Algorithm) ECDHCurve() ecdh.Curve {
	switch a {
	case ECDHP256:
		return ecdh.P256()
	case ECDHP384:
		return ecdh.P384()
	case X25519:
		return ecdh.X25519()
	default:
		return nil
	}
}

// SignatureSize is the length of a raw signature for signing algorithms:
// r||s for ECDSA (COSE form) and 64 bytes for Ed25519. It is zero for
// agreement algorithms.
func (a Algorithm) SignatureSize() int {
	switch a {
	case ES256:
		return 64
	case ES384:
		return 96
	case ES512:
		return 132
	case EdDSA:
		return 64
	default:
		return 0
	}
}
