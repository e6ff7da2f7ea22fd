// Package service implements the secure area backends and the registry that
// resolves them by identifier.
//
// A SecureArea owns its keys. Callers hold only the alias, which is scoped to
// one SecureArea instance and meaningless to any other backend.
package service

import (
	"context"
	"crypto"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// SecureArea is a key-management backend.
type SecureArea interface {
	// Identifier is the registry key of this instance, e.g. "software".
	Identifier() string

	// DisplayName is a human readable backend name.
	DisplayName() string

	// SupportedAlgorithms lists the algorithms CreateKey accepts.
	SupportedAlgorithms() []secureAreaDomain.Algorithm

	// CreateKey provisions a key under alias. An empty alias gets a generated one.
	//
	// When the backend may already hold material at the time an error occurs
	// (for example a cancelled context after the remote key was created), the
	// returned KeyInfo is non-nil and carries the alias so the caller can call
	// DeleteKey.
	CreateKey(ctx context.Context, alias string, settings secureAreaDomain.KeySettings) (*secureAreaDomain.KeyInfo, error)

	// GetKeyInfo returns the metadata of alias or ErrKeyNotFound.
	GetKeyInfo(ctx context.Context, alias string) (*secureAreaDomain.KeyInfo, error)

	// Sign signs data with a signing key. ECDSA signatures are raw r||s.
	Sign(ctx context.Context, alias string, data []byte, unlock *secureAreaDomain.KeyUnlockData) ([]byte, error)

	// KeyAgreement computes the ECDH shared secret with otherPublicKey, given
	// either as PKIX DER or as the raw encoded point.
	KeyAgreement(
		ctx context.Context,
		alias string,
		otherPublicKey []byte,
		unlock *secureAreaDomain.KeyUnlockData,
	) ([]byte, error)

	// DeleteKey destroys the key. Deleting an unknown alias is a no-op.
	DeleteKey(ctx context.Context, alias string) error

	// ListKeys returns the aliases of every key held, in ascending order.
	ListKeys(ctx context.Context) ([]string, error)
}

// Attester issues the attestation chain of a newly created key.
type Attester interface {
	// Attest returns the DER chain [leaf, ..., root] certifying pub.
	Attest(
		secureAreaID, alias string,
		pub crypto.PublicKey,
		settings secureAreaDomain.KeySettings,
	) ([][]byte, error)
}
