// Package usecase implements the document store: the aggregate root that owns
// documents, their credentials and, through the secure areas, the credential keys.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	secureAreaService "github.com/allisson/credstore/internal/securearea/service"
)

// DocumentRepository defines the interface for Document persistence operations.
type DocumentRepository interface {
	Save(ctx context.Context, doc *documentDomain.Document) error
	Get(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]uuid.UUID, error)
}

// CredentialRepository defines the interface for Credential persistence operations.
type CredentialRepository interface {
	Save(ctx context.Context, credential *documentDomain.Credential) error
	Get(ctx context.Context, id uuid.UUID) (*documentDomain.Credential, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]uuid.UUID, error)
}

// SecureAreaResolver resolves a secure area by identifier.
type SecureAreaResolver interface {
	Resolve(identifier string) (secureAreaService.SecureArea, error)
	Identifiers() []string
}

// KeyRef names a key inside a secure area.
type KeyRef struct {
	SecureAreaID string
	Alias        string
}

// SweepResult reports what Sweep removed.
type SweepResult struct {
	// RemovedCredentialIDs lists credential records deleted as orphans.
	RemovedCredentialIDs []uuid.UUID
	// SkippedCredentialIDs lists credentials left in place because their
	// secure area is not registered.
	SkippedCredentialIDs []uuid.UUID
	// PrunedReferences counts credential ids dropped from documents because
	// their record no longer exists.
	PrunedReferences int
	// RemovedKeys lists keys deleted because no credential record claims them,
	// e.g. after a failed rollback.
	RemovedKeys []KeyRef
}

// DocumentStore defines the document store business logic.
//
// Every mutating operation on a document, and Sign on its credentials, runs
// under a per-document lock.
type DocumentStore interface {
	CreateDocument(ctx context.Context, metadata documentDomain.Metadata) (*documentDomain.Document, error)
	LookupDocument(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error)
	// ListDocuments returns the ids of every document. Order is unspecified.
	ListDocuments(ctx context.Context) ([]uuid.UUID, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata documentDomain.Metadata) (*documentDomain.Document, error)
	// DeleteDocument deletes the keys, then the credential records, then the document.
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	// AddCredential creates a key in the selected secure area and binds it to a
	// new credential. On failure after key creation the key is deleted again.
	AddCredential(
		ctx context.Context,
		documentID uuid.UUID,
		input documentDomain.AddCredentialInput,
	) (*documentDomain.Credential, error)
	LookupCredential(ctx context.Context, id uuid.UUID) (*documentDomain.Credential, error)
	ListCredentials(ctx context.Context, documentID uuid.UUID) ([]*documentDomain.Credential, error)
	DeleteCredential(ctx context.Context, documentID, credentialID uuid.UUID) error
	// FindCredential returns the least used credential of domain valid at at.
	FindCredential(
		ctx context.Context,
		documentID uuid.UUID,
		domain string,
		at time.Time,
	) (*documentDomain.Credential, error)
	// Sign signs data with the credential key and increments its usage count.
	Sign(
		ctx context.Context,
		credentialID uuid.UUID,
		data []byte,
		unlock *secureAreaDomain.KeyUnlockData,
	) ([]byte, error)
	// Sweep removes credential records whose document or key no longer exists,
	// drops document references to missing credential records and deletes
	// keys that no credential record claims.
	Sweep(ctx context.Context) (*SweepResult, error)
}
