package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/storage"
)

// CredentialsTable holds one record per credential, keyed by credential id.
const CredentialsTable = "Credentials"

// CredentialRepository stores credentials in table Credentials.
type CredentialRepository struct {
	storage storage.Storage
}

// NewCredentialRepository creates a CredentialRepository.
func NewCredentialRepository(st storage.Storage) *CredentialRepository {
	return &CredentialRepository{storage: st}
}

// Save writes the credential, replacing any previous version.
func (r *CredentialRepository) Save(ctx context.Context, credential *documentDomain.Credential) error {
	data, err := storage.MarshalRecord(toCredentialRecord(credential))
	if err != nil {
		return err
	}
	return r.storage.Put(ctx, CredentialsTable, credential.ID.String(), data)
}

// Get loads a credential. Returns ErrCredentialNotFound if it does not exist.
func (r *CredentialRepository) Get(ctx context.Context, id uuid.UUID) (*documentDomain.Credential, error) {
	data, err := r.storage.Get(ctx, CredentialsTable, id.String())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, documentDomain.ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}

	var record credentialRecord
	if err := storage.UnmarshalRecord(data, &record); err != nil {
		return nil, err
	}
	return record.toDomain(id)
}

// Delete removes a credential record. Missing records are ignored.
func (r *CredentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.storage.Delete(ctx, CredentialsTable, id.String())
}

// List returns every credential id in ascending order.
func (r *CredentialRepository) List(ctx context.Context) ([]uuid.UUID, error) {
	keys, err := r.storage.Enumerate(ctx, CredentialsTable)
	if err != nil {
		return nil, err
	}
	return parseIDs(keys)
}
