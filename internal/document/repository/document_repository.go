// Package repository persists documents and credentials in Storage as CBOR records.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/storage"
)

// DocumentsTable holds one record per document, keyed by document id.
const DocumentsTable = "Documents"

// DocumentRepository stores documents in table Documents.
type DocumentRepository struct {
	storage storage.Storage
}

// NewDocumentRepository creates a DocumentRepository.
func NewDocumentRepository(st storage.Storage) *DocumentRepository {
	return &DocumentRepository{storage: st}
}

// Save writes the document, replacing any previous version.
func (r *DocumentRepository) Save(ctx context.Context, doc *documentDomain.Document) error {
	data, err := storage.MarshalRecord(toDocumentRecord(doc))
	if err != nil {
		return err
	}
	return r.storage.Put(ctx, DocumentsTable, doc.ID.String(), data)
}

// Get loads a document. Returns ErrDocumentNotFound if it does not exist.
func (r *DocumentRepository) Get(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	data, err := r.storage.Get(ctx, DocumentsTable, id.String())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, documentDomain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	var record documentRecord
	if err := storage.UnmarshalRecord(data, &record); err != nil {
		return nil, err
	}
	return record.toDomain(id)
}

// Delete removes a document record. Missing records are ignored.
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.storage.Delete(ctx, DocumentsTable, id.String())
}

// List returns every document id in ascending order.
func (r *DocumentRepository) List(ctx context.Context) ([]uuid.UUID, error) {
	keys, err := r.storage.Enumerate(ctx, DocumentsTable)
	if err != nil {
		return nil, err
	}
	return parseIDs(keys)
}

func parseIDs(keys []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", storage.ErrCorruptRecord, key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
