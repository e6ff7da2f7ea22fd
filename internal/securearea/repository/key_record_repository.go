// Package repository persists secure area key records in Storage.
package repository

import (
	"context"
	"errors"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	"github.com/allisson/credstore/internal/storage"
)

// TablePrefix prefixes the storage table of every secure area.
const TablePrefix = "SecureArea_"

// KeyRecordRepository stores the key records of one secure area instance in
// table SecureArea_<identifier>, keyed by alias.
type KeyRecordRepository struct {
	storage storage.Storage
	table   string
}

// NewKeyRecordRepository creates a repository scoped to secureAreaID.
func NewKeyRecordRepository(st storage.Storage, secureAreaID string) *KeyRecordRepository {
	return &KeyRecordRepository{
		storage: st,
		table:   TablePrefix + secureAreaID,
	}
}

// Table returns the storage table backing this repository.
func (r *KeyRecordRepository) Table() string {
	return r.table
}

// Save writes the record, replacing any previous record with the same alias.
func (r *KeyRecordRepository) Save(ctx context.Context, record *secureAreaDomain.KeyRecord) error {
	data, err := storage.MarshalRecord(record)
	if err != nil {
		return err
	}
	return r.storage.Put(ctx, r.table, record.Alias, data)
}

// Exists reports whether alias has a record.
func (r *KeyRecordRepository) Exists(ctx context.Context, alias string) (bool, error) {
	_, err := r.storage.Get(ctx, r.table, alias)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get loads the record for alias. Returns ErrKeyNotFound if it does not exist.
func (r *KeyRecordRepository) Get(ctx context.Context, alias string) (*secureAreaDomain.KeyRecord, error) {
	data, err := r.storage.Get(ctx, r.table, alias)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, secureAreaDomain.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	var record secureAreaDomain.KeyRecord
	if err := storage.UnmarshalRecord(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes the record for alias. Missing records are ignored.
func (r *KeyRecordRepository) Delete(ctx context.Context, alias string) error {
	return r.storage.Delete(ctx, r.table, alias)
}

// List returns every alias in ascending order.
func (r *KeyRecordRepository) List(ctx context.Context) ([]string, error) {
	return r.storage.Enumerate(ctx, r.table)
}
