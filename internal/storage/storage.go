// Package storage provides the persistent key-value substrate used by the
// document store and the secure areas.
//
// Data is organized into named tables. Each table maps a string key to an
// opaque byte value. Every implementation guarantees single-key atomicity: a
// reader observes either the previous value or the complete new value, never a
// partial write. Multi-key sequences (cascading deletes, credential + document
// updates) are the caller's responsibility.
//
// # Implementations
//
//   - MemoryStorage: process-local maps, used by tests and ephemeral runs
//   - PostgreSQLStorage, MySQLStorage, SQLiteStorage: a single storage_entries table
//   - BlobStorage: gocloud.dev/blob buckets (file://, mem://, s3://)
package storage

import (
	"context"
	"fmt"

	apperrors "github.com/allisson/credstore/internal/errors"
)

var (
	// ErrNotFound indicates the requested key does not exist in the table.
	ErrNotFound = apperrors.Wrap(apperrors.ErrNotFound, "storage entry not found")

	// ErrIO indicates the underlying medium failed. It is surfaced to the caller
	// without automatic retry.
	ErrIO = apperrors.Wrap(apperrors.ErrIO, "storage medium failure")

	// ErrInvalidName indicates an empty table name or key.
	ErrInvalidName = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid storage table or key")
)

// Storage is a durable table-oriented byte store.
type Storage interface {
	// Put stores value under key in table, replacing any previous value.
	Put(ctx context.Context, table, key string, value []byte) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, table, key string) ([]byte, error)

	// Delete removes key from table. Deleting a missing key is not an error.
	Delete(ctx context.Context, table, key string) error

	// Enumerate returns every key in table in ascending order.
	Enumerate(ctx context.Context, table string) ([]string, error)
}

// ioError wraps an underlying failure with ErrIO while keeping the cause in the chain.
func ioError(err error, op string) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}

func validateName(table, key string) error {
	if table == "" || key == "" {
		return ErrInvalidName
	}
	return nil
}
