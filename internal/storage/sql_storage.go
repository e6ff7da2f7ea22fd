package storage

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"
)

// sqlQueries holds the dialect-specific statements for the storage_entries table.
//
// Schema (see migrations/<dialect>/000001_create_storage_entries.up.sql):
//   - table_name: VARCHAR(255), part of the primary key
//   - entry_key: VARCHAR(255), part of the primary key
//   - entry_value: BYTEA / LONGBLOB / BLOB
//   - updated_at: timestamp of the last write
type sqlQueries struct {
	put       string
	get       string
	delete    string
	enumerate string
}

// sqlStorage implements Storage on top of database/sql. Each Put is a single
// upsert statement, which gives single-key atomicity on every supported engine.
type sqlStorage struct {
	db      *sql.DB
	queries sqlQueries
}

// Put upserts the value for key in table.
func (s *sqlStorage) Put(ctx context.Context, table, key string, value []byte) error {
	if err := validateName(table, key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	_, err := s.db.ExecContext(ctx, s.queries.put, table, key, value, time.Now().UTC())
	if err != nil {
		return ioError(err, "failed to put storage entry")
	}
	return nil
}

// Get reads the value for key in table.
func (s *sqlStorage) Get(ctx context.Context, table, key string) ([]byte, error) {
	if err := validateName(table, key); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, s.queries.get, table, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, ioError(err, "failed to get storage entry")
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Delete removes key from table.
func (s *sqlStorage) Delete(ctx context.Context, table, key string) error {
	if err := validateName(table, key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.queries.delete, table, key); err != nil {
		return ioError(err, "failed to delete storage entry")
	}
	return nil
}

// Enumerate lists the keys of table in ascending order.
func (s *sqlStorage) Enumerate(ctx context.Context, table string) ([]string, error) {
	if table == "" {
		return nil, ErrInvalidName
	}

	rows, err := s.db.QueryContext(ctx, s.queries.enumerate, table)
	if err != nil {
		return nil, ioError(err, "failed to enumerate storage entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, ioError(err, "failed to scan storage entry key")
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, ioError(err, "failed to enumerate storage entries")
	}

	// Collations differ between engines; callers get byte order regardless.
	slices.Sort(keys)
	return keys, nil
}
