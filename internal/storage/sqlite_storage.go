package storage

import (
	"database/sql"
)

// SQLiteStorage stores entries in an embedded SQLite database (modernc.org/sqlite).
// It is the default for single-device deployments where the data must stay local.
type SQLiteStorage struct {
	sqlStorage
}

// NewSQLiteStorage creates a SQLite-backed Storage.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{
		sqlStorage: sqlStorage{
			db: db,
			queries: sqlQueries{
				put: `INSERT INTO storage_entries (table_name, entry_key, entry_value, updated_at)
					  VALUES (?, ?, ?, ?)
					  ON CONFLICT (table_name, entry_key)
					  DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`,
				get:       `SELECT entry_value FROM storage_entries WHERE table_name = ? AND entry_key = ?`,
				delete:    `DELETE FROM storage_entries WHERE table_name = ? AND entry_key = ?`,
				enumerate: `SELECT entry_key FROM storage_entries WHERE table_name = ? ORDER BY entry_key`,
			},
		},
	}
}
