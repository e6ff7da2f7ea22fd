package storage

import (
	"database/sql"
)

// MySQLStorage stores entries in MySQL using LONGBLOB values and an
// ON DUPLICATE KEY UPDATE upsert. The connection string must enable parseTime.
type MySQLStorage struct {
	sqlStorage
}

// NewMySQLStorage creates a MySQL-backed Storage.
func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{
		sqlStorage: sqlStorage{
			db: db,
			queries: sqlQueries{
				put: `INSERT INTO storage_entries (table_name, entry_key, entry_value, updated_at)
					  VALUES (?, ?, ?, ?)
					  ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value), updated_at = VALUES(updated_at)`,
				get:       `SELECT entry_value FROM storage_entries WHERE table_name = ? AND entry_key = ?`,
				delete:    `DELETE FROM storage_entries WHERE table_name = ? AND entry_key = ?`,
				enumerate: `SELECT entry_key FROM storage_entries WHERE table_name = ? ORDER BY entry_key`,
			},
		},
	}
}
