package storage

import (
	"database/sql"
)

// PostgreSQLStorage stores entries in PostgreSQL using BYTEA values and an
// ON CONFLICT upsert.
//
// Example:
//
//	db, err := database.Connect(database.Config{Driver: "postgres", ...})
//	if err != nil {
//	    return err
//	}
//	store := storage.NewPostgreSQLStorage(db)
//	err = store.Put(ctx, "Documents", id, record)
type PostgreSQLStorage struct {
	sqlStorage
}

// NewPostgreSQLStorage creates a PostgreSQL-backed Storage.
func NewPostgreSQLStorage(db *sql.DB) *PostgreSQLStorage {
	return &PostgreSQLStorage{
		sqlStorage: sqlStorage{
			db: db,
			queries: sqlQueries{
				put: `INSERT INTO storage_entries (table_name, entry_key, entry_value, updated_at)
					  VALUES ($1, $2, $3, $4)
					  ON CONFLICT (table_name, entry_key)
					  DO UPDATE SET entry_value = EXCLUDED.entry_value, updated_at = EXCLUDED.updated_at`,
				get:       `SELECT entry_value FROM storage_entries WHERE table_name = $1 AND entry_key = $2`,
				delete:    `DELETE FROM storage_entries WHERE table_name = $1 AND entry_key = $2`,
				enumerate: `SELECT entry_key FROM storage_entries WHERE table_name = $1 ORDER BY entry_key`,
			},
		},
	}
}
