package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertEntry = "INSERT INTO storage_entries (table_name, entry_key, entry_value, updated_at) " +
	"VALUES (?, ?, ?, CURRENT_TIMESTAMP)"

func countEntries(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM storage_entries").Scan(&count))
	return count
}

func TestServerDSN(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		t.Setenv("TEST_POSTGRES_DSN", "")
		assert.Equal(t, postgresServer.defaultDSN, postgresServer.dsn())
	})

	t.Run("FromEnv", func(t *testing.T) {
		t.Setenv("TEST_MYSQL_DSN", "u:p@tcp(db:3306)/credstore?parseTime=true")
		assert.Equal(t, "u:p@tcp(db:3306)/credstore?parseTime=true", mysqlServer.dsn())
	})
}

func TestFindMigrationsRoot(t *testing.T) {
	root, err := findMigrationsRoot()
	require.NoError(t, err)

	for _, dialect := range []string{"postgresql", "mysql", "sqlite"} {
		_, err := os.Stat(filepath.Join(root, dialect))
		assert.NoError(t, err, "missing migrations/%s", dialect)
	}
}

func TestFindMigrationsRoot_FromNestedDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, os.MkdirAll(filepath.Join(nested, "..", "..", "migrations"), 0o750))
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	root, err := findMigrationsRoot()
	require.NoError(t, err)
	assert.Equal(t, "migrations", filepath.Base(root))
}

func TestSQLiteDB(t *testing.T) {
	db := SQLiteDB(t)

	_, err := db.Exec(insertEntry, "Documents", "doc-1", []byte("value"))
	require.NoError(t, err)

	assert.Equal(t, 1, countEntries(t, db))

	Truncate(t, db)
	assert.Zero(t, countEntries(t, db))
}

func TestSQLiteDB_Isolated(t *testing.T) {
	first := SQLiteDB(t)
	second := SQLiteDB(t)

	_, err := first.Exec(insertEntry, "Documents", "doc-1", []byte("value"))
	require.NoError(t, err)

	assert.Zero(t, countEntries(t, second), "in-memory databases must not share state")
}

func TestSQLiteDB_ClosedAfterTest(t *testing.T) {
	var db *sql.DB
	t.Run("inner", func(t *testing.T) {
		db = SQLiteDB(t)
	})
	assert.Error(t, db.Ping())
}

func TestPostgresDB(t *testing.T) {
	db := PostgresDB(t)
	assert.Zero(t, countEntries(t, db), "database should be empty after setup")
}

func TestMySQLDB(t *testing.T) {
	db := MySQLDB(t)
	assert.Zero(t, countEntries(t, db), "database should be empty after setup")
}
