package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migrateDatabase "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies every pending migration under migrationsRoot/<MigrationsDir(driver)>
// to db. It reports whether anything was applied. db stays open and owned by
// the caller.
func Migrate(db *sql.DB, driver, migrationsRoot string) (bool, error) {
	dir, err := MigrationsDir(driver)
	if err != nil {
		return false, err
	}

	var instance migrateDatabase.Driver
	switch driver {
	case DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverMySQL:
		instance, err = mysql.WithInstance(db, &mysql.Config{})
	default:
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s migration driver: %w", driver, err)
	}

	sourceURL := "file://" + filepath.ToSlash(filepath.Join(migrationsRoot, dir))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, driver, instance)
	if err != nil {
		return false, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: that would close db as well.

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("failed to run migrations: %w", err)
	}
	return true, nil
}
