package commands

import (
	"fmt"
	"log/slog"

	"github.com/allisson/credstore/internal/config"
	"github.com/allisson/credstore/internal/database"
)

// RunMigrations applies pending schema migrations from ./migrations for the
// SQL storage drivers. The memory and blob drivers have no schema, so they are
// a no-op.
func RunMigrations(logger *slog.Logger, driver, connectionString string) error {
	return runMigrations(logger, driver, connectionString, "migrations")
}

func runMigrations(logger *slog.Logger, driver, connectionString, migrationsRoot string) error {
	if driver == config.StorageMemory || driver == config.StorageBlob {
		logger.Info("storage driver has no schema, skipping migrations", slog.String("driver", driver))
		return nil
	}
	if _, err := database.MigrationsDir(driver); err != nil {
		return err
	}

	logger.Info("running database migrations", slog.String("driver", driver))

	db, err := database.Connect(database.Config{
		Driver:             driver,
		ConnectionString:   connectionString,
		MaxOpenConnections: 2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to connect for migrations: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close migration connection", slog.Any("error", err))
		}
	}()

	applied, err := database.Migrate(db, driver, migrationsRoot)
	if err != nil {
		return err
	}

	if applied {
		logger.Info("migrations completed successfully")
	} else {
		logger.Info("schema already up to date")
	}
	return nil
}
