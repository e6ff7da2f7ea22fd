// Package app wires configuration into the running components. Every
// component is built on first use and shared afterwards.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/credstore/internal/config"
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
	"github.com/allisson/credstore/internal/database"
	documentDomain "github.com/allisson/credstore/internal/document/domain"
	documentHTTP "github.com/allisson/credstore/internal/document/http"
	documentUseCase "github.com/allisson/credstore/internal/document/usecase"
	"github.com/allisson/credstore/internal/http"
	"github.com/allisson/credstore/internal/metrics"
	secureAreaHTTP "github.com/allisson/credstore/internal/securearea/http"
	secureAreaService "github.com/allisson/credstore/internal/securearea/service"
	"github.com/allisson/credstore/internal/storage"
)

// Container owns every component and releases them in Shutdown.
type Container struct {
	config *config.Config

	loggerOnce sync.Once
	logger     *slog.Logger

	db      lazy[*sql.DB]
	storage lazy[storage.Storage]

	metricsProvider lazy[*metrics.Provider]
	businessMetrics lazy[metrics.BusinessMetrics]

	kmsServiceOnce sync.Once
	kmsService     cryptoService.KMSService
	masterKeyChain lazy[*cryptoDomain.MasterKeyChain]
	keyWrapper     lazy[cryptoService.KeyWrapper]

	attester             lazy[*secureAreaService.X509Attester]
	secureAreaRepository lazy[*secureAreaService.Repository]
	secureAreaHandler    lazy[*secureAreaHTTP.SecureAreaHandler]

	documentTypes   lazy[*documentDomain.DocumentTypeRepository]
	documentStore   lazy[documentUseCase.DocumentStore]
	documentHandler lazy[*documentHTTP.DocumentHandler]

	httpServer    lazy[*http.Server]
	metricsServer lazy[*http.MetricsServer]

	// Background work started by the servers stops when Shutdown cancels it.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	shutdownMu sync.Mutex
}

// NewContainer returns an empty container; nothing is built until asked for.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config:     cfg,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

func (c *Container) Config() *config.Config {
	return c.config
}

// Logger writes JSON to stdout at LOG_LEVEL; unknown levels mean info.
func (c *Container) Logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		c.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(c.config.LogLevel),
		}))
	})
	return c.logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DB is only available for the SQL storage drivers.
func (c *Container) DB() (*sql.DB, error) {
	return c.db.get(c.initDB)
}

// Storage returns the key-value storage selected by STORAGE_DRIVER.
func (c *Container) Storage() (storage.Storage, error) {
	return c.storage.get(c.initStorage)
}

// MetricsProvider is nil, without error, when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	return c.metricsProvider.get(c.initMetricsProvider)
}

// BusinessMetrics falls back to a no-op recorder when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	return c.businessMetrics.get(c.initBusinessMetrics)
}

// HTTPServer returns the API server with its routes registered.
func (c *Container) HTTPServer() (*http.Server, error) {
	return c.httpServer.get(c.initHTTPServer)
}

// MetricsServer fails when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return c.metricsServer.get(c.initMetricsServer)
}

// Shutdown stops the servers, then releases key material and storage in
// reverse build order. Components never built are skipped.
func (c *Container) Shutdown(ctx context.Context) error {
	c.shutdownMu.Lock()
	defer c.shutdownMu.Unlock()

	c.baseCancel()

	var errs []error
	collect := func(what string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
		}
	}

	if srv, ok := c.httpServer.peek(); ok {
		collect("http server shutdown", srv.Shutdown(ctx))
	}
	if srv, ok := c.metricsServer.peek(); ok {
		collect("metrics server shutdown", srv.Shutdown(ctx))
	}
	if provider, ok := c.metricsProvider.peek(); ok && provider != nil {
		collect("metrics provider shutdown", provider.Shutdown(ctx))
	}
	if chain, ok := c.masterKeyChain.peek(); ok {
		chain.Close()
	}
	if st, ok := c.storage.peek(); ok {
		if closer, isCloser := st.(io.Closer); isCloser {
			collect("storage close", closer.Close())
		}
	}
	if db, ok := c.db.peek(); ok {
		collect("database close", db.Close())
	}

	return errors.Join(errs...)
}

func (c *Container) initDB() (*sql.DB, error) {
	if !c.config.IsSQLStorage() {
		return nil, fmt.Errorf("storage driver %q has no database connection", c.config.StorageDriver)
	}

	db, err := database.Connect(database.Config{
		Driver:             c.config.StorageDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initStorage() (storage.Storage, error) {
	switch c.config.StorageDriver {
	case config.StorageMemory:
		c.Logger().Warn("using in-memory storage, documents are lost on exit")
		return storage.NewMemoryStorage(), nil

	case config.StorageBlob:
		if c.config.BlobBucketURL == "" {
			return nil, fmt.Errorf("BLOB_BUCKET_URL is required for the blob storage driver")
		}
		blobStorage, err := storage.OpenBlobStorage(context.Background(), c.config.BlobBucketURL)
		if err != nil {
			return nil, err
		}
		return blobStorage, nil

	case config.StoragePostgres, config.StorageMySQL, config.StorageSQLite:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for storage: %w", err)
		}
		return newSQLStorage(c.config.StorageDriver, db), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", c.config.StorageDriver)
	}
}

func newSQLStorage(driver string, db *sql.DB) storage.Storage {
	switch driver {
	case config.StoragePostgres:
		return storage.NewPostgreSQLStorage(db)
	case config.StorageMySQL:
		return storage.NewMySQLStorage(db)
	default:
		return storage.NewSQLiteStorage(db)
	}
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return provider.BusinessMetrics()
}

func (c *Container) initHTTPServer() (*http.Server, error) {
	st, err := c.Storage()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage for http server: %w", err)
	}
	documentHandler, err := c.DocumentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get document handler for http server: %w", err)
	}
	secureAreaHandler, err := c.SecureAreaHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get secure area handler for http server: %w", err)
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(st, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(c.baseCtx, c.config, documentHandler, secureAreaHandler, provider)
	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("metrics are disabled")
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
