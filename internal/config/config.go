// Package config reads the process configuration from the environment,
// optionally seeded from the nearest .env file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	apperrors "github.com/allisson/credstore/internal/errors"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMySQL    = "mysql"
	StorageSQLite   = "sqlite"
	StorageBlob     = "blob"
)

// Config is the flattened set of environment settings. Field comments name
// the variable only where it is not the obvious SCREAMING_CASE of the field.
type Config struct {
	ServerHost string
	ServerPort int

	StorageDriver string
	// DB_CONNECTION_STRING, used by postgres, mysql and sqlite.
	DBConnectionString   string
	DBMaxOpenConnections int
	DBMaxIdleConnections int
	// DB_CONN_MAX_LIFETIME, in minutes.
	DBConnMaxLifetime time.Duration
	// A gocloud.dev bucket URL such as file:///var/lib/credstore or
	// s3://bucket?region=eu-west-1.
	BlobBucketURL string

	// debug, info, warn or error.
	LogLevel string

	// When set, the scheme of KMSKeyURI must belong to this provider.
	KMSProvider string
	// gocloud.dev/secrets keeper that decrypts MasterKeys.
	KMSKeyURI string
	// "id1:base64ciphertext,id2:base64ciphertext"
	MasterKeys        string
	ActiveMasterKeyID string
	// aes-gcm or chacha20-poly1305.
	KeyWrapAlgorithm string

	SoftwareSecureAreaEnabled bool
	AWSKMSSecureAreaEnabled   bool
	AWSRegion                 string
	// Pending window passed to ScheduleKeyDeletion.
	AWSKMSDeletionWindowDays int
	// Common name of the per-process attestation root.
	AttestationSubject string
	// Used by the CLI when --secure-area is omitted.
	DefaultSecureArea string

	// Bearer token required on /v1 routes; empty disables the check.
	APIToken string

	// Per client IP.
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	CORSEnabled bool
	// Comma-separated origins, or "*".
	CORSAllowOrigins string

	MetricsEnabled   bool
	MetricsNamespace string
	MetricsPort      int
}

// Load reads every setting, falling back to the defaults below.
func Load() *Config {
	loadDotEnv()

	return &Config{
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		StorageDriver:        env.GetString("STORAGE_DRIVER", StorageSQLite),
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", "file:credstore.db?_pragma=busy_timeout(5000)"),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),
		BlobBucketURL:        env.GetString("BLOB_BUCKET_URL", ""),

		LogLevel: env.GetString("LOG_LEVEL", "info"),

		KMSProvider:       env.GetString("KMS_PROVIDER", ""),
		KMSKeyURI:         env.GetString("KMS_KEY_URI", ""),
		MasterKeys:        env.GetString("MASTER_KEYS", ""),
		ActiveMasterKeyID: env.GetString("ACTIVE_MASTER_KEY_ID", ""),
		KeyWrapAlgorithm:  env.GetString("KEY_WRAP_ALGORITHM", "aes-gcm"),

		SoftwareSecureAreaEnabled: env.GetBool("SOFTWARE_SECURE_AREA_ENABLED", true),
		AWSKMSSecureAreaEnabled:   env.GetBool("AWS_KMS_SECURE_AREA_ENABLED", false),
		AWSRegion:                 env.GetString("AWS_REGION", "us-east-1"),
		AWSKMSDeletionWindowDays:  env.GetInt("AWS_KMS_DELETION_WINDOW_DAYS", 7),
		AttestationSubject:        env.GetString("ATTESTATION_SUBJECT", "credstore attestation root"),
		DefaultSecureArea:         env.GetString("DEFAULT_SECURE_AREA", "software"),

		APIToken: env.GetString("API_TOKEN", ""),

		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "credstore"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate rejects settings the container could only fail on later, and
// reports every offending field at once.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.StorageDriver, validation.Required,
			validation.In(StorageMemory, StoragePostgres, StorageMySQL, StorageSQLite, StorageBlob)),
		validation.Field(&c.DBConnectionString, validation.When(c.IsSQLStorage(), validation.Required)),
		validation.Field(&c.BlobBucketURL, validation.When(c.StorageDriver == StorageBlob, validation.Required)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.KeyWrapAlgorithm, validation.Required, validation.In("aes-gcm", "chacha20-poly1305")),
		validation.Field(&c.ActiveMasterKeyID, validation.When(c.MasterKeys != "", validation.Required)),
		validation.Field(&c.AWSKMSDeletionWindowDays,
			validation.When(c.AWSKMSSecureAreaEnabled, validation.Min(7), validation.Max(30))),
		validation.Field(&c.AWSRegion, validation.When(c.AWSKMSSecureAreaEnabled, validation.Required)),
		validation.Field(&c.RateLimitRequestsPerSec, validation.When(c.RateLimitEnabled, validation.Min(0.001))),
		validation.Field(&c.RateLimitBurst, validation.When(c.RateLimitEnabled, validation.Min(1))),
		validation.Field(&c.MetricsPort, validation.When(c.MetricsEnabled,
			validation.Min(1), validation.Max(65535), validation.NotIn(c.ServerPort))),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMisconfigured, "invalid configuration: "+err.Error())
	}
	return nil
}

// IsSQLStorage reports whether the storage driver is backed by database/sql.
func (c *Config) IsSQLStorage() bool {
	switch c.StorageDriver {
	case StoragePostgres, StorageMySQL, StorageSQLite:
		return true
	default:
		return false
	}
}

// GetGinMode is "debug" only at debug log level.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

// loadDotEnv loads the first .env found walking up from the working directory.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
