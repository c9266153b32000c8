// Package container provides dependency injection and lifecycle management
// for the invoice ledger service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Report   ReportConfig
	Payment  PaymentConfig
	Worker   WorkerConfig
	Metrics  MetricsConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a writer waits for the sqlite write lock
	BusyTimeout time.Duration

	// MigrationsDir overrides the embedded schema with migrations on disk
	MigrationsDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// FrontendURL is the allowed CORS origin
	FrontendURL string

	// JWTSecret signs and verifies bearer tokens
	JWTSecret string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// BaseDir is the root of stored exports
	BaseDir string

	// KeepExports stores a copy of every rendered PDF and statement
	KeepExports bool
}

// ReportConfig holds document rendering settings.
type ReportConfig struct {
	CompanyName string
}

// PaymentConfig holds payment ledger settings.
type PaymentConfig struct {
	// MaxConflictRetries bounds how often a payment is re-applied after a
	// concurrent modification of the same invoice
	MaxConflictRetries int
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	OverdueScanInterval time.Duration
}

// MetricsConfig holds prometheus settings.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/ledger.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Mode:         "release",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			BaseDir:     "data/files",
			KeepExports: true,
		},
		Report: ReportConfig{
			CompanyName: "Invoice Ledger",
		},
		Payment: PaymentConfig{
			MaxConflictRetries: 3,
		},
		Worker: WorkerConfig{
			OverdueScanInterval: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "ledger",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	if c.Payment.MaxConflictRetries < 1 {
		return fmt.Errorf("payment.max_conflict_retries must be at least 1")
	}
	if c.Storage.KeepExports && c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required when exports are kept")
	}
	return nil
}
