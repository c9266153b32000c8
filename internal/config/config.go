package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Report   ReportConfig   `mapstructure:"report"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	FrontendURL  string        `mapstructure:"frontend_url"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// DevTokenTTL is the lifetime of tokens printed by the seed command
	DevTokenTTL time.Duration `mapstructure:"dev_token_ttl"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// StorageConfig holds storage for rendered documents
type StorageConfig struct {
	BaseDir     string `mapstructure:"base_dir"`
	KeepExports bool   `mapstructure:"keep_exports"`
}

// ReportConfig holds PDF and statement settings
type ReportConfig struct {
	CompanyName string `mapstructure:"company_name"`
}

// PaymentConfig holds payment ledger settings
type PaymentConfig struct {
	MaxConflictRetries int `mapstructure:"max_conflict_retries"`
}

// WorkerConfig holds background worker settings
type WorkerConfig struct {
	OverdueScanInterval time.Duration `mapstructure:"overdue_scan_interval"`
}

// MetricsConfig holds prometheus settings
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from configPath, a .env file in the working
// directory and the environment, in increasing precedence. A missing
// config file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	// .env never overrides variables already set in the environment
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.frontend_url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.dev_token_ttl", 24*time.Hour)

	// Database defaults
	v.SetDefault("database.path", "data/ledger.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("storage.base_dir", "data/files")
	v.SetDefault("storage.keep_exports", true)

	v.SetDefault("report.company_name", "Invoice Ledger")

	v.SetDefault("payment.max_conflict_retries", 3)

	v.SetDefault("worker.overdue_scan_interval", time.Minute)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "ledger")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 7)
}

// bindEnvVars binds the short environment names used in deployments
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.frontend_url", "FRONTEND_URL")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set JWT_SECRET)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Payment.MaxConflictRetries < 1 {
		return fmt.Errorf("payment.max_conflict_retries must be at least 1")
	}
	if c.Worker.OverdueScanInterval <= 0 {
		return fmt.Errorf("worker.overdue_scan_interval must be positive")
	}
	return nil
}
