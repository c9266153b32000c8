package config

import (
	"github.com/garyjia/invoice-ledger/internal/container"
	"github.com/garyjia/invoice-ledger/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			Mode:         c.Server.Mode,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			FrontendURL:  c.Server.FrontendURL,
			JWTSecret:    c.Auth.JWTSecret,
		},
		Storage: container.StorageConfig{
			BaseDir:     c.Storage.BaseDir,
			KeepExports: c.Storage.KeepExports,
		},
		Report: container.ReportConfig{
			CompanyName: c.Report.CompanyName,
		},
		Payment: container.PaymentConfig{
			MaxConflictRetries: c.Payment.MaxConflictRetries,
		},
		Worker: container.WorkerConfig{
			OverdueScanInterval: c.Worker.OverdueScanInterval,
		},
		Metrics: container.MetricsConfig{
			Enabled:   c.Metrics.Enabled,
			Namespace: c.Metrics.Namespace,
		},
	}
}

// ToLoggerConfig converts the logger section for utils.NewLogger.
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
		MaxSizeMB:  c.Logger.MaxSizeMB,
		MaxBackups: c.Logger.MaxBackups,
		MaxAgeDays: c.Logger.MaxAgeDays,
	}
}
