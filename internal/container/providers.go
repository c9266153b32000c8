package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/dispatcher"
	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/application/service"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/metrics"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/persistence/repository"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/report"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/storage"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/worker"
	httpapi "github.com/garyjia/invoice-ledger/internal/interfaces/http"
	"github.com/garyjia/invoice-ledger/migrations"
	"github.com/garyjia/invoice-ledger/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Invoice  port.InvoiceRepository
	LineItem port.LineItemRepository
	Payment  port.PaymentRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Invoice service.InvoiceService
	Payment service.PaymentService
	Report  service.ReportService
}

// ProvideDatabase opens the database and applies pending migrations, from
// cfg.MigrationsDir when set and from the embedded schema otherwise.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(migrations.FS)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Invoice:  repository.NewInvoiceRepository(db.DB, logger),
		LineItem: repository.NewLineItemRepository(db.DB, logger),
		Payment:  repository.NewPaymentRepository(db.DB, logger),
	}, nil
}

// ProvideStorage creates the file storage for kept exports, or nil when
// exports are not kept.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) port.FileStorage {
	if cfg == nil || !cfg.KeepExports {
		return nil
	}
	return storage.NewLocalFileStorage(cfg.BaseDir, logger)
}

// ProvideMetrics creates the prometheus collectors, or nil when disabled.
func ProvideMetrics(cfg *MetricsConfig) *metrics.Metrics {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return metrics.New(cfg.Namespace)
}

// ProvideDispatcher creates the event dispatcher and subscribes the audit
// log and, when enabled, the metrics handler.
func ProvideDispatcher(m *metrics.Metrics, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	kvLogger := &zapLoggerAdapter{logger: logger}
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger))
	d.Subscribe("audit_log", dispatcher.AuditLogHandler(kvLogger))
	if m != nil {
		d.Subscribe("metrics", m.EventHandler())
	}
	return d, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Files      port.FileStorage
	Metrics    *metrics.Metrics
	Report     *ReportConfig
	Payment    *PaymentConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	invoices := service.NewInvoiceService(
		deps.Repos.Invoice,
		deps.Repos.LineItem,
		deps.Repos.Payment,
		deps.TxManager,
		deps.Dispatcher,
		serviceLogger,
	)

	var paymentOpts []service.PaymentOption
	if deps.Payment != nil {
		paymentOpts = append(paymentOpts, service.WithMaxConflictRetries(deps.Payment.MaxConflictRetries))
	}
	if deps.Metrics != nil {
		paymentOpts = append(paymentOpts, service.WithRejectionRecorder(deps.Metrics.PaymentRejected))
	}
	payments := service.NewPaymentService(
		deps.Repos.Invoice,
		deps.Repos.Payment,
		deps.TxManager,
		deps.Dispatcher,
		serviceLogger,
		paymentOpts...,
	)

	companyName := ""
	if deps.Report != nil {
		companyName = deps.Report.CompanyName
	}
	reports := service.NewReportService(
		invoices,
		report.NewPDFRenderer(companyName, deps.Logger),
		report.NewStatementExporter(deps.Logger),
		deps.Files,
		serviceLogger,
	)

	return &ServiceBundle{
		Invoice: invoices,
		Payment: payments,
		Report:  reports,
	}, nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	Repos     *RepositoryBundle
	Metrics   *metrics.Metrics
	WorkerCfg *WorkerConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates and registers all background workers.
// Returns *worker.WorkerManager with all workers registered but not started.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.WorkerCfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(deps.Logger)

	var recorder worker.OutstandingRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	manager.Register(worker.NewOverdueScanner(
		deps.Repos.Invoice,
		recorder,
		deps.WorkerCfg.OverdueScanInterval,
		deps.Logger,
	))

	return manager, nil
}

// ProvideServer creates the HTTP server for the services.
func ProvideServer(cfg *ServerConfig, services *ServiceBundle, m *metrics.Metrics, logger *zap.Logger) (*httpapi.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	if cfg.Mode != "" {
		serverCfg.Mode = cfg.Mode
	}
	if cfg.ReadTimeout > 0 {
		serverCfg.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		serverCfg.WriteTimeout = cfg.WriteTimeout
	}
	serverCfg.FrontendURL = cfg.FrontendURL
	serverCfg.JWTSecret = cfg.JWTSecret

	return httpapi.NewServer(serverCfg, httpapi.Services{
		Invoices: services.Invoice,
		Payments: services.Payment,
		Reports:  services.Report,
	}, m, &zapLoggerAdapter{logger: logger}), nil
}
