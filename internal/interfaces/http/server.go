// Package http is the gin adapter in front of the invoice, payment and
// report services.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoice-ledger/internal/application/service"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/metrics"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// FrontendURL is the allowed CORS origin; empty allows any origin
	FrontendURL string
	JWTSecret   string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		Mode:         gin.ReleaseMode,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services groups the application services the handlers call
type Services struct {
	Invoices service.InvoiceService
	Payments service.PaymentService
	Reports  service.ReportService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	metrics    *metrics.Metrics
	auth       *Authenticator
	logger     Logger
}

// NewServer creates a new HTTP server. m may be nil to disable metrics.
func NewServer(config ServerConfig, services Services, m *metrics.Metrics, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	s := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		metrics:  m,
		auth:     NewAuthenticator(config.JWTSecret),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware(s.config.FrontendURL))
	if s.metrics != nil {
		s.router.Use(metricsMiddleware(s.metrics))
	}
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.logger)

	s.router.GET("/health", h.HealthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api", s.auth.Require())
	{
		api.GET("/invoices", h.ListInvoices)
		api.POST("/invoices", h.CreateInvoice)
		api.POST("/invoices/archive", h.ArchiveInvoice)
		api.POST("/invoices/restore", h.RestoreInvoice)
		api.GET("/invoices/:id", h.GetInvoice)
		api.GET("/invoices/:id/pdf", h.DownloadInvoicePDF)
		api.GET("/invoices/:id/payments", h.ListPayments)
		api.POST("/invoices/:id/payments", h.AddPayment)

		api.GET("/reports/statement", h.ExportStatement)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
