package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/metrics"
	"github.com/garyjia/invoice-ledger/internal/invoice"
)

// DefaultScanInterval is used when no interval is configured
const DefaultScanInterval = time.Minute

// OutstandingRecorder receives the result of each scan
type OutstandingRecorder interface {
	SetOutstanding(snapshot map[entity.Currency]metrics.CurrencySnapshot, at time.Time)
}

// OverdueScanner periodically derives overdue counts and outstanding
// balances per currency. It only reads; nothing is persisted.
type OverdueScanner struct {
	invoices port.InvoiceRepository
	recorder OutstandingRecorder
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	scans     int
}

// NewOverdueScanner creates a scanner that runs every interval
func NewOverdueScanner(invoices port.InvoiceRepository, recorder OutstandingRecorder, interval time.Duration, logger *zap.Logger) *OverdueScanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &OverdueScanner{
		invoices: invoices,
		recorder: recorder,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Name implements Worker
func (s *OverdueScanner) Name() string { return "OverdueScanner" }

// Start runs a first scan immediately, then one per interval
func (s *OverdueScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return errors.New("overdue scanner already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.isRunning = true

	go s.loop(runCtx, s.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight scan to finish
func (s *OverdueScanner) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (s *OverdueScanner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Scan(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Overdue scan failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Scan loads open invoices once and publishes the per-currency result
func (s *OverdueScanner) Scan(ctx context.Context) (map[entity.Currency]metrics.CurrencySnapshot, error) {
	invoices, err := s.invoices.ListOutstanding(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	snapshot := make(map[entity.Currency]metrics.CurrencySnapshot)
	overdue := 0
	for _, inv := range invoices {
		if inv.IsArchived {
			continue
		}
		entry := snapshot[inv.Currency]
		entry.Outstanding = entry.Outstanding.Add(decimal.NewFromFloat(inv.BalanceDue))
		if invoice.IsOverdue(inv.DueDate, inv.Status, now) {
			entry.Overdue++
			overdue++
		}
		snapshot[inv.Currency] = entry
	}

	if s.recorder != nil {
		s.recorder.SetOutstanding(snapshot, now)
	}

	s.mu.Lock()
	s.scans++
	s.mu.Unlock()

	s.logger.Debug("Overdue scan completed",
		zap.Int("open_invoices", len(invoices)),
		zap.Int("overdue", overdue))
	return snapshot, nil
}

// ScanCount returns how many scans have completed
func (s *OverdueScanner) ScanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans
}
