package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/metrics"
)

type stubInvoiceRepo struct {
	port.InvoiceRepository
	invoices []*entity.Invoice
	err      error
}

func (s *stubInvoiceRepo) ListOutstanding(ctx context.Context) ([]*entity.Invoice, error) {
	return s.invoices, s.err
}

type recordingSink struct {
	mu        sync.Mutex
	snapshots []map[entity.Currency]metrics.CurrencySnapshot
}

func (r *recordingSink) SetOutstanding(snapshot map[entity.Currency]metrics.CurrencySnapshot, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func open(id int64, currency entity.Currency, balance float64, due time.Time) *entity.Invoice {
	return &entity.Invoice{
		ID:         id,
		Currency:   currency,
		Total:      balance,
		BalanceDue: balance,
		DueDate:    due,
		Status:     entity.InvoiceStatusDraft,
	}
}

func TestOverdueScanner_Scan(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	archived := open(5, entity.CurrencyUSD, 999, past)
	archived.IsArchived = true

	repo := &stubInvoiceRepo{invoices: []*entity.Invoice{
		open(1, entity.CurrencyUSD, 100.10, past),
		open(2, entity.CurrencyUSD, 50.20, future),
		open(3, entity.CurrencyEUR, 10, past),
		open(4, entity.CurrencyEUR, 5, now), // due now is not overdue yet
		archived,
	}}
	sink := &recordingSink{}
	s := NewOverdueScanner(repo, sink, time.Hour, zap.NewNop())
	s.now = func() time.Time { return now }

	snapshot, err := s.Scan(context.Background())
	require.NoError(t, err)

	usd := snapshot[entity.CurrencyUSD]
	assert.Equal(t, 1, usd.Overdue)
	assert.Equal(t, "150.3", usd.Outstanding.String())

	eur := snapshot[entity.CurrencyEUR]
	assert.Equal(t, 1, eur.Overdue)
	assert.Equal(t, "15", eur.Outstanding.String())

	assert.Len(t, snapshot, 2)
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, s.ScanCount())
}

func TestOverdueScanner_ScanError(t *testing.T) {
	sink := &recordingSink{}
	s := NewOverdueScanner(&stubInvoiceRepo{err: errors.New("db closed")}, sink, time.Hour, zap.NewNop())

	_, err := s.Scan(context.Background())
	assert.EqualError(t, err, "db closed")
	assert.Equal(t, 0, sink.count())
}

func TestOverdueScanner_StartStop(t *testing.T) {
	sink := &recordingSink{}
	s := NewOverdueScanner(&stubInvoiceRepo{}, sink, time.Hour, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "second start is refused")

	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop(), "stop is idempotent")
	assert.Equal(t, 1, s.ScanCount())
}

type fakeWorker struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (w *fakeWorker) Start(ctx context.Context) error {
	*w.events = append(*w.events, "start:"+w.name)
	return w.startErr
}

func (w *fakeWorker) Stop() error {
	*w.events = append(*w.events, "stop:"+w.name)
	return w.stopErr
}

func (w *fakeWorker) Name() string { return w.name }

func TestWorkerManager(t *testing.T) {
	var events []string
	m := NewWorkerManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", events: &events})
	m.Register(&fakeWorker{name: "broken", startErr: errors.New("no"), events: &events})
	m.Register(&fakeWorker{name: "b", stopErr: errors.New("stuck"), events: &events})
	assert.Equal(t, 3, m.GetWorkerCount())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()))

	err := m.StopAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: stuck")
	assert.False(t, m.IsRunning())

	// workers that failed to start are not stopped; the rest stop in reverse
	assert.Equal(t, []string{"start:a", "start:broken", "start:b", "stop:b", "stop:a"}, events)
	assert.NoError(t, m.StopAll())
}
