package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/domain/event"
)

type mockInvoiceRepo struct {
	createFunc             func(ctx context.Context, inv *entity.Invoice) error
	getByIDForUserFunc     func(ctx context.Context, id int64, userID string) (*entity.Invoice, error)
	listByUserFunc         func(ctx context.Context, userID string, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	listOutstandingFunc    func(ctx context.Context) ([]*entity.Invoice, error)
	updatePaymentStateFunc func(ctx context.Context, inv *entity.Invoice) error
	updateArchivedFunc     func(ctx context.Context, inv *entity.Invoice) error

	updatePaymentStateCalls int
	updateArchivedCalls     int
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, inv)
	}
	inv.ID = 1
	inv.Version = 1
	return nil
}

func (m *mockInvoiceRepo) GetByIDForUser(ctx context.Context, id int64, userID string) (*entity.Invoice, error) {
	if m.getByIDForUserFunc != nil {
		return m.getByIDForUserFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) ListByUser(ctx context.Context, userID string, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) ListOutstanding(ctx context.Context) ([]*entity.Invoice, error) {
	if m.listOutstandingFunc != nil {
		return m.listOutstandingFunc(ctx)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) UpdatePaymentState(ctx context.Context, inv *entity.Invoice) error {
	m.updatePaymentStateCalls++
	if m.updatePaymentStateFunc != nil {
		return m.updatePaymentStateFunc(ctx, inv)
	}
	inv.Version++
	return nil
}

func (m *mockInvoiceRepo) UpdateArchived(ctx context.Context, inv *entity.Invoice) error {
	m.updateArchivedCalls++
	if m.updateArchivedFunc != nil {
		return m.updateArchivedFunc(ctx, inv)
	}
	inv.Version++
	return nil
}

type mockLineItemRepo struct {
	createBatchFunc    func(ctx context.Context, items []*entity.LineItem) error
	getByInvoiceIDFunc func(ctx context.Context, invoiceID int64) ([]*entity.LineItem, error)
}

func (m *mockLineItemRepo) CreateBatch(ctx context.Context, items []*entity.LineItem) error {
	if m.createBatchFunc != nil {
		return m.createBatchFunc(ctx, items)
	}
	for i, item := range items {
		item.ID = int64(i + 1)
	}
	return nil
}

func (m *mockLineItemRepo) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.LineItem, error) {
	if m.getByInvoiceIDFunc != nil {
		return m.getByInvoiceIDFunc(ctx, invoiceID)
	}
	return nil, nil
}

// mockPaymentRepo keeps an in-memory ledger unless overridden
type mockPaymentRepo struct {
	mu      sync.Mutex
	entries []*entity.Payment

	createFunc          func(ctx context.Context, p *entity.Payment) error
	getByInvoiceIDFunc  func(ctx context.Context, invoiceID int64) ([]*entity.Payment, error)
	getByInvoiceIDsFunc func(ctx context.Context, ids []int64) (map[int64][]*entity.Payment, error)
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, p)
	return nil
}

func (m *mockPaymentRepo) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.Payment, error) {
	if m.getByInvoiceIDFunc != nil {
		return m.getByInvoiceIDFunc(ctx, invoiceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Payment
	for _, p := range m.entries {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) GetByInvoiceIDs(ctx context.Context, ids []int64) (map[int64][]*entity.Payment, error) {
	if m.getByInvoiceIDsFunc != nil {
		return m.getByInvoiceIDsFunc(ctx, ids)
	}
	out := make(map[int64][]*entity.Payment)
	for _, id := range ids {
		entries, _ := m.GetByInvoiceID(ctx, id)
		if len(entries) > 0 {
			out[id] = entries
		}
	}
	return out, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprint(append([]interface{}{msg}, keysAndValues...)...))
}

// eventRecorder is a dispatcher handler that keeps every event it sees
type eventRecorder struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *eventRecorder) handle(ctx context.Context, evt *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *eventRecorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
