package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/dispatcher"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/domain/event"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/persistence/repository"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoice-ledger/internal/invoice"
	"github.com/garyjia/invoice-ledger/migrations"
	"github.com/garyjia/invoice-ledger/pkg/database"
)

type sqliteServices struct {
	invoices InvoiceService
	payments PaymentService
	events   *eventRecorder
}

func newSQLiteServices(t *testing.T) *sqliteServices {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "ledger.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).RunMigrationsFS(migrations.FS))

	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	lineItemRepo := repository.NewLineItemRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentRepository(db.DB, logger)
	txManager := sqlite.NewDB(db.DB, logger)

	events := &eventRecorder{}
	d := dispatcher.NewDispatcher()
	d.Subscribe("recorder", events.handle)

	return &sqliteServices{
		invoices: NewInvoiceService(invoiceRepo, lineItemRepo, paymentRepo, txManager, d, &mockLogger{}, WithInvoiceClock(fixedClock)),
		payments: NewPaymentService(invoiceRepo, paymentRepo, txManager, d, &mockLogger{}, WithPaymentClock(fixedClock)),
		events:   events,
	}
}

func hundredDollarInvoice(number string) invoice.CreateInvoiceInput {
	return invoice.CreateInvoiceInput{
		InvoiceNumber: number,
		CustomerName:  "Acme Corp",
		IssueDate:     "2026-03-01",
		DueDate:       "2026-03-31",
		LineItems: []invoice.LineItemInput{
			{Description: "Retainer", Quantity: 1, UnitPrice: 100},
		},
	}
}

func TestSQLite_CreateGetAndDuplicate(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	in := createInput()
	created, err := s.invoices.CreateInvoice(ctx, "user-1", in)
	require.NoError(t, err)

	got, err := s.invoices.GetInvoice(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1001", got.InvoiceNumber)
	assert.Equal(t, 220.0, got.Total)
	assert.Equal(t, 20.0, got.AmountPaid)
	assert.Len(t, got.LineItems, 2)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, 20.0, got.Payments[0].Amount)

	_, err = s.invoices.GetInvoice(ctx, "user-2", created.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	_, err = s.invoices.CreateInvoice(ctx, "user-2", in)
	assert.ErrorIs(t, err, invoice.ErrDuplicateInvoiceNumber)
}

func TestSQLite_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	created, err := s.invoices.CreateInvoice(ctx, "user-1", hundredDollarInvoice("INV-CONC"))
	require.NoError(t, err)
	require.Equal(t, 100.0, created.Total)

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		exceeded int
		other    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.payments.AddPayment(ctx, "user-1", created.ID, pay(10, "2026-03-05"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, invoice.ErrExceedsBalance):
				exceeded++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 10, accepted)
	assert.Equal(t, 10, exceeded)

	got, err := s.invoices.GetInvoice(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.AmountPaid)
	assert.Equal(t, 0.0, got.BalanceDue)
	assert.Equal(t, entity.InvoiceStatusPaid, got.Status)
	assert.Equal(t, entity.PaymentStatusFullyPaid, got.PaymentStatus)

	ledger := invoice.SummarizeLedger(got.Payments)
	assert.Equal(t, 10, ledger.Count)
	assert.Equal(t, got.AmountPaid, ledger.Total)

	var settled int
	for _, typ := range s.events.types() {
		if typ == event.TypeInvoiceSettled {
			settled++
		}
	}
	assert.Equal(t, 1, settled)
}

func TestSQLite_ArchivedInvoiceRejectsPayments(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	created, err := s.invoices.CreateInvoice(ctx, "user-1", hundredDollarInvoice("INV-ARCH"))
	require.NoError(t, err)

	_, err = s.payments.AddPayment(ctx, "user-1", created.ID, pay(40, ""))
	require.NoError(t, err)

	archived, err := s.invoices.ArchiveInvoice(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)
	assert.Equal(t, 60.0, archived.BalanceDue)

	_, err = s.payments.AddPayment(ctx, "user-1", created.ID, pay(10, ""))
	assert.ErrorIs(t, err, invoice.ErrInvoiceArchived)

	archivedOnly := true
	list, err := s.invoices.ListInvoices(ctx, "user-1", ListFilter{Archived: &archivedOnly})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].PaymentCount)

	_, err = s.invoices.RestoreInvoice(ctx, "user-1", created.ID)
	require.NoError(t, err)

	receipt, err := s.payments.AddPayment(ctx, "user-1", created.ID, pay(60, ""))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, receipt.Invoice.Status)
}
