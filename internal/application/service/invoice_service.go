package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/invoice-ledger/internal/application/dispatcher"
	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/domain/event"
	"github.com/garyjia/invoice-ledger/internal/invoice"
)

// InvoiceDetail is an invoice with its lines, ledger and derived status
type InvoiceDetail struct {
	*entity.Invoice
	LineItems     []*entity.LineItem   `json:"lineItems"`
	Payments      []*entity.Payment    `json:"payments"`
	PaymentStatus entity.PaymentStatus `json:"paymentStatus"`
	IsOverdue     bool                 `json:"isOverdue"`
}

// InvoiceSummary is a list entry with payment metadata folded from the ledger
type InvoiceSummary struct {
	*entity.Invoice
	PaymentStatus   entity.PaymentStatus `json:"paymentStatus"`
	PaymentCount    int                  `json:"paymentCount"`
	LastPaymentDate *time.Time           `json:"lastPaymentDate"`
	IsOverdue       bool                 `json:"isOverdue"`
}

// ListFilter narrows ListInvoices
type ListFilter struct {
	Archived *bool
	Limit    int
	Offset   int
}

// InvoiceService manages invoices and their archival state
type InvoiceService interface {
	CreateInvoice(ctx context.Context, userID string, input invoice.CreateInvoiceInput) (*InvoiceDetail, error)
	GetInvoice(ctx context.Context, userID string, id int64) (*InvoiceDetail, error)
	ListInvoices(ctx context.Context, userID string, filter ListFilter) ([]*InvoiceSummary, error)
	ArchiveInvoice(ctx context.Context, userID string, id int64) (*InvoiceSummary, error)
	RestoreInvoice(ctx context.Context, userID string, id int64) (*InvoiceSummary, error)
}

type invoiceServiceImpl struct {
	invoiceRepo  port.InvoiceRepository
	lineItemRepo port.LineItemRepository
	paymentRepo  port.PaymentRepository
	txManager    port.TransactionManager
	events       dispatcher.Dispatcher
	logger       Logger
	now          Clock
}

// InvoiceOption configures the invoice service
type InvoiceOption func(*invoiceServiceImpl)

// WithInvoiceClock overrides the clock used for overdue derivation
func WithInvoiceClock(clock Clock) InvoiceOption {
	return func(s *invoiceServiceImpl) { s.now = clock }
}

// NewInvoiceService creates a new InvoiceService. events may be nil.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	lineItemRepo port.LineItemRepository,
	paymentRepo port.PaymentRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
	opts ...InvoiceOption,
) InvoiceService {
	s := &invoiceServiceImpl{
		invoiceRepo:  invoiceRepo,
		lineItemRepo: lineItemRepo,
		paymentRepo:  paymentRepo,
		txManager:    txManager,
		events:       events,
		logger:       logger,
		now:          systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvoice validates the input, computes totals and stores the invoice,
// its line items and (for a non-zero initial amountPaid) an opening ledger
// entry dated on the issue date, all in one transaction.
func (s *invoiceServiceImpl) CreateInvoice(ctx context.Context, userID string, input invoice.CreateInvoiceInput) (*InvoiceDetail, error) {
	validated, err := input.Validate()
	if err != nil {
		return nil, err
	}

	inv, items := validated.NewInvoice(userID)
	var payments []*entity.Payment

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.invoiceRepo.Create(ctx, inv); err != nil {
			if errors.Is(err, port.ErrDuplicate) {
				return fmt.Errorf("%w: %s", invoice.ErrDuplicateInvoiceNumber, inv.InvoiceNumber)
			}
			return err
		}

		for _, item := range items {
			item.InvoiceID = inv.ID
		}
		if err := s.lineItemRepo.CreateBatch(ctx, items); err != nil {
			return err
		}

		if inv.AmountPaid > 0 {
			opening := &entity.Payment{
				InvoiceID:   inv.ID,
				Amount:      inv.AmountPaid,
				PaymentDate: inv.IssueDate,
			}
			if err := s.paymentRepo.Create(ctx, opening); err != nil {
				return err
			}
			payments = append(payments, opening)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create invoice",
			"user_id", userID,
			"invoice_number", inv.InvoiceNumber,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"total", inv.Total,
		"status", inv.Status,
	)

	s.publish(ctx, event.NewEventWithCorrelation(event.TypeInvoiceCreated, inv.ID, userID, map[string]interface{}{
		event.KeyInvoiceNumber: inv.InvoiceNumber,
		event.KeyCurrency:      inv.Currency,
		event.KeyTotal:         inv.Total,
		event.KeyAmountPaid:    inv.AmountPaid,
	}, CorrelationID(ctx)))

	return s.detail(inv, items, payments), nil
}

// GetInvoice returns the invoice with totals recomputed from its line items
func (s *invoiceServiceImpl) GetInvoice(ctx context.Context, userID string, id int64) (*InvoiceDetail, error) {
	inv, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	items, err := s.lineItemRepo.GetByInvoiceID(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.GetByInvoiceID(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	return s.detail(inv, items, payments), nil
}

// ListInvoices returns the user's invoices with ledger metadata
func (s *invoiceServiceImpl) ListInvoices(ctx context.Context, userID string, filter ListFilter) ([]*InvoiceSummary, error) {
	invoices, err := s.invoiceRepo.ListByUser(ctx, userID, port.InvoiceFilter{
		Archived: filter.Archived,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}

	ledgers := map[int64][]*entity.Payment{}
	if len(ids) > 0 {
		if ledgers, err = s.paymentRepo.GetByInvoiceIDs(ctx, ids); err != nil {
			return nil, err
		}
	}

	now := s.now()
	summaries := make([]*InvoiceSummary, len(invoices))
	for i, inv := range invoices {
		summaries[i] = summarize(inv, ledgers[inv.ID], now)
	}
	return summaries, nil
}

// ArchiveInvoice sets the archival flag. Archiving an archived invoice is a no-op.
func (s *invoiceServiceImpl) ArchiveInvoice(ctx context.Context, userID string, id int64) (*InvoiceSummary, error) {
	return s.setArchived(ctx, userID, id, invoice.Archive, event.TypeInvoiceArchived)
}

// RestoreInvoice clears the archival flag. Restoring an active invoice is a no-op.
func (s *invoiceServiceImpl) RestoreInvoice(ctx context.Context, userID string, id int64) (*InvoiceSummary, error) {
	return s.setArchived(ctx, userID, id, invoice.Restore, event.TypeInvoiceRestored)
}

func (s *invoiceServiceImpl) setArchived(
	ctx context.Context,
	userID string,
	id int64,
	transition func(*entity.Invoice) (*entity.Invoice, error),
	eventType event.Type,
) (*InvoiceSummary, error) {
	var (
		updated  *entity.Invoice
		payments []*entity.Payment
		changed  bool
	)

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.load(ctx, userID, id)
		if err != nil {
			return err
		}

		if updated, err = transition(inv); err != nil {
			return err
		}

		if updated.IsArchived != inv.IsArchived {
			if err := s.invoiceRepo.UpdateArchived(ctx, updated); err != nil {
				return err
			}
			changed = true
		}

		payments, err = s.paymentRepo.GetByInvoiceID(ctx, updated.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Invoice archival changed",
			"invoice_id", updated.ID,
			"is_archived", updated.IsArchived,
		)
		s.publish(ctx, event.NewEventWithCorrelation(eventType, updated.ID, userID, map[string]interface{}{
			event.KeyInvoiceNumber: updated.InvoiceNumber,
			event.KeyCurrency:      updated.Currency,
			event.KeyBalanceDue:    updated.BalanceDue,
		}, CorrelationID(ctx)))
	}

	return summarize(updated, payments, s.now()), nil
}

func (s *invoiceServiceImpl) load(ctx context.Context, userID string, id int64) (*entity.Invoice, error) {
	inv, err := s.invoiceRepo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice %d: %w", id, invoice.ErrNotFound)
	}
	return inv, nil
}

// detail recomputes subtotal, tax, total and balance from the stored lines
func (s *invoiceServiceImpl) detail(inv *entity.Invoice, items []*entity.LineItem, payments []*entity.Payment) *InvoiceDetail {
	lines := make([]invoice.LineInput, len(items))
	for i, item := range items {
		lines[i] = invoice.LineInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	totals := invoice.ComputeTotals(lines, inv.TaxRate, inv.AmountPaid)

	view := inv.Clone()
	view.SubTotal = totals.SubTotal
	view.TaxAmount = totals.TaxAmount
	view.Total = totals.Total
	view.BalanceDue = totals.BalanceDue
	view.Status = totals.Status

	if items == nil {
		items = []*entity.LineItem{}
	}
	if payments == nil {
		payments = []*entity.Payment{}
	}

	return &InvoiceDetail{
		Invoice:       view,
		LineItems:     items,
		Payments:      payments,
		PaymentStatus: invoice.PaymentStatusOf(view.AmountPaid, view.BalanceDue),
		IsOverdue:     invoice.IsOverdue(view.DueDate, view.Status, s.now()),
	}
}

func summarize(inv *entity.Invoice, payments []*entity.Payment, now time.Time) *InvoiceSummary {
	ledger := invoice.SummarizeLedger(payments)
	return &InvoiceSummary{
		Invoice:         inv,
		PaymentStatus:   invoice.PaymentStatusOf(inv.AmountPaid, inv.BalanceDue),
		PaymentCount:    ledger.Count,
		LastPaymentDate: ledger.LastPaymentDate,
		IsOverdue:       invoice.IsOverdue(inv.DueDate, inv.Status, now),
	}
}

func (s *invoiceServiceImpl) publish(ctx context.Context, evts ...*event.Event) {
	publishEvents(ctx, s.events, s.logger, evts...)
}

// publishEvents runs after commit; handler failures are logged, never
// returned, since the change is already durable.
func publishEvents(ctx context.Context, d dispatcher.Dispatcher, logger Logger, evts ...*event.Event) {
	if d == nil || len(evts) == 0 {
		return
	}
	if err := d.Publish(ctx, evts...); err != nil {
		logger.Error("Event handlers failed", "error", err)
	}
}
