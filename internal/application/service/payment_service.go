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

// DefaultMaxConflictRetries bounds the version-check retries of AddPayment
const DefaultMaxConflictRetries = 3

// PaymentReceipt is the committed ledger entry and the invoice after it
type PaymentReceipt struct {
	Payment *entity.Payment `json:"payment"`
	Invoice *InvoiceSummary `json:"invoice"`
}

// PaymentService records payments against invoices
type PaymentService interface {
	AddPayment(ctx context.Context, userID string, invoiceID int64, input invoice.PaymentInput) (*PaymentReceipt, error)
	ListPayments(ctx context.Context, userID string, invoiceID int64) ([]*entity.Payment, error)
}

// RejectionRecorder is told the error code of every refused payment
type RejectionRecorder func(code string)

type paymentServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	paymentRepo port.PaymentRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger

	locks      *invoiceLocks
	maxRetries int
	now        Clock
	onReject   RejectionRecorder
}

// PaymentOption configures the payment service
type PaymentOption func(*paymentServiceImpl)

// WithPaymentClock overrides the clock used for default payment dates
func WithPaymentClock(clock Clock) PaymentOption {
	return func(s *paymentServiceImpl) { s.now = clock }
}

// WithMaxConflictRetries sets how often a lost version check is retried
func WithMaxConflictRetries(n int) PaymentOption {
	return func(s *paymentServiceImpl) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRejectionRecorder registers a callback for refused payments
func WithRejectionRecorder(fn RejectionRecorder) PaymentOption {
	return func(s *paymentServiceImpl) { s.onReject = fn }
}

// NewPaymentService creates a new PaymentService. events may be nil.
func NewPaymentService(
	invoiceRepo port.InvoiceRepository,
	paymentRepo port.PaymentRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
	opts ...PaymentOption,
) PaymentService {
	s := &paymentServiceImpl{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
		locks:       newInvoiceLocks(),
		maxRetries:  DefaultMaxConflictRetries,
		now:         systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPayment appends a payment to the invoice's ledger and updates its
// amountPaid, balanceDue and status in the same transaction. Payments on one
// invoice are processed one at a time.
func (s *paymentServiceImpl) AddPayment(ctx context.Context, userID string, invoiceID int64, input invoice.PaymentInput) (*PaymentReceipt, error) {
	amount, paymentDate, err := input.Resolve(s.now())
	if err != nil {
		s.reject(err)
		return nil, err
	}

	unlock := s.locks.Lock(invoiceID)
	defer unlock()

	var receipt *PaymentReceipt
	var settled bool
	for attempt := 0; ; attempt++ {
		receipt, settled, err = s.applyOnce(ctx, userID, invoiceID, amount, paymentDate)
		if err == nil || !errors.Is(err, port.ErrConflict) || attempt >= s.maxRetries {
			break
		}
		s.logger.Info("Retrying payment after concurrent update",
			"invoice_id", invoiceID,
			"attempt", attempt+1,
		)
	}
	if err != nil {
		s.reject(err)
		if invoice.ErrorCode(err) == "" {
			s.logger.Error("Failed to add payment",
				"invoice_id", invoiceID,
				"amount", amount,
				"error", err,
			)
		}
		return nil, err
	}

	inv := receipt.Invoice.Invoice
	s.logger.Info("Payment recorded",
		"invoice_id", inv.ID,
		"payment_id", receipt.Payment.ID,
		"amount", receipt.Payment.Amount,
		"balance_due", inv.BalanceDue,
		"status", inv.Status,
	)

	correlationID := CorrelationID(ctx)
	evts := []*event.Event{
		event.NewEventWithCorrelation(event.TypePaymentRecorded, inv.ID, userID, map[string]interface{}{
			event.KeyPaymentID:     receipt.Payment.ID,
			event.KeyInvoiceNumber: inv.InvoiceNumber,
			event.KeyCurrency:      inv.Currency,
			event.KeyAmount:        receipt.Payment.Amount,
			event.KeyAmountPaid:    inv.AmountPaid,
			event.KeyBalanceDue:    inv.BalanceDue,
		}, correlationID),
	}
	if settled {
		evts = append(evts, event.NewEventWithCorrelation(event.TypeInvoiceSettled, inv.ID, userID, map[string]interface{}{
			event.KeyInvoiceNumber: inv.InvoiceNumber,
			event.KeyCurrency:      inv.Currency,
			event.KeyTotal:         inv.Total,
		}, correlationID))
	}
	publishEvents(ctx, s.events, s.logger, evts...)

	return receipt, nil
}

// applyOnce runs one read-validate-write cycle inside a transaction. The
// ledger is re-folded before commit so amountPaid always equals its sum.
func (s *paymentServiceImpl) applyOnce(ctx context.Context, userID string, invoiceID int64, amount float64, paymentDate time.Time) (*PaymentReceipt, bool, error) {
	var receipt *PaymentReceipt
	var settled bool

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.GetByIDForUser(ctx, invoiceID, userID)
		if err != nil {
			return err
		}

		result, err := invoice.ApplyPayment(inv, amount, paymentDate)
		if err != nil {
			if errors.Is(err, invoice.ErrNotFound) {
				return fmt.Errorf("invoice %d: %w", invoiceID, err)
			}
			return err
		}

		if err := s.invoiceRepo.UpdatePaymentState(ctx, result.Invoice); err != nil {
			return err
		}
		if err := s.paymentRepo.Create(ctx, result.Entry); err != nil {
			return err
		}

		ledger, err := s.paymentRepo.GetByInvoiceID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.ReconcileLedger(result.Invoice, ledger); err != nil {
			return err
		}

		settled = result.Settled
		receipt = &PaymentReceipt{
			Payment: result.Entry,
			Invoice: summarize(result.Invoice, ledger, s.now()),
		}
		return nil
	})

	return receipt, settled, err
}

// ListPayments returns the invoice's ledger, most recent payment first
func (s *paymentServiceImpl) ListPayments(ctx context.Context, userID string, invoiceID int64) ([]*entity.Payment, error) {
	inv, err := s.invoiceRepo.GetByIDForUser(ctx, invoiceID, userID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, invoice.ErrNotFound)
	}

	payments, err := s.paymentRepo.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*entity.Payment{}
	}
	return payments, nil
}

func (s *paymentServiceImpl) reject(err error) {
	if s.onReject == nil {
		return
	}
	code := invoice.ErrorCode(err)
	switch {
	case code != "":
		s.onReject(code)
	case errors.Is(err, port.ErrConflict):
		s.onReject("CONFLICT")
	case errors.Is(err, invoice.ErrLedgerMismatch):
		s.onReject("LEDGER_MISMATCH")
	}
}
