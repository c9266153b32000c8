package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/domain/workflow"
)

// PaymentResult is the outcome of an accepted payment. Invoice is an updated
// copy of the snapshot; the caller persists it together with Entry.
type PaymentResult struct {
	Invoice *entity.Invoice
	Entry   *entity.Payment
	Settled bool
}

// ValidatePaymentAmount checks that amount is finite, positive and has at most
// two decimal places.
func ValidatePaymentAmount(amount float64) error {
	if !isFinite(amount) || amount <= 0 || hasSubCentPrecision(amount) {
		return ErrInvalidAmount
	}
	return nil
}

// ApplyPayment validates a payment against an invoice snapshot and returns the
// new payment state. Checks run in order: amount, existence, archival, balance.
// An amount larger than the balance due is rejected, never clamped.
func ApplyPayment(inv *entity.Invoice, amount float64, paymentDate time.Time) (*PaymentResult, error) {
	if err := ValidatePaymentAmount(amount); err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}

	state := workflow.StateOf(inv.Status, inv.IsArchived)
	if state.IsArchived() {
		return nil, &PaymentError{Err: ErrInvoiceArchived, InvoiceID: inv.ID, Amount: amount, BalanceDue: inv.BalanceDue}
	}

	amt := toDecimal(amount)
	if amt.GreaterThan(toDecimal(inv.BalanceDue)) {
		return nil, &PaymentError{Err: ErrExceedsBalance, InvoiceID: inv.ID, Amount: amount, BalanceDue: inv.BalanceDue}
	}

	newAmountPaid := toDecimal(inv.AmountPaid).Add(amt).Round(2)
	newBalanceDue := balanceAfter(toDecimal(inv.Total), newAmountPaid)

	machine := workflow.InvoiceLifecycle(func() bool { return newBalanceDue.IsZero() }).Build(state)
	if err := machine.Fire(workflow.TriggerPay); err != nil {
		// only reachable for a settled invoice whose stored balance is not zero
		return nil, &PaymentError{Err: ErrExceedsBalance, InvoiceID: inv.ID, Amount: amount, BalanceDue: inv.BalanceDue}
	}

	updated := inv.Clone()
	updated.AmountPaid = toMoney(newAmountPaid)
	updated.BalanceDue = toMoney(newBalanceDue)
	updated.Status = machine.State().InvoiceStatus()

	return &PaymentResult{
		Invoice: updated,
		Entry: &entity.Payment{
			InvoiceID:   inv.ID,
			Amount:      toMoney(amt),
			PaymentDate: paymentDate,
		},
		Settled: updated.Status == entity.InvoiceStatusPaid,
	}, nil
}

// Archive returns a copy of the invoice with the archival flag set.
// Settlement status and balances are untouched.
func Archive(inv *entity.Invoice) (*entity.Invoice, error) {
	return fireLifecycle(inv, workflow.TriggerArchive)
}

// Restore returns a copy of the invoice with the archival flag cleared.
func Restore(inv *entity.Invoice) (*entity.Invoice, error) {
	return fireLifecycle(inv, workflow.TriggerRestore)
}

func fireLifecycle(inv *entity.Invoice, trigger workflow.Trigger) (*entity.Invoice, error) {
	if inv == nil {
		return nil, ErrNotFound
	}
	machine := workflow.InvoiceLifecycle(nil).Build(workflow.StateOf(inv.Status, inv.IsArchived))
	if err := machine.Fire(trigger); err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			return nil, fmt.Errorf("invoice %d: %w", inv.ID, err)
		}
		return nil, err
	}

	updated := inv.Clone()
	updated.IsArchived = machine.State().IsArchived()
	return updated, nil
}

// LedgerSummary is a fold over the ledger entries of one invoice
type LedgerSummary struct {
	Count           int
	Total           float64
	LastPaymentDate *time.Time
}

// SummarizeLedger folds payments into a count, a rounded sum and the latest payment date.
func SummarizeLedger(payments []*entity.Payment) LedgerSummary {
	sum := decimal.Zero
	var summary LedgerSummary
	for _, p := range payments {
		if p == nil {
			continue
		}
		summary.Count++
		sum = sum.Add(toDecimal(p.Amount))
		if summary.LastPaymentDate == nil || p.PaymentDate.After(*summary.LastPaymentDate) {
			d := p.PaymentDate
			summary.LastPaymentDate = &d
		}
	}
	summary.Total = toMoney(sum)
	return summary
}

// ReconcileLedger checks that the invoice's amountPaid equals the rounded sum
// of its ledger entries.
func ReconcileLedger(inv *entity.Invoice, payments []*entity.Payment) error {
	summary := SummarizeLedger(payments)
	if !moneyEqual(summary.Total, inv.AmountPaid) {
		return fmt.Errorf("%w: invoice %d amountPaid %.2f, ledger sum %.2f (%d entries)",
			ErrLedgerMismatch, inv.ID, inv.AmountPaid, summary.Total, summary.Count)
	}
	return nil
}
