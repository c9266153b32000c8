package invoice

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAmount is returned for a payment amount that is not a positive,
	// finite value with at most two decimal places
	ErrInvalidAmount = errors.New("payment amount must be a positive number")

	// ErrExceedsBalance is returned when a payment is larger than the balance due
	ErrExceedsBalance = errors.New("payment amount cannot exceed balance due")

	// ErrInvoiceArchived is returned when paying an archived invoice
	ErrInvoiceArchived = errors.New("cannot add payment to archived invoice")

	// ErrNotFound is returned when the invoice does not exist or belongs to another user
	ErrNotFound = errors.New("invoice not found")

	// ErrLedgerMismatch is returned when amountPaid no longer equals the sum of ledger entries
	ErrLedgerMismatch = errors.New("payment ledger does not reconcile with amount paid")

	// ErrDuplicateInvoiceNumber is returned when the invoice number is already taken
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")
)

// ValidationError describes the first invalid field of an input
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// PaymentError carries the context of a rejected payment
type PaymentError struct {
	Err        error
	InvoiceID  int64
	Amount     float64
	BalanceDue float64
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: invoice %d, amount %.2f, balance due %.2f", e.Err.Error(), e.InvoiceID, e.Amount, e.BalanceDue)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Error codes reported to API clients
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidAmount   = "INVALID_AMOUNT"
	CodeExceedsBalance  = "EXCEEDS_BALANCE"
	CodeInvoiceArchived = "INVOICE_ARCHIVED"
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicate       = "DUPLICATE_INVOICE_NUMBER"
)

// ErrorCode maps a domain error to its client-facing code, or "" for
// errors that are not part of the invoice domain.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrExceedsBalance):
		return CodeExceedsBalance
	case errors.Is(err, ErrInvoiceArchived):
		return CodeInvoiceArchived
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateInvoiceNumber):
		return CodeDuplicate
	default:
		return ""
	}
}
