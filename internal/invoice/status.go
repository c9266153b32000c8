package invoice

import (
	"time"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

// IsOverdue reports whether an unpaid invoice is past its due date at now.
// A zero due date is never overdue.
func IsOverdue(dueDate time.Time, status entity.InvoiceStatus, now time.Time) bool {
	if dueDate.IsZero() {
		return false
	}
	return status != entity.InvoiceStatusPaid && dueDate.Before(now)
}

// PaymentStatusOf derives the payment status from the stored amounts.
// The archival flag does not affect it.
func PaymentStatusOf(amountPaid, balanceDue float64) entity.PaymentStatus {
	switch {
	case Round2(balanceDue) == 0:
		return entity.PaymentStatusFullyPaid
	case Round2(amountPaid) > 0:
		return entity.PaymentStatusPartiallyPaid
	default:
		return entity.PaymentStatusUnpaid
	}
}
