package port

import (
	"context"
	"errors"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

var (
	// ErrConflict is returned when an optimistic version check fails
	ErrConflict = errors.New("invoice was modified concurrently")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("duplicate record")
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	// Archived selects archived (true) or active (false) invoices; nil lists both
	Archived *bool
	Limit    int
	Offset   int
}

// InvoiceRepository defines persistence operations for Invoice.
// Lookups return (nil, nil) when no row matches.
type InvoiceRepository interface {
	// Create inserts the invoice and sets its ID and Version
	Create(ctx context.Context, invoice *entity.Invoice) error

	// GetByIDForUser retrieves an invoice owned by userID
	GetByIDForUser(ctx context.Context, id int64, userID string) (*entity.Invoice, error)

	// ListByUser returns the user's invoices, newest first
	ListByUser(ctx context.Context, userID string, filter InvoiceFilter) ([]*entity.Invoice, error)

	// ListOutstanding returns every active invoice with a positive balance
	ListOutstanding(ctx context.Context) ([]*entity.Invoice, error)

	// UpdatePaymentState writes amountPaid, balanceDue and status if the stored
	// version still equals invoice.Version, then bumps invoice.Version.
	// Returns ErrConflict when the version moved.
	UpdatePaymentState(ctx context.Context, invoice *entity.Invoice) error

	// UpdateArchived writes the archival flag with the same version check
	UpdateArchived(ctx context.Context, invoice *entity.Invoice) error
}

// LineItemRepository defines persistence operations for LineItem
type LineItemRepository interface {
	CreateBatch(ctx context.Context, items []*entity.LineItem) error
	GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.LineItem, error)
}

// PaymentRepository defines persistence operations for the append-only payment ledger
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error

	// GetByInvoiceID returns ledger entries, most recent payment date first
	GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.Payment, error)

	// GetByInvoiceIDs groups ledger entries by invoice
	GetByInvoiceIDs(ctx context.Context, invoiceIDs []int64) (map[int64][]*entity.Payment, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
