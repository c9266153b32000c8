package port

import (
	"time"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

// InvoiceDocument is everything needed to render one invoice
type InvoiceDocument struct {
	Invoice       *entity.Invoice
	LineItems     []*entity.LineItem
	Payments      []*entity.Payment
	PaymentStatus entity.PaymentStatus
	IsOverdue     bool
	GeneratedAt   time.Time
}

// StatementRow is one invoice line of a statement export
type StatementRow struct {
	Invoice         *entity.Invoice
	PaymentStatus   entity.PaymentStatus
	PaymentCount    int
	LastPaymentDate *time.Time
	IsOverdue       bool
}

// InvoiceRenderer renders a single invoice to a printable document
type InvoiceRenderer interface {
	Render(doc *InvoiceDocument) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// StatementExporter renders a list of invoices to a spreadsheet
type StatementExporter interface {
	Export(userID string, rows []*StatementRow, generatedAt time.Time) ([]byte, error)
	ContentType() string
	FileExtension() string
}
