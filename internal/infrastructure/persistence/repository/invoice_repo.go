package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/persistence/sqlite"
)

const invoiceColumns = `
	id, user_id, invoice_number, customer_name, issue_date, due_date, currency,
	tax_rate, sub_total, tax_amount, total, amount_paid, balance_due, status,
	is_archived, version, created_at, updated_at`

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new invoice at version 1
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			user_id, invoice_number, customer_name, issue_date, due_date, currency,
			tax_rate, sub_total, tax_amount, total, amount_paid, balance_due, status,
			is_archived, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	now := r.now()
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		invoice.UserID,
		invoice.InvoiceNumber,
		invoice.CustomerName,
		invoice.IssueDate.UTC(),
		invoice.DueDate.UTC(),
		string(invoice.Currency),
		invoice.TaxRate,
		invoice.SubTotal,
		invoice.TaxAmount,
		invoice.Total,
		invoice.AmountPaid,
		invoice.BalanceDue,
		string(invoice.Status),
		invoice.IsArchived,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number %q: %w", invoice.InvoiceNumber, port.ErrDuplicate)
		}
		r.logger.Error("Failed to create invoice",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	invoice.ID = id
	invoice.Version = 1
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	return nil
}

// GetByIDForUser retrieves an invoice owned by userID
func (r *InvoiceRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ? AND user_id = ?`

	invoice, err := scanInvoice(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID",
			zap.Int64("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

// ListByUser returns the user's invoices, newest first
func (r *InvoiceRepository) ListByUser(ctx context.Context, userID string, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = ?`)
	args := []interface{}{userID}

	if filter.Archived != nil {
		sb.WriteString(` AND is_archived = ?`)
		args = append(args, *filter.Archived)
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, limit, filter.Offset)
	}

	return r.queryInvoices(ctx, sb.String(), args...)
}

// ListOutstanding returns every active invoice with a positive balance
func (r *InvoiceRepository) ListOutstanding(ctx context.Context) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE is_archived = 0 AND balance_due > 0
		ORDER BY due_date ASC, id ASC`
	return r.queryInvoices(ctx, query)
}

// UpdatePaymentState writes the payment fields guarded by the version column
func (r *InvoiceRepository) UpdatePaymentState(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET amount_paid = ?, balance_due = ?, status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	now := r.now()
	return r.updateVersioned(ctx, invoice, now, query,
		invoice.AmountPaid,
		invoice.BalanceDue,
		string(invoice.Status),
		now,
		invoice.ID,
		invoice.Version,
	)
}

// UpdateArchived writes the archival flag guarded by the version column
func (r *InvoiceRepository) UpdateArchived(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET is_archived = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	now := r.now()
	return r.updateVersioned(ctx, invoice, now, query,
		invoice.IsArchived,
		now,
		invoice.ID,
		invoice.Version,
	)
}

func (r *InvoiceRepository) updateVersioned(ctx context.Context, invoice *entity.Invoice, now time.Time, query string, args ...interface{}) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update invoice",
			zap.Int64("id", invoice.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d at version %d: %w", invoice.ID, invoice.Version, port.ErrConflict)
	}

	invoice.Version++
	invoice.UpdatedAt = now
	return nil
}

func (r *InvoiceRepository) queryInvoices(ctx context.Context, query string, args ...interface{}) ([]*entity.Invoice, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var currency, status string

	err := row.Scan(
		&invoice.ID,
		&invoice.UserID,
		&invoice.InvoiceNumber,
		&invoice.CustomerName,
		&invoice.IssueDate,
		&invoice.DueDate,
		&currency,
		&invoice.TaxRate,
		&invoice.SubTotal,
		&invoice.TaxAmount,
		&invoice.Total,
		&invoice.AmountPaid,
		&invoice.BalanceDue,
		&status,
		&invoice.IsArchived,
		&invoice.Version,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Currency = entity.Currency(currency)
	invoice.Status = entity.InvoiceStatus(status)
	invoice.IssueDate = invoice.IssueDate.UTC()
	invoice.DueDate = invoice.DueDate.UTC()
	invoice.CreatedAt = invoice.CreatedAt.UTC()
	invoice.UpdatedAt = invoice.UpdatedAt.UTC()
	return &invoice, nil
}

var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
