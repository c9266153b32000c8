package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/persistence/sqlite"
)

const paymentColumns = `id, invoice_id, amount, payment_date, created_at`

// PaymentRepository implements port.PaymentRepository. Entries are never
// updated or deleted.
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment ledger repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a ledger entry
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `INSERT INTO payments (invoice_id, amount, payment_date, created_at) VALUES (?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		payment.InvoiceID,
		payment.Amount,
		payment.PaymentDate.UTC(),
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.Int64("invoice_id", payment.InvoiceID),
			zap.Float64("amount", payment.Amount),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	payment.ID = id
	payment.CreatedAt = now
	return nil
}

// GetByInvoiceID returns ledger entries, most recent payment date first
func (r *PaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE invoice_id = ?
		ORDER BY payment_date DESC, id DESC`

	payments, err := r.queryPayments(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get payments",
			zap.Int64("invoice_id", invoiceID),
			zap.Error(err))
		return nil, err
	}
	return payments, nil
}

// GetByInvoiceIDs groups ledger entries by invoice in a single query
func (r *PaymentRepository) GetByInvoiceIDs(ctx context.Context, invoiceIDs []int64) (map[int64][]*entity.Payment, error) {
	grouped := make(map[int64][]*entity.Payment, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return grouped, nil
	}

	args := make([]interface{}, len(invoiceIDs))
	for i, id := range invoiceIDs {
		args[i] = id
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE invoice_id IN (` + placeholders(len(invoiceIDs)) + `)
		ORDER BY invoice_id, payment_date DESC, id DESC`

	payments, err := r.queryPayments(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get payments for invoices",
			zap.Int("invoice_count", len(invoiceIDs)),
			zap.Error(err))
		return nil, err
	}

	for _, p := range payments {
		grouped[p.InvoiceID] = append(grouped[p.InvoiceID], p)
	}
	return grouped, nil
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*entity.Payment, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.PaymentDate = p.PaymentDate.UTC()
		p.CreatedAt = p.CreatedAt.UTC()
		payments = append(payments, &p)
	}

	return payments, rows.Err()
}

var _ port.PaymentRepository = (*PaymentRepository)(nil)
