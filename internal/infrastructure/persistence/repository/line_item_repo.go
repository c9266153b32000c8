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

// LineItemRepository implements port.LineItemRepository
type LineItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *sql.DB, logger *zap.Logger) port.LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts line items in order. Call inside a transaction so a
// partial batch is never visible.
func (r *LineItemRepository) CreateBatch(ctx context.Context, items []*entity.LineItem) error {
	query := `
		INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, line_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.ExecutorFor(ctx, r.db)
	now := time.Now().UTC()
	for _, item := range items {
		result, err := exec.ExecContext(ctx, query,
			item.InvoiceID,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.LineTotal,
			now,
		)
		if err != nil {
			r.logger.Error("Failed to create line item",
				zap.Int64("invoice_id", item.InvoiceID),
				zap.Error(err))
			return fmt.Errorf("failed to create line item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
		item.CreatedAt = now
	}

	return nil
}

// GetByInvoiceID returns an invoice's line items in insertion order
func (r *LineItemRepository) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.LineItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, line_total, created_at
		FROM invoice_lines
		WHERE invoice_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get line items",
			zap.Int64("invoice_id", invoiceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []*entity.LineItem
	for rows.Next() {
		var item entity.LineItem
		if err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, &item)
	}

	return items, rows.Err()
}

var _ port.LineItemRepository = (*LineItemRepository)(nil)
