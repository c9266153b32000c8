package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

const (
	statementSheet = "Statement"
	summarySheet   = "Summary"
	moneyNumFmt    = 4 // #,##0.00
	dateNumFmt     = "yyyy-mm-dd"
)

var statementHeaders = []interface{}{
	"Invoice Number", "Customer", "Issue Date", "Due Date", "Currency",
	"Total", "Amount Paid", "Balance Due", "Status", "Payment Status",
	"Payments", "Last Payment", "Overdue", "Archived",
}

// StatementExporter writes a user's invoices to an XLSX workbook with one
// row per invoice and a per-currency summary sheet
type StatementExporter struct {
	logger *zap.Logger
}

// NewStatementExporter creates a new statement exporter
func NewStatementExporter(logger *zap.Logger) *StatementExporter {
	return &StatementExporter{logger: logger}
}

// ContentType implements port.StatementExporter
func (e *StatementExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension implements port.StatementExporter
func (e *StatementExporter) FileExtension() string { return "xlsx" }

// Export implements port.StatementExporter
func (e *StatementExporter) Export(userID string, rows []*port.StatementRow, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newStatementStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(statementSheet, "A1", &statementHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(statementHeaders))
	if err := f.SetCellStyle(statementSheet, "A1", lastCol+"1", styles.header); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		r := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(statementSheet, cell, statementRow(row)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if n := len(rows); n > 0 {
		last := n + 1
		if err := f.SetCellStyle(statementSheet, "C2", fmt.Sprintf("D%d", last), styles.date); err != nil {
			return nil, fmt.Errorf("failed to style dates: %w", err)
		}
		if err := f.SetCellStyle(statementSheet, "F2", fmt.Sprintf("H%d", last), styles.money); err != nil {
			return nil, fmt.Errorf("failed to style amounts: %w", err)
		}
		if err := f.SetCellStyle(statementSheet, "L2", fmt.Sprintf("L%d", last), styles.date); err != nil {
			return nil, fmt.Errorf("failed to style dates: %w", err)
		}
	}
	_ = f.SetColWidth(statementSheet, "A", "B", 22)
	_ = f.SetColWidth(statementSheet, "C", lastCol, 14)
	_ = f.SetPanes(statementSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := writeSummary(f, userID, rows, generatedAt, styles); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		e.logger.Error("Failed to write statement workbook",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

type statementStyles struct {
	header int
	money  int
	date   int
}

func newStatementStyles(f *excelize.File) (statementStyles, error) {
	var s statementStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	if s.money, err = f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt}); err != nil {
		return s, fmt.Errorf("failed to create money style: %w", err)
	}

	format := dateNumFmt
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &format}); err != nil {
		return s, fmt.Errorf("failed to create date style: %w", err)
	}

	return s, nil
}

func statementRow(row *port.StatementRow) *[]interface{} {
	inv := row.Invoice

	var lastPayment interface{} = ""
	if row.LastPaymentDate != nil {
		lastPayment = row.LastPaymentDate.UTC()
	}

	values := []interface{}{
		inv.InvoiceNumber,
		inv.CustomerName,
		inv.IssueDate.UTC(),
		inv.DueDate.UTC(),
		string(inv.Currency),
		inv.Total,
		inv.AmountPaid,
		inv.BalanceDue,
		string(inv.Status),
		string(row.PaymentStatus),
		row.PaymentCount,
		lastPayment,
		yesNo(row.IsOverdue),
		yesNo(inv.IsArchived),
	}
	return &values
}

// writeSummary totals each currency separately; amounts in different
// currencies are never added together.
func writeSummary(f *excelize.File, userID string, rows []*port.StatementRow, generatedAt time.Time, styles statementStyles) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	type bucket struct {
		count       int
		total       decimal.Decimal
		paid        decimal.Decimal
		outstanding decimal.Decimal
		overdue     int
	}
	buckets := make(map[entity.Currency]*bucket)
	for _, row := range rows {
		inv := row.Invoice
		b, ok := buckets[inv.Currency]
		if !ok {
			b = &bucket{}
			buckets[inv.Currency] = b
		}
		b.count++
		b.total = b.total.Add(decimal.NewFromFloat(inv.Total))
		b.paid = b.paid.Add(decimal.NewFromFloat(inv.AmountPaid))
		if !inv.IsArchived {
			b.outstanding = b.outstanding.Add(decimal.NewFromFloat(inv.BalanceDue))
		}
		if row.IsOverdue {
			b.overdue++
		}
	}

	currencies := make([]string, 0, len(buckets))
	for c := range buckets {
		currencies = append(currencies, string(c))
	}
	sort.Strings(currencies)

	_ = f.SetCellValue(summarySheet, "A1", "User")
	_ = f.SetCellValue(summarySheet, "B1", userID)
	_ = f.SetCellValue(summarySheet, "A2", "Generated")
	_ = f.SetCellValue(summarySheet, "B2", generatedAt.UTC().Format(time.RFC3339))

	header := []interface{}{"Currency", "Invoices", "Total", "Paid", "Outstanding", "Overdue"}
	if err := f.SetSheetRow(summarySheet, "A4", &header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	_ = f.SetCellStyle(summarySheet, "A4", "F4", styles.header)

	for i, c := range currencies {
		b := buckets[entity.Currency(c)]
		r := i + 5
		values := []interface{}{
			c,
			b.count,
			b.total.Round(2).InexactFloat64(),
			b.paid.Round(2).InexactFloat64(),
			b.outstanding.Round(2).InexactFloat64(),
			b.overdue,
		}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", r), &values); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		_ = f.SetCellStyle(summarySheet, fmt.Sprintf("C%d", r), fmt.Sprintf("E%d", r), styles.money)
	}
	_ = f.SetColWidth(summarySheet, "A", "F", 16)

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var _ port.StatementExporter = (*StatementExporter)(nil)
