package report

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-ledger/internal/application/port"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

// PDFRenderer renders invoices to A4 PDF documents
type PDFRenderer struct {
	companyName string
	compress    bool
	logger      *zap.Logger
}

// NewPDFRenderer creates a PDF renderer that prints companyName in the header
func NewPDFRenderer(companyName string, logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{
		companyName: companyName,
		compress:    true,
		logger:      logger,
	}
}

// ContentType implements port.InvoiceRenderer
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// FileExtension implements port.InvoiceRenderer
func (r *PDFRenderer) FileExtension() string { return "pdf" }

// Render implements port.InvoiceRenderer
func (r *PDFRenderer) Render(doc *port.InvoiceDocument) ([]byte, error) {
	if doc == nil || doc.Invoice == nil {
		return nil, errors.New("invoice document is empty")
	}
	inv := doc.Invoice

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetCompression(r.compress)
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.SetCreator(r.companyName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr("Invoice "+inv.InvoiceNumber), "", 1, "L", false, 0, "")
	if r.companyName != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, tr(r.companyName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	meta := [][2]string{
		{"Customer", inv.CustomerName},
		{"Issue Date", FormatDate(inv.IssueDate)},
		{"Due Date", FormatDate(inv.DueDate)},
		{"Status", string(inv.Status)},
		{"Payment Status", string(doc.PaymentStatus)},
		{"Currency", string(inv.Currency)},
	}
	if doc.IsOverdue {
		meta = append(meta, [2]string{"Overdue", "yes"})
	}
	if inv.IsArchived {
		meta = append(meta, [2]string{"Archived", "yes"})
	}
	for _, kv := range meta {
		pdf.CellFormat(35, lineHeight, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, lineHeight, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(17, 17, 17)
	pdf.Ln(4)

	// line items
	r.sectionTitle(pdf, "Line Items")
	widths := []float64{10, 80, 20, 35, 35}
	headers := []string{"#", "Description", "Qty", "Unit Price", "Line Total"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, item := range doc.LineItems {
		pdf.CellFormat(widths[0], 7, strconv.Itoa(i+1), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(truncate(item.Description, 48)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, strconv.FormatInt(item.Quantity, 10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, FormatMoney(item.UnitPrice, inv.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, FormatMoney(item.LineTotal, inv.Currency), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// totals
	r.sectionTitle(pdf, "Totals")
	totals := [][2]string{
		{"Subtotal", FormatMoney(inv.SubTotal, inv.Currency)},
		{fmt.Sprintf("Tax (%s)", formatRate(inv.TaxRate)), FormatMoney(inv.TaxAmount, inv.Currency)},
		{"Total", FormatMoney(inv.Total, inv.Currency)},
		{"Amount Paid", FormatMoney(inv.AmountPaid, inv.Currency)},
		{"Balance Due", FormatMoney(inv.BalanceDue, inv.Currency)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for i, kv := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Helvetica", "B", 10)
		}
		pdf.CellFormat(145, lineHeight, kv[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, lineHeight, kv[1], "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// payments
	r.sectionTitle(pdf, "Payments")
	pdf.SetFont("Helvetica", "", 10)
	if len(doc.Payments) == 0 {
		pdf.CellFormat(0, lineHeight, "No payments recorded.", "", 1, "L", false, 0, "")
	}
	for i, p := range doc.Payments {
		line := fmt.Sprintf("%d. %s - %s", i+1, FormatDate(p.PaymentDate), FormatMoney(p.Amount, inv.Currency))
		pdf.CellFormat(0, lineHeight, line, "", 1, "L", false, 0, "")
	}

	if !doc.GeneratedAt.IsZero() {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, "Generated "+doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.logger.Error("Failed to render invoice PDF",
			zap.Int64("invoice_id", inv.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

func (r *PDFRenderer) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

var _ port.InvoiceRenderer = (*PDFRenderer)(nil)
