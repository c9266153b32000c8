package service

import (
	"context"
	"fmt"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/pkg/utils"
)

// Document is a rendered file ready for download
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
	// StoredPath is the copy kept in file storage, relative to its base dir
	StoredPath string
}

// ReportService renders invoices and statements
type ReportService interface {
	RenderInvoicePDF(ctx context.Context, userID string, id int64) (*Document, error)
	ExportStatement(ctx context.Context, userID string) (*Document, error)
}

type reportServiceImpl struct {
	invoices InvoiceService
	renderer port.InvoiceRenderer
	exporter port.StatementExporter
	files    port.FileStorage
	logger   Logger
	now      Clock
}

// NewReportService creates a new ReportService. files may be nil to skip
// keeping copies of rendered documents.
func NewReportService(
	invoices InvoiceService,
	renderer port.InvoiceRenderer,
	exporter port.StatementExporter,
	files port.FileStorage,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		invoices: invoices,
		renderer: renderer,
		exporter: exporter,
		files:    files,
		logger:   logger,
		now:      systemClock,
	}
}

// RenderInvoicePDF renders one invoice with its line items and ledger
func (s *reportServiceImpl) RenderInvoicePDF(ctx context.Context, userID string, id int64) (*Document, error) {
	detail, err := s.invoices.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	content, err := s.renderer.Render(&port.InvoiceDocument{
		Invoice:       detail.Invoice,
		LineItems:     detail.LineItems,
		Payments:      detail.Payments,
		PaymentStatus: detail.PaymentStatus,
		IsOverdue:     detail.IsOverdue,
		GeneratedAt:   now,
	})
	if err != nil {
		s.logger.Error("Failed to render invoice", "invoice_id", id, "error", err)
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}

	doc := &Document{
		Filename:    fmt.Sprintf("%s.%s", utils.SanitizeName(detail.InvoiceNumber), s.renderer.FileExtension()),
		ContentType: s.renderer.ContentType(),
		Content:     content,
	}
	s.keepCopy(ctx, userID, "invoice_"+detail.InvoiceNumber, s.renderer.FileExtension(), doc)
	return doc, nil
}

// ExportStatement exports every invoice of the user, archived ones included
func (s *reportServiceImpl) ExportStatement(ctx context.Context, userID string) (*Document, error) {
	summaries, err := s.invoices.ListInvoices(ctx, userID, ListFilter{})
	if err != nil {
		return nil, err
	}

	rows := make([]*port.StatementRow, len(summaries))
	for i, sum := range summaries {
		rows[i] = &port.StatementRow{
			Invoice:         sum.Invoice,
			PaymentStatus:   sum.PaymentStatus,
			PaymentCount:    sum.PaymentCount,
			LastPaymentDate: sum.LastPaymentDate,
			IsOverdue:       sum.IsOverdue,
		}
	}

	now := s.now()
	content, err := s.exporter.Export(userID, rows, now)
	if err != nil {
		s.logger.Error("Failed to export statement", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to export statement: %w", err)
	}

	doc := &Document{
		Filename:    fmt.Sprintf("statement_%s.%s", now.Format("20060102"), s.exporter.FileExtension()),
		ContentType: s.exporter.ContentType(),
		Content:     content,
	}
	s.keepCopy(ctx, userID, "statement", s.exporter.FileExtension(), doc)
	return doc, nil
}

// keepCopy stores the document; a storage failure does not fail the download
func (s *reportServiceImpl) keepCopy(ctx context.Context, userID, name, ext string, doc *Document) {
	if s.files == nil {
		return
	}
	path := utils.ExportPath(userID, name, s.now(), ext)
	if err := s.files.Save(ctx, path, doc.Content); err != nil {
		s.logger.Error("Failed to store document copy", "path", path, "error", err)
		return
	}
	doc.StoredPath = path
}
