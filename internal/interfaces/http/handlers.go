package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoice-ledger/internal/application/service"
	"github.com/garyjia/invoice-ledger/internal/invoice"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoices service.InvoiceService
	payments service.PaymentService
	reports  service.ReportService
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		invoices: services.Invoices,
		payments: services.Payments,
		reports:  services.Reports,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	Archived *bool `form:"archived"`
	Limit    int   `form:"limit"`
	Offset   int   `form:"offset"`
}

// ArchiveRequest is the body of the archive and restore endpoints
type ArchiveRequest struct {
	InvoiceID int64 `json:"invoiceId"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "query", c.Request.URL.RawQuery, "is invalid")
		return
	}
	if req.Limit < 0 {
		badRequest(c, "limit", req.Limit, "must not be negative")
		return
	}
	if req.Offset < 0 {
		badRequest(c, "offset", req.Offset, "must not be negative")
		return
	}

	summaries, err := h.invoices.ListInvoices(c.Request.Context(), userIDFrom(c), service.ListFilter{
		Archived: req.Archived,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	okList(c, summaries, len(summaries))
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var input invoice.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "body", nil, "must be a valid invoice JSON object")
		return
	}

	detail, err := h.invoices.CreateInvoice(c.Request.Context(), userIDFrom(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok(c, http.StatusCreated, detail)
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, valid := invoiceIDParam(c)
	if !valid {
		return
	}

	detail, err := h.invoices.GetInvoice(c.Request.Context(), userIDFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok(c, http.StatusOK, detail)
}

// DownloadInvoicePDF handles GET /api/invoices/:id/pdf
func (h *Handlers) DownloadInvoicePDF(c *gin.Context) {
	id, valid := invoiceIDParam(c)
	if !valid {
		return
	}

	doc, err := h.reports.RenderInvoicePDF(c.Request.Context(), userIDFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

// ListPayments handles GET /api/invoices/:id/payments
func (h *Handlers) ListPayments(c *gin.Context) {
	id, valid := invoiceIDParam(c)
	if !valid {
		return
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), userIDFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	okList(c, payments, len(payments))
}

// AddPayment handles POST /api/invoices/:id/payments
func (h *Handlers) AddPayment(c *gin.Context) {
	id, valid := invoiceIDParam(c)
	if !valid {
		return
	}

	var input invoice.PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		// a non-numeric amount is an invalid amount, not a malformed request
		h.respondError(c, invoice.ErrInvalidAmount)
		return
	}

	receipt, err := h.payments.AddPayment(c.Request.Context(), userIDFrom(c), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok(c, http.StatusCreated, receipt)
}

// ArchiveInvoice handles POST /api/invoices/archive
func (h *Handlers) ArchiveInvoice(c *gin.Context) {
	h.changeArchival(c, h.invoices.ArchiveInvoice)
}

// RestoreInvoice handles POST /api/invoices/restore
func (h *Handlers) RestoreInvoice(c *gin.Context) {
	h.changeArchival(c, h.invoices.RestoreInvoice)
}

func (h *Handlers) changeArchival(c *gin.Context, fn func(ctx context.Context, userID string, id int64) (*service.InvoiceSummary, error)) {
	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InvoiceID <= 0 {
		badRequest(c, "invoiceId", req.InvoiceID, "is required")
		return
	}

	summary, err := fn(c.Request.Context(), userIDFrom(c), req.InvoiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok(c, http.StatusOK, summary)
}

// ExportStatement handles GET /api/reports/statement
func (h *Handlers) ExportStatement(c *gin.Context) {
	doc, err := h.reports.ExportStatement(c.Request.Context(), userIDFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

func invoiceIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id", raw, "must be a positive integer")
		return 0, false
	}
	return id, true
}

func sendDocument(c *gin.Context, doc *service.Document) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
