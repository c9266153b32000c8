package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/application/service"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/infrastructure/metrics"
	"github.com/garyjia/invoice-ledger/internal/invoice"
)

const testSecret = "test-secret"

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type mockInvoices struct {
	service.InvoiceService
	createFunc  func(ctx context.Context, userID string, in invoice.CreateInvoiceInput) (*service.InvoiceDetail, error)
	getFunc     func(ctx context.Context, userID string, id int64) (*service.InvoiceDetail, error)
	listFunc    func(ctx context.Context, userID string, f service.ListFilter) ([]*service.InvoiceSummary, error)
	archiveFunc func(ctx context.Context, userID string, id int64) (*service.InvoiceSummary, error)
	restoreFunc func(ctx context.Context, userID string, id int64) (*service.InvoiceSummary, error)
}

func (m *mockInvoices) CreateInvoice(ctx context.Context, userID string, in invoice.CreateInvoiceInput) (*service.InvoiceDetail, error) {
	return m.createFunc(ctx, userID, in)
}

func (m *mockInvoices) GetInvoice(ctx context.Context, userID string, id int64) (*service.InvoiceDetail, error) {
	return m.getFunc(ctx, userID, id)
}

func (m *mockInvoices) ListInvoices(ctx context.Context, userID string, f service.ListFilter) ([]*service.InvoiceSummary, error) {
	return m.listFunc(ctx, userID, f)
}

func (m *mockInvoices) ArchiveInvoice(ctx context.Context, userID string, id int64) (*service.InvoiceSummary, error) {
	return m.archiveFunc(ctx, userID, id)
}

func (m *mockInvoices) RestoreInvoice(ctx context.Context, userID string, id int64) (*service.InvoiceSummary, error) {
	return m.restoreFunc(ctx, userID, id)
}

type mockPayments struct {
	addFunc  func(ctx context.Context, userID string, id int64, in invoice.PaymentInput) (*service.PaymentReceipt, error)
	listFunc func(ctx context.Context, userID string, id int64) ([]*entity.Payment, error)
}

func (m *mockPayments) AddPayment(ctx context.Context, userID string, id int64, in invoice.PaymentInput) (*service.PaymentReceipt, error) {
	return m.addFunc(ctx, userID, id, in)
}

func (m *mockPayments) ListPayments(ctx context.Context, userID string, id int64) ([]*entity.Payment, error) {
	return m.listFunc(ctx, userID, id)
}

type mockReports struct {
	pdfFunc       func(ctx context.Context, userID string, id int64) (*service.Document, error)
	statementFunc func(ctx context.Context, userID string) (*service.Document, error)
}

func (m *mockReports) RenderInvoicePDF(ctx context.Context, userID string, id int64) (*service.Document, error) {
	return m.pdfFunc(ctx, userID, id)
}

func (m *mockReports) ExportStatement(ctx context.Context, userID string) (*service.Document, error) {
	return m.statementFunc(ctx, userID)
}

type testServer struct {
	invoices *mockInvoices
	payments *mockPayments
	reports  *mockReports
	metrics  *metrics.Metrics
	server   *Server
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		invoices: &mockInvoices{},
		payments: &mockPayments{},
		reports:  &mockReports{},
		metrics:  metrics.New("test"),
	}

	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	cfg.JWTSecret = testSecret
	cfg.FrontendURL = "http://localhost:5173"

	ts.server = NewServer(cfg, Services{Invoices: ts.invoices, Payments: ts.payments, Reports: ts.reports}, ts.metrics, nopLogger{})

	token, err := NewAuthenticator(testSecret).IssueToken("user-1", time.Hour)
	require.NoError(t, err)
	ts.token = token
	return ts
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Count   *int                   `json:"count"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func sampleInvoice() *entity.Invoice {
	return &entity.Invoice{
		ID:            7,
		UserID:        "user-1",
		InvoiceNumber: "INV-1001",
		CustomerName:  "Acme Corp",
		Currency:      entity.CurrencyUSD,
		Total:         220,
		AmountPaid:    20,
		BalanceDue:    200,
		Status:        entity.InvoiceStatusDraft,
	}
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	rec := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = ts.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestAuthentication(t *testing.T) {
	tests := []struct {
		name  string
		token func() string
	}{
		{"missing", func() string { return "" }},
		{"garbage", func() string { return "not-a-jwt" }},
		{"wrong secret", func() string {
			tok, _ := NewAuthenticator("other").IssueToken("user-1", time.Hour)
			return tok
		}},
		{"expired", func() string {
			tok, _ := NewAuthenticator(testSecret).IssueToken("user-1", -time.Hour)
			return tok
		}},
		{"no subject", func() string {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte(testSecret))
			return tok
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.token = tt.token()

			rec := ts.do(http.MethodGet, "/api/invoices", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", decode(t, rec).Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	rec := ts.do(http.MethodOptions, "/api/invoices", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListInvoices(t *testing.T) {
	ts := newTestServer(t)
	var got service.ListFilter
	ts.invoices.listFunc = func(ctx context.Context, userID string, f service.ListFilter) ([]*service.InvoiceSummary, error) {
		assert.Equal(t, "user-1", userID)
		got = f
		return []*service.InvoiceSummary{{Invoice: sampleInvoice(), PaymentStatus: entity.PaymentStatusPartiallyPaid, PaymentCount: 1}}, nil
	}

	rec := ts.do(http.MethodGet, "/api/invoices?archived=false&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
	require.NotNil(t, got.Archived)
	assert.False(t, *got.Archived)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, 10, got.Offset)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "INV-1001", items[0]["invoiceNumber"])
	assert.Equal(t, "PARTIALLY_PAID", items[0]["paymentStatus"])
	assert.Equal(t, float64(1), items[0]["paymentCount"])
	_, hasVersion := items[0]["Version"]
	assert.False(t, hasVersion)

	rec = ts.do(http.MethodGet, "/api/invoices?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, invoice.CodeValidation, decode(t, rec).Code)
}

func TestCreateInvoice(t *testing.T) {
	ts := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		ts.invoices.createFunc = func(ctx context.Context, userID string, in invoice.CreateInvoiceInput) (*service.InvoiceDetail, error) {
			assert.Equal(t, "INV-1001", in.InvoiceNumber)
			require.Len(t, in.LineItems, 1)
			assert.Equal(t, 2.0, in.LineItems[0].Quantity)
			return &service.InvoiceDetail{Invoice: sampleInvoice()}, nil
		}

		rec := ts.do(http.MethodPost, "/api/invoices", map[string]interface{}{
			"invoiceNumber": "INV-1001",
			"customerName":  "Acme Corp",
			"issueDate":     "2026-03-01",
			"dueDate":       "2026-03-31",
			"lineItems":     []map[string]interface{}{{"description": "Design", "quantity": 2, "unitPrice": 50}},
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, decode(t, rec).Success)
	})

	t.Run("validation error carries details", func(t *testing.T) {
		ts.invoices.createFunc = func(ctx context.Context, userID string, in invoice.CreateInvoiceInput) (*service.InvoiceDetail, error) {
			_, err := in.Validate()
			return nil, err
		}

		rec := ts.do(http.MethodPost, "/api/invoices", map[string]interface{}{"customerName": "Acme"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		env := decode(t, rec)
		assert.Equal(t, invoice.CodeValidation, env.Code)
		assert.Equal(t, "invoiceNumber", env.Details["field"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/invoices", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "body", decode(t, rec).Details["field"])
	})

	t.Run("duplicate number", func(t *testing.T) {
		ts.invoices.createFunc = func(ctx context.Context, userID string, in invoice.CreateInvoiceInput) (*service.InvoiceDetail, error) {
			return nil, invoice.ErrDuplicateInvoiceNumber
		}

		rec := ts.do(http.MethodPost, "/api/invoices", map[string]interface{}{"invoiceNumber": "INV-1001"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, invoice.CodeDuplicate, decode(t, rec).Code)
	})
}

func TestGetInvoice(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.getFunc = func(ctx context.Context, userID string, id int64) (*service.InvoiceDetail, error) {
		if id != 7 {
			return nil, invoice.ErrNotFound
		}
		return &service.InvoiceDetail{Invoice: sampleInvoice(), IsOverdue: true}, nil
	}

	rec := ts.do(http.MethodGet, "/api/invoices/7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, true, data["isOverdue"])
	assert.Equal(t, float64(200), data["balanceDue"])

	rec = ts.do(http.MethodGet, "/api/invoices/8", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, invoice.CodeNotFound, decode(t, rec).Code)

	rec = ts.do(http.MethodGet, "/api/invoices/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", decode(t, rec).Details["field"])
}

func TestAddPayment(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
		wantCode   string
	}{
		{"accepted", map[string]interface{}{"amount": 50}, nil, http.StatusCreated, ""},
		{"non-numeric amount", `{"amount":"fifty"}`, nil, http.StatusBadRequest, invoice.CodeInvalidAmount},
		{"invalid amount", map[string]interface{}{"amount": -1}, invoice.ErrInvalidAmount, http.StatusBadRequest, invoice.CodeInvalidAmount},
		{"exceeds balance", map[string]interface{}{"amount": 500},
			&invoice.PaymentError{Err: invoice.ErrExceedsBalance, InvoiceID: 7, Amount: 500, BalanceDue: 200},
			http.StatusBadRequest, invoice.CodeExceedsBalance},
		{"archived", map[string]interface{}{"amount": 5},
			&invoice.PaymentError{Err: invoice.ErrInvoiceArchived, InvoiceID: 7, Amount: 5, BalanceDue: 200},
			http.StatusBadRequest, invoice.CodeInvoiceArchived},
		{"not found", map[string]interface{}{"amount": 5}, invoice.ErrNotFound, http.StatusNotFound, invoice.CodeNotFound},
		{"conflict", map[string]interface{}{"amount": 5}, port.ErrConflict, http.StatusConflict, codeConflict},
		{"ledger mismatch is internal", map[string]interface{}{"amount": 5}, invoice.ErrLedgerMismatch, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.payments.addFunc = func(ctx context.Context, userID string, id int64, in invoice.PaymentInput) (*service.PaymentReceipt, error) {
				assert.NotEmpty(t, service.CorrelationID(ctx))
				if tt.err != nil {
					return nil, tt.err
				}
				return &service.PaymentReceipt{
					Payment: &entity.Payment{ID: 3, InvoiceID: id, Amount: *in.Amount},
					Invoice: &service.InvoiceSummary{Invoice: sampleInvoice()},
				}, nil
			}

			rec := ts.do(http.MethodPost, "/api/invoices/7/payments", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			env := decode(t, rec)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.err == nil && tt.wantStatus == http.StatusCreated, env.Success)
		})
	}
}

func TestAddPayment_ExceedsBalanceDetails(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.addFunc = func(ctx context.Context, userID string, id int64, in invoice.PaymentInput) (*service.PaymentReceipt, error) {
		return nil, &invoice.PaymentError{Err: invoice.ErrExceedsBalance, InvoiceID: 7, Amount: 60, BalanceDue: 50}
	}

	rec := ts.do(http.MethodPost, "/api/invoices/7/payments", map[string]interface{}{"amount": 60})
	env := decode(t, rec)
	assert.Equal(t, "payment amount cannot exceed balance due", env.Error)
	assert.Equal(t, float64(50), env.Details["balanceDue"])
}

func TestInternalErrorsAreHidden(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.listFunc = func(ctx context.Context, userID string, id int64) ([]*entity.Payment, error) {
		return nil, errors.New("sqlite: disk image is malformed")
	}

	rec := ts.do(http.MethodGet, "/api/invoices/7/payments", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode(t, rec).Error)
}

func TestListPayments(t *testing.T) {
	ts := newTestServer(t)
	ts.payments.listFunc = func(ctx context.Context, userID string, id int64) ([]*entity.Payment, error) {
		return []*entity.Payment{{ID: 1, InvoiceID: id, Amount: 20}}, nil
	}

	rec := ts.do(http.MethodGet, "/api/invoices/7/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *decode(t, rec).Count)
}

func TestArchiveRestore(t *testing.T) {
	ts := newTestServer(t)
	ts.invoices.archiveFunc = func(ctx context.Context, userID string, id int64) (*service.InvoiceSummary, error) {
		inv := sampleInvoice()
		inv.ID = id
		inv.IsArchived = true
		return &service.InvoiceSummary{Invoice: inv}, nil
	}
	ts.invoices.restoreFunc = func(ctx context.Context, userID string, id int64) (*service.InvoiceSummary, error) {
		return nil, invoice.ErrNotFound
	}

	rec := ts.do(http.MethodPost, "/api/invoices/archive", map[string]interface{}{"invoiceId": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, true, data["isArchived"])

	rec = ts.do(http.MethodPost, "/api/invoices/restore", map[string]interface{}{"invoiceId": 7})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/invoices/archive", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invoiceId", decode(t, rec).Details["field"])
}

func TestDocuments(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.pdfFunc = func(ctx context.Context, userID string, id int64) (*service.Document, error) {
		return &service.Document{Filename: "INV-1001.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")}, nil
	}
	ts.reports.statementFunc = func(ctx context.Context, userID string) (*service.Document, error) {
		return &service.Document{Filename: "statement_20260315.xlsx", ContentType: "application/xlsx", Content: []byte("PK")}, nil
	}

	rec := ts.do(http.MethodGet, "/api/invoices/7/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="INV-1001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = ts.do(http.MethodGet, "/api/reports/statement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "statement_20260315.xlsx")
}
