package invoice

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

func float(v float64) *float64 { return &v }

func validInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		InvoiceNumber: " INV-1001 ",
		CustomerName:  "Acme Corp",
		IssueDate:     "2026-01-10",
		DueDate:       "2026-02-10",
		Currency:      "eur",
		TaxRate:       float(10),
		LineItems: []LineItemInput{
			{Description: "Design", Quantity: 2, UnitPrice: 50},
		},
	}
}

func TestCreateInvoiceInput_Validate(t *testing.T) {
	v, err := validInput().Validate()
	require.NoError(t, err)

	assert.Equal(t, "INV-1001", v.InvoiceNumber)
	assert.Equal(t, entity.CurrencyEUR, v.Currency)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), v.IssueDate)
	assert.Equal(t, 110.0, v.Totals.Total)
	assert.Equal(t, entity.InvoiceStatusDraft, v.Totals.Status)

	inv, items := v.NewInvoice("user-1")
	assert.Equal(t, "user-1", inv.UserID)
	assert.Equal(t, 110.0, inv.BalanceDue)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Quantity)
	assert.Equal(t, 100.0, items[0].LineTotal)
}

func TestCreateInvoiceInput_Defaults(t *testing.T) {
	in := validInput()
	in.Currency = ""
	in.TaxRate = nil
	in.DueDate = "2026-02-10T15:04:05+02:00"

	v, err := in.Validate()
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCurrency, v.Currency)
	assert.Equal(t, 0.0, v.TaxRate)
	assert.Equal(t, 0.0, v.AmountPaid)
	assert.Equal(t, time.UTC, v.DueDate.Location())
	assert.Equal(t, 100.0, v.Totals.Total)
}

func TestCreateInvoiceInput_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateInvoiceInput)
		field  string
	}{
		{"missing invoice number", func(in *CreateInvoiceInput) { in.InvoiceNumber = "  " }, "invoiceNumber"},
		{"missing customer", func(in *CreateInvoiceInput) { in.CustomerName = "" }, "customerName"},
		{"missing issue date", func(in *CreateInvoiceInput) { in.IssueDate = "" }, "issueDate"},
		{"bad due date", func(in *CreateInvoiceInput) { in.DueDate = "next tuesday" }, "dueDate"},
		{"unsupported currency", func(in *CreateInvoiceInput) { in.Currency = "BTC" }, "currency"},
		{"negative tax rate", func(in *CreateInvoiceInput) { in.TaxRate = float(-1) }, "taxRate"},
		{"infinite tax rate", func(in *CreateInvoiceInput) { in.TaxRate = float(math.Inf(1)) }, "taxRate"},
		{"negative amount paid", func(in *CreateInvoiceInput) { in.AmountPaid = float(-0.01) }, "amountPaid"},
		{"amount paid above total", func(in *CreateInvoiceInput) { in.AmountPaid = float(110.01) }, "amountPaid"},
		{"no line items", func(in *CreateInvoiceInput) { in.LineItems = nil }, "lineItems"},
		{"empty line items", func(in *CreateInvoiceInput) { in.LineItems = []LineItemInput{} }, "lineItems"},
		{"blank description", func(in *CreateInvoiceInput) { in.LineItems[0].Description = "\t" }, "lineItems[0].description"},
		{"zero quantity", func(in *CreateInvoiceInput) { in.LineItems[0].Quantity = 0 }, "lineItems[0].quantity"},
		{"fractional quantity", func(in *CreateInvoiceInput) { in.LineItems[0].Quantity = 1.5 }, "lineItems[0].quantity"},
		{"NaN quantity", func(in *CreateInvoiceInput) { in.LineItems[0].Quantity = math.NaN() }, "lineItems[0].quantity"},
		{"negative unit price", func(in *CreateInvoiceInput) { in.LineItems[0].UnitPrice = -3 }, "lineItems[0].unitPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.LineItems = append([]LineItemInput(nil), in.LineItems...)
			tt.mutate(&in)

			_, err := in.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Reason)
		})
	}
}

func TestCreateInvoiceInput_FullPaymentAtCreation(t *testing.T) {
	in := validInput()
	in.AmountPaid = float(110)

	v, err := in.Validate()
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, v.Totals.Status)
	assert.Equal(t, 0.0, v.Totals.BalanceDue)
}

func TestPaymentInput_Resolve(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	amount, date, err := PaymentInput{Amount: float(25.5)}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, 25.5, amount)
	assert.Equal(t, now, date)

	_, date, err = PaymentInput{Amount: float(1), PaymentDate: "2026-04-30"}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), date)

	_, _, err = PaymentInput{}.Resolve(now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = PaymentInput{Amount: float(-1)}.Resolve(now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = PaymentInput{Amount: float(1), PaymentDate: "yesterday"}.Resolve(now)
	assert.ErrorIs(t, err, ErrValidation)
}
