package invoice

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/pkg/utils"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
			return true
		}
		return isFinite(f.Float())
	})
	_ = v.RegisterValidation("wholenumber", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
			return true
		}
		x := f.Float()
		return isFinite(x) && x == math.Trunc(x) && x <= math.MaxInt32
	})
	return v
}

// LineItemInput is a line item as submitted by a client
type LineItemInput struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"finite,wholenumber,gte=1"`
	UnitPrice   float64 `json:"unitPrice" validate:"finite,gte=0"`
}

// CreateInvoiceInput is an invoice as submitted by a client
type CreateInvoiceInput struct {
	InvoiceNumber string          `json:"invoiceNumber" validate:"required"`
	CustomerName  string          `json:"customerName" validate:"required"`
	IssueDate     string          `json:"issueDate" validate:"required"`
	DueDate       string          `json:"dueDate" validate:"required"`
	Currency      string          `json:"currency"`
	TaxRate       *float64        `json:"taxRate" validate:"omitempty,finite,gte=0"`
	AmountPaid    *float64        `json:"amountPaid" validate:"omitempty,finite,gte=0"`
	LineItems     []LineItemInput `json:"lineItems" validate:"required,min=1,dive"`
}

// ValidatedInvoice is a CreateInvoiceInput that passed validation, with its totals computed
type ValidatedInvoice struct {
	InvoiceNumber string
	CustomerName  string
	IssueDate     time.Time
	DueDate       time.Time
	Currency      entity.Currency
	TaxRate       float64
	AmountPaid    float64
	Lines         []LineInput
	Totals        Totals
}

// Validate normalizes the input and returns the first failure as a *ValidationError.
func (in CreateInvoiceInput) Validate() (*ValidatedInvoice, error) {
	in.InvoiceNumber = utils.CleanText(in.InvoiceNumber)
	in.CustomerName = utils.CleanText(in.CustomerName)
	in.IssueDate = strings.TrimSpace(in.IssueDate)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	items := make([]LineItemInput, len(in.LineItems))
	for i, item := range in.LineItems {
		item.Description = utils.CleanText(item.Description)
		items[i] = item
	}
	in.LineItems = items

	if err := validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	issueDate, err := ParseDate(in.IssueDate)
	if err != nil {
		return nil, newValidationError("issueDate", in.IssueDate, "must be a date (YYYY-MM-DD or RFC3339)")
	}
	dueDate, err := ParseDate(in.DueDate)
	if err != nil {
		return nil, newValidationError("dueDate", in.DueDate, "must be a date (YYYY-MM-DD or RFC3339)")
	}

	currency := entity.DefaultCurrency
	if in.Currency != "" {
		currency = entity.Currency(in.Currency)
		if !currency.IsSupported() {
			return nil, newValidationError("currency", in.Currency, "is not supported")
		}
	}

	var taxRate, amountPaid float64
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	if in.AmountPaid != nil {
		amountPaid = *in.AmountPaid
		if hasSubCentPrecision(amountPaid) {
			return nil, newValidationError("amountPaid", amountPaid, "must have at most two decimal places")
		}
	}

	lines := make([]LineInput, len(in.LineItems))
	for i, item := range in.LineItems {
		lines[i] = LineInput{
			Description: item.Description,
			Quantity:    int64(item.Quantity),
			UnitPrice:   item.UnitPrice,
		}
	}

	totals := ComputeTotals(lines, taxRate, amountPaid)
	if toDecimal(amountPaid).GreaterThan(decimal.NewFromFloat(totals.Total)) {
		return nil, newValidationError("amountPaid", amountPaid, fmt.Sprintf("cannot exceed invoice total %.2f", totals.Total))
	}

	return &ValidatedInvoice{
		InvoiceNumber: in.InvoiceNumber,
		CustomerName:  in.CustomerName,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Currency:      currency,
		TaxRate:       taxRate,
		AmountPaid:    Round2(amountPaid),
		Lines:         lines,
		Totals:        totals,
	}, nil
}

// NewInvoice builds the entities to persist for userID. IDs are assigned by storage.
func (v *ValidatedInvoice) NewInvoice(userID string) (*entity.Invoice, []*entity.LineItem) {
	inv := &entity.Invoice{
		UserID:        userID,
		InvoiceNumber: v.InvoiceNumber,
		CustomerName:  v.CustomerName,
		IssueDate:     v.IssueDate,
		DueDate:       v.DueDate,
		Currency:      v.Currency,
		TaxRate:       v.TaxRate,
		SubTotal:      v.Totals.SubTotal,
		TaxAmount:     v.Totals.TaxAmount,
		Total:         v.Totals.Total,
		AmountPaid:    v.AmountPaid,
		BalanceDue:    v.Totals.BalanceDue,
		Status:        v.Totals.Status,
	}

	items := make([]*entity.LineItem, len(v.Totals.Lines))
	for i, line := range v.Totals.Lines {
		items[i] = &entity.LineItem{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		}
	}
	return inv, items
}

// PaymentInput is a payment as submitted by a client
type PaymentInput struct {
	Amount      *float64 `json:"amount"`
	PaymentDate string   `json:"paymentDate"`
}

// Resolve validates the amount and parses the payment date, defaulting it to now.
func (in PaymentInput) Resolve(now time.Time) (float64, time.Time, error) {
	if in.Amount == nil {
		return 0, time.Time{}, ErrInvalidAmount
	}
	if err := ValidatePaymentAmount(*in.Amount); err != nil {
		return 0, time.Time{}, err
	}

	date := now
	if s := strings.TrimSpace(in.PaymentDate); s != "" {
		parsed, err := ParseDate(s)
		if err != nil {
			return 0, time.Time{}, newValidationError("paymentDate", in.PaymentDate, "must be a date (YYYY-MM-DD or RFC3339)")
		}
		date = parsed
	}
	return *in.Amount, date, nil
}

// ParseDate accepts YYYY-MM-DD (as UTC midnight) or RFC3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newValidationError("input", nil, err.Error())
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return newValidationError(field, fe.Value(), reasonFor(fe))
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "wholenumber":
		return "must be a whole number"
	case "finite":
		return "must be a finite number"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
