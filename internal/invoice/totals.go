package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

// LineInput is a validated line item before persistence
type LineInput struct {
	Description string
	Quantity    int64
	UnitPrice   float64
}

// ComputedLine is a line item with its rounded line total
type ComputedLine struct {
	LineInput
	LineTotal float64
}

// Totals is the result of ComputeTotals
type Totals struct {
	Lines      []ComputedLine
	SubTotal   float64
	TaxAmount  float64
	Total      float64
	BalanceDue float64
	Status     entity.InvoiceStatus
}

// ComputeTotals derives line totals, subtotal, tax, total, balance due and
// status from line items, a percentage tax rate and the amount already paid.
//
// Every money-producing step is rounded with Round2. A non-finite taxRate or
// amountPaid is treated as 0; line items are expected to be validated. The
// result depends only on the arguments.
func ComputeTotals(lines []LineInput, taxRate, amountPaid float64) Totals {
	computed := make([]ComputedLine, len(lines))
	sum := decimal.Zero
	for i, line := range lines {
		lineTotal := decimal.NewFromInt(line.Quantity).Mul(toDecimal(line.UnitPrice)).Round(2)
		sum = sum.Add(lineTotal)
		computed[i] = ComputedLine{LineInput: line, LineTotal: toMoney(lineTotal)}
	}

	subTotal := sum.Round(2)
	taxAmount := subTotal.Mul(toDecimal(taxRate)).Shift(-2).Round(2)
	total := subTotal.Add(taxAmount).Round(2)
	balanceDue := balanceAfter(total, toDecimal(amountPaid))

	return Totals{
		Lines:      computed,
		SubTotal:   toMoney(subTotal),
		TaxAmount:  toMoney(taxAmount),
		Total:      toMoney(total),
		BalanceDue: toMoney(balanceDue),
		Status:     statusFor(balanceDue),
	}
}

func balanceAfter(total, paid decimal.Decimal) decimal.Decimal {
	return decimal.Max(total.Sub(paid), decimal.Zero).Round(2)
}

func statusFor(balanceDue decimal.Decimal) entity.InvoiceStatus {
	if balanceDue.IsZero() {
		return entity.InvoiceStatusPaid
	}
	return entity.InvoiceStatusDraft
}
