package entity

// InvoiceStatus is the settlement status stored on an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	InvoiceStatusPaid  InvoiceStatus = "PAID"
)

// String returns the string representation of the status
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusPaid
}

// PaymentStatus is derived on read from amountPaid and balanceDue and never stored.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusFullyPaid     PaymentStatus = "FULLY_PAID"
)

// String returns the string representation of the payment status
func (s PaymentStatus) String() string {
	return string(s)
}

// Currency is an opaque ISO-4217 tag. Amounts in different currencies are never combined.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyJPY Currency = "JPY"
	CurrencyAED Currency = "AED"

	DefaultCurrency = CurrencyUSD
)

var supportedCurrencies = map[Currency]bool{
	CurrencyUSD: true,
	CurrencyEUR: true,
	CurrencyGBP: true,
	CurrencyINR: true,
	CurrencyJPY: true,
	CurrencyAED: true,
}

// IsSupported reports whether the currency is accepted on new invoices
func (c Currency) IsSupported() bool {
	return supportedCurrencies[c]
}

// String returns the string representation of the currency
func (c Currency) String() string {
	return string(c)
}

// SupportedCurrencies returns the accepted currencies in a stable order
func SupportedCurrencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyINR, CurrencyJPY, CurrencyAED}
}
