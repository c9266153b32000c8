package entity

import "time"

// Invoice is an issued bill owned by a single user. Money fields always hold
// values already rounded to two decimals.
type Invoice struct {
	ID            int64         `json:"id"`
	UserID        string        `json:"userId"`
	InvoiceNumber string        `json:"invoiceNumber"`
	CustomerName  string        `json:"customerName"`
	IssueDate     time.Time     `json:"issueDate"`
	DueDate       time.Time     `json:"dueDate"`
	Currency      Currency      `json:"currency"`
	TaxRate       float64       `json:"taxRate"`
	SubTotal      float64       `json:"subTotal"`
	TaxAmount     float64       `json:"taxAmount"`
	Total         float64       `json:"total"`
	AmountPaid    float64       `json:"amountPaid"`
	BalanceDue    float64       `json:"balanceDue"`
	Status        InvoiceStatus `json:"status"`
	IsArchived    bool          `json:"isArchived"`
	Version       int64         `json:"-"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Clone returns a shallow copy of the invoice.
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// LineItem is a write-once billable row of an invoice.
type LineItem struct {
	ID          int64     `json:"id"`
	InvoiceID   int64     `json:"invoiceId"`
	Description string    `json:"description"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	LineTotal   float64   `json:"lineTotal"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Payment is an append-only ledger entry against an invoice.
type Payment struct {
	ID          int64     `json:"id"`
	InvoiceID   int64     `json:"invoiceId"`
	Amount      float64   `json:"amount"`
	PaymentDate time.Time `json:"paymentDate"`
	CreatedAt   time.Time `json:"createdAt"`
}
