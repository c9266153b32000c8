package event

// Type identifies the type of domain event
type Type string

const (
	TypeInvoiceCreated  Type = "invoice.created"
	TypePaymentRecorded Type = "payment.recorded"
	TypeInvoiceSettled  Type = "invoice.settled"
	TypeInvoiceArchived Type = "invoice.archived"
	TypeInvoiceRestored Type = "invoice.restored"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceCreated,
		TypePaymentRecorded,
		TypeInvoiceSettled,
		TypeInvoiceArchived,
		TypeInvoiceRestored:
		return true
	default:
		return false
	}
}
