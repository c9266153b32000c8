package workflow

import "github.com/garyjia/invoice-ledger/internal/domain/entity"

// State is an invoice lifecycle state: settlement status crossed with archival.
type State string

const (
	StateDraftActive   State = "DRAFT/ACTIVE"
	StatePaidActive    State = "PAID/ACTIVE"
	StateDraftArchived State = "DRAFT/ARCHIVED"
	StatePaidArchived  State = "PAID/ARCHIVED"
)

var validStates = map[State]bool{
	StateDraftActive:   true,
	StatePaidActive:    true,
	StateDraftArchived: true,
	StatePaidArchived:  true,
}

// StateOf maps a persisted status and archival flag to a lifecycle state
func StateOf(status entity.InvoiceStatus, archived bool) State {
	paid := status == entity.InvoiceStatusPaid
	switch {
	case paid && archived:
		return StatePaidArchived
	case paid:
		return StatePaidActive
	case archived:
		return StateDraftArchived
	default:
		return StateDraftActive
	}
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsArchived reports whether the state is one of the archived states
func (s State) IsArchived() bool {
	return s == StateDraftArchived || s == StatePaidArchived
}

// InvoiceStatus returns the settlement status component of the state
func (s State) InvoiceStatus() entity.InvoiceStatus {
	if s == StatePaidActive || s == StatePaidArchived {
		return entity.InvoiceStatusPaid
	}
	return entity.InvoiceStatusDraft
}
