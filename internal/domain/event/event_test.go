package event

import (
	"testing"
	"time"

	"github.com/garyjia/invoice-ledger/internal/domain/entity"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{name: "invoice created", eventType: TypeInvoiceCreated, want: true},
		{name: "payment recorded", eventType: TypePaymentRecorded, want: true},
		{name: "invoice settled", eventType: TypeInvoiceSettled, want: true},
		{name: "invoice archived", eventType: TypeInvoiceArchived, want: true},
		{name: "invoice restored", eventType: TypeInvoiceRestored, want: true},
		{name: "unknown type", eventType: Type("unknown.type"), want: false},
		{name: "empty string", eventType: Type(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypePaymentRecorded, 42, "user-1", map[string]interface{}{
		KeyAmount:   25.5,
		KeyCurrency: entity.CurrencyEUR,
	})

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.CorrelationID == "" || event.CorrelationID == event.ID {
		t.Errorf("Event CorrelationID = %q, want a fresh id", event.CorrelationID)
	}
	if event.InvoiceID != 42 || event.UserID != "user-1" {
		t.Errorf("Event owner = (%d, %s), want (42, user-1)", event.InvoiceID, event.UserID)
	}
	if got := event.GetPayloadFloat(KeyAmount); got != 25.5 {
		t.Errorf("GetPayloadFloat(amount) = %v, want 25.5", got)
	}
	if got := event.GetPayloadString(KeyCurrency); got != "EUR" {
		t.Errorf("GetPayloadString(currency) = %v, want EUR", got)
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEventWithCorrelation_NilPayload(t *testing.T) {
	event := NewEventWithCorrelation(TypeInvoiceArchived, 7, "user-2", nil, "req-123")

	if event.CorrelationID != "req-123" {
		t.Errorf("Event CorrelationID = %v, want req-123", event.CorrelationID)
	}
	if event.Payload == nil {
		t.Fatal("Event Payload should be initialised")
	}
	if got := event.GetPayloadInt("missing"); got != 0 {
		t.Errorf("GetPayloadInt(missing) = %v, want 0", got)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeInvoiceCreated, 1, "user-1", map[string]interface{}{
		KeyInvoiceNumber: "INV-1",
	})

	modified := original.WithPayload(KeyTotal, 110.0)

	if _, exists := original.Payload[KeyTotal]; exists {
		t.Error("Original event should not be modified")
	}
	if modified.GetPayloadFloat(KeyTotal) != 110.0 {
		t.Errorf("modified total = %v, want 110", modified.GetPayloadFloat(KeyTotal))
	}
	if modified.GetPayloadString(KeyInvoiceNumber) != "INV-1" {
		t.Error("WithPayload should keep existing entries")
	}
	if modified.ID != original.ID {
		t.Error("WithPayload should keep the event identity")
	}
}
