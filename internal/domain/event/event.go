package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by publishers and handlers
const (
	KeyCurrency      = "currency"
	KeyAmount        = "amount"
	KeyAmountPaid    = "amountPaid"
	KeyBalanceDue    = "balanceDue"
	KeyTotal         = "total"
	KeyInvoiceNumber = "invoiceNumber"
	KeyPaymentID     = "paymentId"
)

// Event represents a domain event raised after a committed invoice change
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	InvoiceID     int64                  `json:"invoiceId"`
	UserID        string                 `json:"userId"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlationId"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, invoiceID int64, userID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, invoiceID, userID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain,
// typically the request id of the HTTP call that caused it
func NewEventWithCorrelation(eventType Type, invoiceID int64, userID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		InvoiceID:     invoiceID,
		UserID:        userID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	c := *e
	c.Payload = newPayload
	return &c
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case interface{ String() string }:
			return v.String()
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetPayloadFloat retrieves a float64 value from the payload
func (e *Event) GetPayloadFloat(key string) float64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		}
	}
	return 0.0
}
