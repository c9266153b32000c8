package dispatcher

import (
	"context"

	"github.com/garyjia/invoice-ledger/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventTypes  []event.Type
	Handler     Handler
	Description string
}

// Accepts reports whether the handler is subscribed to eventType.
// An empty type list subscribes to everything.
func (h HandlerInfo) Accepts(eventType event.Type) bool {
	if len(h.EventTypes) == 0 {
		return true
	}
	for _, t := range h.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// AuditLogHandler writes one structured line per event
func AuditLogHandler(logger Logger) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		kv := []interface{}{
			"event_type", evt.Type,
			"event_id", evt.ID,
			"invoice_id", evt.InvoiceID,
			"user_id", evt.UserID,
			"correlation_id", evt.CorrelationID,
		}
		for _, key := range []string{event.KeyInvoiceNumber, event.KeyCurrency, event.KeyAmount, event.KeyBalanceDue} {
			if v, ok := evt.Payload[key]; ok {
				kv = append(kv, key, v)
			}
		}
		logger.Info("Invoice event", kv...)
		return nil
	}
}
