package metrics

import (
	"context"

	"github.com/garyjia/invoice-ledger/internal/application/dispatcher"
	"github.com/garyjia/invoice-ledger/internal/domain/entity"
	"github.com/garyjia/invoice-ledger/internal/domain/event"
)

// EventHandler turns committed invoice events into counter increments
func (m *Metrics) EventHandler() dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		currency := entity.Currency(evt.GetPayloadString(event.KeyCurrency))

		switch evt.Type {
		case event.TypeInvoiceCreated:
			m.InvoiceCreated(currency)
		case event.TypePaymentRecorded:
			m.PaymentRecorded(currency, evt.GetPayloadFloat(event.KeyAmount))
		case event.TypeInvoiceSettled:
			m.InvoiceSettled(currency)
		}
		return nil
	}
}
