package eventbus

import (
	"time"

	"github.com/google/uuid"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
)

// Envelope is the wire form of an invoice event shared by every broker.
type Envelope struct {
	EventID    string        `json:"event_id"`
	Type       string        `json:"type"`
	InvoiceID  string        `json:"invoice_id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Data       invoice.Event `json:"data"`
}

func NewEnvelope(event invoice.Event) Envelope {
	return Envelope{
		EventID:    uuid.NewString(),
		Type:       event.EventType(),
		InvoiceID:  event.AggregateID(),
		OccurredAt: event.OccurredAt().UTC(),
		Data:       event,
	}
}
