package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventTypeInvoiceCreated = "invoice.created"
	EventTypeInvoicePaid    = "invoice.paid"
	EventTypeInvoiceSpawned = "invoice.spawned"
)

// Event is a fact about an invoice published to downstream consumers.
type Event interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

type InvoiceCreatedEvent struct {
	InvoiceID      string          `json:"invoice_id"`
	StaffID        string          `json:"staff_id"`
	ClientID       string          `json:"client_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Asset          string          `json:"asset"`
	PaymentAddress string          `json:"payment_address"`
	At             time.Time       `json:"occurred_at"`
}

func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		InvoiceID:      inv.ID(),
		StaffID:        inv.StaffID(),
		ClientID:       inv.ClientID(),
		Amount:         inv.Amount(),
		Currency:       inv.Currency().String(),
		Asset:          inv.Asset().String(),
		PaymentAddress: inv.PaymentAddress(),
		At:             inv.CreatedAt(),
	}
}

func (e *InvoiceCreatedEvent) EventType() string     { return EventTypeInvoiceCreated }
func (e *InvoiceCreatedEvent) AggregateID() string   { return e.InvoiceID }
func (e *InvoiceCreatedEvent) OccurredAt() time.Time { return e.At }

type InvoicePaidEvent struct {
	InvoiceID   string          `json:"invoice_id"`
	StaffID     string          `json:"staff_id"`
	ClientID    string          `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	Asset       string          `json:"asset"`
	TxReference string          `json:"tx_reference"`
	At          time.Time       `json:"occurred_at"`
}

func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	e := &InvoicePaidEvent{
		InvoiceID: inv.ID(),
		StaffID:   inv.StaffID(),
		ClientID:  inv.ClientID(),
		Amount:    inv.Amount(),
		Asset:     inv.Asset().String(),
	}
	if inv.TxReference() != nil {
		e.TxReference = *inv.TxReference()
	}
	if inv.PaidAt() != nil {
		e.At = *inv.PaidAt()
	}
	return e
}

func (e *InvoicePaidEvent) EventType() string     { return EventTypeInvoicePaid }
func (e *InvoicePaidEvent) AggregateID() string   { return e.InvoiceID }
func (e *InvoicePaidEvent) OccurredAt() time.Time { return e.At }

type InvoiceSpawnedEvent struct {
	InvoiceID   string    `json:"invoice_id"`
	SeriesID    string    `json:"series_id"`
	PeriodIndex int       `json:"period_index"`
	At          time.Time `json:"occurred_at"`
}

func NewInvoiceSpawnedEvent(inv *Invoice) *InvoiceSpawnedEvent {
	e := &InvoiceSpawnedEvent{
		InvoiceID:   inv.ID(),
		PeriodIndex: inv.PeriodIndex(),
		At:          inv.CreatedAt(),
	}
	if inv.SeriesID() != nil {
		e.SeriesID = *inv.SeriesID()
	}
	return e
}

func (e *InvoiceSpawnedEvent) EventType() string     { return EventTypeInvoiceSpawned }
func (e *InvoiceSpawnedEvent) AggregateID() string   { return e.InvoiceID }
func (e *InvoiceSpawnedEvent) OccurredAt() time.Time { return e.At }
