// Package dto holds the JSON shapes of invoices served over HTTP.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
)

type SettlementDTO struct {
	TxReference    string           `json:"tx_reference"`
	ObservedAmount *decimal.Decimal `json:"observed_amount,omitempty"`
	Confirmations  int              `json:"confirmations"`
	PaidAt         time.Time        `json:"paid_at"`
}

type RecurrenceDTO struct {
	Frequency   string    `json:"frequency"`
	SeriesID    string    `json:"series_id"`
	PeriodIndex int       `json:"period_index"`
	NextDueAt   time.Time `json:"next_due_at"`
}

type InvoiceDTO struct {
	ID             string          `json:"id"`
	StaffID        string          `json:"staff_id"`
	ClientID       string          `json:"client_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Asset          string          `json:"asset"`
	Network        string          `json:"network"`
	PaymentAddress string          `json:"payment_address"`
	Description    string          `json:"description,omitempty"`
	Status         string          `json:"status"`
	Settlement     *SettlementDTO  `json:"settlement,omitempty"`
	Recurrence     *RecurrenceDTO  `json:"recurrence,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func ToInvoiceDTO(inv *invoice.Invoice) *InvoiceDTO {
	if inv == nil {
		return nil
	}

	out := &InvoiceDTO{
		ID:             inv.ID(),
		StaffID:        inv.StaffID(),
		ClientID:       inv.ClientID(),
		Amount:         inv.Amount(),
		Currency:       inv.Currency().String(),
		Asset:          inv.Asset().String(),
		Network:        string(inv.Asset().Network()),
		PaymentAddress: inv.PaymentAddress(),
		Description:    inv.Description(),
		Status:         inv.Status().String(),
		CreatedAt:      inv.CreatedAt(),
		UpdatedAt:      inv.UpdatedAt(),
	}

	if inv.IsPaid() && inv.PaidAt() != nil && inv.TxReference() != nil {
		out.Settlement = &SettlementDTO{
			TxReference:    *inv.TxReference(),
			ObservedAmount: inv.ObservedAmount(),
			Confirmations:  inv.Confirmations(),
			PaidAt:         *inv.PaidAt(),
		}
	}

	if inv.IsRecurring() && inv.SeriesID() != nil {
		out.Recurrence = &RecurrenceDTO{
			Frequency:   inv.Recurrence().Frequency().String(),
			SeriesID:    *inv.SeriesID(),
			PeriodIndex: inv.PeriodIndex(),
			NextDueAt:   inv.NextDueAt(),
		}
	}

	return out
}

func ToInvoiceDTOList(invoices []*invoice.Invoice) []*InvoiceDTO {
	out := make([]*InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, ToInvoiceDTO(inv))
	}
	return out
}

// CheckPaymentDTO answers a manual payment check.
type CheckPaymentDTO struct {
	InvoiceID   string  `json:"invoice_id"`
	Status      string  `json:"status"`
	TxReference *string `json:"tx_reference,omitempty"`
	Outcome     string  `json:"outcome"`
}

func ToCheckPaymentDTO(r *usecases.CheckResult) *CheckPaymentDTO {
	return &CheckPaymentDTO{
		InvoiceID:   r.InvoiceID,
		Status:      r.Status.String(),
		TxReference: r.TxReference,
		Outcome:     string(r.Outcome),
	}
}

type ReceiptDTO struct {
	InvoiceID      string          `json:"invoice_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Asset          string          `json:"asset"`
	Description    string          `json:"description,omitempty"`
	PaymentAddress string          `json:"payment_address"`
	TxReference    string          `json:"tx_reference"`
	PaidAt         time.Time       `json:"paid_at"`
	IssuedAt       time.Time       `json:"issued_at"`
	StaffID        string          `json:"staff_id"`
	StaffName      string          `json:"staff_name,omitempty"`
	ClientID       string          `json:"client_id"`
	ClientName     string          `json:"client_name,omitempty"`
}

func ToReceiptDTO(r *usecases.ReceiptData) *ReceiptDTO {
	return &ReceiptDTO{
		InvoiceID:      r.InvoiceID,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Asset:          r.Asset,
		Description:    r.Description,
		PaymentAddress: r.PaymentAddress,
		TxReference:    r.TxReference,
		PaidAt:         r.PaidAt,
		IssuedAt:       r.CreatedAt,
		StaffID:        r.StaffID,
		StaffName:      r.StaffName,
		ClientID:       r.ClientID,
		ClientName:     r.ClientName,
	}
}

type InvoiceStatsDTO struct {
	Total       int64                      `json:"total"`
	Pending     int64                      `json:"pending"`
	Paid        int64                      `json:"paid"`
	PaidByAsset map[string]decimal.Decimal `json:"paid_by_asset"`
}

func ToInvoiceStatsDTO(s *usecases.InvoiceStats) *InvoiceStatsDTO {
	return &InvoiceStatsDTO{
		Total:       s.Total,
		Pending:     s.Pending,
		Paid:        s.Paid,
		PaidByAsset: s.PaidByAsset,
	}
}
