package valueobjects

import "fmt"

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid invoice status: %q", s)
	}
	return status, nil
}

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid:
		return true
	default:
		return false
	}
}

func (s InvoiceStatus) IsPending() bool {
	return s == InvoiceStatusPending
}

func (s InvoiceStatus) IsPaid() bool {
	return s == InvoiceStatusPaid
}

// CanTransitionTo reports whether s may move to next. Paid is terminal.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return s == InvoiceStatusPending && next == InvoiceStatusPaid
}

func (s InvoiceStatus) String() string {
	return string(s)
}
