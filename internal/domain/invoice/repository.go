package invoice

import (
	"context"

	"github.com/shopspring/decimal"

	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
)

type Repository interface {
	// Create inserts a new invoice. A second invoice for the same series and
	// period index fails with ErrPeriodAlreadySpawned.
	Create(ctx context.Context, inv *Invoice) error
	// GetByID returns ErrInvoiceNotFound when the id is unknown.
	GetByID(ctx context.Context, id string) (*Invoice, error)
	// MarkPaid persists the settlement only if the stored row is still pending.
	// It reports false when another writer already settled the invoice.
	MarkPaid(ctx context.Context, inv *Invoice) (bool, error)
	// ListPending returns up to limit pending invoices, oldest first.
	ListPending(ctx context.Context, limit int) ([]*Invoice, error)
	// ListRecurring returns the most recent invoice of every enabled series.
	ListRecurring(ctx context.Context) ([]*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]*Invoice, int64, error)
	Stats(ctx context.Context, filter StatsFilter) (*Stats, error)
}

type ListFilter struct {
	StaffID  string
	ClientID string
	Status   *vo.InvoiceStatus
	Asset    *vo.Asset
	Offset   int
	Limit    int
}

type StatsFilter struct {
	StaffID  string
	ClientID string
}

type Stats struct {
	Total       int64
	Pending     int64
	Paid        int64
	PaidByAsset map[vo.Asset]decimal.Decimal
}
