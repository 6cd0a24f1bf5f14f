package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	apperrors "github.com/cryptbill/cryptbill/internal/shared/errors"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

type GetInvoiceUseCase struct {
	repo   invoice.Repository
	logger logger.Interface
}

func NewGetInvoiceUseCase(repo invoice.Repository, logger logger.Interface) *GetInvoiceUseCase {
	return &GetInvoiceUseCase{repo: repo, logger: logger}
}

func (uc *GetInvoiceUseCase) Execute(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, toAppError(err, "failed to load invoice")
	}
	return inv, nil
}

type ListInvoicesQuery struct {
	StaffID  string
	ClientID string
	Status   string
	Asset    string
	Page     int
	PageSize int
}

type ListInvoicesResult struct {
	Invoices []*invoice.Invoice
	Total    int64
	Page     int
	PageSize int
}

type ListInvoicesUseCase struct {
	repo   invoice.Repository
	logger logger.Interface
}

func NewListInvoicesUseCase(repo invoice.Repository, logger logger.Interface) *ListInvoicesUseCase {
	return &ListInvoicesUseCase{repo: repo, logger: logger}
}

func (uc *ListInvoicesUseCase) Execute(ctx context.Context, q ListInvoicesQuery) (*ListInvoicesResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}

	filter := invoice.ListFilter{
		StaffID:  q.StaffID,
		ClientID: q.ClientID,
		Offset:   (q.Page - 1) * q.PageSize,
		Limit:    q.PageSize,
	}

	if q.Status != "" {
		status, err := vo.ParseInvoiceStatus(q.Status)
		if err != nil {
			return nil, apperrors.NewValidationError("status must be pending or paid", q.Status)
		}
		filter.Status = &status
	}
	if q.Asset != "" {
		currency, err := vo.ParseCurrency(q.Asset)
		if err != nil {
			return nil, apperrors.NewValidationError("unsupported asset", q.Asset)
		}
		asset, ok := currency.Asset()
		if !ok {
			return nil, apperrors.NewValidationError("asset filter must name a concrete asset", q.Asset)
		}
		filter.Asset = &asset
	}

	invoices, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list invoices", "error", err)
		return nil, toAppError(err, "failed to list invoices")
	}

	return &ListInvoicesResult{
		Invoices: invoices,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

type InvoiceStatsQuery struct {
	StaffID  string
	ClientID string
}

// InvoiceStats backs the dashboards: counts and paid totals per asset.
type InvoiceStats struct {
	Total       int64
	Pending     int64
	Paid        int64
	PaidByAsset map[string]decimal.Decimal
}

type GetInvoiceStatsUseCase struct {
	repo   invoice.Repository
	logger logger.Interface
}

func NewGetInvoiceStatsUseCase(repo invoice.Repository, logger logger.Interface) *GetInvoiceStatsUseCase {
	return &GetInvoiceStatsUseCase{repo: repo, logger: logger}
}

func (uc *GetInvoiceStatsUseCase) Execute(ctx context.Context, q InvoiceStatsQuery) (*InvoiceStats, error) {
	stats, err := uc.repo.Stats(ctx, invoice.StatsFilter{StaffID: q.StaffID, ClientID: q.ClientID})
	if err != nil {
		uc.logger.Errorw("failed to compute invoice stats", "error", err)
		return nil, toAppError(err, "failed to compute invoice stats")
	}

	out := &InvoiceStats{
		Total:       stats.Total,
		Pending:     stats.Pending,
		Paid:        stats.Paid,
		PaidByAsset: make(map[string]decimal.Decimal, len(vo.AllocationPriority)),
	}
	for _, asset := range vo.AllocationPriority {
		total, ok := stats.PaidByAsset[asset]
		if !ok {
			total = decimal.Zero
		}
		out.PaidByAsset[asset.String()] = total
	}
	return out, nil
}
