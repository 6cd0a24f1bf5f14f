package handlers

import (
	"context"

	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
)

// Use case interfaces for InvoiceHandler

type createInvoiceUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateInvoiceCommand) (*invoice.Invoice, error)
}

type getInvoiceUseCase interface {
	Execute(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
}

type listInvoicesUseCase interface {
	Execute(ctx context.Context, query usecases.ListInvoicesQuery) (*usecases.ListInvoicesResult, error)
}

type getInvoiceStatsUseCase interface {
	Execute(ctx context.Context, query usecases.InvoiceStatsQuery) (*usecases.InvoiceStats, error)
}

type checkPaymentUseCase interface {
	CheckOne(ctx context.Context, invoiceID string) (*usecases.CheckResult, error)
}

type buildReceiptUseCase interface {
	Execute(ctx context.Context, invoiceID string) (*usecases.ReceiptData, error)
}
