package usecases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/directory"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

// ReceiptData is the immutable snapshot a document renderer consumes.
type ReceiptData struct {
	InvoiceID      string
	Amount         decimal.Decimal
	Currency       string
	Asset          string
	Description    string
	PaymentAddress string
	PaidAt         time.Time
	TxReference    string
	CreatedAt      time.Time
	StaffID        string
	StaffName      string
	ClientID       string
	ClientName     string
}

type BuildReceiptUseCase struct {
	repo      invoice.Repository
	directory directory.Directory
	logger    logger.Interface
}

func NewBuildReceiptUseCase(repo invoice.Repository, dir directory.Directory, logger logger.Interface) *BuildReceiptUseCase {
	return &BuildReceiptUseCase{
		repo:      repo,
		directory: dir,
		logger:    logger,
	}
}

// Execute fails with a conflict wrapping invoice.ErrNotPaid unless the invoice is paid.
// Display names are best effort and left empty when the directory cannot answer.
func (uc *BuildReceiptUseCase) Execute(ctx context.Context, invoiceID string) (*ReceiptData, error) {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, toAppError(err, "failed to load invoice")
	}
	if !inv.IsPaid() {
		return nil, toAppError(invoice.ErrNotPaid, "")
	}

	receipt := &ReceiptData{
		InvoiceID:      inv.ID(),
		Amount:         inv.Amount(),
		Currency:       inv.Currency().String(),
		Asset:          inv.Asset().String(),
		Description:    inv.Description(),
		PaymentAddress: inv.PaymentAddress(),
		PaidAt:         *inv.PaidAt(),
		TxReference:    *inv.TxReference(),
		CreatedAt:      inv.CreatedAt(),
		StaffID:        inv.StaffID(),
		ClientID:       inv.ClientID(),
	}

	if name, err := uc.directory.StaffName(ctx, inv.StaffID()); err != nil {
		uc.logger.Warnw("failed to resolve staff name for receipt", "invoice_id", inv.ID(), "error", err)
	} else {
		receipt.StaffName = name
	}
	if name, err := uc.directory.ClientName(ctx, inv.ClientID()); err != nil {
		uc.logger.Warnw("failed to resolve client name for receipt", "invoice_id", inv.ID(), "error", err)
	} else {
		receipt.ClientName = name
	}

	return receipt, nil
}
