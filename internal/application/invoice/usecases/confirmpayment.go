package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/eventbus"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

type ConfirmPaymentCommand struct {
	InvoiceID      string
	TxReference    string
	ObservedAmount decimal.Decimal
	Confirmations  int
	VerifiedAt     time.Time
}

// ConfirmPaymentResult reports the invoice after the call. Applied is false
// when the invoice was already paid, in which case nothing changed.
type ConfirmPaymentResult struct {
	Invoice *invoice.Invoice
	Applied bool
}

// ConfirmPaymentUseCase performs the Pending to Paid transition. The write is a
// compare-and-set on the stored status so concurrent confirmations apply once.
type ConfirmPaymentUseCase struct {
	repo      invoice.Repository
	publisher eventbus.Publisher
	logger    logger.Interface
}

func NewConfirmPaymentUseCase(
	repo invoice.Repository,
	publisher eventbus.Publisher,
	logger logger.Interface,
) *ConfirmPaymentUseCase {
	return &ConfirmPaymentUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	inv, err := uc.repo.GetByID(ctx, cmd.InvoiceID)
	if err != nil {
		return nil, toAppError(err, "failed to load invoice")
	}

	verifiedAt := cmd.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now().UTC()
	}

	if err := inv.MarkAsPaid(cmd.TxReference, cmd.ObservedAmount, cmd.Confirmations, verifiedAt); err != nil {
		if errors.Is(err, invoice.ErrAlreadyPaid) {
			return &ConfirmPaymentResult{Invoice: inv}, nil
		}
		return nil, toAppError(err, "failed to confirm payment")
	}

	applied, err := uc.repo.MarkPaid(ctx, inv)
	if err != nil {
		uc.logger.Errorw("failed to persist payment confirmation",
			"invoice_id", cmd.InvoiceID,
			"tx_reference", cmd.TxReference,
			"error", err,
		)
		return nil, toAppError(err, "failed to save payment confirmation")
	}

	if !applied {
		// lost the race; report the settlement that won
		current, err := uc.repo.GetByID(ctx, cmd.InvoiceID)
		if err != nil {
			return nil, toAppError(err, "failed to reload invoice")
		}
		uc.logger.Infow("invoice already confirmed by concurrent check", "invoice_id", cmd.InvoiceID)
		return &ConfirmPaymentResult{Invoice: current}, nil
	}

	uc.logger.Infow("invoice marked as paid",
		"invoice_id", inv.ID(),
		"tx_reference", cmd.TxReference,
		"observed_amount", cmd.ObservedAmount.String(),
		"confirmations", cmd.Confirmations,
	)

	if err := uc.publisher.Publish(ctx, invoice.NewInvoicePaidEvent(inv)); err != nil {
		uc.logger.Warnw("failed to publish invoice paid event", "invoice_id", inv.ID(), "error", err)
	}

	return &ConfirmPaymentResult{Invoice: inv, Applied: true}, nil
}
