package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptbill/cryptbill/internal/application/invoice/directory"
	"github.com/cryptbill/cryptbill/internal/application/invoice/eventbus"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	apperrors "github.com/cryptbill/cryptbill/internal/shared/errors"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

type CreateInvoiceCommand struct {
	StaffID      string
	ClientID     string
	Amount       decimal.Decimal
	Currency     string
	Description  string
	AutoGenerate bool
	Frequency    string
}

// CreateInvoiceUseCase is the only way invoices come into existence,
// both on explicit request and when a recurring series spawns a successor.
type CreateInvoiceUseCase struct {
	repo      invoice.Repository
	directory directory.Directory
	publisher eventbus.Publisher
	logger    logger.Interface
}

func NewCreateInvoiceUseCase(
	repo invoice.Repository,
	dir directory.Directory,
	publisher eventbus.Publisher,
	logger logger.Interface,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		repo:      repo,
		directory: dir,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *CreateInvoiceUseCase) Execute(ctx context.Context, cmd CreateInvoiceCommand) (*invoice.Invoice, error) {
	currency, err := vo.ParseCurrency(cmd.Currency)
	if err != nil {
		return nil, apperrors.NewValidationError("unsupported currency", cmd.Currency)
	}
	if !cmd.Amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount must be positive")
	}

	var recurrence *vo.Recurrence
	if cmd.AutoGenerate {
		r, err := vo.NewRecurrence(vo.Frequency(strings.ToLower(cmd.Frequency)))
		if err != nil {
			return nil, apperrors.NewValidationError("frequency must be weekly or monthly", cmd.Frequency)
		}
		recurrence = &r
	}

	if err := uc.ensureParties(ctx, cmd.StaffID, cmd.ClientID); err != nil {
		return nil, err
	}

	alloc, err := uc.allocate(ctx, cmd.StaffID, currency)
	if err != nil {
		return nil, err
	}

	inv, err := invoice.NewInvoice(invoice.CreateParams{
		StaffID:        cmd.StaffID,
		ClientID:       cmd.ClientID,
		Amount:         cmd.Amount,
		Currency:       currency,
		Asset:          alloc.Asset,
		PaymentAddress: alloc.Address,
		Description:    cmd.Description,
		Recurrence:     recurrence,
	})
	if err != nil {
		return nil, toAppError(err, "failed to create invoice")
	}

	if err := uc.repo.Create(ctx, inv); err != nil {
		uc.logger.Errorw("failed to persist invoice", "error", err, "staff_id", cmd.StaffID)
		return nil, toAppError(err, "failed to save invoice")
	}

	uc.logger.Infow("invoice created",
		"invoice_id", inv.ID(),
		"staff_id", inv.StaffID(),
		"client_id", inv.ClientID(),
		"amount", inv.Amount().String(),
		"currency", inv.Currency().String(),
		"asset", inv.Asset().String(),
		"recurring", inv.IsRecurring(),
	)
	uc.publish(ctx, invoice.NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// ExecuteSuccessor spawns the next invoice of latest's series at now. The address is
// resolved again so a staff member's current configuration applies to the new period.
// Returns invoice.ErrPeriodAlreadySpawned when another run created it first.
func (uc *CreateInvoiceUseCase) ExecuteSuccessor(ctx context.Context, latest *invoice.Invoice, now time.Time) (*invoice.Invoice, error) {
	if !latest.IsRecurring() {
		return nil, invoice.ErrNotRecurring
	}

	alloc, err := uc.allocate(ctx, latest.StaffID(), latest.Currency())
	if err != nil {
		return nil, err
	}

	next, err := latest.NewSuccessor(alloc.Asset, alloc.Address, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, next); err != nil {
		return nil, err
	}

	uc.logger.Infow("recurring invoice spawned",
		"invoice_id", next.ID(),
		"series_id", *next.SeriesID(),
		"period_index", next.PeriodIndex(),
		"asset", next.Asset().String(),
	)
	uc.publish(ctx, invoice.NewInvoiceCreatedEvent(next))
	uc.publish(ctx, invoice.NewInvoiceSpawnedEvent(next))

	return next, nil
}

func (uc *CreateInvoiceUseCase) ensureParties(ctx context.Context, staffID, clientID string) error {
	if strings.TrimSpace(staffID) == "" || strings.TrimSpace(clientID) == "" {
		return apperrors.NewValidationError("staff id and client id are required")
	}

	ok, err := uc.directory.StaffExists(ctx, staffID)
	if err != nil {
		return apperrors.NewInternalError("failed to look up staff").WithCause(err)
	}
	if !ok {
		return apperrors.NewNotFoundError("staff not found or inactive", staffID)
	}

	ok, err = uc.directory.ClientExists(ctx, clientID)
	if err != nil {
		return apperrors.NewInternalError("failed to look up client").WithCause(err)
	}
	if !ok {
		return apperrors.NewNotFoundError("client not found", clientID)
	}
	return nil
}

func (uc *CreateInvoiceUseCase) allocate(ctx context.Context, staffID string, currency vo.Currency) (invoice.Allocation, error) {
	addresses, err := uc.directory.ResolveStaffAddresses(ctx, staffID)
	if err != nil {
		return invoice.Allocation{}, apperrors.NewInternalError("failed to resolve staff addresses").WithCause(err)
	}

	alloc, err := invoice.AllocateAddress(currency, addresses)
	if err != nil {
		return invoice.Allocation{}, toAppError(fmt.Errorf("staff %s: %w", staffID, err), "failed to allocate address")
	}
	return alloc, nil
}

func (uc *CreateInvoiceUseCase) publish(ctx context.Context, event invoice.Event) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warnw("failed to publish invoice event",
			"type", event.EventType(),
			"invoice_id", event.AggregateID(),
			"error", err,
		)
	}
}
