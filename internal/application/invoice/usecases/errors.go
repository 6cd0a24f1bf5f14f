package usecases

import (
	"errors"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	apperrors "github.com/cryptbill/cryptbill/internal/shared/errors"
)

// toAppError maps domain and port errors to the error kinds callers see.
// Anything unrecognised is reported as an internal error carrying internalMsg.
func toAppError(err error, internalMsg string) error {
	if err == nil {
		return nil
	}
	if apperrors.GetAppError(err) != nil {
		return err
	}

	switch {
	case errors.Is(err, invoice.ErrInvalidInvoice):
		return apperrors.NewValidationError(err.Error()).WithCause(err)
	case errors.Is(err, invoice.ErrNoAddressConfigured):
		return apperrors.NewValidationError("no payment address configured", err.Error()).WithCause(err)
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		return apperrors.NewNotFoundError("invoice not found").WithCause(err)
	case errors.Is(err, invoice.ErrNotPaid):
		return apperrors.NewConflictError("invoice not paid").WithCause(err)
	case oracle.IsUnavailable(err):
		return apperrors.NewUnavailableError("payment oracle unavailable, retry later").WithCause(err)
	default:
		return apperrors.NewInternalError(internalMsg).WithCause(err)
	}
}
