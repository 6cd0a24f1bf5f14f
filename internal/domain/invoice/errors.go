package invoice

import "errors"

var (
	// ErrInvalidInvoice wraps every creation-time validation failure.
	ErrInvalidInvoice       = errors.New("invalid invoice")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrAlreadyPaid          = errors.New("invoice already paid")
	ErrNotPaid              = errors.New("invoice not paid")
	ErrNoAddressConfigured  = errors.New("no payment address configured")
	ErrNotRecurring         = errors.New("invoice is not part of a recurring series")
	ErrPeriodAlreadySpawned = errors.New("series period already spawned")
)
