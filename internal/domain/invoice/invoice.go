package invoice

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/shared/biztime"
	"github.com/cryptbill/cryptbill/internal/shared/id"
)

const maxDescriptionLength = 500

// Invoice requests a fixed amount of one currency at one address and is tracked until paid.
// Everything except the settlement fields is immutable after creation.
type Invoice struct {
	id             string
	staffID        string
	clientID       string
	amount         decimal.Decimal
	currency       vo.Currency
	asset          vo.Asset
	paymentAddress string
	description    string
	status         vo.InvoiceStatus

	paidAt         *time.Time
	txReference    *string
	observedAmount *decimal.Decimal
	confirmations  int

	recurrence  vo.Recurrence
	seriesID    *string
	periodIndex int

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// CreateParams carries the fields of a new invoice. Asset and PaymentAddress come
// from the address allocator. CreatedAt defaults to now.
type CreateParams struct {
	StaffID        string
	ClientID       string
	Amount         decimal.Decimal
	Currency       vo.Currency
	Asset          vo.Asset
	PaymentAddress string
	Description    string
	Recurrence     *vo.Recurrence
	CreatedAt      time.Time
}

func NewInvoice(p CreateParams) (*Invoice, error) {
	if err := validateCreateParams(p); err != nil {
		return nil, err
	}

	invoiceID, err := id.NewInvoiceID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice id: %w", err)
	}

	now := p.CreatedAt
	if now.IsZero() {
		now = biztime.NowUTC()
	}

	inv := &Invoice{
		id:             invoiceID,
		staffID:        p.StaffID,
		clientID:       p.ClientID,
		amount:         p.Amount,
		currency:       p.Currency,
		asset:          p.Asset,
		paymentAddress: p.PaymentAddress,
		description:    p.Description,
		status:         vo.InvoiceStatusPending,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}

	if p.Recurrence != nil && p.Recurrence.Enabled() {
		inv.recurrence = *p.Recurrence
		seriesID := invoiceID
		inv.seriesID = &seriesID
	}

	return inv, nil
}

func validateCreateParams(p CreateParams) error {
	if strings.TrimSpace(p.StaffID) == "" {
		return fmt.Errorf("%w: staff id is required", ErrInvalidInvoice)
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return fmt.Errorf("%w: client id is required", ErrInvalidInvoice)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInvoice)
	}
	if p.Currency.IsZero() {
		return fmt.Errorf("%w: currency is required", ErrInvalidInvoice)
	}
	if !p.Asset.IsValid() {
		return fmt.Errorf("%w: settlement asset %q is not supported", ErrInvalidInvoice, p.Asset)
	}
	if asset, ok := p.Currency.Asset(); ok && asset != p.Asset {
		return fmt.Errorf("%w: settlement asset %s does not match currency %s", ErrInvalidInvoice, p.Asset, p.Currency)
	}
	if !p.Amount.Equal(p.Amount.Truncate(p.Asset.Decimals())) {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidInvoice, p.Asset.Decimals())
	}
	if strings.TrimSpace(p.PaymentAddress) == "" {
		return ErrNoAddressConfigured
	}
	if utf8.RuneCountInString(p.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInvoice, maxDescriptionLength)
	}
	return nil
}

// NewSuccessor creates the next invoice of the series with a fresh identity and
// its own address, which the caller resolves at spawn time.
func (i *Invoice) NewSuccessor(asset vo.Asset, paymentAddress string, now time.Time) (*Invoice, error) {
	if !i.IsRecurring() {
		return nil, ErrNotRecurring
	}

	next, err := NewInvoice(CreateParams{
		StaffID:        i.staffID,
		ClientID:       i.clientID,
		Amount:         i.amount,
		Currency:       i.currency,
		Asset:          asset,
		PaymentAddress: paymentAddress,
		Description:    i.description,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	seriesID := *i.seriesID
	next.recurrence = i.recurrence
	next.seriesID = &seriesID
	next.periodIndex = i.periodIndex + 1
	return next, nil
}

// MarkAsPaid records the settlement. Calling it on a paid invoice changes
// nothing and returns ErrAlreadyPaid, which callers treat as success.
func (i *Invoice) MarkAsPaid(txReference string, observedAmount decimal.Decimal, confirmations int, at time.Time) error {
	if i.status.IsPaid() {
		return ErrAlreadyPaid
	}
	if !i.status.CanTransitionTo(vo.InvoiceStatusPaid) {
		return fmt.Errorf("cannot mark invoice as paid with status %s", i.status)
	}
	if strings.TrimSpace(txReference) == "" {
		return fmt.Errorf("transaction reference is required")
	}

	paidAt := at.UTC()
	i.status = vo.InvoiceStatusPaid
	i.txReference = &txReference
	i.paidAt = &paidAt
	i.observedAmount = &observedAmount
	i.confirmations = confirmations
	i.updatedAt = paidAt
	i.version++

	return nil
}

// IsDueForSuccessor reports whether this invoice, the latest of its series, has reached the next period.
func (i *Invoice) IsDueForSuccessor(now time.Time) bool {
	return i.IsRecurring() && i.recurrence.IsDue(i.createdAt, now)
}

// NextDueAt returns when the successor of this invoice becomes due, or zero for non-recurring invoices.
func (i *Invoice) NextDueAt() time.Time {
	if !i.IsRecurring() {
		return time.Time{}
	}
	return i.recurrence.Frequency().NextDue(i.createdAt)
}

func (i *Invoice) IsRecurring() bool {
	return i.recurrence.Enabled() && i.seriesID != nil
}

func (i *Invoice) IsPaid() bool {
	return i.status.IsPaid()
}

func (i *Invoice) ID() string {
	return i.id
}

func (i *Invoice) StaffID() string {
	return i.staffID
}

func (i *Invoice) ClientID() string {
	return i.clientID
}

func (i *Invoice) Amount() decimal.Decimal {
	return i.amount
}

func (i *Invoice) Currency() vo.Currency {
	return i.currency
}

// Asset is the concrete asset the payment address receives.
func (i *Invoice) Asset() vo.Asset {
	return i.asset
}

func (i *Invoice) PaymentAddress() string {
	return i.paymentAddress
}

func (i *Invoice) Description() string {
	return i.description
}

func (i *Invoice) Status() vo.InvoiceStatus {
	return i.status
}

func (i *Invoice) PaidAt() *time.Time {
	return i.paidAt
}

func (i *Invoice) TxReference() *string {
	return i.txReference
}

func (i *Invoice) ObservedAmount() *decimal.Decimal {
	return i.observedAmount
}

func (i *Invoice) Confirmations() int {
	return i.confirmations
}

func (i *Invoice) Recurrence() vo.Recurrence {
	return i.recurrence
}

func (i *Invoice) SeriesID() *string {
	return i.seriesID
}

func (i *Invoice) PeriodIndex() int {
	return i.periodIndex
}

func (i *Invoice) Version() int {
	return i.version
}

func (i *Invoice) CreatedAt() time.Time {
	return i.createdAt
}

func (i *Invoice) UpdatedAt() time.Time {
	return i.updatedAt
}

// InvoiceState is the persisted form used to rebuild an aggregate.
type InvoiceState struct {
	ID             string
	StaffID        string
	ClientID       string
	Amount         decimal.Decimal
	Currency       vo.Currency
	Asset          vo.Asset
	PaymentAddress string
	Description    string
	Status         vo.InvoiceStatus
	PaidAt         *time.Time
	TxReference    *string
	ObservedAmount *decimal.Decimal
	Confirmations  int
	Recurrence     vo.Recurrence
	SeriesID       *string
	PeriodIndex    int
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReconstructInvoice rebuilds an invoice from storage, checking the settlement invariant.
func ReconstructInvoice(s InvoiceState) (*Invoice, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("invoice id is required")
	}
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("invalid status %q for invoice %s", s.Status, s.ID)
	}
	settled := s.PaidAt != nil && s.TxReference != nil
	if s.Status.IsPaid() != settled {
		return nil, fmt.Errorf("invoice %s: paid_at and tx_reference must be set exactly when paid", s.ID)
	}

	return &Invoice{
		id:             s.ID,
		staffID:        s.StaffID,
		clientID:       s.ClientID,
		amount:         s.Amount,
		currency:       s.Currency,
		asset:          s.Asset,
		paymentAddress: s.PaymentAddress,
		description:    s.Description,
		status:         s.Status,
		paidAt:         s.PaidAt,
		txReference:    s.TxReference,
		observedAmount: s.ObservedAmount,
		confirmations:  s.Confirmations,
		recurrence:     s.Recurrence,
		seriesID:       s.SeriesID,
		periodIndex:    s.PeriodIndex,
		version:        s.Version,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}, nil
}
