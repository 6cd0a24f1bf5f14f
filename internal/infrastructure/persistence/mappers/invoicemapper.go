package mappers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/infrastructure/persistence/models"
)

// settlement keys
const (
	settlementObservedAmount = "observed_amount"
	settlementConfirmations  = "confirmations"
	settlementNetwork        = "network"
)

func InvoiceToModel(inv *invoice.Invoice) *models.InvoiceModel {
	model := &models.InvoiceModel{
		ID:             inv.ID(),
		StaffID:        inv.StaffID(),
		ClientID:       inv.ClientID(),
		Amount:         inv.Amount(),
		Currency:       inv.Currency().String(),
		Asset:          inv.Asset().String(),
		PaymentAddress: inv.PaymentAddress(),
		Description:    inv.Description(),
		Status:         inv.Status().String(),
		PaidAt:         inv.PaidAt(),
		TxReference:    inv.TxReference(),
		AutoGenerate:   inv.Recurrence().Enabled(),
		SeriesID:       inv.SeriesID(),
		PeriodIndex:    inv.PeriodIndex(),
		Version:        inv.Version(),
		CreatedAt:      inv.CreatedAt(),
		UpdatedAt:      inv.UpdatedAt(),
	}

	if inv.Recurrence().Enabled() {
		freq := inv.Recurrence().Frequency().String()
		model.Frequency = &freq
	}

	if inv.IsPaid() {
		settlement := datatypes.JSONMap{
			settlementConfirmations: inv.Confirmations(),
			settlementNetwork:       string(inv.Asset().Network()),
		}
		if observed := inv.ObservedAmount(); observed != nil {
			settlement[settlementObservedAmount] = observed.String()
		}
		model.Settlement = settlement
	}

	return model
}

func InvoiceToDomain(model *models.InvoiceModel) (*invoice.Invoice, error) {
	currency, err := vo.ParseCurrency(model.Currency)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", model.ID, err)
	}

	asset := vo.Asset(model.Asset)
	if !asset.IsValid() {
		return nil, fmt.Errorf("invoice %s: invalid asset %q", model.ID, model.Asset)
	}

	status, err := vo.ParseInvoiceStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", model.ID, err)
	}

	var recurrence vo.Recurrence
	if model.AutoGenerate && model.Frequency != nil {
		recurrence = vo.ReconstructRecurrence(true, vo.Frequency(*model.Frequency))
	}

	observed, confirmations, err := parseSettlement(model.Settlement)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", model.ID, err)
	}

	return invoice.ReconstructInvoice(invoice.InvoiceState{
		ID:             model.ID,
		StaffID:        model.StaffID,
		ClientID:       model.ClientID,
		Amount:         model.Amount,
		Currency:       currency,
		Asset:          asset,
		PaymentAddress: model.PaymentAddress,
		Description:    model.Description,
		Status:         status,
		PaidAt:         utcPtr(model.PaidAt),
		TxReference:    model.TxReference,
		ObservedAmount: observed,
		Confirmations:  confirmations,
		Recurrence:     recurrence,
		SeriesID:       model.SeriesID,
		PeriodIndex:    model.PeriodIndex,
		Version:        model.Version,
		CreatedAt:      model.CreatedAt.UTC(),
		UpdatedAt:      model.UpdatedAt.UTC(),
	})
}

func InvoicesToDomain(rows []models.InvoiceModel) ([]*invoice.Invoice, error) {
	out := make([]*invoice.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := InvoiceToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// parseSettlement reads the settlement document. Numbers decode as float64 from
// JSON but stay int when the map was built in process.
func parseSettlement(settlement datatypes.JSONMap) (*decimal.Decimal, int, error) {
	if len(settlement) == 0 {
		return nil, 0, nil
	}

	var observed *decimal.Decimal
	if raw, ok := settlement[settlementObservedAmount].(string); ok && raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid observed amount %q: %w", raw, err)
		}
		observed = &d
	}

	confirmations := 0
	switch v := settlement[settlementConfirmations].(type) {
	case float64:
		confirmations = int(v)
	case int:
		confirmations = v
	case int64:
		confirmations = int(v)
	}

	return observed, confirmations, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
