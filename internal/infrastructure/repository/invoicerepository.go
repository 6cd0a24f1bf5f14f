package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/infrastructure/persistence/mappers"
	"github.com/cryptbill/cryptbill/internal/infrastructure/persistence/models"
	apperrors "github.com/cryptbill/cryptbill/internal/shared/errors"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

var _ invoice.Repository = (*InvoiceRepository)(nil)

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	model := mappers.InvoiceToModel(inv)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if inv.SeriesID() != nil && apperrors.IsDuplicateError(err) {
			return invoice.ErrPeriodAlreadySpawned
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	var model models.InvoiceModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return mappers.InvoiceToDomain(&model)
}

// MarkPaid writes the settlement with a compare-and-set on the pending status.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, inv *invoice.Invoice) (bool, error) {
	model := mappers.InvoiceToModel(inv)

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND status = ?", model.ID, vo.InvoiceStatusPending.String()).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"paid_at":      model.PaidAt,
			"tx_reference": model.TxReference,
			"settlement":   model.Settlement,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to mark invoice paid: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *InvoiceRepository) ListPending(ctx context.Context, limit int) ([]*invoice.Invoice, error) {
	var rows []models.InvoiceModel

	query := r.db.WithContext(ctx).
		Where("status = ?", vo.InvoiceStatusPending.String()).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending invoices: %w", err)
	}

	return mappers.InvoicesToDomain(rows)
}

// ListRecurring returns the highest period of every series with recurrence enabled.
func (r *InvoiceRepository) ListRecurring(ctx context.Context) ([]*invoice.Invoice, error) {
	var rows []models.InvoiceModel

	latest := r.db.
		Model(&models.InvoiceModel{}).
		Select("series_id, MAX(period_index) AS max_period").
		Where("auto_generate = ? AND series_id IS NOT NULL", true).
		Group("series_id")

	err := r.db.WithContext(ctx).
		Table("invoices AS i").
		Select("i.*").
		Joins("JOIN (?) AS latest ON latest.series_id = i.series_id AND latest.max_period = i.period_index", latest).
		Order("i.created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring invoices: %w", err)
	}

	return mappers.InvoicesToDomain(rows)
}

func (r *InvoiceRepository) List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})

	if filter.StaffID != "" {
		query = query.Where("staff_id = ?", filter.StaffID)
	}
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.Asset != nil {
		query = query.Where("asset = ?", filter.Asset.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var rows []models.InvoiceModel
	query = query.Order("created_at DESC").Order("id DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	invoices, err := mappers.InvoicesToDomain(rows)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

type statusCount struct {
	Status string
	Count  int64
}

type paidAmount struct {
	Asset  string
	Amount decimal.Decimal
}

// Stats counts by status in SQL and sums paid amounts in decimal to keep full precision.
func (r *InvoiceRepository) Stats(ctx context.Context, filter invoice.StatsFilter) (*invoice.Stats, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
		if filter.StaffID != "" {
			q = q.Where("staff_id = ?", filter.StaffID)
		}
		if filter.ClientID != "" {
			q = q.Where("client_id = ?", filter.ClientID)
		}
		return q
	}

	var counts []statusCount
	if err := scoped().Select("status, COUNT(*) AS count").Group("status").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count invoices by status: %w", err)
	}

	stats := &invoice.Stats{PaidByAsset: make(map[vo.Asset]decimal.Decimal)}
	for _, c := range counts {
		stats.Total += c.Count
		switch vo.InvoiceStatus(c.Status) {
		case vo.InvoiceStatusPaid:
			stats.Paid += c.Count
		case vo.InvoiceStatusPending:
			stats.Pending += c.Count
		}
	}

	var amounts []paidAmount
	if err := scoped().
		Select("asset, amount").
		Where("status = ?", vo.InvoiceStatusPaid.String()).
		Scan(&amounts).Error; err != nil {
		return nil, fmt.Errorf("failed to load paid amounts: %w", err)
	}
	for _, a := range amounts {
		asset := vo.Asset(a.Asset)
		stats.PaidByAsset[asset] = stats.PaidByAsset[asset].Add(a.Amount)
	}

	return stats, nil
}
