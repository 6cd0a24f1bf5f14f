// Package directory implements the staff and client lookups on the local database
// and a cached decorator for the hot allocation path.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cryptbill/cryptbill/internal/application/invoice/directory"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/infrastructure/persistence/models"
)

type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

var _ directory.Directory = (*GormDirectory)(nil)

func (d *GormDirectory) ResolveStaffAddresses(ctx context.Context, staffID string) (invoice.StaffAddresses, error) {
	var rows []models.StaffAddressModel
	if err := d.db.WithContext(ctx).Where("staff_id = ?", staffID).Find(&rows).Error; err != nil {
		return invoice.StaffAddresses{}, fmt.Errorf("failed to load staff addresses: %w", err)
	}

	var addrs invoice.StaffAddresses
	for _, row := range rows {
		switch vo.Asset(row.Asset) {
		case vo.AssetLTC:
			addrs.LTC = row.Address
		case vo.AssetUSDT:
			addrs.USDT = row.Address
		case vo.AssetUSDC:
			addrs.USDC = row.Address
		}
	}
	return addrs, nil
}

// StaffExists reports true only for active staff members.
func (d *GormDirectory) StaffExists(ctx context.Context, staffID string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&models.StaffModel{}).
		Where("id = ? AND active = ?", staffID, true).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up staff: %w", err)
	}
	return count > 0, nil
}

func (d *GormDirectory) ClientExists(ctx context.Context, clientID string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("id = ?", clientID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up client: %w", err)
	}
	return count > 0, nil
}

func (d *GormDirectory) StaffName(ctx context.Context, staffID string) (string, error) {
	var staff models.StaffModel
	if err := d.db.WithContext(ctx).Select("name").Where("id = ?", staffID).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load staff name: %w", err)
	}
	return staff.Name, nil
}

func (d *GormDirectory) ClientName(ctx context.Context, clientID string) (string, error) {
	var client models.ClientModel
	if err := d.db.WithContext(ctx).Select("name").Where("id = ?", clientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load client name: %w", err)
	}
	return client.Name, nil
}

// UpsertStaff creates or renames a staff member and sets its active flag.
func (d *GormDirectory) UpsertStaff(ctx context.Context, staffID, name string, active bool) error {
	model := &models.StaffModel{ID: staffID, Name: name, Active: active}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "active", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save staff: %w", err)
	}
	return nil
}

// SetStaffAddress stores the receiving address for one asset. An empty address removes it.
func (d *GormDirectory) SetStaffAddress(ctx context.Context, staffID string, asset vo.Asset, address string) error {
	if !asset.IsValid() {
		return fmt.Errorf("unsupported asset: %q", asset)
	}

	address = strings.TrimSpace(address)
	if address == "" {
		if err := d.db.WithContext(ctx).
			Where("staff_id = ? AND asset = ?", staffID, asset.String()).
			Delete(&models.StaffAddressModel{}).Error; err != nil {
			return fmt.Errorf("failed to remove staff address: %w", err)
		}
		return nil
	}

	model := &models.StaffAddressModel{StaffID: staffID, Asset: asset.String(), Address: address}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "staff_id"}, {Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save staff address: %w", err)
	}
	return nil
}

func (d *GormDirectory) UpsertClient(ctx context.Context, clientID, name, email string) error {
	model := &models.ClientModel{ID: clientID, Name: name, Email: email}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}
