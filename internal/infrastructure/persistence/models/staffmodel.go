package models

import "time"

type StaffModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:128;not null"`
	Active    bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StaffModel) TableName() string {
	return "staff"
}

// StaffAddressModel holds one receiving address per staff member and asset.
type StaffAddressModel struct {
	ID        uint   `gorm:"primaryKey"`
	StaffID   string `gorm:"size:64;not null;uniqueIndex:idx_staff_asset"`
	Asset     string `gorm:"size:10;not null;uniqueIndex:idx_staff_asset"`
	Address   string `gorm:"size:128;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StaffAddressModel) TableName() string {
	return "staff_addresses"
}
