package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceModel maps the invoices table. SeriesID and PeriodIndex carry a
// composite unique index so each period of a series is inserted at most once.
type InvoiceModel struct {
	ID             string          `gorm:"primaryKey;size:32"`
	StaffID        string          `gorm:"size:64;not null;index"`
	ClientID       string          `gorm:"size:64;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	Currency       string          `gorm:"size:10;not null"`
	Asset          string          `gorm:"size:10;not null;index"`
	PaymentAddress string          `gorm:"size:128;not null"`
	Description    string          `gorm:"size:500"`
	Status         string          `gorm:"size:20;not null;index"`
	PaidAt         *time.Time
	TxReference    *string           `gorm:"size:128;index"`
	Settlement     datatypes.JSONMap `gorm:"type:json"`
	AutoGenerate   bool              `gorm:"not null;default:false"`
	Frequency      *string           `gorm:"size:10"`
	SeriesID       *string           `gorm:"size:32;uniqueIndex:idx_invoice_series_period"`
	PeriodIndex    int               `gorm:"not null;default:0;uniqueIndex:idx_invoice_series_period"`
	Version        int               `gorm:"not null"`
	CreatedAt      time.Time         `gorm:"index"`
	UpdatedAt      time.Time
}

func (InvoiceModel) TableName() string {
	return "invoices"
}
