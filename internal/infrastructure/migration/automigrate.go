package migration

import (
	"github.com/cryptbill/cryptbill/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.StaffModel{},
		&models.StaffAddressModel{},
		&models.ClientModel{},
		&models.InvoiceModel{},
	}
}
