package persistence

import (
	"gorm.io/gorm"

	"github.com/peptiva/backend/internal/infrastructure/persistence/models"
)

// AutoMigrate creates or updates the schema for every persisted model
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.ReferralCodeModel{},
		&models.ReferralCodeEventModel{},
		&models.DoctorModel{},
		&models.LedgerEntryModel{},
		&models.ProspectModel{},
	)
}
