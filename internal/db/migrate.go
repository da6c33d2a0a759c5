package db

import (
	"coinpulse/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Coin{},
		&models.DirectionEntry{},
		&models.TextEntry{},
		&models.ConfidenceEntry{},
		&models.TargetPriceEntry{},
		&models.FulfillmentTimeEntry{},
		&models.FulfilledEntry{},
		&models.UserPrediction{},
		&models.SummarySnapshot{},
	)
}
