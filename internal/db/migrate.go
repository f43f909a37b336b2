package db

import (
	"fmt"

	"github.com/zulandar/railsection/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model the journal stores.
func AllModels() []interface{} {
	return []interface{}{
		&models.JournalEntry{},
	}
}

// AutoMigrate creates or updates the journal tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
