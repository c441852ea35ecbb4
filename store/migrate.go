package store

import (
	"fmt"

	"gorm.io/gorm"

	"foyer-backend/models"
)

// Migrate creates or updates the schema, parents before children so the
// foreign keys resolve.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Foyer{},
		&models.Bloc{},
		&models.University{},
		&models.Room{},
		&models.Student{},
		&models.Reservation{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
