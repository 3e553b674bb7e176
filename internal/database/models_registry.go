package database

import (
	"fmt"

	"devconnector/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the schema-managed gorm models in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Reaction{},
		&models.Comment{},
		&models.Profile{},
		&models.Experience{},
		&models.Education{},
	}
}

// Migrate creates or updates every table returned by PersistentModels.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
