package migrations

import (
	"fmt"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrateLocationsTable adds a partial unique index on the external place
// id so a place is materialized once.
func MigrateLocationsTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating locations table...")

	if err := db.AutoMigrate(&models.Location{}); err != nil {
		configslog.Log.Error("locations table could not be migrated", zap.Error(err))
		return fmt.Errorf("locations table: %w", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_external_place_id_unique
		ON locations (external_place_id) WHERE external_place_id IS NOT NULL`).Error; err != nil {
		configslog.Log.Error("locations external place index could not be created", zap.Error(err))
		return fmt.Errorf("locations external place index: %w", err)
	}

	configslog.SLog.Info("Locations table migrated.")
	return nil
}

// MigrateMasterclassTables migrates content, masterclasses and attendees in
// foreign key order.
func MigrateMasterclassTables(db *gorm.DB) error {
	configslog.SLog.Info("Migrating masterclass tables...")

	if err := db.AutoMigrate(&models.MasterclassContent{}); err != nil {
		configslog.Log.Error("masterclass_contents table could not be migrated", zap.Error(err))
		return fmt.Errorf("masterclass_contents table: %w", err)
	}
	if err := db.AutoMigrate(&models.Masterclass{}); err != nil {
		configslog.Log.Error("masterclasses table could not be migrated", zap.Error(err))
		return fmt.Errorf("masterclasses table: %w", err)
	}
	if err := db.AutoMigrate(&models.MasterclassAttendee{}); err != nil {
		configslog.Log.Error("masterclass_attendees table could not be migrated", zap.Error(err))
		return fmt.Errorf("masterclass_attendees table: %w", err)
	}

	configslog.SLog.Info("Masterclass tables migrated.")
	return nil
}
