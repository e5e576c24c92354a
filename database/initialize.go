package database

import (
	"masterclass.link/configs/configslog"
	"masterclass.link/database/migrations"
	"masterclass.link/database/seeders"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options selects what Initialize runs.
type Options struct {
	Migrate        bool
	Seed           bool
	SeedUserEmails []string
}

// Initialize runs migrations and seeders in one transaction.
func Initialize(db *gorm.DB, opts Options) error {
	if !opts.Migrate && !opts.Seed {
		configslog.SLog.Info("Neither migrate nor seed requested, nothing to do.")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		configslog.SLog.Info("Database initialization starting...")

		if opts.Migrate {
			if err := RunMigrationsInOrder(tx); err != nil {
				configslog.Log.Error("Migration failed", zap.Error(err))
				return err
			}
		} else {
			configslog.SLog.Info("Migrate flag not set, skipping migrations.")
		}

		if opts.Seed {
			if err := CheckAndRunSeeders(tx, opts.SeedUserEmails); err != nil {
				configslog.Log.Error("Seeding failed", zap.Error(err))
				return err
			}
		} else {
			configslog.SLog.Info("Seed flag not set, skipping seeders.")
		}

		configslog.SLog.Info("Committing database initialization...")
		return nil
	})
}

func RunMigrationsInOrder(db *gorm.DB) error {
	configslog.SLog.Info(" -> users")
	if err := migrations.MigrateUsersTable(db); err != nil {
		return err
	}
	configslog.SLog.Info(" -> locations")
	if err := migrations.MigrateLocationsTable(db); err != nil {
		return err
	}
	configslog.SLog.Info(" -> masterclass_contents, masterclasses, masterclass_attendees")
	if err := migrations.MigrateMasterclassTables(db); err != nil {
		return err
	}
	configslog.SLog.Info("All migrations completed.")
	return nil
}

func CheckAndRunSeeders(db *gorm.DB, seedUserEmails []string) error {
	if err := seeders.SeedUsers(db, seedUserEmails); err != nil {
		return err
	}
	if err := seeders.SeedMasterclassContent(db); err != nil {
		return err
	}
	configslog.SLog.Info("All seeders completed.")
	return nil
}
