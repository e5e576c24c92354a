package seeders

import (
	"errors"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedUsers provisions draft accounts for emails. A draft has no password
// and is activated through the registration page.
func SeedUsers(db *gorm.DB, emails []string) error {
	if len(emails) == 0 {
		configslog.SLog.Info("No seed user emails configured, skipping user seed.")
		return nil
	}

	var createdCount int
	var errorOccurred bool

	for _, raw := range emails {
		email := models.NormalizeEmail(raw)
		var existing models.User
		result := db.Where("email = ?", email).First(&existing)
		if result.Error == nil {
			configslog.SLog.Debugf("User '%s' already exists, skipping.", email)
			continue
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			configslog.Log.Error("Database error while checking seed user",
				zap.String("email", email),
				zap.Error(result.Error),
			)
			errorOccurred = true
			continue
		}

		user := models.User{Email: email, Draft: true}
		if err := db.Create(&user).Error; err != nil {
			configslog.Log.Error("Seed user could not be created", zap.String("email", email), zap.Error(err))
			errorOccurred = true
			continue
		}
		configslog.SLog.Infof("Draft user '%s' created (ID: %d).", email, user.ID)
		createdCount++
	}

	if createdCount > 0 {
		configslog.SLog.Infof("%d draft users seeded.", createdCount)
	}
	if errorOccurred {
		return errors.New("at least one seed user could not be created")
	}
	return nil
}
