package seeders

import (
	"errors"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var contentToSeed = []models.MasterclassContent{
	{Name: "Introduction to cloud architecture", Description: "Core building blocks of cloud hosted services and how they fit together.", Category: "Architecture"},
	{Name: "Data pipelines in practice", Description: "Designing, testing and running batch and streaming data pipelines.", Category: "Data"},
	{Name: "Running a discovery", Description: "Planning and running the discovery phase of a service.", Category: "Product and Delivery"},
	{Name: "Accessibility testing", Description: "Checking services work for people using assistive technology.", Category: "Quality Assurance Testing"},
	{Name: "Content design basics", Description: "Writing clear content that meets user needs.", Category: "User-Centred Design"},
}

// SeedMasterclassContent adds the sample content the wizard offers as
// existing content. Rows are matched by name.
func SeedMasterclassContent(db *gorm.DB) error {
	var createdCount int
	var errorOccurred bool

	for _, content := range contentToSeed {
		var existing models.MasterclassContent
		result := db.Where("name = ?", content.Name).First(&existing)
		if result.Error == nil {
			configslog.SLog.Debugf("Content '%s' already exists, skipping.", content.Name)
			continue
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			configslog.Log.Error("Database error while checking seed content",
				zap.String("name", content.Name),
				zap.Error(result.Error),
			)
			errorOccurred = true
			continue
		}

		row := content
		if err := db.Create(&row).Error; err != nil {
			configslog.Log.Error("Seed content could not be created", zap.String("name", content.Name), zap.Error(err))
			errorOccurred = true
			continue
		}
		createdCount++
	}

	if createdCount > 0 {
		configslog.SLog.Infof("%d masterclass contents seeded.", createdCount)
	} else if !errorOccurred {
		configslog.SLog.Info("All sample content already exists, nothing added.")
	}
	if errorOccurred {
		return errors.New("at least one masterclass content could not be seeded")
	}
	return nil
}
