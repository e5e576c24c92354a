package repositories

import (
	"context"
	"errors"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IMasterclassRepository masterclass database operations.
type IMasterclassRepository interface {
	Create(ctx context.Context, masterclass *models.Masterclass) error
	// FindByID loads the masterclass with content, location, instructor and attendees.
	FindByID(ctx context.Context, id uint) (*models.Masterclass, error)
	FindPublished(ctx context.Context) ([]models.Masterclass, error)
	FindDraftsByInstructor(ctx context.Context, instructorID uint) ([]models.Masterclass, error)
	FindBookedByUser(ctx context.Context, userID uint) ([]models.Masterclass, error)
	// Update writes the masterclass columns only, never its associations.
	Update(ctx context.Context, masterclass *models.Masterclass) error
	// CreateContentAndAttach inserts content and points the masterclass at it in one transaction.
	CreateContentAndAttach(ctx context.Context, masterclassID uint, content *models.MasterclassContent) error
}

// MasterclassRepository implements IMasterclassRepository.
type MasterclassRepository struct {
	db *gorm.DB
}

func NewMasterclassRepository(db *gorm.DB) IMasterclassRepository {
	return &MasterclassRepository{db: db}
}

func (r *MasterclassRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

func (r *MasterclassRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("MasterclassContent").Preload("Location").Preload("Instructor")
}

func (r *MasterclassRepository) Create(ctx context.Context, masterclass *models.Masterclass) error {
	if masterclass == nil {
		return errors.New("masterclass to create must not be nil")
	}
	if err := r.getDB(ctx).Omit(clause.Associations).Create(masterclass).Error; err != nil {
		configslog.Log.Error("MasterclassRepository.Create: DB error", zap.Error(err))
		return err
	}
	return nil
}

func (r *MasterclassRepository) FindByID(ctx context.Context, id uint) (*models.Masterclass, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var masterclass models.Masterclass
	err := r.withRelations(r.getDB(ctx)).Preload("Attendees").First(&masterclass, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("MasterclassRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &masterclass, nil
}

func (r *MasterclassRepository) FindPublished(ctx context.Context) ([]models.Masterclass, error) {
	var masterclasses []models.Masterclass
	err := r.withRelations(r.getDB(ctx)).Preload("Attendees").
		Where("draft = ?", false).
		Order("timestamp asc").
		Find(&masterclasses).Error
	if err != nil {
		configslog.Log.Error("MasterclassRepository.FindPublished: DB error", zap.Error(err))
		return nil, err
	}
	return masterclasses, nil
}

func (r *MasterclassRepository) FindDraftsByInstructor(ctx context.Context, instructorID uint) ([]models.Masterclass, error) {
	var masterclasses []models.Masterclass
	err := r.withRelations(r.getDB(ctx)).
		Where("draft = ? AND instructor_id = ?", true, instructorID).
		Order("created_at desc").
		Find(&masterclasses).Error
	if err != nil {
		configslog.Log.Error("MasterclassRepository.FindDraftsByInstructor: DB error", zap.Uint("instructorID", instructorID), zap.Error(err))
		return nil, err
	}
	return masterclasses, nil
}

func (r *MasterclassRepository) FindBookedByUser(ctx context.Context, userID uint) ([]models.Masterclass, error) {
	db := r.getDB(ctx)
	booked := db.Model(&models.MasterclassAttendee{}).
		Select("masterclass_id").
		Where("attendee_id = ?", userID)

	var masterclasses []models.Masterclass
	err := r.withRelations(db).Where("id IN (?)", booked).Find(&masterclasses).Error
	if err != nil {
		configslog.Log.Error("MasterclassRepository.FindBookedByUser: DB error", zap.Uint("userID", userID), zap.Error(err))
		return nil, err
	}
	return masterclasses, nil
}

func (r *MasterclassRepository) Update(ctx context.Context, masterclass *models.Masterclass) error {
	if masterclass == nil || masterclass.ID == 0 {
		return errors.New("masterclass to update is not valid")
	}
	// loaded associations may be stale after a foreign key change
	columns := *masterclass
	columns.MasterclassContent, columns.Location, columns.Instructor, columns.Attendees = nil, nil, nil, nil
	result := r.getDB(ctx).Omit(clause.Associations).Save(&columns)
	masterclass.UpdatedAt = columns.UpdatedAt
	if result.Error != nil {
		configslog.Log.Error("MasterclassRepository.Update: DB error", zap.Uint("id", masterclass.ID), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *MasterclassRepository) CreateContentAndAttach(ctx context.Context, masterclassID uint, content *models.MasterclassContent) error {
	if content == nil {
		return errors.New("content to attach must not be nil")
	}
	return r.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		var masterclass models.Masterclass
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&masterclass, masterclassID).Error; err != nil {
			return translateNotFound(err)
		}
		if err := tx.Create(content).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Masterclass{}).
			Where("id = ?", masterclassID).
			Update("masterclass_content_id", content.ID)
		return result.Error
	})
}

var _ IMasterclassRepository = (*MasterclassRepository)(nil)
