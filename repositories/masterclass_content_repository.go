package repositories

import (
	"context"
	"errors"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IMasterclassContentRepository masterclass content database operations.
type IMasterclassContentRepository interface {
	Create(ctx context.Context, content *models.MasterclassContent) error
	FindByID(ctx context.Context, id uint) (*models.MasterclassContent, error)
	FindByCategory(ctx context.Context, category string) ([]models.MasterclassContent, error)
	// FindRunByInstructor returns each content at most once.
	FindRunByInstructor(ctx context.Context, instructorID uint) ([]models.MasterclassContent, error)
}

// MasterclassContentRepository implements IMasterclassContentRepository.
type MasterclassContentRepository struct {
	db *gorm.DB
}

func NewMasterclassContentRepository(db *gorm.DB) IMasterclassContentRepository {
	return &MasterclassContentRepository{db: db}
}

func (r *MasterclassContentRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

func (r *MasterclassContentRepository) Create(ctx context.Context, content *models.MasterclassContent) error {
	if content == nil {
		return errors.New("content to create must not be nil")
	}
	return r.getDB(ctx).Create(content).Error
}

func (r *MasterclassContentRepository) FindByID(ctx context.Context, id uint) (*models.MasterclassContent, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var content models.MasterclassContent
	if err := r.getDB(ctx).First(&content, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &content, nil
}

func (r *MasterclassContentRepository) FindByCategory(ctx context.Context, category string) ([]models.MasterclassContent, error) {
	var contents []models.MasterclassContent
	err := r.getDB(ctx).Where("category = ?", category).Order("name asc").Find(&contents).Error
	if err != nil {
		configslog.Log.Error("MasterclassContentRepository.FindByCategory: DB error", zap.String("category", category), zap.Error(err))
		return nil, err
	}
	return contents, nil
}

func (r *MasterclassContentRepository) FindRunByInstructor(ctx context.Context, instructorID uint) ([]models.MasterclassContent, error) {
	db := r.getDB(ctx)
	run := db.Model(&models.Masterclass{}).
		Select("masterclass_content_id").
		Where("instructor_id = ? AND masterclass_content_id IS NOT NULL", instructorID)

	var contents []models.MasterclassContent
	if err := db.Where("id IN (?)", run).Order("name asc").Find(&contents).Error; err != nil {
		configslog.Log.Error("MasterclassContentRepository.FindRunByInstructor: DB error", zap.Uint("instructorID", instructorID), zap.Error(err))
		return nil, err
	}
	return contents, nil
}

var _ IMasterclassContentRepository = (*MasterclassContentRepository)(nil)
