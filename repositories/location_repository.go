package repositories

import (
	"context"
	"errors"
	"strings"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ILocationRepository location database operations.
type ILocationRepository interface {
	// Create returns ErrLocationExists when the external place id is taken.
	Create(ctx context.Context, location *models.Location) error
	FindByID(ctx context.Context, id uint) (*models.Location, error)
	FindByExternalPlaceID(ctx context.Context, placeID string) (*models.Location, error)
	// Search matches query case-insensitively as a substring of the
	// name or address, oldest rows first, at most limit rows.
	Search(ctx context.Context, query string, limit int) ([]models.Location, error)
}

// LocationRepository implements ILocationRepository.
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) ILocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	if location == nil {
		return errors.New("location to create must not be nil")
	}
	if err := r.getDB(ctx).Create(location).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrLocationExists
		}
		configslog.Log.Error("LocationRepository.Create: DB error", zap.String("name", location.Name), zap.Error(err))
		return err
	}
	return nil
}

func (r *LocationRepository) FindByID(ctx context.Context, id uint) (*models.Location, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var location models.Location
	if err := r.getDB(ctx).First(&location, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &location, nil
}

func (r *LocationRepository) FindByExternalPlaceID(ctx context.Context, placeID string) (*models.Location, error) {
	if placeID == "" {
		return nil, ErrNotFound
	}
	var location models.Location
	err := r.getDB(ctx).Where("external_place_id = ?", placeID).Order("id asc").First(&location).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &location, nil
}

func (r *LocationRepository) Search(ctx context.Context, query string, limit int) ([]models.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	var locations []models.Location
	db := r.getDB(ctx).Where("name ILIKE ? OR address ILIKE ?", pattern, pattern).Order("id asc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&locations).Error; err != nil {
		configslog.Log.Error("LocationRepository.Search: DB error", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return locations, nil
}

var _ ILocationRepository = (*LocationRepository)(nil)
