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

// IMasterclassAttendeeRepository attendance link database operations.
type IMasterclassAttendeeRepository interface {
	Exists(ctx context.Context, attendeeID, masterclassID uint) (bool, error)
	// CreateIfAbsent locks the masterclass row, re-checks the pair and
	// inserts only when no link exists. created is false for a duplicate.
	CreateIfAbsent(ctx context.Context, attendee *models.MasterclassAttendee) (created bool, err error)
	CountByMasterclass(ctx context.Context, masterclassID uint) (int64, error)
}

// MasterclassAttendeeRepository implements IMasterclassAttendeeRepository.
type MasterclassAttendeeRepository struct {
	db *gorm.DB
}

func NewMasterclassAttendeeRepository(db *gorm.DB) IMasterclassAttendeeRepository {
	return &MasterclassAttendeeRepository{db: db}
}

func (r *MasterclassAttendeeRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

func (r *MasterclassAttendeeRepository) Exists(ctx context.Context, attendeeID, masterclassID uint) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&models.MasterclassAttendee{}).
		Where("attendee_id = ? AND masterclass_id = ?", attendeeID, masterclassID).
		Count(&count).Error
	if err != nil {
		configslog.Log.Error("MasterclassAttendeeRepository.Exists: DB error",
			zap.Uint("attendeeID", attendeeID), zap.Uint("masterclassID", masterclassID), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

func (r *MasterclassAttendeeRepository) CreateIfAbsent(ctx context.Context, attendee *models.MasterclassAttendee) (bool, error) {
	if attendee == nil || attendee.AttendeeID == 0 || attendee.MasterclassID == 0 {
		return false, errors.New("attendance link is missing attendee or masterclass")
	}
	created := false
	err := r.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		var masterclass models.Masterclass
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&masterclass, attendee.MasterclassID).Error
		if err != nil {
			return translateNotFound(err)
		}

		var count int64
		err = tx.Model(&models.MasterclassAttendee{}).
			Where("attendee_id = ? AND masterclass_id = ?", attendee.AttendeeID, attendee.MasterclassID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := tx.Omit(clause.Associations).Create(attendee).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *MasterclassAttendeeRepository) CountByMasterclass(ctx context.Context, masterclassID uint) (int64, error) {
	var count int64
	err := r.getDB(ctx).Model(&models.MasterclassAttendee{}).Where("masterclass_id = ?", masterclassID).Count(&count).Error
	return count, err
}

var _ IMasterclassAttendeeRepository = (*MasterclassAttendeeRepository)(nil)
