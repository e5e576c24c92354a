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

// IUserRepository user database operations.
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// UserRepository implements IUserRepository.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) IUserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) getDB(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// Create inserts a user, the email is normalized first.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("user to create must not be nil")
	}
	user.Email = models.NormalizeEmail(user.Email)
	if err := r.getDB(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserEmailExists
		}
		configslog.Log.Error("UserRepository.Create: DB error", zap.String("email", user.Email), zap.Error(err))
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var user models.User
	if err := r.getDB(ctx).First(&user, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrNotFound
	}
	var user models.User
	if err := r.getDB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// Update saves the user's own columns, associations are left alone.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == 0 {
		return errors.New("user to update is not valid")
	}
	result := r.getDB(ctx).Omit(clause.Associations).Save(user)
	if result.Error != nil {
		configslog.Log.Error("UserRepository.Update: DB error", zap.Uint("id", user.ID), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

var _ IUserRepository = (*UserRepository)(nil)
