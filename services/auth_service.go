package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"
	"masterclass.link/repositories"

	"go.uber.org/zap"
)

// AuthServiceError authentication errors.
type AuthServiceError string

func (e AuthServiceError) Error() string { return string(e) }

const (
	ErrInvalidCredentials       AuthServiceError = "invalid email or password"
	ErrRegistrationIncomplete   AuthServiceError = "registration has not been completed for this account"
	ErrAlreadyRegistered        AuthServiceError = "this account is already registered"
	ErrUnknownAccount           AuthServiceError = "no account exists for this email"
	ErrPasswordTooShort         AuthServiceError = "password must be at least 8 characters"
	ErrPasswordMismatch         AuthServiceError = "passwords do not match"
	ErrAuthGeneric              AuthServiceError = "authentication failed, please try again"
	ErrUserNotFound             AuthServiceError = "user not found"
	ErrRegistrationUpdateFailed AuthServiceError = "registration could not be saved"
)

const minPasswordLength = 8

// IAuthService credential checks and registration.
type IAuthService interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	CompleteRegistration(ctx context.Context, email, password, confirm string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthService implements IAuthService.
type AuthService struct {
	repo       repositories.IUserRepository
	bcryptCost int
}

func NewAuthService(repo repositories.IUserRepository, bcryptCost int) IAuthService {
	return &AuthService{repo: repo, bcryptCost: bcryptCost}
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			configslog.Log.Warn("Login attempt for unknown email", zap.String("email", models.NormalizeEmail(email)))
			return nil, ErrInvalidCredentials
		}
		configslog.Log.Error("Login lookup failed", zap.Error(err))
		return nil, ErrAuthGeneric
	}
	if !user.HasPassword() {
		return nil, ErrRegistrationIncomplete
	}
	if !user.CheckPassword(password) {
		configslog.Log.Warn("Login attempt with wrong password", zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	configslog.SLog.Infof("User %d logged in", user.ID)
	return user, nil
}

// CompleteRegistration sets the password of a provisioned draft user and
// activates the account.
func (s *AuthService) CompleteRegistration(ctx context.Context, email, password, confirm string) (*models.User, error) {
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthGeneric, err)
	}
	if user.HasPassword() {
		return nil, ErrAlreadyRegistered
	}
	if err := user.SetPassword(password, s.bcryptCost); err != nil {
		configslog.Log.Error("Password hashing failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, ErrRegistrationUpdateFailed
	}
	user.Draft = false
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationUpdateFailed, err)
	}
	configslog.SLog.Infof("User %d completed registration", user.ID)
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

var _ IAuthService = (*AuthService)(nil)
