package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"
	"masterclass.link/repositories"

	"go.uber.org/zap"
)

// MasterclassServiceError masterclass errors.
type MasterclassServiceError string

func (e MasterclassServiceError) Error() string { return string(e) }

const (
	ErrMasterclassNotFound     MasterclassServiceError = "masterclass not found"
	ErrContentNotFound         MasterclassServiceError = "masterclass content not found"
	ErrLocationNotFound        MasterclassServiceError = "location not found"
	ErrMasterclassNotDraft     MasterclassServiceError = "masterclass is already published"
	ErrMasterclassIncomplete   MasterclassServiceError = "masterclass is not ready to publish"
	ErrInvalidCategory         MasterclassServiceError = "unknown content category"
	ErrInvalidCapacity         MasterclassServiceError = "maximum attendees must be at least 1"
	ErrTimestampRequired       MasterclassServiceError = "date and time are required"
	ErrLocationDetailsRequired MasterclassServiceError = "location details are required"
	ErrMasterclassUpdateFailed MasterclassServiceError = "masterclass could not be saved"
)

// IncompleteError lists the tasks that block publishing.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrMasterclassIncomplete, strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Unwrap() error { return ErrMasterclassIncomplete }

// IMasterclassService domain queries and commands for masterclasses.
type IMasterclassService interface {
	ListPublished(ctx context.Context) ([]models.Masterclass, error)
	GetMasterclass(ctx context.Context, id uint) (*models.Masterclass, error)
	GetBookedMasterclasses(ctx context.Context, userID uint) ([]models.Masterclass, error)
	GetMasterclassContentRunBefore(ctx context.Context, userID uint) ([]models.MasterclassContent, error)
	ListDrafts(ctx context.Context, instructorID uint) ([]models.Masterclass, error)
	ListContentByCategory(ctx context.Context, category string) ([]models.MasterclassContent, error)

	CreateDraft(ctx context.Context, instructorID uint) (*models.Masterclass, error)
	AttachExistingContent(ctx context.Context, masterclassID, contentID uint) error
	CreateNewContentAndAttach(ctx context.Context, masterclassID uint, name, description, category string) (*models.MasterclassContent, error)
	SetSchedule(ctx context.Context, masterclassID uint, at time.Time, maxAttendees int) error
	SetLocationDetails(ctx context.Context, masterclassID uint, details models.LocationDetails) error
	AttachLocation(ctx context.Context, masterclassID, locationID uint) error
	Publish(ctx context.Context, masterclassID uint) error
}

// MasterclassService implements IMasterclassService.
type MasterclassService struct {
	repo         repositories.IMasterclassRepository
	contentRepo  repositories.IMasterclassContentRepository
	locationRepo repositories.ILocationRepository
}

func NewMasterclassService(
	repo repositories.IMasterclassRepository,
	contentRepo repositories.IMasterclassContentRepository,
	locationRepo repositories.ILocationRepository,
) IMasterclassService {
	return &MasterclassService{repo: repo, contentRepo: contentRepo, locationRepo: locationRepo}
}

func (s *MasterclassService) ListPublished(ctx context.Context) ([]models.Masterclass, error) {
	return s.repo.FindPublished(ctx)
}

func (s *MasterclassService) GetMasterclass(ctx context.Context, id uint) (*models.Masterclass, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMasterclassNotFound
		}
		return nil, err
	}
	return m, nil
}

// GetBookedMasterclasses returns the masterclasses userID has an
// attendance link for, in no particular order.
func (s *MasterclassService) GetBookedMasterclasses(ctx context.Context, userID uint) ([]models.Masterclass, error) {
	booked, err := s.repo.FindBookedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if booked == nil {
		booked = []models.Masterclass{}
	}
	return booked, nil
}

// GetMasterclassContentRunBefore returns the distinct contents of every
// masterclass userID has instructed.
func (s *MasterclassService) GetMasterclassContentRunBefore(ctx context.Context, userID uint) ([]models.MasterclassContent, error) {
	return s.contentRepo.FindRunByInstructor(ctx, userID)
}

func (s *MasterclassService) ListDrafts(ctx context.Context, instructorID uint) ([]models.Masterclass, error) {
	return s.repo.FindDraftsByInstructor(ctx, instructorID)
}

func (s *MasterclassService) ListContentByCategory(ctx context.Context, category string) ([]models.MasterclassContent, error) {
	if !models.IsContentCategory(category) {
		return nil, ErrInvalidCategory
	}
	return s.contentRepo.FindByCategory(ctx, category)
}

// CreateDraft inserts an empty draft owned by instructorID.
func (s *MasterclassService) CreateDraft(ctx context.Context, instructorID uint) (*models.Masterclass, error) {
	m := &models.Masterclass{InstructorID: &instructorID, Draft: true}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMasterclassUpdateFailed, err)
	}
	configslog.Log.Info("Draft masterclass created", zap.Uint("masterclass_id", m.ID), zap.Uint("instructor_id", instructorID))
	return m, nil
}

func (s *MasterclassService) AttachExistingContent(ctx context.Context, masterclassID, contentID uint) error {
	if _, err := s.contentRepo.FindByID(ctx, contentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrContentNotFound
		}
		return err
	}
	return s.update(ctx, masterclassID, func(m *models.Masterclass) error {
		m.MasterclassContentID = &contentID
		return nil
	})
}

// CreateNewContentAndAttach creates the content and attaches it in one
// transaction.
func (s *MasterclassService) CreateNewContentAndAttach(ctx context.Context, masterclassID uint, name, description, category string) (*models.MasterclassContent, error) {
	if !models.IsContentCategory(category) {
		return nil, ErrInvalidCategory
	}
	content := &models.MasterclassContent{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Category:    category,
	}
	if err := s.repo.CreateContentAndAttach(ctx, masterclassID, content); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMasterclassNotFound
		}
		configslog.Log.Error("Creating content failed", zap.Uint("masterclass_id", masterclassID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMasterclassUpdateFailed, err)
	}
	return content, nil
}

func (s *MasterclassService) SetSchedule(ctx context.Context, masterclassID uint, at time.Time, maxAttendees int) error {
	if at.IsZero() {
		return ErrTimestampRequired
	}
	if maxAttendees < 1 {
		return ErrInvalidCapacity
	}
	return s.update(ctx, masterclassID, func(m *models.Masterclass) error {
		utc := at.UTC()
		m.Timestamp = &utc
		m.MaxAttendees = &maxAttendees
		return nil
	})
}

// SetLocationDetails writes the variant's fields and commits immediately.
func (s *MasterclassService) SetLocationDetails(ctx context.Context, masterclassID uint, details models.LocationDetails) error {
	if details == nil {
		return ErrLocationDetailsRequired
	}
	return s.update(ctx, masterclassID, func(m *models.Masterclass) error {
		m.ApplyLocationDetails(details)
		return nil
	})
}

func (s *MasterclassService) AttachLocation(ctx context.Context, masterclassID, locationID uint) error {
	if _, err := s.locationRepo.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrLocationNotFound
		}
		return err
	}
	return s.update(ctx, masterclassID, func(m *models.Masterclass) error {
		m.LocationID = &locationID
		return nil
	})
}

// Publish makes a complete draft visible to attendees.
func (s *MasterclassService) Publish(ctx context.Context, masterclassID uint) error {
	return s.update(ctx, masterclassID, func(m *models.Masterclass) error {
		if !m.Draft {
			return ErrMasterclassNotDraft
		}
		if missing := m.MissingTasks(); len(missing) > 0 {
			return &IncompleteError{Missing: missing}
		}
		m.Draft = false
		configslog.Log.Info("Masterclass published", zap.Uint("masterclass_id", m.ID))
		return nil
	})
}

// update loads the masterclass, applies fn and saves the columns.
func (s *MasterclassService) update(ctx context.Context, masterclassID uint, fn func(m *models.Masterclass) error) error {
	m, err := s.GetMasterclass(ctx, masterclassID)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		configslog.Log.Error("Masterclass update failed", zap.Uint("masterclass_id", masterclassID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMasterclassUpdateFailed, err)
	}
	return nil
}

var _ IMasterclassService = (*MasterclassService)(nil)
