package services

import (
	"context"
	"errors"
	"time"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"
	"masterclass.link/pkg/queue"
	"masterclass.link/repositories"

	"go.uber.org/zap"
)

// BookingServiceError booking errors.
type BookingServiceError string

func (e BookingServiceError) Error() string { return string(e) }

const (
	ErrAlreadyBooked          BookingServiceError = "you are already signed up to this masterclass"
	ErrMasterclassNotBookable BookingServiceError = "this masterclass is not open for sign up"
	ErrBookingFailed          BookingServiceError = "sign up failed, please try again"
)

// BookingEventPublisher receives an event after each new booking.
type BookingEventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// IBookingService attendee sign up.
type IBookingService interface {
	IsAttendee(ctx context.Context, userID, masterclassID uint) (bool, error)
	Book(ctx context.Context, user *models.User, masterclassID uint) error
}

// BookingService implements IBookingService. publisher may be nil.
type BookingService struct {
	masterclassRepo repositories.IMasterclassRepository
	attendeeRepo    repositories.IMasterclassAttendeeRepository
	publisher       BookingEventPublisher
	publishTimeout  time.Duration
}

func NewBookingService(
	masterclassRepo repositories.IMasterclassRepository,
	attendeeRepo repositories.IMasterclassAttendeeRepository,
	publisher BookingEventPublisher,
) IBookingService {
	return &BookingService{
		masterclassRepo: masterclassRepo,
		attendeeRepo:    attendeeRepo,
		publisher:       publisher,
		publishTimeout:  5 * time.Second,
	}
}

func (s *BookingService) IsAttendee(ctx context.Context, userID, masterclassID uint) (bool, error) {
	return s.attendeeRepo.Exists(ctx, userID, masterclassID)
}

// Book links user to the masterclass. The link is re-checked under a row
// lock, a second booking for the same pair returns ErrAlreadyBooked.
// Capacity is not enforced.
func (s *BookingService) Book(ctx context.Context, user *models.User, masterclassID uint) error {
	masterclass, err := s.masterclassRepo.FindByID(ctx, masterclassID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMasterclassNotFound
		}
		return err
	}
	if masterclass.Draft {
		return ErrMasterclassNotBookable
	}

	created, err := s.attendeeRepo.CreateIfAbsent(ctx, &models.MasterclassAttendee{
		AttendeeID:    user.ID,
		MasterclassID: masterclassID,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMasterclassNotFound
		}
		configslog.Log.Error("Booking insert failed", zap.Uint("user_id", user.ID), zap.Uint("masterclass_id", masterclassID), zap.Error(err))
		return ErrBookingFailed
	}
	if !created {
		return ErrAlreadyBooked
	}
	if remaining, ok := masterclass.RemainingSpaces(); ok && remaining <= 0 {
		configslog.Log.Warn("Masterclass overbooked", zap.Uint("masterclass_id", masterclassID), zap.Int("remaining_before", remaining))
	}

	s.publishConfirmed(ctx, user, masterclass)
	return nil
}

func (s *BookingService) publishConfirmed(ctx context.Context, user *models.User, masterclass *models.Masterclass) {
	if s.publisher == nil {
		return
	}
	event := queue.BookingConfirmedEvent{
		MasterclassID: masterclass.ID,
		AttendeeID:    user.ID,
		AttendeeEmail: user.Email,
		StartsAt:      masterclass.Timestamp,
		BookedAt:      time.Now().UTC(),
	}
	if masterclass.MasterclassContent != nil {
		event.MasterclassName = masterclass.MasterclassContent.Name
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishBookingConfirmed(ctx, event); err != nil {
		configslog.Log.Warn("Booking event not published", zap.Uint("masterclass_id", masterclass.ID), zap.Error(err))
	}
}

var _ IBookingService = (*BookingService)(nil)
