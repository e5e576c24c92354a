package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	attendee := env.user(t, "attendee@example.com")
	m := env.published(t, instructor, env.content(t, "A", "Data"), 10)

	isAttendee, err := env.bookings.IsAttendee(ctx, attendee.ID, m.ID)
	require.NoError(t, err)
	assert.False(t, isAttendee)

	require.NoError(t, env.bookings.Book(ctx, attendee, m.ID))
	assert.ErrorIs(t, env.bookings.Book(ctx, attendee, m.ID), ErrAlreadyBooked)
	assert.Equal(t, 1, env.store.AttendeeCount(attendee.ID, m.ID))

	isAttendee, err = env.bookings.IsAttendee(ctx, attendee.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, isAttendee)

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, m.ID, env.publisher.events[0].MasterclassID)
	assert.Equal(t, "attendee@example.com", env.publisher.events[0].AttendeeEmail)
	assert.Equal(t, "A", env.publisher.events[0].MasterclassName)
}

func TestConcurrentBookingsCreateOneLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	attendee := env.user(t, "attendee@example.com")
	m := env.published(t, instructor, env.content(t, "A", "Data"), 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := env.bookings.Book(ctx, attendee, m.ID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, env.store.AttendeeCount(attendee.ID, m.ID))
}

func TestBookRejectsDraftsAndUnknownMasterclasses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	draft, err := env.masterclasses.CreateDraft(ctx, instructor.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.bookings.Book(ctx, instructor, draft.ID), ErrMasterclassNotBookable)
	assert.ErrorIs(t, env.bookings.Book(ctx, instructor, 999), ErrMasterclassNotFound)
}

func TestBookAllowsOverbooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	m := env.published(t, instructor, env.content(t, "A", "Data"), 1)

	require.NoError(t, env.bookings.Book(ctx, env.user(t, "a@example.com"), m.ID))
	require.NoError(t, env.bookings.Book(ctx, env.user(t, "b@example.com"), m.ID))

	got, err := env.masterclasses.GetMasterclass(ctx, m.ID)
	require.NoError(t, err)
	remaining, ok := got.RemainingSpaces()
	assert.True(t, ok)
	assert.Equal(t, -1, remaining)
}

func TestBookSucceedsWhenPublishFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.user(t, "instructor@example.com")
	m := env.published(t, instructor, env.content(t, "A", "Data"), 5)
	env.publisher.err = errors.New("broker down")

	assert.NoError(t, env.bookings.Book(ctx, env.user(t, "a@example.com"), m.ID))
}

func TestBookWithoutPublisher(t *testing.T) {
	env := newTestEnv(t)
	bookings := NewBookingService(env.store.Masterclasses(), env.store.Attendees(), nil)
	instructor := env.user(t, "instructor@example.com")
	m := env.published(t, instructor, env.content(t, "A", "Data"), 5)

	assert.NoError(t, bookings.Book(context.Background(), env.user(t, "a@example.com"), m.ID))
}
