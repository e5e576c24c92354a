package services

import (
	"context"
	"sync"
	"testing"

	"masterclass.link/models"
	"masterclass.link/pkg/queue"
	"masterclass.link/repositories/repotest"

	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	mu      sync.Mutex
	places  []Place
	err     error
	queries []string
}

func (f *fakeLookup) SearchPlaces(_ context.Context, query string) ([]Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.places, f.err
}

func (f *fakeLookup) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
	err    error
}

func (f *fakePublisher) PublishBookingConfirmed(_ context.Context, event queue.BookingConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

type testEnv struct {
	store         *repotest.Store
	lookup        *fakeLookup
	publisher     *fakePublisher
	masterclasses IMasterclassService
	resolver      ILocationResolver
	bookings      IBookingService
	wizard        IWizardService
	auth          IAuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repotest.NewStore()
	lookup := &fakeLookup{}
	publisher := &fakePublisher{}
	masterclasses := NewMasterclassService(store.Masterclasses(), store.Contents(), store.Locations())
	resolver := NewLocationResolver(store.Locations(), lookup)
	return &testEnv{
		store:         store,
		lookup:        lookup,
		publisher:     publisher,
		masterclasses: masterclasses,
		resolver:      resolver,
		bookings:      NewBookingService(store.Masterclasses(), store.Attendees(), publisher),
		wizard:        NewWizardService(masterclasses, resolver),
		auth:          NewAuthService(store.Users(), 4),
	}
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: "Test", LastName: "User"}
	require.NoError(t, u.SetPassword("password123", 4))
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) content(t *testing.T, name, category string) *models.MasterclassContent {
	t.Helper()
	c := &models.MasterclassContent{Name: name, Description: name + " description", Category: category}
	require.NoError(t, e.store.Contents().Create(context.Background(), c))
	return c
}

func (e *testEnv) location(t *testing.T, name, address string) *models.Location {
	t.Helper()
	l := &models.Location{Name: name, Address: address}
	require.NoError(t, e.store.Locations().Create(context.Background(), l))
	return l
}

// published creates a published masterclass run by instructor.
func (e *testEnv) published(t *testing.T, instructor *models.User, content *models.MasterclassContent, maxAttendees int) *models.Masterclass {
	t.Helper()
	m := &models.Masterclass{
		InstructorID:         &instructor.ID,
		MasterclassContentID: &content.ID,
		MaxAttendees:         &maxAttendees,
	}
	m.SetRemoteDetails(models.RemoteDetails{URL: "https://meet.example.com/x"})
	require.NoError(t, e.store.Masterclasses().Create(context.Background(), m))
	return m
}
