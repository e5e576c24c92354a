// Package repotest provides in-memory repositories for tests that need the
// service layer or the HTTP stack without a postgres instance.
package repotest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"masterclass.link/models"
	"masterclass.link/repositories"
)

// Store holds every table in memory. Its repositories share one mutex so
// CreateIfAbsent behaves like the locked transaction in postgres.
type Store struct {
	mu sync.Mutex

	nextID    uint
	users     map[uint]models.User
	contents  map[uint]models.MasterclassContent
	locations map[uint]models.Location
	classes   map[uint]models.Masterclass
	attendees map[uint]models.MasterclassAttendee
}

func NewStore() *Store {
	return &Store{
		users:     map[uint]models.User{},
		contents:  map[uint]models.MasterclassContent{},
		locations: map[uint]models.Location{},
		classes:   map[uint]models.Masterclass{},
		attendees: map[uint]models.MasterclassAttendee{},
	}
}

func (s *Store) Users() repositories.IUserRepository { return &userRepo{s} }
func (s *Store) Contents() repositories.IMasterclassContentRepository {
	return &contentRepo{s}
}
func (s *Store) Locations() repositories.ILocationRepository { return &locationRepo{s} }
func (s *Store) Masterclasses() repositories.IMasterclassRepository {
	return &masterclassRepo{s}
}
func (s *Store) Attendees() repositories.IMasterclassAttendeeRepository {
	return &attendeeRepo{s}
}

// assign gives base a fresh id unless the caller picked one.
func (s *Store) assign(base *models.BaseModel) {
	if base.ID == 0 {
		s.nextID++
		base.ID = s.nextID
	} else if base.ID > s.nextID {
		s.nextID = base.ID
	}
	now := time.Now().UTC()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// AttendeeCount is a test helper returning the number of links for a pair.
func (s *Store) AttendeeCount(attendeeID, masterclassID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.attendees {
		if a.AttendeeID == attendeeID && a.MasterclassID == masterclassID {
			n++
		}
	}
	return n
}

// LocationCount is a test helper returning the number of stored locations.
func (s *Store) LocationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locations)
}

// hydrate fills the associations FindByID preloads in postgres.
func (s *Store) hydrate(m models.Masterclass, withAttendees bool) models.Masterclass {
	if m.MasterclassContentID != nil {
		if c, ok := s.contents[*m.MasterclassContentID]; ok {
			m.MasterclassContent = &c
		}
	}
	if m.LocationID != nil {
		if l, ok := s.locations[*m.LocationID]; ok {
			m.Location = &l
		}
	}
	if m.InstructorID != nil {
		if u, ok := s.users[*m.InstructorID]; ok {
			m.Instructor = &u
		}
	}
	m.Attendees = nil
	if withAttendees {
		for _, id := range sortedKeys(s.attendees) {
			if a := s.attendees[id]; a.MasterclassID == m.ID {
				m.Attendees = append(m.Attendees, a)
			}
		}
	}
	return m
}

func sortedKeys[T any](m map[uint]T) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	if user == nil {
		return errors.New("user to create must not be nil")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.Email = models.NormalizeEmail(user.Email)
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailExists
		}
	}
	r.s.assign(&user.BaseModel)
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.assign(&user.BaseModel)
	stored := *user
	stored.MasterclassesRun, stored.Bookings = nil, nil
	r.s.users[user.ID] = stored
	return nil
}

type contentRepo struct{ s *Store }

func (r *contentRepo) Create(_ context.Context, content *models.MasterclassContent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assign(&content.BaseModel)
	r.s.contents[content.ID] = *content
	return nil
}

func (r *contentRepo) FindByID(_ context.Context, id uint) (*models.MasterclassContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contents[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (r *contentRepo) FindByCategory(_ context.Context, category string) ([]models.MasterclassContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.MasterclassContent
	for _, id := range sortedKeys(r.s.contents) {
		if c := r.s.contents[id]; c.Category == category {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *contentRepo) FindRunByInstructor(_ context.Context, instructorID uint) ([]models.MasterclassContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[uint]bool{}
	var out []models.MasterclassContent
	for _, id := range sortedKeys(r.s.classes) {
		m := r.s.classes[id]
		if m.InstructorID == nil || *m.InstructorID != instructorID || m.MasterclassContentID == nil {
			continue
		}
		cid := *m.MasterclassContentID
		if seen[cid] {
			continue
		}
		if c, ok := r.s.contents[cid]; ok {
			seen[cid] = true
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type locationRepo struct{ s *Store }

func (r *locationRepo) Create(_ context.Context, location *models.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if location.ExternalPlaceID != nil {
		for _, l := range r.s.locations {
			if l.ExternalPlaceID != nil && *l.ExternalPlaceID == *location.ExternalPlaceID {
				return repositories.ErrLocationExists
			}
		}
	}
	r.s.assign(&location.BaseModel)
	r.s.locations[location.ID] = *location
	return nil
}

func (r *locationRepo) FindByID(_ context.Context, id uint) (*models.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &l, nil
}

func (r *locationRepo) FindByExternalPlaceID(_ context.Context, placeID string) (*models.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range sortedKeys(r.s.locations) {
		l := r.s.locations[id]
		if l.ExternalPlaceID != nil && *l.ExternalPlaceID == placeID {
			return &l, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *locationRepo) Search(_ context.Context, query string, limit int) ([]models.Location, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Location
	for _, id := range sortedKeys(r.s.locations) {
		l := r.s.locations[id]
		if strings.Contains(strings.ToLower(l.Name), query) || strings.Contains(strings.ToLower(l.Address), query) {
			out = append(out, l)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type masterclassRepo struct{ s *Store }

func (r *masterclassRepo) Create(_ context.Context, m *models.Masterclass) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assign(&m.BaseModel)
	stored := *m
	stored.MasterclassContent, stored.Location, stored.Instructor, stored.Attendees = nil, nil, nil, nil
	r.s.classes[m.ID] = stored
	return nil
}

func (r *masterclassRepo) FindByID(_ context.Context, id uint) (*models.Masterclass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.classes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	m = r.s.hydrate(m, true)
	return &m, nil
}

func (r *masterclassRepo) FindPublished(_ context.Context) ([]models.Masterclass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Masterclass
	for _, id := range sortedKeys(r.s.classes) {
		if m := r.s.classes[id]; !m.Draft {
			out = append(out, r.s.hydrate(m, true))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Timestamp, out[j].Timestamp
		if a == nil || b == nil {
			return a != nil
		}
		return a.Before(*b)
	})
	return out, nil
}

func (r *masterclassRepo) FindDraftsByInstructor(_ context.Context, instructorID uint) ([]models.Masterclass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Masterclass
	for _, id := range sortedKeys(r.s.classes) {
		m := r.s.classes[id]
		if m.Draft && m.InstructorID != nil && *m.InstructorID == instructorID {
			out = append([]models.Masterclass{r.s.hydrate(m, false)}, out...)
		}
	}
	return out, nil
}

func (r *masterclassRepo) FindBookedByUser(_ context.Context, userID uint) ([]models.Masterclass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	booked := map[uint]bool{}
	for _, a := range r.s.attendees {
		if a.AttendeeID == userID {
			booked[a.MasterclassID] = true
		}
	}
	var out []models.Masterclass
	for _, id := range sortedKeys(r.s.classes) {
		if booked[id] {
			out = append(out, r.s.hydrate(r.s.classes[id], false))
		}
	}
	return out, nil
}

func (r *masterclassRepo) Update(_ context.Context, m *models.Masterclass) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.classes[m.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.assign(&m.BaseModel)
	stored := *m
	stored.MasterclassContent, stored.Location, stored.Instructor, stored.Attendees = nil, nil, nil, nil
	r.s.classes[m.ID] = stored
	return nil
}

func (r *masterclassRepo) CreateContentAndAttach(_ context.Context, masterclassID uint, content *models.MasterclassContent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.classes[masterclassID]
	if !ok {
		return repositories.ErrNotFound
	}
	r.s.assign(&content.BaseModel)
	r.s.contents[content.ID] = *content
	id := content.ID
	m.MasterclassContentID = &id
	r.s.classes[masterclassID] = m
	return nil
}

type attendeeRepo struct{ s *Store }

func (r *attendeeRepo) Exists(_ context.Context, attendeeID, masterclassID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.attendees {
		if a.AttendeeID == attendeeID && a.MasterclassID == masterclassID {
			return true, nil
		}
	}
	return false, nil
}

func (r *attendeeRepo) CreateIfAbsent(_ context.Context, attendee *models.MasterclassAttendee) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.classes[attendee.MasterclassID]; !ok {
		return false, repositories.ErrNotFound
	}
	for _, a := range r.s.attendees {
		if a.AttendeeID == attendee.AttendeeID && a.MasterclassID == attendee.MasterclassID {
			return false, nil
		}
	}
	r.s.assign(&attendee.BaseModel)
	r.s.attendees[attendee.ID] = *attendee
	return true, nil
}

func (r *attendeeRepo) CountByMasterclass(_ context.Context, masterclassID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.attendees {
		if a.MasterclassID == masterclassID {
			n++
		}
	}
	return n, nil
}
