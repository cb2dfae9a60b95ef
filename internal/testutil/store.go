// Package testutil holds in-memory stand-ins for the bot's collaborators.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"TripBot/entity"
)

var ErrSaveFailed = errors.New("save failed")

// Store is an in-memory implementation of the user, trip and note
// repositories. Values are copied in and out like a real database would.
type Store struct {
	mu       sync.Mutex
	users    map[int64]entity.User
	trips    map[int64]entity.Trip
	notes    map[int64]entity.Note
	lastTrip int64
	lastNote int64

	// FailSaves makes every Save* call fail.
	FailSaves bool
}

func NewStore() *Store {
	return &Store{
		users: make(map[int64]entity.User),
		trips: make(map[int64]entity.Trip),
		notes: make(map[int64]entity.Note),
	}
}

func (s *Store) SaveUser(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return ErrSaveFailed
	}
	user.HandleLower = strings.ToLower(user.Handle)
	s.users[user.ID] = *user
	return nil
}

func (s *Store) FindUser(_ context.Context, id int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	u, err := s.FindUser(ctx, id)
	return u != nil, err
}

func (s *Store) FindUserByHandle(_ context.Context, handle string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Handle, strings.TrimSpace(handle)) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) HandleExists(ctx context.Context, handle string) (bool, error) {
	u, err := s.FindUserByHandle(ctx, handle)
	return u != nil, err
}

func cloneTrip(t entity.Trip) entity.Trip {
	t.Visits = slices.Clone(t.Visits)
	for i, v := range t.Visits {
		if v.LeavingDate != nil {
			d := *v.LeavingDate
			t.Visits[i].LeavingDate = &d
		}
	}
	t.Companions = slices.Clone(t.Companions)
	return t
}

func (s *Store) SaveTrip(_ context.Context, trip *entity.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return ErrSaveFailed
	}
	if trip.ID == 0 {
		s.lastTrip++
		trip.ID = s.lastTrip
	}
	s.trips[trip.ID] = cloneTrip(*trip)
	return nil
}

func (s *Store) FindTrip(_ context.Context, id int64) (*entity.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return nil, nil
	}
	t = cloneTrip(t)
	return &t, nil
}

func (s *Store) memberTrips(user int64, archived bool) []entity.Trip {
	var list []entity.Trip
	for _, t := range s.trips {
		if t.Archived == archived && t.IsMember(user) {
			list = append(list, cloneTrip(t))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].LeavingDate, list[j].LeavingDate
		switch {
		case a == nil && b == nil:
			return list[i].ID < list[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case a.Equal(*b):
			return list[i].ID < list[j].ID
		}
		return a.Before(*b)
	})
	return list
}

func (s *Store) FindTripsByMember(_ context.Context, user int64, archived bool, page, size int) ([]entity.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pageOf(s.memberTrips(user, archived), page, size), nil
}

func (s *Store) CountTripsByMember(_ context.Context, user int64, archived bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memberTrips(user, archived)), nil
}

func (s *Store) FindTripByNote(ctx context.Context, note *entity.Note) (*entity.Trip, error) {
	return s.FindTrip(ctx, note.TripID)
}

func (s *Store) SaveNote(_ context.Context, note *entity.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return ErrSaveFailed
	}
	if note.ID == 0 {
		s.lastNote++
		note.ID = s.lastNote
	}
	s.notes[note.ID] = *note
	return nil
}

func (s *Store) FindNote(_ context.Context, id int64) (*entity.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (s *Store) DeleteNote(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
	return nil
}

func (s *Store) visibleNotes(tripID, requester int64) []entity.Note {
	var list []entity.Note
	for _, n := range s.notes {
		if n.TripID == tripID && n.VisibleTo(requester) {
			list = append(list, n)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (s *Store) FindVisibleNotes(_ context.Context, tripID, requester int64, page, size int) ([]entity.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pageOf(s.visibleNotes(tripID, requester), page, size), nil
}

func (s *Store) CountVisibleNotes(_ context.Context, tripID, requester int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visibleNotes(tripID, requester)), nil
}

// Trips returns a copy of every stored trip, by id.
func (s *Store) Trips() []entity.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []entity.Trip
	for _, t := range s.trips {
		list = append(list, cloneTrip(t))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func pageOf[T any](items []T, page, size int) []T {
	start := page * size
	if start < 0 || start >= len(items) {
		return []T{}
	}
	return items[start:min(start+size, len(items))]
}
