package workflow

import (
	"sync"
)

// Store keeps one flow family's sessions keyed by user id.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[int64]T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{entries: make(map[int64]T)}
}

// Get returns the zero value and false when the user has no session.
func (s *Store[T]) Get(user int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[user]
	return v, ok
}

func (s *Store[T]) Set(user int64, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[user] = v
}

func (s *Store[T]) Remove(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, user)
}

// Take removes and returns the user's session in one step.
func (s *Store[T]) Take(user int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[user]
	if ok {
		delete(s.entries, user)
	}
	return v, ok
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Locks hands out one mutex per user. Entries are dropped when nobody holds
// or waits on them.
type Locks struct {
	mu    sync.Mutex
	users map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{users: make(map[int64]*userLock)}
}

func (l *Locks) Lock(user int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.users[user]
	if !ok {
		ul = &userLock{}
		l.users[user] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.users, user)
		}
		l.mu.Unlock()
	}
}
