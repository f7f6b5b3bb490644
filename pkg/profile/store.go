// Package profile is a plain in-memory user profile registry. The broker
// treats it as an opaque store it does not own; profiles here carry no
// roles and grant no access.
package profile

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
)

// Common errors for Store operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile is a registry entry. The ID is assigned by the store.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required,min=1,max=128"`
	Email string `json:"email" validate:"required,email"`
}

// Store is a thread-safe in-memory profile registry with an incrementing
// ID counter. Contents do not survive a restart.
type Store struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
	nextID   atomic.Int64
}

// NewStore creates a Store pre-populated with the given seed profiles.
func NewStore(seed ...Profile) *Store {
	s := &Store{profiles: make(map[int64]Profile)}
	for _, p := range seed {
		s.Create(p.Name, p.Email)
	}
	return s
}

// DefaultSeed returns the profiles a fresh registry starts with.
func DefaultSeed() []Profile {
	return []Profile{
		{Name: "John Doe", Email: "john.doe@example.com"},
		{Name: "Jane Smith", Email: "jane.smith@example.com"},
	}
}

// Create adds a profile and returns it with its assigned ID.
func (s *Store) Create(name, email string) Profile {
	p := Profile{
		ID:    s.nextID.Add(1),
		Name:  name,
		Email: email,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return p
}

// Get returns the profile with the given ID.
func (s *Store) Get(id int64) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

// List returns all profiles ordered by ID.
func (s *Store) List() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetByEmail returns the profile with the given email, if any.
func (s *Store) GetByEmail(email string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.Email == email {
			return p, true
		}
	}
	return Profile{}, false
}

// Update replaces the name and email of an existing profile.
func (s *Store) Update(id int64, name, email string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}

	p.Name = name
	p.Email = email
	s.profiles[id] = p
	return p, nil
}

// Delete removes the profile with the given ID.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrProfileNotFound
	}
	delete(s.profiles, id)
	return nil
}

// Len returns the number of stored profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
