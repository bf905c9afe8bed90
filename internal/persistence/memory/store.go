// Package memory provides the in-process roster store used by default.
package memory

import (
	"context"
	"sync"
	"time"

	"example.com/extracurricular/internal/domain"
	"example.com/extracurricular/internal/observability"
)

// Store keeps activities in memory, guarded by a single lock so roster
// mutations are serialized.
type Store struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
	catalog    []domain.Activity
}

// NewStore constructs a Store seeded from the catalog.
func NewStore(catalog []domain.Activity) *Store {
	s := &Store{catalog: catalog}
	s.seed()
	return s
}

func (s *Store) seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = make(map[string]domain.Activity, len(s.catalog))
	for _, activity := range s.catalog {
		s.activities[activity.Name] = activity.Clone()
	}
}

// List implements domain.Store. The returned map and rosters are copies.
func (s *Store) List(ctx context.Context) (map[string]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Activity, len(s.activities))
	for name, activity := range s.activities {
		out[name] = activity.Clone()
	}
	return out, nil
}

// Get returns a copy of the named activity, or ErrActivityNotFound.
func (s *Store) Get(ctx context.Context, name string) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[name]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	clone := activity.Clone()
	return &clone, nil
}

// Signup appends the email to the roster if the activity exists, the email is
// not already registered, and a spot remains.
func (s *Store) Signup(ctx context.Context, name, email string) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[name]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	if activity.IsRegistered(email) {
		return nil, domain.ErrAlreadyRegistered
	}
	if len(activity.Participants) >= activity.MaxParticipants {
		return nil, domain.ErrActivityFull
	}

	activity.Participants = append(activity.Participants, email)
	s.activities[name] = activity

	observability.RecordRosterMutation(time.Now().UTC())

	clone := activity.Clone()
	return &clone, nil
}

// Remove deletes the email from the roster, preserving the order of the
// remaining participants.
func (s *Store) Remove(ctx context.Context, name, email string) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[name]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}

	index := -1
	for i, participant := range activity.Participants {
		if participant == email {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, domain.ErrParticipantNotFound
	}

	activity.Participants = append(activity.Participants[:index:index], activity.Participants[index+1:]...)
	s.activities[name] = activity

	observability.RecordRosterMutation(time.Now().UTC())

	clone := activity.Clone()
	return &clone, nil
}

// Reset restores the seeded catalog. Used between test cases.
func (s *Store) Reset(ctx context.Context) error {
	s.seed()
	return nil
}
