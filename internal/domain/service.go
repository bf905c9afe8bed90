// Package domain defines the roster business logic for the activities service.
package domain

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered indicates the email is already on the roster.
	ErrAlreadyRegistered = errors.New("student already signed up for this activity")
	// ErrActivityFull indicates the roster reached max participants.
	ErrActivityFull = errors.New("activity is full")
	// ErrParticipantNotFound indicates the email is not on the roster.
	ErrParticipantNotFound = errors.New("student not signed up for this activity")
	// ErrInvalidEmail indicates the supplied address is not a plausible email.
	ErrInvalidEmail = errors.New("invalid email address")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Store captures roster persistence operations. Signup and Remove are atomic:
// implementations enforce the capacity and uniqueness invariants under
// concurrent callers.
type Store interface {
	List(ctx context.Context) (map[string]Activity, error)
	Get(ctx context.Context, name string) (*Activity, error)
	Signup(ctx context.Context, name, email string) (*Activity, error)
	Remove(ctx context.Context, name, email string) (*Activity, error)
	Reset(ctx context.Context) error
}

// RosterPublisher emits roster change notifications to downstream consumers.
type RosterPublisher interface {
	ParticipantSignedUp(ctx context.Context, activity Activity, email string) error
	ParticipantRemoved(ctx context.Context, activity Activity, email string) error
}

// Service orchestrates roster workflows.
type Service struct {
	store     Store
	publisher RosterPublisher
}

// NewService constructs a Service. A nil publisher disables eventing.
func NewService(store Store, publisher RosterPublisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// ListActivities returns the full catalog keyed by activity name.
func (s *Service) ListActivities(ctx context.Context) (map[string]Activity, error) {
	return s.store.List(ctx)
}

// Signup registers the email for the named activity and returns the updated
// roster. Event publication is best-effort and never fails the signup.
func (s *Service) Signup(ctx context.Context, name, email string) (*Activity, error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	activity, err := s.store.Signup(ctx, name, email)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.ParticipantSignedUp(ctx, *activity, email); err != nil {
			log.Printf("roster event publish failed for signup %q/%q: %v", name, email, err)
		}
	}
	return activity, nil
}

// Remove takes the email off the named activity's roster, preserving the
// relative order of the remaining participants.
func (s *Service) Remove(ctx context.Context, name, email string) (*Activity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	activity, err := s.store.Remove(ctx, name, email)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.ParticipantRemoved(ctx, *activity, email); err != nil {
			log.Printf("roster event publish failed for removal %q/%q: %v", name, email, err)
		}
	}
	return activity, nil
}

// Reset restores the store to its seeded state. Test fixture hook.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Reset(ctx)
}
