// Package events defines roster event payloads and publishers.
package events

import "time"

// ParticipantSignedUp is emitted when a student joins an activity roster.
type ParticipantSignedUp struct {
	EventID        string    `json:"event_id"`
	Activity       string    `json:"activity"`
	Email          string    `json:"email"`
	SpotsRemaining int       `json:"spots_remaining"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ParticipantRemoved is emitted when a student leaves an activity roster.
type ParticipantRemoved struct {
	EventID        string    `json:"event_id"`
	Activity       string    `json:"activity"`
	Email          string    `json:"email"`
	SpotsRemaining int       `json:"spots_remaining"`
	OccurredAt     time.Time `json:"occurred_at"`
}
