package events

import (
	"time"

	"github.com/spec-kit/timetracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventRecordStarted  EventType = "record_started"
	EventRecordEnded    EventType = "record_ended"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
}

// RecordStartedPayload payload.
type RecordStartedPayload struct {
	RecordID string            `json:"record_id"`
	Type     domain.RecordType `json:"type"`
	Start    time.Time         `json:"start"`
}

// RecordEndedPayload payload.
type RecordEndedPayload struct {
	RecordID string            `json:"record_id"`
	Type     domain.RecordType `json:"type"`
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
}
