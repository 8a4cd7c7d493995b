package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/events"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashed, password string) error
}

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// publish emits an event; failures are logged and never fail the caller.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, eventType events.EventType, userID string, payload interface{}) {
	if dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
