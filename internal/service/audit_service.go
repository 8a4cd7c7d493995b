package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/events"
)

// AuditService writes lifecycle events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: nopIfNil(logger)}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handle)
	a.dispatcher.Subscribe(events.EventRecordStarted, a.handle)
	a.dispatcher.Subscribe(events.EventRecordEnded, a.handle)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	a.logger.Info("audit",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload))
	return nil
}
