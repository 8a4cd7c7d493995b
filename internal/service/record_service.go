package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/domain"
	"github.com/spec-kit/timetracker/internal/events"
	"github.com/spec-kit/timetracker/internal/repository"
	apperrors "github.com/spec-kit/timetracker/pkg/util"
)

// RecordService manages the open/closed lifecycle of activity records.
type RecordService struct {
	records repository.RecordRepository
	events  events.Dispatcher
	logger  *zap.Logger
}

// RecordDependencies encapsulates requirements for the record service.
type RecordDependencies struct {
	Records repository.RecordRepository
	Events  events.Dispatcher
	Logger  *zap.Logger
}

// NewRecordService builds the service.
func NewRecordService(deps RecordDependencies) *RecordService {
	return &RecordService{
		records: deps.Records,
		events:  deps.Events,
		logger:  nopIfNil(deps.Logger),
	}
}

// Start opens a new record for userID. A user may hold only one open record.
func (s *RecordService) Start(ctx context.Context, userID string, start time.Time, recordType domain.RecordType) (*domain.Record, error) {
	if !recordType.Valid() {
		return nil, apperrors.NewValidationError("unknown record type", map[string]any{"type": string(recordType)})
	}

	open, err := s.records.CountOpen(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if open > 0 {
		return nil, apperrors.NewAlreadyOpen()
	}

	record := &domain.Record{
		UserID: userID,
		Type:   recordType,
		Start:  start.UTC(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		// A concurrent start won between the count and the insert.
		if errors.Is(err, repository.ErrOpenRecordExists) {
			return nil, apperrors.NewAlreadyOpen()
		}
		return nil, apperrors.NewInternalError(err)
	}

	publish(ctx, s.events, s.logger, events.EventRecordStarted, userID, events.RecordStartedPayload{
		RecordID: record.ID,
		Type:     record.Type,
		Start:    record.Start,
	})
	return record, nil
}

// End closes the caller's open record recordID.
func (s *RecordService) End(ctx context.Context, userID, recordID string, end time.Time) (*domain.Record, error) {
	if _, err := uuid.Parse(recordID); err != nil {
		return nil, apperrors.NewNoOpenRecord()
	}

	record, err := s.records.CloseOpen(ctx, recordID, userID, end.UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNoOpenRecord()
		}
		return nil, apperrors.NewInternalError(err)
	}

	payload := events.RecordEndedPayload{RecordID: record.ID, Type: record.Type, Start: record.Start}
	if record.End != nil {
		payload.End = *record.End
	}
	publish(ctx, s.events, s.logger, events.EventRecordEnded, userID, payload)
	return record, nil
}

// List returns all records owned by userID.
func (s *RecordService) List(ctx context.Context, userID string) ([]domain.Record, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return records, nil
}

// Active returns the open record of userID, or nil when there is none.
func (s *RecordService) Active(ctx context.Context, userID string) (*domain.Record, error) {
	record, err := s.records.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError(err)
	}
	return record, nil
}
