package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/spec-kit/timetracker/internal/domain"
)

// RecordRepository encapsulates activity record persistence.
type RecordRepository interface {
	// Create inserts an open record. ErrOpenRecordExists is returned when the
	// owner already has one.
	Create(ctx context.Context, record *domain.Record) error
	CountOpen(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Record, error)
	GetOpenByUser(ctx context.Context, userID string) (*domain.Record, error)
	// CloseOpen sets end and done in one conditional update. ErrNotFound means no
	// open record with that id belongs to userID.
	CloseOpen(ctx context.Context, id, userID string, end time.Time) (*domain.Record, error)
}

type recordRepository struct {
	db DBTX
}

// NewRecordRepository returns a Postgres-backed implementation.
func NewRecordRepository(db DBTX) RecordRepository {
	return &recordRepository{db: db}
}

const recordColumns = `id, user_id, type, started_at, ended_at, done, created_at`

func (r *recordRepository) Create(ctx context.Context, record *domain.Record) error {
	const query = `
        INSERT INTO records (user_id, type, started_at, done)
        VALUES ($1, $2, $3, FALSE)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		record.UserID,
		string(record.Type),
		record.Start,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, recordsOneOpenIndex) {
			return ErrOpenRecordExists
		}
		return fmt.Errorf("insert record: %w", err)
	}
	record.Done = false
	record.End = nil
	return nil
}

func (r *recordRepository) CountOpen(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM records WHERE user_id=$1 AND done=FALSE`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open records: %w", err)
	}
	return count, nil
}

func (r *recordRepository) ListByUser(ctx context.Context, userID string) ([]domain.Record, error) {
	const query = `SELECT ` + recordColumns + `
        FROM records WHERE user_id=$1
        ORDER BY started_at ASC, created_at ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (r *recordRepository) GetOpenByUser(ctx context.Context, userID string) (*domain.Record, error) {
	const query = `SELECT ` + recordColumns + `
        FROM records WHERE user_id=$1 AND done=FALSE
        LIMIT 1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select open record: %w", err)
	}
	return record, nil
}

func (r *recordRepository) CloseOpen(ctx context.Context, id, userID string, end time.Time) (*domain.Record, error) {
	const query = `
        UPDATE records SET ended_at=$3, done=TRUE
        WHERE id=$1 AND user_id=$2 AND ended_at IS NULL
        RETURNING ` + recordColumns

	record, err := scanRecord(r.db.QueryRow(ctx, query, id, userID, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("close record: %w", err)
	}
	return record, nil
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var (
		record  domain.Record
		typ     string
		endedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&typ,
		&record.Start,
		&endedAt,
		&record.Done,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	record.Type = domain.RecordType(typ)
	if endedAt.Valid {
		end := endedAt.Time
		record.End = &end
	}
	return &record, nil
}
