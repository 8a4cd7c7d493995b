// Package memory provides in-process implementations of the repository
// interfaces. They enforce the same uniqueness and single-open-record rules as
// the Postgres schema.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/timetracker/internal/domain"
	"github.com/spec-kit/timetracker/internal/repository"
)

// UserStore is a map-backed repository.UserRepository.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{byID: map[string]domain.User{}, byEmail: map[string]string{}}
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	email := domain.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return repository.ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = time.Now().UTC()
	s.byID[user.ID] = *user
	s.byEmail[email] = user.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok, nil
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// RecordStore is a map-backed repository.RecordRepository.
type RecordStore struct {
	mu      sync.Mutex
	records map[string]domain.Record
	order   []string
}

// NewRecordStore returns an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: map[string]domain.Record{}}
}

var _ repository.RecordRepository = (*RecordStore)(nil)

func (s *RecordStore) Create(_ context.Context, record *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.UserID == record.UserID && !r.Done {
			return repository.ErrOpenRecordExists
		}
	}
	record.ID = uuid.NewString()
	record.Done = false
	record.End = nil
	record.CreatedAt = time.Now().UTC()
	s.records[record.ID] = *record
	s.order = append(s.order, record.ID)
	return nil
}

func (s *RecordStore) CountOpen(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.records {
		if r.UserID == userID && !r.Done {
			n++
		}
	}
	return n, nil
}

func (s *RecordStore) ListByUser(_ context.Context, userID string) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Record, 0)
	for _, id := range s.order {
		if r := s.records[id]; r.UserID == userID {
			out = append(out, copyRecord(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *RecordStore) GetOpenByUser(_ context.Context, userID string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if r := s.records[id]; r.UserID == userID && !r.Done {
			c := copyRecord(r)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *RecordStore) CloseOpen(_ context.Context, id, userID string, end time.Time) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.UserID != userID || r.End != nil {
		return nil, repository.ErrNotFound
	}
	e := end
	r.End = &e
	r.Done = true
	s.records[id] = r
	c := copyRecord(r)
	return &c, nil
}

func copyRecord(r domain.Record) domain.Record {
	if r.End != nil {
		e := *r.End
		r.End = &e
	}
	return r
}
