package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/timetracker/internal/domain"
	"github.com/spec-kit/timetracker/internal/repository"
)

func TestUserStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewUserStore()

	u := &domain.User{Name: "Jane", Email: " Jane@Example.com", PasswordHash: "h"}
	require.NoError(t, s.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)

	err := s.Create(ctx, &domain.User{Name: "Other", Email: "JANE@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	assert.Equal(t, 1, s.Len())

	got, err := s.GetByEmail(ctx, "jane@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	ok, err := s.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordStore_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewRecordStore()
	t0 := time.Now().UTC()

	r := &domain.Record{UserID: "u1", Type: domain.RecordTypeWork, Start: t0}
	require.NoError(t, s.Create(ctx, r))

	err := s.Create(ctx, &domain.Record{UserID: "u1", Type: domain.RecordTypeSleep, Start: t0})
	assert.ErrorIs(t, err, repository.ErrOpenRecordExists)

	_, err = s.CloseOpen(ctx, r.ID, "u2", t0.Add(time.Hour))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	closed, err := s.CloseOpen(ctx, r.ID, "u1", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, closed.Done)

	_, err = s.CloseOpen(ctx, r.ID, "u1", t0.Add(2*time.Hour))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, t0.Add(time.Hour).Equal(*list[0].End))
}

func TestRecordStore_ConcurrentCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewRecordStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Create(ctx, &domain.Record{UserID: "u1", Type: domain.RecordTypeWork, Start: time.Now()})
		}()
	}
	wg.Wait()

	n, err := s.CountOpen(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
