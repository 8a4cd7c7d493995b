package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/timetracker/internal/domain"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

var userColumns = []string{"id", "name", "email", "password_hash", "created_at"}

func TestUserCreate_NormalizesEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users \(name, email, password_hash\)`).
		WithArgs("Jane", "jane@example.com", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "created_at"}).
			AddRow("0b8f5a3e-6f0c-4c53-9a53-2a3c0b0f4e11", "jane@example.com", now))

	u := &domain.User{Name: "Jane", Email: "  Jane@Example.com ", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, "0b8f5a3e-6f0c-4c53-9a53-2a3c0b0f4e11", u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Jane", "jane@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{Name: "Jane", Email: "jane@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserCreate_DBError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Jane", "jane@example.com", "hash").
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &domain.User{Name: "Jane", Email: "jane@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserGetByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, name, email, password_hash, created_at\s+FROM users WHERE email=\$1`).
		WithArgs("jane@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow("u-1", "Jane", "jane@example.com", "hash", now))

	u, err := repo.GetByEmail(context.Background(), "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestUserGetByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs("u-404").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "u-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserExists(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE id=\$1`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE id=\$1`).
		WithArgs("u-2").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	ok, err := repo.Exists(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(context.Background(), "u-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
