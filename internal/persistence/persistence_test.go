package persistence

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/config"
)

func TestMigrationFS_ContainsSchema(t *testing.T) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	require.NoError(t, err)
	require.Contains(t, names, "migrations/00001_init.sql")

	body, err := fs.ReadFile(migrationFS, "migrations/00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "records_one_open_per_user")
	assert.Contains(t, string(body), "WHERE NOT done")
	assert.Contains(t, string(body), "users_email_key")
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, migrate(context.Background(), nil, zap.NewNop()))
	assert.Equal(t, migrationsDir, gotDir)
}

func TestMigrate_WrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	boom := errors.New("boom")
	gooseUp = func(context.Context, *sql.DB, string) error { return boom }

	err := migrate(context.Background(), nil, zap.NewNop())
	assert.ErrorIs(t, err, boom)
}

func TestRunMigrations_NilPool(t *testing.T) {
	assert.Error(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewPostgres(context.Background(), config.PostgresConfig{DSN: "://bad"}, zap.NewNop())
	assert.Error(t, err)
}

func TestPostgres_NilSafe(t *testing.T) {
	var p *Postgres
	assert.Error(t, p.Ping(context.Background()))
	assert.Nil(t, p.PoolHandle())
	p.Close()
}

func TestRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()
	assert.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))

	var nilRedis *Redis
	assert.Error(t, nilRedis.Ping(context.Background()))
}
