// Package app assembles the service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/api/gql"
	httptransport "github.com/spec-kit/timetracker/internal/api/http"
	"github.com/spec-kit/timetracker/internal/api/http/handlers"
	"github.com/spec-kit/timetracker/internal/auth"
	"github.com/spec-kit/timetracker/internal/config"
	"github.com/spec-kit/timetracker/internal/events"
	"github.com/spec-kit/timetracker/internal/observability"
	"github.com/spec-kit/timetracker/internal/persistence"
	"github.com/spec-kit/timetracker/internal/ratelimit"
	"github.com/spec-kit/timetracker/internal/repository"
	"github.com/spec-kit/timetracker/internal/service"
)

// App owns the HTTP server and its backing connections.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	postgres *persistence.Postgres
	redis    *persistence.Redis
	http     *fiber.App
}

// Dependencies are the stores and clients the HTTP surface runs on.
// Postgres and Redis are optional; without Redis no rate limit applies.
type Dependencies struct {
	Users    repository.UserRepository
	Records  repository.RecordRepository
	Postgres handlers.Pinger
	Redis    *persistence.Redis
}

// New connects to Postgres and Redis, applies migrations and builds the server.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	rds := persistence.NewRedis(ctx, cfg.Redis, logger)

	pool := pg.PoolHandle()
	server, err := NewHTTP(cfg, logger, Dependencies{
		Users:    repository.NewUserRepository(pool),
		Records:  repository.NewRecordRepository(pool),
		Postgres: pg,
		Redis:    rds,
	})
	if err != nil {
		rds.Close()
		pg.Close()
		return nil, err
	}

	return &App{cfg: cfg, logger: logger, postgres: pg, redis: rds, http: server}, nil
}

// NewHTTP builds the fiber application with all middleware and routes.
func NewHTTP(cfg *config.Config, logger *zap.Logger, deps Dependencies) (*fiber.App, error) {
	if deps.Users == nil || deps.Records == nil {
		return nil, errors.New("app: user and record stores are required")
	}

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	metrics := observability.NewMetrics()

	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	sessions := service.NewSessionService(service.SessionDependencies{
		Users:  deps.Users,
		Hasher: hasher,
		Tokens: tokens,
		Events: dispatcher,
		Logger: logger,
	})
	records := service.NewRecordService(service.RecordDependencies{
		Records: deps.Records,
		Events:  dispatcher,
		Logger:  logger,
	})

	schema, err := gql.NewSchema(gql.NewResolver(gql.ResolverDependencies{
		Sessions: sessions,
		Records:  records,
		Gate:     auth.NewGate(tokens, deps.Users),
		Metrics:  metrics,
		Logger:   logger,
	}))
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled() && deps.Redis != nil && deps.Redis.Client != nil {
		limiter, err = ratelimit.New(deps.Redis.Client, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
		if err != nil {
			return nil, fmt.Errorf("build rate limiter: %w", err)
		}
	}

	var redisPinger handlers.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	server := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(server, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Postgres, redisPinger),
		GraphQL:    handlers.NewGraphQLHandler(schema),
		Metrics:    handlers.NewMetricsHandler(metrics),
		Limiter:    limiter,
		Playground: cfg.App.Playground,
		Logger:     logger,
	})
	return server, nil
}

// Start blocks serving HTTP on the configured address.
func (a *App) Start() error {
	a.logger.Info("listening", zap.String("addr", a.cfg.App.Addr()))
	return a.http.Listen(a.cfg.App.Addr())
}

// Stop drains in-flight requests and closes connections.
func (a *App) Stop(ctx context.Context) error {
	err := a.http.ShutdownWithContext(ctx)
	a.redis.Close()
	a.postgres.Close()
	return err
}
