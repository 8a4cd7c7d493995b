package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/api/http/handlers"
	"github.com/spec-kit/timetracker/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	GraphQL    *handlers.GraphQLHandler
	Metrics    *handlers.MetricsHandler
	Limiter    *ratelimit.Limiter
	Playground bool
	Logger     *zap.Logger
}

// RegisterRoutes wires HTTP routes. Only the GraphQL endpoint is rate limited.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	api := []fiber.Handler{}
	if cfg.Limiter != nil {
		logger := cfg.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		api = append(api, rateLimitMiddleware(cfg.Limiter, logger))
	}
	api = append(api, cfg.GraphQL.Execute)
	app.Post("/graphql", api...)

	if cfg.Playground {
		app.Get("/graphiql", handlers.GraphiQL)
	}
}
