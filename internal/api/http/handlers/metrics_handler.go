package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/timetracker/internal/observability"
)

// MetricsHandler exposes in-process counters as JSON.
type MetricsHandler struct {
	metrics *observability.Metrics
}

func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
