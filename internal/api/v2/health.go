package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bhv-platform/bhv-go/internal/logger"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports service and database health.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	status := map[string]any{"status": "ok", "database": "unknown"}
	if c.health != nil {
		pctx, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
		defer cancel()
		if err := c.health.Ping(pctx); err != nil {
			c.logErrorIfEnabled("health check failed", logger.Error(err))
			status["status"] = "degraded"
			status["database"] = "unreachable"
			return ctx.JSON(http.StatusServiceUnavailable, status)
		}
		status["database"] = "ok"
	}
	if c.hub != nil {
		status["liveClients"] = c.hub.ClientCount()
	}
	return ctx.JSON(http.StatusOK, status)
}

// Metrics serves the Prometheus exposition format.
func (c *Controller) Metrics(ctx echo.Context) error {
	promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{}).ServeHTTP(ctx.Response(), ctx.Request())
	return nil
}
