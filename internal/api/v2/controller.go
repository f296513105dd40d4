// Package api implements the v2 JSON API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bhv-platform/bhv-go/internal/alerting"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/rbac"
	"github.com/bhv-platform/bhv-go/internal/realtime"
)

const defaultIdempotencyTTL = 10 * time.Minute

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the Controller's collaborators. Hub, Gatherer and Health are
// optional.
type Config struct {
	Dispatcher     *alerting.Dispatcher
	Hub            *realtime.Hub
	Guard          *rbac.Guard
	Gatherer       prometheus.Gatherer
	Health         Pinger
	IdempotencyTTL time.Duration
	Logger         logger.Logger
}

// Controller serves /api/v2.
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	dispatcher  *alerting.Dispatcher
	hub         *realtime.Hub
	guard       *rbac.Guard
	gatherer    prometheus.Gatherer
	health      Pinger
	idempotency *cache.Cache
	logger      logger.Logger

	// ctx ends long-lived connections on shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the controller and registers its routes on e.
func New(e *echo.Echo, cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	guard := cfg.Guard
	if guard == nil {
		guard = rbac.NewGuard(false, "")
	}
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		Echo:        e,
		Group:       e.Group("/api/v2"),
		dispatcher:  cfg.Dispatcher,
		hub:         cfg.Hub,
		guard:       guard,
		gatherer:    cfg.Gatherer,
		health:      cfg.Health,
		idempotency: cache.New(ttl, 2*ttl),
		logger:      log.Module("api"),
		ctx:         ctx,
		cancel:      cancel,
	}
	c.initRoutes()
	return c
}

// Shutdown ends live connections.
func (c *Controller) Shutdown() {
	c.cancel()
}

func (c *Controller) initRoutes() {
	c.logInfoIfEnabled("Initializing API v2 routes")

	c.Group.GET("/health", c.HealthCheck)
	if c.gatherer != nil {
		c.Echo.GET("/metrics", c.Metrics)
	}

	c.initAlertRoutes()
	c.initLiveRoutes()
	c.initRBACRoutes()
}

// HandleError logs err and writes a failure body. Validation and not-found
// errors carry their own message to the client and their own status code;
// anything else is answered with message and code.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		code = http.StatusBadRequest
		message = err.Error()
	case errors.CategoryNotFound:
		code = http.StatusNotFound
		message = err.Error()
	}
	if code >= http.StatusInternalServerError {
		c.logErrorIfEnabled(message,
			logger.String("path", ctx.Path()),
			logger.Error(err))
	}
	return ctx.JSON(code, map[string]any{
		"success": false,
		"error":   message,
	})
}

func (c *Controller) logErrorIfEnabled(msg string, fields ...logger.Field) {
	if c.logger != nil {
		c.logger.Error(msg, fields...)
	}
}

func (c *Controller) logInfoIfEnabled(msg string, fields ...logger.Field) {
	if c.logger != nil {
		c.logger.Info(msg, fields...)
	}
}
