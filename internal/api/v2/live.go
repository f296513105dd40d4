package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/rbac"
)

const (
	liveRateLimit  = rate.Limit(1)
	liveRateBurst  = 5
	liveRateExpiry = 3 * time.Minute
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers always send Origin; it must match Host to block cross-site
		// hijacking. Non-browser clients may omit it.
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// initLiveRoutes registers the dashboard websocket.
func (c *Controller) initLiveRoutes() {
	rateLimiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      liveRateLimit,
				Burst:     liveRateBurst,
				ExpiresIn: liveRateExpiry,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusForbidden, map[string]any{"success": false, "error": "Rate limiter error"})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]any{
				"success": false,
				"error":   "Too many live connection attempts, please wait before trying again",
			})
		},
	}

	c.Group.GET("/alerts/live", c.HandleAlertsLive,
		middleware.RateLimiterWithConfig(rateLimiterConfig),
		c.guard.Require(rbac.ResourceAlerts, rbac.ActionRead))
}

// HandleAlertsLive streams alert events over a websocket. With ?userId= the
// stream is limited to alerts addressed to that user.
func (c *Controller) HandleAlertsLive(ctx echo.Context) error {
	if c.hub == nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Live updates are not enabled",
		})
	}

	conn, err := liveUpgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logErrorIfEnabled("failed to upgrade live websocket", logger.Error(err))
		// The upgrader has already written the HTTP error.
		return nil
	}

	c.hub.Serve(c.ctx, conn, ctx.QueryParam("userId"))
	return nil
}
