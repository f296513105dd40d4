package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/bhv-platform/bhv-go/internal/alerting"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/rbac"
)

// HeaderIdempotencyKey deduplicates dispatch retries.
const HeaderIdempotencyKey = "Idempotency-Key"

// idempotencyPending marks a key whose dispatch is still running.
type idempotencyPending struct{}

// DispatchResponse is the body of a successful dispatch.
type DispatchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	alerting.DispatchResult
}

// initAlertRoutes registers alert endpoints.
func (c *Controller) initAlertRoutes() {
	alerts := c.Group.Group("/alerts")

	alerts.GET("/schema", c.GetAlertSchema)
	alerts.POST("", c.DispatchAlert, c.guard.Require(rbac.ResourceAlerts, rbac.ActionCreate))
	alerts.GET("", c.ListAlerts, c.guard.Require(rbac.ResourceAlerts, rbac.ActionRead))
	alerts.PATCH("", c.UpdateAlertStatus, c.guard.Require(rbac.ResourceAlerts, rbac.ActionUpdate))
	alerts.GET("/:id", c.GetAlert, c.guard.Require(rbac.ResourceAlerts, rbac.ActionRead))
}

// GetAlertSchema returns the alert catalog for the UI.
func (c *Controller) GetAlertSchema(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, alerting.GetSchema())
}

// DispatchAlert creates an alert and delivers it. A repeated
// Idempotency-Key returns the first result without dispatching again.
func (c *Controller) DispatchAlert(ctx echo.Context) error {
	key := ctx.Request().Header.Get(HeaderIdempotencyKey)
	if key != "" {
		if err := c.idempotency.Add(key, idempotencyPending{}, cache.DefaultExpiration); err != nil {
			return c.replayDispatch(ctx, key)
		}
	}

	var req alerting.Request
	if err := ctx.Bind(&req); err != nil {
		c.forgetKey(key)
		return ctx.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request body"})
	}

	result, err := c.dispatcher.Dispatch(ctx.Request().Context(), &req)
	if err != nil {
		c.forgetKey(key)
		return c.HandleError(ctx, err, "Failed to create alert", http.StatusInternalServerError)
	}

	resp := DispatchResponse{
		Success:        true,
		Message:        fmt.Sprintf("Alert sent to %d recipients", result.TargetUserCount),
		DispatchResult: *result,
	}
	if key != "" {
		c.idempotency.Set(key, resp, cache.DefaultExpiration)
	}

	c.logInfoIfEnabled("alert dispatched via API",
		logger.String("alert_id", result.AlertID),
		logger.Int("recipients", result.TargetUserCount))
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) replayDispatch(ctx echo.Context, key string) error {
	cached, found := c.idempotency.Get(key)
	if !found {
		// Expired between Add and Get.
		return ctx.JSON(http.StatusConflict, map[string]any{"success": false, "error": "Retry the request"})
	}
	resp, ok := cached.(DispatchResponse)
	if !ok {
		return ctx.JSON(http.StatusConflict, map[string]any{
			"success": false,
			"error":   "A request with this Idempotency-Key is still being processed",
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) forgetKey(key string) {
	if key != "" {
		c.idempotency.Delete(key)
	}
}

// ListAlerts returns one page of alerts.
func (c *Controller) ListAlerts(ctx echo.Context) error {
	limit, err := intQueryParam(ctx, "limit")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid limit"})
	}
	offset, err := intQueryParam(ctx, "offset")
	if err != nil || offset < 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid offset"})
	}

	result, err := c.dispatcher.List(ctx.Request().Context(), alerting.ListFilter{
		Status:   ctx.QueryParam("status"),
		Type:     ctx.QueryParam("type"),
		Severity: ctx.QueryParam("severity"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch alerts", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"alerts":     result.Alerts,
		"pagination": result.Pagination,
	})
}

// UpdateAlertStatus changes an alert's status.
func (c *Controller) UpdateAlertStatus(ctx echo.Context) error {
	var req alerting.StatusRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request body"})
	}

	if err := c.dispatcher.UpdateStatus(ctx.Request().Context(), req); err != nil {
		return c.HandleError(ctx, err, "Failed to update alert", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Alert status updated",
	})
}

// GetAlert returns one alert with its responses.
func (c *Controller) GetAlert(ctx echo.Context) error {
	detail, err := c.dispatcher.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch alert", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"alert":     detail.Alert,
		"responses": detail.Responses,
	})
}

// intQueryParam parses an optional integer query parameter; absent is 0.
func intQueryParam(ctx echo.Context, name string) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
