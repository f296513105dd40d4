package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/bhv-platform/bhv-go/internal/alerting"
	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/datastore/repository"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/notification"
	"github.com/bhv-platform/bhv-go/internal/observability/metrics"
	"github.com/bhv-platform/bhv-go/internal/rbac"
	"github.com/bhv-platform/bhv-go/internal/realtime"
)

// countingEmail counts email deliveries.
type countingEmail struct{ sent atomic.Int32 }

func (c *countingEmail) SendEmail(context.Context, notification.EmailMessage) error {
	c.sent.Add(1)
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	echo     *echo.Echo
	ctrl     *Controller
	hub      *realtime.Hub
	email    *countingEmail
	registry *prometheus.Registry
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entities.Alert{}, &entities.AlertResponse{}, &entities.ActivityLog{}, &entities.User{},
	))
	return db
}

func newTestServer(t *testing.T, guard *rbac.Guard, health Pinger) *testServer {
	t.Helper()
	db := setupTestDB(t)

	users := repository.NewUserRepository(db)
	for _, u := range []entities.User{
		{ID: "u1", Name: "Anna", Role: "bhv_member", Email: "anna@example.nl", Active: true},
		{ID: "u2", Name: "Bram", Role: "employee", Email: "bram@example.nl", Active: true},
	} {
		require.NoError(t, users.CreateUser(t.Context(), &u))
	}

	s := &testServer{
		echo:     echo.New(),
		hub:      realtime.NewHub(testLogger()),
		email:    &countingEmail{},
		registry: prometheus.NewRegistry(),
	}
	m, err := metrics.NewAlertingMetrics(s.registry)
	require.NoError(t, err)

	dispatcher := alerting.NewDispatcher(alerting.Dependencies{
		Alerts:   repository.NewAlertRepository(db),
		Users:    users,
		Activity: repository.NewActivityRepository(db),
		Channels: alerting.Channels{Realtime: s.hub, Email: s.email},
		Metrics:  m,
	}, alerting.Options{}, testLogger())

	s.ctrl = New(s.echo, Config{
		Dispatcher: dispatcher,
		Hub:        s.hub,
		Guard:      guard,
		Gatherer:   s.registry,
		Health:     health,
		Logger:     testLogger(),
	})
	t.Cleanup(func() {
		s.ctrl.Shutdown()
		s.hub.Close()
	})
	return s
}

func (s *testServer) do(t *testing.T, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const fireAlertBody = `{
	"type": "fire",
	"severity": "critical",
	"title": "Brand in magazijn",
	"message": "Verlaat het gebouw via de dichtstbijzijnde uitgang",
	"targetAudience": {"all": true}
}`

func (s *testServer) dispatch(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id, ok := decode(t, rec)["alertId"].(string)
	require.True(t, ok)
	return id
}

func TestDispatchAlert(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Alert sent to 2 recipients", body["message"])
	assert.NotEmpty(t, body["alertId"])
	assert.InDelta(t, 2, body["targetUserCount"], 0)
	assert.Equal(t, int32(2), s.email.sent.Load())

	results, ok := body["deliveryResults"].(map[string]any)
	require.True(t, ok)
	email, ok := results["email"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2, email["sent"], 0)
}

func TestDispatchAlert_Errors(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"malformed body", `{"type":`, http.StatusBadRequest, "Invalid request body"},
		{"missing fields", `{"type":"fire"}`, http.StatusBadRequest, "Missing required fields"},
		{"unknown severity", `{"type":"fire","severity":"high","title":"t","message":"m","targetAudience":{"all":true}}`,
			http.StatusBadRequest, "Invalid severity"},
		{"no recipients", `{"type":"fire","severity":"info","title":"t","message":"m","targetAudience":{"roles":["customer_admin"]}}`,
			http.StatusBadRequest, "No recipients found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v2/alerts", tt.body, nil)
			assert.Equal(t, tt.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], tt.message)
		})
	}
}

func TestDispatchAlert_IdempotencyKeyReplays(t *testing.T) {
	s := newTestServer(t, nil, nil)
	headers := map[string]string{HeaderIdempotencyKey: "retry-1"}

	first := s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, headers)
	require.Equal(t, http.StatusOK, first.Code)
	second := s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, headers)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, decode(t, first)["alertId"], decode(t, second)["alertId"])
	assert.Equal(t, int32(2), s.email.sent.Load(), "replay must not deliver again")

	list := decode(t, s.do(t, http.MethodGet, "/api/v2/alerts", "", nil))
	assert.Len(t, list["alerts"], 1)
}

func TestDispatchAlert_FailedKeyCanBeRetried(t *testing.T) {
	s := newTestServer(t, nil, nil)
	headers := map[string]string{HeaderIdempotencyKey: "retry-2"}

	rec := s.do(t, http.MethodPost, "/api/v2/alerts", `{"type":"fire"}`, headers)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, headers)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDispatchAlert_PendingKeyConflicts(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.ctrl.idempotency.SetDefault("in-flight", idempotencyPending{})

	rec := s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody,
		map[string]string{HeaderIdempotencyKey: "in-flight"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int32(0), s.email.sent.Load())
}

func TestListAlerts(t *testing.T) {
	s := newTestServer(t, nil, nil)
	for range 3 {
		s.dispatch(t)
	}

	body := decode(t, s.do(t, http.MethodGet, "/api/v2/alerts?limit=2", "", nil))
	assert.Len(t, body["alerts"], 2)
	assert.Equal(t, map[string]any{"limit": 2.0, "offset": 0.0, "hasMore": true}, body["pagination"])

	body = decode(t, s.do(t, http.MethodGet, "/api/v2/alerts?limit=2&offset=2", "", nil))
	assert.Len(t, body["alerts"], 1)

	body = decode(t, s.do(t, http.MethodGet, "/api/v2/alerts?status=resolved", "", nil))
	assert.Empty(t, body["alerts"])
	assert.NotNil(t, body["alerts"], "empty result is an empty array")

	for _, q := range []string{"limit=abc", "offset=-1", "status=open", "type=flood"} {
		rec := s.do(t, http.MethodGet, "/api/v2/alerts?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestUpdateAlertStatus(t *testing.T) {
	s := newTestServer(t, nil, nil)
	id := s.dispatch(t)

	rec := s.do(t, http.MethodPatch, "/api/v2/alerts",
		`{"alertId":"`+id+`","status":"resolved","response":"Brand geblust","userId":"u1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Alert status updated", decode(t, rec)["message"])

	body := decode(t, s.do(t, http.MethodGet, "/api/v2/alerts/"+id, "", nil))
	alert, ok := body["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "resolved", alert["status"])
	assert.Equal(t, "u1", alert["resolvedBy"])
	assert.Len(t, body["responses"], 1)

	rec = s.do(t, http.MethodPatch, "/api/v2/alerts", `{"alertId":"missing","status":"resolved"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v2/alerts", `{"alertId":"`+id+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAlert_NotFound(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do(t, http.MethodGet, "/api/v2/alerts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestGetAlertSchema(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do(t, http.MethodGet, "/api/v2/alerts/schema", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var schema alerting.Schema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Len(t, schema.Severities, len(alerting.Severities()))
}

func TestGuard_ProtectsAlertRoutes(t *testing.T) {
	s := newTestServer(t, rbac.NewGuard(true, "X-BHV-Role"), nil)

	rec := s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, map[string]string{"X-BHV-Role": "employee"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v2/alerts", fireAlertBody, map[string]string{"X-BHV-Role": "bhv_coordinator"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v2/alerts", "", map[string]string{"X-BHV-Role": "employee"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, nil, stubPinger{})
		rec := s.do(t, http.MethodGet, "/api/v2/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "ok", body["database"])
	})

	t.Run("database down", func(t *testing.T) {
		s := newTestServer(t, nil, stubPinger{err: errors.NewStd("connection refused")})
		rec := s.do(t, http.MethodGet, "/api/v2/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unreachable", decode(t, rec)["database"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.dispatch(t)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bhv_alerts_dispatched_total{severity="critical",type="fire"} 1`)
	assert.Contains(t, rec.Body.String(), `bhv_alerts_deliveries_total{channel="email",outcome="sent"} 2`)
}

func TestHandleError_Categories(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", errors.Newf("bad input").Category(errors.CategoryValidation).Build(), http.StatusBadRequest, "bad input"},
		{"not found", errors.Newf("no such alert").Category(errors.CategoryNotFound).Build(), http.StatusNotFound, "no such alert"},
		{"database", errors.Newf("disk full").Category(errors.CategoryDatabase).Build(), http.StatusInternalServerError, "Failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ctx := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), rec)
			require.NoError(t, s.ctrl.HandleError(ctx, tt.err, "Failed", http.StatusInternalServerError))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.msg, decode(t, rec)["error"])
		})
	}
}
