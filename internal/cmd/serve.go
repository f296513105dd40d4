package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/bhv-platform/bhv-go/internal/alerting"
	api "github.com/bhv-platform/bhv-go/internal/api/v2"
	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/datastore"
	"github.com/bhv-platform/bhv-go/internal/datastore/repository"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/notification"
	"github.com/bhv-platform/bhv-go/internal/observability/metrics"
	"github.com/bhv-platform/bhv-go/internal/rbac"
	"github.com/bhv-platform/bhv-go/internal/realtime"
)

func serveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the alert API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, opts.settings, opts.log)
		},
	}
}

// buildChannels creates the delivery clients. Channels without an endpoint
// stay nil and are skipped by the dispatcher.
func buildChannels(settings *conf.Settings, hub *realtime.Hub) alerting.Channels {
	client := &http.Client{Timeout: settings.Delivery.Timeout.Std()}
	d := &settings.Delivery

	var ch alerting.Channels
	switch {
	case d.Realtime.Mode == conf.RealtimeModeHTTP:
		ch.Realtime = notification.NewRealtimeClient(notification.NewPoster(client, d.Realtime.Token), d.Realtime.URL)
	case hub != nil:
		ch.Realtime = hub
	}
	if d.Push.URL != "" {
		ch.Push = notification.NewPushClient(notification.NewPoster(client, d.Push.Token), d.Push.URL)
	}
	if d.Email.URL != "" {
		ch.Email = notification.NewEmailClient(notification.NewPoster(client, d.Email.Token), d.Email.URL, d.Email.From)
	}
	if d.SMS.URL != "" {
		ch.SMS = notification.NewSMSClient(notification.NewPoster(client, d.SMS.Token), d.SMS.URL, d.SMS.RatePerSecond)
	}
	return ch
}

// buildActions creates the facility automation executor. The returned
// close function releases broker connections.
func buildActions(settings *conf.Settings, log logger.Logger) (notification.ActionExecutor, func(), error) {
	a := &settings.Automation
	closeFn := func() {}

	var base notification.ActionExecutor
	switch a.Transport {
	case conf.AutomationTransportMQTT:
		mq, err := notification.ConnectMQTT(a, log)
		if err != nil {
			return nil, closeFn, err
		}
		base, closeFn = mq, mq.Close
	default:
		client := &http.Client{Timeout: a.Timeout.Std()}
		base = notification.NewHTTPActionExecutor(notification.NewPoster(client, a.Token), a.Endpoints)
	}

	router := notification.NewActionRouter(base)
	if len(a.AuthorityURLs) > 0 {
		authorities, err := notification.NewAuthorityNotifier(a.AuthorityURLs)
		if err != nil {
			closeFn()
			return nil, func() {}, err
		}
		router.Route(notification.ActionNotifyAuthorities, authorities)
	}
	return router, closeFn, nil
}

func newRegistry() (*prometheus.Registry, *metrics.AlertingMetrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewAlertingMetrics(reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, m, nil
}

// newEcho returns an echo instance with the shared middleware stack.
func newEcho(log logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error("panic in handler",
				logger.String("path", c.Path()),
				logger.Error(err),
				logger.String("stack", string(stack)))
			return err
		},
	}))
	e.Use(middleware.RequestID())
	return e
}

func runServer(ctx context.Context, settings *conf.Settings, log logger.Logger) error {
	if settings.Sentry.Enabled {
		flush, err := errors.InitSentry(errors.SentryConfig{
			DSN:         settings.Sentry.DSN,
			Environment: settings.Sentry.Environment,
			Release:     Version,
		})
		if err != nil {
			log.Warn("sentry disabled", logger.Error(err))
		}
		defer flush()
	}

	store, err := datastore.NewManager(settings.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Initialize(); err != nil {
		return err
	}

	registry, alertMetrics, err := newRegistry()
	if err != nil {
		return err
	}

	var hub *realtime.Hub
	if settings.Delivery.Realtime.Mode == conf.RealtimeModeHub {
		hub = realtime.NewHub(log)
		defer hub.Close()
	}

	actions, closeActions, err := buildActions(settings, log)
	if err != nil {
		return err
	}
	defer closeActions()

	db := store.DB()
	dispatcher := alerting.NewDispatcher(alerting.Dependencies{
		Alerts:   repository.NewAlertRepository(db),
		Users:    repository.NewUserRepository(db),
		Activity: repository.NewActivityRepository(db),
		Channels: buildChannels(settings, hub),
		Actions:  actions,
		Metrics:  alertMetrics,
	}, alerting.OptionsFromSettings(settings), log)

	e := newEcho(log)
	ctrl := api.New(e, api.Config{
		Dispatcher:     dispatcher,
		Hub:            hub,
		Guard:          rbac.NewGuard(settings.Security.Enabled, settings.Security.RoleHeader),
		Gatherer:       registry,
		Health:         store,
		IdempotencyTTL: settings.Alerting.IdempotencyTTL.Std(),
		Logger:         log,
	})

	server := &http.Server{
		Addr:         net.JoinHostPort("", settings.WebServer.Port),
		Handler:      e,
		ReadTimeout:  settings.WebServer.ReadTimeout.Std(),
		WriteTimeout: settings.WebServer.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Info("starting api server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		ctrl.Shutdown()
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down api server")
	ctrl.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.WebServer.ShutdownTimeout.Std())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
