package errors

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter receives built errors that should be forwarded to telemetry.
type Reporter func(ee *EnhancedError)

var reporter atomic.Pointer[Reporter]

// SetReporter installs the reporter. Passing nil disables reporting.
func SetReporter(r Reporter) {
	if r == nil {
		reporter.Store(nil)
		return
	}
	reporter.Store(&r)
}

// reportable categories are the ones that indicate a fault on our side.
func reportable(c Category) bool {
	switch c {
	case CategoryDatabase, CategoryConfiguration, CategorySystem:
		return true
	default:
		return false
	}
}

func report(ee *EnhancedError) {
	r := reporter.Load()
	if r == nil || !reportable(ee.category) {
		return
	}
	(*r)(ee)
}

// SentryConfig configures Sentry reporting.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// InitSentry initializes the Sentry client and installs it as the reporter.
// The returned flush function should be deferred by the caller.
func InitSentry(cfg SentryConfig) (flush func(), err error) {
	if cfg.DSN == "" {
		return func() {}, Newf("sentry DSN is empty").
			Component("errors").
			Category(CategoryConfiguration).
			Build()
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	}); err != nil {
		return func() {}, fmt.Errorf("sentry init: %w", err)
	}
	SetReporter(sentryReporter)
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func sentryReporter(ee *EnhancedError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.component)
		scope.SetTag("category", string(ee.category))
		if len(ee.context) > 0 {
			scope.SetContext("error_context", sentry.Context(ee.GetContext()))
		}
		sentry.CaptureException(ee)
	})
}
