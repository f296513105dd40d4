// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bhv"

// Delivery outcomes.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// AlertingMetrics tracks dispatches, deliveries and facility actions.
// All methods are safe on a nil receiver.
type AlertingMetrics struct {
	dispatched       *prometheus.CounterVec
	rejected         *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	autoActions      *prometheus.CounterVec
	statusUpdates    *prometheus.CounterVec
	recipients       prometheus.Histogram
	dispatchDuration prometheus.Histogram
}

// NewAlertingMetrics creates the collectors and registers them on reg.
func NewAlertingMetrics(reg prometheus.Registerer) (*AlertingMetrics, error) {
	m := &AlertingMetrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "dispatched_total",
			Help:      "Alerts persisted and dispatched, by type and severity.",
		}, []string{"type", "severity"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "rejected_total",
			Help:      "Dispatch requests rejected before persistence, by reason.",
		}, []string{"reason"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "deliveries_total",
			Help:      "Delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		autoActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "auto_actions_total",
			Help:      "Facility auto-actions by action and outcome.",
		}, []string{"action", "outcome"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "status_updates_total",
			Help:      "Alert status changes by new status.",
		}, []string{"status"}),
		recipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "recipients",
			Help:      "Resolved recipients per dispatched alert.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "dispatch_duration_seconds",
			Help:      "Time from accepted request to finalized delivery tally.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.dispatched, m.rejected, m.deliveries, m.autoActions,
		m.statusUpdates, m.recipients, m.dispatchDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordDispatch counts a persisted alert.
func (m *AlertingMetrics) RecordDispatch(alertType, severity string, recipients int, took time.Duration) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(alertType, severity).Inc()
	m.recipients.Observe(float64(recipients))
	m.dispatchDuration.Observe(took.Seconds())
}

// RecordRejected counts a dispatch refused before persistence.
func (m *AlertingMetrics) RecordRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// RecordDelivery adds a channel tally.
func (m *AlertingMetrics) RecordDelivery(channel string, sent, failed int) {
	if m == nil {
		return
	}
	if sent > 0 {
		m.deliveries.WithLabelValues(channel, OutcomeSent).Add(float64(sent))
	}
	if failed > 0 {
		m.deliveries.WithLabelValues(channel, OutcomeFailed).Add(float64(failed))
	}
}

// RecordAutoAction counts one facility action outcome.
func (m *AlertingMetrics) RecordAutoAction(action string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSent
	if !ok {
		outcome = OutcomeFailed
	}
	m.autoActions.WithLabelValues(action, outcome).Inc()
}

// RecordStatusUpdate counts a status change.
func (m *AlertingMetrics) RecordStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(status).Inc()
}
