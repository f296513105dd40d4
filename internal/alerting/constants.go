// Package alerting resolves alert audiences, persists alerts and fans them
// out over the realtime, push, email and SMS channels.
package alerting

import "slices"

// Alert types.
const (
	TypeEmergency  = "emergency"
	TypeEvacuation = "evacuation"
	TypeFire       = "fire"
	TypeMedical    = "medical"
	TypeSecurity   = "security"
	TypeWeather    = "weather"
	TypeSystem     = "system"
)

// Severities, in escalation order.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
	SeverityFatal    = "fatal"
)

// Alert statuses.
const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
	StatusCancelled    = "cancelled"

	// StatusAll disables the status filter when listing.
	StatusAll = "all"
)

// Delivery channels.
const (
	ChannelRealtime = "realtime"
	ChannelPush     = "push"
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
)

// Activity log actions.
const (
	ActivityAlertSent           = "alert_sent"
	ActivityAutoActionsExecuted = "auto_actions_executed"
	ActivityStatusUpdated       = "alert_status_updated"
	ActivityResponseAdded       = "alert_response_added"
)

// Realtime events.
const (
	EventAlertCreated = "alert_created"
	EventAlertUpdated = "alert_status_updated"
)

// Rejection reasons reported to metrics.
const (
	RejectValidation    = "validation"
	RejectEmptyAudience = "empty_audience"
	RejectNoRecipients  = "no_recipients"
)

// DefaultResolver is recorded as resolver when a resolve carries no user.
const DefaultResolver = "system"

var (
	alertTypes = []string{TypeEmergency, TypeEvacuation, TypeFire, TypeMedical, TypeSecurity, TypeWeather, TypeSystem}
	severities = []string{SeverityInfo, SeverityWarning, SeverityCritical, SeverityFatal}
	statuses   = []string{StatusActive, StatusAcknowledged, StatusResolved, StatusCancelled}
)

// AlertTypes returns every alert type.
func AlertTypes() []string { return slices.Clone(alertTypes) }

// Severities returns every severity, lowest first.
func Severities() []string { return slices.Clone(severities) }

// Statuses returns every alert status.
func Statuses() []string { return slices.Clone(statuses) }

func IsValidType(t string) bool { return slices.Contains(alertTypes, t) }

func IsValidSeverity(s string) bool { return slices.Contains(severities, s) }

func IsValidStatus(s string) bool { return slices.Contains(statuses, s) }
