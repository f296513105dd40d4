package alerting

import (
	"fmt"
	"strings"
	"time"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/notification"
)

// Request is the body of a dispatch call.
type Request struct {
	Type     string                  `json:"type"`
	Severity string                  `json:"severity"`
	Title    string                  `json:"title"`
	Message  string                  `json:"message"`
	Location *entities.AlertLocation `json:"location,omitempty"`
	// TargetAudience is a pointer so an absent descriptor can be told apart
	// from an empty one.
	TargetAudience *entities.TargetAudience `json:"targetAudience"`
	AutoActions    *entities.AutoActions    `json:"autoActions,omitempty"`
	ExpiresAt      *time.Time               `json:"expiresAt,omitempty"`
	Metadata       map[string]any           `json:"metadata,omitempty"`
	CreatedBy      string                   `json:"createdBy,omitempty"`
}

// Validate checks required fields and enum values.
func (r *Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(r.Severity) == "" {
		missing = append(missing, "severity")
	}
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.Message) == "" {
		missing = append(missing, "message")
	}
	if r.TargetAudience == nil {
		missing = append(missing, "targetAudience")
	}
	if len(missing) > 0 {
		return validationError("Missing required fields: %s", strings.Join(missing, ", "))
	}

	if !IsValidType(r.Type) {
		return validationError("Invalid alert type %q, expected one of: %s", r.Type, strings.Join(alertTypes, ", "))
	}
	if !IsValidSeverity(r.Severity) {
		return validationError("Invalid severity %q, expected one of: %s", r.Severity, strings.Join(severities, ", "))
	}
	if r.ExpiresAt != nil && r.ExpiresAt.IsZero() {
		return validationError("expiresAt must be a valid timestamp")
	}
	return nil
}

// requestedActions lists the auto-action names set on the request, in a
// fixed order.
func (r *Request) requestedActions() []string {
	a := r.AutoActions
	if !a.Any() {
		return nil
	}
	var names []string
	if a.LockDoors {
		names = append(names, notification.ActionLockDoors)
	}
	if a.ActivateAlarms {
		names = append(names, notification.ActionActivateAlarms)
	}
	if a.NotifyAuthorities {
		names = append(names, notification.ActionNotifyAuthorities)
	}
	if a.StartEvacuation {
		names = append(names, notification.ActionStartEvacuation)
	}
	return names
}

func validationError(format string, args ...any) error {
	return errors.New(fmt.Errorf(format, args...)).
		Component("alerting").
		Category(errors.CategoryValidation).
		Build()
}
