package repository

import (
	"context"
	"time"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/errors"
)

// ErrAlertNotFound is returned when no alert exists for the given ID.
var ErrAlertNotFound = errors.NewStd("alert not found")

// AlertRepository persists alerts and their responder records.
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *entities.Alert) error
	GetAlert(ctx context.Context, id string) (*entities.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]entities.Alert, error)

	// Finalization writes. Both are blind partial updates by ID.
	SaveDeliveryResults(ctx context.Context, id string, results entities.DeliveryResults, sentAt time.Time) error
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error

	// Responses
	AddResponse(ctx context.Context, response *entities.AlertResponse) error
	ListResponses(ctx context.Context, alertID string) ([]entities.AlertResponse, error)
}

// AlertFilter controls alert listing queries. Empty strings match anything.
type AlertFilter struct {
	Status   string
	Type     string
	Severity string
	Limit    int
	Offset   int
}

// StatusUpdate is written as-is: nil resolution fields clear the columns.
type StatusUpdate struct {
	Status     string
	ResolvedAt *time.Time
	ResolvedBy *string
}
