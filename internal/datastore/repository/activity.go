package repository

import (
	"context"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
)

// ActivityRepository is the append-only activity log.
type ActivityRepository interface {
	Log(ctx context.Context, entry *entities.ActivityLog) error
	ListByAlert(ctx context.Context, alertID string) ([]entities.ActivityLog, error)
}
