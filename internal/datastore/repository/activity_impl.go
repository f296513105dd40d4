package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
)

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Log(ctx context.Context, entry *entities.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write activity %q for alert %s: %w", entry.Action, entry.AlertID, err)
	}
	return nil
}

// ListByAlert returns the alert's entries oldest first.
func (r *activityRepository) ListByAlert(ctx context.Context, alertID string) ([]entities.ActivityLog, error) {
	var entries []entities.ActivityLog
	err := r.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for alert %s: %w", alertID, err)
	}
	return entries, nil
}
