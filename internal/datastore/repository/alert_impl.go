package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/errors"
)

// alertRepository implements AlertRepository.
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

// CreateAlert inserts a new alert row.
func (r *alertRepository) CreateAlert(ctx context.Context, alert *entities.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAlert returns a single alert by ID.
// Returns ErrAlertNotFound if the alert does not exist.
func (r *alertRepository) GetAlert(ctx context.Context, id string) (*entities.Alert, error) {
	var alert entities.Alert
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert %s: %w", id, err)
	}
	return &alert, nil
}

// ListAlerts returns alerts matching the filter, newest first.
func (r *alertRepository) ListAlerts(ctx context.Context, filter AlertFilter) ([]entities.Alert, error) {
	var alerts []entities.Alert
	query := r.db.WithContext(ctx).Model(&entities.Alert{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Order("created_at DESC").Order("id ASC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// SaveDeliveryResults attaches the delivery tally and sent timestamp.
func (r *alertRepository) SaveDeliveryResults(ctx context.Context, id string, results entities.DeliveryResults, sentAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Alert{ID: id}).Updates(entities.Alert{
		DeliveryResults: &results,
		SentAt:          &sentAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to save delivery results for alert %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// UpdateStatus sets the status and overwrites the resolution columns,
// including writing NULL when the update carries nil values.
func (r *alertRepository) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	result := r.db.WithContext(ctx).Model(&entities.Alert{}).Where("id = ?", id).Updates(map[string]any{
		"status":      update.Status,
		"resolved_at": update.ResolvedAt,
		"resolved_by": update.ResolvedBy,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update status of alert %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// AddResponse appends a responder record.
func (r *alertRepository) AddResponse(ctx context.Context, response *entities.AlertResponse) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to add response to alert %s: %w", response.AlertID, err)
	}
	return nil
}

// ListResponses returns an alert's responses in the order they were added.
func (r *alertRepository) ListResponses(ctx context.Context, alertID string) ([]entities.AlertResponse, error) {
	var responses []entities.AlertResponse
	if err := r.db.WithContext(ctx).Where("alert_id = ?", alertID).Order("id ASC").Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list responses for alert %s: %w", alertID, err)
	}
	return responses, nil
}
