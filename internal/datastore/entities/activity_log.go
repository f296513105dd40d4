package entities

import "time"

// ActivityLog is an append-only audit entry keyed by alert ID.
type ActivityLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AlertID   string         `gorm:"size:36;not null;index:idx_activity_alert_created,priority:1" json:"alertId"`
	Action    string         `gorm:"size:50;not null" json:"action"`
	ActorID   string         `gorm:"size:64;default:''" json:"actorId,omitempty"`
	Details   map[string]any `gorm:"serializer:json" json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_activity_alert_created,priority:2" json:"createdAt"`
}

// TableName returns the table name for GORM.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
