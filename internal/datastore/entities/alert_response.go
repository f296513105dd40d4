package entities

import "time"

// AlertResponse records a responder's free-text reply to an alert.
type AlertResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlertID   string    `gorm:"size:36;not null;index" json:"alertId"`
	UserID    string    `gorm:"size:64;not null" json:"userId"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	Status    string    `gorm:"size:20" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for GORM.
func (AlertResponse) TableName() string {
	return "alert_responses"
}
