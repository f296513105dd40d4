package entities

import "time"

// Alert is a dispatched emergency alert. Rows are never deleted by the service.
type Alert struct {
	ID              string           `gorm:"primaryKey;size:36" json:"id"`
	Type            string           `gorm:"size:20;not null;index:idx_alerts_filter,priority:2" json:"type"`
	Severity        string           `gorm:"size:20;not null;index:idx_alerts_filter,priority:3" json:"severity"`
	Title           string           `gorm:"size:255;not null" json:"title"`
	Message         string           `gorm:"type:text;not null" json:"message"`
	Location        *AlertLocation   `gorm:"serializer:json" json:"location,omitempty"`
	TargetAudience  TargetAudience   `gorm:"serializer:json" json:"targetAudience"`
	AutoActions     *AutoActions     `gorm:"serializer:json" json:"autoActions,omitempty"`
	ExpiresAt       *time.Time       `json:"expiresAt,omitempty"`
	Metadata        map[string]any   `gorm:"serializer:json" json:"metadata,omitempty"`
	Status          string           `gorm:"size:20;not null;default:active;index:idx_alerts_filter,priority:1" json:"status"`
	TargetUserCount int              `gorm:"not null;default:0" json:"targetUserCount"`
	DeliveryResults *DeliveryResults `gorm:"serializer:json" json:"deliveryResults,omitempty"`
	SentAt          *time.Time       `json:"sentAt,omitempty"`
	ResolvedAt      *time.Time       `json:"resolvedAt,omitempty"`
	ResolvedBy      *string          `gorm:"size:64" json:"resolvedBy,omitempty"`
	CreatedBy       string           `gorm:"size:64;default:''" json:"createdBy,omitempty"`
	CreatedAt       time.Time        `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for GORM.
func (Alert) TableName() string {
	return "alerts"
}

// AlertLocation pinpoints where an alert applies.
type AlertLocation struct {
	Building    string       `json:"building,omitempty"`
	Floor       string       `json:"floor,omitempty"`
	Room        string       `json:"room,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TargetAudience selects recipients. All and BHVOnly short-circuit; otherwise
// the lists are combined with OR.
type TargetAudience struct {
	All         bool     `json:"all,omitempty"`
	BHVOnly     bool     `json:"bhvOnly,omitempty"`
	CustomerIDs []string `json:"customerIds,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Locations   []string `json:"locations,omitempty"`
}

// HasSelectors reports whether any selector is set.
func (a TargetAudience) HasSelectors() bool {
	return a.All || a.BHVOnly || len(a.CustomerIDs) > 0 || len(a.Roles) > 0 || len(a.Locations) > 0
}

// AutoActions are facility automations to trigger alongside the alert.
type AutoActions struct {
	LockDoors         bool `json:"lockDoors,omitempty"`
	ActivateAlarms    bool `json:"activateAlarms,omitempty"`
	NotifyAuthorities bool `json:"notifyAuthorities,omitempty"`
	StartEvacuation   bool `json:"startEvacuation,omitempty"`
}

// Any reports whether at least one action is requested.
func (a *AutoActions) Any() bool {
	return a != nil && (a.LockDoors || a.ActivateAlarms || a.NotifyAuthorities || a.StartEvacuation)
}

// ChannelTally counts delivery outcomes on one channel.
type ChannelTally struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// DeliveryResults is the per-channel outcome of a dispatch.
type DeliveryResults struct {
	Realtime ChannelTally `json:"realtime"`
	Push     ChannelTally `json:"push"`
	Email    ChannelTally `json:"email"`
	SMS      ChannelTally `json:"sms"`
}
