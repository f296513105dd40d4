// Package notification delivers alerts to the external channel services and
// triggers facility automation.
package notification

import (
	"time"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
)

// BroadcastMessage is a single realtime fan-out covering every recipient.
type BroadcastMessage struct {
	Event        string                  `json:"event"`
	AlertID      string                  `json:"alertId"`
	Type         string                  `json:"type,omitempty"`
	Severity     string                  `json:"severity,omitempty"`
	Title        string                  `json:"title,omitempty"`
	Message      string                  `json:"message,omitempty"`
	Status       string                  `json:"status,omitempty"`
	Location     *entities.AlertLocation `json:"location,omitempty"`
	RecipientIDs []string                `json:"recipientIds,omitempty"`
	SentAt       time.Time               `json:"sentAt"`
}

// PushMessage is one web-push notification for one subscription.
type PushMessage struct {
	UserID             string         `json:"userId"`
	Subscription       string         `json:"subscription"`
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	Tag                string         `json:"tag"`
	Vibrate            []int          `json:"vibrate"`
	RequireInteraction bool           `json:"requireInteraction"`
	Data               map[string]any `json:"data,omitempty"`
}

// EmailMessage is one rendered email.
type EmailMessage struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Priority string `json:"priority"`
}

// SMSMessage is one text message.
type SMSMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Email priorities.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// ActionRequest asks a facility system to perform an automated action.
type ActionRequest struct {
	Action   string                  `json:"action"`
	AlertID  string                  `json:"alertId"`
	Type     string                  `json:"type"`
	Severity string                  `json:"severity"`
	Title    string                  `json:"title"`
	Message  string                  `json:"message"`
	Location *entities.AlertLocation `json:"location,omitempty"`
}
