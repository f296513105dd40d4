package alerting

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/k3a/html2text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/notification"
)

// smsMaxRunes is the length of a single SMS segment.
const smsMaxRunes = 160

//go:embed templates/email.html
var emailTemplateSource string

var emailTemplate = template.Must(template.New("email").Parse(emailTemplateSource))

type emailView struct {
	Subject       string
	Title         string
	Message       string
	TypeLabel     string
	SeverityLabel string
	Emoji         string
	Color         string
	Location      *entities.AlertLocation
	AlertID       string
	SentAt        string
}

// titleCase returns s with its first letter capitalized. A Caser is not safe
// for concurrent use, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.Dutch).String(s)
}

// emailSubject renders "<emoji> [<SEVERITY>] <Type>: <title>".
func emailSubject(alert *entities.Alert) string {
	return fmt.Sprintf("%s [%s] %s: %s",
		SeverityEmoji(alert.Severity), strings.ToUpper(alert.Severity), titleCase(alert.Type), alert.Title)
}

// renderEmail builds the message for one recipient address.
func renderEmail(alert *entities.Alert, to string, sentAt time.Time) (notification.EmailMessage, error) {
	subject := emailSubject(alert)
	view := emailView{
		Subject:       subject,
		Title:         alert.Title,
		Message:       alert.Message,
		TypeLabel:     titleCase(alert.Type),
		SeverityLabel: strings.ToUpper(alert.Severity),
		Emoji:         SeverityEmoji(alert.Severity),
		Color:         SeverityColor(alert.Severity),
		Location:      alert.Location,
		AlertID:       alert.ID,
		SentAt:        sentAt.Format("02-01-2006 15:04:05"),
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return notification.EmailMessage{}, fmt.Errorf("failed to render email for alert %s: %w", alert.ID, err)
	}
	html := buf.String()

	priority := notification.PriorityNormal
	if RequiresInteraction(alert.Severity) {
		priority = notification.PriorityHigh
	}

	return notification.EmailMessage{
		To:       to,
		Subject:  subject,
		HTML:     html,
		Text:     html2text.HTML2TextWithOptions(html, html2text.WithUnixLineBreaks()),
		Priority: priority,
	}, nil
}

// buildPush builds the web-push payload for one subscription.
func buildPush(alert *entities.Alert, user *entities.User) notification.PushMessage {
	return notification.PushMessage{
		UserID:             user.ID,
		Subscription:       user.PushSubscription,
		Title:              fmt.Sprintf("%s %s", SeverityEmoji(alert.Severity), alert.Title),
		Body:               alert.Message,
		Tag:                "alert-" + alert.ID,
		Vibrate:            VibrationPattern(alert.Severity),
		RequireInteraction: RequiresInteraction(alert.Severity),
		Data: map[string]any{
			"alertId":  alert.ID,
			"type":     alert.Type,
			"severity": alert.Severity,
			"url":      "/alerts/" + alert.ID,
		},
	}
}

// buildSMS builds a single-segment text for one phone number.
func buildSMS(alert *entities.Alert, phone string) notification.SMSMessage {
	body := fmt.Sprintf("%s %s: %s. %s", SeverityEmoji(alert.Severity), strings.ToUpper(alert.Severity), alert.Title, alert.Message)
	if loc := alert.Location; loc != nil && loc.Building != "" {
		body += " Locatie: " + loc.Building
		if loc.Floor != "" {
			body += ", verdieping " + loc.Floor
		}
	}
	return notification.SMSMessage{To: phone, Body: truncateRunes(body, smsMaxRunes)}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// buildBroadcast builds the single realtime message for all recipients.
func buildBroadcast(alert *entities.Alert, recipients []entities.User, sentAt time.Time) notification.BroadcastMessage {
	ids := make([]string, len(recipients))
	for i := range recipients {
		ids[i] = recipients[i].ID
	}
	return notification.BroadcastMessage{
		Event:        EventAlertCreated,
		AlertID:      alert.ID,
		Type:         alert.Type,
		Severity:     alert.Severity,
		Title:        alert.Title,
		Message:      alert.Message,
		Location:     alert.Location,
		RecipientIDs: ids,
		SentAt:       sentAt,
	}
}
