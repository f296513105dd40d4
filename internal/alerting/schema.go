package alerting

import "github.com/bhv-platform/bhv-go/internal/notification"

// Schema describes the values a dispatch form may offer.
type Schema struct {
	Types       []OptionSchema   `json:"types"`
	Severities  []SeveritySchema `json:"severities"`
	Statuses    []OptionSchema   `json:"statuses"`
	AutoActions []OptionSchema   `json:"autoActions"`
	Channels    []OptionSchema   `json:"channels"`
}

// OptionSchema is a selectable value with its display label.
type OptionSchema struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// SeveritySchema adds the delivery behavior derived from a severity.
type SeveritySchema struct {
	Name                string `json:"name"`
	Label               string `json:"label"`
	Rank                int    `json:"rank"`
	Emoji               string `json:"emoji"`
	Color               string `json:"color"`
	Vibrate             []int  `json:"vibrate"`
	RequiresInteraction bool   `json:"requiresInteraction"`
	SMS                 bool   `json:"sms"`
}

// GetSchema returns the alert catalog for the UI.
func GetSchema() Schema {
	return Schema{
		Types: []OptionSchema{
			{Name: TypeEmergency, Label: "Noodsituatie"},
			{Name: TypeEvacuation, Label: "Ontruiming"},
			{Name: TypeFire, Label: "Brand"},
			{Name: TypeMedical, Label: "Medisch"},
			{Name: TypeSecurity, Label: "Beveiliging"},
			{Name: TypeWeather, Label: "Weer"},
			{Name: TypeSystem, Label: "Systeem"},
		},
		Severities: []SeveritySchema{
			severitySchema(SeverityInfo, "Informatie"),
			severitySchema(SeverityWarning, "Waarschuwing"),
			severitySchema(SeverityCritical, "Kritiek"),
			severitySchema(SeverityFatal, "Levensbedreigend"),
		},
		Statuses: []OptionSchema{
			{Name: StatusActive, Label: "Actief"},
			{Name: StatusAcknowledged, Label: "Bevestigd"},
			{Name: StatusResolved, Label: "Opgelost"},
			{Name: StatusCancelled, Label: "Geannuleerd"},
		},
		AutoActions: []OptionSchema{
			{Name: notification.ActionLockDoors, Label: "Deuren vergrendelen"},
			{Name: notification.ActionActivateAlarms, Label: "Alarm activeren"},
			{Name: notification.ActionNotifyAuthorities, Label: "Hulpdiensten informeren"},
			{Name: notification.ActionStartEvacuation, Label: "Ontruiming starten"},
		},
		Channels: []OptionSchema{
			{Name: ChannelRealtime, Label: "Dashboard"},
			{Name: ChannelPush, Label: "Push"},
			{Name: ChannelEmail, Label: "E-mail"},
			{Name: ChannelSMS, Label: "SMS"},
		},
	}
}

func severitySchema(name, label string) SeveritySchema {
	return SeveritySchema{
		Name:                name,
		Label:               label,
		Rank:                SeverityRank(name),
		Emoji:               SeverityEmoji(name),
		Color:               SeverityColor(name),
		Vibrate:             VibrationPattern(name),
		RequiresInteraction: RequiresInteraction(name),
		SMS:                 SMSEligible(name),
	}
}
