package alerting

import "slices"

// SeverityRank orders severities: info < warning < critical < fatal.
// Unknown values rank below info.
func SeverityRank(severity string) int {
	return slices.Index(severities, severity)
}

// AtLeast reports whether severity is at or above threshold.
func AtLeast(severity, threshold string) bool {
	r := SeverityRank(severity)
	return r >= 0 && r >= SeverityRank(threshold)
}

// SeverityEmoji prefixes push titles and email subjects.
func SeverityEmoji(severity string) string {
	switch severity {
	case SeverityWarning:
		return "⚠️"
	case SeverityCritical:
		return "🚨"
	case SeverityFatal:
		return "🆘"
	default:
		return "ℹ️"
	}
}

// VibrationPattern returns the push vibration pattern in milliseconds.
// Higher severities vibrate longer and more often.
func VibrationPattern(severity string) []int {
	switch severity {
	case SeverityWarning:
		return []int{200, 100, 200}
	case SeverityCritical:
		return []int{500, 200, 500, 200, 500}
	case SeverityFatal:
		return []int{1000, 200, 1000, 200, 1000, 200, 1000}
	default:
		return []int{200}
	}
}

// SeverityColor is the accent color of the email template.
func SeverityColor(severity string) string {
	switch severity {
	case SeverityWarning:
		return "#f59e0b"
	case SeverityCritical:
		return "#dc2626"
	case SeverityFatal:
		return "#7f1d1d"
	default:
		return "#2563eb"
	}
}

// RequiresInteraction reports whether a push must stay until dismissed.
func RequiresInteraction(severity string) bool {
	return AtLeast(severity, SeverityCritical)
}

// SMSEligible reports whether the severity is delivered by SMS at all.
func SMSEligible(severity string) bool {
	return AtLeast(severity, SeverityCritical)
}
