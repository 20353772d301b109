// Package mapping normalizes tool-native severities and vulnerability
// identifiers into the canonical severity scale and OWASP Top 10 tags.
// Everything in this package is a pure function of its inputs.
package mapping

import (
	"strings"

	"scanhub/pkg/models"
)

// DefaultSeverity is used when a native value is outside a tool's known vocabulary
const DefaultSeverity = models.SeverityMedium

// WebScanSeverity maps the web scanner's risk levels to the canonical scale
func WebScanSeverity(risk string) models.Severity {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "high":
		return models.SeverityHigh
	case "medium":
		return models.SeverityMedium
	case "low":
		return models.SeverityLow
	case "informational", "info":
		return models.SeverityInfo
	default:
		return DefaultSeverity
	}
}

// ScoreSeverity buckets a numeric CVSS-style score:
// >=9 critical, >=7 high, >=4 medium, else low.
func ScoreSeverity(score float64) models.Severity {
	switch {
	case score >= 9:
		return models.SeverityCritical
	case score >= 7:
		return models.SeverityHigh
	case score >= 4:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// ContainerSeverity maps the container scanner's fixed vocabulary 1:1,
// with UNKNOWN treated as low.
func ContainerSeverity(severity string) models.Severity {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case "CRITICAL":
		return models.SeverityCritical
	case "HIGH":
		return models.SeverityHigh
	case "MEDIUM":
		return models.SeverityMedium
	case "LOW", "UNKNOWN":
		return models.SeverityLow
	default:
		return DefaultSeverity
	}
}

// StaticSeverity maps the static analyzer's 3-level vocabulary
func StaticSeverity(severity string) models.Severity {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case "ERROR":
		return models.SeverityHigh
	case "WARNING":
		return models.SeverityMedium
	case "INFO":
		return models.SeverityLow
	default:
		return DefaultSeverity
	}
}

// AdvisorySeverity maps the source host's advisory severity vocabulary
func AdvisorySeverity(severity string) models.Severity {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "critical":
		return models.SeverityCritical
	case "high":
		return models.SeverityHigh
	case "moderate", "medium":
		return models.SeverityMedium
	case "low":
		return models.SeverityLow
	default:
		return DefaultSeverity
	}
}
