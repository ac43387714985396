// Package domain defines the core types shared across modules.
package domain

import "time"

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

// Incident lifecycle: open -> analyzing -> in_progress -> resolved.
const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusAnalyzing  IncidentStatus = "analyzing"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
)

// IncidentSeverity represents the severity level of an incident.
type IncidentSeverity string

// Severity levels.
const (
	IncidentSeverityLow      IncidentSeverity = "low"
	IncidentSeverityMedium   IncidentSeverity = "medium"
	IncidentSeverityHigh     IncidentSeverity = "high"
	IncidentSeverityCritical IncidentSeverity = "critical"
)

// Incident represents a trackable unit of platform disruption.
type Incident struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Component       string           `json:"component"`
	AffectedService string           `json:"affected_service"`
	Severity        IncidentSeverity `json:"severity"`
	Status          IncidentStatus   `json:"status"`
	Resolution      string           `json:"resolution,omitempty"`
	Version         int              `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IsValid checks if the status is one of the four lifecycle states.
func (s IncidentStatus) IsValid() bool {
	return s == IncidentStatusOpen ||
		s == IncidentStatusAnalyzing ||
		s == IncidentStatusInProgress ||
		s == IncidentStatusResolved
}

// IsResolved reports whether the status is terminal.
func (s IncidentStatus) IsResolved() bool {
	return s == IncidentStatusResolved
}

// IsValid checks if the severity is one of the four enumerated levels.
func (s IncidentSeverity) IsValid() bool {
	return s == IncidentSeverityLow ||
		s == IncidentSeverityMedium ||
		s == IncidentSeverityHigh ||
		s == IncidentSeverityCritical
}
