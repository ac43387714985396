package domain

import "time"

// HealthStatus classifies component health.
type HealthStatus string

// Health statuses.
const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthMetric is a single named measurement with an optional threshold.
type HealthMetric struct {
	Name      string   `json:"name"`
	Value     float64  `json:"value"`
	Unit      string   `json:"unit"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// HealthCheckResult is an on-demand health classification. It is computed
// per request and never stored.
type HealthCheckResult struct {
	Component string         `json:"component"`
	Status    HealthStatus   `json:"status"`
	Metrics   []HealthMetric `json:"metrics"`
	Message   string         `json:"message"`
	CheckedAt time.Time      `json:"checked_at"`
}

// ComponentHealth is the aggregate health of a component derived from its
// unresolved incidents.
type ComponentHealth struct {
	Component     string       `json:"component"`
	Status        HealthStatus `json:"status"`
	OpenIncidents int          `json:"open_incidents"`
}
