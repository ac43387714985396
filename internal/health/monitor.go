// Package health evaluates component health from monitoring metrics and
// aggregates component status from unresolved incidents.
package health

import (
	"context"
	"sort"
	"sync"

	"github.com/opsdeck/opsdeck/internal/domain"
)

// MetricsSource provides a metrics snapshot for a component. A real
// deployment backs this with the monitoring system; the static source
// stands in where none is configured.
type MetricsSource interface {
	Metrics(ctx context.Context, component string) ([]domain.HealthMetric, error)
	Components(ctx context.Context) ([]string, error)
}

// StaticSource is an in-memory MetricsSource over a fixed snapshot.
// Values can be updated at runtime so remediation effects are visible
// to subsequent checks.
type StaticSource struct {
	mu    sync.RWMutex
	state map[string]map[string]float64
}

// NewStaticSource creates a source seeded with a representative
// degraded-platform snapshot.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		state: map[string]map[string]float64{
			"api-gateway": {
				"cpu_usage":        87,
				"memory_usage":     65,
				"request_rate":     420,
				"error_rate":       8.2,
				"response_time_ms": 350,
			},
			"database": {
				"cpu_usage":               72,
				"memory_usage":            85,
				"connection_pool.used":    180,
				"connection_pool.max":     200,
				"active_queries":          35,
				"query_execution_time_ms": 420,
			},
			"message-queue": {
				"cpu_usage":    45,
				"memory_usage": 60,
				"queue_depth":  10500,
				"consumer_lag": 3200,
				"publish_rate": 150,
				"consume_rate": 90,
			},
			"auth-service": {
				"cpu_usage":        30,
				"memory_usage":     40,
				"request_rate":     85,
				"error_rate":       0.5,
				"response_time_ms": 120,
			},
		},
	}
}

// Metrics returns the component's metrics sorted by name. Unknown
// components yield an empty slice.
func (s *StaticSource) Metrics(_ context.Context, component string) ([]domain.HealthMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.state[component]
	if !ok {
		return []domain.HealthMetric{}, nil
	}

	metrics := make([]domain.HealthMetric, 0, len(values))
	for name, value := range values {
		metrics = append(metrics, domain.HealthMetric{
			Name:  name,
			Value: value,
			Unit:  metricUnit(name),
		})
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })
	return metrics, nil
}

// Components returns the monitored component names, sorted.
func (s *StaticSource) Components(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.state))
	for name := range s.state {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Set updates a metric value for a component.
func (s *StaticSource) Set(component, metric string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state[component]; !ok {
		s.state[component] = make(map[string]float64)
	}
	s.state[component][metric] = value
}

func metricUnit(name string) string {
	switch name {
	case "cpu_usage", "memory_usage", "error_rate":
		return "percent"
	case "response_time_ms", "query_execution_time_ms":
		return "ms"
	case "request_rate", "publish_rate", "consume_rate":
		return "per_second"
	default:
		return "count"
	}
}
