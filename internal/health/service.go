package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/ctxlog"
)

// IncidentLister provides the unresolved incidents used for aggregate
// component health. Implemented by the incidents repository.
type IncidentLister interface {
	ListUnresolved(ctx context.Context) ([]*domain.Incident, error)
}

// Service evaluates health checks.
type Service struct {
	source    MetricsSource
	incidents IncidentLister
}

// NewService creates a health service.
func NewService(source MetricsSource, incidents IncidentLister) *Service {
	return &Service{source: source, incidents: incidents}
}

// CheckComponent snapshots the component's metrics and classifies its
// health against the component-class thresholds.
func (s *Service) CheckComponent(ctx context.Context, component string) (*domain.HealthCheckResult, error) {
	metrics, err := s.source.Metrics(ctx, component)
	if err != nil {
		return nil, fmt.Errorf("fetch metrics for %s: %w", component, err)
	}

	result := &domain.HealthCheckResult{
		Component: component,
		Metrics:   metrics,
		CheckedAt: time.Now().UTC(),
	}

	if len(metrics) == 0 {
		result.Status = domain.HealthStatusHealthy
		result.Message = fmt.Sprintf("no metrics available for component %s", component)
		return result, nil
	}

	result.Status, result.Message = classify(component, metricMap(metrics))
	annotateThresholds(component, result.Metrics)

	ctxlog.FromContext(ctx).Debug("health check evaluated",
		"component", component,
		"status", result.Status,
	)
	return result, nil
}

// ComponentsHealth aggregates component health from unresolved incidents.
// A component with any unresolved critical incident is unhealthy, with
// any unresolved high incident degraded, otherwise healthy. Monitored
// components with no incidents are included as healthy.
func (s *Service) ComponentsHealth(ctx context.Context) ([]domain.ComponentHealth, error) {
	incidents, err := s.incidents.ListUnresolved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unresolved incidents: %w", err)
	}

	byComponent := make(map[string]*domain.ComponentHealth)

	components, err := s.source.Components(ctx)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	for _, name := range components {
		byComponent[name] = &domain.ComponentHealth{
			Component: name,
			Status:    domain.HealthStatusHealthy,
		}
	}

	for _, inc := range incidents {
		ch, ok := byComponent[inc.Component]
		if !ok {
			ch = &domain.ComponentHealth{
				Component: inc.Component,
				Status:    domain.HealthStatusHealthy,
			}
			byComponent[inc.Component] = ch
		}
		ch.OpenIncidents++

		switch inc.Severity {
		case domain.IncidentSeverityCritical:
			ch.Status = domain.HealthStatusUnhealthy
		case domain.IncidentSeverityHigh:
			if ch.Status != domain.HealthStatusUnhealthy {
				ch.Status = domain.HealthStatusDegraded
			}
		}
	}

	out := make([]domain.ComponentHealth, 0, len(byComponent))
	for _, ch := range byComponent {
		out = append(out, *ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out, nil
}

// classify applies per-component-class thresholds. Components without a
// known class are healthy as long as metrics exist.
func classify(component string, m map[string]float64) (domain.HealthStatus, string) {
	switch component {
	case "api-gateway":
		cpu, errRate := m["cpu_usage"], m["error_rate"]
		switch {
		case cpu > 80 || errRate > 5:
			return domain.HealthStatusUnhealthy,
				fmt.Sprintf("cpu %.0f%% and error rate %.1f%% exceed critical thresholds", cpu, errRate)
		case cpu > 60 || errRate > 2:
			return domain.HealthStatusDegraded,
				fmt.Sprintf("cpu %.0f%% or error rate %.1f%% above warning thresholds", cpu, errRate)
		}
		return domain.HealthStatusHealthy, "metrics within normal range"

	case "database":
		used, max := m["connection_pool.used"], m["connection_pool.max"]
		var usage float64
		if max > 0 {
			usage = used / max * 100
		}
		switch {
		case usage > 90:
			return domain.HealthStatusUnhealthy,
				fmt.Sprintf("connection pool at %.0f%% capacity", usage)
		case usage > 70:
			return domain.HealthStatusDegraded,
				fmt.Sprintf("connection pool at %.0f%% capacity", usage)
		}
		return domain.HealthStatusHealthy, "metrics within normal range"

	case "message-queue":
		depth := m["queue_depth"]
		switch {
		case depth > 10000:
			return domain.HealthStatusUnhealthy,
				fmt.Sprintf("queue depth %.0f exceeds critical threshold", depth)
		case depth > 5000:
			return domain.HealthStatusDegraded,
				fmt.Sprintf("queue depth %.0f above warning threshold", depth)
		}
		return domain.HealthStatusHealthy, "metrics within normal range"
	}

	return domain.HealthStatusHealthy, "no thresholds defined for component, metrics collected only"
}

// annotateThresholds attaches the critical threshold to the metrics that
// drive classification, for display alongside the values.
func annotateThresholds(component string, metrics []domain.HealthMetric) {
	thresholds := map[string]float64{}
	switch component {
	case "api-gateway":
		thresholds["cpu_usage"] = 80
		thresholds["error_rate"] = 5
	case "message-queue":
		thresholds["queue_depth"] = 10000
	}

	for i := range metrics {
		if t, ok := thresholds[metrics[i].Name]; ok {
			v := t
			metrics[i].Threshold = &v
		}
	}
}

func metricMap(metrics []domain.HealthMetric) map[string]float64 {
	m := make(map[string]float64, len(metrics))
	for _, metric := range metrics {
		m[metric.Name] = metric.Value
	}
	return m
}
