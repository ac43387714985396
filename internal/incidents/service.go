package incidents

import (
	"context"
	"fmt"

	"github.com/opsdeck/opsdeck/internal/actions"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/ctxlog"
)

// Analyzer produces an incident analysis.
type Analyzer interface {
	Analyze(ctx context.Context, incident *domain.Incident) (*domain.Analysis, error)
}

// ActionExecutor runs allow-listed actions against a service.
type ActionExecutor interface {
	Registry() *actions.Registry
	Execute(ctx context.Context, actionID, service string, params map[string]any) (*domain.ActionResult, error)
}

// HealthChecker evaluates component health.
type HealthChecker interface {
	CheckComponent(ctx context.Context, component string) (*domain.HealthCheckResult, error)
}

// Service contains the incident workflow logic.
type Service struct {
	repo     Repository
	analyzer Analyzer
	executor ActionExecutor
	health   HealthChecker
}

// NewService creates an incidents service.
func NewService(repo Repository, analyzer Analyzer, executor ActionExecutor, health HealthChecker) *Service {
	return &Service{
		repo:     repo,
		analyzer: analyzer,
		executor: executor,
		health:   health,
	}
}

// Create registers a new incident in the open state.
func (s *Service) Create(ctx context.Context, incident *domain.Incident) error {
	incident.Status = domain.IncidentStatusOpen

	if err := s.repo.Create(ctx, incident); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("incident created",
		"incident_id", incident.ID,
		"component", incident.Component,
		"severity", incident.Severity,
	)
	return nil
}

// GetByID retrieves an incident.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves incidents matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*domain.Incident, error) {
	return s.repo.List(ctx, filter)
}

// Analyze runs the analysis workflow. The incident moves to "analyzing"
// before the model is called and stays there if the call fails; there is
// no rollback, a failed analysis is simply retried. Resolved incidents
// are terminal and cannot be re-analyzed.
func (s *Service) Analyze(ctx context.Context, id string) (*domain.Analysis, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if incident.Status.IsResolved() {
		return nil, ErrIncidentResolved
	}

	if incident.Status != domain.IncidentStatusAnalyzing {
		incident.Status = domain.IncidentStatusAnalyzing
		if err := s.repo.Update(ctx, incident); err != nil {
			return nil, err
		}
	}

	return s.analyzer.Analyze(ctx, incident)
}

// ExecuteAction runs an allow-listed action for the incident. A
// successful remediation moves the incident to "in_progress";
// diagnostics leave the status untouched.
func (s *Service) ExecuteAction(ctx context.Context, id, actionID string, params map[string]any) (*domain.ActionResult, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := incident.AffectedService
	if target == "" {
		target = incident.Component
	}

	result, err := s.executor.Execute(ctx, actionID, target, params)
	if err != nil {
		return nil, err
	}

	if result.Success && !incident.Status.IsResolved() {
		def, ok := s.executor.Registry().Get(actionID)
		if ok && def.Type.IsRemediation() && incident.Status != domain.IncidentStatusInProgress {
			incident.Status = domain.IncidentStatusInProgress
			if err := s.repo.Update(ctx, incident); err != nil {
				return nil, fmt.Errorf("record action progress: %w", err)
			}
		}
	}

	return result, nil
}

// HealthCheck evaluates the health of the incident's component.
func (s *Service) HealthCheck(ctx context.Context, id string) (*domain.HealthCheckResult, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.health.CheckComponent(ctx, incident.Component)
}

// Close resolves the incident. Closing an already resolved incident is
// a no-op returning the stored incident unchanged.
func (s *Service) Close(ctx context.Context, id, resolution string) (*domain.Incident, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if incident.Status.IsResolved() {
		return incident, nil
	}

	incident.Status = domain.IncidentStatusResolved
	incident.Resolution = resolution
	if incident.Resolution == "" {
		incident.Resolution = "Resolved by operator"
	}

	if err := s.repo.Update(ctx, incident); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("incident closed", "incident_id", incident.ID)
	return incident, nil
}
