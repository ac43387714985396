package actions

import (
	"context"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/ctxlog"
	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
)

// Executor runs allow-listed actions through a ServiceManager.
type Executor struct {
	registry *Registry
	manager  ServiceManager
}

// NewExecutor creates an executor.
func NewExecutor(registry *Registry, manager ServiceManager) *Executor {
	return &Executor{registry: registry, manager: manager}
}

// Registry returns the executor's action registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs the action identified by actionID against the service.
// Unknown IDs fail with ErrActionNotAllowed before anything runs.
// Manager failures are reported through the result, not an error, so a
// failed remediation still produces a recordable outcome.
func (e *Executor) Execute(ctx context.Context, actionID, service string, params map[string]any) (*domain.ActionResult, error) {
	def, ok := e.registry.Get(actionID)
	if !ok {
		return nil, ErrActionNotAllowed
	}

	log := ctxlog.FromContext(ctx)
	log.Info("executing action",
		"action_id", def.ID,
		"action_type", def.Type,
		"service", service,
	)

	var (
		output string
		err    error
	)
	switch def.Type {
	case domain.ActionTypeRestart:
		output, err = e.manager.Restart(ctx, service)
	case domain.ActionTypeScale:
		output, err = e.manager.Scale(ctx, service, scaleAmount(params))
	case domain.ActionTypeUpdateConfig:
		output, err = e.manager.UpdateConfig(ctx, service, configParams(params))
	case domain.ActionTypeDiagnostic:
		output, err = e.manager.Diagnose(ctx, service)
	default:
		return nil, ErrActionNotAllowed
	}

	if err != nil {
		metrics.ActionsExecuted.WithLabelValues(string(def.Type), "failure").Inc()
		log.Warn("action failed", "action_id", def.ID, "error", err)
		return &domain.ActionResult{Success: false, Message: err.Error()}, nil
	}

	metrics.ActionsExecuted.WithLabelValues(string(def.Type), "success").Inc()
	return &domain.ActionResult{Success: true, Message: output}, nil
}

func scaleAmount(params map[string]any) int {
	if params == nil {
		return 2
	}
	switch v := params["amount"].(type) {
	case int:
		return v
	case float64:
		// JSON numbers decode as float64.
		return int(v)
	}
	return 2
}

func configParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	if cfg, ok := params["config"].(map[string]any); ok {
		return cfg
	}
	return nil
}
