package actions

import (
	"context"
	"fmt"
	"sync"
)

// ServiceManager applies operations to managed services. Implementations
// talk to the platform's orchestration layer; the simulated manager
// stands in where no orchestrator is wired up.
type ServiceManager interface {
	Restart(ctx context.Context, service string) (string, error)
	Scale(ctx context.Context, service string, amount int) (string, error)
	UpdateConfig(ctx context.Context, service string, config map[string]any) (string, error)
	Diagnose(ctx context.Context, service string) (string, error)
}

type serviceState struct {
	Status    string
	Version   string
	Instances int
	Config    map[string]any
}

// SimulatedManager is an in-memory ServiceManager over a fixed service
// inventory. It tracks instance counts and config changes so repeated
// actions observe each other's effects.
type SimulatedManager struct {
	mu       sync.Mutex
	services map[string]*serviceState
}

// NewSimulatedManager creates a manager seeded with the default inventory.
func NewSimulatedManager() *SimulatedManager {
	return &SimulatedManager{
		services: map[string]*serviceState{
			"api-gateway": {
				Status:    "running",
				Version:   "1.5.2",
				Instances: 3,
				Config: map[string]any{
					"thread_pool_size": 25,
					"max_connections":  500,
					"timeout_ms":       3000,
					"rate_limit":       1000,
				},
			},
			"database": {
				Status:    "running",
				Version:   "PostgreSQL 14.2",
				Instances: 1,
				Config: map[string]any{
					"max_connections": 200,
					"shared_buffers":  "2GB",
					"work_mem":        "128MB",
				},
			},
			"message-queue": {
				Status:    "running",
				Version:   "RabbitMQ 3.9.13",
				Instances: 2,
				Config: map[string]any{
					"queue_mode":     "lazy",
					"prefetch_count": 50,
					"max_length":     100000,
				},
			},
			"auth-service": {
				Status:    "running",
				Version:   "2.1.0",
				Instances: 2,
				Config: map[string]any{
					"token_expiry":       3600,
					"max_login_attempts": 5,
					"rate_limit":         500,
				},
			},
		},
	}
}

func (m *SimulatedManager) get(service string) (*serviceState, error) {
	s, ok := m.services[service]
	if !ok {
		return nil, fmt.Errorf("service %q not found", service)
	}
	return s, nil
}

// Restart simulates a service restart.
func (m *SimulatedManager) Restart(_ context.Context, service string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(service)
	if err != nil {
		return "", err
	}
	s.Status = "running"
	return fmt.Sprintf("Service %s restarted successfully", service), nil
}

// Scale changes the instance count by amount. Scaling below one instance
// is rejected.
func (m *SimulatedManager) Scale(_ context.Context, service string, amount int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(service)
	if err != nil {
		return "", err
	}
	if s.Instances+amount < 1 {
		return "", fmt.Errorf("cannot scale %s below 1 instance", service)
	}
	s.Instances += amount

	direction := "up"
	if amount < 0 {
		direction = "down"
	}
	return fmt.Sprintf("Scaled %s %s to %d instances", service, direction, s.Instances), nil
}

// UpdateConfig merges config into the service configuration.
func (m *SimulatedManager) UpdateConfig(_ context.Context, service string, config map[string]any) (string, error) {
	if len(config) == 0 {
		return "", fmt.Errorf("no configuration updates specified")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(service)
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(config))
	for k, v := range config {
		s.Config[k] = v
		keys = append(keys, k)
	}
	return fmt.Sprintf("Updated configuration for %s: %v", service, keys), nil
}

// Diagnose returns a summary of the service state.
func (m *SimulatedManager) Diagnose(_ context.Context, service string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.get(service)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"Diagnostic results for %s:\nStatus: %s\nVersion: %s\nInstances: %d",
		service, s.Status, s.Version, s.Instances,
	), nil
}
