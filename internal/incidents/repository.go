// Package incidents provides HTTP handlers and business logic for the
// incident workflow: create, analyze, execute actions, health-check and
// close.
package incidents

import (
	"context"
	"errors"

	"github.com/opsdeck/opsdeck/internal/domain"
)

// Module errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrIncidentResolved = errors.New("incident is already resolved")
	ErrVersionConflict  = errors.New("incident was modified concurrently")
)

// Filter narrows incident listings.
type Filter struct {
	Component *string
	Status    *domain.IncidentStatus
}

// Repository defines incident persistence. Update applies optimistic
// concurrency: it matches on the loaded version, bumps it on success and
// fails with ErrVersionConflict when another writer got there first.
type Repository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, filter Filter) ([]*domain.Incident, error)
	ListUnresolved(ctx context.Context) ([]*domain.Incident, error)
	Update(ctx context.Context, incident *domain.Incident) error
}
