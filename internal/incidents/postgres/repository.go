// Package postgres provides the PostgreSQL implementation of the
// incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/incidents"
)

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts an incident and fills in generated fields.
func (r *Repository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (title, description, component, affected_service, severity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Component,
		incident.AffectedService,
		incident.Severity,
		incident.Status,
	).Scan(&incident.ID, &incident.Version, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// GetByID retrieves an incident by ID. Malformed IDs map to not-found
// instead of surfacing a cast error from the database.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, incidents.ErrIncidentNotFound
	}

	query := `
		SELECT id, title, description, component, affected_service, severity, status,
		       resolution, version, created_at, updated_at
		FROM incidents
		WHERE id = $1
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return incident, nil
}

// List retrieves incidents matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter incidents.Filter) ([]*domain.Incident, error) {
	query := `
		SELECT id, title, description, component, affected_service, severity, status,
		       resolution, version, created_at, updated_at
		FROM incidents
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Component != nil {
		args = append(args, *filter.Component)
		query += fmt.Sprintf(" AND component = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	return r.queryIncidents(ctx, query, args...)
}

// ListUnresolved retrieves all incidents that are not resolved.
func (r *Repository) ListUnresolved(ctx context.Context) ([]*domain.Incident, error) {
	query := `
		SELECT id, title, description, component, affected_service, severity, status,
		       resolution, version, created_at, updated_at
		FROM incidents
		WHERE status != 'resolved'
		ORDER BY created_at DESC
	`
	return r.queryIncidents(ctx, query)
}

// Update writes the incident's mutable fields guarded by its version.
// A version mismatch on an existing row yields ErrVersionConflict.
func (r *Repository) Update(ctx context.Context, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET status = $3, resolution = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.ID,
		incident.Version,
		incident.Status,
		incident.Resolution,
	).Scan(&incident.Version, &incident.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update incident: %w", err)
	}

	// No row matched: either the incident is gone or the version moved.
	var exists bool
	if err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM incidents WHERE id = $1)", incident.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	if !exists {
		return incidents.ErrIncidentNotFound
	}
	return incidents.ErrVersionConflict
}

func (r *Repository) queryIncidents(ctx context.Context, query string, args ...interface{}) ([]*domain.Incident, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		result = append(result, incident)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var incident domain.Incident
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Component,
		&incident.AffectedService,
		&incident.Severity,
		&incident.Status,
		&incident.Resolution,
		&incident.Version,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}
