// Package postgres provides PostgreSQL implementation of the incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/incidents"
	"github.com/bissquit/statusboard/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const incidentColumns = `id, name, status, updates, component_ids, created_at, updated_at, resolved_at`

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListIncidents retrieves all incidents, newest first.
func (r *Repository) ListIncidents(ctx context.Context) ([]domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Incident, 0)
	for rows.Next() {
		var incident domain.Incident
		if err := scanIncident(rows, &incident); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		result = append(result, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return result, nil
}

// GetIncident retrieves an incident by ID.
func (r *Repository) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	if !postgres.IsUUID(id) {
		return nil, incidents.ErrIncidentNotFound
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	var incident domain.Incident
	if err := scanIncident(r.db.QueryRow(ctx, query, id), &incident); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return &incident, nil
}

// CreateIncident inserts a new incident.
func (r *Repository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (name, status, updates, component_ids, resolved_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.Name,
		incident.Status,
		incident.Updates,
		incident.ComponentIDs,
		incident.ResolvedAt,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// AppendUpdate appends update and derives status and resolved_at from it in
// one statement, so concurrent appends cannot lose each other.
func (r *Repository) AppendUpdate(ctx context.Context, id string, update domain.IncidentUpdate) (*domain.Incident, error) {
	if !postgres.IsUUID(id) {
		return nil, incidents.ErrIncidentNotFound
	}

	query := `
		UPDATE incidents
		SET updates = updates || $2::jsonb,
		    status = $3,
		    resolved_at = CASE
		        WHEN $4 THEN COALESCE(resolved_at, NOW())
		        ELSE NULL
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + incidentColumns

	var incident domain.Incident
	err := scanIncident(r.db.QueryRow(ctx, query,
		id,
		[]domain.IncidentUpdate{update},
		string(update.Status),
		update.Status == domain.IncidentStatusResolved,
	), &incident)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("append incident update: %w", err)
	}
	return &incident, nil
}

// SaveIncident overwrites the mutable fields of an incident.
func (r *Repository) SaveIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET name = $2, status = $3, updates = $4, component_ids = $5, resolved_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.ID,
		incident.Name,
		incident.Status,
		incident.Updates,
		incident.ComponentIDs,
		incident.ResolvedAt,
	).Scan(&incident.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return incidents.ErrIncidentNotFound
		}
		return fmt.Errorf("save incident: %w", err)
	}
	return nil
}

// DeleteIncident deletes an incident.
func (r *Repository) DeleteIncident(ctx context.Context, id string) error {
	if !postgres.IsUUID(id) {
		return incidents.ErrIncidentNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if result.RowsAffected() == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}

func scanIncident(row pgx.Row, incident *domain.Incident) error {
	err := row.Scan(
		&incident.ID,
		&incident.Name,
		&incident.Status,
		&incident.Updates,
		&incident.ComponentIDs,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ResolvedAt,
	)
	if err != nil {
		return err
	}
	if incident.Updates == nil {
		incident.Updates = []domain.IncidentUpdate{}
	}
	if incident.ComponentIDs == nil {
		incident.ComponentIDs = []string{}
	}
	return nil
}
