package incidents

import (
	"context"

	"github.com/bissquit/statusboard/internal/domain"
)

// Repository defines the interface for incident storage. Every write is a
// single-row statement.
type Repository interface {
	// ListIncidents returns all incidents, newest first.
	ListIncidents(ctx context.Context) ([]domain.Incident, error)
	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	// AppendUpdate appends update and sets the top-level status from it.
	AppendUpdate(ctx context.Context, id string, update domain.IncidentUpdate) (*domain.Incident, error)
	// SaveIncident overwrites name, status, updates, component ids and resolved_at.
	SaveIncident(ctx context.Context, incident *domain.Incident) error
	DeleteIncident(ctx context.Context, id string) error
}

// ComponentLookup resolves component ids to existing components.
type ComponentLookup interface {
	GetComponentsByIDs(ctx context.Context, ids []string) ([]domain.Component, error)
}

// Observer is told about committed incident writes.
type Observer interface {
	IncidentChanged(ctx context.Context, change domain.IncidentChange)
}
