package catalog

import (
	"context"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
)

// Repository defines the interface for component data operations.
type Repository interface {
	ListComponents(ctx context.Context, filter ComponentFilter) ([]domain.Component, error)
	GetComponent(ctx context.Context, id string) (*domain.Component, error)
	GetComponentsByIDs(ctx context.Context, ids []string) ([]domain.Component, error)
	CountComponents(ctx context.Context) (int, error)

	// CreateComponent inserts the component and its initial status log entry.
	CreateComponent(ctx context.Context, component *domain.Component) error
	// UpdateComponent writes all fields and logs a status change when the
	// status differs from oldStatus.
	UpdateComponent(ctx context.Context, component *domain.Component, oldStatus domain.ComponentStatus) error
	DeleteComponent(ctx context.Context, id string) error

	// ListStatusLog returns entries newer than since, preceded by the latest
	// entry at or before since (the status in effect at the window start).
	ListStatusLog(ctx context.Context, componentID string, since time.Time) ([]domain.ComponentStatusLogEntry, error)
}

// ComponentFilter represents filter criteria for listing components.
type ComponentFilter struct {
	Type *domain.ComponentType
}
