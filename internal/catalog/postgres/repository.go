// Package postgres provides PostgreSQL implementation of the catalog repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bissquit/statusboard/internal/catalog"
	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const componentColumns = `id, name, description, status, type, created_at, updated_at`

// Repository implements the catalog.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListComponents retrieves components in insertion order.
func (r *Repository) ListComponents(ctx context.Context, filter catalog.ComponentFilter) ([]domain.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM components`
	args := []any{}

	if filter.Type != nil {
		query += ` WHERE type = $1`
		args = append(args, *filter.Type)
	}
	query += ` ORDER BY created_at, id`

	return r.queryComponents(ctx, query, args...)
}

// GetComponentsByIDs retrieves the components whose ids are in ids.
func (r *Repository) GetComponentsByIDs(ctx context.Context, ids []string) ([]domain.Component, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if postgres.IsUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []domain.Component{}, nil
	}

	query := `SELECT ` + componentColumns + ` FROM components WHERE id = ANY($1::uuid[]) ORDER BY created_at, id`
	return r.queryComponents(ctx, query, valid)
}

func (r *Repository) queryComponents(ctx context.Context, query string, args ...any) ([]domain.Component, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	defer rows.Close()

	components := make([]domain.Component, 0)
	for rows.Next() {
		var c domain.Component
		if err := scanComponent(rows, &c); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}
	return components, nil
}

// GetComponent retrieves a component by its ID.
func (r *Repository) GetComponent(ctx context.Context, id string) (*domain.Component, error) {
	if !postgres.IsUUID(id) {
		return nil, catalog.ErrComponentNotFound
	}

	query := `SELECT ` + componentColumns + ` FROM components WHERE id = $1`
	var c domain.Component
	if err := scanComponent(r.db.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrComponentNotFound
		}
		return nil, fmt.Errorf("get component: %w", err)
	}
	return &c, nil
}

// CountComponents returns the number of components.
func (r *Repository) CountComponents(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM components`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}
	return count, nil
}

// CreateComponent inserts a component and logs its initial status.
func (r *Repository) CreateComponent(ctx context.Context, component *domain.Component) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO components (name, description, status, type)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			component.Name,
			component.Description,
			component.Status,
			component.Type,
		).Scan(&component.ID, &component.CreatedAt, &component.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert component: %w", err)
		}

		return createStatusLogEntry(ctx, tx, component.ID, nil, component.Status, component.CreatedAt)
	})
}

// UpdateComponent writes the component and logs a status change if any.
func (r *Repository) UpdateComponent(ctx context.Context, component *domain.Component, oldStatus domain.ComponentStatus) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE components
			SET name = $2, description = $3, status = $4, type = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		err := tx.QueryRow(ctx, query,
			component.ID,
			component.Name,
			component.Description,
			component.Status,
			component.Type,
		).Scan(&component.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return catalog.ErrComponentNotFound
			}
			return fmt.Errorf("update component: %w", err)
		}

		if oldStatus == component.Status {
			return nil
		}
		return createStatusLogEntry(ctx, tx, component.ID, &oldStatus, component.Status, component.UpdatedAt)
	})
}

// DeleteComponent deletes a component; its status log cascades.
func (r *Repository) DeleteComponent(ctx context.Context, id string) error {
	if !postgres.IsUUID(id) {
		return catalog.ErrComponentNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM components WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete component: %w", err)
	}
	if result.RowsAffected() == 0 {
		return catalog.ErrComponentNotFound
	}
	return nil
}

// ListStatusLog returns the status in effect at since followed by later changes.
func (r *Repository) ListStatusLog(ctx context.Context, componentID string, since time.Time) ([]domain.ComponentStatusLogEntry, error) {
	query := `
		(SELECT id, component_id, old_status, new_status, created_at
		 FROM component_status_log
		 WHERE component_id = $1 AND created_at <= $2
		 ORDER BY created_at DESC
		 LIMIT 1)
		UNION ALL
		(SELECT id, component_id, old_status, new_status, created_at
		 FROM component_status_log
		 WHERE component_id = $1 AND created_at > $2)
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, componentID, since)
	if err != nil {
		return nil, fmt.Errorf("list status log: %w", err)
	}
	defer rows.Close()

	result := make([]domain.ComponentStatusLogEntry, 0)
	for rows.Next() {
		var entry domain.ComponentStatusLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ComponentID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan status log entry: %w", err)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func createStatusLogEntry(ctx context.Context, tx pgx.Tx, componentID string, oldStatus *domain.ComponentStatus, newStatus domain.ComponentStatus, at time.Time) error {
	query := `
		INSERT INTO component_status_log (component_id, old_status, new_status, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, componentID, oldStatus, newStatus, at); err != nil {
		return fmt.Errorf("create status log entry: %w", err)
	}
	return nil
}

func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanComponent(row pgx.Row, c *domain.Component) error {
	return row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Status,
		&c.Type,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}
