// Package postgres provides PostgreSQL implementation of the subscriber repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/notifications"
	"github.com/bissquit/statusboard/internal/pkg/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements notifications.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListSubscribers returns subscribers in subscription order.
func (r *Repository) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email, created_at FROM subscribers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := make([]domain.Subscriber, 0)
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subscribers, nil
}

// CreateSubscriber inserts a subscriber.
func (r *Repository) CreateSubscriber(ctx context.Context, subscriber *domain.Subscriber) error {
	query := `INSERT INTO subscribers (email) VALUES ($1) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, subscriber.Email).Scan(&subscriber.ID, &subscriber.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return notifications.ErrSubscriberExists
		}
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}

// DeleteSubscriber deletes a subscriber by ID.
func (r *Repository) DeleteSubscriber(ctx context.Context, id string) error {
	if !postgres.IsUUID(id) {
		return notifications.ErrSubscriberNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notifications.ErrSubscriberNotFound
	}
	return nil
}
