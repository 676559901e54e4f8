// Package notifications manages email subscribers and notifies them about
// incident changes.
package notifications

import (
	"context"

	"github.com/bissquit/statusboard/internal/domain"
)

// Repository defines the interface for subscriber data access.
type Repository interface {
	ListSubscribers(ctx context.Context) ([]domain.Subscriber, error)
	CreateSubscriber(ctx context.Context, subscriber *domain.Subscriber) error
	DeleteSubscriber(ctx context.Context, id string) error
}

// Message is one rendered email addressed to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
