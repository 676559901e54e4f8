package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
)

// Service implements subscriber management.
type Service struct {
	repo Repository
}

// NewService creates a new notifications service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListSubscribers returns all subscribers.
func (s *Service) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	subscribers, err := s.repo.ListSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return subscribers, nil
}

// CreateSubscriber adds an email address. Addresses are compared case-insensitively.
func (s *Service) CreateSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	subscriber := &domain.Subscriber{Email: strings.ToLower(strings.TrimSpace(email))}
	if err := s.repo.CreateSubscriber(ctx, subscriber); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("subscriber added", "subscriber_id", subscriber.ID)
	return subscriber, nil
}

// DeleteSubscriber removes a subscriber.
func (s *Service) DeleteSubscriber(ctx context.Context, id string) error {
	return s.repo.DeleteSubscriber(ctx, id)
}
