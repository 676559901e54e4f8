package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
)

type mockRepository struct {
	mu          sync.Mutex
	subscribers []domain.Subscriber
	nextID      int
	err         error
}

func newMockRepository() *mockRepository {
	return &mockRepository{}
}

func (m *mockRepository) ListSubscribers(_ context.Context) ([]domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Subscriber{}, m.subscribers...), nil
}

func (m *mockRepository) CreateSubscriber(_ context.Context, subscriber *domain.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, s := range m.subscribers {
		if strings.EqualFold(s.Email, subscriber.Email) {
			return ErrSubscriberExists
		}
	}
	m.nextID++
	subscriber.ID = fmt.Sprintf("subscriber-%d", m.nextID)
	subscriber.CreatedAt = time.Date(2026, 1, 1, 0, m.nextID, 0, 0, time.UTC)
	m.subscribers = append(m.subscribers, *subscriber)
	return nil
}

func (m *mockRepository) DeleteSubscriber(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, s := range m.subscribers {
		if s.ID == id {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return nil
		}
	}
	return ErrSubscriberNotFound
}

// mockSender records messages and fails for addresses in failFor.
type mockSender struct {
	mu      sync.Mutex
	sent    []Message
	failFor map[string]bool
}

func (m *mockSender) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockSender) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
