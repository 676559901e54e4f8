package statuspage

import (
	"context"
	"sync"

	"github.com/bissquit/statusboard/internal/catalog"
	"github.com/bissquit/statusboard/internal/domain"
)

type mockSource struct {
	mu         sync.Mutex
	components []domain.Component
	incidents  []domain.Incident
	err        error
}

func (m *mockSource) ListComponents(_ context.Context, _ catalog.ComponentFilter) ([]domain.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Component(nil), m.components...), nil
}

func (m *mockSource) ListIncidents(_ context.Context) ([]domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Incident(nil), m.incidents...), nil
}

func (m *mockSource) setComponents(components ...domain.Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = components
}
