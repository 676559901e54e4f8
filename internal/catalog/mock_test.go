package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
)

// mockRepository is an in-memory Repository for testing.
type mockRepository struct {
	components []*domain.Component
	log        []domain.ComponentStatusLogEntry
	nextID     int
	now        time.Time
	err        error
}

func newMockRepository() *mockRepository {
	return &mockRepository{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *mockRepository) tick() time.Time {
	m.now = m.now.Add(time.Minute)
	return m.now
}

func (m *mockRepository) ListComponents(_ context.Context, filter ComponentFilter) ([]domain.Component, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make([]domain.Component, 0)
	for _, c := range m.components {
		if filter.Type != nil && c.Type != *filter.Type {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockRepository) GetComponent(_ context.Context, id string) (*domain.Component, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.components {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrComponentNotFound
}

func (m *mockRepository) GetComponentsByIDs(_ context.Context, ids []string) ([]domain.Component, error) {
	result := make([]domain.Component, 0)
	for _, c := range m.components {
		for _, id := range ids {
			if c.ID == id {
				result = append(result, *c)
			}
		}
	}
	return result, nil
}

func (m *mockRepository) CountComponents(_ context.Context) (int, error) {
	return len(m.components), m.err
}

func (m *mockRepository) CreateComponent(_ context.Context, component *domain.Component) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	component.ID = fmt.Sprintf("component-%d", m.nextID)
	component.CreatedAt = m.tick()
	component.UpdatedAt = component.CreatedAt
	cp := *component
	m.components = append(m.components, &cp)
	m.log = append(m.log, domain.ComponentStatusLogEntry{
		ComponentID: component.ID,
		NewStatus:   component.Status,
		CreatedAt:   component.CreatedAt,
	})
	return nil
}

func (m *mockRepository) UpdateComponent(_ context.Context, component *domain.Component, oldStatus domain.ComponentStatus) error {
	if m.err != nil {
		return m.err
	}
	for i, c := range m.components {
		if c.ID != component.ID {
			continue
		}
		component.UpdatedAt = m.tick()
		cp := *component
		m.components[i] = &cp
		if oldStatus != component.Status {
			old := oldStatus
			m.log = append(m.log, domain.ComponentStatusLogEntry{
				ComponentID: component.ID,
				OldStatus:   &old,
				NewStatus:   component.Status,
				CreatedAt:   component.UpdatedAt,
			})
		}
		return nil
	}
	return ErrComponentNotFound
}

func (m *mockRepository) DeleteComponent(_ context.Context, id string) error {
	for i, c := range m.components {
		if c.ID == id {
			m.components = append(m.components[:i], m.components[i+1:]...)
			return nil
		}
	}
	return ErrComponentNotFound
}

func (m *mockRepository) ListStatusLog(_ context.Context, componentID string, since time.Time) ([]domain.ComponentStatusLogEntry, error) {
	var before *domain.ComponentStatusLogEntry
	result := make([]domain.ComponentStatusLogEntry, 0)
	for i, e := range m.log {
		if e.ComponentID != componentID {
			continue
		}
		if !e.CreatedAt.After(since) {
			before = &m.log[i]
			continue
		}
		result = append(result, e)
	}
	if before != nil {
		result = append([]domain.ComponentStatusLogEntry{*before}, result...)
	}
	return result, nil
}

type countingObserver struct {
	calls int
}

func (o *countingObserver) ComponentsChanged(context.Context) {
	o.calls++
}
