package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
)

// mockRepository is an in-memory Repository for testing.
type mockRepository struct {
	incidents []*domain.Incident
	nextID    int
	clock     time.Time
	err       error
}

func newMockRepository() *mockRepository {
	return &mockRepository{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *mockRepository) ListIncidents(_ context.Context) ([]domain.Incident, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make([]domain.Incident, 0, len(m.incidents))
	for i := len(m.incidents) - 1; i >= 0; i-- {
		result = append(result, clone(m.incidents[i]))
	}
	return result, nil
}

func (m *mockRepository) GetIncident(_ context.Context, id string) (*domain.Incident, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, inc := range m.incidents {
		if inc.ID == id {
			c := clone(inc)
			return &c, nil
		}
	}
	return nil, ErrIncidentNotFound
}

func (m *mockRepository) CreateIncident(_ context.Context, incident *domain.Incident) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	incident.ID = fmt.Sprintf("incident-%d", m.nextID)
	incident.CreatedAt = m.clock
	incident.UpdatedAt = m.clock
	c := clone(incident)
	m.incidents = append(m.incidents, &c)
	return nil
}

func (m *mockRepository) AppendUpdate(_ context.Context, id string, update domain.IncidentUpdate) (*domain.Incident, error) {
	for _, inc := range m.incidents {
		if inc.ID == id {
			inc.Updates = append(inc.Updates, update)
			inc.SyncStatus(update.CreatedAt)
			c := clone(inc)
			return &c, nil
		}
	}
	return nil, ErrIncidentNotFound
}

func (m *mockRepository) SaveIncident(_ context.Context, incident *domain.Incident) error {
	for i, inc := range m.incidents {
		if inc.ID == incident.ID {
			c := clone(incident)
			m.incidents[i] = &c
			return nil
		}
	}
	return ErrIncidentNotFound
}

func (m *mockRepository) DeleteIncident(_ context.Context, id string) error {
	for i, inc := range m.incidents {
		if inc.ID == id {
			m.incidents = append(m.incidents[:i], m.incidents[i+1:]...)
			return nil
		}
	}
	return ErrIncidentNotFound
}

func clone(inc *domain.Incident) domain.Incident {
	c := *inc
	c.Updates = append([]domain.IncidentUpdate(nil), inc.Updates...)
	c.ComponentIDs = append([]string(nil), inc.ComponentIDs...)
	return c
}

// mockComponents implements ComponentLookup over a fixed set.
type mockComponents map[string]string

func (m mockComponents) GetComponentsByIDs(_ context.Context, ids []string) ([]domain.Component, error) {
	result := make([]domain.Component, 0)
	for _, id := range ids {
		if name, ok := m[id]; ok {
			result = append(result, domain.Component{ID: id, Name: name})
		}
	}
	return result, nil
}

type recordingObserver struct {
	changes []domain.IncidentChange
}

func (o *recordingObserver) IncidentChanged(_ context.Context, change domain.IncidentChange) {
	o.changes = append(o.changes, change)
}

func (o *recordingObserver) actions() []domain.IncidentAction {
	actions := make([]domain.IncidentAction, len(o.changes))
	for i, c := range o.changes {
		actions[i] = c.Action
	}
	return actions
}
