// Package incidents provides HTTP handlers and business logic for incidents
// and their update history.
package incidents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
	"github.com/bissquit/statusboard/internal/pkg/metrics"
	"github.com/google/uuid"
)

// Service implements incident business logic.
type Service struct {
	repo       Repository
	components ComponentLookup
	observers  []Observer
	now        func() time.Time
}

// NewService creates a new incident service.
func NewService(repo Repository, components ComponentLookup) *Service {
	return &Service{
		repo:       repo,
		components: components,
		now:        time.Now,
	}
}

// Subscribe registers an observer. Not safe for use once requests are served.
func (s *Service) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// CreateIncidentInput holds data for creating an incident.
type CreateIncidentInput struct {
	Name         string
	ComponentIDs []string
	Message      string
}

// AddUpdateInput holds data for appending an update.
type AddUpdateInput struct {
	Status  domain.IncidentStatus
	Message string
}

// UpdateIncidentInput holds the fields to change; nil fields are left as is.
// Updates replaces the whole history; otherwise Status and Message append one
// update.
type UpdateIncidentInput struct {
	Name         *string
	ComponentIDs *[]string
	Status       *domain.IncidentStatus
	Message      *string
	Updates      *[]domain.IncidentUpdate
}

// ListIncidents returns all incidents newest first with components resolved.
func (s *Service) ListIncidents(ctx context.Context) ([]domain.Incident, error) {
	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	ptrs := make([]*domain.Incident, len(incidents))
	for i := range incidents {
		ptrs[i] = &incidents[i]
	}
	if err := s.resolveComponents(ctx, ptrs...); err != nil {
		return nil, err
	}
	return incidents, nil
}

// GetIncident returns an incident by ID.
func (s *Service) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolveComponents(ctx, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// CreateIncident opens an incident in the investigating state with one seed update.
func (s *Service) CreateIncident(ctx context.Context, input CreateIncidentInput) (*domain.Incident, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	componentIDs, err := s.validateComponents(ctx, input.ComponentIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	incident := &domain.Incident{
		Name:         name,
		Status:       domain.IncidentStatusInvestigating,
		ComponentIDs: componentIDs,
		Updates: []domain.IncidentUpdate{{
			Status:    domain.IncidentStatusInvestigating,
			Message:   input.Message,
			CreatedAt: now,
		}},
	}

	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	if err := s.resolveComponents(ctx, incident); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("incident created", "incident_id", incident.ID)
	s.notify(ctx, domain.IncidentChange{
		Action:   domain.IncidentCreated,
		Incident: incident,
		Update:   incident.LatestUpdate(),
	})
	return incident, nil
}

// AddUpdate appends an update; the incident's status becomes the update's status.
func (s *Service) AddUpdate(ctx context.Context, id string, input AddUpdateInput) (*domain.Incident, error) {
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrMessageRequired
	}

	before, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}

	update := domain.IncidentUpdate{
		Status:    input.Status,
		Message:   input.Message,
		CreatedAt: s.now(),
	}
	incident, err := s.repo.AppendUpdate(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if err := s.resolveComponents(ctx, incident); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("incident update added", "incident_id", id, "status", update.Status)
	s.notify(ctx, domain.IncidentChange{
		Action:   changeAction(before.Status, incident.Status),
		Incident: incident,
		Update:   &update,
	})
	return incident, nil
}

// UpdateIncident applies a partial update. See UpdateIncidentInput.
func (s *Service) UpdateIncident(ctx context.Context, id string, input UpdateIncidentInput) (*domain.Incident, error) {
	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := incident.Status
	now := s.now()

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		incident.Name = name
	}
	if input.ComponentIDs != nil {
		ids, err := s.validateComponents(ctx, *input.ComponentIDs)
		if err != nil {
			return nil, err
		}
		incident.ComponentIDs = ids
	}

	var appended *domain.IncidentUpdate
	switch {
	case input.Updates != nil:
		updates, err := normalizeUpdates(*input.Updates, now)
		if err != nil {
			return nil, err
		}
		if input.Status != nil && *input.Status != updates[len(updates)-1].Status {
			return nil, ErrStatusMismatch
		}
		incident.Updates = updates

	case input.Status != nil || input.Message != nil:
		status := incident.Status
		if input.Status != nil {
			if !input.Status.IsValid() {
				return nil, ErrInvalidStatus
			}
			status = *input.Status
		}
		if input.Message == nil || strings.TrimSpace(*input.Message) == "" {
			return nil, ErrMessageRequired
		}
		incident.Updates = append(incident.Updates, domain.IncidentUpdate{
			Status:    status,
			Message:   *input.Message,
			CreatedAt: now,
		})
		appended = incident.LatestUpdate()
	}

	incident.SyncStatus(now)

	if err := s.repo.SaveIncident(ctx, incident); err != nil {
		return nil, err
	}
	if err := s.resolveComponents(ctx, incident); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("incident updated", "incident_id", id, "status", incident.Status)
	s.notify(ctx, domain.IncidentChange{
		Action:   changeAction(previous, incident.Status),
		Incident: incident,
		Update:   appended,
	})
	return incident, nil
}

// DeleteIncident removes an incident and its history.
func (s *Service) DeleteIncident(ctx context.Context, id string) error {
	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteIncident(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("incident deleted", "incident_id", id)
	s.notify(ctx, domain.IncidentChange{Action: domain.IncidentDeleted, Incident: incident})
	return nil
}

// validateComponents deduplicates ids and checks that each one exists.
// UUIDs are compared in their canonical lower-case form.
func (s *Service) validateComponents(ctx context.Context, ids []string) ([]string, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if parsed, err := uuid.Parse(id); err == nil {
			id = parsed.String()
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return unique, nil
	}

	found, err := s.components.GetComponentsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("lookup components: %w", err)
	}
	if len(found) != len(unique) {
		known := make(map[string]bool, len(found))
		for _, c := range found {
			known[c.ID] = true
		}
		for _, id := range unique {
			if !known[id] {
				return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, id)
			}
		}
	}
	return unique, nil
}

// resolveComponents fills Components from ComponentIDs. Ids of deleted
// components stay in ComponentIDs but are left out of Components.
func (s *Service) resolveComponents(ctx context.Context, incidents ...*domain.Incident) error {
	var ids []string
	seen := make(map[string]bool)
	for _, inc := range incidents {
		for _, id := range inc.ComponentIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	names := make(map[string]string, len(ids))
	if len(ids) > 0 {
		found, err := s.components.GetComponentsByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("resolve components: %w", err)
		}
		for _, c := range found {
			names[c.ID] = c.Name
		}
	}

	for _, inc := range incidents {
		inc.Components = make([]domain.ComponentRef, 0, len(inc.ComponentIDs))
		for _, id := range inc.ComponentIDs {
			if name, ok := names[id]; ok {
				inc.Components = append(inc.Components, domain.ComponentRef{ID: id, Name: name})
			}
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, change domain.IncidentChange) {
	metrics.IncidentsChanged.WithLabelValues(string(change.Action)).Inc()
	for _, o := range s.observers {
		o.IncidentChanged(ctx, change)
	}
}

// normalizeUpdates validates a replacement history and stamps missing times.
func normalizeUpdates(updates []domain.IncidentUpdate, now time.Time) ([]domain.IncidentUpdate, error) {
	if len(updates) == 0 {
		return nil, ErrEmptyUpdates
	}
	out := make([]domain.IncidentUpdate, len(updates))
	for i, u := range updates {
		if !u.Status.IsValid() {
			return nil, fmt.Errorf("%w: updates[%d]", ErrInvalidStatus, i)
		}
		if strings.TrimSpace(u.Message) == "" {
			return nil, fmt.Errorf("%w: updates[%d]", ErrMessageRequired, i)
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		out[i] = u
	}
	return out, nil
}

func changeAction(before, after domain.IncidentStatus) domain.IncidentAction {
	if after == domain.IncidentStatusResolved && before != domain.IncidentStatusResolved {
		return domain.IncidentResolved
	}
	return domain.IncidentUpdated
}
