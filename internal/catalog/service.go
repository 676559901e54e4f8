// Package catalog provides HTTP handlers and business logic for managing components.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
)

// Observer is told when the component registry changes.
type Observer interface {
	ComponentsChanged(ctx context.Context)
}

// Service implements component registry logic.
type Service struct {
	repo      Repository
	observers []Observer
	now       func() time.Time
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Subscribe registers an observer. Not safe for use once requests are served.
func (s *Service) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// CreateComponentInput contains data for creating a component.
type CreateComponentInput struct {
	Name        string
	Description string
	Status      domain.ComponentStatus
	Type        domain.ComponentType
}

// UpdateComponentInput holds the fields to change; nil fields are left as is.
type UpdateComponentInput struct {
	Name        *string
	Description *string
	Status      *domain.ComponentStatus
	Type        *domain.ComponentType
}

// ListComponents returns components in creation order.
func (s *Service) ListComponents(ctx context.Context, filter ComponentFilter) ([]domain.Component, error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, ErrInvalidType
	}
	components, err := s.repo.ListComponents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	return components, nil
}

// GetComponent returns a component by ID.
func (s *Service) GetComponent(ctx context.Context, id string) (*domain.Component, error) {
	return s.repo.GetComponent(ctx, id)
}

// GetComponentsByIDs returns the components that exist among ids.
func (s *Service) GetComponentsByIDs(ctx context.Context, ids []string) ([]domain.Component, error) {
	if len(ids) == 0 {
		return []domain.Component{}, nil
	}
	components, err := s.repo.GetComponentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get components by ids: %w", err)
	}
	return components, nil
}

// CreateComponent creates a component, defaulting status to operational and
// type to active.
func (s *Service) CreateComponent(ctx context.Context, input CreateComponentInput) (*domain.Component, error) {
	component := &domain.Component{
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
		Type:        input.Type,
	}
	if component.Status == "" {
		component.Status = domain.ComponentStatusOperational
	}
	if component.Type == "" {
		component.Type = domain.ComponentTypeActive
	}
	if !component.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if !component.Type.IsValid() {
		return nil, ErrInvalidType
	}

	if err := s.repo.CreateComponent(ctx, component); err != nil {
		return nil, fmt.Errorf("create component: %w", err)
	}

	ctxlog.FromContext(ctx).Info("component created", "component_id", component.ID, "status", component.Status)
	s.notify(ctx)
	return component, nil
}

// UpdateComponent merges the provided fields into the stored component.
func (s *Service) UpdateComponent(ctx context.Context, id string, input UpdateComponentInput) (*domain.Component, error) {
	component, err := s.repo.GetComponent(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := component.Status

	if input.Name != nil {
		component.Name = *input.Name
	}
	if input.Description != nil {
		component.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		component.Status = *input.Status
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, ErrInvalidType
		}
		component.Type = *input.Type
	}

	if err := s.repo.UpdateComponent(ctx, component, oldStatus); err != nil {
		return nil, fmt.Errorf("update component: %w", err)
	}

	if oldStatus != component.Status {
		ctxlog.FromContext(ctx).Info("component status changed",
			"component_id", component.ID,
			"old_status", oldStatus,
			"new_status", component.Status,
		)
	}
	s.notify(ctx)
	return component, nil
}

// DeleteComponent removes a component. Incidents keep the dangling id.
func (s *Service) DeleteComponent(ctx context.Context, id string) error {
	if err := s.repo.DeleteComponent(ctx, id); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("component deleted", "component_id", id)
	s.notify(ctx)
	return nil
}

// GetUptime computes the uptime report of a component over a named window.
func (s *Service) GetUptime(ctx context.Context, id, window string) (*UptimeReport, error) {
	w, ok := UptimeWindows[window]
	if !ok {
		return nil, ErrInvalidWindow
	}

	component, err := s.repo.GetComponent(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries, err := s.repo.ListStatusLog(ctx, id, now.Add(-w.Duration))
	if err != nil {
		return nil, fmt.Errorf("list status log: %w", err)
	}

	report := ComputeUptime(component, entries, w, now)
	return &report, nil
}

// SeedDefaults creates the starter components when the registry is empty.
func (s *Service) SeedDefaults(ctx context.Context) error {
	count, err := s.repo.CountComponents(ctx)
	if err != nil {
		return fmt.Errorf("count components: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []CreateComponentInput{
		{Name: "API", Description: "Public API endpoints"},
		{Name: "Website", Description: "Main company website and web application"},
	}
	for _, input := range defaults {
		if _, err := s.CreateComponent(ctx, input); err != nil {
			return fmt.Errorf("seed %s: %w", input.Name, err)
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context) {
	for _, o := range s.observers {
		o.ComponentsChanged(ctx)
	}
}
