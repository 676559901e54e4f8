// Package statuspage builds the public, read-only view of system status and
// streams it to live clients.
package statuspage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bissquit/statusboard/internal/catalog"
	"github.com/bissquit/statusboard/internal/domain"
)

const (
	recentLimit      = 10
	noUpdatesMessage = "No updates available"
)

// ComponentSource lists components.
type ComponentSource interface {
	ListComponents(ctx context.Context, filter catalog.ComponentFilter) ([]domain.Component, error)
}

// IncidentSource lists incidents.
type IncidentSource interface {
	ListIncidents(ctx context.Context) ([]domain.Incident, error)
}

// RecentIncident is an incident with the message of its latest update.
type RecentIncident struct {
	domain.Incident
	LatestMessage string `json:"latest_message"`
}

// Snapshot is the aggregated public status.
type Snapshot struct {
	Status             domain.ComponentStatus `json:"status"`
	TotalIncidents     int                    `json:"total_incidents"`
	ActiveIncidents    int                    `json:"active_incidents"`
	AffectedComponents int                    `json:"affected_components"`
	Components         []domain.Component     `json:"components"`
	Active             []domain.Incident      `json:"active"`
	Recent             []RecentIncident       `json:"recent"`
	GeneratedAt        time.Time              `json:"generated_at"`
}

// Service assembles snapshots.
type Service struct {
	components ComponentSource
	incidents  IncidentSource
	now        func() time.Time
}

// NewService creates a new status page service.
func NewService(components ComponentSource, incidents IncidentSource) *Service {
	return &Service{
		components: components,
		incidents:  incidents,
		now:        time.Now,
	}
}

// Snapshot loads all components and incidents and aggregates them.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	components, err := s.components.ListComponents(ctx, catalog.ComponentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}

	incidents, err := s.incidents.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	snapshot := BuildSnapshot(components, incidents, s.now())
	return &snapshot, nil
}

// BuildSnapshot aggregates components and incidents. It does not rely on the
// input order of incidents.
func BuildSnapshot(components []domain.Component, incidents []domain.Incident, now time.Time) Snapshot {
	sorted := make([]domain.Incident, len(incidents))
	copy(sorted, incidents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	snapshot := Snapshot{
		Status:         domain.ComponentStatusOperational,
		TotalIncidents: len(sorted),
		Components:     components,
		Active:         make([]domain.Incident, 0),
		Recent:         make([]RecentIncident, 0, min(len(sorted), recentLimit)),
		GeneratedAt:    now,
	}
	if snapshot.Components == nil {
		snapshot.Components = []domain.Component{}
	}

	for _, c := range components {
		if c.Status != domain.ComponentStatusOperational {
			snapshot.AffectedComponents++
		}
		snapshot.Status = snapshot.Status.Worse(c.Status)
	}

	for i, inc := range sorted {
		if inc.Status.IsActive() {
			snapshot.ActiveIncidents++
			snapshot.Active = append(snapshot.Active, inc)
		}
		if i < recentLimit {
			recent := RecentIncident{Incident: inc, LatestMessage: noUpdatesMessage}
			if latest := inc.LatestUpdate(); latest != nil {
				recent.LatestMessage = latest.Message
			}
			snapshot.Recent = append(snapshot.Recent, recent)
		}
	}

	return snapshot
}
