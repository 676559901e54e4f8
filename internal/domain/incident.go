package domain

import "time"

// IncidentStatus represents the current status of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusIdentified    IncidentStatus = "identified"
	IncidentStatusMonitoring    IncidentStatus = "monitoring"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

// IsValid checks if the incident status is valid.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusInvestigating, IncidentStatusIdentified,
		IncidentStatusMonitoring, IncidentStatusResolved:
		return true
	}
	return false
}

// IsActive reports whether the incident is still open.
func (s IncidentStatus) IsActive() bool {
	return s != IncidentStatusResolved
}

// IncidentUpdate is one timestamped status change within an incident.
// Updates are stored embedded in the incident document.
type IncidentUpdate struct {
	Status    IncidentStatus `json:"status"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"created_at"`
}

// ComponentRef is a component reference resolved for display.
type ComponentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Incident represents a tracked outage with its update history.
type Incident struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Status       IncidentStatus   `json:"status"`
	Updates      []IncidentUpdate `json:"updates"`
	ComponentIDs []string         `json:"component_ids"`
	Components   []ComponentRef   `json:"components"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	ResolvedAt   *time.Time       `json:"resolved_at"`
}

// LatestUpdate returns the most recent update, or nil if there are none.
func (i *Incident) LatestUpdate() *IncidentUpdate {
	if len(i.Updates) == 0 {
		return nil
	}
	return &i.Updates[len(i.Updates)-1]
}

// SyncStatus derives the top-level status from the latest update and
// maintains ResolvedAt accordingly.
func (i *Incident) SyncStatus(now time.Time) {
	if latest := i.LatestUpdate(); latest != nil {
		i.Status = latest.Status
	}
	switch {
	case i.Status == IncidentStatusResolved && i.ResolvedAt == nil:
		i.ResolvedAt = &now
	case i.Status != IncidentStatusResolved:
		i.ResolvedAt = nil
	}
}
