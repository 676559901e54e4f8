package domain

import "time"

// ComponentStatus represents the operational status of a component.
type ComponentStatus string

// Component statuses.
const (
	ComponentStatusOperational         ComponentStatus = "operational"
	ComponentStatusDegradedPerformance ComponentStatus = "degraded_performance"
	ComponentStatusPartialOutage       ComponentStatus = "partial_outage"
	ComponentStatusMajorOutage         ComponentStatus = "major_outage"
)

// ComponentStatuses lists statuses from best to worst.
var ComponentStatuses = []ComponentStatus{
	ComponentStatusOperational,
	ComponentStatusDegradedPerformance,
	ComponentStatusPartialOutage,
	ComponentStatusMajorOutage,
}

// IsValid checks if the component status is valid.
func (s ComponentStatus) IsValid() bool {
	switch s {
	case ComponentStatusOperational, ComponentStatusDegradedPerformance,
		ComponentStatusPartialOutage, ComponentStatusMajorOutage:
		return true
	}
	return false
}

// Severity ranks the status; higher is worse. Unknown values rank as operational.
func (s ComponentStatus) Severity() int {
	for i, st := range ComponentStatuses {
		if st == s {
			return i
		}
	}
	return 0
}

// Worse returns the more severe of two statuses.
func (s ComponentStatus) Worse(other ComponentStatus) ComponentStatus {
	if other.Severity() > s.Severity() {
		return other
	}
	return s
}

// ComponentType distinguishes first-party components from external dependencies.
type ComponentType string

// Component types.
const (
	ComponentTypeActive     ComponentType = "active"
	ComponentTypeThirdParty ComponentType = "third-party"
)

// IsValid checks if the component type is valid.
func (t ComponentType) IsValid() bool {
	return t == ComponentTypeActive || t == ComponentTypeThirdParty
}

// Component represents a monitored service shown on the status page.
type Component struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      ComponentStatus `json:"status"`
	Type        ComponentType   `json:"type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ComponentStatusLogEntry records a single status change of a component.
type ComponentStatusLogEntry struct {
	ID          string           `json:"id"`
	ComponentID string           `json:"component_id"`
	OldStatus   *ComponentStatus `json:"old_status,omitempty"`
	NewStatus   ComponentStatus  `json:"new_status"`
	CreatedAt   time.Time        `json:"created_at"`
}
