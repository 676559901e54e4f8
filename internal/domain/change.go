package domain

// IncidentAction names what happened to an incident.
type IncidentAction string

// Incident actions.
const (
	IncidentCreated  IncidentAction = "created"
	IncidentUpdated  IncidentAction = "updated"
	IncidentResolved IncidentAction = "resolved"
	IncidentDeleted  IncidentAction = "deleted"
)

// IncidentChange describes a committed incident write. Update is the update
// appended by the write, if any.
type IncidentChange struct {
	Action   IncidentAction
	Incident *Incident
	Update   *IncidentUpdate
}
