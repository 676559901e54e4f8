package domain

// Display holds presentation metadata for an enum value.
type Display struct {
	Label string
	Color string
}

var unknownDisplay = Display{Label: "Unknown", Color: "gray"}

// ComponentStatusDisplay is the single source of labels and colors for component statuses.
var ComponentStatusDisplay = map[ComponentStatus]Display{
	ComponentStatusOperational:         {Label: "Operational", Color: "green"},
	ComponentStatusDegradedPerformance: {Label: "Degraded Performance", Color: "yellow"},
	ComponentStatusPartialOutage:       {Label: "Partial Outage", Color: "orange"},
	ComponentStatusMajorOutage:         {Label: "Major Outage", Color: "red"},
}

// IncidentStatusDisplay is the single source of labels and colors for incident statuses.
var IncidentStatusDisplay = map[IncidentStatus]Display{
	IncidentStatusInvestigating: {Label: "Investigating", Color: "yellow"},
	IncidentStatusIdentified:    {Label: "Identified", Color: "orange"},
	IncidentStatusMonitoring:    {Label: "Monitoring", Color: "blue"},
	IncidentStatusResolved:      {Label: "Resolved", Color: "green"},
}

// ComponentTypeDisplay labels component types.
var ComponentTypeDisplay = map[ComponentType]Display{
	ComponentTypeActive:     {Label: "Active", Color: "blue"},
	ComponentTypeThirdParty: {Label: "Third Party", Color: "gray"},
}

// Display returns presentation metadata for the status.
func (s ComponentStatus) Display() Display {
	if d, ok := ComponentStatusDisplay[s]; ok {
		return d
	}
	return unknownDisplay
}

// Display returns presentation metadata for the status.
func (s IncidentStatus) Display() Display {
	if d, ok := IncidentStatusDisplay[s]; ok {
		return d
	}
	return unknownDisplay
}

// Display returns presentation metadata for the type.
func (t ComponentType) Display() Display {
	if d, ok := ComponentTypeDisplay[t]; ok {
		return d
	}
	return unknownDisplay
}
