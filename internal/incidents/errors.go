package incidents

import "errors"

// Incident errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrInvalidStatus    = errors.New("invalid incident status")
	ErrUnknownComponent = errors.New("unknown component")
	ErrStatusMismatch   = errors.New("status does not match the last update")
	ErrMessageRequired  = errors.New("message is required")
	ErrEmptyUpdates     = errors.New("updates must not be empty")
	ErrNameRequired     = errors.New("name is required")
)
