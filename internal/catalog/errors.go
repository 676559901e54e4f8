package catalog

import "errors"

// Catalog errors.
var (
	ErrComponentNotFound = errors.New("component not found")
	ErrInvalidStatus     = errors.New("invalid component status")
	ErrInvalidType       = errors.New("invalid component type")
	ErrInvalidWindow     = errors.New("invalid uptime window")
)
