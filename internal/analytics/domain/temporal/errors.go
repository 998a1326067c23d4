package temporal

import "errors"

var (
	// ErrInvalidRange is returned for zero or inverted time bounds.
	ErrInvalidRange = errors.New("temporal: invalid range")
	// ErrUnknownField is returned when a calendar field name is not recognised.
	ErrUnknownField = errors.New("temporal: unknown field")
)
