package application

import "errors"

var (
	ErrNoProvider       = errors.New("session: data provider not configured")
	ErrNoSnapshots      = errors.New("session: snapshot store not configured")
	ErrNoSourcesEnabled = errors.New("session: no sources enabled")
	ErrUnknownTransform = errors.New("session: unknown transform")
	ErrInvalidStep      = errors.New("session: step must be positive")
)
