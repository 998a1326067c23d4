package readings

import "errors"

var (
	// ErrUnknownSource is returned when a source name is not solar, wind or hydro.
	ErrUnknownSource = errors.New("readings: unknown source")
	// ErrUnknownStatus is returned when a status name is not Low, Normal or High.
	ErrUnknownStatus = errors.New("readings: unknown status")
	// ErrInvalidOutput is returned for negative or non-finite outputs.
	ErrInvalidOutput = errors.New("readings: invalid output")
	// ErrInvalidTimestamp is returned when a reading has no timestamp.
	ErrInvalidTimestamp = errors.New("readings: invalid timestamp")
)
