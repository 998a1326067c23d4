package storage

import "errors"

// ErrInvalidModel is returned when capacity or consumption are out of range.
var ErrInvalidModel = errors.New("storage: invalid model")
