package statistic

import "errors"

// ErrNoData is returned when a statistic is requested over an empty set.
var ErrNoData = errors.New("statistic: no data")
