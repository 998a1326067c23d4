package readings

import (
	"math"
	"sort"
	"time"
)

// Reading is one timestamped production observation.
// Status is derived once at creation and travels with the reading.
type Reading struct {
	Timestamp time.Time
	Source    Source
	Output    float64
	Location  string
	Status    Status
}

// NewReading validates the inputs and classifies the output.
func NewReading(ts time.Time, source Source, output float64, location string, thresholds Thresholds) (Reading, error) {
	if ts.IsZero() {
		return Reading{}, ErrInvalidTimestamp
	}
	if !source.IsValid() {
		return Reading{}, ErrUnknownSource
	}
	if output < 0 || math.IsNaN(output) || math.IsInf(output, 0) {
		return Reading{}, ErrInvalidOutput
	}
	return Reading{
		Timestamp: ts,
		Source:    source,
		Output:    output,
		Location:  location,
		Status:    thresholds.Classify(source, output),
	}, nil
}

// RestoreReading rebuilds a persisted reading with its recorded status.
func RestoreReading(ts time.Time, source Source, output float64, location string, status Status) (Reading, error) {
	if ts.IsZero() {
		return Reading{}, ErrInvalidTimestamp
	}
	if !source.IsValid() {
		return Reading{}, ErrUnknownSource
	}
	if !status.IsValid() {
		return Reading{}, ErrUnknownStatus
	}
	if output < 0 || math.IsNaN(output) || math.IsInf(output, 0) {
		return Reading{}, ErrInvalidOutput
	}
	return Reading{Timestamp: ts, Source: source, Output: output, Location: location, Status: status}, nil
}

// WithOutput returns a copy carrying a different output. Status is kept.
func (r Reading) WithOutput(output float64) Reading {
	r.Output = output
	return r
}

// Outputs extracts the output values in order.
func Outputs(rs []Reading) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Output
	}
	return out
}

// GroupBySource partitions readings by source, keeping input order in each group.
func GroupBySource(rs []Reading) map[Source][]Reading {
	groups := make(map[Source][]Reading)
	for _, r := range rs {
		groups[r.Source] = append(groups[r.Source], r)
	}
	return groups
}

// OfSource selects the readings of one source.
func OfSource(rs []Reading, source Source) []Reading {
	var out []Reading
	for _, r := range rs {
		if r.Source == source {
			out = append(out, r)
		}
	}
	return out
}

// SortByTime returns a copy ordered by timestamp; equal timestamps keep their order.
func SortByTime(rs []Reading) []Reading {
	out := append([]Reading(nil), rs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
