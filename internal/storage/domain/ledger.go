package storage

import (
	"time"

	readings "renewable-monitor/internal/readings/domain"
)

// Interval is one reporting period fed to Update.
type Interval struct {
	End      time.Time
	Hours    float64
	Readings []readings.Reading
}

// Step records the level before and after an interval.
type Step struct {
	End    time.Time
	Before float64
	After  float64
	Status Status
}

// Replay recomputes every intermediate level from the intervals that produced it.
func (m Model) Replay(level float64, intervals []Interval) []Step {
	steps := make([]Step, 0, len(intervals))
	current := m.Clamp(level)
	for _, interval := range intervals {
		next := m.Update(current, interval.Readings, interval.Hours)
		steps = append(steps, Step{End: interval.End, Before: current, After: next, Status: m.Status(next)})
		current = next
	}
	return steps
}
