package application

import (
	"time"

	"renewable-monitor/internal/observability/metrics"
	readings "renewable-monitor/internal/readings/domain"
	storage "renewable-monitor/internal/storage/domain"
)

// StorageReport is the derived view of the storage level.
type StorageReport struct {
	Level          float64
	Capacity       float64
	Percent        float64
	Status         storage.Status
	RemainingHours float64
}

// enabledReadings drops readings of switched-off sources.
func enabledReadings(state readings.AppState) []readings.Reading {
	var out []readings.Reading
	for _, r := range state.Readings {
		if state.IsOn(r.Source) {
			out = append(out, r)
		}
	}
	return out
}

// UpdateStorage applies hours of production from enabled sources and
// consumption to the storage level.
func (s *Service) UpdateStorage(state readings.AppState, hours float64) readings.AppState {
	level := s.model.Update(state.StorageLevel, enabledReadings(state), hours)
	metrics.SetStorageLevel(level, s.model.Percent(level))
	s.logger.Printf("storage: update hours=%.2f before=%.2f after=%.2f", hours, state.StorageLevel, level)
	return state.WithStorageLevel(level)
}

// StorageReport derives status and runway from the current level.
func (s *Service) StorageReport(state readings.AppState) StorageReport {
	level := s.model.Clamp(state.StorageLevel)
	return StorageReport{
		Level:          level,
		Capacity:       s.model.Capacity,
		Percent:        s.model.Percent(level),
		Status:         s.model.Status(level),
		RemainingHours: s.model.RemainingHours(level),
	}
}

// Simulate projects the level with the enabled sources at nominal power.
func (s *Service) Simulate(state readings.AppState, hours float64) storage.Projection {
	return s.model.Simulate(state.StorageLevel, state.SolarOn, state.WindOn, state.HydroOn, hours)
}

// Toggle flips a source on or off.
func (s *Service) Toggle(state readings.AppState, source readings.Source) (readings.AppState, error) {
	if !source.IsValid() {
		return state, readings.ErrUnknownSource
	}
	next := state.Toggle(source)
	s.logger.Printf("storage: toggle source=%s on=%t", source, next.IsOn(source))
	return next, nil
}

// History replays the enabled readings in consecutive windows of step,
// starting at the earliest reading, from initial level.
func (s *Service) History(state readings.AppState, initial float64, step time.Duration) ([]storage.Step, error) {
	if step <= 0 {
		return nil, ErrInvalidStep
	}
	rs := readings.SortByTime(enabledReadings(state))
	if len(rs) == 0 {
		return nil, nil
	}
	var intervals []storage.Interval
	windowStart := rs[0].Timestamp
	current := storage.Interval{End: windowStart.Add(step), Hours: step.Hours()}
	for _, r := range rs {
		for !r.Timestamp.Before(current.End) {
			intervals = append(intervals, current)
			current = storage.Interval{End: current.End.Add(step), Hours: step.Hours()}
		}
		current.Readings = append(current.Readings, r)
	}
	intervals = append(intervals, current)
	return s.model.Replay(initial, intervals), nil
}
