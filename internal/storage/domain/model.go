package storage

import (
	"fmt"
	"math"
	"time"

	alarms "renewable-monitor/internal/alarms/domain"
	"renewable-monitor/internal/analytics/domain/statistic"
	readings "renewable-monitor/internal/readings/domain"
)

const (
	// DefaultCapacity is the reservoir size in MWh.
	DefaultCapacity = 1000.0
	// DefaultConsumptionRate is the constant load in MW.
	DefaultConsumptionRate = 50.0
)

// Status is the band of the storage level.
type Status string

const (
	StatusCritical Status = "Critical"
	StatusLow      Status = "Low"
	StatusNormal   Status = "Normal"
	StatusHigh     Status = "High"
)

// Model holds the fixed parameters of the reservoir. Level is the only
// session state; everything else here is derived from it.
type Model struct {
	Capacity        float64                     `yaml:"capacity"`
	ConsumptionRate float64                     `yaml:"consumption_rate"`
	Nominal         map[readings.Source]float64 `yaml:"nominal"`
}

// DefaultModel returns the built-in reservoir parameters.
func DefaultModel() Model {
	return Model{
		Capacity:        DefaultCapacity,
		ConsumptionRate: DefaultConsumptionRate,
		Nominal: map[readings.Source]float64{
			readings.SourceSolar: 30,
			readings.SourceWind:  25,
			readings.SourceHydro: 40,
		},
	}
}

// Validate checks model invariants.
func (m Model) Validate() error {
	if !(m.Capacity > 0) || math.IsInf(m.Capacity, 0) {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidModel)
	}
	if m.ConsumptionRate < 0 || math.IsNaN(m.ConsumptionRate) || math.IsInf(m.ConsumptionRate, 0) {
		return fmt.Errorf("%w: consumption rate must be non-negative", ErrInvalidModel)
	}
	for source, power := range m.Nominal {
		if power < 0 || math.IsNaN(power) || math.IsInf(power, 0) {
			return fmt.Errorf("%w: nominal power of %s must be non-negative", ErrInvalidModel, source)
		}
	}
	return nil
}

// Clamp bounds a level to [0, Capacity]. NaN maps to 0.
func (m Model) Clamp(level float64) float64 {
	switch {
	case math.IsNaN(level), level < 0:
		return 0
	case level > m.Capacity:
		return m.Capacity
	default:
		return level
	}
}

// Update applies the net energy balance of an interval to level.
// Each source contributes its average output times hours, which keeps
// sources with more samples from dominating. The result is always within
// [0, Capacity]; an undefined balance leaves the clamped level unchanged.
func (m Model) Update(level float64, rs []readings.Reading, hours float64) float64 {
	current := m.Clamp(level)
	if !(hours > 0) {
		return current
	}
	production := 0.0
	for _, group := range readings.GroupBySource(rs) {
		avg, err := statistic.Mean(readings.Outputs(group))
		if err != nil {
			continue
		}
		production += avg * hours
	}
	next := current + production - m.ConsumptionRate*hours
	if math.IsNaN(next) {
		return current
	}
	return m.Clamp(next)
}

// Percent returns the level as a share of capacity in [0, 100].
func (m Model) Percent(level float64) float64 {
	return m.Clamp(level) / m.Capacity * 100
}

// Status derives the band of a level.
func (m Model) Status(level float64) Status {
	pct := m.Percent(level)
	switch {
	case pct < 10:
		return StatusCritical
	case pct < 30:
		return StatusLow
	case pct > 90:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// CheckAlerts returns at most one alert: LowOutput under 15% of capacity,
// HighOutput over 85%. Storage alerts carry no source.
func (m Model) CheckAlerts(level float64, at time.Time) (alarms.Alert, bool) {
	pct := m.Percent(level)
	switch {
	case pct < 15:
		return alarms.Alert{
			Kind:      alarms.KindLowOutput,
			Message:   fmt.Sprintf("Storage low: %.2f MWh (%.1f%% of capacity)", m.Clamp(level), pct),
			Timestamp: at,
		}, true
	case pct > 85:
		return alarms.Alert{
			Kind:      alarms.KindHighOutput,
			Message:   fmt.Sprintf("Storage high: %.2f MWh (%.1f%% of capacity)", m.Clamp(level), pct),
			Timestamp: at,
		}, true
	default:
		return alarms.Alert{}, false
	}
}

// RemainingHours returns how long level lasts at the model consumption rate.
func (m Model) RemainingHours(level float64) float64 {
	return RemainingHours(level, m.ConsumptionRate)
}

// RemainingHours returns level / rate, or +Inf when the rate is not positive.
func RemainingHours(level, rate float64) float64 {
	if !(rate > 0) {
		return math.Inf(1)
	}
	return level / rate
}
