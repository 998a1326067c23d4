package application

import (
	"fmt"
	"time"

	alarms "renewable-monitor/internal/alarms/domain"
	"renewable-monitor/internal/analytics/domain/statistic"
	readings "renewable-monitor/internal/readings/domain"
)

// DefaultLowFractionLimit is the share of Low readings above which a source
// raises an aggregate low-output alert.
const DefaultLowFractionLimit = 0.75

// Detector runs the low-output, high-output and malfunction passes.
type Detector struct {
	LowFractionLimit float64
}

// NewDetector constructs a detector; a non-positive limit falls back to the default.
func NewDetector(lowFractionLimit float64) Detector {
	if lowFractionLimit <= 0 {
		lowFractionLimit = DefaultLowFractionLimit
	}
	return Detector{LowFractionLimit: lowFractionLimit}
}

// DetectIssues runs the default detector.
func DetectIssues(rs []readings.Reading) []alarms.Alert {
	return NewDetector(DefaultLowFractionLimit).DetectIssues(rs)
}

// DetectIssues returns the low-output alerts, then the high-output alerts,
// then the malfunction alerts. Passes are independent and a reading may
// appear in more than one.
func (d Detector) DetectIssues(rs []readings.Reading) []alarms.Alert {
	var out []alarms.Alert
	out = append(out, d.LowOutput(rs)...)
	out = append(out, HighOutput(rs)...)
	out = append(out, Malfunctions(rs)...)
	return out
}

// LowOutput emits one aggregate alert per source whose share of Low readings
// exceeds the limit.
func (d Detector) LowOutput(rs []readings.Reading) []alarms.Alert {
	limit := d.LowFractionLimit
	if limit <= 0 {
		limit = DefaultLowFractionLimit
	}
	groups := readings.GroupBySource(rs)
	var out []alarms.Alert
	for _, source := range readings.AllSources() {
		group := groups[source]
		if len(group) == 0 {
			continue
		}
		low := 0
		var latest time.Time
		for _, r := range group {
			if r.Status == readings.StatusLow {
				low++
			}
			if r.Timestamp.After(latest) {
				latest = r.Timestamp
			}
		}
		fraction := float64(low) / float64(len(group))
		if fraction <= limit {
			continue
		}
		avg, err := statistic.Mean(readings.Outputs(group))
		if err != nil {
			continue
		}
		out = append(out, alarms.Alert{
			Kind:   alarms.KindLowOutput,
			Source: source,
			Message: fmt.Sprintf("%s output low: %d%% of %d readings below threshold, average %.2f MW",
				source.Label(), int(fraction*100), len(group), avg),
			Timestamp: latest,
		})
	}
	return out
}

// HighOutput emits one alert per reading with status High.
func HighOutput(rs []readings.Reading) []alarms.Alert {
	var out []alarms.Alert
	for _, r := range rs {
		if r.Status != readings.StatusHigh {
			continue
		}
		out = append(out, alarms.Alert{
			Kind:      alarms.KindHighOutput,
			Source:    r.Source,
			Message:   fmt.Sprintf("%s output high at %s: %.2f MW", r.Source.Label(), locationOf(r), r.Output),
			Timestamp: r.Timestamp,
		})
	}
	return out
}

// Malfunctions emits one alert per reading whose output is exactly zero.
func Malfunctions(rs []readings.Reading) []alarms.Alert {
	var out []alarms.Alert
	for _, r := range rs {
		if r.Output != 0.0 {
			continue
		}
		out = append(out, alarms.Alert{
			Kind:      alarms.KindMalfunction,
			Source:    r.Source,
			Message:   fmt.Sprintf("%s possible malfunction at %s: zero output", r.Source.Label(), locationOf(r)),
			Timestamp: r.Timestamp,
		})
	}
	return out
}

func locationOf(r readings.Reading) string {
	if r.Location == "" {
		return "unknown location"
	}
	return r.Location
}
