package alarms

import (
	"time"

	readings "renewable-monitor/internal/readings/domain"
)

// Kind classifies an alert.
type Kind string

const (
	KindLowOutput   Kind = "LowOutput"
	KindHighOutput  Kind = "HighOutput"
	KindMalfunction Kind = "Malfunction"
)

// Kinds returns every kind in display order.
func Kinds() []Kind {
	return []Kind{KindLowOutput, KindHighOutput, KindMalfunction}
}

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	switch k {
	case KindLowOutput, KindHighOutput, KindMalfunction:
		return true
	default:
		return false
	}
}

// Alert is an immutable finding of one analysis pass.
// An empty Source marks an alert that is not tied to a production source.
type Alert struct {
	Kind      Kind            `json:"kind"`
	Source    readings.Source `json:"source,omitempty"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// CountByKind tallies alerts per kind.
func CountByKind(alerts []Alert) map[Kind]int {
	counts := make(map[Kind]int, len(Kinds()))
	for _, alert := range alerts {
		counts[alert.Kind]++
	}
	return counts
}
