package readings

import "strings"

// Source is an energy production technology.
type Source string

const (
	SourceSolar Source = "solar"
	SourceWind  Source = "wind"
	SourceHydro Source = "hydro"
)

// AllSources returns every source in display order.
func AllSources() []Source {
	return []Source{SourceSolar, SourceWind, SourceHydro}
}

// IsValid checks if the source is one of the supported values.
func (s Source) IsValid() bool {
	switch s {
	case SourceSolar, SourceWind, SourceHydro:
		return true
	default:
		return false
	}
}

// Label returns the capitalised display name.
func (s Source) Label() string {
	switch s {
	case SourceSolar:
		return "Solar"
	case SourceWind:
		return "Wind"
	case SourceHydro:
		return "Hydro"
	case "":
		return "Storage"
	default:
		return string(s)
	}
}

// ParseSource resolves a case-insensitive source name.
func ParseSource(value string) (Source, error) {
	source := Source(strings.ToLower(strings.TrimSpace(value)))
	if !source.IsValid() {
		return "", ErrUnknownSource
	}
	return source, nil
}

// Status is the Low/Normal/High band a reading fell into when it was created.
type Status string

const (
	StatusLow    Status = "Low"
	StatusNormal Status = "Normal"
	StatusHigh   Status = "High"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusLow, StatusNormal, StatusHigh:
		return true
	default:
		return false
	}
}

// ParseStatus resolves a case-insensitive status name.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return StatusLow, nil
	case "normal":
		return StatusNormal, nil
	case "high":
		return StatusHigh, nil
	default:
		return "", ErrUnknownStatus
	}
}

// Band holds the output limits of the Normal status for one source.
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Thresholds maps each source to its status band.
type Thresholds map[Source]Band

// DefaultThresholds returns the built-in bands in MW.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SourceSolar: {Low: 100, High: 800},
		SourceWind:  {Low: 50, High: 400},
		SourceHydro: {Low: 200, High: 900},
	}
}

// Classify maps an output to a status using the band of the source.
// Sources without a band are always Normal.
func (t Thresholds) Classify(source Source, output float64) Status {
	band, ok := t[source]
	if !ok {
		return StatusNormal
	}
	switch {
	case output < band.Low:
		return StatusLow
	case output > band.High:
		return StatusHigh
	default:
		return StatusNormal
	}
}
