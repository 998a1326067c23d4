package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	alarms "renewable-monitor/internal/alarms/domain"
	"renewable-monitor/internal/analytics/domain/statistic"
	readings "renewable-monitor/internal/readings/domain"
	storage "renewable-monitor/internal/storage/domain"
)

// ErrUnsupportedFormat is returned for export paths other than .xlsx and .pdf.
var ErrUnsupportedFormat = errors.New("report: unsupported format")

// SourceSummary is the statistics block of one source.
type SourceSummary struct {
	Source  readings.Source
	Enabled bool
	Summary statistic.Summary
}

// Report is a point-in-time view of a session.
type Report struct {
	GeneratedAt    time.Time
	StorageLevel   float64
	StoragePercent float64
	StorageStatus  storage.Status
	RemainingHours float64
	Sources        []SourceSummary
	Readings       []readings.Reading
	Alerts         []alarms.Alert
}

// Build assembles a report; sources are listed in fixed order.
func Build(state readings.AppState, alerts []alarms.Alert, model storage.Model, at time.Time) Report {
	summaries := statistic.SummarizeBySource(state.Readings)
	sources := make([]SourceSummary, 0, len(readings.AllSources()))
	for _, source := range readings.AllSources() {
		sources = append(sources, SourceSummary{
			Source:  source,
			Enabled: state.IsOn(source),
			Summary: summaries[source],
		})
	}
	level := model.Clamp(state.StorageLevel)
	return Report{
		GeneratedAt:    at,
		StorageLevel:   level,
		StoragePercent: model.Percent(level),
		StorageStatus:  model.Status(level),
		RemainingHours: model.RemainingHours(level),
		Sources:        sources,
		Readings:       readings.SortByTime(state.Readings),
		Alerts:         append([]alarms.Alert(nil), alerts...),
	}
}

// Render encodes the report in the format implied by the path extension.
func Render(r Report, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return XLSX(r)
	case ".pdf":
		return PDF(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// WriteFile renders the report and writes it to path.
func WriteFile(r Report, path string) error {
	data, err := Render(r, path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
