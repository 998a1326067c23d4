package application

import (
	"context"
	"fmt"
	"time"

	alarms "renewable-monitor/internal/alarms/domain"
	"renewable-monitor/internal/analytics/domain/statistic"
	"renewable-monitor/internal/analytics/domain/temporal"
	"renewable-monitor/internal/analytics/domain/transform"
	"renewable-monitor/internal/observability/metrics"
	readings "renewable-monitor/internal/readings/domain"
)

// Query narrows the readings a statistic is computed over. Zero fields do
// not filter.
type Query struct {
	Source readings.Source
	Field  temporal.Field
	Value  int
	Start  time.Time
	End    time.Time
}

// Result is a statistics summary of the readings matched by a query.
type Result struct {
	Query   Query
	Matched []readings.Reading
	Summary statistic.Summary
}

// Select returns the readings matched by q, in input order.
func (s *Service) Select(state readings.AppState, q Query) ([]readings.Reading, error) {
	rs := state.Readings
	if q.Source != "" {
		if !q.Source.IsValid() {
			return nil, readings.ErrUnknownSource
		}
		rs = readings.OfSource(rs, q.Source)
	}
	if q.Field != "" {
		if _, err := temporal.ParseField(string(q.Field)); err != nil {
			return nil, err
		}
		rs = s.calendar.Filter(rs, q.Field, q.Value)
	}
	if !q.Start.IsZero() || !q.End.IsZero() {
		between, err := temporal.Between(rs, q.Start, q.End)
		if err != nil {
			return nil, err
		}
		rs = between
	}
	return rs, nil
}

// Statistics summarises the readings matched by q.
func (s *Service) Statistics(state readings.AppState, q Query) (Result, error) {
	matched, err := s.Select(state, q)
	if err != nil {
		return Result{}, err
	}
	return Result{Query: q, Matched: matched, Summary: statistic.SummarizeReadings(matched)}, nil
}

// SourceStatistics summarises every source, including sources with no readings.
func (s *Service) SourceStatistics(state readings.AppState) map[readings.Source]statistic.Summary {
	return statistic.SummarizeBySource(state.Readings)
}

// BucketSummary is the summary of one calendar partition.
type BucketSummary struct {
	Key     int
	Summary statistic.Summary
}

// Partition summarises readings per calendar field value, ordered by key.
func (s *Service) Partition(state readings.AppState, field temporal.Field) ([]BucketSummary, error) {
	if _, err := temporal.ParseField(string(field)); err != nil {
		return nil, err
	}
	buckets := s.calendar.Partition(state.Readings, field)
	out := make([]BucketSummary, 0, len(buckets))
	for _, bucket := range buckets {
		out = append(out, BucketSummary{Key: bucket.Key, Summary: statistic.SummarizeReadings(bucket.Readings)})
	}
	return out, nil
}

// TransformKind names a transform operation.
type TransformKind string

const (
	TransformScale     TransformKind = "scale"
	TransformConvert   TransformKind = "convert"
	TransformNormalize TransformKind = "normalize"
	TransformThreshold TransformKind = "threshold"
)

// TransformOp describes one transform over the session readings.
type TransformOp struct {
	Kind   TransformKind
	Factor float64
	From   transform.Unit
	To     transform.Unit
	Lower  *float64
	Upper  *float64
}

// Transform returns a transformed view of the readings. The state is unchanged.
func (s *Service) Transform(state readings.AppState, op TransformOp) ([]readings.Reading, error) {
	series := transform.Series(state.Readings)
	switch op.Kind {
	case TransformScale:
		return transform.Scale(series, op.Factor), nil
	case TransformConvert:
		return transform.ConvertUnits(series, op.From, op.To), nil
	case TransformNormalize:
		return transform.Normalize(series), nil
	case TransformThreshold:
		return transform.ApplyThreshold(series, op.Lower, op.Upper), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, op.Kind)
	}
}

// Detect runs the reading detector and the storage check without notifying.
func (s *Service) Detect(state readings.AppState) []alarms.Alert {
	alerts := s.detector.DetectIssues(state.Readings)
	if alert, ok := s.model.CheckAlerts(state.StorageLevel, s.clock.Now()); ok {
		alerts = append(alerts, alert)
	}
	return alerts
}

// Alerts detects alerts and hands them to the notifier. Alerts are returned
// even when delivery fails.
func (s *Service) Alerts(ctx context.Context, state readings.AppState) ([]alarms.Alert, error) {
	began := time.Now()
	alerts := s.Detect(state)
	for _, alert := range alerts {
		metrics.IncAlert(string(alert.Kind))
	}
	var err error
	if s.notifier != nil && len(alerts) > 0 {
		if err = s.notifier.Notify(ctx, alerts); err != nil {
			s.logger.Printf("alerts notify error: %v", err)
		}
	}
	metrics.ObserveOperation("alerts", metrics.ResultOf(err), time.Since(began))
	return alerts, err
}
