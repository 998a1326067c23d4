package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"renewable-monitor/internal/observability/metrics"
	"renewable-monitor/internal/provider"
	readings "renewable-monitor/internal/readings/domain"
	"renewable-monitor/internal/readings/infrastructure/postgres"
	"renewable-monitor/internal/report"
)

// FetchResult describes one fetch.
type FetchResult struct {
	Sources []readings.Source
	Fetched int
	Total   int
}

// Fetch pulls readings for sources (all enabled sources when empty) and
// appends them to the state. Partial results are kept alongside the error.
func (s *Service) Fetch(ctx context.Context, state readings.AppState, sources []readings.Source, start, end time.Time) (readings.AppState, FetchResult, error) {
	if s.fetcher == nil {
		return state, FetchResult{}, ErrNoProvider
	}
	if len(sources) == 0 {
		sources = state.Enabled()
	}
	if len(sources) == 0 {
		return state, FetchResult{}, ErrNoSourcesEnabled
	}
	began := time.Now()
	fetched, err := provider.FetchAll(ctx, s.fetcher, sources, start, end)
	next := state.AppendReadings(fetched)
	result := FetchResult{Sources: sources, Fetched: len(fetched), Total: len(next.Readings)}

	metrics.AddReadingsLoaded("provider", len(fetched))
	metrics.ObserveOperation("fetch", metrics.ResultOf(err), time.Since(began))
	if err != nil {
		s.logger.Printf("fetch error: %v", err)
	}
	s.logger.Printf("fetch: sources=%v fetched=%d total=%d", sources, result.Fetched, result.Total)
	return next, result, err
}

// Save writes the readings to the flat file at path; empty uses the default.
func (s *Service) Save(state readings.AppState, path string) error {
	began := time.Now()
	err := s.files.Save(state.Readings, path)
	metrics.ObserveOperation("save", metrics.ResultOf(err), time.Since(began))
	if err != nil {
		return err
	}
	s.logger.Printf("save: readings=%d path=%s", len(state.Readings), path)
	return nil
}

// Load replaces the readings with the contents of the flat file at path.
func (s *Service) Load(state readings.AppState, path string) (readings.AppState, error) {
	began := time.Now()
	rs, err := s.files.Load(path)
	metrics.ObserveOperation("load", metrics.ResultOf(err), time.Since(began))
	if err != nil {
		return state, err
	}
	metrics.AddReadingsLoaded("file", len(rs))
	s.logger.Printf("load: readings=%d path=%s", len(rs), path)
	return state.WithReadings(rs), nil
}

// Snapshot stores the readings in the snapshot store.
func (s *Service) Snapshot(ctx context.Context, state readings.AppState) (postgres.Snapshot, error) {
	if s.snapshots == nil {
		return postgres.Snapshot{}, ErrNoSnapshots
	}
	began := time.Now()
	snap, err := s.snapshots.SaveSnapshot(ctx, state.Readings)
	metrics.ObserveOperation("snapshot", metrics.ResultOf(err), time.Since(began))
	if err != nil {
		return postgres.Snapshot{}, err
	}
	s.logger.Printf("snapshot: id=%s readings=%d", snap.ID, snap.Count)
	return snap, nil
}

// Restore replaces the readings with a stored snapshot; uuid.Nil selects the latest.
func (s *Service) Restore(ctx context.Context, state readings.AppState, id uuid.UUID) (readings.AppState, error) {
	if s.snapshots == nil {
		return state, ErrNoSnapshots
	}
	began := time.Now()
	var (
		rs  []readings.Reading
		err error
	)
	if id == uuid.Nil {
		var snap postgres.Snapshot
		snap, rs, err = s.snapshots.LatestSnapshot(ctx)
		id = snap.ID
	} else {
		rs, err = s.snapshots.LoadSnapshot(ctx, id)
	}
	metrics.ObserveOperation("restore", metrics.ResultOf(err), time.Since(began))
	if err != nil {
		return state, err
	}
	metrics.AddReadingsLoaded("snapshot", len(rs))
	s.logger.Printf("restore: id=%s readings=%d", id, len(rs))
	return state.WithReadings(rs), nil
}

// Snapshots lists stored snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context, limit int) ([]postgres.Snapshot, error) {
	if s.snapshots == nil {
		return nil, ErrNoSnapshots
	}
	return s.snapshots.ListSnapshots(ctx, limit)
}

// Export writes a report of the session to path (.xlsx or .pdf).
func (s *Service) Export(state readings.AppState, path string) error {
	began := time.Now()
	r := report.Build(state, s.Detect(state), s.model, s.clock.Now())
	err := report.WriteFile(r, path)
	metrics.ObserveOperation("export", metrics.ResultOf(err), time.Since(began))
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	s.logger.Printf("export: path=%s readings=%d alerts=%d", path, len(r.Readings), len(r.Alerts))
	return nil
}
