package application

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	alarms "renewable-monitor/internal/alarms/domain"
	"renewable-monitor/internal/analytics/domain/temporal"
	"renewable-monitor/internal/analytics/domain/transform"
	readings "renewable-monitor/internal/readings/domain"
	"renewable-monitor/internal/readings/infrastructure/flatfile"
	"renewable-monitor/internal/readings/infrastructure/postgres"
	storage "renewable-monitor/internal/storage/domain"
)

var base = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func reading(t *testing.T, source readings.Source, output float64, offset time.Duration) readings.Reading {
	t.Helper()
	r, err := readings.NewReading(base.Add(offset), source, output, "Site", readings.DefaultThresholds())
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	return r
}

func newService(t *testing.T, opts ...ServiceOption) (*Service, *bytes.Buffer) {
	t.Helper()
	store, err := flatfile.NewStore(filepath.Join(t.TempDir(), "energy.txt"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	var buf bytes.Buffer
	opts = append([]ServiceOption{
		WithLogger(log.New(&buf, "", 0)),
		WithClock(fixedClock{now: base.Add(24 * time.Hour)}),
		WithCalendar(temporal.Calendar{Location: time.UTC}),
	}, opts...)
	svc, err := NewService(store, storage.DefaultModel(), opts...)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, &buf
}

type fakeFetcher struct {
	data map[readings.Source][]readings.Reading
	errs map[readings.Source]error
}

func (f *fakeFetcher) Fetch(_ context.Context, source readings.Source, _, _ time.Time) ([]readings.Reading, error) {
	return f.data[source], f.errs[source]
}

func TestFetchAppendsPartialResults(t *testing.T) {
	boom := errors.New("wind down")
	fetcher := &fakeFetcher{
		data: map[readings.Source][]readings.Reading{
			readings.SourceSolar: {reading(t, readings.SourceSolar, 300, time.Hour)},
			readings.SourceHydro: {reading(t, readings.SourceHydro, 500, 0)},
		},
		errs: map[readings.Source]error{readings.SourceWind: boom},
	}
	svc, _ := newService(t, WithFetcher(fetcher))
	state := readings.NewAppState(500)

	next, result, err := svc.Fetch(context.Background(), state, nil, base, base.Add(24*time.Hour))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wind error, got %v", err)
	}
	if result.Fetched != 2 || len(next.Readings) != 2 || len(state.Readings) != 0 {
		t.Fatalf("unexpected fetch result %+v (state %d)", result, len(state.Readings))
	}
	if next.Readings[0].Source != readings.SourceHydro {
		t.Fatalf("expected readings merged by time, got %+v", next.Readings)
	}

	off := readings.NewAppState(500).Toggle(readings.SourceSolar).Toggle(readings.SourceWind).Toggle(readings.SourceHydro)
	if _, _, err := svc.Fetch(context.Background(), off, nil, base, base.Add(time.Hour)); !errors.Is(err, ErrNoSourcesEnabled) {
		t.Fatalf("expected no sources error, got %v", err)
	}
}

func TestFetchWithoutProvider(t *testing.T) {
	svc, _ := newService(t)
	if _, _, err := svc.Fetch(context.Background(), readings.NewAppState(0), nil, base, base.Add(time.Hour)); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected no provider error, got %v", err)
	}
}

func TestStatisticsQuery(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{
		reading(t, readings.SourceSolar, 100, 0),
		reading(t, readings.SourceSolar, 300, time.Hour),
		reading(t, readings.SourceWind, 200, time.Hour),
	})

	res, err := svc.Statistics(state, Query{Source: readings.SourceSolar})
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if res.Summary.Count != 2 || res.Summary.Mean.Value != 200 {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}

	res, err = svc.Statistics(state, Query{Field: temporal.FieldHour, Value: 9})
	if err != nil || res.Summary.Count != 2 {
		t.Fatalf("expected two readings at 09:00, got %+v (%v)", res.Summary, err)
	}

	res, err = svc.Statistics(state, Query{Field: temporal.FieldHour, Value: 30})
	if err != nil || res.Summary.Mean.OK {
		t.Fatalf("expected absent mean for out-of-domain hour, got %+v (%v)", res.Summary, err)
	}

	if _, err := svc.Statistics(state, Query{Start: base.Add(time.Hour), End: base}); !errors.Is(err, temporal.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if _, err := svc.Statistics(state, Query{Source: "tidal"}); !errors.Is(err, readings.ErrUnknownSource) {
		t.Fatalf("expected unknown source, got %v", err)
	}
}

func TestPartition(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{
		reading(t, readings.SourceSolar, 100, time.Hour),
		reading(t, readings.SourceSolar, 300, 0),
		reading(t, readings.SourceWind, 200, time.Hour),
	})
	buckets, err := svc.Partition(state, temporal.FieldHour)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if len(buckets) != 2 || buckets[0].Key != 8 || buckets[1].Summary.Count != 2 {
		t.Fatalf("unexpected buckets %+v", buckets)
	}
	if _, err := svc.Partition(state, "year"); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestTransformLeavesStateUnchanged(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{
		reading(t, readings.SourceSolar, 100, 0),
		reading(t, readings.SourceSolar, 300, time.Hour),
	})
	scaled, err := svc.Transform(state, TransformOp{Kind: TransformScale, Factor: 2})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if scaled[1].Output != 600 || state.Readings[1].Output != 300 {
		t.Fatalf("unexpected scale %v / %v", scaled[1].Output, state.Readings[1].Output)
	}
	clamped, _ := svc.Transform(state, TransformOp{Kind: TransformThreshold, Upper: transform.Bound(150)})
	if clamped[1].Output != 150 {
		t.Fatalf("expected clamp to 150, got %v", clamped[1].Output)
	}
	converted, _ := svc.Transform(state, TransformOp{Kind: TransformConvert, From: transform.UnitMW, To: transform.UnitKW})
	if converted[0].Output != 100000 {
		t.Fatalf("expected kW conversion, got %v", converted[0].Output)
	}
	if _, err := svc.Transform(state, TransformOp{Kind: "invert"}); !errors.Is(err, ErrUnknownTransform) {
		t.Fatalf("expected unknown transform, got %v", err)
	}
}

type recordingNotifier struct {
	got []alarms.Alert
	err error
}

func (n *recordingNotifier) Notify(_ context.Context, alerts []alarms.Alert) error {
	n.got = append(n.got, alerts...)
	return n.err
}

func TestAlertsIncludeStorageAndNotify(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("broker down")}
	svc, logs := newService(t, WithNotifier(notifier))
	state := readings.NewAppState(100).WithReadings([]readings.Reading{
		reading(t, readings.SourceWind, 0, 0),
	})

	alerts, err := svc.Alerts(context.Background(), state)
	if err == nil {
		t.Fatalf("expected notifier error")
	}
	counts := alarms.CountByKind(alerts)
	if counts[alarms.KindMalfunction] != 1 || counts[alarms.KindLowOutput] != 2 {
		t.Fatalf("unexpected alerts %+v", alerts)
	}
	last := alerts[len(alerts)-1]
	if last.Source != "" || last.Kind != alarms.KindLowOutput {
		t.Fatalf("expected trailing storage alert, got %+v", last)
	}
	if len(notifier.got) != len(alerts) {
		t.Fatalf("expected every alert to reach the notifier")
	}
	if !bytes.Contains(logs.Bytes(), []byte("alerts notify error")) {
		t.Fatalf("expected notify error to be logged")
	}
}

func TestUpdateStorageUsesEnabledSources(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{
		reading(t, readings.SourceSolar, 100, 0),
		reading(t, readings.SourceWind, 60, 0),
	})

	next := svc.UpdateStorage(state, 2)
	if next.StorageLevel != 500+200+120-100 || state.StorageLevel != 500 {
		t.Fatalf("unexpected level %v", next.StorageLevel)
	}
	off, err := svc.Toggle(state, readings.SourceWind)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := svc.UpdateStorage(off, 2).StorageLevel; got != 500+200-100 {
		t.Fatalf("expected wind excluded, got %v", got)
	}
	if _, err := svc.Toggle(state, "tidal"); !errors.Is(err, readings.ErrUnknownSource) {
		t.Fatalf("expected unknown source, got %v", err)
	}
}

func TestStorageReportAndSimulate(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(250)
	rep := svc.StorageReport(state)
	if rep.Status != storage.StatusLow || rep.Percent != 25 || rep.RemainingHours != 5 {
		t.Fatalf("unexpected report %+v", rep)
	}
	projection := svc.Simulate(state, 2)
	if projection.NetRate != 45 || projection.Projected != 340 {
		t.Fatalf("unexpected projection %+v", projection)
	}
}

func TestHistoryReplaysWindows(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{
		reading(t, readings.SourceSolar, 100, 0),
		reading(t, readings.SourceSolar, 200, 30*time.Minute),
		reading(t, readings.SourceSolar, 50, 2*time.Hour),
	})
	steps, err := svc.History(state, 500, time.Hour)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(steps))
	}
	if steps[0].After != 600 || steps[1].After != 550 || steps[2].After != 550 {
		t.Fatalf("unexpected steps %+v", steps)
	}
	if _, err := svc.History(state, 500, 0); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected invalid step, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{
		reading(t, readings.SourceHydro, 950, 0),
	})
	if err := svc.Save(state, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := svc.Load(readings.NewAppState(10), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Readings) != 1 || loaded.Readings[0].Status != readings.StatusHigh || loaded.StorageLevel != 10 {
		t.Fatalf("unexpected loaded state %+v", loaded)
	}
	if err := svc.Save(state, filepath.Join(t.TempDir(), "x.json")); !errors.Is(err, flatfile.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

type memorySnapshots struct {
	saved map[uuid.UUID][]readings.Reading
	last  uuid.UUID
}

func (m *memorySnapshots) SaveSnapshot(_ context.Context, rs []readings.Reading) (postgres.Snapshot, error) {
	id := uuid.New()
	if m.saved == nil {
		m.saved = make(map[uuid.UUID][]readings.Reading)
	}
	m.saved[id] = rs
	m.last = id
	return postgres.Snapshot{ID: id, CreatedAt: base, Count: len(rs)}, nil
}

func (m *memorySnapshots) LoadSnapshot(_ context.Context, id uuid.UUID) ([]readings.Reading, error) {
	rs, ok := m.saved[id]
	if !ok {
		return nil, postgres.ErrSnapshotNotFound
	}
	return rs, nil
}

func (m *memorySnapshots) LatestSnapshot(ctx context.Context) (postgres.Snapshot, []readings.Reading, error) {
	rs, err := m.LoadSnapshot(ctx, m.last)
	return postgres.Snapshot{ID: m.last, Count: len(rs)}, rs, err
}

func (m *memorySnapshots) ListSnapshots(_ context.Context, _ int) ([]postgres.Snapshot, error) {
	var out []postgres.Snapshot
	for id, rs := range m.saved {
		out = append(out, postgres.Snapshot{ID: id, Count: len(rs)})
	}
	return out, nil
}

func TestSnapshotAndRestore(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{reading(t, readings.SourceWind, 100, 0)})
	if _, err := svc.Snapshot(context.Background(), state); !errors.Is(err, ErrNoSnapshots) {
		t.Fatalf("expected snapshots disabled, got %v", err)
	}

	svc, _ = newService(t, WithSnapshots(&memorySnapshots{}))
	snap, err := svc.Snapshot(context.Background(), state)
	if err != nil || snap.Count != 1 {
		t.Fatalf("snapshot: %+v %v", snap, err)
	}
	restored, err := svc.Restore(context.Background(), readings.NewAppState(500), uuid.Nil)
	if err != nil || len(restored.Readings) != 1 {
		t.Fatalf("restore latest: %+v %v", restored, err)
	}
	if _, err := svc.Restore(context.Background(), state, uuid.New()); !errors.Is(err, postgres.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, err := svc.Snapshots(context.Background(), 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
}

func TestExport(t *testing.T) {
	svc, _ := newService(t)
	state := readings.NewAppState(500).WithReadings([]readings.Reading{reading(t, readings.SourceSolar, 0, 0)})
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := svc.Export(state, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := svc.Export(state, filepath.Join(t.TempDir(), "report.txt")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
