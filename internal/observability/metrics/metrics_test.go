package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordAfterInit(t *testing.T) {
	// Calls before Init must be harmless.
	IncAlert("LowOutput")

	reg := prometheus.NewRegistry()
	Init(reg)

	ObserveFetch("solar", ResultSuccess, 20*time.Millisecond)
	ObserveFetch("solar", ResultPartial, 20*time.Millisecond)
	IncFetchRetry("wind")
	IncFetchRetry("wind")
	AddFetchSkipped("hydro", 3)
	AddFetchSkipped("hydro", 0)
	AddReadingsLoaded("provider", 5)
	IncAlert("Malfunction")
	SetStorageLevel(420, 42)
	ObserveOperation("simulate", ResultOf(nil), time.Millisecond)
	ObserveOperation("save", ResultOf(errors.New("boom")), time.Millisecond)

	if got := testutil.ToFloat64(fetchRequests.WithLabelValues("solar", ResultPartial)); got != 1 {
		t.Fatalf("expected 1 partial fetch, got %v", got)
	}
	if got := testutil.ToFloat64(fetchRetries.WithLabelValues("wind")); got != 2 {
		t.Fatalf("expected 2 retries, got %v", got)
	}
	if got := testutil.ToFloat64(fetchSkipped.WithLabelValues("hydro")); got != 3 {
		t.Fatalf("expected 3 skipped, got %v", got)
	}
	if got := testutil.ToFloat64(storagePercent); got != 42 {
		t.Fatalf("expected 42%%, got %v", got)
	}
	if got := testutil.ToFloat64(operationTotal.WithLabelValues("save", ResultError)); got != 1 {
		t.Fatalf("expected one failed save, got %v", got)
	}
	if count, err := testutil.GatherAndCount(reg); err != nil || count == 0 {
		t.Fatalf("expected gathered metrics, got %d %v", count, err)
	}
}
