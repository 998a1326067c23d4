package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	readings "renewable-monitor/internal/readings/domain"
	readingsrepo "renewable-monitor/internal/readings/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestSnapshotRoundTrip_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	suffix := time.Now().UTC().Format("20060102150405")
	snapshotTable := "it_reading_snapshots_" + suffix
	readingTable := "it_snapshot_readings_" + suffix
	repo := readingsrepo.NewSnapshotRepository(db, readingsrepo.WithTables(snapshotTable, readingTable))
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	defer func() {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+readingTable)
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+snapshotTable)
	}()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	input := []readings.Reading{
		{Timestamp: ts, Source: readings.SourceSolar, Output: 420.5, Location: "Field 7", Status: readings.StatusNormal},
		{Timestamp: ts.Add(time.Hour), Source: readings.SourceWind, Output: 0, Location: "Ridge", Status: readings.StatusLow},
	}
	snap, err := repo.SaveSnapshot(ctx, input)
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if snap.ID == uuid.Nil || snap.Count != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	latest, loaded, err := repo.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if latest.ID != snap.ID || len(loaded) != 2 {
		t.Fatalf("unexpected latest snapshot %+v (%d readings)", latest, len(loaded))
	}
	for i := range input {
		if !loaded[i].Timestamp.Equal(input[i].Timestamp) || loaded[i].Source != input[i].Source ||
			loaded[i].Output != input[i].Output || loaded[i].Status != input[i].Status {
			t.Fatalf("reading %d mismatch: %+v vs %+v", i, loaded[i], input[i])
		}
	}

	if _, err := repo.LoadSnapshot(ctx, uuid.New()); !errors.Is(err, readingsrepo.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
