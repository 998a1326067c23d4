package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	readings "renewable-monitor/internal/readings/domain"
)

const (
	defaultSnapshotTable = "reading_snapshots"
	defaultReadingTable  = "snapshot_readings"
)

// ErrSnapshotNotFound is returned when no snapshot matches.
var ErrSnapshotNotFound = errors.New("readings snapshot: not found")

// Snapshot describes one saved reading set.
type Snapshot struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Count     int
}

// SnapshotRepository stores reading sets in Postgres.
type SnapshotRepository struct {
	db            *sql.DB
	snapshotTable string
	readingTable  string
	now           func() time.Time
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SnapshotRepository)

// WithTables overrides the default table names.
func WithTables(snapshotTable, readingTable string) RepositoryOption {
	return func(repo *SnapshotRepository) {
		if snapshotTable != "" {
			repo.snapshotTable = snapshotTable
		}
		if readingTable != "" {
			repo.readingTable = readingTable
		}
	}
}

// WithNow overrides the clock used for snapshot timestamps.
func WithNow(now func() time.Time) RepositoryOption {
	return func(repo *SnapshotRepository) {
		if now != nil {
			repo.now = now
		}
	}
}

// NewSnapshotRepository constructs a repository with default table names.
func NewSnapshotRepository(db *sql.DB, opts ...RepositoryOption) *SnapshotRepository {
	repo := &SnapshotRepository{
		db:            db,
		snapshotTable: defaultSnapshotTable,
		readingTable:  defaultReadingTable,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EnsureSchema creates the tables when they do not exist.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("readings snapshot repo: nil db")
	}
	stmts := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	reading_count INTEGER NOT NULL
)`, r.snapshotTable),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	snapshot_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	source TEXT NOT NULL,
	output DOUBLE PRECISION NOT NULL,
	location TEXT NOT NULL,
	status TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, seq)
)`, r.readingTable, r.snapshotTable),
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot stores readings under a new snapshot id in one transaction.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, rs []readings.Reading) (Snapshot, error) {
	if r == nil || r.db == nil {
		return Snapshot{}, errors.New("readings snapshot repo: nil db")
	}
	snap := Snapshot{ID: uuid.New(), CreatedAt: r.now(), Count: len(rs)}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, created_at, reading_count) VALUES ($1, $2, $3)`, r.snapshotTable),
		snap.ID, snap.CreatedAt, snap.Count,
	); err != nil {
		_ = tx.Rollback()
		return Snapshot{}, err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (snapshot_id, seq, ts, source, output, location, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, r.readingTable))
	if err != nil {
		_ = tx.Rollback()
		return Snapshot{}, err
	}
	defer stmt.Close()

	for i, reading := range rs {
		if _, err := stmt.ExecContext(ctx,
			snap.ID,
			i,
			reading.Timestamp.UTC(),
			string(reading.Source),
			reading.Output,
			reading.Location,
			string(reading.Status),
		); err != nil {
			_ = tx.Rollback()
			return Snapshot{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// LoadSnapshot returns the readings of one snapshot in saved order.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, id uuid.UUID) ([]readings.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("readings snapshot repo: nil db")
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.snapshotTable), id,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSnapshotNotFound
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT ts, source, output, location, status
FROM %s
WHERE snapshot_id = $1
ORDER BY seq`, r.readingTable), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []readings.Reading
	for rows.Next() {
		var (
			ts       time.Time
			source   string
			output   float64
			location string
			status   string
		)
		if err := rows.Scan(&ts, &source, &output, &location, &status); err != nil {
			return nil, err
		}
		reading, err := readings.RestoreReading(ts.UTC(), readings.Source(source), output, location, readings.Status(status))
		if err != nil {
			return nil, fmt.Errorf("readings snapshot %s: %w", id, err)
		}
		out = append(out, reading)
	}
	return out, rows.Err()
}

// ListSnapshots returns the newest snapshots first.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("readings snapshot repo: nil db")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, created_at, reading_count
FROM %s
ORDER BY created_at DESC
LIMIT $1`, r.snapshotTable), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.CreatedAt, &snap.Count); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the readings of the most recent snapshot.
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context) (Snapshot, []readings.Reading, error) {
	snaps, err := r.ListSnapshots(ctx, 1)
	if err != nil {
		return Snapshot{}, nil, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, nil, ErrSnapshotNotFound
	}
	rs, err := r.LoadSnapshot(ctx, snaps[0].ID)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snaps[0], rs, nil
}
