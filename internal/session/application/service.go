package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	alarmapp "renewable-monitor/internal/alarms/application"
	"renewable-monitor/internal/alarms/notify"
	"renewable-monitor/internal/analytics/domain/temporal"
	"renewable-monitor/internal/provider"
	readings "renewable-monitor/internal/readings/domain"
	"renewable-monitor/internal/readings/infrastructure/postgres"
	storage "renewable-monitor/internal/storage/domain"
)

// FileStore persists readings to the flat-file layout.
type FileStore interface {
	Save(rs []readings.Reading, path string) error
	Load(path string) ([]readings.Reading, error)
}

// SnapshotStore keeps reading sets in a database.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, rs []readings.Reading) (postgres.Snapshot, error)
	LoadSnapshot(ctx context.Context, id uuid.UUID) ([]readings.Reading, error)
	LatestSnapshot(ctx context.Context) (postgres.Snapshot, []readings.Reading, error)
	ListSnapshots(ctx context.Context, limit int) ([]postgres.Snapshot, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service runs console operations over an explicitly threaded AppState.
// It holds collaborators only; session state lives with the caller.
type Service struct {
	fetcher   provider.Source
	files     FileStore
	snapshots SnapshotStore
	notifier  notify.Notifier
	detector  alarmapp.Detector
	model     storage.Model
	calendar  temporal.Calendar
	logger    *log.Logger
	clock     Clock
}

// ServiceOption customizes the session service.
type ServiceOption func(*Service)

// WithFetcher assigns the data provider.
func WithFetcher(fetcher provider.Source) ServiceOption {
	return func(s *Service) {
		s.fetcher = fetcher
	}
}

// WithSnapshots enables database snapshots.
func WithSnapshots(store SnapshotStore) ServiceOption {
	return func(s *Service) {
		s.snapshots = store
	}
}

// WithNotifier assigns an alert notifier.
func WithNotifier(notifier notify.Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithDetector overrides the alert detector.
func WithDetector(detector alarmapp.Detector) ServiceOption {
	return func(s *Service) {
		s.detector = detector
	}
}

// WithCalendar sets the calendar used by time filters.
func WithCalendar(calendar temporal.Calendar) ServiceOption {
	return func(s *Service) {
		s.calendar = calendar
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a session service.
func NewService(files FileStore, model storage.Model, opts ...ServiceOption) (*Service, error) {
	if files == nil {
		return nil, errors.New("session: nil file store")
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		files:    files,
		detector: alarmapp.NewDetector(alarmapp.DefaultLowFractionLimit),
		model:    model,
		calendar: temporal.Local,
		logger:   log.Default(),
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Model returns the storage model in use.
func (s *Service) Model() storage.Model {
	return s.model
}

// SnapshotsEnabled reports whether a snapshot store is configured.
func (s *Service) SnapshotsEnabled() bool {
	return s.snapshots != nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
