// Package snapshot periodically records catalog summaries and raises desktop
// alerts when the catalog changes.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/bookdash-tui/internal/logger"
	"github.com/j-veylop/bookdash-tui/internal/models"
)

// Fetcher provides the analytics the snapshot is built from.
type Fetcher interface {
	PriceStats(ctx context.Context) (*models.PriceStats, error)
	Availability(ctx context.Context) (*models.AvailabilityReport, error)
}

// Store persists snapshots.
type Store interface {
	InsertSnapshot(ctx context.Context, s *models.Snapshot) error
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	PruneSnapshots(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier shows a desktop notification.
type Notifier func(title, message string) error

// Event represents a snapshot service event.
type Event struct {
	Error    error
	Snapshot *models.Snapshot
	Previous *models.Snapshot
	Type     EventType
}

// EventType defines the type of snapshot event.
type EventType int

const (
	// EventSnapshotRecorded indicates a snapshot was stored.
	EventSnapshotRecorded EventType = iota
	// EventCatalogChanged indicates the catalog size or stock level moved.
	EventCatalogChanged
	// EventError indicates a capture failed.
	EventError
)

// Config holds configuration for the snapshot service.
type Config struct {
	Interval  time.Duration
	Timeout   time.Duration
	Retention time.Duration
	Notify    bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Minute,
		Timeout:   15 * time.Second,
		Retention: 90 * 24 * time.Hour,
		Notify:    true,
	}
}

// Service records snapshots on a fixed interval.
type Service struct {
	fetcher   Fetcher
	store     Store
	notify    Notifier
	last      *models.Snapshot
	eventChan chan Event
	stopChan  chan struct{}
	config    Config
	mu        sync.RWMutex
	captureMu sync.Mutex
	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier replaces the desktop notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notify = n
	}
}

// New creates a snapshot service. Polling starts with Start.
func New(fetcher Fetcher, store Store, config Config, opts ...Option) *Service {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	s := &Service{
		fetcher:   fetcher,
		store:     store,
		notify:    desktopNotify,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		config:    config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func desktopNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Interval returns the polling interval; zero means polling is disabled.
func (s *Service) Interval() time.Duration {
	return s.config.Interval
}

// Latest returns the most recent snapshot seen by the service.
func (s *Service) Latest() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Start launches the polling goroutine. It is a no-op when the interval is zero.
func (s *Service) Start() {
	if s.config.Interval <= 0 {
		return
	}
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.poll()
	})
}

// poll runs the background capture loop.
func (s *Service) poll() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stopChan
		cancel()
	}()

	// Initial capture
	s.captureLogged(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.captureLogged(ctx)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) captureLogged(ctx context.Context) {
	if _, err := s.Capture(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("snapshot capture failed", "error", err)
	}
}

// Capture fetches the analytics, stores a snapshot and returns it.
func (s *Service) Capture(ctx context.Context) (*models.Snapshot, error) {
	s.captureMu.Lock()
	defer s.captureMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var stats *models.PriceStats
	var avail *models.AvailabilityReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.fetcher.PriceStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		avail, err = s.fetcher.Availability(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		err = fmt.Errorf("failed to fetch analytics: %w", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return nil, err
	}

	snap := models.SnapshotFrom(stats, avail, time.Now())

	previous := s.Latest()
	if previous == nil {
		var err error
		previous, err = s.store.LatestSnapshot(ctx)
		if err != nil {
			logger.Warn("failed to load previous snapshot", "error", err)
		}
	}

	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		err = fmt.Errorf("failed to store snapshot: %w", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return nil, err
	}

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventSnapshotRecorded, Snapshot: snap, Previous: previous})

	if models.CatalogChanged(previous, snap) {
		s.sendEvent(Event{Type: EventCatalogChanged, Snapshot: snap, Previous: previous})
		s.alert(previous, snap)
	}

	s.prune(ctx)

	return snap, nil
}

func (s *Service) alert(prev, next *models.Snapshot) {
	if !s.config.Notify || s.notify == nil {
		return
	}

	title := "Catalog changed"
	body := fmt.Sprintf("Books: %d → %d, in stock: %d → %d",
		prev.TotalBooks, next.TotalBooks, prev.InStock, next.InStock)
	if err := s.notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

func (s *Service) prune(ctx context.Context) {
	if s.config.Retention <= 0 {
		return
	}
	n, err := s.store.PruneSnapshots(ctx, time.Now().Add(-s.config.Retention))
	if err != nil {
		logger.Warn("failed to prune snapshots", "error", err)
		return
	}
	if n > 0 {
		logger.Info("pruned old snapshots", "count", n)
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops polling and waits for the loop to exit.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}
