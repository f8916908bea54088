// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bookdash-tui/internal/api"
	"github.com/j-veylop/bookdash-tui/internal/config"
	"github.com/j-veylop/bookdash-tui/internal/db"
	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/services/snapshot"
	"github.com/j-veylop/bookdash-tui/internal/services/views"
)

type (
	// ViewsChangedEvent is emitted when the saved views list changes.
	ViewsChangedEvent struct {
		Views []models.SavedView
	}

	// SnapshotRecordedEvent is emitted when the poller stores a snapshot.
	SnapshotRecordedEvent struct {
		Snapshot *models.Snapshot
	}

	// CatalogChangedEvent is emitted when the catalog size or stock level moved.
	CatalogChangedEvent struct {
		Previous *models.Snapshot
		Current  *models.Snapshot
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ViewsChangedEvent) isServiceEvent()     {}
func (SnapshotRecordedEvent) isServiceEvent() {}
func (CatalogChangedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()            {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	api         *api.Client
	metrics     *api.Metrics
	views       *views.Service
	snapshots   *snapshot.Service
	database    *db.DB
	stopChan    chan struct{}
	subscribers []chan ServiceEvent
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	httpClient *http.Client
	notifier   snapshot.Notifier
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithNotifier replaces the desktop notifier used for catalog alerts.
func WithNotifier(n snapshot.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// NewManager creates a new service manager. The snapshot poller starts immediately
// when the configured interval is positive.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		metrics:  api.NewMetrics(),
		stopChan: make(chan struct{}),
	}

	clientOpts := []api.Option{api.WithMetrics(m.metrics)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}

	var err error
	m.api, err = api.New(cfg.APIBaseURL, cfg.APITimeout, clientOpts...)
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.views, err = views.New(cfg.ViewsPath)
	if err != nil {
		_ = m.database.Close()
		return nil, fmt.Errorf("failed to initialize saved views: %w", err)
	}

	snapConfig := snapshot.DefaultConfig()
	snapConfig.Interval = cfg.SnapshotInterval
	snapConfig.Notify = cfg.Notify
	var snapOpts []snapshot.Option
	if o.notifier != nil {
		snapOpts = append(snapOpts, snapshot.WithNotifier(o.notifier))
	}
	m.snapshots = snapshot.New(m.api, m.database, snapConfig, snapOpts...)

	m.wg.Add(1)
	go m.routeEvents()

	m.snapshots.Start()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer m.wg.Done()
	for {
		select {
		case event := <-m.views.Events():
			m.handleViewsEvent(event)

		case event := <-m.snapshots.Events():
			m.handleSnapshotEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleViewsEvent converts and broadcasts views events.
func (m *Manager) handleViewsEvent(event views.Event) {
	switch event.Type {
	case views.EventViewsLoaded, views.EventViewsChanged,
		views.EventViewSaved, views.EventViewDeleted:
		m.broadcast(ViewsChangedEvent{Views: m.views.List()})

	case views.EventError:
		m.broadcast(ErrorEvent{Service: "views", Error: event.Error})
	}
}

func (m *Manager) handleSnapshotEvent(event snapshot.Event) {
	switch event.Type {
	case snapshot.EventSnapshotRecorded:
		m.broadcast(SnapshotRecordedEvent{Snapshot: event.Snapshot})

	case snapshot.EventCatalogChanged:
		m.broadcast(CatalogChangedEvent{Previous: event.Previous, Current: event.Snapshot})

	case snapshot.EventError:
		m.broadcast(ErrorEvent{Service: "snapshot", Error: event.Error})
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// API returns the analytics API client.
func (m *Manager) API() *api.Client {
	return m.api
}

// Metrics returns the API client metrics.
func (m *Manager) Metrics() *api.Metrics {
	return m.metrics
}

// Views returns the saved views service.
func (m *Manager) Views() *views.Service {
	return m.views
}

// Snapshots returns the snapshot poller.
func (m *Manager) Snapshots() *snapshot.Service {
	return m.snapshots
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// GetSnapshots returns stored snapshots for the time range, oldest first.
func (m *Manager) GetSnapshots(ctx context.Context, tr models.TimeRange) ([]models.Snapshot, error) {
	if m.database == nil {
		return nil, errors.New("database not initialized")
	}
	return m.database.GetSnapshots(ctx, tr)
}

// CaptureSnapshot records a snapshot now, outside the polling schedule.
func (m *Manager) CaptureSnapshot(ctx context.Context) (*models.Snapshot, error) {
	return m.snapshots.Capture(ctx)
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.stopChan)

		if err := m.snapshots.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := m.views.Close(); err != nil {
			errs = append(errs, err)
		}

		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
