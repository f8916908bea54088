// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/bookdash-tui/internal/filter"
	"github.com/j-veylop/bookdash-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// Loading resources.
const (
	ResourceInitial   = "initial"
	ResourceBooks     = "books"
	ResourceAnalytics = "analytics"
	ResourceHistory   = "history"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial   bool
	Books     bool
	Analytics bool
	History   bool
}

// State is shared between the root model and the tabs. The books view
// state lives here so every tab reads the same filters and the same link.
type State struct {
	mu sync.RWMutex

	codec    filter.Codec
	view     filter.State
	link     string
	linkBase string

	views    []models.SavedView
	snapshot *models.Snapshot

	Loading LoadingState

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState returns a state holding the default view.
func NewState() *State {
	codec := filter.NewCodec(filter.DefaultBucketSize)
	return &State{
		codec:         codec,
		view:          codec.Default(),
		views:         make([]models.SavedView, 0),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetCodec replaces the link codec and resets the view to its defaults.
func (s *State) SetCodec(c filter.Codec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codec = c
	s.view = c.Default()
	s.link = ""
}

// Codec returns the link codec.
func (s *State) Codec() filter.Codec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codec
}

// GetView returns a copy of the current view state.
func (s *State) GetView() filter.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView stores v and re-derives the link from it.
func (s *State) SetView(v filter.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.link = s.codec.Encode(v)
	s.LastUpdated = time.Now()
}

// ApplyLink decodes link into the view state and returns the result.
func (s *State) ApplyLink(link string) filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.codec.Decode(link)
	s.link = s.codec.Encode(s.view)
	s.LastUpdated = time.Now()
	return s.view
}

// Link returns the query string mirrored from the view state.
func (s *State) Link() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.link
}

// SetLinkBase sets the address that shared links are built on.
func (s *State) SetLinkBase(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkBase = base
}

// LinkBase returns the address that shared links are built on.
func (s *State) LinkBase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.linkBase
}

// ShareLink returns the link base followed by the current query string.
func (s *State) ShareLink() string {
	return s.ShareLinkFor(s.Link())
}

// ShareLinkFor returns the link base followed by the given query string.
func (s *State) ShareLinkFor(link string) string {
	s.mu.RLock()
	base := s.linkBase
	s.mu.RUnlock()

	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if link == "" {
		return base
	}
	return base + "?" + link
}

// SetViews replaces the saved views list.
func (s *State) SetViews(views []models.SavedView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = views
}

// GetViews returns a copy of the saved views list.
func (s *State) GetViews() []models.SavedView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]models.SavedView, len(s.views))
	copy(views, s.views)
	return views
}

// GetViewCount returns the number of saved views.
func (s *State) GetViewCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// SetSnapshot stores the most recent catalog snapshot.
func (s *State) SetSnapshot(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// GetSnapshot returns the most recent catalog snapshot, or nil.
func (s *State) GetSnapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case ResourceInitial:
		s.Loading.Initial = loading
	case ResourceBooks:
		s.Loading.Books = loading
	case ResourceAnalytics:
		s.Loading.Analytics = loading
	case ResourceHistory:
		s.Loading.History = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Books ||
		s.Loading.Analytics ||
		s.Loading.History
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, ResourceInitial)
	}
	if s.Loading.Books {
		resources = append(resources, ResourceBooks)
	}
	if s.Loading.Analytics {
		resources = append(resources, ResourceAnalytics)
	}
	if s.Loading.History {
		resources = append(resources, ResourceHistory)
	}
	return resources
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(all []Notification) []Notification {
	active := make([]Notification, 0, len(all))
	for _, n := range all {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}

// GetLastUpdated returns the last time the view state changed.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
