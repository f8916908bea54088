package app

import (
	"time"

	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// RefreshMsg asks the active tab to refetch its data. The API page cache
// has already been purged when it arrives.
type RefreshMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// ViewsLoadedMsg carries the saved views after a change on disk.
type ViewsLoadedMsg struct {
	Views []models.SavedView
}

// SnapshotRecordedMsg signals that a new catalog snapshot was stored.
type SnapshotRecordedMsg struct {
	Snapshot *models.Snapshot
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// QuitMsg requests the application to quit.
type QuitMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// CopyToClipboardMsg requests copying text to clipboard.
type CopyToClipboardMsg struct {
	Text  string
	Label string
}

// ClipboardResultMsg contains the result of a clipboard operation.
type ClipboardResultMsg struct {
	Error error
	Label string
}

// ApplyViewMsg replaces the books view state with the one encoded in Link.
type ApplyViewMsg struct {
	Name string
	Link string
}

// BeginSaveViewMsg opens the saved view name form.
type BeginSaveViewMsg struct{}

// SaveViewMsg requests storing Link under Name.
type SaveViewMsg struct {
	Name string
	Link string
}

// SaveViewResultMsg contains the result of saving a view.
type SaveViewResultMsg struct {
	Error error
	Name  string
}

// DeleteViewMsg requests deletion of a saved view.
type DeleteViewMsg struct {
	Name string
}

// DeleteViewResultMsg contains the result of a saved view deletion.
type DeleteViewResultMsg struct {
	Error error
	Name  string
}
