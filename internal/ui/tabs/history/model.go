// Package history provides the history tab for viewing recorded catalog snapshots.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/models"
)

const loadTimeout = 5 * time.Second

var errNoSource = errors.New("snapshot store not initialized")

// Source reads and records catalog snapshots.
type Source interface {
	GetSnapshots(ctx context.Context, tr models.TimeRange) ([]models.Snapshot, error)
	CaptureSnapshot(ctx context.Context) (*models.Snapshot, error)
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Capture     key.Binding
	Refresh     key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Capture: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "capture snapshot"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg is sent when snapshots are loaded.
type historyLoadedMsg struct {
	snapshots []models.Snapshot
	timeRange models.TimeRange
}

// historyErrorMsg is sent when there's an error loading history.
type historyErrorMsg struct {
	err string
}

// captureDoneMsg is sent after a manual capture.
type captureDoneMsg struct {
	snapshot *models.Snapshot
	err      error
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	source   Source
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	// Current view state
	timeRange   models.TimeRange
	snapshots   []models.Snapshot
	loaded      bool
	loading     bool
	capturing   bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new history model.
func New(state *app.State, src Source) *Model {
	return &Model{
		state:     state,
		source:    src,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange7Days,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return m.loadHistoryCmd()
}

// loadHistoryCmd creates a command to load snapshots for the selected range.
func (m *Model) loadHistoryCmd() tea.Cmd {
	src, tr := m.source, m.timeRange
	return func() tea.Msg {
		if src == nil {
			return historyErrorMsg{err: errNoSource.Error()}
		}

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		snaps, err := src.GetSnapshots(ctx, tr)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{snapshots: snaps, timeRange: tr}
	}
}

func (m *Model) captureCmd() tea.Cmd {
	src := m.source
	return func() tea.Msg {
		if src == nil {
			return captureDoneMsg{err: errNoSource}
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		snap, err := src.CaptureSnapshot(ctx)
		return captureDoneMsg{snapshot: snap, err: err}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.timeRange != m.timeRange {
			break
		}
		m.snapshots = msg.snapshots
		m.loading = false
		m.loaded = true
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("History error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case captureDoneMsg:
		m.capturing = false
		if msg.err != nil {
			cmds = append(cmds, func() tea.Msg {
				return app.ErrorMsg{Error: msg.err, Context: "Snapshot"}
			})
			break
		}
		cmds = append(cmds, m.reload())

	case app.SnapshotRecordedMsg, app.RefreshMsg:
		cmds = append(cmds, m.reload())

	case app.TabSwitchMsg:
		// A result delivered while another tab was active is lost.
		if msg.Tab == app.TabHistory && (!m.loaded || m.loading) {
			cmds = append(cmds, m.reload())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		cmds = append(cmds, m.reload())

	case key.Matches(msg, m.keys.Capture):
		if !m.capturing {
			m.capturing = true
			cmds = append(cmds, m.captureCmd())
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Capture,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.Capture, m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
