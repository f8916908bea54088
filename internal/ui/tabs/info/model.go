// Package info provides the info tab: configuration, build details and API
// client statistics.
package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bookdash-tui/internal/api"
	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/config"
)

// Stats exposes the API client counters shown on the tab.
type Stats interface {
	Metrics() *api.Metrics
	CachedPages() int
}

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Copy     key.Binding
	CopyLink key.Binding
	Up       key.Binding
	Down     key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy views path"),
		),
		CopyLink: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	stats    Stats
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
}

// New creates a new info model. stats may be nil.
func New(state *app.State, cfg *config.Config, stats Stats) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		stats:    stats,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Copy):
		if m.config != nil {
			path := m.config.ViewsPath
			return m, func() tea.Msg {
				return app.CopyToClipboardMsg{Text: path, Label: "views path"}
			}
		}
	case key.Matches(keyMsg, m.keys.CopyLink):
		link := m.state.ShareLink()
		return m, func() tea.Msg {
			return app.CopyToClipboardMsg{Text: link, Label: "link"}
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		return m, cmd
	}

	return m, nil
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Copy,
		m.keys.CopyLink,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Copy, m.keys.CopyLink},
		{m.keys.Up, m.keys.Down},
	}
}
