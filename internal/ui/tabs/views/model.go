// Package views provides the saved views tab: named dashboard links that can
// be applied, shared or deleted.
package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/ui/styles"
)

// MaxNameLength matches the limit enforced by the views store.
const MaxNameLength = 64

const textInvalidName = "Name must be 1-64 characters"

// formField represents which element of the name form is focused.
type formField int

const (
	fieldName formField = iota
	fieldSubmit
	fieldCancel
	fieldCount
)

// keyMap defines the key bindings specific to the views tab.
type keyMap struct {
	Apply  key.Binding
	Delete key.Binding
	Save   key.Binding
	Copy   key.Binding
	Escape key.Binding
}

// defaultKeyMap returns the default key bindings for the views tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply view"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Save: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "save current"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the views tab state.
type Model struct {
	state         *app.State
	table         table.Model
	nameInput     textinput.Model
	keys          keyMap
	link          string
	formErr       string
	deleteName    string
	focusedField  formField
	width         int
	height        int
	naming        bool
	confirmDelete bool
}

// New creates a new views model.
func New(state *app.State) *Model {
	nameInput := textinput.New()
	nameInput.Placeholder = "e.g. cheap in-stock poetry"
	nameInput.CharLimit = MaxNameLength
	nameInput.Width = 40

	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	m := &Model{
		state:     state,
		table:     t,
		nameInput: nameInput,
		keys:      defaultKeyMap(),
	}
	m.refreshRows()
	return m
}

// Init initializes the views tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturingInput reports whether the tab owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.naming || m.confirmDelete
}

// Update handles messages for the views tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.ViewsLoadedMsg:
		m.refreshRows()
		return m, nil

	case app.TabSwitchMsg:
		if msg.Tab == app.TabViews {
			m.refreshRows()
		}
		return m, nil

	case app.BeginSaveViewMsg:
		return m, m.openForm()
	}

	if m.naming {
		return m, m.updateNameForm(msg)
	}
	if m.confirmDelete {
		return m, m.updateDeleteConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Save):
		return m, m.openForm()

	case key.Matches(keyMsg, m.keys.Apply):
		if v, ok := m.selected(); ok {
			return m, func() tea.Msg {
				return app.ApplyViewMsg{Name: v.Name, Link: v.Link}
			}
		}

	case key.Matches(keyMsg, m.keys.Copy):
		if v, ok := m.selected(); ok {
			text := m.state.ShareLinkFor(v.Link)
			return m, func() tea.Msg {
				return app.CopyToClipboardMsg{Text: text, Label: "view link"}
			}
		}

	case key.Matches(keyMsg, m.keys.Delete):
		if v, ok := m.selected(); ok {
			m.confirmDelete = true
			m.deleteName = v.Name
		}

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(keyMsg)
		return m, cmd
	}

	return m, nil
}

// openForm starts naming the current books view.
func (m *Model) openForm() tea.Cmd {
	m.naming = true
	m.confirmDelete = false
	m.link = m.state.Link()
	m.formErr = ""
	m.focusedField = fieldName
	m.nameInput.SetValue("")
	m.updateFormFocus()
	return textinput.Blink
}

func (m *Model) closeForm() {
	m.naming = false
	m.formErr = ""
	m.nameInput.Blur()
}

// updateNameForm handles the save view form.
func (m *Model) updateNameForm(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.closeForm()
			return nil

		case "tab", "down":
			m.focusedField = (m.focusedField + 1) % fieldCount
			m.updateFormFocus()
			return textinput.Blink

		case "shift+tab", "up":
			m.focusedField = (m.focusedField - 1 + fieldCount) % fieldCount
			m.updateFormFocus()
			return textinput.Blink

		case "enter":
			if m.focusedField == fieldCancel {
				m.closeForm()
				return nil
			}
			return m.submit()
		}
	}

	if m.focusedField != fieldName {
		return nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return cmd
}

// submit validates the name and asks the app to store the captured link.
func (m *Model) submit() tea.Cmd {
	name := strings.TrimSpace(m.nameInput.Value())
	if name == "" || len(name) > MaxNameLength {
		m.formErr = textInvalidName
		m.focusedField = fieldName
		m.updateFormFocus()
		return nil
	}

	link := m.link
	m.closeForm()
	return func() tea.Msg {
		return app.SaveViewMsg{Name: name, Link: link}
	}
}

// updateDeleteConfirm handles the delete confirmation.
func (m *Model) updateDeleteConfirm(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		name := m.deleteName
		m.confirmDelete = false
		m.deleteName = ""
		return func() tea.Msg {
			return app.DeleteViewMsg{Name: name}
		}
	case "n", "N", "esc":
		m.confirmDelete = false
		m.deleteName = ""
	}
	return nil
}

// updateFormFocus updates which form element is focused.
func (m *Model) updateFormFocus() {
	if m.focusedField == fieldName {
		m.nameInput.Focus()
		return
	}
	m.nameInput.Blur()
}

// selected returns the view under the cursor.
func (m *Model) selected() (models.SavedView, bool) {
	views := m.state.GetViews()
	i := m.table.Cursor()
	if i < 0 || i >= len(views) {
		return models.SavedView{}, false
	}
	return views[i], true
}

// SetSize sets the available size for the views tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-10, 3))
	m.table.SetColumns(columns(width))
	m.nameInput.Width = min(max(width-24, 20), 60)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.naming {
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
			m.keys.Escape,
		}
	}
	return []key.Binding{
		m.keys.Apply,
		m.keys.Copy,
		m.keys.Delete,
		m.keys.Save,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Apply, m.keys.Copy},
		{m.keys.Save, m.keys.Delete, m.keys.Escape},
	}
}
