// Package books provides the filterable, sortable and paginated books listing tab.
package books

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/filter"
	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/ui/components"
)

// DefaultDebounce is the search idle interval used when none is configured.
const DefaultDebounce = 300 * time.Millisecond

var errNoClient = errors.New("books API client not configured")

// Lister fetches one page of the filtered listing.
type Lister interface {
	ListBooks(ctx context.Context, params url.Values) (*models.BooksPage, error)
}

// field identifies the text input being edited.
type field int

const (
	fieldNone field = iota
	fieldSearch
	fieldPriceMin
	fieldPriceMax
)

// keyMap defines the key bindings specific to the books tab.
type keyMap struct {
	Search       key.Binding
	PriceMin     key.Binding
	PriceMax     key.Binding
	Availability key.Binding
	SortTitle    key.Binding
	SortPrice    key.Binding
	PageSize     key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	Clear        key.Binding
	CopyLink     key.Binding
	SaveView     key.Binding
	CopyURL      key.Binding
	Refresh      key.Binding
	Up           key.Binding
	Down         key.Binding
	Submit       key.Binding
	Cancel       key.Binding
}

// defaultKeyMap returns the default key bindings for the books tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		PriceMin: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "min price"),
		),
		PriceMax: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "max price"),
		),
		Availability: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "availability"),
		),
		SortTitle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "sort by title"),
		),
		SortPrice: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "sort by price"),
		),
		PageSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "page size"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("b", "left"),
			key.WithHelp("b/←", "prev page"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filters"),
		),
		CopyLink: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		SaveView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "save view"),
		),
		CopyURL: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "copy book URL"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// pageLoadedMsg carries the result of a listing fetch and the link it answers.
type pageLoadedMsg struct {
	page *models.BooksPage
	err  error
	link string
}

// settleMsg fires once the search box has been idle for the debounce interval.
type settleMsg struct {
	seq int
}

// Model represents the books tab state.
type Model struct {
	state   *app.State
	client  Lister
	page    *models.BooksPage
	err     error
	keys    keyMap
	spinner components.LoadingSpinner
	table   table.Model

	search   textinput.Model
	priceMin textinput.Model
	priceMax textinput.Model
	editing  field

	// fetched is the link of the last request issued.
	fetched  string
	debounce time.Duration
	seq      int
	loading  bool
	width    int
	height   int
}

// New creates a new books model. A non-positive debounce uses DefaultDebounce.
func New(state *app.State, client Lister, debounce time.Duration) *Model {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	m := &Model{
		state:    state,
		client:   client,
		keys:     defaultKeyMap(),
		spinner:  components.NewSpinner("Loading..."),
		search:   newInput("Search titles", 64),
		priceMin: newInput("min £", 10),
		priceMax: newInput("max £", 10),
		debounce: debounce,
	}
	m.table = newTable()
	m.syncInputs()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	return ti
}

// Init issues the first fetch.
func (m *Model) Init() tea.Cmd {
	return m.fetchCmd()
}

// CapturingInput reports whether a text input owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.editing != fieldNone
}

// Update handles messages for the books tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		return m, m.handlePageLoaded(msg)

	case settleMsg:
		return m, m.handleSettle(msg)

	case app.RefreshMsg:
		return m, m.fetchCmd()

	case app.TabSwitchMsg:
		if msg.Tab == app.TabBooks {
			return m, m.handleActivated()
		}

	case tea.KeyMsg:
		if m.editing != fieldNone {
			return m, m.handleEditingKey(msg)
		}
		return m, m.handleKeyMsg(msg)

	default:
		return m, m.updateWidgets(msg)
	}

	return m, nil
}

// updateWidgets forwards ticks to the spinner and the focused input.
func (m *Model) updateWidgets(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	switch m.editing {
	case fieldSearch:
		m.search, cmd = m.search.Update(msg)
	case fieldPriceMin:
		m.priceMin, cmd = m.priceMin.Update(msg)
	case fieldPriceMax:
		m.priceMax, cmd = m.priceMax.Update(msg)
	}
	cmds = append(cmds, cmd)

	return tea.Batch(cmds...)
}

// handleActivated refetches when the shared view changed elsewhere or a
// result was delivered while another tab was active.
func (m *Model) handleActivated() tea.Cmd {
	m.syncInputs()
	if m.page == nil || m.loading || m.fetched != m.state.Link() {
		return m.fetchCmd()
	}
	return nil
}

// handlePageLoaded drops responses for any link other than the last one requested.
func (m *Model) handlePageLoaded(msg pageLoadedMsg) tea.Cmd {
	if msg.link != m.fetched {
		return nil
	}
	m.loading = false
	stop := func() tea.Msg { return app.StopLoadingMsg{Resource: app.ResourceBooks} }

	if msg.err != nil {
		m.err = msg.err
		return tea.Batch(stop, func() tea.Msg {
			return app.ErrorMsg{Error: msg.err, Context: "Books"}
		})
	}

	m.err = nil
	m.page = msg.page
	m.refreshRows()
	return stop
}

func (m *Model) handleSettle(msg settleMsg) tea.Cmd {
	if msg.seq != m.seq {
		return nil
	}
	return m.applyQuery()
}

// applyQuery commits the search box when its trimmed value differs from
// the applied query.
func (m *Model) applyQuery() tea.Cmd {
	q := strings.TrimSpace(m.search.Value())
	v := m.state.GetView()
	if q == v.Query {
		return nil
	}
	v.SetQuery(q)
	return m.commit(v)
}

func (m *Model) handleEditingKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()
	case key.Matches(msg, m.keys.Cancel):
		return m.cancelInput()
	}

	var cmd tea.Cmd
	switch m.editing {
	case fieldSearch:
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			m.seq++
			return tea.Batch(cmd, settleCmd(m.seq, m.debounce))
		}
	case fieldPriceMin:
		m.priceMin, cmd = m.priceMin.Update(msg)
	case fieldPriceMax:
		m.priceMax, cmd = m.priceMax.Update(msg)
	}
	return cmd
}

func settleCmd(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return settleMsg{seq: seq}
	})
}

func (m *Model) submitInput() tea.Cmd {
	editing := m.editing
	m.blur()

	v := m.state.GetView()
	switch editing {
	case fieldSearch:
		// Supersede any pending settle.
		m.seq++
		return m.applyQuery()
	case fieldPriceMin:
		if samePrice(v.PriceMin, filter.ParsePrice(m.priceMin.Value())) {
			m.syncInputs()
			return nil
		}
		v.SetPriceMin(filter.ParsePrice(m.priceMin.Value()))
	case fieldPriceMax:
		if samePrice(v.PriceMax, filter.ParsePrice(m.priceMax.Value())) {
			m.syncInputs()
			return nil
		}
		v.SetPriceMax(filter.ParsePrice(m.priceMax.Value()))
	}
	return m.commit(v)
}

// cancelInput leaves the editor. Price edits are discarded; the search box
// keeps its text and a pending settle still applies it.
func (m *Model) cancelInput() tea.Cmd {
	editing := m.editing
	m.blur()
	if editing != fieldSearch {
		m.syncInputs()
	}
	return nil
}

func samePrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *Model) focus(f field) tea.Cmd {
	m.blur()
	m.editing = f
	switch f {
	case fieldSearch:
		return m.search.Focus()
	case fieldPriceMin:
		return m.priceMin.Focus()
	case fieldPriceMax:
		return m.priceMax.Focus()
	}
	return nil
}

func (m *Model) blur() {
	m.editing = fieldNone
	m.search.Blur()
	m.priceMin.Blur()
	m.priceMax.Blur()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	v := m.state.GetView()
	total := m.total()

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.focus(fieldSearch)
	case key.Matches(msg, m.keys.PriceMin):
		return m.focus(fieldPriceMin)
	case key.Matches(msg, m.keys.PriceMax):
		return m.focus(fieldPriceMax)

	case key.Matches(msg, m.keys.Availability):
		v.SetAvailability(v.Availability.Next())
	case key.Matches(msg, m.keys.SortTitle):
		v.CycleSort(models.SortByTitle)
	case key.Matches(msg, m.keys.SortPrice):
		v.CycleSort(models.SortByPrice)
	case key.Matches(msg, m.keys.PageSize):
		v.CycleLimit()

	case key.Matches(msg, m.keys.NextPage):
		if !v.NextPage(total) {
			return nil
		}
	case key.Matches(msg, m.keys.PrevPage):
		if !v.PrevPage() {
			return nil
		}

	case key.Matches(msg, m.keys.Clear):
		if !v.HasActiveFilters() && v.Offset == 0 {
			return nil
		}
		v.Clear()

	case key.Matches(msg, m.keys.CopyLink):
		link := m.state.ShareLink()
		return func() tea.Msg { return app.CopyToClipboardMsg{Text: link, Label: "link"} }

	case key.Matches(msg, m.keys.SaveView):
		return tea.Sequence(
			func() tea.Msg { return app.TabSwitchMsg{Tab: app.TabViews} },
			func() tea.Msg { return app.BeginSaveViewMsg{} },
		)

	case key.Matches(msg, m.keys.CopyURL):
		return m.copySelectedURL()

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}

	return m.commit(v)
}

func (m *Model) copySelectedURL() tea.Cmd {
	b, ok := m.selectedBook()
	if !ok || b.URL == "" {
		return nil
	}
	return func() tea.Msg { return app.CopyToClipboardMsg{Text: b.URL, Label: "book URL"} }
}

func (m *Model) selectedBook() (models.Book, bool) {
	if m.page == nil {
		return models.Book{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.page.Items) {
		return models.Book{}, false
	}
	return m.page.Items[i], true
}

// commit mirrors v into the shared state, which re-derives the link, and refetches.
func (m *Model) commit(v filter.State) tea.Cmd {
	m.state.SetView(v)
	m.syncInputs()
	return m.fetchCmd()
}

// syncInputs copies the applied view into inputs that are not being edited.
func (m *Model) syncInputs() {
	v := m.state.GetView()
	if m.editing != fieldSearch {
		m.search.SetValue(v.Query)
	}
	if m.editing != fieldPriceMin {
		m.priceMin.SetValue(filter.FormatPrice(v.PriceMin))
	}
	if m.editing != fieldPriceMax {
		m.priceMax.SetValue(filter.FormatPrice(v.PriceMax))
	}
	m.table.SetColumns(columns(v.Sort, m.width))
}

func (m *Model) fetchCmd() tea.Cmd {
	m.loading = true
	m.fetched = m.state.Link()

	link := m.fetched
	v := m.state.GetView()
	params := v.Params()
	client := m.client

	fetch := func() tea.Msg {
		if client == nil {
			return pageLoadedMsg{link: link, err: errNoClient}
		}
		page, err := client.ListBooks(context.Background(), params)
		return pageLoadedMsg{link: link, page: page, err: err}
	}

	return tea.Batch(
		func() tea.Msg { return app.StartLoadingMsg{Resource: app.ResourceBooks} },
		fetch,
		m.spinner.Tick(),
	)
}

func (m *Model) total() int {
	if m.page == nil {
		return 0
	}
	return m.page.Total
}

// SetSize sets the available size for the books tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(m.state.GetView().Sort, width))
	m.table.SetHeight(max(height-tableChrome, 3))
	m.table.SetWidth(max(width-4, 20))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing != fieldNone {
		return []key.Binding{m.keys.Submit, m.keys.Cancel}
	}
	return []key.Binding{
		m.keys.Search,
		m.keys.Availability,
		m.keys.SortTitle,
		m.keys.SortPrice,
		m.keys.NextPage,
		m.keys.PrevPage,
		m.keys.CopyLink,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Search, m.keys.PriceMin, m.keys.PriceMax, m.keys.Availability},
		{m.keys.SortTitle, m.keys.SortPrice, m.keys.PageSize},
		{m.keys.NextPage, m.keys.PrevPage, m.keys.Up, m.keys.Down},
		{m.keys.Clear, m.keys.CopyLink, m.keys.SaveView, m.keys.CopyURL, m.keys.Refresh},
	}
}
