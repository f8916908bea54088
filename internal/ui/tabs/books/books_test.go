package books

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/models"
)

type fakeLister struct {
	mu     sync.Mutex
	page   *models.BooksPage
	err    error
	params []url.Values
}

func (f *fakeLister) ListBooks(_ context.Context, params url.Values) (*models.BooksPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, params)
	return f.page, f.err
}

func (f *fakeLister) last() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.params) == 0 {
		return nil
	}
	return f.params[len(f.params)-1]
}

func price(v float64) *float64 { return &v }

func testPage(total, n int) *models.BooksPage {
	items := make([]models.Book, n)
	for i := range items {
		items[i] = models.Book{
			ID:           "http://books.test/" + string(rune('a'+i)),
			Title:        "Book " + string(rune('A'+i)),
			URL:          "http://books.test/" + string(rune('a'+i)),
			Price:        price(float64(10 + i)),
			Availability: "In stock",
		}
	}
	return &models.BooksPage{Total: total, Items: items}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collect runs cmd and any batched commands, skipping spinner ticks.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findPage(msgs []tea.Msg) (pageLoadedMsg, bool) {
	for _, msg := range msgs {
		if p, ok := msg.(pageLoadedMsg); ok {
			return p, true
		}
	}
	return pageLoadedMsg{}, false
}

func newLoaded(t *testing.T, page *models.BooksPage) (*Model, *app.State, *fakeLister) {
	t.Helper()
	state := app.NewState()
	lister := &fakeLister{page: page}
	m := New(state, lister, time.Millisecond)
	m.SetSize(120, 40)

	loaded, ok := findPage(collect(m.Init()))
	if !ok {
		t.Fatal("Init should fetch a page")
	}
	m.Update(loaded)
	return m, state, lister
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil, 0)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", m.debounce, DefaultDebounce)
	}
	if m.CapturingInput() {
		t.Error("should not capture input initially")
	}
}

func TestFetchWithoutClient(t *testing.T) {
	m := New(app.NewState(), nil, 0)
	loaded, ok := findPage(collect(m.Init()))
	if !ok || !errors.Is(loaded.err, errNoClient) {
		t.Fatalf("fetch without client = %+v", loaded)
	}
}

func TestInitFetchesDefaultView(t *testing.T) {
	m, _, lister := newLoaded(t, testPage(50, 10))

	params := lister.last()
	if params.Get("limit") != "10" || params.Get("offset") != "0" {
		t.Errorf("params = %v", params)
	}
	for _, k := range []string{"q", "price_min", "price_max", "availability", "sort"} {
		if params.Has(k) {
			t.Errorf("unset %s should be omitted", k)
		}
	}
	if m.loading {
		t.Error("loading should stop after the page arrives")
	}
	if len(m.table.Rows()) != 10 {
		t.Errorf("rows = %d, want 10", len(m.table.Rows()))
	}
}

func TestPagingAndFilterResetOffset(t *testing.T) {
	m, state, lister := newLoaded(t, testPage(50, 10))

	if cmd := m.handleKeyMsg(runeKey('n')); cmd == nil {
		t.Fatal("next page should refetch")
	} else {
		collect(cmd)
	}
	if state.GetView().Offset != 10 || state.Link() != "offset=10" {
		t.Errorf("after next: offset=%d link=%q", state.GetView().Offset, state.Link())
	}
	if lister.last().Get("offset") != "10" {
		t.Errorf("fetched offset = %v", lister.last().Get("offset"))
	}

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyLeft})
	if state.GetView().Offset != 0 {
		t.Errorf("left should go back, offset=%d", state.GetView().Offset)
	}

	m.handleKeyMsg(runeKey('n'))
	m.handleKeyMsg(runeKey('a'))
	v := state.GetView()
	if v.Offset != 0 || v.Availability != models.AvailabilityInStock {
		t.Errorf("availability change should rewind, got %+v", v)
	}
	if state.Link() != "availability=in+stock" {
		t.Errorf("link = %q", state.Link())
	}
}

func TestPagingBoundaries(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(10, 10))

	if cmd := m.handleKeyMsg(runeKey('n')); cmd != nil {
		t.Error("next page past the end should be a no-op")
	}
	if cmd := m.handleKeyMsg(runeKey('b')); cmd != nil {
		t.Error("prev page at the start should be a no-op")
	}
	if state.GetView().Offset != 0 {
		t.Errorf("offset = %d", state.GetView().Offset)
	}
}

func TestSortCycle(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(5, 5))

	want := []models.SortKey{models.SortTitleAsc, models.SortTitleDesc, models.SortNone}
	for _, w := range want {
		m.handleKeyMsg(runeKey('t'))
		if got := state.GetView().Sort; got != w {
			t.Fatalf("sort = %q, want %q", got, w)
		}
	}

	m.handleKeyMsg(runeKey('t'))
	m.handleKeyMsg(runeKey('p'))
	if got := state.GetView().Sort; got != models.SortPriceAsc {
		t.Errorf("switching column should restart at asc, got %q", got)
	}
	if title := m.table.Columns()[1].Title; title != "Price ▲" {
		t.Errorf("price header = %q", title)
	}
}

func TestPageSizeCycle(t *testing.T) {
	m, state, lister := newLoaded(t, testPage(50, 10))
	collect(m.handleKeyMsg(runeKey('s')))
	if state.GetView().Limit != 20 || lister.last().Get("limit") != "20" {
		t.Errorf("limit = %d", state.GetView().Limit)
	}
}

func TestSearchDebounce(t *testing.T) {
	m, state, lister := newLoaded(t, testPage(5, 5))
	fetches := len(lister.params)

	m.Update(runeKey('/'))
	if !m.CapturingInput() {
		t.Fatal("search should capture input")
	}

	m.Update(runeKey('d'))
	m.Update(runeKey('u'))
	if state.GetView().Query != "" {
		t.Fatal("typing should not apply the query before it settles")
	}

	if _, cmd := m.Update(settleMsg{seq: m.seq - 1}); cmd != nil {
		t.Error("a stale settle should do nothing")
	}

	_, cmd := m.Update(settleMsg{seq: m.seq})
	if cmd == nil {
		t.Fatal("the current settle should fetch")
	}
	collect(cmd)
	if state.GetView().Query != "du" || lister.last().Get("q") != "du" {
		t.Errorf("query = %q", state.GetView().Query)
	}

	if _, cmd := m.Update(settleMsg{seq: m.seq}); cmd != nil {
		t.Error("an unchanged query should not refetch")
	}

	m.Update(runeKey(' '))
	if _, cmd := m.Update(settleMsg{seq: m.seq}); cmd != nil {
		t.Error("trailing whitespace should not refetch")
	}
	if len(lister.params) != fetches+1 {
		t.Errorf("fetches = %d, want %d", len(lister.params), fetches+1)
	}
}

func TestSearchSettleCommand(t *testing.T) {
	m := New(app.NewState(), &fakeLister{page: testPage(0, 0)}, time.Millisecond)
	m.Update(runeKey('/'))
	_, cmd := m.Update(runeKey('x'))

	var settled bool
	for _, msg := range collect(cmd) {
		if s, ok := msg.(settleMsg); ok && s.seq == m.seq {
			settled = true
		}
	}
	if !settled {
		t.Error("a keystroke should schedule a settle")
	}
}

func TestSearchEnterAppliesNow(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(50, 10))
	m.handleKeyMsg(runeKey('n'))

	m.Update(runeKey('/'))
	m.Update(runeKey('z'))
	seq := m.seq

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should apply the query")
	}
	if m.CapturingInput() {
		t.Error("enter should leave the search box")
	}
	if v := state.GetView(); v.Query != "z" || v.Offset != 0 {
		t.Errorf("view = %+v", v)
	}
	if _, cmd := m.Update(settleMsg{seq: seq}); cmd != nil {
		t.Error("enter should supersede the pending settle")
	}
}

func TestPriceInputs(t *testing.T) {
	tests := []struct {
		name  string
		key   rune
		typed string
		want  *float64
	}{
		{"Min", 'm', "5", price(5)},
		{"MinPound", 'm', "£7.5", price(7.5)},
		{"MaxInvalid", 'M', "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, state, _ := newLoaded(t, testPage(5, 5))
			m.Update(runeKey(tt.key))
			for _, r := range tt.typed {
				m.Update(runeKey(r))
			}
			m.Update(tea.KeyMsg{Type: tea.KeyEnter})

			v := state.GetView()
			got := v.PriceMin
			if tt.key == 'M' {
				got = v.PriceMax
			}
			if !samePrice(got, tt.want) {
				t.Errorf("price = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriceInputCancel(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(5, 5))
	m.Update(runeKey('m'))
	m.Update(runeKey('9'))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if cmd != nil || m.CapturingInput() {
		t.Error("esc should leave the input without fetching")
	}
	if state.GetView().PriceMin != nil || m.priceMin.Value() != "" {
		t.Error("esc should discard the edit")
	}
}

func TestClearFilters(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(5, 5))

	if cmd := m.handleKeyMsg(runeKey('x')); cmd != nil {
		t.Error("clearing nothing should be a no-op")
	}

	state.ApplyLink("q=dune&price_max=10&limit=20")
	if cmd := m.handleKeyMsg(runeKey('x')); cmd == nil {
		t.Fatal("clear should refetch")
	}
	if state.Link() != "limit=20" {
		t.Errorf("link = %q, want page size kept", state.Link())
	}
}

func TestCopyKeys(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(5, 5))
	state.SetLinkBase("http://dash.test/")
	state.ApplyLink("q=dune")

	msg, ok := m.handleKeyMsg(runeKey('y'))().(app.CopyToClipboardMsg)
	if !ok || msg.Text != "http://dash.test/?q=dune" {
		t.Errorf("copy link = %+v", msg)
	}

	m.table.MoveDown(1)
	msg, ok = m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})().(app.CopyToClipboardMsg)
	if !ok || msg.Text != "http://books.test/b" {
		t.Errorf("copy URL = %+v", msg)
	}
}

func TestSaveViewKey(t *testing.T) {
	m, _, _ := newLoaded(t, testPage(5, 5))
	if cmd := m.handleKeyMsg(runeKey('v')); cmd == nil {
		t.Error("v should switch to the views tab")
	}
}

func TestLoadError(t *testing.T) {
	m, _, _ := newLoaded(t, testPage(5, 5))

	_, cmd := m.Update(pageLoadedMsg{link: m.fetched, err: errors.New("boom")})
	var sawError bool
	for _, msg := range collect(cmd) {
		if e, ok := msg.(app.ErrorMsg); ok && e.Context == "Books" {
			sawError = true
		}
	}
	if !sawError {
		t.Error("a failed load should report an error")
	}
	if view := ansi.Strip(m.View()); !strings.Contains(view, textLoadFailed) {
		t.Errorf("view should show the failure:\n%s", view)
	}
}

func TestLatePageIgnored(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(50, 10))

	m.handleKeyMsg(runeKey('a'))
	inStock := m.fetched
	m.handleKeyMsg(runeKey('a'))
	outOfStock := m.fetched
	if inStock == outOfStock || state.Link() != outOfStock {
		t.Fatalf("links: first=%q second=%q state=%q", inStock, outOfStock, state.Link())
	}

	current := testPage(3, 3)
	current.Items[0].Title = "Current"
	m.Update(pageLoadedMsg{link: outOfStock, page: current})

	stale := testPage(40, 10)
	stale.Items[0].Title = "Stale"
	if _, cmd := m.Update(pageLoadedMsg{link: inStock, page: stale}); cmd != nil {
		t.Error("a superseded page should be dropped silently")
	}
	if m.page != current || m.total() != 3 {
		t.Errorf("page total = %d, want the latest request's page", m.total())
	}
	if got := m.table.Rows()[0][0]; got != "Current" {
		t.Errorf("first row = %q, want Current", got)
	}
}

func TestLatePageKeepsLoading(t *testing.T) {
	m, _, _ := newLoaded(t, testPage(50, 10))

	m.handleKeyMsg(runeKey('a'))
	first := m.fetched
	m.handleKeyMsg(runeKey('a'))

	m.Update(pageLoadedMsg{link: first, err: errors.New("late")})
	if !m.loading {
		t.Error("a superseded response should not end the newer fetch")
	}
	if m.err != nil {
		t.Errorf("err = %v, want the superseded failure ignored", m.err)
	}
}

func TestTableHiddenWhileNotReady(t *testing.T) {
	tests := []struct {
		name   string
		apply  func(m *Model)
		absent []string
		want   string
	}{
		{
			name: "Failed",
			apply: func(m *Model) {
				m.Update(pageLoadedMsg{link: m.fetched, err: errors.New("boom")})
			},
			absent: []string{"Book A", "of 50"},
			want:   textLoadFailed,
		},
		{
			name: "Loading",
			apply: func(m *Model) {
				m.Update(app.RefreshMsg{})
			},
			absent: []string{"Book A", "of 50"},
			want:   textLoading,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newLoaded(t, testPage(50, 10))
			tt.apply(m)

			view := ansi.Strip(m.View())
			if !strings.Contains(view, tt.want) {
				t.Errorf("view should contain %q:\n%s", tt.want, view)
			}
			for _, s := range tt.absent {
				if strings.Contains(view, s) {
					t.Errorf("view should not contain %q:\n%s", s, view)
				}
			}
		})
	}
}

func TestEmptyResults(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(0, 0))

	view := ansi.Strip(m.View())
	if !strings.Contains(view, textNoResults) || strings.Contains(view, textClearHint) {
		t.Errorf("unfiltered empty view:\n%s", view)
	}

	state.ApplyLink("q=nothing")
	view = ansi.Strip(m.View())
	if !strings.Contains(view, textClearHint) {
		t.Errorf("filtered empty view should hint at clearing:\n%s", view)
	}
}

func TestViewTable(t *testing.T) {
	page := testPage(50, 10)
	page.Items[0].Price = nil
	m, _, _ := newLoaded(t, page)

	view := ansi.Strip(m.View())
	for _, want := range []string{"Book A", "—", "£11.00", "1–10 of 50", "Title"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestTabSwitchRefetch(t *testing.T) {
	m, state, _ := newLoaded(t, testPage(5, 5))

	if _, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabBooks}); cmd != nil {
		t.Error("an unchanged view should not refetch")
	}

	state.ApplyLink("q=dune")
	_, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabBooks})
	if cmd == nil {
		t.Fatal("a changed view should refetch")
	}
	if m.search.Value() != "dune" {
		t.Errorf("search box = %q, want dune", m.search.Value())
	}

	if _, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabViews}); cmd != nil {
		t.Error("switching to another tab should be ignored")
	}
}

func TestRefresh(t *testing.T) {
	m, _, _ := newLoaded(t, testPage(5, 5))
	if _, cmd := m.Update(app.RefreshMsg{}); cmd == nil {
		t.Error("refresh should refetch")
	}
	if !m.loading {
		t.Error("refresh should start loading")
	}
}

func TestHelp(t *testing.T) {
	m := New(app.NewState(), nil, 0)
	if len(m.ShortHelp()) == 0 || len(m.FullHelp()) == 0 {
		t.Error("help should not be empty")
	}
	m.Update(runeKey('/'))
	if len(m.ShortHelp()) != 2 {
		t.Error("editing help should list apply and cancel")
	}
}
