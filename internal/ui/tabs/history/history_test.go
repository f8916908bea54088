package history

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/jarcoal/httpmock"

	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/config"
	"github.com/j-veylop/bookdash-tui/internal/models"
	"github.com/j-veylop/bookdash-tui/internal/services"
)

const testBaseURL = "http://books.test"

func price(v float64) *float64 { return &v }

type fakeSource struct {
	snaps []models.Snapshot
	err   error
	asked []models.TimeRange
}

func (f *fakeSource) GetSnapshots(_ context.Context, tr models.TimeRange) ([]models.Snapshot, error) {
	f.asked = append(f.asked, tr)
	return f.snaps, f.err
}

func (f *fakeSource) CaptureSnapshot(context.Context) (*models.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := models.Snapshot{RecordedAt: time.Now(), TotalBooks: 1}
	f.snaps = append(f.snaps, s)
	return &s, nil
}

func testSnapshots() []models.Snapshot {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Snapshot{
		{RecordedAt: base, TotalBooks: 100, InStock: 80, PricedBooks: 95, AvgPrice: price(20)},
		{RecordedAt: base.Add(time.Hour), TotalBooks: 100, InStock: 60, PricedBooks: 95},
		{RecordedAt: base.Add(2 * time.Hour), TotalBooks: 120, InStock: 90, PricedBooks: 110, AvgPrice: price(25.5)},
	}
}

func TestNew(t *testing.T) {
	state := app.NewState()
	m := New(state, nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.timeRange != models.TimeRange7Days {
		t.Errorf("default range = %v", m.timeRange)
	}
}

func TestModel_Init(t *testing.T) {
	state := app.NewState()
	m := New(state, nil)
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init returned nil")
	}
	if msg, ok := cmd().(historyErrorMsg); !ok || msg.err != errNoSource.Error() {
		t.Errorf("Init without a source = %+v", msg)
	}
}

func TestModel_LoadAndView(t *testing.T) {
	src := &fakeSource{snaps: testSnapshots()}
	m := New(app.NewState(), src)
	m.SetSize(120, 120)

	cmd := m.Init()
	if view := ansi.Strip(m.View()); !strings.Contains(view, "Loading history data...") {
		t.Errorf("expected loading view, got:\n%s", view)
	}

	m.Update(cmd())
	if m.loading || !m.loaded {
		t.Fatal("snapshots should be loaded")
	}

	view := ansi.Strip(m.View())
	for _, want := range []string{"Catalog history", "3 snapshots", "Average price", "Latest snapshots", "£25.50", "In stock now"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestModel_Empty(t *testing.T) {
	m := New(app.NewState(), &fakeSource{})
	m.SetSize(100, 40)
	m.Update(m.Init()())

	if view := ansi.Strip(m.View()); !strings.Contains(view, "No snapshots recorded") {
		t.Errorf("expected empty view, got:\n%s", view)
	}
}

func TestModel_Error(t *testing.T) {
	m := New(app.NewState(), &fakeSource{err: errors.New("disk gone")})
	m.SetSize(100, 40)

	_, cmd := m.Update(m.Init()())
	if _, ok := cmd().(app.AddNotificationMsg); !ok {
		t.Error("a load error should notify")
	}
	if view := ansi.Strip(m.View()); !strings.Contains(view, "disk gone") {
		t.Errorf("view should show the error:\n%s", view)
	}
}

func TestModel_ToggleRange(t *testing.T) {
	src := &fakeSource{snaps: testSnapshots()}
	m := New(app.NewState(), src)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if m.timeRange != models.TimeRange30Days {
		t.Errorf("range = %v, want 30 days", m.timeRange)
	}
	m.Update(cmd())
	if got := src.asked[len(src.asked)-1]; got != models.TimeRange30Days {
		t.Errorf("asked for %v", got)
	}

	// A late response for a previous range is ignored.
	m.snapshots = nil
	m.Update(historyLoadedMsg{snapshots: testSnapshots(), timeRange: models.TimeRange24Hours})
	if m.snapshots != nil {
		t.Error("a response for another range should be ignored")
	}
}

func TestModel_Capture(t *testing.T) {
	src := &fakeSource{}
	m := New(app.NewState(), src)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if !m.capturing {
		t.Fatal("c should start a capture")
	}
	if _, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}}); again != nil {
		t.Error("a second capture should wait for the first")
	}

	_, reload := m.Update(cmd())
	if m.capturing || reload == nil {
		t.Fatal("capture should finish and reload")
	}
	m.Update(reload())
	if len(m.snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1", len(m.snapshots))
	}
}

func TestModel_Reloads(t *testing.T) {
	m := New(app.NewState(), &fakeSource{})

	for _, msg := range []tea.Msg{app.RefreshMsg{}, app.SnapshotRecordedMsg{}, app.TabSwitchMsg{Tab: app.TabHistory}} {
		if _, cmd := m.Update(msg); cmd == nil {
			t.Errorf("%T should reload", msg)
		}
	}

	m.Update(historyLoadedMsg{timeRange: m.timeRange})
	if _, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabHistory}); cmd != nil {
		t.Error("an already loaded tab should not reload on switch")
	}
}

func TestModel_WithManager(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testBaseURL+"/analytics/price-stats",
		httpmock.NewStringResponder(200, `{"count": 2, "min": 5, "max": 15, "average": 10}`))
	transport.RegisterResponder("GET", testBaseURL+"/analytics/availability",
		httpmock.NewStringResponder(200, `{"total": 3, "buckets": [{"label": "In stock", "count": 2}, {"label": "Out of stock", "count": 1}]}`))

	tmpDir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:   testBaseURL,
		APITimeout:   time.Second,
		DatabasePath: filepath.Join(tmpDir, "test.db"),
		ViewsPath:    filepath.Join(tmpDir, "views.json"),
	}
	mgr, err := services.NewManager(cfg,
		services.WithHTTPClient(&http.Client{Transport: transport}),
		services.WithNotifier(func(string, string) error { return nil }),
	)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer mgr.Close()

	m := New(app.NewState(), mgr)
	m.SetSize(100, 80)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	_, reload := m.Update(cmd())
	if reload == nil {
		t.Fatal("capture should reload")
	}
	m.Update(reload())

	if len(m.snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(m.snapshots))
	}
	if s := m.snapshots[0]; s.TotalBooks != 3 || s.InStock != 2 {
		t.Errorf("snapshot = %+v", s)
	}
	if view := ansi.Strip(m.View()); !strings.Contains(view, "£10.00") {
		t.Errorf("view should list the recorded average:\n%s", view)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) == 0 || len(m.FullHelp()) == 0 {
		t.Error("help should not be empty")
	}
}
