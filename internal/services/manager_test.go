package services

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/j-veylop/bookdash-tui/internal/config"
	"github.com/j-veylop/bookdash-tui/internal/models"
)

const testBaseURL = "http://books.test"

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testBaseURL+"/analytics/price-stats",
		httpmock.NewStringResponder(200, `{"count": 2, "min": 5, "max": 15, "average": 10}`))
	transport.RegisterResponder("GET", testBaseURL+"/analytics/availability",
		httpmock.NewStringResponder(200, `{"total": 2, "buckets": [{"label": "In stock", "count": 2}]}`))

	tmpDir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:       testBaseURL,
		APITimeout:       time.Second,
		DatabasePath:     filepath.Join(tmpDir, "snapshots.db"),
		ViewsPath:        filepath.Join(tmpDir, "views.json"),
		SnapshotInterval: 0,
	}

	m, err := NewManager(cfg,
		WithHTTPClient(&http.Client{Transport: transport}),
		WithNotifier(func(string, string) error { return nil }),
	)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func nextEvent[T ServiceEvent](t *testing.T, ch <-chan ServiceEvent) T {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if typed, ok := ev.(T); ok {
				return typed
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestNewManager(t *testing.T) {
	m := newTestManager(t)

	if m.API() == nil || m.Views() == nil || m.Database() == nil || m.Snapshots() == nil {
		t.Fatal("manager services should be initialized")
	}
	if m.API().Metrics() != m.Metrics() {
		t.Error("API client should record into the manager metrics")
	}
}

func TestNewManager_BadURL(t *testing.T) {
	cfg := &config.Config{APIBaseURL: "not a url"}
	if _, err := NewManager(cfg); err == nil {
		t.Error("NewManager() with invalid URL should fail")
	}
}

func TestManager_ViewsEventsBroadcast(t *testing.T) {
	m := newTestManager(t)
	ch, _ := m.Subscribe()

	if err := m.Views().Save("fav", "q=x"); err != nil {
		t.Fatal(err)
	}

	for {
		ev := nextEvent[ViewsChangedEvent](t, ch)
		if len(ev.Views) == 1 && ev.Views[0].Name == "fav" {
			break
		}
	}
}

func TestManager_SnapshotEvents(t *testing.T) {
	m := newTestManager(t)
	ch, _ := m.Subscribe()

	snap, err := m.CaptureSnapshot(context.Background())
	if err != nil {
		t.Fatalf("CaptureSnapshot() failed: %v", err)
	}

	ev := nextEvent[SnapshotRecordedEvent](t, ch)
	if ev.Snapshot.ID != snap.ID {
		t.Errorf("event snapshot = %+v, want %+v", ev.Snapshot, snap)
	}

	got, err := m.GetSnapshots(context.Background(), models.TimeRangeAllTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TotalBooks != 2 {
		t.Errorf("GetSnapshots() = %+v", got)
	}
}

func TestManager_WaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- ErrorEvent{Service: "views"}

	msg := WaitForEvent(ch)()
	if ev, ok := msg.(ErrorEvent); !ok || ev.Service != "views" {
		t.Errorf("WaitForEvent() = %#v", msg)
	}

	close(ch)
	if msg := WaitForEvent(ch)(); msg != nil {
		t.Errorf("WaitForEvent() on closed channel = %#v, want nil", msg)
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := newTestManager(t)
	ch, _ := m.Subscribe()
	m.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe()")
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	m := newTestManager(t)
	ch, _ := m.Subscribe()

	if err := m.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	// Drain anything buffered before Close, then expect the channel closed.
	for range ch {
	}
}
