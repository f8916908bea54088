package views

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/j-veylop/bookdash-tui/internal/models"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	tmpDir := t.TempDir()
	viewsPath := filepath.Join(tmpDir, "views.json")

	svc, err := New(viewsPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})

	return svc, viewsPath
}

// waitForEvent drains events until one of type want arrives.
func waitForEvent(t *testing.T, svc *Service, want EventType) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-svc.Events():
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event %d", want)
			return Event{}
		}
	}
}

func TestNew(t *testing.T) {
	svc, path := newTestService(t)

	if _, err := os.Stat(path); err != nil {
		t.Errorf("views file was not created: %v", err)
	}
	if svc.Count() != 0 {
		t.Errorf("Count() = %d, want 0", svc.Count())
	}
	if svc.Path() != path {
		t.Errorf("Path() = %q, want %q", svc.Path(), path)
	}

	waitForEvent(t, svc, EventViewsLoaded)
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}
}

func TestNew_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Error("New() with corrupt file should fail")
	}
}

func TestSaveGetDelete(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Save("Cheap reads", "price_max=10"); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	ev := waitForEvent(t, svc, EventViewSaved)
	if ev.View == nil || ev.View.Name != "Cheap reads" {
		t.Errorf("saved event = %+v", ev)
	}

	v, ok := svc.Get("cheap reads")
	if !ok {
		t.Fatal("Get() should match names case-insensitively")
	}
	if v.Link != "price_max=10" || v.CreatedAt.IsZero() {
		t.Errorf("Get() = %+v", v)
	}

	if err := svc.Delete("Cheap reads"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok := svc.Get("Cheap reads"); ok {
		t.Error("view should be gone after Delete()")
	}

	err := svc.Delete("Cheap reads")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() of missing view = %v, want ErrNotFound", err)
	}
}

func TestSave_Upsert(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Save("mine", "q=a"); err != nil {
		t.Fatal(err)
	}
	first, _ := svc.Get("mine")

	if err := svc.Save("  mine ", "q=b"); err != nil {
		t.Fatal(err)
	}
	if svc.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 after upsert", svc.Count())
	}

	second, _ := svc.Get("mine")
	if second.Link != "q=b" {
		t.Errorf("Link = %q, want q=b", second.Link)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("upsert should keep the original CreatedAt")
	}
}

func TestSave_InvalidName(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"", "   ", strings.Repeat("x", maxNameLength+1)} {
		if err := svc.Save(name, "q=x"); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestList_SortedByName(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"zeta", "Alpha", "mid"} {
		if err := svc.Save(name, ""); err != nil {
			t.Fatal(err)
		}
	}

	list := svc.List()
	got := []string{list[0].Name, list[1].Name, list[2].Name}
	want := []string{"Alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() order = %v, want %v", got, want)
		}
	}

	// Mutating the returned slice must not affect the service.
	list[0].Name = "changed"
	if _, ok := svc.Get("Alpha"); !ok {
		t.Error("List() should return a copy")
	}
}

func TestPersistence(t *testing.T) {
	svc, path := newTestService(t)

	if err := svc.Save("in stock", "availability=in+stock"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var file models.SavedViewsFile
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("views file is not valid JSON: %v", err)
	}
	if file.Version != fileVersion || len(file.Views) != 1 {
		t.Errorf("file = %+v", file)
	}

	_ = svc.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if v, ok := reopened.Get("in stock"); !ok || v.Link != "availability=in+stock" {
		t.Errorf("reopened Get() = %+v, %v", v, ok)
	}
}

func TestParseViews(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"Versioned", `{"version": 1, "views": [{"name": "a", "link": "q=a"}]}`, 1, false},
		{"BareArray", `[{"name": "a", "link": ""}, {"name": "b", "link": ""}]`, 2, false},
		{"Empty", ``, 0, false},
		{"EmptyObject", `{}`, 0, false},
		{"Invalid", `"nope"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseViews([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseViews() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.want {
				t.Errorf("parseViews() returned %d views, want %d", len(got), tt.want)
			}
		})
	}
}

func TestExternalChange(t *testing.T) {
	svc, path := newTestService(t)
	waitForEvent(t, svc, EventViewsLoaded)

	data := `{"version": 1, "views": [{"name": "external", "link": "sort=price_asc"}]}`
	tmp := path + ".edit"
	if err := os.WriteFile(tmp, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	waitForEvent(t, svc, EventViewsChanged)

	if v, ok := svc.Get("external"); !ok || v.Link != "sort=price_asc" {
		t.Errorf("external edit not picked up: %+v, %v", v, ok)
	}
}

func TestClose_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}
