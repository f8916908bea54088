// Package views persists named dashboard links with file watching.
package views

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"

	"github.com/j-veylop/bookdash-tui/internal/logger"
	"github.com/j-veylop/bookdash-tui/internal/models"
)

const (
	fileVersion      = 1
	debounceInterval = 100 * time.Millisecond
	maxNameLength    = 64
)

var (
	// ErrNotFound is returned when no view has the requested name.
	ErrNotFound = errors.New("view not found")
	// ErrInvalidName is returned for empty or oversized names.
	ErrInvalidName = errors.New("view name must be 1-64 characters")
)

// Event represents a views service event.
type Event struct {
	Error error
	View  *models.SavedView
	Type  EventType
}

// EventType defines the type of views event.
type EventType int

const (
	EventViewsLoaded EventType = iota
	EventViewsChanged
	EventViewSaved
	EventViewDeleted
	EventError
)

// Service manages saved views with file watching and change notifications.
type Service struct {
	mu        sync.RWMutex
	views     []models.SavedView
	filePath  string
	watcher   *fsnotify.Watcher
	eventChan chan Event
	stopChan  chan struct{}
	closeOnce sync.Once
}

// New creates a views service backed by filePath and starts watching it.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		return nil, errors.New("views file path is required")
	}

	s := &Service{
		views:     make([]models.SavedView, 0),
		filePath:  filePath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create views directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load views: %w", err)
		}
		s.mu.Lock()
		err = s.saveLocked()
		s.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to create views file: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventViewsLoaded})

	return s, nil
}

// Events returns the event channel for subscribing to view changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the views file path.
func (s *Service) Path() string {
	return s.filePath
}

// List returns all views ordered by name.
func (s *Service) List() []models.SavedView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.views)
	slices.SortFunc(out, func(a, b models.SavedView) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

// Get returns the view with the given name.
func (s *Service) Get(name string) (models.SavedView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(name); i >= 0 {
		return s.views[i], true
	}
	return models.SavedView{}, false
}

// Count returns the number of saved views.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// Save stores link under name, replacing the link of an existing view.
func (s *Service) Save(name, link string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := slices.Clone(s.views)

	view := models.SavedView{Name: name, Link: link, CreatedAt: time.Now().UTC()}
	if i := s.indexLocked(name); i >= 0 {
		view.CreatedAt = s.views[i].CreatedAt
		s.views[i] = view
	} else {
		s.views = append(s.views, view)
	}

	if err := s.saveLocked(); err != nil {
		s.views = previous
		return fmt.Errorf("failed to save views: %w", err)
	}

	s.sendEvent(Event{Type: EventViewSaved, View: &view})
	return nil
}

// Delete removes the view with the given name.
func (s *Service) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	previous := slices.Clone(s.views)
	deleted := s.views[i]
	s.views = slices.Delete(s.views, i, i+1)

	if err := s.saveLocked(); err != nil {
		s.views = previous
		return fmt.Errorf("failed to save views: %w", err)
	}

	s.sendEvent(Event{Type: EventViewDeleted, View: &deleted})
	return nil
}

func (s *Service) indexLocked(name string) int {
	name = strings.TrimSpace(name)
	return slices.IndexFunc(s.views, func(v models.SavedView) bool {
		return strings.EqualFold(v.Name, name)
	})
}

// parseViews accepts the versioned file layout or a bare array of views.
func parseViews(data []byte) ([]models.SavedView, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.SavedView{}, nil
	}

	var file models.SavedViewsFile
	if err := json.Unmarshal(data, &file); err == nil {
		if file.Views == nil {
			file.Views = []models.SavedView{}
		}
		return file.Views, nil
	}

	var list []models.SavedView
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	return nil, errors.New("failed to parse views file: invalid format")
}

// load reads views from disk.
func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	views, err := parseViews(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.views = views
	s.mu.Unlock()
	return nil
}

// saveLocked writes views to disk atomically (must hold lock).
func (s *Service) saveLocked() error {
	file := models.SavedViewsFile{
		Views:   s.views,
		Version: fileVersion,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal views: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// startWatcher watches the directory so atomic replacements are seen.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	name := filepath.Base(s.filePath)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, s.handleFileChange)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads views after a change on disk.
func (s *Service) handleFileChange() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			// Renamed away mid-write; the following Create reloads.
			return
		}
		logger.Warn("failed to reload views", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.sendEvent(Event{Type: EventViewsChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)
		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
