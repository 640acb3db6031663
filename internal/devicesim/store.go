package devicesim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultSaveDelay  = 500 * time.Millisecond
	defaultWatchQuiet = 200 * time.Millisecond
)

// FileStore persists the emulated flash as a JSON document. Writes are
// debounced and atomic; Watch picks up edits made to the file by hand.
type FileStore struct {
	path   string
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending *State
	written []byte
}

// NewFileStore returns a store for path. A zero delay uses 500ms.
func NewFileStore(path string, delay time.Duration, logger *slog.Logger) *FileStore {
	if delay <= 0 {
		delay = defaultSaveDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, delay: delay, logger: logger}
}

// Path returns the state file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the state file. A missing or corrupt file yields DefaultState.
func (s *FileStore) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultState(), nil
		}
		return State{}, fmt.Errorf("read state: %w", err)
	}
	st, err := decodeState(data)
	if err != nil {
		s.logger.Warn("corrupt state file, using defaults", "path", s.path, "error", err)
		return DefaultState(), nil
	}
	return st, nil
}

// Save schedules a write of st once no further Save arrives for the delay.
func (s *FileStore) Save(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := st.clone()
	s.pending = &cp
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if err := s.Flush(); err != nil {
			s.logger.Error("write state failed", "path", s.path, "error", err)
		}
	})
}

// Flush writes any pending state immediately.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.pending == nil {
		return nil
	}
	st := s.pending
	s.pending = nil
	return s.writeAtomic(*st)
}

// writeAtomic must be called with s.mu held.
func (s *FileStore) writeAtomic(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	s.written = data
	return nil
}

// Watch calls reload whenever the state file changes on disk through
// something other than this store. It blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, reload func(State)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	var changedAt time.Time
	ticker := time.NewTicker(defaultWatchQuiet / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				changedAt = time.Now()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("state watcher error", "error", err)
		case <-ticker.C:
			if changedAt.IsZero() || time.Since(changedAt) < defaultWatchQuiet {
				continue
			}
			changedAt = time.Time{}
			if st, ok := s.readExternal(); ok {
				reload(st)
			}
		}
	}
}

// readExternal returns the file's state unless it is what this store last
// wrote.
func (s *FileStore) readExternal() (State, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("read state failed", "path", s.path, "error", err)
		return State{}, false
	}
	s.mu.Lock()
	own := bytes.Equal(data, s.written)
	s.mu.Unlock()
	if own {
		return State{}, false
	}
	st, err := decodeState(data)
	if err != nil {
		s.logger.Warn("ignoring corrupt state file", "path", s.path, "error", err)
		return State{}, false
	}
	s.mu.Lock()
	s.written = data
	s.mu.Unlock()
	s.logger.Info("state file changed, reloading", "path", s.path)
	return st, true
}

func decodeState(data []byte) (State, error) {
	st := DefaultState()
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	st.sanitize()
	return st, nil
}
