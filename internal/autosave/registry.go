package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Key identifies an independently saved resource.
type Key string

// Resource keys of the editor session.
const (
	KeyButton Key = "button-config"
	KeyLayout Key = "layout"
	KeyBank   Key = "bank"
	KeyLED    Key = "led-brightness"
	KeyExpFS0 Key = "expfs-0"
	KeyExpFS1 Key = "expfs-1"
)

// ExpFSKey returns the key of an expression/footswitch port.
func ExpFSKey(port int) Key {
	return Key(fmt.Sprintf("expfs-%d", port))
}

// Options configures a registered resource.
type Options struct {
	// Debounce is the idle delay used by CommitAfterIdle. Zero commits at once.
	Debounce time.Duration
}

// Registry owns the coordinators of one editor session. It is created when
// the session starts and closed when it ends.
type Registry struct {
	ctx    context.Context
	logger *slog.Logger
	bus    *bus

	mu     sync.Mutex
	coords map[Key]*Coordinator
	focus  *focusedField
}

type focusedField struct {
	key    Key
	commit func()
}

// NewRegistry creates an empty registry. Save loops run with ctx, so
// cancelling it aborts in-flight requests when the session ends. FlushAll
// saves with its own context and still works after ctx is cancelled.
func NewRegistry(ctx context.Context, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		ctx:    ctx,
		logger: logger,
		bus:    newBus(),
		coords: make(map[Key]*Coordinator),
	}
}

// Register adds a coordinator for key. Registering an existing key replaces
// its persist function and keeps its flag.
func (r *Registry) Register(key Key, persist PersistFunc, opts Options) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.coords[key]; ok {
		c.mu.Lock()
		c.persist = persist
		c.delay = opts.Debounce
		c.mu.Unlock()
		return c
	}
	c := &Coordinator{
		key:     key,
		persist: persist,
		ctx:     r.ctx,
		delay:   opts.Debounce,
		bus:     r.bus,
		logger:  r.logger,
	}
	r.coords[key] = c
	return c
}

// Get returns the coordinator for key.
func (r *Registry) Get(key Key) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coords[key]
	return c, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]Key, 0, len(r.coords))
	for k := range r.coords {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Events returns the channel of coordinator transitions. It is closed by
// Close. Events are dropped when the consumer falls behind.
func (r *Registry) Events() <-chan Event {
	return r.bus.ch
}

// Focus records the field currently being edited. commit applies the field's
// text to the snapshot and commits it; FlushAll calls it first.
func (r *Registry) Focus(key Key, commit func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = &focusedField{key: key, commit: commit}
}

// Blur clears the focused field without committing it.
func (r *Registry) Blur() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = nil
}

// Focused returns the key of the focused field, if any.
func (r *Registry) Focused() (Key, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.focus == nil {
		return "", false
	}
	return r.focus.key, true
}

// CommitFocused commits and clears the focused field.
func (r *Registry) CommitFocused() {
	r.mu.Lock()
	f := r.focus
	r.focus = nil
	r.mu.Unlock()
	if f != nil && f.commit != nil {
		f.commit()
	}
}

// AnyDirty reports whether any resource has unsaved edits.
func (r *Registry) AnyDirty() bool {
	for _, c := range r.coordinators() {
		if c.Dirty() {
			return true
		}
	}
	return false
}

// AnySaving reports whether any save loop is in flight.
func (r *Registry) AnySaving() bool {
	for _, c := range r.coordinators() {
		if c.Saving() {
			return true
		}
	}
	return false
}

// FlushAll commits the focused field, waits for every in-flight loop and
// saves whatever is still dirty. Resources flush concurrently. All failures
// are returned joined; a failure of one resource never stops the others.
func (r *Registry) FlushAll(ctx context.Context) error {
	r.CommitFocused()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, c := range r.coordinators() {
		g.Go(func() error {
			err := c.Flush(ctx)
			if err == nil {
				return nil
			}
			err = fmt.Errorf("save %s: %w", c.Key(), err)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	err := errors.Join(errs...)
	r.logger.Warn("flush incomplete", "failed", len(errs), "error", err)
	return err
}

// BeginLoad suppresses edits on the given resources.
func (r *Registry) BeginLoad(keys ...Key) {
	for _, c := range r.pick(keys) {
		c.BeginLoad()
	}
}

// EndLoad re-enables edits on the given resources and, when loaded is true,
// marks them clean.
func (r *Registry) EndLoad(loaded bool, keys ...Key) {
	for _, c := range r.pick(keys) {
		c.EndLoad(loaded)
	}
}

// Close stops idle timers and closes the event channel. In-flight loops keep
// running until the registry's context is cancelled.
func (r *Registry) Close() {
	for _, c := range r.coordinators() {
		c.stop()
	}
	r.bus.close()
}

func (r *Registry) coordinators() []*Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Coordinator, 0, len(r.coords))
	for _, c := range r.coords {
		out = append(out, c)
	}
	return out
}

func (r *Registry) pick(keys []Key) []*Coordinator {
	if len(keys) == 0 {
		return r.coordinators()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Coordinator, 0, len(keys))
	for _, k := range keys {
		if c, ok := r.coords[k]; ok {
			out = append(out, c)
		}
	}
	return out
}
