package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PersistFunc writes the current snapshot of a resource to the remote store.
// It must read the snapshot when called, not capture it up front, so a loop
// that re-runs picks up edits made during the previous attempt.
type PersistFunc func(ctx context.Context) error

// Coordinator serializes the saves of one resource. Edits mark it dirty; a
// trigger starts a save loop that persists until no edit landed during the
// last attempt. At most one loop runs at a time.
type Coordinator struct {
	key     Key
	persist PersistFunc
	ctx     context.Context
	delay   time.Duration
	bus     *bus
	logger  *slog.Logger

	mu       sync.Mutex
	flag     Flag
	loading  bool
	inflight *Pending
	lastErr  error
	timer    *time.Timer
	attempts uint64
}

// Key returns the resource identity.
func (c *Coordinator) Key() Key { return c.key }

// MarkDirty records a local edit. It is a no-op while the resource is loading
// so programmatic updates never trigger saves.
func (c *Coordinator) MarkDirty() {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return
	}
	wasDirty := c.flag.Dirty()
	c.flag.Mark()
	c.mu.Unlock()
	if !wasDirty {
		c.emit(EventEditing, nil)
	}
}

// OnEdit is the keystroke channel: it marks dirty and never saves.
func (c *Coordinator) OnEdit() { c.MarkDirty() }

// OnCommit is the "user finished editing" channel. It starts a save loop when
// the resource is dirty and returns the loop's handle.
func (c *Coordinator) OnCommit() *Pending { return c.RequestSave() }

// RequestSave starts a save loop if the resource is dirty and none is running.
// When a loop is already in flight its handle is returned instead.
func (c *Coordinator) RequestSave() *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	return c.startLocked(c.ctx)
}

// SaveNow is the immediate cadence for structural edits: it records an edit
// and triggers a save in one step.
func (c *Coordinator) SaveNow() *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return resolved(nil)
	}
	wasDirty := c.flag.Dirty()
	c.flag.Mark()
	if !wasDirty {
		c.emit(EventEditing, nil)
	}
	c.stopTimerLocked()
	return c.startLocked(c.ctx)
}

// CommitAfterIdle re-arms the idle timer. When no further call arrives within
// the coordinator's debounce delay, the resource is committed.
func (c *Coordinator) CommitAfterIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return
	}
	c.stopTimerLocked()
	if c.delay <= 0 {
		c.startLocked(c.ctx)
		return
	}
	c.timer = time.AfterFunc(c.delay, func() {
		c.RequestSave()
	})
}

// Flush cancels a pending idle timer, waits for the running loop and, if the
// resource is still dirty, runs one more save with ctx and waits for it. A
// loop that failed because the session context ended is retried here.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	p := c.inflight
	c.mu.Unlock()

	if p != nil {
		if err := p.Wait(ctx); err != nil && ctx.Err() != nil {
			return err
		}
	}

	c.mu.Lock()
	if !c.flag.Dirty() || c.loading {
		c.mu.Unlock()
		return nil
	}
	p = c.startLocked(ctx)
	c.mu.Unlock()
	return p.Wait(ctx)
}

// BeginLoad suppresses edits while a fresh snapshot is being applied.
func (c *Coordinator) BeginLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.loading = true
}

// EndLoad re-enables edits. When loaded is true the snapshot now matches the
// remote store and the resource is marked clean.
func (c *Coordinator) EndLoad(loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if loaded {
		c.flag.Reset()
		c.lastErr = nil
	}
}

// Dirty reports whether edits are waiting to be persisted.
func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flag.Dirty()
}

// Saving reports whether a save loop is in flight.
func (c *Coordinator) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// Loading reports whether edits are currently suppressed.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Version returns the edit counter.
func (c *Coordinator) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flag.Version()
}

// Err returns the error of the most recent failed loop, cleared by the next
// successful one.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Attempts returns the number of persist calls made so far.
func (c *Coordinator) Attempts() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Wait blocks until the in-flight loop, if any, finishes.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	p := c.inflight
	c.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Wait(ctx)
}

func (c *Coordinator) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// startLocked must be called with c.mu held. The loop persists with ctx.
func (c *Coordinator) startLocked(ctx context.Context) *Pending {
	if c.inflight != nil {
		return c.inflight
	}
	if c.loading || !c.flag.Dirty() {
		return resolved(nil)
	}
	p := newPending()
	c.inflight = p
	go c.run(ctx, p)
	return p
}

func (c *Coordinator) run(ctx context.Context, p *Pending) {
	var err error
	for {
		c.mu.Lock()
		observed := c.flag.Version()
		persist := c.persist
		c.attempts++
		c.mu.Unlock()

		c.emit(EventSaving, nil)
		started := time.Now()
		err = persist(ctx)

		c.mu.Lock()
		if err != nil {
			c.lastErr = err
			c.inflight = nil
			c.mu.Unlock()
			c.logger.Warn("autosave failed", "resource", string(c.key), "version", observed, "error", err)
			c.emit(EventFailed, err)
			break
		}
		if c.flag.ClearIf(observed) {
			c.lastErr = nil
			c.inflight = nil
			c.mu.Unlock()
			c.logger.Debug("autosave converged", "resource", string(c.key), "version", observed, "elapsed", time.Since(started))
			c.emit(EventSaved, nil)
			break
		}
		c.mu.Unlock()
		c.logger.Debug("autosave coalescing newer edits", "resource", string(c.key), "observed", observed)
	}
	p.resolve(err)
}

func (c *Coordinator) emit(kind EventKind, err error) {
	if c.bus == nil {
		return
	}
	c.bus.publish(Event{Key: c.key, Kind: kind, Err: err, At: time.Now()})
}
