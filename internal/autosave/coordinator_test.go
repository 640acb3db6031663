package autosave

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeStore is a controllable remote store. value is the editor-side
// snapshot; persist copies it into saved.
type fakeStore struct {
	mu          sync.Mutex
	value       int
	saved       []int
	calls       int
	active      int
	maxActive   int
	fail        error
	gate        chan struct{}
	started     chan struct{}
	persistTime time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{started: make(chan struct{}, 64)}
}

func (f *fakeStore) persist(ctx context.Context) error {
	f.mu.Lock()
	payload := f.value
	f.calls++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	gate, fail, delay := f.gate, f.fail, f.persistTime
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	f.started <- struct{}{}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail != nil {
		return fail
	}
	f.mu.Lock()
	f.saved = append(f.saved, payload)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) edit(c *Coordinator, v int) {
	f.mu.Lock()
	f.value = v
	f.mu.Unlock()
	c.OnEdit()
}

func (f *fakeStore) snapshot() (calls int, saved []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]int(nil), f.saved...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRegistry(ctx, quietLogger())
	t.Cleanup(func() {
		r.Close()
		cancel()
	})
	return r
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func waitStarted(t *testing.T, f *fakeStore) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("persist was not called")
	}
}

func TestFlag_ClearIfRequiresMatchingVersion(t *testing.T) {
	var f Flag
	f.Mark()
	v := f.Version()
	f.Mark()
	if f.ClearIf(v) {
		t.Fatalf("ClearIf(stale version) = true, want false")
	}
	if !f.Dirty() {
		t.Fatalf("flag cleared by stale version")
	}
	if !f.ClearIf(f.Version()) || f.Dirty() {
		t.Fatalf("ClearIf(current version) did not clear the flag")
	}
	if f.Version() != 2 {
		t.Fatalf("Version = %d, want 2", f.Version())
	}
}

func TestRapidEditsProduceOneSaveWithLastPayload(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	c := r.Register(KeyButton, f.persist, Options{})

	for i := 1; i <= 6; i++ {
		f.edit(c, i)
	}
	if err := c.OnCommit().Wait(waitCtx(t)); err != nil {
		t.Fatalf("save returned error: %v", err)
	}

	calls, saved := f.snapshot()
	if calls != 1 {
		t.Fatalf("persist calls = %d, want 1", calls)
	}
	if len(saved) != 1 || saved[0] != 6 {
		t.Fatalf("saved = %v, want [6]", saved)
	}
	if c.Dirty() {
		t.Fatalf("resource still dirty after converged save")
	}
}

func TestEditDuringSlowSaveRunsSecondAttempt(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	f.gate = make(chan struct{})
	c := r.Register(KeyLayout, f.persist, Options{})

	f.edit(c, 1)
	p := c.OnCommit()
	waitStarted(t, f)

	f.edit(c, 2)
	if again := c.OnCommit(); again != p {
		t.Fatalf("second trigger started a new loop instead of joining")
	}
	if !c.Saving() {
		t.Fatalf("Saving = false during persist")
	}

	f.gate <- struct{}{}
	waitStarted(t, f)
	f.gate <- struct{}{}

	if err := p.Wait(waitCtx(t)); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	calls, saved := f.snapshot()
	if calls != 2 {
		t.Fatalf("persist calls = %d, want 2", calls)
	}
	if saved[len(saved)-1] != 2 {
		t.Fatalf("last saved payload = %d, want 2", saved[len(saved)-1])
	}
	if c.Dirty() || c.Saving() {
		t.Fatalf("dirty=%v saving=%v after loop, want both false", c.Dirty(), c.Saving())
	}
}

func TestManyEditsDuringOneRoundTripCoalesce(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	f.gate = make(chan struct{})
	c := r.Register(KeyBank, f.persist, Options{})

	f.edit(c, 1)
	p := c.OnCommit()
	waitStarted(t, f)
	for i := 2; i <= 10; i++ {
		f.edit(c, i)
		c.OnCommit()
	}
	f.gate <- struct{}{}
	waitStarted(t, f)
	f.gate <- struct{}{}

	if err := p.Wait(waitCtx(t)); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	calls, saved := f.snapshot()
	if calls != 2 {
		t.Fatalf("persist calls = %d, want 2", calls)
	}
	if saved[1] != 10 {
		t.Fatalf("saved = %v, want last payload 10", saved)
	}
}

func TestKeystrokesAloneNeverPersist(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	c := r.Register(KeyBank, f.persist, Options{})

	for i := 0; i < 20; i++ {
		f.edit(c, i)
	}
	time.Sleep(50 * time.Millisecond)

	if calls, _ := f.snapshot(); calls != 0 {
		t.Fatalf("persist calls = %d, want 0", calls)
	}
	if !c.Dirty() {
		t.Fatalf("resource not dirty after edits")
	}
}

func TestCommitAfterIdleDebounces(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	c := r.Register(KeyLED, f.persist, Options{Debounce: 80 * time.Millisecond})

	for i := 0; i < 5; i++ {
		f.edit(c, i*10)
		c.CommitAfterIdle()
		time.Sleep(5 * time.Millisecond)
	}
	if calls, _ := f.snapshot(); calls != 0 {
		t.Fatalf("persist calls during drag = %d, want 0", calls)
	}

	waitStarted(t, f)
	if err := c.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	calls, saved := f.snapshot()
	if calls != 1 || saved[0] != 40 {
		t.Fatalf("calls = %d saved = %v, want one save of 40", calls, saved)
	}
}

func TestFailedSaveStaysDirtyWithoutRetry(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	f.fail = errors.New("button config invalid")
	c := r.Register(KeyButton, f.persist, Options{})

	f.edit(c, 1)
	err := c.OnCommit().Wait(waitCtx(t))
	if err == nil || err.Error() != "button config invalid" {
		t.Fatalf("save error = %v, want button config invalid", err)
	}
	if !c.Dirty() {
		t.Fatalf("resource clean after failed save")
	}
	if c.Err() == nil {
		t.Fatalf("Err() = nil after failed save")
	}

	time.Sleep(50 * time.Millisecond)
	if calls, _ := f.snapshot(); calls != 1 {
		t.Fatalf("persist calls = %d, want 1 (no background retry)", calls)
	}

	f.mu.Lock()
	f.fail = nil
	f.mu.Unlock()
	if err := r.FlushAll(waitCtx(t)); err != nil {
		t.Fatalf("FlushAll returned error: %v", err)
	}
	if c.Dirty() || c.Err() != nil {
		t.Fatalf("dirty=%v err=%v after successful flush", c.Dirty(), c.Err())
	}
	if calls, _ := f.snapshot(); calls != 2 {
		t.Fatalf("persist calls = %d, want 2", calls)
	}
}

func TestLoadingSuppressesEdits(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	c := r.Register(KeyButton, f.persist, Options{})

	c.BeginLoad()
	f.edit(c, 5)
	if c.Dirty() {
		t.Fatalf("edit during load marked the resource dirty")
	}
	if err := c.SaveNow().Wait(waitCtx(t)); err != nil {
		t.Fatalf("SaveNow returned error: %v", err)
	}
	c.EndLoad(true)

	if calls, _ := f.snapshot(); calls != 0 {
		t.Fatalf("persist calls = %d, want 0", calls)
	}
	if c.Version() != 0 {
		t.Fatalf("Version = %d, want 0", c.Version())
	}
}

func TestEndLoadClearsDirty(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	c := r.Register(KeyBank, f.persist, Options{})

	f.edit(c, 1)
	c.BeginLoad()
	c.EndLoad(true)
	if c.Dirty() {
		t.Fatalf("resource dirty after fresh load")
	}
	if c.Version() != 1 {
		t.Fatalf("Version = %d, want 1 (never decremented)", c.Version())
	}
}

func TestSaveNowPersistsEvenWhenClean(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	c := r.Register(KeyLayout, f.persist, Options{})

	if err := c.SaveNow().Wait(waitCtx(t)); err != nil {
		t.Fatalf("SaveNow returned error: %v", err)
	}
	if calls, _ := f.snapshot(); calls != 1 {
		t.Fatalf("persist calls = %d, want 1", calls)
	}
}

func TestConcurrentEditsNeverOverlapSaves(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	f.started = make(chan struct{}, 4096)
	f.persistTime = time.Millisecond
	c := r.Register(KeyButton, f.persist, Options{})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				f.edit(c, w*100+i)
				c.OnCommit()
			}
		}(w)
	}
	wg.Wait()

	if err := r.FlushAll(waitCtx(t)); err != nil {
		t.Fatalf("FlushAll returned error: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.maxActive != 1 {
		t.Fatalf("max concurrent persists = %d, want 1", f.maxActive)
	}
	if c.Dirty() {
		t.Fatalf("resource dirty after flush")
	}
	if f.saved[len(f.saved)-1] != f.value {
		t.Fatalf("last saved = %d, current = %d; edit lost", f.saved[len(f.saved)-1], f.value)
	}
}

func TestEventsReportTransitions(t *testing.T) {
	r := newTestRegistry(t)
	f := newFakeStore()
	c := r.Register(KeyLED, f.persist, Options{})

	f.edit(c, 1)
	f.edit(c, 2)
	if err := c.OnCommit().Wait(waitCtx(t)); err != nil {
		t.Fatalf("save returned error: %v", err)
	}

	want := []EventKind{EventEditing, EventSaving, EventSaved}
	for i, kind := range want {
		select {
		case ev := <-r.Events():
			if ev.Kind != kind || ev.Key != KeyLED {
				t.Fatalf("event %d = %s/%s, want %s/%s", i, ev.Key, ev.Kind, KeyLED, kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d (%s) not delivered", i, kind)
		}
	}
}
