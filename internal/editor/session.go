package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/footctl/internal/autosave"
	"github.com/five82/footctl/internal/device"
	"github.com/five82/footctl/internal/state"
)

const (
	defaultLEDDebounce = 250 * time.Millisecond
	defaultNavGrace    = 800 * time.Millisecond
)

// Options tunes a Session. Zero values take defaults.
type Options struct {
	LEDDebounce  time.Duration
	NavGrace     time.Duration
	// FallbackBank is opened when the hardware cannot report its bank.
	FallbackBank int
	Logger       *slog.Logger
	Now          func() time.Time
}

// Session is one editing session against a device. It owns the snapshot
// cache and one autosave coordinator per resource.
//
// Edit methods are cheap and may be called from the UI loop. Navigation,
// loading and live sync block on the network and belong in a background
// command; they are serialized against each other.
type Session struct {
	remote device.Remote
	store  *state.Store
	reg    *autosave.Registry
	logger *slog.Logger
	now    func() time.Time
	grace  time.Duration
	start  int

	button *autosave.Coordinator
	layout *autosave.Coordinator
	bank   *autosave.Coordinator
	led    *autosave.Coordinator
	ports  [device.MaxExpFSPorts]*autosave.Coordinator

	nav sync.Mutex

	mu      sync.Mutex
	lastNav time.Time
	status  Status
	cal     [device.MaxExpFSPorts]CalStep
}

// New creates a session. Save loops run with ctx; cancel it to abort
// in-flight requests when the session ends.
func New(ctx context.Context, remote device.Remote, store *state.Store, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	debounce := opts.LEDDebounce
	if debounce <= 0 {
		debounce = defaultLEDDebounce
	}
	grace := opts.NavGrace
	if grace <= 0 {
		grace = defaultNavGrace
	}
	if store == nil {
		store = &state.Store{}
	}

	s := &Session{
		remote: remote,
		store:  store,
		reg:    autosave.NewRegistry(ctx, logger),
		logger: logger,
		now:    now,
		grace:  grace,
		start:  opts.FallbackBank,
	}
	s.button = s.reg.Register(autosave.KeyButton, s.saveButton, autosave.Options{})
	s.layout = s.reg.Register(autosave.KeyLayout, s.saveLayout, autosave.Options{})
	s.bank = s.reg.Register(autosave.KeyBank, s.saveBank, autosave.Options{})
	s.led = s.reg.Register(autosave.KeyLED, s.saveLED, autosave.Options{Debounce: debounce})
	for p := range s.ports {
		port := p
		s.ports[p] = s.reg.Register(autosave.ExpFSKey(p), func(ctx context.Context) error {
			return s.savePort(ctx, port)
		}, autosave.Options{})
	}
	return s
}

// Snapshot returns a copy of the cached device state.
func (s *Session) Snapshot() state.Snapshot {
	return s.store.Snapshot()
}

// Registry exposes the coordinators for focus tracking and status events.
func (s *Session) Registry() *autosave.Registry {
	return s.reg
}

// Events returns coordinator transitions. Pass them to HandleEvent.
func (s *Session) Events() <-chan autosave.Event {
	return s.reg.Events()
}

// Focus records the field being edited so a flush commits it first.
func (s *Session) Focus(key autosave.Key, commit func()) {
	s.reg.Focus(key, commit)
}

// Blur forgets the focused field.
func (s *Session) Blur() {
	s.reg.Blur()
}

// Load reads the device limits and shared resources, then jumps to the bank
// the hardware is on with btn selected.
func (s *Session) Load(ctx context.Context, btn int) error {
	s.nav.Lock()
	defer s.nav.Unlock()

	s.setStatus("init…", true)
	s.reg.BeginLoad()
	err := s.loadShared(ctx)
	s.reg.EndLoad(err == nil)
	if err != nil {
		s.setStatus(failureText("init failed", err), false)
		return err
	}

	start := s.start
	live, err := s.remote.FetchState(ctx)
	if err == nil {
		start = live.Bank
		s.store.UpdateLive(&live, nil)
	} else {
		s.logger.Debug("initial state unavailable", "error", err)
	}
	s.store.Select(state.Selection{Bank: start, Btn: btn})

	if err := s.gotoBankLocked(ctx, start); err != nil {
		s.setStatus(failureText("init failed", err), false)
		return err
	}
	s.store.MarkLoaded()
	s.setStatus("ready", true)
	s.logger.Info("session loaded",
		"banks", s.store.Meta().BankCount,
		"bank", s.store.Selection().Bank,
	)
	return nil
}

func (s *Session) loadShared(ctx context.Context) error {
	meta, err := s.remote.FetchMeta(ctx)
	if err != nil {
		return fmt.Errorf("load meta: %w", err)
	}
	meta = device.NormalizeMeta(meta)
	s.store.SetMeta(meta)

	layout, err := s.remote.FetchLayout(ctx)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	s.store.SetLayout(device.NormalizeLayout(layout))

	led, err := s.remote.FetchLED(ctx)
	if err != nil {
		return fmt.Errorf("load led: %w", err)
	}
	led.Brightness = device.ClampBrightness(led.Brightness)
	s.store.SetLED(led)

	for p := 0; p < meta.ExpFSPorts; p++ {
		cfg, err := s.remote.FetchExpFS(ctx, p)
		if err != nil {
			return fmt.Errorf("load expfs port %d: %w", p, err)
		}
		cfg = device.NormalizeExpFS(cfg)
		cfg.Port = p
		s.store.SetExpFS(cfg)
	}
	return nil
}

// loadSelection replaces the bank and button snapshots with the selected
// identity. Callers flush first.
func (s *Session) loadSelection(ctx context.Context) error {
	// Edits made since the caller's flush still belong to the old identity.
	if err := errors.Join(s.bank.Flush(ctx), s.button.Flush(ctx)); err != nil {
		s.setStatus(failureText("save failed", err), false)
	}
	s.reg.BeginLoad(autosave.KeyBank, autosave.KeyButton)
	err := s.fetchSelection(ctx)
	s.reg.EndLoad(err == nil, autosave.KeyBank, autosave.KeyButton)
	return err
}

func (s *Session) fetchSelection(ctx context.Context) error {
	sel := s.store.Selection()
	meta := s.store.Meta()

	names, err := s.remote.FetchBank(ctx, sel.Bank)
	if err != nil {
		return fmt.Errorf("load bank %d: %w", sel.Bank, err)
	}
	names = device.NormalizeBankNames(names, meta.Buttons)
	names.Bank = sel.Bank

	m, err := s.remote.FetchButton(ctx, sel.Bank, sel.Btn)
	if err != nil {
		return fmt.Errorf("load button %d/%d: %w", sel.Bank, sel.Btn, err)
	}
	m = device.NormalizeButton(m)
	m.Bank, m.Btn = sel.Bank, sel.Btn

	s.store.SetBank(names)
	s.store.SetButton(m)
	return nil
}

// Flush saves every pending edit and reports failures on the status line.
func (s *Session) Flush(ctx context.Context) error {
	err := s.reg.FlushAll(ctx)
	if err != nil {
		s.setStatus(failureText("save failed", err), false)
	}
	return err
}

// Close flushes pending edits and stops the coordinators.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.reg.Close()
	return err
}

// GotoBank flushes, selects bank (wrapping around), tells the hardware and
// loads the new bank. Save failures are reported but never block the move.
func (s *Session) GotoBank(ctx context.Context, bank int) error {
	s.nav.Lock()
	defer s.nav.Unlock()
	return s.gotoBankLocked(ctx, bank)
}

// NextBank moves to the following bank, wrapping at the end.
func (s *Session) NextBank(ctx context.Context) error {
	return s.GotoBank(ctx, s.store.Selection().Bank+1)
}

// PrevBank moves to the preceding bank, wrapping at the start.
func (s *Session) PrevBank(ctx context.Context) error {
	return s.GotoBank(ctx, s.store.Selection().Bank-1)
}

func (s *Session) gotoBankLocked(ctx context.Context, bank int) error {
	flushErr := s.Flush(ctx)

	s.markNav()
	meta := s.store.Meta()
	sel := s.store.Selection()
	sel.Bank = device.Wrap(bank, meta.BankCount)
	sel.Btn = device.Wrap(sel.Btn, meta.Buttons)
	s.store.Select(sel)

	var errs []error
	if err := s.remote.SetState(ctx, sel.Bank); err != nil {
		errs = append(errs, fmt.Errorf("set hardware bank: %w", err))
	}
	if err := s.loadSelection(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.setStatus(failureText("load failed", err), false)
		return errors.Join(flushErr, err)
	}
	return flushErr
}

// SelectButton flushes and loads switch btn of the current bank.
func (s *Session) SelectButton(ctx context.Context, btn int) error {
	s.nav.Lock()
	defer s.nav.Unlock()

	flushErr := s.Flush(ctx)
	sel := s.store.Selection()
	sel.Btn = device.Wrap(btn, s.store.Meta().Buttons)
	s.store.Select(sel)
	if err := s.loadSelection(ctx); err != nil {
		s.setStatus(failureText("load failed", err), false)
		return errors.Join(flushErr, err)
	}
	return flushErr
}

// AddBank inserts a bank after the current one and moves to it.
func (s *Session) AddBank(ctx context.Context) error {
	s.nav.Lock()
	defer s.nav.Unlock()

	_ = s.Flush(ctx)
	meta := s.store.Meta()
	if meta.BankCount >= meta.MaxBanks {
		s.setStatus(failureText("add bank failed", ErrMaxBanks), false)
		return ErrMaxBanks
	}

	cur := s.store.Selection().Bank
	var pos int
	s.store.UpdateLayout(func(l *device.Layout) {
		pos = min(l.BankCount, cur+1)
		bank := device.BankInfo{Index: pos, Name: device.DefaultBankName(pos)}
		l.Banks = append(l.Banks[:pos], append([]device.BankInfo{bank}, l.Banks[pos:]...)...)
		l.BankCount++
		reindex(l)
	})
	if err := s.saveLayoutNow(ctx); err != nil {
		return err
	}
	if err := s.gotoBankLocked(ctx, pos); err != nil {
		return err
	}
	s.setStatus("added bank", true)
	return nil
}

// DeleteBank removes the current bank. The last remaining bank cannot be
// deleted.
func (s *Session) DeleteBank(ctx context.Context) error {
	s.nav.Lock()
	defer s.nav.Unlock()

	_ = s.Flush(ctx)
	if s.store.Meta().BankCount <= 1 {
		s.setStatus(failureText("delete bank failed", ErrLastBank), false)
		return ErrLastBank
	}

	cur := s.store.Selection().Bank
	l := s.store.UpdateLayout(func(l *device.Layout) {
		if cur < len(l.Banks) {
			l.Banks = append(l.Banks[:cur], l.Banks[cur+1:]...)
		}
		l.BankCount--
		reindex(l)
	})
	cur = min(cur, l.BankCount-1)
	if err := s.saveLayoutNow(ctx); err != nil {
		return err
	}
	if err := s.gotoBankLocked(ctx, cur); err != nil {
		return err
	}
	s.setStatus("deleted bank", true)
	return nil
}

func (s *Session) saveLayoutNow(ctx context.Context) error {
	if err := s.layout.SaveNow().Wait(ctx); err != nil {
		s.setStatus(failureText("save failed", err), false)
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

func reindex(l *device.Layout) {
	for i := range l.Banks {
		l.Banks[i].Index = i
	}
}

// SyncLive polls the hardware's active bank. When it differs from the
// selected bank and the user has not navigated within the grace period, the
// editor follows the hardware. It reports whether the selection changed.
func (s *Session) SyncLive(ctx context.Context) (bool, error) {
	live, err := s.remote.FetchState(ctx)
	if err != nil {
		s.store.UpdateLive(nil, err)
		return false, fmt.Errorf("poll live state: %w", err)
	}
	s.store.UpdateLive(&live, nil)

	if !s.store.Snapshot().Loaded {
		return false, nil
	}
	if !s.nav.TryLock() {
		return false, nil
	}
	defer s.nav.Unlock()

	if s.now().Sub(s.lastNavAt()) <= s.grace {
		return false, nil
	}
	meta := s.store.Meta()
	bank := device.Wrap(live.Bank, meta.BankCount)
	sel := s.store.Selection()
	if bank == sel.Bank {
		return false, nil
	}

	_ = s.Flush(ctx)
	sel.Bank = bank
	sel.Btn = device.Wrap(sel.Btn, meta.Buttons)
	s.store.Select(sel)
	if err := s.loadSelection(ctx); err != nil {
		s.setStatus(failureText("sync failed", err), false)
		return true, err
	}
	s.logger.Info("followed hardware bank", "bank", bank)
	s.setStatus("synced", true)
	return true, nil
}

func (s *Session) markNav() {
	s.mu.Lock()
	s.lastNav = s.now()
	s.mu.Unlock()
}

func (s *Session) lastNavAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastNav
}

// Dirty reports whether the resource has unsaved edits.
func (s *Session) Dirty(key autosave.Key) bool {
	c, ok := s.reg.Get(key)
	return ok && c.Dirty()
}

// Saving reports whether any save is in flight.
func (s *Session) Saving() bool {
	return s.reg.AnySaving()
}

func (s *Session) saveButton(ctx context.Context) error {
	m := device.ButtonPayload(s.store.Button(), s.store.Meta().MaxActions)
	return s.remote.SaveButton(ctx, m)
}

func (s *Session) saveLayout(ctx context.Context) error {
	l := device.NormalizeLayout(s.store.Layout())
	l.MaxBanks = 0
	return s.remote.SaveLayout(ctx, l)
}

func (s *Session) saveBank(ctx context.Context) error {
	b := s.store.Bank()
	buttons := s.store.Meta().Buttons
	if buttons > 0 && len(b.SwitchNames) > buttons {
		b.SwitchNames = b.SwitchNames[:buttons]
	}
	for i, name := range b.SwitchNames {
		b.SwitchNames[i] = device.ClipText(name, device.MaxSwitchName)
	}
	if b.SwitchNames == nil {
		b.SwitchNames = []string{}
	}
	return s.remote.SaveBank(ctx, b)
}

func (s *Session) saveLED(ctx context.Context) error {
	led := device.LED{Brightness: device.ClampBrightness(s.store.LED().Brightness)}
	return s.remote.SaveLED(ctx, led)
}

func (s *Session) savePort(ctx context.Context, port int) error {
	cfg, ok := s.store.ExpFS(port)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPort, port)
	}
	return s.remote.SaveExpFS(ctx, device.ExpFSPayload(cfg, s.store.Meta().MaxActions))
}
