package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/footctl/internal/device"
	"github.com/five82/footctl/internal/state"
)

// fakeRemote is an in-memory device. Every call is recorded as
// "METHOD resource args" so tests can assert ordering.
type fakeRemote struct {
	mu      sync.Mutex
	meta    device.Meta
	layout  device.Layout
	banks   map[int][]string
	buttons map[[2]int]device.ButtonMap
	led     int
	ports   map[int]device.ExpFSPort
	live    int
	liveErr error
	calRaw  int
	calErr  error
	fail    map[string]error
	calls   []string
	ledLog  []int

	// onSetState runs after the hardware bank changes, outside the lock.
	onSetState func(bank int)
}

func newFakeRemote(bankCount int) *fakeRemote {
	f := &fakeRemote{
		meta: device.Meta{
			MaxBanks:   8,
			Buttons:    8,
			BankCount:  bankCount,
			MaxActions: 4,
			LongMs:     400,
			ExpFSPorts: 2,
		},
		banks:   make(map[int][]string),
		buttons: make(map[[2]int]device.ButtonMap),
		led:     60,
		ports:   make(map[int]device.ExpFSPort),
		fail:    make(map[string]error),
	}
	f.layout.BankCount = bankCount
	for i := 0; i < bankCount; i++ {
		f.layout.Banks = append(f.layout.Banks, device.BankInfo{Index: i, Name: string(rune('A' + i))})
	}
	for p := 0; p < 2; p++ {
		f.ports[p] = device.ExpFSPort{Port: p, Kind: device.KindSingle, CalMax: device.CalRange}
	}
	return f
}

func (f *fakeRemote) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeRemote) FetchMeta(ctx context.Context) (device.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET meta")
	return f.meta, nil
}

func (f *fakeRemote) FetchLayout(ctx context.Context) (device.Layout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET layout")
	return f.layout.Clone(), nil
}

func (f *fakeRemote) SaveLayout(ctx context.Context, l device.Layout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST layout %d", l.BankCount)
	if err := f.fail["layout"]; err != nil {
		return err
	}
	f.layout = l.Clone()
	f.meta.BankCount = l.BankCount
	return nil
}

func (f *fakeRemote) FetchBank(ctx context.Context, bank int) (device.BankNames, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET bank %d", bank)
	return device.BankNames{Bank: bank, SwitchNames: slices.Clone(f.banks[bank])}, nil
}

func (f *fakeRemote) SaveBank(ctx context.Context, b device.BankNames) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST bank %d", b.Bank)
	if err := f.fail["bank"]; err != nil {
		return err
	}
	f.banks[b.Bank] = slices.Clone(b.SwitchNames)
	return nil
}

func (f *fakeRemote) FetchButton(ctx context.Context, bank, btn int) (device.ButtonMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET button %d/%d", bank, btn)
	m, ok := f.buttons[[2]int{bank, btn}]
	if !ok {
		m = device.ButtonMap{ABLed: 1}
	}
	m = m.Clone()
	m.Bank, m.Btn = bank, btn
	return m, nil
}

func (f *fakeRemote) SaveButton(ctx context.Context, m device.ButtonMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST button %d/%d", m.Bank, m.Btn)
	if err := f.fail["button"]; err != nil {
		return err
	}
	f.buttons[[2]int{m.Bank, m.Btn}] = m.Clone()
	return nil
}

func (f *fakeRemote) FetchLED(ctx context.Context) (device.LED, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET led")
	return device.LED{Brightness: f.led}, nil
}

func (f *fakeRemote) SaveLED(ctx context.Context, led device.LED) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST led %d", led.Brightness)
	f.led = led.Brightness
	f.ledLog = append(f.ledLog, led.Brightness)
	return nil
}

func (f *fakeRemote) FetchExpFS(ctx context.Context, port int) (device.ExpFSPort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET expfs %d", port)
	p := f.ports[port].Clone()
	p.Port = port
	return p, nil
}

func (f *fakeRemote) SaveExpFS(ctx context.Context, cfg device.ExpFSPort) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST expfs %d", cfg.Port)
	if err := f.fail["expfs"]; err != nil {
		return err
	}
	f.ports[cfg.Port] = cfg.Clone()
	return nil
}

func (f *fakeRemote) Calibrate(ctx context.Context, port int, which string) (device.CalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST expfs_cal %d %s", port, which)
	if f.calErr != nil {
		return device.CalResult{}, f.calErr
	}
	p := f.ports[port]
	if which == device.CalMax {
		p.CalMax = f.calRaw
	} else {
		p.CalMin = f.calRaw
	}
	f.ports[port] = p
	return device.CalResult{OK: true, Raw: f.calRaw, CalMin: p.CalMin, CalMax: p.CalMax}, nil
}

func (f *fakeRemote) FetchState(ctx context.Context) (device.LiveState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET state")
	if f.liveErr != nil {
		return device.LiveState{}, f.liveErr
	}
	return device.LiveState{Bank: f.live}, nil
}

func (f *fakeRemote) SetState(ctx context.Context, bank int) error {
	f.mu.Lock()
	f.record("POST state %d", bank)
	f.live = bank
	hook := f.onSetState
	f.mu.Unlock()
	if hook != nil {
		hook(bank)
	}
	return nil
}

func (f *fakeRemote) set(fn func(f *fakeRemote)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeRemote) count(prefix string) int {
	n := 0
	for _, c := range f.callLog() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// indexOf returns the position of the first call equal to want, or -1.
func (f *fakeRemote) indexOf(want string) int {
	return slices.Index(f.callLog(), want)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestSession(t *testing.T, remote device.Remote, opts Options) *Session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if opts.Logger == nil {
		opts.Logger = discard()
	}
	s := New(ctx, remote, &state.Store{}, opts)
	t.Cleanup(s.reg.Close)
	return s
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadSession(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Load(testContext(t), 0); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}
