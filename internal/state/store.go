package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/footctl/internal/device"
)

// Selection is the bank/switch the editor is showing.
type Selection struct {
	Bank int
	Btn  int
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Meta      device.Meta
	Layout    device.Layout
	Bank      device.BankNames
	Button    device.ButtonMap
	LED       device.LED
	ExpFS     []device.ExpFSPort
	Selection Selection
	Loaded    bool

	LiveBank            int
	HasLive             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive live poll failures
}

// IsOffline returns true when the device has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// BankName returns the layout name of bank i, or its default.
func (s Snapshot) BankName(i int) string {
	if i >= 0 && i < len(s.Layout.Banks) {
		return s.Layout.Banks[i].Name
	}
	return device.DefaultBankName(i)
}

// SwitchName returns the label of switch i in the loaded bank, or its default.
func (s Snapshot) SwitchName(i int) string {
	if i >= 0 && i < len(s.Bank.SwitchNames) && s.Bank.SwitchNames[i] != "" {
		return s.Bank.SwitchNames[i]
	}
	return device.DefaultSwitchName(i)
}

// Port returns the cached config of expfs port p.
func (s Snapshot) Port(p int) (device.ExpFSPort, bool) {
	if p < 0 || p >= len(s.ExpFS) {
		return device.ExpFSPort{}, false
	}
	return s.ExpFS[p], true
}

// Store is the resource snapshot cache. Reads never touch the network; a load
// overwrites the cached value unconditionally, so callers flush pending edits
// before reloading. Every accessor copies, so callers never share slices with
// the store.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Layout = s.snapshot.Layout.Clone()
	snap.Bank = s.snapshot.Bank.Clone()
	snap.Button = s.snapshot.Button.Clone()
	snap.ExpFS = clonePorts(s.snapshot.ExpFS)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// SetMeta stores the hardware limits and sizes the port list to match.
func (s *Store) SetMeta(m device.Meta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Meta = m
	if len(s.snapshot.ExpFS) != m.ExpFSPorts {
		ports := make([]device.ExpFSPort, m.ExpFSPorts)
		copy(ports, s.snapshot.ExpFS)
		for i := range ports {
			ports[i].Port = i
		}
		s.snapshot.ExpFS = ports
	}
}

// Meta returns the cached hardware limits.
func (s *Store) Meta() device.Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Meta
}

// Select records the bank/switch being edited.
func (s *Store) Select(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Selection = sel
}

// Selection returns the bank/switch being edited.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Selection
}

// MarkLoaded records that the initial load has completed.
func (s *Store) MarkLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Loaded = true
}

// SetLayout replaces the cached layout.
func (s *Store) SetLayout(l device.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Layout = l.Clone()
	s.snapshot.Meta.BankCount = l.BankCount
}

// Layout returns a copy of the cached layout.
func (s *Store) Layout() device.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Layout.Clone()
}

// UpdateLayout applies fn to the cached layout under the write lock.
func (s *Store) UpdateLayout(fn func(*device.Layout)) device.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot.Layout)
	s.snapshot.Meta.BankCount = s.snapshot.Layout.BankCount
	return s.snapshot.Layout.Clone()
}

// SetBank replaces the cached switch names.
func (s *Store) SetBank(b device.BankNames) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Bank = b.Clone()
}

// Bank returns a copy of the cached switch names.
func (s *Store) Bank() device.BankNames {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Bank.Clone()
}

// UpdateBank applies fn to the cached switch names under the write lock.
func (s *Store) UpdateBank(fn func(*device.BankNames)) device.BankNames {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot.Bank)
	return s.snapshot.Bank.Clone()
}

// SetButton replaces the cached button map.
func (s *Store) SetButton(m device.ButtonMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Button = m.Clone()
}

// Button returns a copy of the cached button map.
func (s *Store) Button() device.ButtonMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Button.Clone()
}

// UpdateButton applies fn to the cached button map under the write lock.
func (s *Store) UpdateButton(fn func(*device.ButtonMap)) device.ButtonMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot.Button)
	return s.snapshot.Button.Clone()
}

// SetLED replaces the cached brightness.
func (s *Store) SetLED(l device.LED) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LED = l
}

// LED returns the cached brightness.
func (s *Store) LED() device.LED {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.LED
}

// UpdateLED applies fn to the cached brightness under the write lock.
func (s *Store) UpdateLED(fn func(*device.LED)) device.LED {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot.LED)
	return s.snapshot.LED
}

// SetExpFS replaces the cached config of port p.Port. Ports beyond the known
// count grow the list.
func (s *Store) SetExpFS(p device.ExpFSPort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.snapshot.ExpFS) <= p.Port {
		s.snapshot.ExpFS = append(s.snapshot.ExpFS, device.ExpFSPort{Port: len(s.snapshot.ExpFS)})
	}
	s.snapshot.ExpFS[p.Port] = p.Clone()
}

// ExpFS returns a copy of the cached config of port.
func (s *Store) ExpFS(port int) (device.ExpFSPort, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if port < 0 || port >= len(s.snapshot.ExpFS) {
		return device.ExpFSPort{}, false
	}
	return s.snapshot.ExpFS[port].Clone(), true
}

// UpdateExpFS applies fn to the cached config of port under the write lock.
// It reports false when the port is unknown.
func (s *Store) UpdateExpFS(port int, fn func(*device.ExpFSPort)) (device.ExpFSPort, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if port < 0 || port >= len(s.snapshot.ExpFS) {
		return device.ExpFSPort{}, false
	}
	fn(&s.snapshot.ExpFS[port])
	return s.snapshot.ExpFS[port].Clone(), true
}

// UpdateLive records the result of a live state poll. When err is non-nil the
// previous bank is kept but the error is recorded for visibility.
func (s *Store) UpdateLive(live *device.LiveState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if live != nil {
		s.snapshot.LiveBank = live.Bank
		s.snapshot.HasLive = true
	} else {
		s.snapshot.HasLive = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

func clonePorts(ports []device.ExpFSPort) []device.ExpFSPort {
	if len(ports) == 0 {
		return nil
	}
	dup := make([]device.ExpFSPort, len(ports))
	for i, p := range ports {
		dup[i] = p.Clone()
	}
	return dup
}
