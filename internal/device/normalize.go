package device

import (
	"encoding/json"
	"fmt"
)

// Field limits and defaults shared with the firmware.
const (
	MaxBankName   = 10
	MaxSwitchName = 5

	DefaultMaxBanks   = 100
	DefaultButtons    = 8
	DefaultMaxActions = 20
	DefaultLongMs     = 400
	DefaultExpFSPorts = 2
	MaxExpFSPorts     = 2

	DefaultBrightness = 100
	CalRange          = 4095
)

// UnmarshalJSON decodes a button map, defaulting abLed to B when absent.
func (m *ButtonMap) UnmarshalJSON(data []byte) error {
	type wire ButtonMap
	w := wire{ABLed: 1}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = ButtonMap(w)
	return nil
}

// UnmarshalJSON decodes a port config, defaulting kind and calMax when absent.
func (p *ExpFSPort) UnmarshalJSON(data []byte) error {
	type wire ExpFSPort
	w := wire{Kind: KindSingle, CalMax: CalRange}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = ExpFSPort(w)
	return nil
}

// UnmarshalJSON decodes the LED payload, defaulting to full brightness.
func (l *LED) UnmarshalJSON(data []byte) error {
	type wire LED
	w := wire{Brightness: DefaultBrightness}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = LED(w)
	return nil
}

// NormalizeMeta fills in missing limits.
func NormalizeMeta(m Meta) Meta {
	if m.MaxBanks <= 0 {
		m.MaxBanks = DefaultMaxBanks
	}
	if m.Buttons <= 0 {
		m.Buttons = DefaultButtons
	}
	if m.BankCount <= 0 {
		m.BankCount = 1
	}
	if m.MaxActions <= 0 {
		m.MaxActions = DefaultMaxActions
	}
	if m.LongMs <= 0 {
		m.LongMs = DefaultLongMs
	}
	if m.ExpFSPorts <= 0 {
		m.ExpFSPorts = DefaultExpFSPorts
	}
	m.ExpFSPorts = ClampInt(m.ExpFSPorts, 1, MaxExpFSPorts)
	return m
}

// NormalizeLayout trims or pads the bank list to BankCount, reindexes it and
// clips names.
func NormalizeLayout(l Layout) Layout {
	if l.BankCount <= 0 {
		l.BankCount = 1
	}
	banks := make([]BankInfo, 0, l.BankCount)
	for i := 0; i < l.BankCount; i++ {
		name := ""
		if i < len(l.Banks) {
			name = l.Banks[i].Name
		}
		if name == "" {
			name = DefaultBankName(i)
		}
		banks = append(banks, BankInfo{Index: i, Name: ClipText(name, MaxBankName)})
	}
	l.Banks = banks
	return l
}

// NormalizeBankNames trims or pads the switch labels to buttons entries.
func NormalizeBankNames(b BankNames, buttons int) BankNames {
	if buttons <= 0 {
		buttons = DefaultButtons
	}
	names := make([]string, buttons)
	for i := range names {
		v := ""
		if i < len(b.SwitchNames) {
			v = ClipText(b.SwitchNames[i], MaxSwitchName)
		}
		if v == "" {
			v = DefaultSwitchName(i)
		}
		names[i] = v
	}
	b.SwitchNames = names
	return b
}

// NormalizeButton replaces missing lists and clamps scalar fields.
func NormalizeButton(m ButtonMap) ButtonMap {
	if m.Short == nil {
		m.Short = []Action{}
	}
	if m.Long == nil {
		m.Long = []Action{}
	}
	m.PressMode = ClampInt(m.PressMode, PressShort, PressGroupLED)
	m.ABLed = ClampInt(m.ABLed, 0, 1)
	return m
}

// NormalizeExpFS replaces missing lists and clamps scalar fields.
func NormalizeExpFS(p ExpFSPort) ExpFSPort {
	switch p.Kind {
	case KindSingle, KindDual, KindExp:
	default:
		p.Kind = KindSingle
	}
	p.CalMin = ClampInt(p.CalMin, 0, CalRange)
	p.CalMax = ClampInt(p.CalMax, 0, CalRange)
	if p.Exp.Cmd == nil {
		p.Exp.Cmd = []Action{}
	}
	p.Tip = normalizeSwitch(p.Tip)
	p.Ring = normalizeSwitch(p.Ring)
	return p
}

func normalizeSwitch(s SwitchConfig) SwitchConfig {
	if s.Short == nil {
		s.Short = []Action{}
	}
	if s.Long == nil {
		s.Long = []Action{}
	}
	s.PressMode = ClampInt(s.PressMode, PressShort, PressToggleAB)
	return s
}

// ButtonPayload shapes a cached button map into what the firmware accepts:
// long actions only for modes that use them, abLed only for a+b mode, clamped
// action fields.
func ButtonPayload(m ButtonMap, maxActions int) ButtonMap {
	out := ButtonMap{
		Bank:       m.Bank,
		Btn:        m.Btn,
		PressMode:  ClampInt(m.PressMode, PressShort, PressGroupLED),
		CCBehavior: 0,
		ABLed:      1,
		Short:      switchActions(m.Short, maxActions),
		Long:       []Action{},
	}
	if out.PressMode == PressToggleAB {
		out.ABLed = ClampInt(m.ABLed, 0, 1)
	}
	if out.PressMode == PressShortLong || out.PressMode == PressToggleAB {
		out.Long = switchActions(m.Long, maxActions)
	}
	return out
}

// SwitchPayload is ButtonPayload for a tip/ring contact.
func SwitchPayload(s SwitchConfig, maxActions int) SwitchConfig {
	out := SwitchConfig{
		PressMode: ClampInt(s.PressMode, PressShort, PressToggleAB),
		Short:     switchActions(s.Short, maxActions),
		Long:      []Action{},
	}
	if out.PressMode != PressShort {
		out.Long = switchActions(s.Long, maxActions)
	}
	return out
}

// ExpFSPayload shapes a cached port config. Exp ports carry exactly one
// command and empty switch configs; switch ports carry no exp command.
func ExpFSPayload(p ExpFSPort, maxActions int) ExpFSPort {
	out := ExpFSPort{
		Port:   p.Port,
		Kind:   p.Kind,
		CalMin: ClampInt(p.CalMin, 0, CalRange),
		CalMax: ClampInt(p.CalMax, 0, CalRange),
		Exp:    ExpCommand{Cmd: []Action{}},
		Tip:    emptySwitch(),
		Ring:   emptySwitch(),
	}
	switch p.Kind {
	case KindExp:
		cmd := DefaultExpAction()
		if len(p.Exp.Cmd) > 0 {
			cmd = p.Exp.Cmd[0]
		}
		out.Exp.Cmd = []Action{ClampExpAction(cmd)}
	case KindDual:
		out.Tip = SwitchPayload(p.Tip, maxActions)
		out.Ring = SwitchPayload(p.Ring, maxActions)
	default:
		out.Kind = KindSingle
		out.Tip = SwitchPayload(p.Tip, maxActions)
	}
	return out
}

func emptySwitch() SwitchConfig {
	return SwitchConfig{Short: []Action{}, Long: []Action{}}
}

func switchActions(in []Action, maxActions int) []Action {
	if maxActions <= 0 {
		maxActions = DefaultMaxActions
	}
	out := make([]Action, 0, len(in))
	for _, a := range in {
		if len(out) == maxActions {
			break
		}
		out = append(out, ClampAction(a))
	}
	return out
}

// ClampAction clamps a switch action. Program changes carry no value byte and
// switch actions never use C.
func ClampAction(a Action) Action {
	if a.Type != ActionPC {
		a.Type = ActionCC
	}
	a.Ch = ClampInt(a.Ch, 1, 16)
	a.A = ClampInt(a.A, 0, 127)
	a.B = ClampInt(a.B, 0, 127)
	if a.Type == ActionPC {
		a.B = 0
	}
	a.C = 0
	return a
}

// ClampExpAction clamps an expression pedal command. For cc, A is the
// controller and B/C the heel/toe values; for pc, A/B are the program range.
func ClampExpAction(a Action) Action {
	if a.Type != ActionPC {
		a.Type = ActionCC
	}
	a.Ch = ClampInt(a.Ch, 1, 16)
	a.A = ClampInt(a.A, 0, 127)
	a.B = ClampInt(a.B, 0, 127)
	a.C = ClampInt(a.C, 0, 127)
	if a.Type == ActionPC {
		a.C = 0
	}
	return a
}

// DefaultAction is the row appended by "add action".
func DefaultAction() Action {
	return Action{Type: ActionCC, Ch: 1, A: 0, B: 127, C: 0}
}

// DefaultExpAction is the expression command used when a port switches to
// exp without one.
func DefaultExpAction() Action {
	return Action{Type: ActionCC, Ch: 1, A: 0, B: 0, C: 127}
}

// DefaultBankName is the label of a freshly created bank.
func DefaultBankName(index int) string {
	return ClipText(fmt.Sprintf("Bank %d", index+1), MaxBankName)
}

// DefaultSwitchName is the label shown for an unnamed switch.
func DefaultSwitchName(index int) string {
	return ClipText(fmt.Sprintf("SW%d", index+1), MaxSwitchName)
}

// ClampBrightness limits an LED brightness to 0..100.
func ClampBrightness(v int) int {
	return ClampInt(v, 0, 100)
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Wrap maps n into [0, max) with wrap-around for negative values.
func Wrap(n, max int) int {
	if max < 1 {
		max = 1
	}
	r := n % max
	if r < 0 {
		r += max
	}
	return r
}

// ClipText truncates s to at most n runes.
func ClipText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
