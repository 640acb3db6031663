package devicesim

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/five82/footctl/internal/device"
)

// Error is a rejected request. Msg is sent as the plain-text body, exactly
// as the firmware does.
type Error struct {
	Status int
	Msg    string
}

func (e *Error) Error() string { return e.Msg }

func badRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Msg: msg}
}

// Device emulates the controller's config store. It applies the firmware's
// parsing, clamping and rejection rules.
type Device struct {
	mu       sync.Mutex
	st       State
	onChange func(State)
	pedal    [Ports]int
}

// New returns a device holding st.
func New(st State) *Device {
	st.sanitize()
	d := &Device{st: st}
	for p := range d.pedal {
		d.pedal[p] = device.CalRange / 2
	}
	return d
}

// OnChange registers a callback invoked with a copy of the state after every
// accepted write.
func (d *Device) OnChange(fn func(State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Replace swaps in a new state without notifying OnChange. It is used when
// the state file is edited externally.
func (d *Device) Replace(st State) {
	st.sanitize()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st = st
}

// State returns a copy of the current state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.clone()
}

// SetPedal moves the emulated expression pedal on port to raw ADC counts.
func (d *Device) SetPedal(port, raw int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pedal[device.ClampInt(port, 0, Ports-1)] = device.ClampInt(raw, 0, device.CalRange)
}

// changed must be called with d.mu held.
func (d *Device) changed() {
	if d.onChange != nil {
		d.onChange(d.st.clone())
	}
}

// Meta reports the hardware limits.
func (d *Device) Meta() device.Meta {
	d.mu.Lock()
	defer d.mu.Unlock()
	return device.Meta{
		MaxBanks:   MaxBanks,
		Buttons:    Buttons,
		BankCount:  d.st.BankCount,
		MaxActions: MaxActions,
		LongMs:     LongMs,
		ExpFSPorts: Ports,
	}
}

// Layout returns the bank list.
func (d *Device) Layout() device.Layout {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := device.Layout{MaxBanks: MaxBanks, BankCount: d.st.BankCount}
	for b := 0; b < d.st.BankCount; b++ {
		l.Banks = append(l.Banks, device.BankInfo{Index: b, Name: d.st.BankNames[b]})
	}
	return l
}

type layoutBody struct {
	BankCount *float64          `json:"bankCount"`
	Banks     *[]*layoutBankBody `json:"banks"`
}

type layoutBankBody struct {
	Name *string `json:"name"`
}

// SetLayout replaces the bank count and names. Shrinking the count keeps the
// names of removed banks in flash; the active bank wraps into range.
func (d *Device) SetLayout(body []byte) error {
	var in layoutBody
	if err := json.Unmarshal(body, &in); err != nil || in.BankCount == nil || in.Banks == nil {
		return badRequest("layout invalid")
	}
	bc := device.ClampInt(int(*in.BankCount), 1, MaxBanks)
	banks := *in.Banks

	d.mu.Lock()
	defer d.mu.Unlock()

	names := append([]string(nil), d.st.BankNames...)
	for len(names) < bc {
		names = append(names, device.DefaultBankName(len(names)))
	}
	for b := 0; b < bc; b++ {
		if b >= len(banks) || banks[b] == nil {
			return badRequest("layout invalid")
		}
		if n := banks[b].Name; n != nil && *n != "" {
			names[b] = device.ClipText(*n, nameLen)
		}
	}

	d.st.BankCount = bc
	d.st.BankNames = names
	d.st.Bank = device.Wrap(d.st.Bank, bc)
	d.changed()
	return nil
}

// Bank returns the switch labels of bank (wrapped into range).
func (d *Device) Bank(bank int) device.BankNames {
	d.mu.Lock()
	defer d.mu.Unlock()
	bank = device.Wrap(bank, d.st.BankCount)
	return device.NormalizeBankNames(device.BankNames{Bank: bank, SwitchNames: d.st.SwitchNames[bank]}, Buttons)
}

type bankBody struct {
	SwitchNames *[]any `json:"switchNames"`
}

// SetBank updates the switch labels of bank. Non-string entries and empty
// strings keep the previous label.
func (d *Device) SetBank(bank int, body []byte) error {
	var in bankBody
	if err := json.Unmarshal(body, &in); err != nil || in.SwitchNames == nil {
		return badRequest("bank invalid")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	bank = device.Wrap(bank, d.st.BankCount)
	names := device.NormalizeBankNames(device.BankNames{SwitchNames: d.st.SwitchNames[bank]}, Buttons).SwitchNames
	for k, v := range *in.SwitchNames {
		if k >= Buttons {
			break
		}
		if s, ok := v.(string); ok && s != "" {
			names[k] = device.ClipText(s, nameLen)
		}
	}
	d.st.SwitchNames[bank] = names
	d.changed()
	return nil
}

// Button returns the mapping of bank/btn (both wrapped into range).
func (d *Device) Button(bank, btn int) device.ButtonMap {
	d.mu.Lock()
	defer d.mu.Unlock()
	bank = device.Wrap(bank, d.st.BankCount)
	btn = device.Wrap(btn, Buttons)
	m, ok := d.st.Buttons[buttonKey(bank, btn)]
	if !ok {
		m = device.ButtonMap{ABLed: 1}
	}
	m = device.NormalizeButton(m.Clone())
	m.Bank, m.Btn = bank, btn
	return m
}

type actionBody struct {
	Type *string  `json:"type"`
	Ch   *float64 `json:"ch"`
	A    *float64 `json:"a"`
	B    *float64 `json:"b"`
	C    *float64 `json:"c"`
}

type switchBody struct {
	PressMode  *float64       `json:"pressMode"`
	CCBehavior *float64       `json:"ccBehavior"`
	ABLed      *float64       `json:"abLed"`
	Short      *[]*actionBody `json:"short"`
	Long       *[]*actionBody `json:"long"`
}

// SetButton replaces the mapping of bank/btn. Any malformed action rejects
// the whole payload.
func (d *Device) SetButton(bank, btn int, body []byte) error {
	var in switchBody
	if err := json.Unmarshal(body, &in); err != nil {
		return badRequest("button config invalid")
	}
	sc, ok := parseSwitch(in, device.PressGroupLED)
	if !ok {
		return badRequest("button config invalid")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	bank = device.Wrap(bank, d.st.BankCount)
	btn = device.Wrap(btn, Buttons)
	key := buttonKey(bank, btn)

	abLed := 1
	if prev, ok := d.st.Buttons[key]; ok {
		abLed = prev.ABLed
	}
	if in.ABLed != nil {
		abLed = device.ClampInt(int(*in.ABLed), 0, 1)
	}
	d.st.Buttons[key] = device.ButtonMap{
		PressMode:  sc.PressMode,
		CCBehavior: sc.CCBehavior,
		ABLed:      abLed,
		Short:      sc.Short,
		Long:       sc.Long,
	}
	d.changed()
	return nil
}

func parseSwitch(in switchBody, maxMode int) (device.SwitchConfig, bool) {
	if in.PressMode == nil || in.CCBehavior == nil || in.Short == nil || in.Long == nil {
		return device.SwitchConfig{}, false
	}
	short, ok := parseActions(*in.Short)
	if !ok {
		return device.SwitchConfig{}, false
	}
	long, ok := parseActions(*in.Long)
	if !ok {
		return device.SwitchConfig{}, false
	}
	return device.SwitchConfig{
		PressMode:  device.ClampInt(int(*in.PressMode), 0, maxMode),
		CCBehavior: device.ClampInt(int(*in.CCBehavior), 0, 2),
		Short:      short,
		Long:       long,
	}, true
}

func parseActions(in []*actionBody) ([]device.Action, bool) {
	out := []device.Action{}
	for i, a := range in {
		if i >= MaxActions {
			break
		}
		act, ok := parseAction(a)
		if !ok {
			return nil, false
		}
		out = append(out, act)
	}
	return out, true
}

func parseAction(a *actionBody) (device.Action, bool) {
	if a == nil || a.Type == nil || a.Ch == nil || a.A == nil || a.B == nil {
		return device.Action{}, false
	}
	c := 0
	if a.C != nil {
		c = int(*a.C)
	}
	act := device.Action{
		Type: *a.Type,
		Ch:   device.ClampInt(int(*a.Ch), 1, 16),
		A:    device.ClampInt(int(*a.A), 0, 127),
		B:    device.ClampInt(int(*a.B), 0, 127),
	}
	switch act.Type {
	case device.ActionCC:
		act.C = device.ClampInt(c, 0, 127)
	case device.ActionPC:
	default:
		return device.Action{}, false
	}
	return act, true
}

// LED returns the global brightness.
func (d *Device) LED() device.LED {
	d.mu.Lock()
	defer d.mu.Unlock()
	return device.LED{Brightness: d.st.LED}
}

type ledBody struct {
	Brightness *float64 `json:"brightness"`
}

// SetLED sets the global brightness, clamped to 0..100.
func (d *Device) SetLED(body []byte) error {
	var in ledBody
	if err := json.Unmarshal(body, &in); err != nil {
		return badRequest("bad json")
	}
	if in.Brightness == nil {
		return badRequest("bad json fields")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st.LED = device.ClampBrightness(int(*in.Brightness))
	d.changed()
	return nil
}

// ExpFS returns the config of port (clamped into range).
func (d *Device) ExpFS(port int) device.ExpFSPort {
	d.mu.Lock()
	defer d.mu.Unlock()
	port = device.ClampInt(port, 0, Ports-1)
	return d.st.ExpFS[port].Clone()
}

type expfsBody struct {
	Kind   *string  `json:"kind"`
	CalMin *float64 `json:"calMin"`
	CalMax *float64 `json:"calMax"`
	Exp    *struct {
		Cmd []*actionBody `json:"cmd"`
	} `json:"exp"`
	Tip  *switchBody `json:"tip"`
	Ring *switchBody `json:"ring"`
}

// SetExpFS replaces the config of port. Fields that are absent take the
// factory defaults.
func (d *Device) SetExpFS(port int, body []byte) error {
	var in expfsBody
	if err := json.Unmarshal(body, &in); err != nil || in.Kind == nil {
		return &Error{Status: http.StatusInternalServerError, Msg: "expfs save failed"}
	}
	port = device.ClampInt(port, 0, Ports-1)
	cfg := defaultPort(port)

	switch *in.Kind {
	case device.KindExp, device.KindDual, device.KindSingle:
		cfg.Kind = *in.Kind
	default:
		cfg.Kind = device.KindSingle
	}
	if in.CalMin != nil {
		cfg.CalMin = device.ClampInt(int(*in.CalMin), 0, device.CalRange)
	}
	if in.CalMax != nil {
		cfg.CalMax = device.ClampInt(int(*in.CalMax), 0, device.CalRange)
	}
	if in.Exp != nil && len(in.Exp.Cmd) > 0 {
		if a, ok := parseAction(in.Exp.Cmd[0]); ok {
			cfg.Exp.Cmd = []device.Action{device.ClampExpAction(a)}
		}
	}
	for _, side := range []struct {
		body *switchBody
		dst  *device.SwitchConfig
	}{{in.Tip, &cfg.Tip}, {in.Ring, &cfg.Ring}} {
		if side.body == nil {
			continue
		}
		sc, ok := parseSwitch(*side.body, device.PressToggleAB)
		if !ok {
			return &Error{Status: http.StatusInternalServerError, Msg: "expfs save failed"}
		}
		*side.dst = sc
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.st.ExpFS[port] = cfg
	d.changed()
	return nil
}

// Calibrate stores the pedal's current reading as the port's min or max.
func (d *Device) Calibrate(port int, which string) (device.CalResult, error) {
	if which == "0" {
		which = device.CalMin
	}
	if which == "1" {
		which = device.CalMax
	}
	if which != device.CalMin && which != device.CalMax {
		return device.CalResult{}, badRequest("missing which=min|max")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	port = device.ClampInt(port, 0, Ports-1)
	raw := d.pedal[port]
	p := &d.st.ExpFS[port]
	if which == device.CalMax {
		p.CalMax = raw
	} else {
		p.CalMin = raw
	}
	d.changed()
	return device.CalResult{OK: true, Raw: raw, CalMin: p.CalMin, CalMax: p.CalMax}, nil
}

// Live returns the bank the footswitch is on.
func (d *Device) Live() device.LiveState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return device.LiveState{Bank: d.st.Bank}
}

type stateBody struct {
	Bank *float64 `json:"bank"`
}

// SetLive switches the footswitch to a bank (wrapped into range).
func (d *Device) SetLive(body []byte) error {
	var in stateBody
	if err := json.Unmarshal(body, &in); err != nil {
		return badRequest("bad json")
	}
	if in.Bank == nil {
		return badRequest("bad json fields")
	}
	d.PressBank(int(*in.Bank))
	return nil
}

// PressBank emulates the user stepping the hardware to bank.
func (d *Device) PressBank(bank int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.st.Bank = device.Wrap(bank, d.st.BankCount)
	d.changed()
}
