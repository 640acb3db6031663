package device

// Meta mirrors /api/meta: fixed hardware limits plus the current bank count.
type Meta struct {
	MaxBanks   int `json:"maxBanks"`
	Buttons    int `json:"buttons"`
	BankCount  int `json:"bankCount"`
	MaxActions int `json:"maxActions"`
	LongMs     int `json:"longMs"`
	ExpFSPorts int `json:"expfsPorts"`
}

// Action is a single MIDI command. For cc, A is the controller number and B
// the value; for pc, A is the program. C is only meaningful for expression
// pedal commands.
type Action struct {
	Type string `json:"type"`
	Ch   int    `json:"ch"`
	A    int    `json:"a"`
	B    int    `json:"b"`
	C    int    `json:"c"`
}

// Action types understood by the firmware.
const (
	ActionCC = "cc"
	ActionPC = "pc"
)

// Press modes. GroupLED is only valid for the main switches.
const (
	PressShort     = 0
	PressShortLong = 1
	PressToggleAB  = 2
	PressGroupLED  = 3
)

// ButtonMap mirrors /api/button for one bank/button pair. Bank and Btn are not
// part of the wire payload; they record which identity the snapshot was loaded
// for so a save always targets the button that was edited.
type ButtonMap struct {
	Bank       int      `json:"-"`
	Btn        int      `json:"-"`
	PressMode  int      `json:"pressMode"`
	CCBehavior int      `json:"ccBehavior"`
	ABLed      int      `json:"abLed"`
	Short      []Action `json:"short"`
	Long       []Action `json:"long"`
}

// BankInfo describes one bank inside the layout.
type BankInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Layout mirrors /api/layout.
type Layout struct {
	MaxBanks  int        `json:"maxBanks,omitempty"`
	BankCount int        `json:"bankCount"`
	Banks     []BankInfo `json:"banks"`
}

// BankNames mirrors /api/bank: the per-bank switch labels.
type BankNames struct {
	Bank        int      `json:"-"`
	SwitchNames []string `json:"switchNames"`
}

// LED mirrors /api/led.
type LED struct {
	Brightness int `json:"brightness"`
}

// SwitchConfig is the footswitch mapping used by the tip and ring contacts of
// an expfs port.
type SwitchConfig struct {
	PressMode  int      `json:"pressMode"`
	CCBehavior int      `json:"ccBehavior"`
	Short      []Action `json:"short"`
	Long       []Action `json:"long"`
}

// ExpCommand holds the single command an expression pedal sends.
type ExpCommand struct {
	Cmd []Action `json:"cmd"`
}

// Expfs port kinds.
const (
	KindSingle = "single"
	KindDual   = "dual"
	KindExp    = "exp"
)

// ExpFSPort mirrors /api/expfs for one port.
type ExpFSPort struct {
	Port   int          `json:"-"`
	Kind   string       `json:"kind"`
	CalMin int          `json:"calMin"`
	CalMax int          `json:"calMax"`
	Exp    ExpCommand   `json:"exp"`
	Tip    SwitchConfig `json:"tip"`
	Ring   SwitchConfig `json:"ring"`
}

// CalResult is returned by /api/expfs_cal.
type CalResult struct {
	OK     bool `json:"ok"`
	Raw    int  `json:"raw"`
	CalMin int  `json:"calMin"`
	CalMax int  `json:"calMax"`
}

// LiveState mirrors /api/state: the bank the hardware is currently on.
type LiveState struct {
	Bank int `json:"bank"`
}

// Ack is the body of a successful POST.
type Ack struct {
	OK bool `json:"ok"`
}

// Clone returns a deep copy of the button map.
func (m ButtonMap) Clone() ButtonMap {
	m.Short = cloneActions(m.Short)
	m.Long = cloneActions(m.Long)
	return m
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	if l.Banks != nil {
		banks := make([]BankInfo, len(l.Banks))
		copy(banks, l.Banks)
		l.Banks = banks
	}
	return l
}

// Clone returns a deep copy of the bank names.
func (b BankNames) Clone() BankNames {
	if b.SwitchNames != nil {
		names := make([]string, len(b.SwitchNames))
		copy(names, b.SwitchNames)
		b.SwitchNames = names
	}
	return b
}

// Clone returns a deep copy of the switch config.
func (s SwitchConfig) Clone() SwitchConfig {
	s.Short = cloneActions(s.Short)
	s.Long = cloneActions(s.Long)
	return s
}

// Clone returns a deep copy of the port config.
func (p ExpFSPort) Clone() ExpFSPort {
	p.Exp.Cmd = cloneActions(p.Exp.Cmd)
	p.Tip = p.Tip.Clone()
	p.Ring = p.Ring.Clone()
	return p
}

func cloneActions(in []Action) []Action {
	if in == nil {
		return nil
	}
	out := make([]Action, len(in))
	copy(out, in)
	return out
}
