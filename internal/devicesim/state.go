package devicesim

import (
	"fmt"

	"github.com/five82/footctl/internal/device"
)

// Hardware limits of the emulated controller.
const (
	MaxBanks   = 100
	Buttons    = 8
	MaxActions = 20
	LongMs     = 400
	Ports      = 2

	// nameLen is the firmware's name buffer without the terminator.
	nameLen = 15
)

// State is everything the controller keeps in flash. It is the document the
// simulator persists to its state file.
type State struct {
	BankCount   int                         `json:"bankCount"`
	BankNames   []string                    `json:"bankNames"`
	SwitchNames map[int][]string            `json:"switchNames"`
	Buttons     map[string]device.ButtonMap `json:"buttons"`
	LED         int                         `json:"led"`
	ExpFS       []device.ExpFSPort          `json:"expfs"`
	Bank        int                         `json:"bank"`
}

// DefaultState is a freshly flashed controller.
func DefaultState() State {
	st := State{
		BankCount:   4,
		SwitchNames: make(map[int][]string),
		Buttons:     make(map[string]device.ButtonMap),
		LED:         device.DefaultBrightness,
	}
	for b := 0; b < st.BankCount; b++ {
		st.BankNames = append(st.BankNames, device.DefaultBankName(b))
	}
	for p := 0; p < Ports; p++ {
		st.ExpFS = append(st.ExpFS, defaultPort(p))
	}
	return st
}

func defaultPort(p int) device.ExpFSPort {
	return device.ExpFSPort{
		Port:   p,
		Kind:   device.KindSingle,
		CalMax: device.CalRange,
		Exp:    device.ExpCommand{Cmd: []device.Action{{Type: device.ActionCC, Ch: 1, C: 100}}},
		Tip:    device.SwitchConfig{Short: []device.Action{}, Long: []device.Action{}},
		Ring:   device.SwitchConfig{Short: []device.Action{}, Long: []device.Action{}},
	}
}

func buttonKey(bank, btn int) string {
	return fmt.Sprintf("%d/%d", bank, btn)
}

// sanitize repairs a state read from disk.
func (st *State) sanitize() {
	st.BankCount = device.ClampInt(st.BankCount, 1, MaxBanks)
	for len(st.BankNames) < st.BankCount {
		st.BankNames = append(st.BankNames, device.DefaultBankName(len(st.BankNames)))
	}
	for i, n := range st.BankNames {
		if n == "" {
			n = device.DefaultBankName(i)
		}
		st.BankNames[i] = device.ClipText(n, nameLen)
	}
	if st.SwitchNames == nil {
		st.SwitchNames = make(map[int][]string)
	}
	if st.Buttons == nil {
		st.Buttons = make(map[string]device.ButtonMap)
	}
	st.LED = device.ClampBrightness(st.LED)
	for len(st.ExpFS) < Ports {
		st.ExpFS = append(st.ExpFS, defaultPort(len(st.ExpFS)))
	}
	st.ExpFS = st.ExpFS[:Ports]
	for p := range st.ExpFS {
		st.ExpFS[p] = device.NormalizeExpFS(st.ExpFS[p])
		st.ExpFS[p].Port = p
	}
	st.Bank = device.Wrap(st.Bank, st.BankCount)
}

func (st State) clone() State {
	out := st
	out.BankNames = append([]string(nil), st.BankNames...)
	out.SwitchNames = make(map[int][]string, len(st.SwitchNames))
	for k, v := range st.SwitchNames {
		out.SwitchNames[k] = append([]string(nil), v...)
	}
	out.Buttons = make(map[string]device.ButtonMap, len(st.Buttons))
	for k, v := range st.Buttons {
		out.Buttons[k] = v.Clone()
	}
	out.ExpFS = make([]device.ExpFSPort, len(st.ExpFS))
	for i, p := range st.ExpFS {
		out.ExpFS[i] = p.Clone()
	}
	return out
}
