package editor

import (
	"context"
	"fmt"

	"github.com/five82/footctl/internal/device"
)

// Side selects the tip or ring contact of a footswitch port.
type Side int

const (
	SideTip Side = iota
	SideRing
)

// ExpField is an editable input of the expression pedal command.
type ExpField int

const (
	ExpCh ExpField = iota
	ExpCC
	ExpVal1
	ExpVal2
)

// ExpInputs is the expression command as the editor presents it. For cc the
// pedal sweeps controller CC between Val1 and Val2; for pc it sweeps programs
// Val1 through Val2.
type ExpInputs struct {
	Type string
	Ch   int
	CC   int
	Val1 int
	Val2 int
}

// ExpInputsOf maps a wire command to editor inputs.
func ExpInputsOf(a device.Action) ExpInputs {
	if a.Type == device.ActionPC {
		return ExpInputs{Type: device.ActionPC, Ch: a.Ch, Val1: a.A, Val2: a.B}
	}
	return ExpInputs{Type: device.ActionCC, Ch: a.Ch, CC: a.A, Val1: a.B, Val2: a.C}
}

// Action maps editor inputs back to a clamped wire command.
func (in ExpInputs) Action() device.Action {
	ch := device.ClampInt(in.Ch, 1, 16)
	v1 := device.ClampInt(in.Val1, 0, 127)
	v2 := device.ClampInt(in.Val2, 0, 127)
	if in.Type == device.ActionPC {
		return device.Action{Type: device.ActionPC, Ch: ch, A: v1, B: v2}
	}
	return device.Action{Type: device.ActionCC, Ch: ch, A: device.ClampInt(in.CC, 0, 127), B: v1, C: v2}
}

// PortExp returns the expression command of port as editor inputs.
func (s *Session) PortExp(port int) (ExpInputs, bool) {
	cfg, ok := s.store.ExpFS(port)
	if !ok {
		return ExpInputs{}, false
	}
	return ExpInputsOf(expCommand(cfg)), true
}

func expCommand(cfg device.ExpFSPort) device.Action {
	if len(cfg.Exp.Cmd) > 0 {
		return cfg.Exp.Cmd[0]
	}
	return device.DefaultExpAction()
}

// SetPortKind switches a port between single, dual and exp and saves at once.
func (s *Session) SetPortKind(port int, kind string) error {
	switch kind {
	case device.KindSingle, device.KindDual, device.KindExp:
	default:
		return fmt.Errorf("set port kind: unknown kind %q", kind)
	}
	if !s.validPort(port) {
		return fmt.Errorf("%w: %d", ErrUnknownPort, port)
	}
	_, ok := s.store.UpdateExpFS(port, func(p *device.ExpFSPort) {
		p.Kind = kind
		if kind == device.KindExp && len(p.Exp.Cmd) == 0 {
			p.Exp.Cmd = []device.Action{device.DefaultExpAction()}
		}
	})
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPort, port)
	}
	if kind != device.KindExp {
		s.CancelCalibration(port)
	}
	s.ports[port].SaveNow()
	return nil
}

// SetExpType switches the expression command between cc and pc, keeping the
// value range, and saves at once.
func (s *Session) SetExpType(port int, typ string) {
	ok := s.updateExp(port, func(in *ExpInputs) { in.Type = typ })
	if ok {
		s.ports[port].SaveNow()
	}
}

// EditExp sets one input of the expression command. The port is saved on
// commit.
func (s *Session) EditExp(port int, f ExpField, v int) {
	ok := s.updateExp(port, func(in *ExpInputs) {
		switch f {
		case ExpCh:
			in.Ch = v
		case ExpCC:
			in.CC = v
		case ExpVal1:
			in.Val1 = v
		case ExpVal2:
			in.Val2 = v
		}
	})
	if ok {
		s.ports[port].OnEdit()
	}
}

func (s *Session) updateExp(port int, fn func(*ExpInputs)) bool {
	if !s.validPort(port) {
		return false
	}
	_, ok := s.store.UpdateExpFS(port, func(p *device.ExpFSPort) {
		in := ExpInputsOf(expCommand(*p))
		fn(&in)
		p.Exp.Cmd = []device.Action{in.Action()}
	})
	return ok
}

// SetSwitchPressMode changes the press mode of a tip/ring contact and saves
// at once. Ports support modes short, short+long and a+b.
func (s *Session) SetSwitchPressMode(port int, side Side, mode int) {
	ok := s.updateSwitch(port, side, func(sc *device.SwitchConfig) bool {
		sc.PressMode = device.ClampInt(mode, device.PressShort, device.PressToggleAB)
		return true
	})
	if ok {
		s.ports[port].SaveNow()
	}
}

// AddSwitchAction appends a default row to a tip/ring list and saves at once.
func (s *Session) AddSwitchAction(port int, side Side, list List) error {
	limit := s.maxActions()
	var err error
	ok := s.updateSwitch(port, side, func(sc *device.SwitchConfig) bool {
		err = addAction(switchList(sc, list), limit)
		return err == nil
	})
	if err != nil {
		s.setStatus(fmt.Sprintf("max actions reached (%d)", limit), false)
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPort, port)
	}
	s.ports[port].SaveNow()
	return nil
}

// RemoveSwitchAction deletes row i of a tip/ring list and saves at once.
func (s *Session) RemoveSwitchAction(port int, side Side, list List, i int) {
	ok := s.updateSwitch(port, side, func(sc *device.SwitchConfig) bool {
		return removeAction(switchList(sc, list), i)
	})
	if ok {
		s.ports[port].SaveNow()
	}
}

// ToggleSwitchActionType flips row i of a tip/ring list between cc and pc.
func (s *Session) ToggleSwitchActionType(port int, side Side, list List, i int) {
	ok := s.updateSwitch(port, side, func(sc *device.SwitchConfig) bool {
		return toggleAction(switchList(sc, list), i)
	})
	if ok {
		s.ports[port].SaveNow()
	}
}

// EditSwitchAction sets one column of a tip/ring row. The port is saved on
// commit.
func (s *Session) EditSwitchAction(port int, side Side, list List, i int, f Field, v int) {
	ok := s.updateSwitch(port, side, func(sc *device.SwitchConfig) bool {
		return editAction(switchList(sc, list), i, f, v)
	})
	if ok {
		s.ports[port].OnEdit()
	}
}

// CommitPort is called when a port field loses focus.
func (s *Session) CommitPort(port int) {
	if s.validPort(port) {
		s.ports[port].OnCommit()
	}
}

func (s *Session) validPort(port int) bool {
	return port >= 0 && port < len(s.ports)
}

func (s *Session) updateSwitch(port int, side Side, fn func(*device.SwitchConfig) bool) bool {
	if !s.validPort(port) {
		return false
	}
	changed := false
	_, ok := s.store.UpdateExpFS(port, func(p *device.ExpFSPort) {
		if side == SideRing {
			changed = fn(&p.Ring)
			return
		}
		changed = fn(&p.Tip)
	})
	return ok && changed
}

// CalStep is the state of a port's calibration wizard.
type CalStep int

const (
	// CalIdle: the wizard has not started.
	CalIdle CalStep = iota
	// CalAwaitMax: the user should rock the pedal fully up.
	CalAwaitMax
	// CalAwaitMin: the user should press the pedal fully down.
	CalAwaitMin
)

func (c CalStep) String() string {
	switch c {
	case CalAwaitMax:
		return "rock the pedal fully up, then continue"
	case CalAwaitMin:
		return "press the pedal fully down, then save"
	default:
		return "idle"
	}
}

// Calibration returns the wizard step of port.
func (s *Session) Calibration(port int) CalStep {
	if port < 0 || port >= len(s.cal) {
		return CalIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cal[port]
}

// CancelCalibration returns the wizard of port to idle.
func (s *Session) CancelCalibration(port int) {
	s.setCal(port, CalIdle)
}

// AdvanceCalibration moves the wizard one step. The first step only starts
// it; the next two sample the pedal's top and bottom positions on the device
// and refresh the cached calibration.
func (s *Session) AdvanceCalibration(ctx context.Context, port int) error {
	cfg, ok := s.store.ExpFS(port)
	if !ok || !s.validPort(port) {
		return fmt.Errorf("%w: %d", ErrUnknownPort, port)
	}
	if cfg.Kind != device.KindExp {
		return ErrNotExpression
	}

	step := s.Calibration(port)
	if step == CalIdle {
		s.setCal(port, CalAwaitMax)
		return nil
	}

	which, next, done := device.CalMax, CalAwaitMin, "cal up saved"
	if step == CalAwaitMin {
		which, next, done = device.CalMin, CalIdle, "cal down saved"
	}

	// A port save already in flight carries the old calibration.
	_ = s.ports[port].Wait(ctx)

	res, err := s.remote.Calibrate(ctx, port, which)
	if err != nil {
		s.setStatus(failureText("cal failed", err), false)
		return fmt.Errorf("calibrate port %d %s: %w", port, which, err)
	}
	calMin, calMax := res.CalMin, res.CalMax
	if fresh, err := s.remote.FetchExpFS(ctx, port); err == nil {
		calMin, calMax = fresh.CalMin, fresh.CalMax
	} else {
		s.logger.Debug("calibration refresh failed", "port", port, "error", err)
	}
	s.store.UpdateExpFS(port, func(p *device.ExpFSPort) {
		p.CalMin = device.ClampInt(calMin, 0, device.CalRange)
		p.CalMax = device.ClampInt(calMax, 0, device.CalRange)
	})
	s.logger.Info("expression pedal calibrated", "port", port, "which", which, "raw", res.Raw)
	s.setCal(port, next)
	s.setStatus(done, true)
	return nil
}

func (s *Session) setCal(port int, step CalStep) {
	if port < 0 || port >= len(s.cal) {
		return
	}
	s.mu.Lock()
	s.cal[port] = step
	s.mu.Unlock()
}
