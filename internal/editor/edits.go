package editor

import (
	"fmt"

	"github.com/five82/footctl/internal/device"
)

// List selects the short or long action list of a switch. In a+b mode they
// are the a and b lists.
type List int

const (
	ListShort List = iota
	ListLong
)

// Field is an editable column of an action row.
type Field int

const (
	FieldCh Field = iota
	FieldA
	FieldB
)

// EditBankName renames the current bank. The layout is saved on commit.
func (s *Session) EditBankName(name string) {
	cur := s.store.Selection().Bank
	s.store.UpdateLayout(func(l *device.Layout) {
		if cur >= 0 && cur < len(l.Banks) {
			l.Banks[cur].Name = device.ClipText(name, device.MaxBankName)
		}
	})
	s.layout.OnEdit()
}

// CommitLayout is called when the bank name field loses focus.
func (s *Session) CommitLayout() {
	s.layout.OnCommit()
}

// EditSwitchName relabels the selected switch. An empty label falls back to
// the default. The bank is saved on commit.
func (s *Session) EditSwitchName(name string) {
	btn := s.store.Selection().Btn
	name = device.ClipText(name, device.MaxSwitchName)
	if name == "" {
		name = device.DefaultSwitchName(btn)
	}
	s.store.UpdateBank(func(b *device.BankNames) {
		for len(b.SwitchNames) <= btn {
			b.SwitchNames = append(b.SwitchNames, device.DefaultSwitchName(len(b.SwitchNames)))
		}
		b.SwitchNames[btn] = name
	})
	s.bank.OnEdit()
}

// CommitBank is called when the switch name field loses focus.
func (s *Session) CommitBank() {
	s.bank.OnCommit()
}

// SetBrightness changes the LED brightness. The save fires once the value
// has been stable for the debounce delay.
func (s *Session) SetBrightness(v int) {
	s.store.UpdateLED(func(l *device.LED) { l.Brightness = device.ClampBrightness(v) })
	s.led.OnEdit()
	s.led.CommitAfterIdle()
}

// SetPressMode changes the selected switch's press mode and saves at once.
func (s *Session) SetPressMode(mode int) {
	s.store.UpdateButton(func(m *device.ButtonMap) {
		m.PressMode = device.ClampInt(mode, device.PressShort, device.PressGroupLED)
	})
	s.button.SaveNow()
}

// SetABLed picks which of the a/b actions lights the LED. It is only saved
// in a+b mode; other modes always light on b.
func (s *Session) SetABLed(sel int) {
	m := s.store.UpdateButton(func(m *device.ButtonMap) { m.ABLed = device.ClampInt(sel, 0, 1) })
	if m.PressMode == device.PressToggleAB {
		s.button.SaveNow()
	}
}

// AddAction appends a default row to list and saves at once.
func (s *Session) AddAction(list List) error {
	limit := s.maxActions()
	var err error
	s.store.UpdateButton(func(m *device.ButtonMap) {
		err = addAction(buttonList(m, list), limit)
	})
	if err != nil {
		s.setStatus(fmt.Sprintf("max actions reached (%d)", limit), false)
		return err
	}
	s.button.SaveNow()
	return nil
}

// RemoveAction deletes row i of list and saves at once.
func (s *Session) RemoveAction(list List, i int) {
	var ok bool
	s.store.UpdateButton(func(m *device.ButtonMap) { ok = removeAction(buttonList(m, list), i) })
	if ok {
		s.button.SaveNow()
	}
}

// ToggleActionType flips row i between cc and pc and saves at once.
func (s *Session) ToggleActionType(list List, i int) {
	var ok bool
	s.store.UpdateButton(func(m *device.ButtonMap) { ok = toggleAction(buttonList(m, list), i) })
	if ok {
		s.button.SaveNow()
	}
}

// EditAction sets one column of row i. Values are clamped when saved. The
// button is saved on commit.
func (s *Session) EditAction(list List, i int, f Field, v int) {
	var ok bool
	s.store.UpdateButton(func(m *device.ButtonMap) { ok = editAction(buttonList(m, list), i, f, v) })
	if ok {
		s.button.OnEdit()
	}
}

// CommitButton is called when an action field loses focus.
func (s *Session) CommitButton() {
	s.button.OnCommit()
}

func (s *Session) maxActions() int {
	if n := s.store.Meta().MaxActions; n > 0 {
		return n
	}
	return device.DefaultMaxActions
}

func buttonList(m *device.ButtonMap, list List) *[]device.Action {
	if list == ListLong {
		return &m.Long
	}
	return &m.Short
}

func switchList(sc *device.SwitchConfig, list List) *[]device.Action {
	if list == ListLong {
		return &sc.Long
	}
	return &sc.Short
}

func addAction(list *[]device.Action, limit int) error {
	if len(*list) >= limit {
		return fmt.Errorf("%w (%d)", ErrMaxActions, limit)
	}
	*list = append(*list, device.DefaultAction())
	return nil
}

func removeAction(list *[]device.Action, i int) bool {
	if i < 0 || i >= len(*list) {
		return false
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	return true
}

func toggleAction(list *[]device.Action, i int) bool {
	if i < 0 || i >= len(*list) {
		return false
	}
	a := &(*list)[i]
	if a.Type == device.ActionPC {
		a.Type = device.ActionCC
	} else {
		a.Type = device.ActionPC
	}
	return true
}

func editAction(list *[]device.Action, i int, f Field, v int) bool {
	if i < 0 || i >= len(*list) {
		return false
	}
	a := &(*list)[i]
	switch f {
	case FieldCh:
		a.Ch = v
	case FieldA:
		a.A = v
	case FieldB:
		a.B = v
	default:
		return false
	}
	return true
}
