package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/footctl/internal/autosave"
	"github.com/five82/footctl/internal/device"
	"github.com/five82/footctl/internal/editor"
	"github.com/five82/footctl/internal/prefs"
)

// fieldEditor is an open text or number field. Every keystroke is applied
// to the session; leaving the field commits it.
type fieldEditor struct {
	label   string
	input   textinput.Model
	numeric bool
	key     autosave.Key
	apply   func(string)
	commit  func()
	submit  func(string) tea.Cmd
}

func newInput(value string, limit int) textinput.Model {
	ti := textinput.New()
	ti.SetValue(value)
	ti.CharLimit = limit
	ti.Prompt = ""
	ti.CursorEnd()
	ti.Focus()
	return ti
}

// openField starts editing. Fields bound to a resource register with the
// session so a flush elsewhere commits them first.
func (m *Model) openField(f *fieldEditor) tea.Cmd {
	m.field = f
	if f.key != "" && f.commit != nil {
		m.session.Focus(f.key, f.commit)
	}
	return textinput.Blink
}

func (m *Model) closeField(commit bool) tea.Cmd {
	f := m.field
	m.field = nil
	if f == nil {
		return nil
	}
	if f.key != "" {
		m.session.Blur()
	}
	if commit && f.commit != nil {
		f.commit()
	}
	m.refresh()
	if commit && f.submit != nil {
		cmd := f.submit(f.input.Value())
		if cmd != nil {
			m.busy = true
		}
		return cmd
	}
	return nil
}

func (m Model) handleFieldKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyTab, tea.KeyShiftTab:
		return m, m.closeField(true)
	case tea.KeyEsc:
		// Edits are already applied; leaving still commits them.
		return m, m.closeField(m.field.submit == nil)
	}

	if m.field.numeric && msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return m, nil
			}
		}
	}

	before := m.field.input.Value()
	var cmd tea.Cmd
	m.field.input, cmd = m.field.input.Update(msg)
	if after := m.field.input.Value(); after != before && m.field.apply != nil {
		m.field.apply(after)
		m.refresh()
	}
	return m, cmd
}

// numberApplier calls fn with the parsed value, ignoring partial input.
func numberApplier(fn func(int)) func(string) {
	return func(s string) {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return
		}
		fn(v)
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.field != nil {
		return m.handleFieldKey(msg)
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		// Confirmed modals start a session operation.
		if cmd != nil {
			m.busy = true
		}
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.showLogs {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		p := m.prefs
		p.Theme = m.theme.Name
		if err := prefs.Save(m.prefsPath, p); err != nil {
			m.logger.Warn("save preferences failed", "error", err)
		}
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
		m.updateLogViewport()
		return m, m.refreshLogs()
	case key.Matches(msg, m.keys.Tab):
		m.pane = (m.pane + 1) % paneCount
		m.row, m.col = 0, 0
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.pane = (m.pane + paneCount - 1) % paneCount
		m.row, m.col = 0, 0
		return m, nil
	}

	if m.loading {
		return m, nil
	}

	if cmd, ok := m.handleBankKey(msg); ok {
		return m, cmd
	}
	// Resource edits wait until the selection has been reloaded.
	if m.busy {
		return m, nil
	}

	switch m.pane {
	case paneActions:
		return m.handleActionsKey(msg)
	case panePorts:
		return m.handlePortsKey(msg)
	default:
		return m.handleSwitchKey(msg)
	}
}

// handleBankKey handles bank and switch navigation, which works in every
// pane.
func (m *Model) handleBankKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	nav := func(fn func(ctx context.Context) error) (tea.Cmd, bool) {
		if m.busy {
			return nil, true
		}
		return m.run(opNavigate, fn), true
	}

	switch {
	case key.Matches(msg, m.keys.PrevBank):
		return nav(m.session.PrevBank)
	case key.Matches(msg, m.keys.NextBank):
		return nav(m.session.NextBank)
	case key.Matches(msg, m.keys.SelectSwitch):
		btn := int(msg.Runes[0] - '1')
		if btn >= m.snapshot.Meta.Buttons {
			return nil, true
		}
		return nav(func(ctx context.Context) error { return m.session.SelectButton(ctx, btn) })
	case key.Matches(msg, m.keys.GotoBank):
		if m.busy {
			return nil, true
		}
		session, ctx := m.session, m.ctx
		return m.openField(&fieldEditor{
			label:   fmt.Sprintf("Go to bank (1-%d)", m.snapshot.Meta.BankCount),
			input:   newInput("", 3),
			numeric: true,
			submit: func(s string) tea.Cmd {
				n, err := strconv.Atoi(s)
				if err != nil || n < 1 {
					return nil
				}
				return runOp(ctx, opNavigate, func(ctx context.Context) error { return session.GotoBank(ctx, n-1) })
			},
		}), true
	case key.Matches(msg, m.keys.AddBank):
		if m.busy {
			return nil, true
		}
		return m.run(opBank, m.session.AddBank), true
	case key.Matches(msg, m.keys.DeleteBank):
		if m.busy {
			return nil, true
		}
		sel := m.snapshot.Selection.Bank
		prompt := fmt.Sprintf("Delete bank %d %q?", sel+1, m.snapshot.BankName(sel))
		session, ctx := m.session, m.ctx
		m.modal = newConfirmModal(prompt, func() tea.Cmd {
			return runOp(ctx, opBank, session.DeleteBank)
		})
		return nil, true
	case key.Matches(msg, m.keys.RenameBank):
		sel := m.snapshot.Selection.Bank
		return m.openField(&fieldEditor{
			label:  fmt.Sprintf("Bank %d name", sel+1),
			input:  newInput(m.snapshot.BankName(sel), device.MaxBankName),
			key:    autosave.KeyLayout,
			apply:  m.session.EditBankName,
			commit: m.session.CommitLayout,
		}), true
	case key.Matches(msg, m.keys.Brighter):
		m.session.SetBrightness(m.snapshot.LED.Brightness + 5)
		m.refresh()
		return nil, true
	case key.Matches(msg, m.keys.Dimmer):
		m.session.SetBrightness(m.snapshot.LED.Brightness - 5)
		m.refresh()
		return nil, true
	}
	return nil, false
}

func (m Model) handleSwitchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	btn := m.snapshot.Selection.Btn
	switch {
	case key.Matches(msg, m.keys.RenameSwitch), key.Matches(msg, m.keys.Edit):
		return m, m.openField(&fieldEditor{
			label:  fmt.Sprintf("Switch %d name", btn+1),
			input:  newInput(m.snapshot.SwitchName(btn), device.MaxSwitchName),
			key:    autosave.KeyBank,
			apply:  m.session.EditSwitchName,
			commit: m.session.CommitBank,
		})
	case key.Matches(msg, m.keys.PressMode):
		m.session.SetPressMode((m.snapshot.Button.PressMode + 1) % (device.PressGroupLED + 1))
	case key.Matches(msg, m.keys.ABLed):
		m.session.SetABLed(1 - m.snapshot.Button.ABLed)
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

// actionTarget abstracts over the selected button's lists and a port's tip
// or ring lists.
type actionTarget struct {
	key    autosave.Key
	add    func(editor.List) error
	remove func(editor.List, int)
	toggle func(editor.List, int)
	edit   func(editor.List, int, editor.Field, int)
	commit func()
}

func (m Model) buttonTarget() actionTarget {
	s := m.session
	return actionTarget{
		key:    autosave.KeyButton,
		add:    s.AddAction,
		remove: s.RemoveAction,
		toggle: s.ToggleActionType,
		edit:   s.EditAction,
		commit: s.CommitButton,
	}
}

func (m Model) switchTarget() actionTarget {
	s, port, side := m.session, m.port, m.side
	return actionTarget{
		key:    autosave.ExpFSKey(port),
		add:    func(l editor.List) error { return s.AddSwitchAction(port, side, l) },
		remove: func(l editor.List, i int) { s.RemoveSwitchAction(port, side, l, i) },
		toggle: func(l editor.List, i int) { s.ToggleSwitchActionType(port, side, l, i) },
		edit: func(l editor.List, i int, f editor.Field, v int) {
			s.EditSwitchAction(port, side, l, i, f, v)
		},
		commit: func() { s.CommitPort(port) },
	}
}

// Columns of an action row.
const (
	colType = iota
	colCh
	colA
	colB
	actionCols
)

func (m Model) handleActionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	return m.handleActionList(msg, m.buttonTarget())
}

func (m Model) handleActionList(msg tea.KeyMsg, t actionTarget) (tea.Model, tea.Cmd) {
	actions := m.activeActions()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.row = max(m.row-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.row = min(m.row+1, max(len(actions)-1, 0))
	case key.Matches(msg, m.keys.Left):
		m.col = (m.col + actionCols - 1) % actionCols
	case key.Matches(msg, m.keys.Right):
		m.col = (m.col + 1) % actionCols
	case key.Matches(msg, m.keys.ToggleList):
		if m.longAvailable() && m.list == editor.ListShort {
			m.list = editor.ListLong
		} else {
			m.list = editor.ListShort
		}
		m.row = 0
	case key.Matches(msg, m.keys.AddRow):
		if err := t.add(m.list); err != nil && !errors.Is(err, editor.ErrMaxActions) {
			m.logger.Debug("add action failed", "error", err)
		}
		m.refresh()
		m.row = max(len(m.activeActions())-1, 0)
	case key.Matches(msg, m.keys.RemoveRow):
		if len(actions) > 0 {
			t.remove(m.list, m.row)
		}
	case key.Matches(msg, m.keys.ToggleType):
		if len(actions) > 0 {
			t.toggle(m.list, m.row)
		}
	case key.Matches(msg, m.keys.Edit):
		if len(actions) == 0 || m.col == colType {
			if len(actions) > 0 {
				t.toggle(m.list, m.row)
				m.refresh()
			}
			return m, nil
		}
		return m, m.openField(m.actionField(t, actions[m.row]))
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) actionField(t actionTarget, a device.Action) *fieldEditor {
	list, row := m.list, m.row
	field, value, label := editor.FieldCh, a.Ch, "channel (1-16)"
	switch m.col {
	case colA:
		field, value, label = editor.FieldA, a.A, "cc# (0-127)"
		if a.Type == device.ActionPC {
			label = "program (0-127)"
		}
	case colB:
		field, value, label = editor.FieldB, a.B, "value (0-127)"
	}
	return &fieldEditor{
		label:   fmt.Sprintf("Action %d %s", row+1, label),
		input:   newInput(strconv.Itoa(value), 3),
		numeric: true,
		key:     t.key,
		apply:   numberApplier(func(v int) { t.edit(list, row, field, v) }),
		commit:  t.commit,
	}
}

var portKinds = []string{device.KindSingle, device.KindDual, device.KindExp}

func (m Model) handlePortsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cfg, ok := m.snapshot.Port(m.port)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.NextPort):
		m.port = (m.port + 1) % max(len(m.snapshot.ExpFS), 1)
		m.side, m.row, m.col = editor.SideTip, 0, 0
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.PortKind):
		next := portKinds[0]
		for i, k := range portKinds {
			if k == cfg.Kind {
				next = portKinds[(i+1)%len(portKinds)]
			}
		}
		if err := m.session.SetPortKind(m.port, next); err != nil {
			m.logger.Debug("set port kind failed", "port", m.port, "error", err)
		}
		m.side, m.row, m.col = editor.SideTip, 0, 0
		m.refresh()
		return m, nil
	}

	if cfg.Kind == device.KindExp {
		return m.handleExpKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.ToggleSide):
		if cfg.Kind == device.KindDual {
			m.side = 1 - m.side
			m.row = 0
			m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.PressMode):
		sc := cfg.Tip
		if m.side == editor.SideRing {
			sc = cfg.Ring
		}
		m.session.SetSwitchPressMode(m.port, m.side, (sc.PressMode+1)%(device.PressToggleAB+1))
		m.refresh()
		return m, nil
	}
	return m.handleActionList(msg, m.switchTarget())
}

// Columns of the expression command row.
const (
	expColType = iota
	expColCh
	expColCC
	expColVal1
	expColVal2
	expCols
)

func (m Model) handleExpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	port := m.port
	in, _ := m.session.PortExp(port)
	switch {
	case key.Matches(msg, m.keys.Left):
		m.col = m.nextExpCol(in, -1)
	case key.Matches(msg, m.keys.Right):
		m.col = m.nextExpCol(in, 1)
	case key.Matches(msg, m.keys.ToggleType):
		m.session.SetExpType(port, toggleType(in.Type))
	case key.Matches(msg, m.keys.Calibrate):
		if m.busy {
			return m, nil
		}
		session := m.session
		return m, m.run(opCalibrate, func(ctx context.Context) error {
			return session.AdvanceCalibration(ctx, port)
		})
	case key.Matches(msg, m.keys.Escape):
		m.session.CancelCalibration(port)
	case key.Matches(msg, m.keys.Edit):
		if m.col == expColType {
			m.session.SetExpType(port, toggleType(in.Type))
			break
		}
		return m, m.openField(m.expField(in))
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

// nextExpCol moves the exp cursor, skipping the cc# column for program
// changes.
func (m Model) nextExpCol(in editor.ExpInputs, dir int) int {
	col := (m.col + dir + expCols) % expCols
	if col == expColCC && in.Type == device.ActionPC {
		col = (col + dir + expCols) % expCols
	}
	return col
}

func (m Model) expField(in editor.ExpInputs) *fieldEditor {
	port, s := m.port, m.session
	field, value, label := editor.ExpCh, in.Ch, "channel (1-16)"
	switch m.col {
	case expColCC:
		field, value, label = editor.ExpCC, in.CC, "cc# (0-127)"
	case expColVal1:
		field, value, label = editor.ExpVal1, in.Val1, "heel value (0-127)"
	case expColVal2:
		field, value, label = editor.ExpVal2, in.Val2, "toe value (0-127)"
	}
	return &fieldEditor{
		label:   fmt.Sprintf("Port %d %s", port+1, label),
		input:   newInput(strconv.Itoa(value), 3),
		numeric: true,
		key:     autosave.ExpFSKey(port),
		apply:   numberApplier(func(v int) { s.EditExp(port, field, v) }),
		commit:  func() { s.CommitPort(port) },
	}
}

func toggleType(t string) string {
	if t == device.ActionPC {
		return device.ActionCC
	}
	return device.ActionPC
}

// activeActions is the action list under the cursor.
func (m Model) activeActions() []device.Action {
	switch m.pane {
	case paneActions:
		if m.list == editor.ListLong {
			return m.snapshot.Button.Long
		}
		return m.snapshot.Button.Short
	case panePorts:
		cfg, ok := m.snapshot.Port(m.port)
		if !ok || cfg.Kind == device.KindExp {
			return nil
		}
		sc := cfg.Tip
		if m.side == editor.SideRing {
			sc = cfg.Ring
		}
		if m.list == editor.ListLong {
			return sc.Long
		}
		return sc.Short
	}
	return nil
}

// longAvailable reports whether the list under the cursor has a long-press
// list.
func (m Model) longAvailable() bool {
	switch m.pane {
	case paneActions:
		mode := m.snapshot.Button.PressMode
		return mode == device.PressShortLong || mode == device.PressToggleAB
	case panePorts:
		cfg, ok := m.snapshot.Port(m.port)
		if !ok || cfg.Kind == device.KindExp {
			return false
		}
		sc := cfg.Tip
		if m.side == editor.SideRing {
			sc = cfg.Ring
		}
		return sc.PressMode != device.PressShort
	}
	return false
}
