package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/footctl/internal/autosave"
	"github.com/five82/footctl/internal/device"
	"github.com/five82/footctl/internal/editor"
)

var pressModeNames = map[int]string{
	device.PressShort:     "short",
	device.PressShortLong: "short + long",
	device.PressToggleAB:  "toggle A/B",
	device.PressGroupLED:  "group LED",
}

func pressModeName(mode int) string {
	if name, ok := pressModeNames[mode]; ok {
		return name
	}
	return fmt.Sprintf("mode %d", mode)
}

// renderMain renders the editor screen.
func (m Model) renderMain() string {
	styles := m.theme.Styles()

	if m.loading {
		msg := styles.MutedText.Render(m.spinner.View() + " Loading device...")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
	}
	if m.loadErr != nil && !m.snapshot.Loaded {
		msg := styles.DangerText.Render("Load failed: "+m.loadErr.Error()) + "\n" +
			styles.FaintText.Render("q: Quit")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
	}

	sections := []string{
		m.renderHeader(),
		m.renderBankBar(),
		m.renderSwitchGrid(),
		m.renderPanes(),
	}
	if m.field != nil {
		sections = append(sections, m.renderField())
	}
	sections = append(sections, m.renderStatusLine())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{
		bg.Render("footctl", styles.Logo),
		bg.Render(fmt.Sprintf("Bank %d/%d", snap.Selection.Bank+1, snap.Meta.BankCount), styles.Text),
		bg.Render(snap.BankName(snap.Selection.Bank), styles.AccentText),
		m.badge(autosave.KeyLayout),
	}
	switch {
	case snap.IsOffline():
		parts = append(parts, styles.StatusStyle(stateOffline).Render(stateOffline))
	case snap.HasLive:
		parts = append(parts, styles.StatusStyle(stateLive).Render(fmt.Sprintf("hw bank %d", snap.LiveBank+1)))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

// renderBankBar shows the banks around the selection.
func (m Model) renderBankBar() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	count := len(snap.Layout.Banks)
	if count == 0 {
		return ""
	}

	cell := device.MaxBankName + 6
	visible := max(m.width/cell, 1)
	start := max(snap.Selection.Bank-visible/2, 0)
	end := min(start+visible, count)
	start = max(end-visible, 0)

	var cells []string
	for i := start; i < end; i++ {
		label := fmt.Sprintf("%d %s", i+1, snap.BankName(i))
		style := styles.MutedText
		if i == snap.Selection.Bank {
			style = styles.Selected
		}
		if snap.HasLive && i == snap.LiveBank {
			label += "*"
		}
		cells = append(cells, style.Width(cell-1).Render(truncate(label, cell-1)))
	}
	return strings.Join(cells, " ")
}

func (m Model) renderSwitchGrid() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	buttons := max(snap.Meta.Buttons, 0)

	cellWidth := device.MaxSwitchName + 6
	var rows []string
	var row []string
	for i := 0; i < buttons; i++ {
		border := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(m.theme.BorderMuted)).
			Width(cellWidth).
			Align(lipgloss.Center)
		label := styles.Text.Render(snap.SwitchName(i))
		if i == snap.Selection.Btn {
			border = border.BorderForeground(lipgloss.Color(m.theme.BorderFocus))
			label = styles.AccentText.Bold(true).Render(snap.SwitchName(i))
		}
		row = append(row, border.Render(fmt.Sprintf("%d\n%s", i+1, label)))
		if len(row) == SwitchGridColumns || i == buttons-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderPanes() string {
	panes := []struct {
		p      pane
		render func() string
	}{
		{paneSwitch, m.renderSwitchPane},
		{paneActions, m.renderActionsPane},
		{panePorts, m.renderPortsPane},
	}

	compact := m.width < LayoutCompactWidth
	width := m.width
	if !compact {
		width = m.width / len(panes)
	}

	boxes := make([]string, 0, len(panes))
	for _, p := range panes {
		content := p.render()
		height := lipgloss.Height(content) + 2
		boxes = append(boxes, renderBox(m.theme, p.p.String(), content, width, height, m.pane == p.p))
	}
	if compact {
		return lipgloss.JoinVertical(lipgloss.Left, boxes...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m Model) renderSwitchPane() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	btn := snap.Selection.Btn

	lines := []string{
		m.kv("Switch", fmt.Sprintf("%d %s", btn+1, snap.SwitchName(btn))) + " " + m.badge(autosave.KeyBank),
		m.kv("Press", pressModeName(snap.Button.PressMode)) + " " + m.badge(autosave.KeyButton),
	}
	if snap.Button.PressMode == device.PressToggleAB {
		lines = append(lines, m.kv("A/B LED", ternary(snap.Button.ABLed == 1, "B", "A")))
	}
	lines = append(lines,
		m.kv("LED", fmt.Sprintf("%d%%", snap.LED.Brightness))+" "+m.badge(autosave.KeyLED),
		"",
		styles.FaintText.Render("n rename  m mode  v A/B  +/- LED"),
	)
	return strings.Join(lines, "\n")
}

func (m Model) renderActionsPane() string {
	styles := m.theme.Styles()
	b := m.snapshot.Button

	header := m.listTabs(m.pane == paneActions, b.PressMode == device.PressShortLong || b.PressMode == device.PressToggleAB)
	actions := b.Short
	if m.pane == paneActions && m.list == editor.ListLong {
		actions = b.Long
	}
	lines := []string{header + " " + m.badge(autosave.KeyButton)}
	lines = append(lines, m.actionRows(actions, m.pane == paneActions)...)
	lines = append(lines, "", styles.FaintText.Render(fmt.Sprintf("%d/%d  a add  x remove  c cc/pc", len(actions), m.snapshot.Meta.MaxActions)))
	return strings.Join(lines, "\n")
}

// listTabs renders the short/long list selector.
func (m Model) listTabs(active, long bool) string {
	styles := m.theme.Styles()
	short := styles.MutedText.Render("short")
	longTab := styles.FaintText.Render("long")
	if long {
		longTab = styles.MutedText.Render("long")
	}
	if !active || m.list == editor.ListShort {
		short = styles.AccentText.Bold(true).Render("short")
	} else {
		longTab = styles.AccentText.Bold(true).Render("long")
	}
	return short + styles.FaintText.Render(" | ") + longTab
}

func (m Model) actionRows(actions []device.Action, active bool) []string {
	styles := m.theme.Styles()
	if len(actions) == 0 {
		return []string{styles.FaintText.Render("no actions")}
	}
	rows := make([]string, 0, len(actions))
	for i, a := range actions {
		cells := []string{
			a.Type,
			fmt.Sprintf("ch%d", a.Ch),
			fmt.Sprintf("%3d", a.A),
			fmt.Sprintf("%3d", a.B),
		}
		if a.Type == device.ActionPC {
			cells[colB] = "  -"
		}
		for c := range cells {
			style := styles.Text
			if active && i == m.row {
				style = styles.AccentText
				if c == m.col {
					style = styles.Selected
				}
			}
			cells[c] = style.Render(cells[c])
		}
		rows = append(rows, fmt.Sprintf("%2d ", i+1)+strings.Join(cells, " "))
	}
	return rows
}

func (m Model) renderPortsPane() string {
	styles := m.theme.Styles()
	cfg, ok := m.snapshot.Port(m.port)
	if !ok {
		return styles.FaintText.Render("no expfs ports")
	}

	lines := []string{
		m.kv("Port", fmt.Sprintf("%d/%d", m.port+1, len(m.snapshot.ExpFS))) + " " + m.badge(autosave.ExpFSKey(m.port)),
		m.kv("Kind", cfg.Kind),
	}

	if cfg.Kind == device.KindExp {
		in, _ := m.session.PortExp(m.port)
		cells := []string{
			in.Type,
			fmt.Sprintf("ch%d", in.Ch),
			ternary(in.Type == device.ActionPC, "  -", fmt.Sprintf("%3d", in.CC)),
			fmt.Sprintf("%3d", in.Val1),
			fmt.Sprintf("%3d", in.Val2),
		}
		for c := range cells {
			if m.pane == panePorts && c == m.col {
				cells[c] = styles.Selected.Render(cells[c])
			} else {
				cells[c] = styles.Text.Render(cells[c])
			}
		}
		lines = append(lines,
			strings.Join(cells, " "),
			m.kv("Range", fmt.Sprintf("%d..%d", cfg.CalMin, cfg.CalMax)),
		)
		if step := m.session.Calibration(m.port); step != editor.CalIdle {
			lines = append(lines, styles.WarningText.Render("Calibrate: "+step.String()+" (C)"))
		}
		lines = append(lines, "", styles.FaintText.Render("K kind  c cc/pc  C calibrate"))
		return strings.Join(lines, "\n")
	}

	sc := cfg.Tip
	if m.side == editor.SideRing {
		sc = cfg.Ring
	}
	if cfg.Kind == device.KindDual {
		lines = append(lines, m.kv("Side", ternary(m.side == editor.SideRing, "ring", "tip")))
	}
	lines = append(lines,
		m.kv("Press", pressModeName(sc.PressMode)),
		m.listTabs(m.pane == panePorts, sc.PressMode != device.PressShort),
	)
	actions := sc.Short
	if m.pane == panePorts && m.list == editor.ListLong {
		actions = sc.Long
	}
	lines = append(lines, m.actionRows(actions, m.pane == panePorts)...)
	lines = append(lines, "", styles.FaintText.Render("p port  K kind  w tip/ring"))
	return strings.Join(lines, "\n")
}

func (m Model) renderField() string {
	styles := m.theme.Styles()
	return styles.AccentText.Render(m.field.label+": ") + m.field.input.View() +
		styles.FaintText.Render("  enter: Done  esc: Leave")
}

func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	var parts []string
	if m.busy || m.session.Saving() {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText))
	}
	if m.status.Text != "" {
		style := styles.DangerText
		if m.status.OK {
			style = styles.SuccessText
		}
		parts = append(parts, bg.Render(m.status.Text, style))
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) kv(label, value string) string {
	styles := m.theme.Styles()
	return styles.MutedText.Render(padRight(label+":", 9)) + styles.Text.Render(value)
}

// saveState returns the badge state of a resource.
func (m Model) saveState(key autosave.Key) string {
	c, ok := m.session.Registry().Get(key)
	if !ok {
		return ""
	}
	switch {
	case c.Saving():
		return stateSaving
	case c.Dirty() && c.Err() != nil:
		return stateFailed
	case c.Dirty():
		return stateEditing
	}
	if at, ok := m.savedAt[key]; ok && time.Since(at) < SavedBadgeFor {
		return stateSaved
	}
	return stateClean
}

func (m Model) badge(key autosave.Key) string {
	st := m.saveState(key)
	if st == "" || st == stateClean {
		return ""
	}
	return m.theme.Styles().StatusStyle(st).Render(st)
}

// renderBox draws a bordered panel with the title set into the top border.
func renderBox(theme Theme, title, content string, width, height int, focused bool) string {
	if width < 4 || height < 2 {
		return content
	}
	color := theme.BorderMuted
	if focused {
		color = theme.BorderFocus
	}
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted))
	if focused {
		titleStyle = titleStyle.Foreground(lipgloss.Color(theme.Accent)).Bold(true)
	}

	inner := width - 2
	label := truncate(title, max(inner-4, 0))
	top := border.Render("╭─ ") + titleStyle.Render(label) + border.Render(" ")
	if fill := inner - 3 - lipgloss.Width(label); fill > 0 {
		top += border.Render(strings.Repeat("─", fill))
	}
	top += border.Render("╮")

	lines := strings.Split(content, "\n")
	body := make([]string, 0, height-2)
	line := lipgloss.NewStyle().Width(inner).MaxWidth(inner)
	for i := 0; i < height-2; i++ {
		text := ""
		if i < len(lines) {
			text = lines[i]
		}
		body = append(body, border.Render("│")+line.Render(text)+border.Render("│"))
	}
	bottom := border.Render("╰" + strings.Repeat("─", inner) + "╯")

	return top + "\n" + strings.Join(body, "\n") + "\n" + bottom
}
