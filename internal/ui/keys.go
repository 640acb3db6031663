package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the editor.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Logs       key.Binding

	// Banks
	PrevBank   key.Binding
	NextBank   key.Binding
	GotoBank   key.Binding
	AddBank    key.Binding
	DeleteBank key.Binding
	RenameBank key.Binding

	// Switches
	SelectSwitch key.Binding
	RenameSwitch key.Binding
	PressMode    key.Binding
	ABLed        key.Binding
	Brighter     key.Binding
	Dimmer       key.Binding

	// Actions
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	ToggleList key.Binding
	AddRow     key.Binding
	RemoveRow  key.Binding
	ToggleType key.Binding
	Edit       key.Binding

	// Ports
	NextPort   key.Binding
	PortKind   key.Binding
	ToggleSide key.Binding
	Calibrate  key.Binding

	// Logs
	ToggleFollow key.Binding
	LogLevel     key.Binding

	// Input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next pane"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous pane"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / cancel"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log overlay"),
		),

		PrevBank: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous bank"),
		),
		NextBank: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next bank"),
		),
		GotoBank: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Go to bank"),
		),
		AddBank: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Insert bank"),
		),
		DeleteBank: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Delete bank"),
		),
		RenameBank: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Rename bank"),
		),

		SelectSwitch: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8"),
			key.WithHelp("1-8", "Select switch"),
		),
		RenameSwitch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Rename switch"),
		),
		PressMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Cycle press mode"),
		),
		ABLed: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Toggle A/B LED"),
		),
		Brighter: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "LED brighter"),
		),
		Dimmer: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "LED dimmer"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Previous column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Next column"),
		),
		ToggleList: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Short/long list"),
		),
		AddRow: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add action"),
		),
		RemoveRow: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Remove action"),
		),
		ToggleType: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Toggle cc/pc"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "Edit field"),
		),

		NextPort: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Next port"),
		),
		PortKind: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "Cycle port kind"),
		),
		ToggleSide: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Tip/ring"),
		),
		Calibrate: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Calibration step"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		LogLevel: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle level filter"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevBank, k.NextBank, k.SelectSwitch, k.Tab, k.Edit, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevBank, k.NextBank, k.GotoBank, k.AddBank, k.DeleteBank, k.RenameBank},
		{k.SelectSwitch, k.RenameSwitch, k.PressMode, k.ABLed, k.Brighter, k.Dimmer},
		{k.Up, k.Down, k.Left, k.Right, k.ToggleList, k.AddRow, k.RemoveRow, k.ToggleType, k.Edit},
		{k.NextPort, k.PortKind, k.ToggleSide, k.Calibrate},
		{k.Tab, k.Logs, k.CycleTheme, k.Help, k.Quit},
	}
}
