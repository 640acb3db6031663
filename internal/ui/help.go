package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	k := m.keys
	sections := []helpSection{
		{title: "Banks", bindings: []key.Binding{k.PrevBank, k.NextBank, k.GotoBank, k.AddBank, k.DeleteBank, k.RenameBank}},
		{title: "Switch", bindings: []key.Binding{k.SelectSwitch, k.RenameSwitch, k.PressMode, k.ABLed, k.Brighter, k.Dimmer}},
		{title: "Actions", bindings: []key.Binding{k.Up, k.Down, k.Left, k.Right, k.ToggleList, k.AddRow, k.RemoveRow, k.ToggleType, k.Edit}},
		{title: "Ports", bindings: []key.Binding{k.NextPort, k.PortKind, k.ToggleSide, k.Calibrate}},
		{title: "Logs", bindings: []key.Binding{k.Logs, k.ToggleFollow, k.LogLevel}},
		{title: "General", bindings: []key.Binding{k.Tab, k.CycleTheme, k.Help, k.Quit}},
	}

	// Build help content
	var b strings.Builder

	// Title
	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("â”€", 30)))
	b.WriteString("\n\n")

	for i, section := range sections {
		// Section title
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, binding := range section.bindings {
			h := binding.Help()
			// Key
			keyStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Warning)).
				Width(12)
			b.WriteString(keyStyle.Render(h.Key))
			// Description
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	// Build the modal
	content := b.String()

	// Calculate modal dimensions
	modalWidth := 40

	// Modal style
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(modalWidth)

	// Center the modal
	modalContent := modal.Render(content)

	// Create overlay
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title    string
	bindings []key.Binding
}
