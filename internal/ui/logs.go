package ui

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/footctl/internal/logtail"
)

// Level filters cycled with the LogLevel key.
var logLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// logState holds the log overlay state.
type logState struct {
	entries  []logtail.Entry
	follow   bool
	minLevel string
	err      error
	viewport viewport.Model

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

func newLogState() logState {
	return logState{
		follow:   true,
		minLevel: "DEBUG",
		viewport: viewport.New(0, 0),
	}
}

// logsMsg carries the tail of the log file.
type logsMsg struct {
	lines []string
	err   error
}

// refreshLogs reads the log file off the UI loop.
func (m Model) refreshLogs() tea.Cmd {
	path := ""
	if m.config != nil {
		path = m.config.LogFile
	}
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, LogBufferLimit)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		return logsMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.entries = logtail.ParseLines(msg.lines)
	}
	m.logState.contentVersion++
	m.updateLogViewport()
}

// updateLogViewport sizes the viewport and re-renders changed content.
func (m *Model) updateLogViewport() {
	vp := &m.logState.viewport
	// Box inner = height minus borders and the status line.
	vp.Width = max(m.width-4, 0)
	vp.Height = max(m.height-3, 0)
	vp.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.lastRendered != m.logState.contentVersion || m.logState.lastRendered == 0 {
		vp.SetContent(m.renderLogContent())
		m.logState.lastRendered = max(m.logState.contentVersion, 1)
	}
	if m.logState.follow {
		vp.GotoBottom()
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logs), key.Matches(msg, m.keys.Escape):
		m.showLogs = false
		return m, nil
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		m.updateLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.LogLevel):
		m.logState.minLevel = nextLevel(m.logState.minLevel)
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.logState.viewport, cmd = m.logState.viewport.Update(msg)
	if !m.logState.viewport.AtBottom() {
		m.logState.follow = false
	}
	return m, cmd
}

func nextLevel(level string) string {
	for i, l := range logLevels {
		if l == level {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// renderLogs renders the log overlay.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	title := "Log"
	if m.logState.minLevel != logLevels[0] {
		title = fmt.Sprintf("Log (%s+)", strings.ToLower(m.logState.minLevel))
	}
	box := renderBox(m.theme, title, m.logState.viewport.View(), m.width, m.height-1, true)

	autoTail := "off"
	if m.logState.follow {
		autoTail = "on"
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d lines auto-tail %s", len(m.logState.entries), autoTail), styles.FaintText),
	}
	if m.config != nil {
		parts = append(parts, bg.Render(truncate(m.config.LogFile, 60), styles.AccentText))
	}
	if m.logState.err != nil {
		parts = append(parts, bg.Render(m.logState.err.Error(), styles.DangerText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return box + "\n" + bg.FillLine(strings.Join(parts, sep), m.width)
}

// renderLogContent colorizes the filtered entries.
func (m *Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logState.viewport.Width

	entries := logtail.Filter(m.logState.entries, m.logState.minLevel)
	if len(entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	var b strings.Builder
	for i, e := range entries {
		b.WriteString(bg.FillLine(m.colorizeEntry(e, styles, bg), width))
		if i < len(entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) colorizeEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if e.Level == "" {
		return bg.Render(e.Raw, styles.Text)
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(bg.Render(e.Time.Local().Format("15:04:05.000"), styles.FaintText))
		b.WriteString(bg.Space())
	}
	b.WriteString(bg.Render(padRight(e.Level, 5), levelStyle(e.Level, styles).Bold(true)))
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(e.Message, styles.Text))
	for _, a := range e.Attrs {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(a.Key+"=", styles.FaintText))
		b.WriteString(bg.Render(a.Value, styles.MutedText))
	}
	return b.String()
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}
