package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	// Base colors
	Background string // Outermost background
	Surface    string // Header and status line
	FocusBg    string // Log overlay

	// Selection colors
	SelectionBg   string
	SelectionText string

	// Border colors
	BorderMuted string
	BorderFocus string

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
	Offline string
}

// statusColor maps a save state onto the palette.
func (t Theme) statusColor(state string) string {
	switch state {
	case stateEditing:
		return t.Warning
	case stateSaving:
		return t.Accent
	case stateSaved:
		return t.Success
	case stateFailed:
		return t.Danger
	case stateOffline:
		return t.Offline
	case stateLive:
		return t.Info
	default:
		return t.Faint
	}
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Logo: fg(t.Warning).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		theme: t,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	// Text
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	// Components
	Logo     lipgloss.Style
	Selected lipgloss.Style

	theme Theme
}

// Save states shown as badges next to each resource.
const (
	stateClean   = "clean"
	stateEditing = "editing"
	stateSaving  = "saving"
	stateSaved   = "saved"
	stateFailed  = "failed"
	stateOffline = "offline"
	stateLive    = "live"
)

// StatusStyle returns a badge style for the given save state.
func (s Styles) StatusStyle(state string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Background)).
		Background(lipgloss.Color(s.theme.statusColor(state))).
		Padding(0, 1)
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Slate":    slateTheme(),
	"Paper":    paperTheme(),
}

var themeOrder = []string{"Nightfox", "Slate", "Paper"}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24", // bg0
		Surface:       "#192330", // bg1
		FocusBg:       "#29394f", // bg3
		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1
		BorderMuted:   "#39506d", // bg4
		BorderFocus:   "#719cd6", // blue
		Text:          "#cdcecf", // fg1
		Muted:         "#aeafb0", // fg2
		Faint:         "#738091", // comment
		Accent:        "#719cd6", // blue
		Success:       "#81b29a", // green
		Warning:       "#dbc074", // yellow
		Danger:        "#c94f6d", // red
		Info:          "#63cdcf", // cyan
		Offline:       "#f4a261", // orange
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name:          "Slate",
		Background:    "#020617", // slate-950
		Surface:       "#0f172a", // slate-900
		FocusBg:       "#1e293b", // slate-800
		SelectionBg:   "#0369a1", // sky-700
		SelectionText: "#f8fafc", // slate-50
		BorderMuted:   "#334155", // slate-700
		BorderFocus:   "#38bdf8", // sky-400
		Text:          "#f1f5f9", // slate-100
		Muted:         "#94a3b8", // slate-400
		Faint:         "#64748b", // slate-500
		Accent:        "#38bdf8", // sky-400
		Success:       "#4ade80", // green-400
		Warning:       "#fbbf24", // amber-400
		Danger:        "#f87171", // red-400
		Info:          "#22d3ee", // cyan-400
		Offline:       "#fb923c", // orange-400
	}
}

// paperTheme is for bright rooms and stage-side laptops.
func paperTheme() Theme {
	// Tailwind CSS Stone palette
	return Theme{
		Name:          "Paper",
		Background:    "#fafaf9", // stone-50
		Surface:       "#e7e5e4", // stone-200
		FocusBg:       "#f5f5f4", // stone-100
		SelectionBg:   "#1d4ed8", // blue-700
		SelectionText: "#ffffff",
		BorderMuted:   "#d6d3d1", // stone-300
		BorderFocus:   "#2563eb", // blue-600
		Text:          "#1c1917", // stone-900
		Muted:         "#57534e", // stone-600
		Faint:         "#a8a29e", // stone-400
		Accent:        "#1d4ed8", // blue-700
		Success:       "#15803d", // green-700
		Warning:       "#b45309", // amber-700
		Danger:        "#b91c1c", // red-700
		Info:          "#0e7490", // cyan-700
		Offline:       "#c2410c", // orange-700
	}
}
