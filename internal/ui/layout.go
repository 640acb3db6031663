package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which panes stack vertically.
	LayoutCompactWidth = 100

	// SwitchGridColumns is the number of switch cells per row.
	SwitchGridColumns = 4
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines read from the file.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = 250 * time.Millisecond

	// SavedBadgeFor is how long a resource shows "saved" after a save lands.
	SavedBadgeFor = 2 * time.Second
)
