// Package ui provides the terminal editor for the footswitch controller.
//
// The interface is a Bubble Tea program. Model owns cursor and overlay state
// and renders from state.Snapshot copies taken from the editor.Session after
// every tick, key press, and autosave event. Edits call the session directly;
// calls that block on the device (load, bank navigation, insert and delete,
// calibration) run as tea.Cmds and report back with opDoneMsg.
//
// Text and number fields apply every keystroke to the session and register
// their commit with the autosave registry while focused, so a flush started
// elsewhere commits the half-typed value first.
//
// # Views
//
//   - Main: bank bar, switch grid, and the Switch, Actions and Ports panes
//   - Help: key reference overlay
//   - Logs: tail of the application log with a level filter
//
// Each resource shows a save badge (editing, saving, saved, failed) read from
// its autosave coordinator.
package ui
