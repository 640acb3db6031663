// Package editor implements an editing session against a foot controller.
//
// A Session pairs the snapshot cache (internal/state) with one autosave
// coordinator per resource: the selected button map, the bank layout, the
// current bank's switch names, the LED brightness and each expression or
// footswitch port. Edit methods mutate the cache and pick the save cadence:
//
//   - text and number fields (bank name, switch name, action columns, pedal
//     values) mark the resource dirty and save when the field is committed
//   - structural edits (press mode, add/remove row, cc/pc, port kind) save at
//     once
//   - the brightness slider saves after it has been idle for the debounce
//     delay
//
// Anything that replaces the snapshot being edited (bank or switch changes,
// bank insertion and deletion, following the hardware's bank) flushes every
// resource first. Flush failures land on the status line and never block the
// navigation.
//
// SyncLive polls the hardware's active bank and follows it unless the user
// navigated within the grace period. The calibration wizard walks an
// expression pedal through its top and bottom positions.
package editor
