// Package device provides an HTTP client for the foot controller's
// configuration API.
//
// # Overview
//
// The controller runs a small HTTP server (by default on its access point
// address 192.168.4.1). Every editable resource is exposed as a GET/POST pair
// that reads or replaces the whole resource:
//
//   - GET /api/meta: hardware limits (buttons, max banks, max actions, ports)
//   - GET/POST /api/layout: bank count and bank names
//   - GET/POST /api/bank?bank=N: per-bank switch labels
//   - GET/POST /api/button?bank=N&btn=M: one switch's MIDI mapping
//   - GET/POST /api/led: global LED brightness
//   - GET/POST /api/expfs?port=P: expression/footswitch jack configuration
//   - POST /api/expfs_cal?port=P&which=min|max: store a calibration point
//   - GET/POST /api/state: the bank the hardware is currently on
//
// POSTs answer {"ok":true}. Failures answer a non-2xx status with a short
// plain-text reason ("bank invalid", "layout invalid") which the client returns
// verbatim as a *TransportError so the editor can show it unchanged.
//
// # Architecture
//
//   - client.go: Client, the Remote interface, request plumbing
//   - types.go: wire structures and deep-copy helpers
//   - normalize.go: load-side defaults and save-side payload shaping
//   - errors.go: TransportError
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Pass through a token-bucket limiter so bursts of autosaves cannot
//     overwhelm the device
//   - Carry an X-Request-ID header (logged on both sides)
//   - Are logged at debug level with status and elapsed time
//
// # Identity
//
// Indexed resources (bank names, button maps, expfs ports) record the index they
// were loaded for in a field that is not serialized. Saves take the index from
// the snapshot, never from "whatever is selected now", so a save started before
// a navigation still lands on the resource that was edited.
//
// # Normalization
//
// The firmware may hand back partially initialized state. NormalizeLayout,
// NormalizeBankNames, NormalizeButton and NormalizeExpFS fill empty lists,
// clamp scalars and clip names (bank 10 runes, switch 5 runes). The *Payload
// helpers apply the rules the firmware enforces on write, so a save never
// carries fields the selected press mode ignores.
package device
