// Package app is the composition root of footctl.
//
// Run loads configuration and preferences, opens the log file, builds the
// device client and the editor session, starts the live poller, and runs the
// TUI until the user quits. On the way out it flushes every pending edit to
// the device with a fresh deadline, so a Ctrl+C never drops an edit that the
// UI already showed as applied.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        config.toml + flag overrides
//	       ├─────> logging.New()        slog text log file
//	       ├─────> device.NewClient()   rate limited HTTP client
//	       ├─────> editor.New()         autosave coordinators + snapshot cache
//	       ├─────> StartPoller()        hardware bank follow
//	       └─────> ui.Run()             TUI (blocks)
//
// # Polling Behavior
//
// The poller calls Session.SyncLive at the configured interval. Failures
// double the delay up to 30 seconds; the snapshot counts consecutive
// failures so the UI can show the device as offline. The first success
// resets the cadence.
package app
