// Package logtail reads the tail of footctl's log file for the in-app log
// overlay.
//
// Read uses a ring buffer so only the last N lines are kept in memory no
// matter how large the file has grown. Parse splits lines written by slog's
// text handler (time=... level=... msg="..." key=value ...) into an Entry so
// the overlay can color by level and show attributes such as resource and
// request_id. Lines that are not in that form (panics, stray output) are kept
// as plain messages.
package logtail
