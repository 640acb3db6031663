// Package autosave coordinates background saves of independently persisted
// resources.
//
// # Overview
//
// Each resource (a button mapping, the bank layout, a port config...) gets a
// Coordinator holding a versioned dirty flag. Edits bump the version; a trigger
// starts a save loop on its own goroutine:
//
//	for {
//		v := version
//		persist()            // reads the current snapshot
//		if failed: stop, stay dirty
//		if version == v: clean, stop
//		// otherwise an edit landed mid-flight: go again
//	}
//
// Many edits made during one round trip therefore collapse into a single
// additional save, and a stale success never clears the flag.
//
// # Cadences
//
// Text and number fields call OnEdit on every keystroke and OnCommit when the
// user leaves the field or presses Enter. Continuous controls call OnEdit and
// CommitAfterIdle, which commits once the control has been idle for the
// coordinator's debounce delay. Structural edits (adding a row, changing a
// mode) call SaveNow.
//
// # Flush
//
// Registry.FlushAll is the barrier used before anything replaces the snapshot
// being edited: it commits the focused field, waits for every running loop and
// saves whatever is still dirty. Failures are joined and returned, and callers
// continue with the navigation regardless.
//
// # Failures
//
// A failed persist stops the loop and leaves the resource dirty. Nothing retries
// in the background; the next commit, structural edit or flush does.
//
// # Events
//
// Registry.Events delivers editing/saving/saved/failed transitions for the
// status line. Delivery never blocks a save loop.
package autosave
