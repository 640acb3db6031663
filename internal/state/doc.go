// Package state provides the resource snapshot cache shared by the editor,
// the live poller and the UI.
//
// # Overview
//
// The Store holds the last loaded-or-edited value of every resource the editor
// works on: hardware limits, bank layout, the current bank's switch names, the
// selected switch's mapping, LED brightness and one config per expfs port. It
// also records the live hardware bank reported by the poller.
//
// # Concurrency Model
//
// The Store uses a readers-writer lock:
//
//   - Set*/Update*: acquire the write lock
//   - Snapshot and the single-resource getters: acquire the read lock
//
// Save loops read the cache from their own goroutines while edit handlers
// mutate it from the UI goroutine. Update* applies a mutation function under
// the lock so read-modify-write edits cannot interleave.
//
// # Defensive Copying
//
// Every getter and Update* result is a deep copy. A save payload built from a
// copy is therefore stable even if the user keeps typing while the request is
// on the wire; the coordinator's version check, not the payload, decides
// whether another save is needed.
//
// # Load Semantics
//
// Set* overwrites unconditionally (last load wins). A load that races a
// pending local edit would clobber it, so the editor flushes before loading.
//
// # Live State
//
// UpdateLive follows the poll error convention:
//
//	store.UpdateLive(&live, nil) // success: record bank, reset failures
//	store.UpdateLive(nil, err)   // failure: keep bank, count failure
//
// IsOffline reports true after two consecutive failures.
package state
