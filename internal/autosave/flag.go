package autosave

// Flag is the versioned dirty flag of one resource. Version strictly increases
// on every edit and is only ever compared for equality.
//
// Flag is not safe for concurrent use; a Coordinator guards it.
type Flag struct {
	dirty   bool
	version uint64
}

// Mark records an edit.
func (f *Flag) Mark() {
	f.dirty = true
	f.version++
}

// Dirty reports whether there are edits not yet confirmed persisted.
func (f *Flag) Dirty() bool { return f.dirty }

// Version returns the edit counter.
func (f *Flag) Version() uint64 { return f.version }

// ClearIf marks the flag clean when no edit happened since observed was
// captured. It reports whether the flag is now clean.
func (f *Flag) ClearIf(observed uint64) bool {
	if f.version != observed {
		return false
	}
	f.dirty = false
	return true
}

// Reset marks the flag clean without touching the version, used after a
// fresh load replaces the snapshot.
func (f *Flag) Reset() {
	f.dirty = false
}
