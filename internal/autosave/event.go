package autosave

import (
	"sync"
	"time"
)

// EventKind classifies a coordinator transition.
type EventKind int

const (
	// EventEditing fires when a clean resource receives its first edit.
	EventEditing EventKind = iota
	// EventSaving fires before each persist attempt.
	EventSaving
	// EventSaved fires when a loop converges and the resource is clean.
	EventSaved
	// EventFailed fires when a persist attempt fails and the loop stops.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventEditing:
		return "editing"
	case EventSaving:
		return "saving"
	case EventSaved:
		return "saved"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports a state change of one resource.
type Event struct {
	Key  Key
	Kind EventKind
	Err  error
	At   time.Time
}

const eventBufferSize = 64

// bus delivers events to a single consumer without ever blocking a save loop.
// When the consumer falls behind, events are dropped.
type bus struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func newBus() *bus {
	return &bus{ch: make(chan Event, eventBufferSize)}
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- ev:
	default:
	}
}

func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}
