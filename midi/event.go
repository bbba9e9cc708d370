package midi

import "github.com/herostudio/engine/clock"

// Event is a single timestamped MIDI message. Timestamp is an offset from
// the containing buffer's base time, not an absolute wall-clock time.
type Event struct {
	Timestamp clock.Time
	Message   Message
}

// Buffer is an append-only (between Reset calls) ordered sequence of
// Events. It is one of the three pooled item types (alongside audio buffers
// and IoVecs) that the StudioWorker hands to the AudioCallback without
// allocating.
type Buffer struct {
	events []Event
}

// NewBuffer allocates a Buffer with room for capacity Events before it must
// grow. Used only during pool warm-up (Pool.AcquireOrAlloc), never on the
// audio path.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{events: make([]Event, 0, capacity)}
}

// Append adds an event to the end of the buffer. Callers are responsible
// for appending in non-decreasing timestamp order, per the ordering
// guarantee in spec §4.3/§5.
func (b *Buffer) Append(e Event) {
	b.events = append(b.events, e)
}

// Events returns the buffer's events in append order. The returned slice
// aliases the buffer's storage and is invalidated by the next Reset.
func (b *Buffer) Events() []Event {
	return b.events
}

// Len returns the number of events currently in the buffer.
func (b *Buffer) Len() int { return len(b.events) }

// Reset empties the buffer for reuse, retaining its underlying storage.
// This is the reset function a pool.Pool[Buffer] is configured with.
func (b *Buffer) Reset() {
	b.events = b.events[:0]
}
