// Package diag holds the real-time-safe diagnostic counters the audio,
// worker and MidiIo threads increment instead of propagating errors (spec
// §7: transient real-time conditions are recorded, never returned). Logging
// destinations are out of scope (spec §1); this package only wraps the
// standard library logger, matching the teacher's exclusive use of stdlib
// log.
package diag

import (
	"log"
	"sync/atomic"
)

// Counters aggregates the engine's xrun and drop counters. All increments
// are lock-free so they are safe to call from the audio callback.
type Counters struct {
	logger *log.Logger

	xruns           atomic.Uint64
	outOfBuffers    atomic.Uint64
	audioQueueFull  atomic.Uint64
	midiIoQueueFull atomic.Uint64
	workerQueueFull atomic.Uint64
	endpointMissing atomic.Uint64
	midiSendFailed  atomic.Uint64
	midiOpenFailed  atomic.Uint64
}

// New builds a Counters that logs through logger. A nil logger disables
// logging but counters still increment.
func New(logger *log.Logger) *Counters {
	return &Counters{logger: logger}
}

func (c *Counters) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// IncXrun records an audio-thread underrun: the callback had no envelope to
// consume and produced silence.
func (c *Counters) IncXrun() {
	c.xruns.Add(1)
}

// IncOutOfBuffers records the StudioWorker failing to acquire a buffer from
// one of its pools.
func (c *Counters) IncOutOfBuffers() {
	n := c.outOfBuffers.Add(1)
	c.logf("studio: out of buffers (count=%d)", n)
}

// IncAudioQueueFull records a dropped send on the worker->callback queue.
func (c *Counters) IncAudioQueueFull() {
	c.audioQueueFull.Add(1)
}

// IncMidiIoQueueFull records a dropped send on the callback->MidiIo queue.
func (c *Counters) IncMidiIoQueueFull() {
	c.midiIoQueueFull.Add(1)
}

// IncWorkerQueueFull records a dropped send on a queue back to the worker.
func (c *Counters) IncWorkerQueueFull() {
	c.workerQueueFull.Add(1)
}

// IncEndpointMissing records an IoVec entry referencing a removed or
// never-registered endpoint id.
func (c *Counters) IncEndpointMissing() {
	n := c.endpointMissing.Add(1)
	c.logf("midiio: endpoint missing (count=%d)", n)
}

// IncMidiSendFailed records a driver rejecting a send call.
func (c *Counters) IncMidiSendFailed() {
	n := c.midiSendFailed.Add(1)
	if n%100 == 1 {
		c.logf("midiio: send failed (count=%d)", n)
	}
}

// IncMidiOpenFailed records a driver failing to open a destination during
// endpoint churn.
func (c *Counters) IncMidiOpenFailed() {
	n := c.midiOpenFailed.Add(1)
	c.logf("midiio: open failed (count=%d)", n)
}

// Snapshot is a point-in-time read of every counter, for tests and
// diagnostics reporting.
type Snapshot struct {
	Xruns           uint64
	OutOfBuffers    uint64
	AudioQueueFull  uint64
	MidiIoQueueFull uint64
	WorkerQueueFull uint64
	EndpointMissing uint64
	MidiSendFailed  uint64
	MidiOpenFailed  uint64
}

// Snapshot returns the current value of every counter.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Xruns:           c.xruns.Load(),
		OutOfBuffers:    c.outOfBuffers.Load(),
		AudioQueueFull:  c.audioQueueFull.Load(),
		MidiIoQueueFull: c.midiIoQueueFull.Load(),
		WorkerQueueFull: c.workerQueueFull.Load(),
		EndpointMissing: c.endpointMissing.Load(),
		MidiSendFailed:  c.midiSendFailed.Load(),
		MidiOpenFailed:  c.midiOpenFailed.Load(),
	}
}
