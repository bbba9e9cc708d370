// Package audioio implements the AudioCallback: the real-time,
// single-threaded, non-blocking entry point invoked by the host audio
// driver once per block (spec §4.5).
package audioio

import (
	"github.com/herostudio/engine/clock"
	"github.com/herostudio/engine/internal/diag"
	"github.com/herostudio/engine/internal/envelope"
	"github.com/herostudio/engine/internal/midiio"
)

// Result is the disposition the host driver adapter should act on after a
// Callback invocation.
type Result int

const (
	// Continue means the stream should keep running.
	Continue Result = iota
	// Complete means a Stop was observed and the stream should halt.
	Complete
)

// ToWorker is the message the callback forwards to the StudioWorker after
// consuming an envelope: the captured input plus the buffer being returned
// for reuse.
type ToWorker struct {
	Time           int64 // host input timestamp, opaque to the worker
	Input          *envelope.AudioBuffer
	ReleasedOutput *envelope.AudioBuffer
}

// Callback is the AudioCallback component. It holds no locks and performs
// no syscalls beyond the non-blocking channel operations below; every
// field it touches per-block is either immutable after construction or
// reached only through try-operations on channels.
type Callback struct {
	fromWorker <-chan *envelope.WorkEnvelope
	toWorker   chan<- ToWorker
	toMidiIo   chan<- *midiio.Output
	stopCh     <-chan struct{}

	diag *diag.Counters

	outChannels int
	inChannels  int
}

// New builds a Callback. fromWorker delivers pre-computed envelopes,
// toWorker returns consumed input + released output buffers, toMidiIo
// forwards MIDI for transmission, and stopCh is closed once to signal
// shutdown.
func New(
	fromWorker <-chan *envelope.WorkEnvelope,
	toWorker chan<- ToWorker,
	toMidiIo chan<- *midiio.Output,
	stopCh <-chan struct{},
	inChannels, outChannels int,
	d *diag.Counters,
) *Callback {
	return &Callback{
		fromWorker:  fromWorker,
		toWorker:    toWorker,
		toMidiIo:    toMidiIo,
		stopCh:      stopCh,
		diag:        d,
		inChannels:  inChannels,
		outChannels: outChannels,
	}
}

// Process is invoked by the host driver adapter once per block. frames is
// the number of sample frames in this block; in holds frames*inChannels
// interleaved input samples; out must be filled with frames*outChannels
// interleaved output samples; inTime/outTime are the driver-reported host
// timestamps for the start of input/output capture, in nanoseconds.
func (c *Callback) Process(frames int, in, out []float32, inTime, outTime int64) Result {
	select {
	case <-c.stopCh:
		return Complete
	default:
	}

	var env *envelope.WorkEnvelope
	select {
	case e, ok := <-c.fromWorker:
		if !ok {
			return c.underrun(out)
		}
		env = e
	default:
		return c.underrun(out)
	}

	n := frames * c.outChannels
	if n > len(env.AudioOut.Samples) {
		n = len(env.AudioOut.Samples)
	}
	copy(out[:n], env.AudioOut.Samples[:n])

	ni := frames * c.inChannels
	if ni > len(env.AudioIn.Samples) {
		ni = len(env.AudioIn.Samples)
	}
	copy(env.AudioIn.Samples[:ni], in[:ni])

	select {
	case c.toMidiIo <- &midiio.Output{Time: clock.Time(outTime), Vec: env.MidiOut}:
	default:
		c.diag.IncMidiIoQueueFull()
	}

	select {
	case c.toWorker <- ToWorker{Time: inTime, Input: env.AudioIn, ReleasedOutput: env.AudioOut}:
	default:
		c.diag.IncAudioQueueFull()
	}

	return Continue
}

func (c *Callback) underrun(out []float32) Result {
	clear(out)
	c.diag.IncXrun()
	return Continue
}
