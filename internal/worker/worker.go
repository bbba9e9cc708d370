// Package worker implements the StudioWorker: the non-realtime,
// cooperative single thread that runs Transport+Song+Metronome and fills
// the next block's WorkEnvelope (spec §4.6).
package worker

import (
	"github.com/herostudio/engine/clock"
	"github.com/herostudio/engine/internal/audioio"
	"github.com/herostudio/engine/internal/diag"
	"github.com/herostudio/engine/internal/envelope"
	"github.com/herostudio/engine/internal/pool"
	"github.com/herostudio/engine/metronome"
	"github.com/herostudio/engine/midi"
	"github.com/herostudio/engine/song"
	"github.com/herostudio/engine/transport"
)

// Pools bundles the three pool specializations the worker owns: audio
// buffers (shared by audio_in and audio_out, per spec §4.6), MIDI buffers
// and MIDI IoVecs.
type Pools struct {
	AudioBuffers *pool.Pool[envelope.AudioBuffer]
	MidiBuffers  *pool.Pool[midi.Buffer]
	MidiIoVecs   *pool.Pool[midi.IoVec]
}

// NewPools builds the three pools from config-provided capacities.
func NewPools(audioPoolCap, audioItemCap, midiPoolCap, midiItemCap, iovecPoolCap, iovecItemCap int) *Pools {
	return &Pools{
		AudioBuffers: pool.New(audioPoolCap,
			func() *envelope.AudioBuffer { return &envelope.AudioBuffer{Samples: make([]float32, audioItemCap)} },
			func(b *envelope.AudioBuffer) { b.Reset() },
		),
		MidiBuffers: pool.New(midiPoolCap,
			func() *midi.Buffer { return midi.NewBuffer(midiItemCap) },
			func(b *midi.Buffer) { b.Reset() },
		),
		MidiIoVecs: pool.New(iovecPoolCap,
			func() *midi.IoVec { return midi.NewIoVec(iovecItemCap) },
			func(v *midi.IoVec) { v.Reset() },
		),
	}
}

// in messages the worker's Run loop dispatches on.
type inputKind int

const (
	msgAudioInput inputKind = iota
	msgMidiReleased
	msgMidiInitialised
	msgStop
)

type inMsg struct {
	kind inputKind

	audioInput audioio.ToWorker
	midiIoVec  *midi.IoVec
}

// Worker is the StudioWorker component.
type Worker struct {
	transport *transport.Transport
	metronome *metronome.Metronome
	song      song.Processor
	pools     *Pools
	diag      *diag.Counters

	toCallback chan<- *envelope.WorkEnvelope
	input      chan inMsg
	done       chan struct{}

	stopCallback func()
	stopMidiIo   func()

	sampleRate clock.SampleRate
	frames     int

	masterClock clock.Time
}

// Config bundles the wiring a Worker needs at construction.
type Config struct {
	Transport    *transport.Transport
	Metronome    *metronome.Metronome
	Song         song.Processor
	Pools        *Pools
	Diag         *diag.Counters
	ToCallback   chan<- *envelope.WorkEnvelope
	InputCap     int
	StopCallback func()
	StopMidiIo   func()
	SampleRate   clock.SampleRate
	Frames       int
}

// New builds a Worker from cfg.
func New(cfg Config) *Worker {
	return &Worker{
		transport:    cfg.Transport,
		metronome:    cfg.Metronome,
		song:         cfg.Song,
		pools:        cfg.Pools,
		diag:         cfg.Diag,
		toCallback:   cfg.ToCallback,
		input:        make(chan inMsg, cfg.InputCap),
		done:         make(chan struct{}),
		stopCallback: cfg.StopCallback,
		stopMidiIo:   cfg.StopMidiIo,
		sampleRate:   cfg.SampleRate,
		frames:       cfg.Frames,
	}
}

// NotifyAudioInput delivers a callback->worker AudioInput message.
func (w *Worker) NotifyAudioInput(msg audioio.ToWorker) {
	w.send(inMsg{kind: msgAudioInput, audioInput: msg})
}

// NotifyMidiReleased delivers a MidiIo->worker MidiReleased message.
func (w *Worker) NotifyMidiReleased(v *midi.IoVec) {
	w.send(inMsg{kind: msgMidiReleased, midiIoVec: v})
}

// NotifyMidiInitialised tells the worker MidiIo is ready, triggering the
// initial priming envelopes.
func (w *Worker) NotifyMidiInitialised() {
	w.send(inMsg{kind: msgMidiInitialised})
}

// Stop requests the worker forward Stop to the callback and MidiIo, then
// exit.
func (w *Worker) Stop() {
	w.send(inMsg{kind: msgStop})
}

func (w *Worker) send(m inMsg) {
	select {
	case w.input <- m:
	default:
		w.diag.IncWorkerQueueFull()
	}
}

// Done is closed once the worker's Run loop has exited.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run is the worker's main loop: block on input, dispatch, exit on Stop.
func (w *Worker) Run() {
	defer close(w.done)
	for m := range w.input {
		switch m.kind {
		case msgAudioInput:
			w.pools.AudioBuffers.Release(m.audioInput.Input)
			w.pools.AudioBuffers.Release(m.audioInput.ReleasedOutput)
			w.processNext()
		case msgMidiReleased:
			for _, e := range m.midiIoVec.Entries() {
				if e.Buffer != nil {
					w.pools.MidiBuffers.Release(e.Buffer)
				}
			}
			w.pools.MidiIoVecs.Release(m.midiIoVec)
		case msgMidiInitialised:
			w.processNext()
			w.processNext()
		case msgStop:
			w.stopCallback()
			w.stopMidiIo()
			return
		}
	}
}

// processNext builds the next WorkEnvelope and sends it to the callback, or
// records an out-of-buffers diagnostic and skips (the next callback
// underruns) if any pool is exhausted.
func (w *Worker) processNext() {
	audioIn, ok := w.pools.AudioBuffers.Acquire()
	if !ok {
		w.diag.IncOutOfBuffers()
		return
	}
	audioOut, ok := w.pools.AudioBuffers.Acquire()
	if !ok {
		w.pools.AudioBuffers.Release(audioIn)
		w.diag.IncOutOfBuffers()
		return
	}
	midiOut, ok := w.pools.MidiIoVecs.Acquire()
	if !ok {
		w.pools.AudioBuffers.Release(audioIn)
		w.pools.AudioBuffers.Release(audioOut)
		w.diag.IncOutOfBuffers()
		return
	}

	metronomeBuf, ok := w.pools.MidiBuffers.Acquire()
	if !ok {
		w.pools.AudioBuffers.Release(audioIn)
		w.pools.AudioBuffers.Release(audioOut)
		w.pools.MidiIoVecs.Release(midiOut)
		w.diag.IncOutOfBuffers()
		return
	}

	it := w.transport.SegmentsIterator(w.masterClock, w.frames)
	for {
		seg, ok := it.Next()
		if !ok {
			break
		}
		w.metronome.ProcessSegment(seg, metronomeBuf)
		w.song.ProcessSegment(seg, metronomeBuf)
		w.masterClock = seg.MasterClock + seg.ClockDuration
	}
	w.transport.UpdateFromSegments(it)

	midiOut.Push(midi.IoVecEntry{Endpoint: w.metronome.Endpoint(), Buffer: metronomeBuf})

	env := &envelope.WorkEnvelope{AudioIn: audioIn, MidiOut: midiOut, AudioOut: audioOut}

	select {
	case w.toCallback <- env:
	default:
		w.diag.IncAudioQueueFull()
		w.pools.AudioBuffers.Release(audioIn)
		w.pools.AudioBuffers.Release(audioOut)
		w.pools.MidiIoVecs.Release(midiOut)
	}
}
