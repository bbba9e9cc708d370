package worker

import (
	"log"
	"testing"
	"time"

	"github.com/herostudio/engine/clock"
	"github.com/herostudio/engine/internal/audioio"
	"github.com/herostudio/engine/internal/diag"
	"github.com/herostudio/engine/internal/envelope"
	"github.com/herostudio/engine/metronome"
	"github.com/herostudio/engine/midi"
	"github.com/herostudio/engine/song"
	"github.com/herostudio/engine/transport"
)

const testFrames = 64

func newTestWorker(t *testing.T, toCallback chan *envelope.WorkEnvelope, audioPoolCap int) (*Worker, *diag.Counters) {
	sig := clock.Signature{NumBeats: 4, NoteValue: 4}
	xport := transport.New(sig, 120, 44100)
	xport.Play(true)
	metro := metronome.New(metronome.Config{Enabled: false}, sig)
	counters := diag.New(log.Default())
	pools := NewPools(audioPoolCap, testFrames*2, 2, 8, 2, 4)

	w := New(Config{
		Transport:    xport,
		Metronome:    metro,
		Song:         song.NullProcessor{},
		Pools:        pools,
		Diag:         counters,
		ToCallback:   toCallback,
		InputCap:     8,
		StopCallback: func() {},
		StopMidiIo:   func() {},
		SampleRate:   44100,
		Frames:       testFrames,
	})
	return w, counters
}

func TestMidiInitialisedPrimesTwoEnvelopes(t *testing.T) {
	toCallback := make(chan *envelope.WorkEnvelope, 4)
	// Each primed envelope consumes 2 audio buffers (in+out); a pool of 4
	// covers both of NotifyMidiInitialised's two primes.
	w, counters := newTestWorker(t, toCallback, 4)

	go w.Run()
	w.NotifyMidiInitialised()
	w.Stop()
	<-w.Done()

	if len(toCallback) != 2 {
		t.Fatalf("expected 2 primed envelopes on the callback channel, got %d", len(toCallback))
	}
	if got := counters.Snapshot().OutOfBuffers; got != 0 {
		t.Errorf("expected no out-of-buffers with a pool of 4, got %d", got)
	}
}

func TestOutOfBuffersIncrementsDiagAndSkipsEnvelope(t *testing.T) {
	toCallback := make(chan *envelope.WorkEnvelope, 4)
	// A pool of 2 covers only one of NotifyMidiInitialised's two primes
	// (each consumes in+out), so the second must report out-of-buffers.
	w, counters := newTestWorker(t, toCallback, 2)

	go w.Run()
	w.NotifyMidiInitialised()
	w.Stop()
	<-w.Done()

	if len(toCallback) != 1 {
		t.Errorf("expected exactly one envelope to make it through before the pool was exhausted, got %d", len(toCallback))
	}
	if got := counters.Snapshot().OutOfBuffers; got != 1 {
		t.Errorf("expected exactly one out-of-buffers diagnostic, got %d", got)
	}
}

func TestStopForwardsToCallbackAndMidiIo(t *testing.T) {
	toCallback := make(chan *envelope.WorkEnvelope, 4)

	sig := clock.Signature{NumBeats: 4, NoteValue: 4}
	xport := transport.New(sig, 120, 44100)
	xport.Play(true)
	metro := metronome.New(metronome.Config{Enabled: false}, sig)
	counters := diag.New(nil)
	pools := NewPools(2, testFrames*2, 2, 8, 2, 4)

	var stoppedCallback, stoppedMidiIo bool
	w := New(Config{
		Transport:    xport,
		Metronome:    metro,
		Song:         song.NullProcessor{},
		Pools:        pools,
		Diag:         counters,
		ToCallback:   toCallback,
		InputCap:     8,
		StopCallback: func() { stoppedCallback = true },
		StopMidiIo:   func() { stoppedMidiIo = true },
		SampleRate:   44100,
		Frames:       testFrames,
	})

	go w.Run()
	w.Stop()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit within a second of Stop")
	}

	if !stoppedCallback {
		t.Error("expected Stop to invoke StopCallback")
	}
	if !stoppedMidiIo {
		t.Error("expected Stop to invoke StopMidiIo")
	}
}

// TestAudioInputRoundTripConservesPool matches the §8 steady-state
// invariant: a NotifyAudioInput carrying both the consumed input buffer and
// the released output buffer must return both to AudioBuffers before
// priming the next envelope, so pool occupancy never drifts downward block
// after block.
func TestAudioInputRoundTripConservesPool(t *testing.T) {
	toCallback := make(chan *envelope.WorkEnvelope, 4)
	// Pool of 4 covers exactly the two envelopes NotifyMidiInitialised
	// primes; if the round trip leaked, the pool would be permanently
	// short of buffers for every subsequent cycle.
	w, counters := newTestWorker(t, toCallback, 4)

	go w.Run()
	w.NotifyMidiInitialised()

	first := <-toCallback
	<-toCallback // drain the second primed envelope

	if got := w.pools.AudioBuffers.Len(); got != 0 {
		t.Fatalf("expected the pool to be fully checked out after priming, Len=%d", got)
	}

	// The MIDI pools (2 buffers, 2 IoVecs) are also fully checked out by
	// priming; return the first envelope's IoVec as MidiIo would, so the
	// next processNext is limited only by the audio pool under test.
	w.NotifyMidiReleased(first.MidiOut)
	w.NotifyAudioInput(audioio.ToWorker{
		Input:          first.AudioIn,
		ReleasedOutput: first.AudioOut,
	})

	select {
	case <-toCallback:
	case <-time.After(time.Second):
		t.Fatal("expected a new envelope after NotifyAudioInput released both buffers")
	}

	w.Stop()
	<-w.Done()

	if got := w.pools.AudioBuffers.Len(); got != 0 {
		t.Errorf("expected pool occupancy to be conserved across the audio-input cycle, Len=%d", got)
	}
	if got := counters.Snapshot().OutOfBuffers; got != 0 {
		t.Errorf("expected no out-of-buffers once both the input and output buffers are released, got %d", got)
	}
}

func TestMidiReleasedReturnsBuffersToPools(t *testing.T) {
	toCallback := make(chan *envelope.WorkEnvelope, 4)
	w, _ := newTestWorker(t, toCallback, 4)

	buf, _ := w.pools.MidiBuffers.Acquire()
	vec, _ := w.pools.MidiIoVecs.Acquire()
	vec.Push(midi.IoVecEntry{Endpoint: midi.Default(), Buffer: buf})

	lenBefore := w.pools.MidiBuffers.Len()
	vecLenBefore := w.pools.MidiIoVecs.Len()

	go w.Run()
	w.NotifyMidiReleased(vec)
	w.Stop()
	<-w.Done()

	if w.pools.MidiBuffers.Len() != lenBefore+1 {
		t.Errorf("expected the MIDI buffer to be returned to its pool, Len before=%d after=%d", lenBefore, w.pools.MidiBuffers.Len())
	}
	if w.pools.MidiIoVecs.Len() != vecLenBefore+1 {
		t.Errorf("expected the IoVec to be returned to its pool, Len before=%d after=%d", vecLenBefore, w.pools.MidiIoVecs.Len())
	}
}
