package audioio

import (
	"log"
	"testing"

	"github.com/herostudio/engine/internal/diag"
	"github.com/herostudio/engine/internal/envelope"
	"github.com/herostudio/engine/internal/midiio"
	"github.com/herostudio/engine/midi"
)

const testFrames = 4

func newTestCallback() (*Callback, chan *envelope.WorkEnvelope, chan ToWorker, chan *midiio.Output, chan struct{}, *diag.Counters) {
	fromWorker := make(chan *envelope.WorkEnvelope, 4)
	toWorker := make(chan ToWorker, 4)
	toMidiIo := make(chan *midiio.Output, 4)
	stopCh := make(chan struct{})
	counters := diag.New(log.Default())

	cb := New(fromWorker, toWorker, toMidiIo, stopCh, 2, 2, counters)
	return cb, fromWorker, toWorker, toMidiIo, stopCh, counters
}

func testEnvelope() *envelope.WorkEnvelope {
	return &envelope.WorkEnvelope{
		AudioIn:  envelope.NewAudioBuffer(testFrames, 2),
		AudioOut: envelope.NewAudioBuffer(testFrames, 2),
		MidiOut:  midi.NewIoVec(1),
	}
}

// TestXrunProducesSilenceAndIncrementsCounter matches the spec's xrun
// scenario: the worker has not primed an envelope in time, so the callback
// must zero-fill output, bump the xrun counter, and still return Continue.
func TestXrunProducesSilenceAndIncrementsCounter(t *testing.T) {
	cb, _, _, _, _, counters := newTestCallback()

	out := make([]float32, testFrames*2)
	for i := range out {
		out[i] = 1 // poison, to prove underrun zeroes it
	}
	in := make([]float32, testFrames*2)

	res := cb.Process(testFrames, in, out, 0, 0)

	if res != Continue {
		t.Errorf("expected Continue on underrun, got %v", res)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("expected out[%d]=0 after underrun, got %v", i, v)
		}
	}
	if got := counters.Snapshot().Xruns; got != 1 {
		t.Errorf("expected Xruns=1 after one underrun, got %d", got)
	}
}

// TestResumeAfterXrunNeedsNoReset: once the worker catches up, the next
// successful receive should fill real output with no special handling.
func TestResumeAfterXrunNeedsNoReset(t *testing.T) {
	cb, fromWorker, _, _, _, counters := newTestCallback()

	out := make([]float32, testFrames*2)
	in := make([]float32, testFrames*2)
	cb.Process(testFrames, in, out, 0, 0) // underrun #1

	env := testEnvelope()
	for i := range env.AudioOut.Samples {
		env.AudioOut.Samples[i] = float32(i + 1)
	}
	fromWorker <- env

	res := cb.Process(testFrames, in, out, 0, 0)
	if res != Continue {
		t.Fatalf("expected Continue, got %v", res)
	}
	for i, v := range out {
		want := float32(i + 1)
		if v != want {
			t.Errorf("out[%d]=%v, want %v", i, v, want)
		}
	}
	if got := counters.Snapshot().Xruns; got != 1 {
		t.Errorf("expected Xruns to stay at 1 after a successful receive, got %d", got)
	}
}

func TestStopSignalReturnsComplete(t *testing.T) {
	cb, _, _, _, stopCh, _ := newTestCallback()
	close(stopCh)

	out := make([]float32, testFrames*2)
	in := make([]float32, testFrames*2)
	if res := cb.Process(testFrames, in, out, 0, 0); res != Complete {
		t.Errorf("expected Complete once stopCh is closed, got %v", res)
	}
}

func TestProcessForwardsToWorkerAndMidiIo(t *testing.T) {
	cb, fromWorker, toWorker, toMidiIo, _, _ := newTestCallback()

	env := testEnvelope()
	fromWorker <- env

	in := make([]float32, testFrames*2)
	for i := range in {
		in[i] = float32(i + 1)
	}
	out := make([]float32, testFrames*2)

	cb.Process(testFrames, in, out, 111, 222)

	select {
	case msg := <-toWorker:
		if msg.Time != 111 {
			t.Errorf("expected forwarded Time=111, got %d", msg.Time)
		}
		if msg.ReleasedOutput != env.AudioOut {
			t.Error("expected ReleasedOutput to be the consumed envelope's AudioOut")
		}
		for i, v := range msg.Input.Samples {
			if v != in[i] {
				t.Errorf("captured input[%d]=%v, want %v", i, v, in[i])
			}
		}
	default:
		t.Fatal("expected a message forwarded to the worker")
	}

	select {
	case out := <-toMidiIo:
		if out.Time != 222 {
			t.Errorf("expected forwarded midi Time=222, got %d", out.Time)
		}
		if out.Vec != env.MidiOut {
			t.Error("expected the envelope's MidiOut to be forwarded to MidiIo")
		}
	default:
		t.Fatal("expected a message forwarded to MidiIo")
	}
}
