package metronome

import (
	"testing"

	"github.com/herostudio/engine/clock"
	"github.com/herostudio/engine/midi"
	"github.com/herostudio/engine/transport"
)

func testSignature() clock.Signature {
	return clock.Signature{NumBeats: 4, NoteValue: 4}
}

func testSegment(sig clock.Signature, tempo clock.Tempo, masterClock clock.Time, start, end clock.Ticks) transport.Segment {
	dur := end - start
	return transport.Segment{
		SampleRate:         44100,
		Signature:          sig,
		Tempo:              tempo,
		MasterClock:        masterClock,
		StartPosition:      start,
		EndPosition:        end,
		Duration:           dur,
		ClockStartPosition: start.ToClock(sig, tempo),
		ClockEndPosition:   end.ToClock(sig, tempo),
		ClockDuration:      dur.ToClock(sig, tempo),
		PlayDuration:       start,
	}
}

func newTestMetronome(t *testing.T, enabled bool) *Metronome {
	sig := testSignature()
	cfg := Config{
		Enabled:  enabled,
		Endpoint: midi.Default(),
		BarNote:  NoteConfig{Channel: 0, Key: 84, Velocity: 127, Duration: 16},
		BeatNote: NoteConfig{Channel: 0, Key: 77, Velocity: 120, Duration: 16},
	}
	return New(cfg, sig)
}

// TestScenario1NoLoopBarAt120BPM matches spec Scenario 1: a 512-frame block
// at 120 BPM/4/4/44.1kHz starting at position 0 should emit exactly the bar
// click at timestamp 0 and nothing else, since one beat (~500ms) far
// exceeds the block's ~11.6ms duration.
func TestScenario1NoLoopBarAt120BPM(t *testing.T) {
	m := newTestMetronome(t, true)
	sig := testSignature()
	tempo := clock.Tempo(120)

	drift := clock.NewTicksDriftCorrector(sig, tempo, 44100)
	total := drift.Advance(512)

	seg := testSegment(sig, tempo, 0, 0, total)

	out := midi.NewBuffer(8)
	m.ProcessSegment(seg, out)

	events := out.Events()
	if len(events) != 2 {
		t.Fatalf("expected exactly one NoteOn/NoteOff pair, got %d events: %+v", len(events), events)
	}

	on, ok := events[0].Message.(midi.NoteOn)
	if !ok {
		t.Fatalf("expected first event to be a NoteOn, got %T", events[0].Message)
	}
	if on.Key != 84 {
		t.Errorf("expected bar note key 84, got %d", on.Key)
	}
	if events[0].Timestamp != 0 {
		t.Errorf("expected bar NoteOn at timestamp 0, got %v", events[0].Timestamp)
	}

	if _, ok := events[1].Message.(midi.NoteOff); !ok {
		t.Fatalf("expected second event to be a NoteOff, got %T", events[1].Message)
	}
}

func TestExactlyKNoteOnPerBeatBoundaries(t *testing.T) {
	m := newTestMetronome(t, true)
	sig := testSignature()
	tempo := clock.Tempo(120)
	beatTicks := sig.TicksPerBeat()

	// A segment spanning exactly 3.5 beats should contain 4 beat boundaries
	// (0, 1, 2, 3 beat-ticks from the segment start), since boundary 0 and
	// every subsequent beat up to but excluding the end are included.
	end := beatTicks*3 + beatTicks/2
	seg := testSegment(sig, tempo, 0, 0, end)

	out := midi.NewBuffer(16)
	m.ProcessSegment(seg, out)

	var noteOns int
	var lastTimestamp clock.Time
	first := true
	for _, e := range out.Events() {
		if !first && e.Timestamp < lastTimestamp {
			t.Errorf("events out of order: %v before %v", e.Timestamp, lastTimestamp)
		}
		lastTimestamp = e.Timestamp
		first = false

		if _, ok := e.Message.(midi.NoteOn); ok {
			noteOns++
			if e.Timestamp < seg.MasterClock || e.Timestamp >= seg.MasterClock+seg.Duration.ToClock(sig, tempo) {
				t.Errorf("NoteOn timestamp %v outside segment bounds [%v, %v)", e.Timestamp, seg.MasterClock, seg.MasterClock+seg.Duration.ToClock(sig, tempo))
			}
		}
	}

	if noteOns != 4 {
		t.Errorf("expected 4 NoteOn events for 4 beat boundaries, got %d", noteOns)
	}
}

func TestDisabledMetronomeEmitsNothing(t *testing.T) {
	m := newTestMetronome(t, false)
	sig := testSignature()
	seg := testSegment(sig, 120, 0, 0, sig.TicksPerBar()*4)

	out := midi.NewBuffer(4)
	m.ProcessSegment(seg, out)

	if out.Len() != 0 {
		t.Errorf("expected no events when disabled, got %d", out.Len())
	}
}

func TestBarBoundaryUsesBarNote(t *testing.T) {
	m := newTestMetronome(t, true)
	sig := testSignature()
	tempo := clock.Tempo(120)
	barTicks := sig.TicksPerBar()

	seg := testSegment(sig, tempo, 0, barTicks-1, barTicks+1)

	out := midi.NewBuffer(8)
	m.ProcessSegment(seg, out)

	var sawBarNote bool
	for _, e := range out.Events() {
		if on, ok := e.Message.(midi.NoteOn); ok && on.Key == 84 {
			sawBarNote = true
		}
	}
	if !sawBarNote {
		t.Error("expected the bar-note key to appear at the bar boundary")
	}
}
