// Package transport implements the studio's musical clock: play/stop/loop
// state, and the iterator that splits one audio block into the Segments a
// Metronome or Song processes.
package transport

import "github.com/herostudio/engine/clock"

// Segment describes one contiguous musical interval within a single audio
// block. Segments never straddle a loop boundary: when a block crosses
// loop_end, Transport yields two (or more, in principle) Segments.
type Segment struct {
	SampleRate clock.SampleRate
	Signature  clock.Signature
	Tempo      clock.Tempo

	// MasterClock is the wall-clock time at the start of this segment.
	MasterClock clock.Time

	StartPosition clock.Ticks
	EndPosition   clock.Ticks
	Duration      clock.Ticks

	// ClockStartPosition and ClockEndPosition are StartPosition/EndPosition
	// converted to clock units under Signature/Tempo — the musical
	// position expressed as a duration, distinct from MasterClock (the
	// wall-clock time the segment occupies).
	ClockStartPosition clock.Time
	ClockEndPosition   clock.Time
	ClockDuration      clock.Time

	// PlayDuration is the musical time elapsed since playback started, up
	// to but excluding this segment.
	PlayDuration clock.Ticks
}

// valid reports whether the segment's invariants hold: end-start==duration
// and clockDuration matches duration converted under signature/tempo. Used
// by tests, not by the hot path.
func (s Segment) valid() bool {
	if s.EndPosition-s.StartPosition != s.Duration {
		return false
	}
	return s.ClockDuration == s.Duration.ToClock(s.Signature, s.Tempo)
}
