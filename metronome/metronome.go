// Package metronome implements the canonical Segment-consuming event
// generator: given one Segment it appends bar/beat click NoteOn/NoteOff
// pairs into a midi.Buffer, proving out the Segment contract that a real
// Song processor also consumes.
package metronome

import (
	"github.com/herostudio/engine/clock"
	"github.com/herostudio/engine/midi"
	"github.com/herostudio/engine/transport"
)

// NoteConfig describes one click's note parameters. Duration is expressed
// as a denominator (16 means a sixteenth note), matching the
// metronome.{bar,beat}_note.duration config key.
type NoteConfig struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
	Duration uint8
}

// durationTicks converts the denominator-style Duration into Ticks: a
// denominator of 16 is one sixteenth note, i.e. TicksResolution ticks; a
// denominator of 4 is a quarter note, 4x that.
func (c NoteConfig) durationTicks() clock.Ticks {
	if c.Duration == 0 {
		return 0
	}
	return clock.Ticks(clock.TicksResolution * 16 / int64(c.Duration))
}

// Config holds the Metronome's static configuration.
type Config struct {
	Enabled  bool
	Endpoint midi.EndpointRef
	BarNote  NoteConfig
	BeatNote NoteConfig
}

// Metronome generates bar/beat click events for each Segment it is given.
type Metronome struct {
	cfg Config

	sig       clock.Signature
	barTicks  clock.Ticks
	beatTicks clock.Ticks
}

// New builds a Metronome configured for the given signature.
func New(cfg Config, sig clock.Signature) *Metronome {
	return &Metronome{
		cfg:       cfg,
		sig:       sig,
		barTicks:  sig.TicksPerBar(),
		beatTicks: sig.TicksPerBeat(),
	}
}

// SetSignature rebuilds the bar/beat tick spans for a new signature. Call
// whenever the Transport's signature changes.
func (m *Metronome) SetSignature(sig clock.Signature) {
	m.sig = sig
	m.barTicks = sig.TicksPerBar()
	m.beatTicks = sig.TicksPerBeat()
}

// SetEnabled toggles click generation.
func (m *Metronome) SetEnabled(enabled bool) { m.cfg.Enabled = enabled }

// Endpoint returns the configured destination for click events, so callers
// (the StudioWorker) know which IoVec entry to route the filled buffer to.
func (m *Metronome) Endpoint() midi.EndpointRef { return m.cfg.Endpoint }

// ceilToMultiple rounds position up to the next multiple of span (or
// position itself, if already a multiple).
func ceilToMultiple(position, span clock.Ticks) clock.Ticks {
	if span <= 0 {
		return position
	}
	if position%span == 0 {
		return position
	}
	return ((position / span) + 1) * span
}

// ProcessSegment appends NoteOn/NoteOff click pairs for every beat boundary
// within [segment.StartPosition, segment.EndPosition) into out, in
// non-decreasing timestamp order. It is a no-op when the metronome is
// disabled.
func (m *Metronome) ProcessSegment(segment transport.Segment, out *midi.Buffer) {
	if !m.cfg.Enabled {
		return
	}

	nextBar := ceilToMultiple(segment.StartPosition, m.barTicks)
	nextBeat := ceilToMultiple(segment.StartPosition, m.beatTicks)

	for nextBeat < segment.EndPosition {
		offset := (nextBeat - segment.StartPosition).ToClock(segment.Signature, segment.Tempo)
		noteClock := segment.MasterClock + offset

		note := m.cfg.BeatNote
		onBar := nextBeat == nextBar
		if onBar {
			note = m.cfg.BarNote
		}

		out.Append(midi.Event{
			Timestamp: noteClock,
			Message:   midi.NoteOn{Channel: note.Channel, Key: note.Key, Velocity: note.Velocity},
		})
		offDur := note.durationTicks().ToClock(segment.Signature, segment.Tempo)
		out.Append(midi.Event{
			Timestamp: noteClock + offDur,
			Message:   midi.NoteOff{Channel: note.Channel, Key: note.Key, Velocity: 0},
		})

		nextBeat += m.beatTicks
		if onBar {
			nextBar += m.barTicks
		}
	}
}
