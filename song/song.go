// Package song defines the trivial interface the StudioWorker uses to hand
// each Segment to song/track/clip storage. Storage itself is out of scope
// (spec.md §1); this package only ships the interface plus a no-op
// implementation so the engine runs end to end without a real arranger.
package song

import (
	"github.com/herostudio/engine/midi"
	"github.com/herostudio/engine/transport"
)

// Processor consumes one Segment at a time, appending whatever MIDI events
// the song's arrangement produces for that interval into out.
type Processor interface {
	ProcessSegment(segment transport.Segment, out *midi.Buffer)
}

// NullProcessor is a Processor that emits nothing. It is the engine's
// default when no song/track storage is wired in.
type NullProcessor struct{}

func (NullProcessor) ProcessSegment(transport.Segment, *midi.Buffer) {}

var _ Processor = NullProcessor{}
