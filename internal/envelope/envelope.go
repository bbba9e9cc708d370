// Package envelope defines WorkEnvelope, the audio_in/midi_out/audio_out
// triple exchanged between the StudioWorker and the AudioCallback. Exactly
// one thread owns a given envelope at a time; ownership transfers on
// channel send (spec §3, §5).
package envelope

import "github.com/herostudio/engine/midi"

// AudioBuffer is a flat interleaved sample buffer, sized for one block at
// construction. Buffers are pooled and never grow on the audio path.
type AudioBuffer struct {
	Samples []float32
}

// NewAudioBuffer allocates an AudioBuffer able to hold frames*channels
// samples.
func NewAudioBuffer(frames, channels int) *AudioBuffer {
	return &AudioBuffer{Samples: make([]float32, frames*channels)}
}

// Reset zeroes the buffer for reuse.
func (b *AudioBuffer) Reset() {
	clear(b.Samples)
}

// WorkEnvelope is the pre-computed unit of work the StudioWorker hands to
// the AudioCallback: AudioOut is the next block's output samples, MidiOut
// is the MIDI to forward to MidiIo, and AudioIn is the slot the callback
// will copy the captured input into before returning the envelope.
type WorkEnvelope struct {
	AudioIn  *AudioBuffer
	MidiOut  *midi.IoVec
	AudioOut *AudioBuffer
}
