// Package midi defines the wire-level MIDI 1.0 message types and the
// timestamped event/buffer/endpoint types exchanged between the
// StudioWorker, AudioCallback and MidiIo.
package midi

// Message is implemented by every MIDI 1.0 message variant the engine can
// emit: channel voice messages, system real-time, MTC quarter-frame,
// song-position pointer, and sysex.
type Message interface {
	// Bytes returns the raw MIDI wire bytes for this message.
	Bytes() []byte
}

// NoteOn is a channel voice Note On message.
type NoteOn struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

func (m NoteOn) Bytes() []byte {
	return []byte{0x90 | (m.Channel & 0x0F), m.Key & 0x7F, m.Velocity & 0x7F}
}

// NoteOff is a channel voice Note Off message.
type NoteOff struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

func (m NoteOff) Bytes() []byte {
	return []byte{0x80 | (m.Channel & 0x0F), m.Key & 0x7F, m.Velocity & 0x7F}
}

// ControlChange is a channel voice Control Change message.
type ControlChange struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

func (m ControlChange) Bytes() []byte {
	return []byte{0xB0 | (m.Channel & 0x0F), m.Controller & 0x7F, m.Value & 0x7F}
}

// ProgramChange is a channel voice Program Change message.
type ProgramChange struct {
	Channel uint8
	Program uint8
}

func (m ProgramChange) Bytes() []byte {
	return []byte{0xC0 | (m.Channel & 0x0F), m.Program & 0x7F}
}

// RealTime is one of the MIDI system real-time messages (clock, start,
// continue, stop, active sensing, reset).
type RealTime struct {
	Status uint8
}

const (
	RealTimeClock    uint8 = 0xF8
	RealTimeStart    uint8 = 0xFA
	RealTimeContinue uint8 = 0xFB
	RealTimeStop     uint8 = 0xFC
)

func (m RealTime) Bytes() []byte { return []byte{m.Status} }

// MTCQuarterFrame is an MTC quarter-frame message.
type MTCQuarterFrame struct {
	Piece uint8 // 0-7, which nibble of the full timecode this carries
	Value uint8 // lower nibble
}

func (m MTCQuarterFrame) Bytes() []byte {
	return []byte{0xF1, ((m.Piece & 0x7) << 4) | (m.Value & 0xF)}
}

// SongPosition is a Song Position Pointer message, in MIDI beats (sixteenth
// notes) from the start of the song.
type SongPosition struct {
	Beats uint16 // 14-bit value
}

func (m SongPosition) Bytes() []byte {
	lsb := uint8(m.Beats & 0x7F)
	msb := uint8((m.Beats >> 7) & 0x7F)
	return []byte{0xF2, lsb, msb}
}

// SysEx is a raw system-exclusive message; Data excludes the leading 0xF0
// and trailing 0xF7, which Bytes adds.
type SysEx struct {
	Data []byte
}

func (m SysEx) Bytes() []byte {
	b := make([]byte, 0, len(m.Data)+2)
	b = append(b, 0xF0)
	b = append(b, m.Data...)
	b = append(b, 0xF7)
	return b
}
