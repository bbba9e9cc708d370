// Package clock implements the integer time types that back the studio's
// transport: wall-clock nanoseconds (Time) and musical ticks (Ticks), plus
// the drift-corrected accumulators that convert a block's sample count into
// each of those units without losing fractional remainders across calls.
package clock

import (
	"fmt"
	"math/big"
)

// TicksResolution is the number of Ticks per sixteenth note. It factors as
// 2^10 * 3^4 * 5^3 * 7^2 so that every reasonable subdivision (halves,
// thirds, quarters, fifths, sixths, sevenths, ...) of a sixteenth divides
// it evenly.
const TicksResolution = 508_032_000

const nanosPerSecond int64 = 1_000_000_000

// Time is an integer count of wall-clock nanoseconds.
type Time int64

// Ticks is an integer count of musical ticks, at TicksResolution per
// sixteenth note.
type Ticks int64

// Signature is a musical time signature. NoteValue must be a power of two
// not greater than 16 (i.e. it divides a whole note into at most 16
// sixteenths' worth of subdivision).
type Signature struct {
	NumBeats  int
	NoteValue int
}

// Valid reports whether the signature's NoteValue is a power of two, no
// greater than 16.
func (s Signature) Valid() bool {
	if s.NoteValue <= 0 || s.NoteValue > 16 {
		return false
	}
	return s.NoteValue&(s.NoteValue-1) == 0
}

// Tempo is a tempo in beats per minute.
type Tempo int

// SampleRate is a sample rate in samples per second.
type SampleRate int

// TicksPerBeat returns the number of Ticks in one beat of the given
// signature, e.g. 4 sixteenths per quarter-note beat in 4/4.
func (s Signature) TicksPerBeat() Ticks {
	return Ticks(TicksResolution * 16 / int64(s.NoteValue))
}

// TicksPerBar returns the number of Ticks in one bar of the given
// signature.
func (s Signature) TicksPerBar() Ticks {
	return s.TicksPerBeat() * Ticks(s.NumBeats)
}

// TicksPerMinute returns ticks_per_minute = TICKS_RESOLUTION*16/note_value*tempo.
func TicksPerMinute(sig Signature, tempo Tempo) int64 {
	return TicksResolution * 16 / int64(sig.NoteValue) * int64(tempo)
}

// Add returns t+u.
func (t Time) Add(u Time) Time { return t + u }

// Sub returns t-u.
func (t Time) Sub(u Time) Time { return t - u }

// Mul returns t scaled by n.
func (t Time) Mul(n int64) Time { return Time(int64(t) * n) }

// Div returns t divided by n.
func (t Time) Div(n int64) Time { return Time(int64(t) / n) }

// FromSeconds converts a floating point second count to Time.
func FromSeconds(seconds float64) Time {
	return Time(seconds * float64(nanosPerSecond))
}

// FromSamples converts a sample count at the given rate to Time.
func FromSamples(n int64, sr SampleRate) Time {
	return Time(n * nanosPerSecond / int64(sr))
}

// ToSeconds converts Time to a floating point second count.
func (t Time) ToSeconds() float64 {
	return float64(t) / float64(nanosPerSecond)
}

// ToNanos returns the raw nanosecond count.
func (t Time) ToNanos() int64 { return int64(t) }

// ToTicks converts a wall-clock duration to musical Ticks under the given
// signature and tempo: ticks = nanos * ticks_per_minute / (60 * 1e9).
func (t Time) ToTicks(sig Signature, tempo Tempo) Ticks {
	tpm := TicksPerMinute(sig, tempo)
	return Ticks(mulDiv(int64(t), tpm, 60*nanosPerSecond))
}

// mulDiv returns a*b/c truncated toward zero, computing the product without
// int64 overflow.
func mulDiv(a, b, c int64) int64 {
	var r big.Int
	r.Mul(big.NewInt(a), big.NewInt(b))
	return r.Quo(&r, big.NewInt(c)).Int64()
}

// Add returns t+u.
func (t Ticks) Add(u Ticks) Ticks { return t + u }

// Sub returns t-u.
func (t Ticks) Sub(u Ticks) Ticks { return t - u }

// Mul returns t scaled by n.
func (t Ticks) Mul(n int64) Ticks { return Ticks(int64(t) * n) }

// Div returns t divided by n.
func (t Ticks) Div(n int64) Ticks { return Ticks(int64(t) / n) }

// ToClock converts Ticks to a wall-clock Time under the given signature and
// tempo: nanos = ticks * 60 * 1e9 / ticks_per_minute.
func (t Ticks) ToClock(sig Signature, tempo Tempo) Time {
	tpm := TicksPerMinute(sig, tempo)
	return Time(mulDiv(int64(t), 60*nanosPerSecond, tpm))
}

// Bars is a (bars, beats, sixteenths, ticks) musical position, round-trip
// convertible to Ticks under a Signature.
type Bars struct {
	Bars       int
	Beats      int
	Sixteenths int
	Ticks      int64
}

// ticksPerSixteenth is the resolution constant under a local name, used by
// Bars<->Ticks conversion regardless of signature.
const ticksPerSixteenth = TicksResolution

// FromTicks decomposes a Ticks position into bars/beats/sixteenths/ticks
// under sig.
func FromTicks(t Ticks, sig Signature) Bars {
	tpb := sig.TicksPerBar()
	tpBeat := sig.TicksPerBeat()

	barIdx := int64(t) / int64(tpb)
	rem := int64(t) % int64(tpb)
	if rem < 0 {
		rem += int64(tpb)
		barIdx--
	}

	beatIdx := rem / int64(tpBeat)
	rem -= beatIdx * int64(tpBeat)

	sixteenthIdx := rem / ticksPerSixteenth
	rem -= sixteenthIdx * ticksPerSixteenth

	return Bars{
		Bars:       int(barIdx),
		Beats:      int(beatIdx),
		Sixteenths: int(sixteenthIdx),
		Ticks:      rem,
	}
}

// ToTicks recomposes a Bars position into Ticks under sig, the inverse of
// FromTicks.
func (b Bars) ToTicks(sig Signature) Ticks {
	tpb := sig.TicksPerBar()
	tpBeat := sig.TicksPerBeat()

	total := int64(b.Bars)*int64(tpb) +
		int64(b.Beats)*int64(tpBeat) +
		int64(b.Sixteenths)*ticksPerSixteenth +
		b.Ticks
	return Ticks(total)
}

func (t Time) String() string  { return fmt.Sprintf("%dns", int64(t)) }
func (t Ticks) String() string { return fmt.Sprintf("%dticks", int64(t)) }
