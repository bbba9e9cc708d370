package clock

// TimeDriftCorrector advances wall-clock Time by a block's sample count,
// accumulating the fractional nanosecond remainder across calls so that the
// sum of returned durations tracks the ideal (unrounded) duration to within
// one nanosecond, no matter how the block is split.
//
// timePerSample and errorPerSample are fixed at construction from the
// sample rate; errorAccumulated and lastCorrection are the only mutable
// state, so a Clone taken before simulating ahead leaves the original
// untouched.
type TimeDriftCorrector struct {
	sampleRate       SampleRate
	timePerSample    int64
	errorPerSample   float64
	errorAccumulated float64
	lastCorrection   int64
}

// NewTimeDriftCorrector builds a corrector for the given sample rate.
func NewTimeDriftCorrector(sr SampleRate) *TimeDriftCorrector {
	tps := nanosPerSecond / int64(sr)
	eps := float64(nanosPerSecond-tps*int64(sr)) / float64(sr)
	return &TimeDriftCorrector{
		sampleRate:     sr,
		timePerSample:  tps,
		errorPerSample: eps,
	}
}

// SampleRate returns the sample rate the corrector was built for.
func (d *TimeDriftCorrector) SampleRate() SampleRate { return d.sampleRate }

// LastCorrection returns the rounded correction applied by the most recent
// Advance call.
func (d *TimeDriftCorrector) LastCorrection() int64 { return d.lastCorrection }

// Advance returns the Time elapsed over n samples: timePerSample*n plus a
// rounded share of the accumulated fractional error, which is then
// subtracted back out of the accumulator.
func (d *TimeDriftCorrector) Advance(n int64) Time {
	want := d.errorAccumulated + d.errorPerSample*float64(n)
	correction := roundHalfAwayFromZero(want)
	d.errorAccumulated = want - float64(correction)
	d.lastCorrection = correction

	return Time(d.timePerSample*n + correction)
}

// Clone returns an independent copy of the corrector's state, so a caller
// can simulate ahead without disturbing the live corrector.
func (d *TimeDriftCorrector) Clone() *TimeDriftCorrector {
	cp := *d
	return &cp
}

// TicksDriftCorrector advances musical Ticks by a block's sample count,
// under a fixed signature/tempo/sample-rate ratio, the same way
// TimeDriftCorrector advances nanoseconds: ticksPerSample is the integer
// (floored) ticks-per-sample ratio, and errorPerSample is the fractional
// ticks-per-minute remainder that integer division drops, carried forward
// in errorAccumulated so a whole-second's worth of samples reconstructs
// the exact ticksPerMinute value. This mirrors §4.1's requirement that the
// correction absorb both the fractional part of ticks and the per-second
// rounding error, not just the per-sample fraction.
type TicksDriftCorrector struct {
	sig        Signature
	tempo      Tempo
	sampleRate SampleRate

	ticksPerSample   int64
	errorPerSample   float64
	errorAccumulated float64
	lastCorrection   int64
}

// NewTicksDriftCorrector builds a corrector for the given signature, tempo
// and sample rate: ticksPerSample = ticksPerBeat*tempo / (60*sampleRate),
// split into its integer part and a per-sample error term the same way
// NewTimeDriftCorrector splits nanosPerSecond/sampleRate.
func NewTicksDriftCorrector(sig Signature, tempo Tempo, sr SampleRate) *TicksDriftCorrector {
	perMinute := TicksPerMinute(sig, tempo)
	denom := int64(60) * int64(sr)

	tps := perMinute / denom
	eps := float64(perMinute-tps*denom) / float64(denom)

	return &TicksDriftCorrector{
		sig:            sig,
		tempo:          tempo,
		sampleRate:     sr,
		ticksPerSample: tps,
		errorPerSample: eps,
	}
}

// Signature returns the signature the corrector was built for.
func (d *TicksDriftCorrector) Signature() Signature { return d.sig }

// Tempo returns the tempo the corrector was built for.
func (d *TicksDriftCorrector) Tempo() Tempo { return d.tempo }

// SampleRate returns the sample rate the corrector was built for.
func (d *TicksDriftCorrector) SampleRate() SampleRate { return d.sampleRate }

// LastCorrection returns the rounded correction applied by the most recent
// Advance call.
func (d *TicksDriftCorrector) LastCorrection() int64 { return d.lastCorrection }

// Advance returns the Ticks elapsed over n samples: ticksPerSample*n plus a
// rounded share of the accumulated fractional error, which is then
// subtracted back out of the accumulator.
func (d *TicksDriftCorrector) Advance(n int64) Ticks {
	want := d.errorAccumulated + d.errorPerSample*float64(n)
	correction := roundHalfAwayFromZero(want)
	d.errorAccumulated = want - float64(correction)
	d.lastCorrection = correction

	return Ticks(d.ticksPerSample*n + correction)
}

// Clone returns an independent copy of the corrector's state.
func (d *TicksDriftCorrector) Clone() *TicksDriftCorrector {
	cp := *d
	return &cp
}

func roundHalfAwayFromZero(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}
