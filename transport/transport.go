package transport

import (
	"sync"

	clone "github.com/huandu/go-clone/generic"

	"github.com/herostudio/engine/clock"
)

// Transport owns the studio's play/stop/loop/position state and the drift
// corrector used to turn a block's sample count into musical Ticks.
//
// Transport is owned exclusively by the StudioWorker; it is not safe to
// share across threads, matching §5's "no shared mutable state by
// reference" rule. The mutex here only guards the rare case of an external
// command (set tempo, seek, loop edit) arriving on the worker's command
// channel concurrently with the worker's own per-block use; callers that
// only ever touch Transport from the worker goroutine may ignore it.
type Transport struct {
	mu sync.Mutex

	signature  clock.Signature
	tempo      clock.Tempo
	sampleRate clock.SampleRate

	playing bool

	startPosition    clock.Ticks
	currentPosition  clock.Ticks
	nextPosition     clock.Ticks
	nextPlayDuration clock.Ticks

	loopEnabled bool
	loopStart   clock.Ticks
	loopEnd     clock.Ticks

	drift *clock.TicksDriftCorrector
}

// New constructs a Transport at position zero, stopped, loop disabled.
func New(sig clock.Signature, tempo clock.Tempo, sr clock.SampleRate) *Transport {
	t := &Transport{
		signature:  sig,
		tempo:      tempo,
		sampleRate: sr,
	}
	t.rebuildDrift()
	return t
}

func (t *Transport) rebuildDrift() {
	t.drift = clock.NewTicksDriftCorrector(t.signature, t.tempo, t.sampleRate)
}

// SetSampleRate updates the sample rate and rebuilds the drift corrector.
func (t *Transport) SetSampleRate(sr clock.SampleRate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampleRate = sr
	t.rebuildDrift()
}

// SetSignature updates the time signature and rebuilds the drift corrector.
func (t *Transport) SetSignature(sig clock.Signature) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signature = sig
	t.rebuildDrift()
}

// SetTempo updates the tempo and rebuilds the drift corrector.
func (t *Transport) SetTempo(tempo clock.Tempo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tempo = tempo
	t.rebuildDrift()
}

// Signature returns the current time signature.
func (t *Transport) Signature() clock.Signature {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.signature
}

// Tempo returns the current tempo.
func (t *Transport) Tempo() clock.Tempo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tempo
}

// SampleRate returns the current sample rate.
func (t *Transport) SampleRate() clock.SampleRate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sampleRate
}

// IsPlaying reports whether the transport is currently playing.
func (t *Transport) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Position returns the current musical position.
func (t *Transport) Position() clock.Ticks {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentPosition
}

// Play starts playback. If restart is true, the position, next position and
// play duration are reset to startPosition/0 first.
func (t *Transport) Play(restart bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if restart {
		t.currentPosition = t.startPosition
		t.nextPosition = t.startPosition
		t.nextPlayDuration = 0
	}
	t.playing = true
}

// Stop halts playback. If the transport was already stopped, the position
// is reset to startPosition; otherwise playback halts in place so it can be
// resumed with Play(false).
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.playing {
		t.currentPosition = t.startPosition
		t.nextPosition = t.startPosition
		t.nextPlayDuration = 0
		return
	}
	t.playing = false
}

// SetLoopEnabled toggles looping.
func (t *Transport) SetLoopEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loopEnabled = enabled
}

// SetLoopStart sets the loop start position.
func (t *Transport) SetLoopStart(pos clock.Ticks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loopStart = pos
}

// SetLoopEnd sets the loop end position.
func (t *Transport) SetLoopEnd(pos clock.Ticks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loopEnd = pos
}

// SetPosition sets the current and next musical position, e.g. on an
// explicit user seek.
func (t *Transport) SetPosition(pos clock.Ticks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startPosition = pos
	t.currentPosition = pos
	t.nextPosition = pos
}

// SegmentsIterator walks a block's worth of samples, splitting at loop_end
// crossings, yielding contiguous, non-overlapping Segments that together
// cover the whole block.
type SegmentsIterator struct {
	sig        clock.Signature
	tempo      clock.Tempo
	sampleRate clock.SampleRate

	loopEnabled bool
	loopStart   clock.Ticks
	loopEnd     clock.Ticks

	masterClock clock.Time

	position     clock.Ticks
	remaining    clock.Ticks
	playDuration clock.Ticks

	drift *clock.TicksDriftCorrector

	done bool

	// nextPosition/nextPlayDuration are committed back to Transport by
	// UpdateFromSegments once iteration completes.
	nextPosition     clock.Ticks
	nextPlayDuration clock.Ticks
}

// SegmentsIterator builds an iterator over frames samples of audio starting
// at masterClock, without mutating Transport; call UpdateFromSegments once
// iteration is complete to commit the advanced position and drift state.
func (t *Transport) SegmentsIterator(masterClock clock.Time, frames int) *SegmentsIterator {
	t.mu.Lock()
	defer t.mu.Unlock()

	driftClone := clone.Clone(t.drift)
	total := driftClone.Advance(int64(frames))

	return &SegmentsIterator{
		sig:              t.signature,
		tempo:            t.tempo,
		sampleRate:       t.sampleRate,
		loopEnabled:      t.loopEnabled,
		loopStart:        t.loopStart,
		loopEnd:          t.loopEnd,
		masterClock:      masterClock,
		position:         t.nextPosition,
		remaining:        total,
		playDuration:     t.nextPlayDuration,
		drift:            driftClone,
		nextPosition:     t.nextPosition,
		nextPlayDuration: t.nextPlayDuration,
	}
}

// Next returns the next Segment and true, or a zero Segment and false once
// the block has been fully covered.
func (it *SegmentsIterator) Next() (Segment, bool) {
	if it.done || it.remaining <= 0 {
		it.done = true
		return Segment{}, false
	}

	dur := it.remaining
	if it.loopEnabled && it.position < it.loopEnd && it.loopEnd <= it.position+it.remaining {
		dur = it.loopEnd - it.position
	}

	start := it.position
	end := start + dur
	masterStart := it.masterClock
	clockDur := dur.ToClock(it.sig, it.tempo)
	masterEnd := masterStart + clockDur

	seg := Segment{
		SampleRate:         it.sampleRate,
		Signature:          it.sig,
		Tempo:              it.tempo,
		MasterClock:        masterStart,
		StartPosition:      start,
		EndPosition:        end,
		Duration:           dur,
		ClockStartPosition: start.ToClock(it.sig, it.tempo),
		ClockEndPosition:   end.ToClock(it.sig, it.tempo),
		ClockDuration:      clockDur,
		PlayDuration:       it.playDuration,
	}

	it.playDuration += dur
	it.masterClock = masterEnd
	it.remaining -= dur

	if it.loopEnabled && end == it.loopEnd {
		it.position = it.loopStart
	} else {
		it.position = end
	}

	if it.remaining <= 0 {
		it.done = true
	}

	it.nextPosition = it.position
	it.nextPlayDuration = it.playDuration

	return seg, true
}

// UpdateFromSegments commits the iterator's resulting position, play
// duration and drift-corrector state back into the Transport. Call this
// exactly once, after fully draining Next.
func (t *Transport) UpdateFromSegments(it *SegmentsIterator) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentPosition = it.nextPosition
	t.nextPosition = it.nextPosition
	t.nextPlayDuration = it.nextPlayDuration
	t.drift = it.drift
}
