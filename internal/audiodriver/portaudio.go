// Package audiodriver adapts github.com/gordonklaus/portaudio — the
// teacher's own audio dependency — to the narrow host interface spec §6
// requires: open a duplex stream at a given sample rate/block size/channel
// count, invoke a callback per block with interleaved float32 in/out
// slices and host timestamps, start/stop/close.
package audiodriver

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// CallbackFunc matches audioio.Callback.Process's signature, kept as a
// plain func type here so this package does not need to import audioio.
type CallbackFunc func(frames int, in, out []float32, inTime, outTime int64) Result

// Result mirrors audioio.Result without importing it, to keep this adapter
// a leaf package; the caller (cmd/hero-studio) translates between the two.
type Result int

const (
	Continue Result = iota
	Complete
)

// Stream wraps a portaudio.Stream opened for duplex float32 I/O.
type Stream struct {
	stream     *portaudio.Stream
	onComplete func()
}

// Params configures the duplex stream to open.
type Params struct {
	SampleRate   float64
	FramesPerBuf int
	InChannels   int
	OutChannels  int
}

// Open initializes PortAudio and opens a default duplex stream that
// invokes cb once per block. onComplete, if non-nil, is called once cb
// returns Complete, so the caller can tear the stream down from within the
// callback thread's natural exit point.
func Open(p Params, cb CallbackFunc, onComplete func()) (*Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audiodriver: portaudio.Initialize: %w", err)
	}

	s := &Stream{onComplete: onComplete}

	paCallback := func(in, out []float32, timeInfo portaudio.StreamCallbackTimeInfo, _ portaudio.StreamCallbackFlags) {
		// InputBufferAdcTime/OutputBufferDacTime are float64 seconds;
		// audioio.Callback.Process documents inTime/outTime as nanoseconds.
		inTime := int64(timeInfo.InputBufferAdcTime * 1e9)
		outTime := int64(timeInfo.OutputBufferDacTime * 1e9)

		res := cb(p.FramesPerBuf, in, out, inTime, outTime)
		if res == Complete && s.onComplete != nil {
			s.onComplete()
		}
	}

	stream, err := portaudio.OpenDefaultStream(
		p.InChannels, p.OutChannels,
		p.SampleRate, p.FramesPerBuf,
		paCallback,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("audiodriver: OpenDefaultStream: %w", err)
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("audiodriver: Stream.Start: %w", err)
	}

	return s, nil
}

// Stop halts and closes the stream, then terminates PortAudio. Safe to
// call more than once.
func (s *Stream) Stop() {
	if s.stream == nil {
		return
	}
	s.stream.Stop()
	s.stream.Close()
	s.stream = nil
	portaudio.Terminate()
}
