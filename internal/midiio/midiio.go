// Package midiio implements the dedicated MIDI transmission thread (MidiIo,
// spec §4.7) and the endpoint registry it uses to route buffers to
// destination ports (spec §3 EndpointRegistry, §2 component I).
package midiio

import (
	"github.com/herostudio/engine/clock"
	"github.com/herostudio/engine/internal/diag"
	"github.com/herostudio/engine/midi"
)

// Destination describes one driver-enumerated MIDI destination by its
// display name.
type Destination struct {
	Name string
}

// OutputPort is an opened MIDI destination. Send submits every event in buf
// at baseTime+event.Timestamp, translated to the driver's native host-time
// unit by the adapter; events already in the past are still submitted.
type OutputPort interface {
	Send(baseTime clock.Time, buf *midi.Buffer) error
	Close() error
}

// Driver is the host collaborator consumed by MidiIo: enumerate
// destinations, open one by name. Concrete adapters (e.g.
// internal/mididriver, wrapping gitlab.com/gomidi/midi/v2) implement this.
type Driver interface {
	Destinations() ([]Destination, error)
	Open(name string) (OutputPort, error)
}

// Output is a request to transmit one IoVec's worth of buffers, timestamped
// relative to time.
type Output struct {
	Time clock.Time
	Vec  *midi.IoVec
}

// IO is the MidiIo thread: it owns the driver handle and the endpoint
// registry, receives Output and Stop over its input channel, and returns
// drained IoVecs to the StudioWorker over Released.
type IO struct {
	driver   Driver
	registry *Registry[OutputPort]
	diag     *diag.Counters

	input    chan ioMsg
	released chan *midi.IoVec

	done chan struct{}
}

type ioMsg struct {
	output *Output
	stop   bool
}

// New builds an IO bound to driver, with inputCap/releasedCap sizing its
// bounded channels (config-provided, per spec §5's "bounded from config").
func New(driver Driver, inputCap, releasedCap int, d *diag.Counters) *IO {
	return &IO{
		driver:   driver,
		registry: NewRegistry[OutputPort](),
		diag:     d,
		input:    make(chan ioMsg, inputCap),
		released: make(chan *midi.IoVec, releasedCap),
		done:     make(chan struct{}),
	}
}

// Released returns the channel the StudioWorker receives drained IoVecs
// from, for return to its midi_iovec_pool.
func (io *IO) Released() <-chan *midi.IoVec { return io.released }

// Lookup resolves a destination name to its registry id, for config-time
// translation of a metronome.port "ByName" value into a midi.EndpointRef.
// Call only after an initial UpdateEndpoints.
func (io *IO) Lookup(name string) (uint32, bool) {
	return io.registry.Lookup(name)
}

// Done is closed once the MidiIo thread has exited, after Stop has fully
// drained pending Outputs.
func (io *IO) Done() <-chan struct{} { return io.done }

// SendOutput enqueues out for transmission. If the input channel is full
// the send is dropped and a diagnostic counter incremented — the audio path
// must never pause waiting for MidiIo (spec §5).
func (io *IO) SendOutput(out *Output) {
	select {
	case io.input <- ioMsg{output: out}:
	default:
		io.diag.IncMidiIoQueueFull()
	}
}

// Stop requests the MidiIo thread exit after draining pending Outputs.
func (io *IO) Stop() {
	select {
	case io.input <- ioMsg{stop: true}:
	default:
		io.diag.IncMidiIoQueueFull()
	}
}

// UpdateEndpoints diffs the driver's current destination list against the
// registry by name: unchanged names keep their id, new names are opened and
// inserted, vanished names have their ports closed and removed. Ids never
// recycle.
func (io *IO) UpdateEndpoints() error {
	dests, err := io.driver.Destinations()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(dests))
	for _, d := range dests {
		seen[d.Name] = true
		if _, ok := io.registry.Lookup(d.Name); ok {
			continue
		}
		port, err := io.driver.Open(d.Name)
		if err != nil {
			io.diag.IncMidiOpenFailed()
			continue
		}
		io.registry.Add(d.Name, port)
	}

	for _, entry := range io.registry.All() {
		if seen[entry.Name] {
			continue
		}
		entry.Handle.Close()
		io.registry.Remove(entry.ID, nil)
	}

	return nil
}

// Run is the MidiIo thread body: block on the input channel, transmit
// Outputs, exit on Stop after the channel is drained.
func (io *IO) Run() {
	defer close(io.done)

	for msg := range io.input {
		if msg.stop {
			return
		}
		io.handleOutput(msg.output)
	}
}

func (io *IO) handleOutput(out *Output) {
	for _, entry := range out.Vec.Entries() {
		if entry.Buffer == nil {
			continue
		}
		io.sendTo(entry.Endpoint, out.Time, entry.Buffer)
	}

	select {
	case io.released <- out.Vec:
	default:
		io.diag.IncWorkerQueueFull()
	}
}

func (io *IO) sendTo(ref midi.EndpointRef, baseTime clock.Time, buf *midi.Buffer) {
	switch ref.Kind {
	case midi.EndpointNone:
		return
	case midi.EndpointDefault:
		io.sendToID(0, baseTime, buf)
	case midi.EndpointAll:
		for _, e := range io.registry.All() {
			e.Handle.Send(baseTime, buf)
		}
	case midi.EndpointID:
		io.sendToID(ref.ID, baseTime, buf)
	}
}

func (io *IO) sendToID(id uint32, baseTime clock.Time, buf *midi.Buffer) {
	port, ok := io.registry.Get(id)
	if !ok {
		io.diag.IncEndpointMissing()
		return
	}
	if err := port.Send(baseTime, buf); err != nil {
		io.diag.IncMidiSendFailed()
	}
}
