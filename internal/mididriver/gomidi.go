// Package mididriver adapts gitlab.com/gomidi/midi/v2 — the MIDI library
// used throughout the retrieved pack (iltempo-interplay, icco-genidi,
// grahamseamans-go-sequence, ako-backing-tracks, schollz-221e) — to the
// midiio.Driver/OutputPort interfaces MidiIo consumes.
package mididriver

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	hsclock "github.com/herostudio/engine/clock"
	hsmidi "github.com/herostudio/engine/midi"
	"github.com/herostudio/engine/internal/midiio"
)

// Driver enumerates and opens gomidi/v2 output ports.
type Driver struct{}

// New returns a mididriver.Driver. gomidi/v2 registers its backend drivers
// (rtmidi, portmidi, etc.) via blank import in cmd/hero-studio, matching
// the library's own convention.
func New() *Driver { return &Driver{} }

// Destinations lists the currently visible output ports by name.
func (d *Driver) Destinations() ([]midiio.Destination, error) {
	outs := midi.GetOutPorts()
	dests := make([]midiio.Destination, 0, len(outs))
	for _, o := range outs {
		dests = append(dests, midiio.Destination{Name: o.String()})
	}
	return dests, nil
}

// Open opens the named output port for writing.
func (d *Driver) Open(name string) (midiio.OutputPort, error) {
	var found drivers.Out
	for _, out := range midi.GetOutPorts() {
		if out.String() == name {
			found = out
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("mididriver: no output port named %q", name)
	}
	sender, err := midi.SendTo(found)
	if err != nil {
		return nil, fmt.Errorf("mididriver: SendTo %q: %w", name, err)
	}
	return &outputPort{out: found, send: sender}, nil
}

type outputPort struct {
	out  drivers.Out
	send func(midi.Message) error
}

// Send transmits every event in buf through the port. gomidi/v2's Out does
// not expose sample-accurate scheduling on its own, so events are sent in
// order as soon as the block is handed off; baseTime is accepted to keep
// the interface uniform with future timestamp-capable backends.
func (p *outputPort) Send(baseTime hsclock.Time, buf *hsmidi.Buffer) error {
	_ = baseTime
	for _, ev := range buf.Events() {
		raw := ev.Message.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := p.send(midi.Message(raw)); err != nil {
			return fmt.Errorf("mididriver: send: %w", err)
		}
	}
	return nil
}

// Close releases the underlying port.
func (p *outputPort) Close() error {
	return p.out.Close()
}
