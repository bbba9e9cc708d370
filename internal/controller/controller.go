// Package controller implements the shutdown component (spec §4.8): it
// drives the ordered shutdown sequence across the callback, worker and
// MidiIo threads. It does not receive external control messages or
// MidiInitialised notifications; Stop is its only operation.
package controller

import "sync"

// Stoppable is anything Controller can request a shutdown from.
type Stoppable interface {
	Stop()
}

// Controller coordinates the four-stage shutdown order from spec §4.8:
//  1. the audio stream stops producing callbacks (driver.Stop()).
//  2. the worker drains pending completions, releases envelopes, exits —
//     per the design note in spec §9, Stop is routed through the worker's
//     own command channel rather than reaching the callback or MidiIo
//     directly, so no lock is ever needed on the audio thread.
//  3. the worker's Stop handler forwards Stop to the callback (by closing
//     its stop signal) and to MidiIo, which then drains pending Outputs
//     and exits.
//  4. pools and drivers are released by the caller once Stop returns.
type Controller struct {
	stopOnce sync.Once

	stopAudioStream func()
	worker          Stoppable
	workerDone      <-chan struct{}
	midiIoDone      <-chan struct{}
}

// New builds a Controller. stopAudioStream, if non-nil, is called first to
// halt the driver; worker is sent Stop next; workerDone/midiIoDone are the
// channels that close once each thread has exited.
func New(stopAudioStream func(), worker Stoppable, workerDone, midiIoDone <-chan struct{}) *Controller {
	return &Controller{
		stopAudioStream: stopAudioStream,
		worker:          worker,
		workerDone:      workerDone,
		midiIoDone:      midiIoDone,
	}
}

// Stop runs the shutdown sequence once, idempotently. It blocks until both
// the worker and MidiIo threads have exited.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		if c.stopAudioStream != nil {
			c.stopAudioStream()
		}

		c.worker.Stop()
		<-c.workerDone
		<-c.midiIoDone
	})
}
