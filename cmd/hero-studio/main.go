// Command hero-studio is the playback engine's CLI surface (spec §6): it
// loads configuration, opens the audio and MIDI drivers, wires the four
// real-time threads together and blocks until an interrupt drives a clean
// shutdown.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/herostudio/engine/clock"
	"github.com/herostudio/engine/internal/audiodriver"
	"github.com/herostudio/engine/internal/audioio"
	"github.com/herostudio/engine/internal/config"
	"github.com/herostudio/engine/internal/controller"
	"github.com/herostudio/engine/internal/diag"
	"github.com/herostudio/engine/internal/envelope"
	"github.com/herostudio/engine/internal/midiio"
	"github.com/herostudio/engine/internal/mididriver"
	"github.com/herostudio/engine/internal/rtprio"
	"github.com/herostudio/engine/internal/worker"
	"github.com/herostudio/engine/metronome"
	"github.com/herostudio/engine/midi"
	"github.com/herostudio/engine/song"
	"github.com/herostudio/engine/transport"
)

// defaultNumBeats/defaultNoteValue and defaultTempo seed the Transport; spec's config table
// has no signature/tempo keys, so these start the transport at a common 4/4,
// 120bpm and are changed at runtime via Transport.SetSignature/SetTempo.
const (
	defaultNumBeats  = 4
	defaultNoteValue = 4
	defaultTempo     = clock.Tempo(120)

	defaultInChannels  = 2
	defaultOutChannels = 2

	workerPriority = 10
	midiIoPriority = 5

	workerInputCap  = 64
	midiIoInputCap  = 64
	midiReleasedCap = 64
	toCallbackCap   = 4
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("hero-studio: ")

	studioPath := flag.String("config", envOr("HERO_STUDIO_CONFIG", "./studio.yaml"), "studio config path")
	appPath := flag.String("app-config", envOr("HERO_STUDIO_APP_CONFIG", "./app.yaml"), "app config path")
	flag.Parse()

	if err := run(*studioPath, *appPath); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func run(studioPath, appPath string) error {
	cfg, err := config.Load(studioPath, appPath)
	if err != nil {
		return err
	}

	counters := diag.New(log.Default())

	sig := clock.Signature{NumBeats: defaultNumBeats, NoteValue: defaultNoteValue}
	sampleRate := clock.SampleRate(cfg.Audio.SampleRate)
	frames := int(cfg.Audio.Frames)

	xport := transport.New(sig, defaultTempo, sampleRate)

	if cfg.Midi.DriverID != "" {
		log.Printf("hero-studio: midi.driver_id %q requested; only the rtmidi backend is linked in, using platform default", cfg.Midi.DriverID)
	}
	midiDriver := mididriver.New()
	midiIO := midiio.New(midiDriver, midiIoInputCap, midiReleasedCap, counters)
	if err := midiIO.UpdateEndpoints(); err != nil {
		log.Printf("hero-studio: initial MIDI endpoint scan: %v", err)
	}

	metro := metronome.New(metronome.Config{
		Enabled:  cfg.Metronome.Enabled,
		Endpoint: resolveEndpoint(midiIO, cfg.Metronome.Port),
		BarNote:  noteConfigFrom(cfg.Metronome.BarNote),
		BeatNote: noteConfigFrom(cfg.Metronome.BeatNote),
	}, sig)

	pools := worker.NewPools(
		cfg.Audio.BufferPool.PoolCapacity, frames*defaultOutChannels,
		cfg.Midi.BufferPool.PoolCapacity, cfg.Midi.BufferPool.ItemCapacity,
		cfg.Midi.IoVecPool.PoolCapacity, cfg.Midi.IoVecPool.ItemCapacity,
	)

	toCallback := make(chan *envelope.WorkEnvelope, toCallbackCap)
	toWorker := make(chan audioio.ToWorker, workerInputCap)
	toMidiIo := make(chan *midiio.Output, midiIoInputCap)
	stopCallback := make(chan struct{})

	callback := audioio.New(toCallback, toWorker, toMidiIo, stopCallback, defaultInChannels, defaultOutChannels, counters)

	var stream *audiodriver.Stream

	wkr := worker.New(worker.Config{
		Transport:    xport,
		Metronome:    metro,
		Song:         song.NullProcessor{},
		Pools:        pools,
		Diag:         counters,
		ToCallback:   toCallback,
		InputCap:     workerInputCap,
		StopCallback: func() { close(stopCallback) },
		StopMidiIo:   midiIO.Stop,
		SampleRate:   sampleRate,
		Frames:       frames,
	})

	ctrl := controller.New(func() {
		if stream != nil {
			stream.Stop()
		}
	}, wkr, wkr.Done(), midiIO.Done())

	go runPrioritized(workerPriority, wkr.Run)
	go runPrioritized(midiIoPriority, midiIO.Run)
	go forwardToWorker(wkr, toWorker, midiIO.Released())
	go forwardToMidiIo(midiIO, toMidiIo)

	wkr.NotifyMidiInitialised()

	stream, err = audiodriver.Open(audiodriver.Params{
		SampleRate:   float64(sampleRate),
		FramesPerBuf: frames,
		InChannels:   defaultInChannels,
		OutChannels:  defaultOutChannels,
	}, func(frames int, in, out []float32, inTime, outTime int64) audiodriver.Result {
		res := callback.Process(frames, in, out, inTime, outTime)
		if res == audioio.Complete {
			return audiodriver.Complete
		}
		return audiodriver.Continue
	}, nil)
	if err != nil {
		return err
	}

	waitForShutdownSignal()
	ctrl.Stop()

	return nil
}

// runPrioritized locks the calling goroutine to its OS thread and attempts
// real-time priority promotion before running fn; promotion failure is
// logged and non-fatal, per spec §5.
func runPrioritized(priority int, fn func()) {
	runtime.LockOSThread()
	if err := rtprio.Promote(priority); err != nil {
		log.Printf("hero-studio: rtprio: %v", err)
	}
	fn()
}

// forwardToWorker relays the callback's consumed-input/released-MIDI
// notifications into the worker's single command channel.
func forwardToWorker(w *worker.Worker, fromCallback <-chan audioio.ToWorker, fromMidiIo <-chan *midi.IoVec) {
	for {
		select {
		case m, ok := <-fromCallback:
			if !ok {
				return
			}
			w.NotifyAudioInput(m)
		case v, ok := <-fromMidiIo:
			if !ok {
				return
			}
			w.NotifyMidiReleased(v)
		}
	}
}

// forwardToMidiIo relays the callback's outgoing MIDI to the MidiIo thread.
func forwardToMidiIo(io *midiio.IO, fromCallback <-chan *midiio.Output) {
	for out := range fromCallback {
		io.SendOutput(out)
	}
}

func waitForShutdownSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

func noteConfigFrom(n config.NoteConfig) metronome.NoteConfig {
	return metronome.NoteConfig{
		Channel:  n.Channel,
		Key:      n.Key,
		Velocity: n.Velocity,
		Duration: n.Duration,
	}
}

func resolveEndpoint(io *midiio.IO, port string) midi.EndpointRef {
	parsed := config.ParsePort(port)
	switch parsed.Kind {
	case config.PortNone:
		return midi.None()
	case config.PortDefault:
		return midi.Default()
	case config.PortAll:
		return midi.All()
	case config.PortByName:
		if id, ok := io.Lookup(parsed.Name); ok {
			return midi.ID(id)
		}
		log.Printf("hero-studio: metronome.port %q not found among current MIDI destinations, disabling routing", parsed.Name)
		return midi.None()
	default:
		return midi.None()
	}
}
