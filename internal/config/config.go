// Package config parses the studio's recognized configuration options
// (spec §6). File format is YAML, grounded on the ako-backing-tracks
// example's own yaml.v3 dependency; the teacher itself does not parse
// config files (modplayer takes everything from CLI flags), so this
// package's shape is new but its parsing library is not.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PoolSizing is the {pool_capacity, item_capacity} pair shared by the
// audio buffer, MIDI buffer and MIDI IoVec pool config keys.
type PoolSizing struct {
	PoolCapacity int `yaml:"pool_capacity"`
	ItemCapacity int `yaml:"item_capacity"`
}

// AudioConfig is the audio.* key group.
type AudioConfig struct {
	SampleRate uint32     `yaml:"sample_rate"`
	Frames     uint16     `yaml:"frames"`
	BufferPool PoolSizing `yaml:"buffer_pool"`
}

// MidiConfig is the midi.* key group.
type MidiConfig struct {
	DriverID   string     `yaml:"driver_id"`
	BufferPool PoolSizing `yaml:"buffer_pool"`
	IoVecPool  PoolSizing `yaml:"io_vec_pool"`
}

// NoteConfig is one of metronome.{bar,beat}_note.*.
type NoteConfig struct {
	Channel  uint8 `yaml:"channel"`
	Key      uint8 `yaml:"key"`
	Velocity uint8 `yaml:"velocity"`
	Duration uint8 `yaml:"duration"`
}

// MetronomeConfig is the metronome.* key group. Port is a raw string per
// spec's {None, Default, All, ByName(s)} tagged variant, decoded by
// ParsePort.
type MetronomeConfig struct {
	Enabled  bool       `yaml:"enabled"`
	Port     string     `yaml:"port"`
	BarNote  NoteConfig `yaml:"bar_note"`
	BeatNote NoteConfig `yaml:"beat_note"`
}

// Config is the full recognized option set from spec §6.
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Midi      MidiConfig      `yaml:"midi"`
	Metronome MetronomeConfig `yaml:"metronome"`
}

// Default returns the configuration with every documented default applied.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate: 44100,
			Frames:     512,
			BufferPool: PoolSizing{PoolCapacity: 4, ItemCapacity: 512 * 2},
		},
		Midi: MidiConfig{
			DriverID:   "",
			BufferPool: PoolSizing{PoolCapacity: 8, ItemCapacity: 64},
			IoVecPool:  PoolSizing{PoolCapacity: 4, ItemCapacity: 4},
		},
		Metronome: MetronomeConfig{
			Enabled: false,
			Port:    "default",
			BarNote: NoteConfig{Channel: 9, Key: 84, Velocity: 127, Duration: 16},
			BeatNote: NoteConfig{
				Channel: 9, Key: 77, Velocity: 120, Duration: 16,
			},
		},
	}
}

// Load reads and merges two YAML config files (studio config, then app
// config) over the defaults; either path may be empty or simply not exist,
// in which case that layer is skipped. App config values win over studio
// config values, which win over defaults.
func Load(studioPath, appPath string) (Config, error) {
	cfg := Default()

	for _, path := range []string{studioPath, appPath} {
		if path == "" {
			continue
		}
		if err := mergeFile(&cfg, path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// PortKind mirrors midi.EndpointKind for the config-level {None, Default,
// All, ByName(s)} variant, decoded from MetronomeConfig.Port.
type PortKind int

const (
	PortNone PortKind = iota
	PortDefault
	PortAll
	PortByName
)

// ParsedPort is the decoded form of a metronome.port string.
type ParsedPort struct {
	Kind PortKind
	Name string // only set when Kind == PortByName
}

// ParsePort decodes the metronome.port string value: "none", "default",
// "all", or any other string taken as a destination name (ByName).
func ParsePort(s string) ParsedPort {
	switch s {
	case "", "none":
		return ParsedPort{Kind: PortNone}
	case "default":
		return ParsedPort{Kind: PortDefault}
	case "all":
		return ParsedPort{Kind: PortAll}
	default:
		return ParsedPort{Kind: PortByName, Name: s}
	}
}
