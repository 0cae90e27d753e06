// Package config holds the runtime parameters of the host, loaded from a
// YAML file with defaults for anything missing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/user-none/partyboy/host"
	"gopkg.in/yaml.v3"
)

const currentVersion = 1

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete set of host parameters.
type Config struct {
	Version int `yaml:"version"`

	ClockHz           uint64        `yaml:"clock_hz"`
	RewindCapacity    int           `yaml:"rewind_capacity"`
	FPSReportInterval time.Duration `yaml:"fps_report_interval"`
	FrameInterval     time.Duration `yaml:"frame_interval"`
	RunawayThreshold  uint64        `yaml:"runaway_threshold"`
	TurboBudget       uint64        `yaml:"turbo_budget"`
	Pacing            string        `yaml:"pacing"` // "timer" or "audio"
	ChannelBuffer     int           `yaml:"channel_buffer"`

	Audio  Audio  `yaml:"audio"`
	Window Window `yaml:"window"`
}

// Audio configures the audio sink.
type Audio struct {
	SampleRate   int           `yaml:"sample_rate"`
	Volume       float64       `yaml:"volume"`
	LowWater     time.Duration `yaml:"low_water"`
	SafetyMargin time.Duration `yaml:"safety_margin"`
	Lead         time.Duration `yaml:"lead"`
}

// Window configures the desktop frontend.
type Window struct {
	Scale   int  `yaml:"scale"`
	ShowFPS bool `yaml:"show_fps"`
}

// Default returns the configuration for the bundled core.
func Default() *Config {
	opts := host.DefaultOptions()
	return &Config{
		Version:           currentVersion,
		ClockHz:           opts.ClockHz,
		RewindCapacity:    opts.RewindCapacity,
		FPSReportInterval: opts.FPSReportInterval,
		FrameInterval:     opts.FrameInterval,
		RunawayThreshold:  opts.RunawayThreshold,
		TurboBudget:       opts.TurboBudget,
		Pacing:            opts.Pacing.String(),
		ChannelBuffer:     256,
		Audio: Audio{
			SampleRate:   48000,
			Volume:       1.0,
			LowWater:     75 * time.Millisecond,
			SafetyMargin: 20 * time.Millisecond,
			Lead:         60 * time.Millisecond,
		},
		Window: Window{
			Scale:   3,
			ShowFPS: true,
		},
	}
}

// Load reads the configuration at path. A missing file yields defaults;
// fields absent from the file keep their default values. A corrupted or
// invalid file is an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if cfg.Version == 0 {
		cfg.Version = currentVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation after load: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path atomically.
func Save(fs afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the host cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ClockHz == 0:
		return fmt.Errorf("%w: clock_hz must be positive", ErrInvalid)
	case c.RewindCapacity < 1:
		return fmt.Errorf("%w: rewind_capacity must be at least 1", ErrInvalid)
	case c.FPSReportInterval <= 0:
		return fmt.Errorf("%w: fps_report_interval must be positive", ErrInvalid)
	case c.FrameInterval <= 0:
		return fmt.Errorf("%w: frame_interval must be positive", ErrInvalid)
	case c.RunawayThreshold == 0:
		return fmt.Errorf("%w: runaway_threshold must be positive", ErrInvalid)
	case c.TurboBudget == 0:
		return fmt.Errorf("%w: turbo_budget must be positive", ErrInvalid)
	case c.ChannelBuffer < 1:
		return fmt.Errorf("%w: channel_buffer must be at least 1", ErrInvalid)
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("%w: audio.sample_rate must be positive", ErrInvalid)
	case c.Audio.Volume < 0:
		return fmt.Errorf("%w: audio.volume must not be negative", ErrInvalid)
	case c.Audio.LowWater <= 0 || c.Audio.Lead <= 0 || c.Audio.SafetyMargin < 0:
		return fmt.Errorf("%w: audio timings must be positive", ErrInvalid)
	case c.Window.Scale < 1:
		return fmt.Errorf("%w: window.scale must be at least 1", ErrInvalid)
	}
	if _, err := host.ParsePacing(c.Pacing); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// WorkerOptions converts the configuration to host.Options.
func (c *Config) WorkerOptions() (host.Options, error) {
	pacing, err := host.ParsePacing(c.Pacing)
	if err != nil {
		return host.Options{}, err
	}
	return host.Options{
		ClockHz:           c.ClockHz,
		RewindCapacity:    c.RewindCapacity,
		FPSReportInterval: c.FPSReportInterval,
		FrameInterval:     c.FrameInterval,
		RunawayThreshold:  c.RunawayThreshold,
		TurboBudget:       c.TurboBudget,
		Pacing:            pacing,
	}, nil
}
