package host

import (
	"fmt"
	"time"
)

// Worker defaults.
const (
	DefaultRunawayThreshold = 4_000_000
	DefaultTurboBudget      = 1_000_000
	DefaultFrameInterval    = time.Second / 60
)

// Pacing selects what drives forward emulation.
type Pacing int

const (
	// PacingTimer steps the core on every timer pass by the wall-clock
	// budget.
	PacingTimer Pacing = iota
	// PacingAudio steps the core only to satisfy RunForSamples. Timer
	// passes still service rewind, turbo and fps reports.
	PacingAudio
)

func (p Pacing) String() string {
	switch p {
	case PacingTimer:
		return "timer"
	case PacingAudio:
		return "audio"
	default:
		return fmt.Sprintf("pacing(%d)", int(p))
	}
}

// ParsePacing converts "timer" or "audio" to a Pacing.
func ParsePacing(s string) (Pacing, error) {
	switch s {
	case "timer", "":
		return PacingTimer, nil
	case "audio":
		return PacingAudio, nil
	default:
		return 0, fmt.Errorf("unknown pacing %q", s)
	}
}

// Options are the worker's fixed parameters.
type Options struct {
	ClockHz           uint64
	RewindCapacity    int
	FPSReportInterval time.Duration
	FrameInterval     time.Duration // delay between timer passes
	RunawayThreshold  uint64
	TurboBudget       uint64
	Pacing            Pacing
}

// DefaultOptions returns the options for the bundled core.
func DefaultOptions() Options {
	return Options{
		ClockHz:           DefaultClockHz,
		RewindCapacity:    DefaultRewindCapacity,
		FPSReportInterval: DefaultFPSReportInterval,
		FrameInterval:     DefaultFrameInterval,
		RunawayThreshold:  DefaultRunawayThreshold,
		TurboBudget:       DefaultTurboBudget,
		Pacing:            PacingTimer,
	}
}
