package ui

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"
)

// ErrNoOutput is returned by operations that need an audio output when none
// could be created.
var ErrNoOutput = errors.New("no audio output")

// SinkConfig holds the scheduling parameters of an AudioSink.
type SinkConfig struct {
	Volume       float64
	LowWater     time.Duration // lead below which more samples are wanted
	SafetyMargin time.Duration // minimum lead before re-anchoring
	Lead         time.Duration // lead re-established on re-anchor
}

// DefaultSinkConfig returns the scheduling parameters used by the desktop
// frontend.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		Volume:       1.0,
		LowWater:     75 * time.Millisecond,
		SafetyMargin: 20 * time.Millisecond,
		Lead:         60 * time.Millisecond,
	}
}

// Recorder receives every block the sink schedules.
type Recorder interface {
	Write(left, right []float32) error
}

// AudioSink schedules interleaved stereo chunks gaplessly on an output clock.
// It keeps a next-playback time that advances by each chunk's duration and
// is re-anchored ahead of the clock whenever it falls behind.
//
// AudioSink is not safe for concurrent use; it belongs to the UI goroutine.
type AudioSink struct {
	newOutput func() (AudioOutput, error)
	out       AudioOutput
	cfg       SinkConfig
	next      float64 // seconds on the output clock
	stopped   bool
	recorder  Recorder
}

// NewAudioSink creates a sink and its first output.
func NewAudioSink(newOutput func() (AudioOutput, error), cfg SinkConfig) (*AudioSink, error) {
	s := &AudioSink{newOutput: newOutput, cfg: cfg}
	out, err := newOutput()
	if err != nil {
		return nil, fmt.Errorf("create audio output: %w", err)
	}
	s.out = out
	return s, nil
}

// SetRecorder attaches a recorder, or detaches it when r is nil.
func (s *AudioSink) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetVolume scales every chunk scheduled from now on.
func (s *AudioSink) SetVolume(v float64) {
	s.cfg.Volume = max(v, 0)
}

// Volume returns the current volume.
func (s *AudioSink) Volume() float64 {
	return s.cfg.Volume
}

// HandleAudio schedules one interleaved stereo chunk. A trailing odd sample
// is ignored. Chunks are dropped while stopped.
func (s *AudioSink) HandleAudio(samples []float32) {
	if s.stopped || s.out == nil {
		return
	}
	frames := len(samples) / 2
	if frames == 0 {
		return
	}

	vol := float32(s.cfg.Volume)
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = samples[2*i] * vol
		right[i] = samples[2*i+1] * vol
	}

	now := s.out.Now()
	if s.next <= now+s.cfg.SafetyMargin.Seconds() {
		s.next = now + s.cfg.Lead.Seconds()
	}
	s.out.Schedule(s.next, left, right)
	s.next += float64(frames) / float64(s.out.SampleRate())

	if s.recorder != nil {
		if err := s.recorder.Write(left, right); err != nil {
			log.Printf("Warning: audio recording stopped: %v", err)
			s.recorder = nil
		}
	}
}

// Lead returns how far scheduled audio extends past the output clock.
func (s *AudioSink) Lead() time.Duration {
	if s.out == nil {
		return 0
	}
	lead := s.next - s.out.Now()
	if lead <= 0 {
		return 0
	}
	return time.Duration(lead * float64(time.Second))
}

// NeedMoreSamples reports whether the scheduled lead has dropped below the
// low-water mark.
func (s *AudioSink) NeedMoreSamples() bool {
	if s.stopped || s.out == nil {
		return false
	}
	return s.Lead() < s.cfg.LowWater
}

// SamplesWanted returns the number of stereo frames that bring the lead back
// to twice the low-water mark.
func (s *AudioSink) SamplesWanted() int {
	if s.out == nil {
		return 0
	}
	short := (2 * s.cfg.LowWater) - s.Lead()
	if short <= 0 {
		return 0
	}
	return int(math.Ceil(short.Seconds() * float64(s.out.SampleRate())))
}

// Stop silences what is already scheduled and drops all audio until Reset.
func (s *AudioSink) Stop() {
	if !s.stopped && s.out != nil {
		s.out.Flush()
	}
	s.stopped = true
}

// Reset tears down the output and creates a fresh one with an empty
// timeline. It also clears a previous Stop.
func (s *AudioSink) Reset() error {
	if s.out != nil {
		if err := s.out.Close(); err != nil {
			log.Printf("Warning: closing audio output: %v", err)
		}
		s.out = nil
	}
	s.next = 0
	s.stopped = false

	out, err := s.newOutput()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	s.out = out
	return nil
}

// Close releases the output.
func (s *AudioSink) Close() error {
	if s.out == nil {
		return nil
	}
	err := s.out.Close()
	s.out = nil
	return err
}
