package ui

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// timelineSeconds is how far ahead audio can be scheduled.
const timelineSeconds = 2

// AudioOutput is a device clock that accepts audio scheduled at absolute
// times on that clock.
type AudioOutput interface {
	// Now returns the current playback time in seconds.
	Now() float64
	SampleRate() int
	// Schedule queues one block of stereo audio to start at time at.
	// The output copies the samples.
	Schedule(at float64, left, right []float32)
	// Flush drops everything scheduled that has not played yet.
	Flush()
	Close() error
}

// AudioPlayer manages audio playback via oto.
// Scheduled samples land on an AudioTimeline which oto's player reads
// from in a pull model.
type AudioPlayer struct {
	player     *oto.Player
	timeline   *AudioTimeline
	sampleRate int
	closeOnce  sync.Once
}

// oto context singleton
var (
	otoCtx        *oto.Context
	otoSampleRate int
	otoInitOnce   sync.Once
	otoInitErr    error
)

// ensureOtoContext initializes the oto audio context on first use. Later
// calls get the same context, whatever rate they ask for.
func ensureOtoContext(sampleRate int) (*oto.Context, int, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   20 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoSampleRate = sampleRate
		<-readyChan
	})
	return otoCtx, otoSampleRate, otoInitErr
}

// NewAudioPlayer creates and starts a float32 stereo player.
func NewAudioPlayer(sampleRate int) (*AudioPlayer, error) {
	ctx, rate, err := ensureOtoContext(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	tl := NewAudioTimeline(rate * timelineSeconds)
	player := ctx.NewPlayer(tl)
	player.SetBufferSize(rate / 50 * bytesPerFrame)
	player.Play()

	return &AudioPlayer{
		player:     player,
		timeline:   tl,
		sampleRate: rate,
	}, nil
}

// Now returns the time of the frame currently leaving the player: frames
// read from the timeline minus what oto still holds.
func (a *AudioPlayer) Now() float64 {
	played := a.timeline.Position() - int64(a.player.BufferedSize()/bytesPerFrame)
	if played < 0 {
		played = 0
	}
	return float64(played) / float64(a.sampleRate)
}

// SampleRate returns the rate the device runs at.
func (a *AudioPlayer) SampleRate() int {
	return a.sampleRate
}

// Schedule places the block on the timeline at the nearest frame to at.
func (a *AudioPlayer) Schedule(at float64, left, right []float32) {
	a.timeline.Schedule(int64(math.Round(at*float64(a.sampleRate))), left, right)
}

// Flush silences the rest of the timeline.
func (a *AudioPlayer) Flush() {
	a.timeline.Clear()
}

// Close cleans up audio resources.
func (a *AudioPlayer) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.timeline.Close()
		err = a.player.Close()
	})
	return err
}
