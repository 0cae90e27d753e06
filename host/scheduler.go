package host

import (
	"math"
	"math/bits"
	"time"
)

// DefaultClockHz is the bundled core's clock rate.
const DefaultClockHz = 4194304

// DefaultFPSReportInterval is how often the measured frame rate is
// reported.
const DefaultFPSReportInterval = 500 * time.Millisecond

// TickScheduler converts wall-clock time into a cycle budget and measures
// the rendered frame rate. It does arithmetic only; clamping the budget is
// the caller's policy.
type TickScheduler struct {
	clockHz     uint64
	reportEvery time.Duration

	lastTick   time.Time
	lastReport time.Time
	frames     int
}

// NewTickScheduler creates a scheduler for a core clocked at clockHz that
// reports fps at most once per reportEvery.
func NewTickScheduler(clockHz uint64, reportEvery time.Duration) *TickScheduler {
	return &TickScheduler{
		clockHz:     clockHz,
		reportEvery: reportEvery,
	}
}

// Reset re-anchors both timestamps to now and zeroes the frame counter.
func (s *TickScheduler) Reset(now time.Time) {
	s.lastTick = now
	s.lastReport = now
	s.frames = 0
}

// CalculateTicksToRun returns the cycles owed since the previous call, or
// one second's worth when turbo is set. now always becomes the new
// reference point, so a second call with the same now returns 0.
func (s *TickScheduler) CalculateTicksToRun(now time.Time, turbo bool) uint64 {
	elapsed := now.Sub(s.lastTick)
	s.lastTick = now
	if turbo {
		return s.clockHz
	}
	if elapsed <= 0 {
		return 0
	}
	return cyclesFor(elapsed, s.clockHz)
}

// RecordFrameDraw counts one rendered frame.
func (s *TickScheduler) RecordFrameDraw() {
	s.frames++
}

// ReportFPS returns the frame rate since the last report once reportEvery
// has passed, and resets the counter. ok is false when no report is due.
func (s *TickScheduler) ReportFPS(now time.Time) (fps float64, ok bool) {
	elapsed := now.Sub(s.lastReport)
	if elapsed < s.reportEvery || elapsed <= 0 {
		return 0, false
	}
	fps = float64(s.frames) / elapsed.Seconds()
	s.frames = 0
	s.lastReport = now
	return fps, true
}

// cyclesFor computes elapsed*clockHz/1s without intermediate overflow,
// saturating at MaxUint64.
func cyclesFor(elapsed time.Duration, clockHz uint64) uint64 {
	hi, lo := bits.Mul64(uint64(elapsed), clockHz)
	if hi >= uint64(time.Second) {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	return q
}
