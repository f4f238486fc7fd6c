// Package timing paces the frame loop to the real hardware's refresh rate.
// None of this is exercised by the core itself — the core never sleeps —
// it exists for callers (CLI, backends) that run the loop against a wall
// clock instead of as fast as possible.
package timing

import "time"

// Limiter controls frame rate timing for the outer run loop.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after a pause or seek.
	Reset()
}

// NewNoOpLimiter returns a limiter that never blocks, for headless/benchmark runs.
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// Game Boy timing constants. CyclesPerFrame is expressed in base-clock
// (single-speed) cycles; double-speed mode halves the wall-clock time per
// machine cycle but does not change the cycle count that makes up a frame.
const (
	CyclesPerFrame = 70224
	CPUFrequency   = 4194304
)

// TargetFPS returns the exact Game Boy refresh rate (~59.7275 Hz).
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the wall-clock duration of a single frame at TargetFPS.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}
