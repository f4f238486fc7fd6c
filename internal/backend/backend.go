// Package backend defines the external collaborator interfaces the core
// hands frames, audio, and input through — window toolkits, audio APIs,
// and keyboard polling stay outside the emulation core itself (spec.md §1/§6).
package backend

import "github.com/gbcore-dev/pocketgb/internal/video"

// Presenter receives completed frames for display. Implementations own
// whatever window/terminal/texture state they need; Init/Close bracket
// that lifecycle.
type Presenter interface {
	Init(title string, scale int) error
	Present(frame *video.FrameBuffer) error
	Close() error
}

// SampleProvider is the read side of the APU a sink pulls mixed PCM
// samples from. audio.APU satisfies this without this package importing
// internal/audio directly.
type SampleProvider interface {
	GetSamples(count int) []int16
}

// AudioSink delivers APU output to a real audio device. QueueSamples is
// called once per frame; it's expected to pull only as many samples as
// the device's internal queue needs, not to block on playback.
type AudioSink interface {
	Init(sampleRate int) error
	QueueSamples(provider SampleProvider) error
	Close() error
}

// ButtonState is the 8-boolean joypad input described in spec.md §6.
type ButtonState struct {
	Up, Down, Left, Right bool
	A, B, Start, Select   bool
}

// InputSource polls for the current joypad button state once per frame.
type InputSource interface {
	Poll() (ButtonState, bool, error)
}

// Quit, when InputSource.Poll's second return value is true, signals the
// frame loop should stop (window closed, Ctrl+C, Escape, etc).
const Quit = true
