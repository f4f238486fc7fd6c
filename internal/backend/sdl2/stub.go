//go:build !gbsdl2

// Package sdl2 implements a Presenter/InputSource (Backend) and an
// AudioSink (Audio) on top of SDL2. The real implementation is gated
// behind the gbsdl2 build tag since it requires the SDL2 shared library
// at link time; without the tag these stubs report themselves
// unavailable so the rest of the module still builds everywhere.
package sdl2

import (
	"errors"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/video"
)

var errUnavailable = errors.New("sdl2: backend built without the gbsdl2 build tag")

// Backend is a window-backed Presenter and keyboard InputSource.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) Init(title string, scale int) error { return errUnavailable }

func (b *Backend) Present(frame *video.FrameBuffer) error { return errUnavailable }

func (b *Backend) Poll() (backend.ButtonState, bool, error) {
	return backend.ButtonState{}, false, errUnavailable
}

func (b *Backend) Close() error { return nil }

// Audio is an SDL2 audio-device-backed AudioSink.
type Audio struct{}

func NewAudio() *Audio { return &Audio{} }

func (a *Audio) Init(sampleRate int) error { return errUnavailable }

func (a *Audio) QueueSamples(provider backend.SampleProvider) error { return errUnavailable }

func (a *Audio) Close() error { return nil }
