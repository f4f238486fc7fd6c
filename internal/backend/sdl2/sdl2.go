//go:build gbsdl2

package sdl2

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/video"
)

// Backend is a window-backed Presenter and keyboard InputSource. SDL
// only allows event polling from the thread that initialized video, so
// Present and Poll are expected to be called from the same goroutine.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	held     backend.ButtonState
	quit     bool
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Init(title string, scale int) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl2: init: %w", err)
	}

	if scale <= 0 {
		scale = 1
	}
	w := int32(video.FramebufferWidth * scale)
	h := int32(video.FramebufferHeight * scale)

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("sdl2: create window: %w", err)
	}
	b.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return fmt.Errorf("sdl2: create renderer: %w", err)
	}
	b.renderer = renderer

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth, video.FramebufferHeight)
	if err != nil {
		return fmt.Errorf("sdl2: create texture: %w", err)
	}
	b.texture = texture

	return nil
}

func (b *Backend) Close() error {
	if b.texture != nil {
		b.texture.Destroy()
	}
	if b.renderer != nil {
		b.renderer.Destroy()
	}
	if b.window != nil {
		b.window.Destroy()
	}
	sdl.Quit()
	return nil
}

// Present packs the framebuffer's RGBA8888 pixels directly into the
// ABGR8888 streaming texture and renders it scaled to the window.
func (b *Backend) Present(frame *video.FrameBuffer) error {
	if b.texture == nil {
		return nil
	}

	pixels, _, err := b.texture.Lock(nil)
	if err != nil {
		return fmt.Errorf("sdl2: lock texture: %w", err)
	}

	src := frame.ToSlice()
	for i, p := range src {
		r := byte(p >> 24)
		g := byte(p >> 16)
		bl := byte(p >> 8)
		a := byte(p)
		pixels[i*4] = r
		pixels[i*4+1] = g
		pixels[i*4+2] = bl
		pixels[i*4+3] = a
	}
	b.texture.Unlock()

	b.renderer.Clear()
	b.renderer.Copy(b.texture, nil, nil)
	b.renderer.Present()
	return nil
}

var keyMapping = map[sdl.Keycode]func(*backend.ButtonState, bool){
	sdl.K_UP:     func(s *backend.ButtonState, v bool) { s.Up = v },
	sdl.K_DOWN:   func(s *backend.ButtonState, v bool) { s.Down = v },
	sdl.K_LEFT:   func(s *backend.ButtonState, v bool) { s.Left = v },
	sdl.K_RIGHT:  func(s *backend.ButtonState, v bool) { s.Right = v },
	sdl.K_z:      func(s *backend.ButtonState, v bool) { s.A = v },
	sdl.K_x:      func(s *backend.ButtonState, v bool) { s.B = v },
	sdl.K_RETURN: func(s *backend.ButtonState, v bool) { s.Start = v },
	sdl.K_RSHIFT: func(s *backend.ButtonState, v bool) { s.Select = v },
	sdl.K_LSHIFT: func(s *backend.ButtonState, v bool) { s.Select = v },
}

func (b *Backend) Poll() (backend.ButtonState, bool, error) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			b.quit = true
		case *sdl.KeyboardEvent:
			pressed := e.State == sdl.PRESSED
			if e.Keysym.Sym == sdl.K_ESCAPE && pressed {
				b.quit = true
				continue
			}
			if setter, ok := keyMapping[e.Keysym.Sym]; ok {
				setter(&b.held, pressed)
			}
		}
	}
	return b.held, b.quit, nil
}

// Audio is an SDL2 audio-device-backed AudioSink. Samples are queued
// directly from the interleaved stereo buffer the Provider returns — no
// mono-to-stereo duplication, since GetSamples already returns
// count interleaved L/R int16 pairs (count*2 values).
type Audio struct {
	device sdl.AudioDeviceID
}

func NewAudio() *Audio {
	return &Audio{}
}

func (a *Audio) Init(sampleRate int) error {
	spec := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: 2,
		Samples:  512,
	}
	device, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return fmt.Errorf("sdl2: open audio device: %w", err)
	}
	a.device = device
	sdl.PauseAudioDevice(device, false)
	return nil
}

func (a *Audio) QueueSamples(provider backend.SampleProvider) error {
	if a.device == 0 {
		return nil
	}

	const framesPerQueue = 512
	samples := provider.GetSamples(framesPerQueue)
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(uint16(s))
		buf[i*2+1] = byte(uint16(s) >> 8)
	}

	if err := sdl.QueueAudio(a.device, buf); err != nil {
		return fmt.Errorf("sdl2: queue audio: %w", err)
	}
	return nil
}

func (a *Audio) Close() error {
	if a.device != 0 {
		sdl.CloseAudioDevice(a.device)
	}
	return nil
}
