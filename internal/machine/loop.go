package machine

import (
	"log/slog"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/memory"
	"github.com/gbcore-dev/pocketgb/internal/timing"
)

// buttonKeys pairs each ButtonState field with its JoypadKey, in a fixed
// order so Run can diff old/new state without reflection.
var buttonKeys = []struct {
	get func(backend.ButtonState) bool
	key memory.JoypadKey
}{
	{func(b backend.ButtonState) bool { return b.Up }, memory.JoypadUp},
	{func(b backend.ButtonState) bool { return b.Down }, memory.JoypadDown},
	{func(b backend.ButtonState) bool { return b.Left }, memory.JoypadLeft},
	{func(b backend.ButtonState) bool { return b.Right }, memory.JoypadRight},
	{func(b backend.ButtonState) bool { return b.A }, memory.JoypadA},
	{func(b backend.ButtonState) bool { return b.B }, memory.JoypadB},
	{func(b backend.ButtonState) bool { return b.Start }, memory.JoypadStart},
	{func(b backend.ButtonState) bool { return b.Select }, memory.JoypadSelect},
}

// Run drives the emulator one frame at a time: poll input, run a frame,
// present it, queue audio, wait for the next frame's turn. It returns
// when input reports quit, or after maxFrames frames if maxFrames > 0.
func (e *Emulator) Run(presenter backend.Presenter, input backend.InputSource, sink backend.AudioSink, limiter timing.Limiter, maxFrames uint64) error {
	var held backend.ButtonState

	for {
		if maxFrames > 0 && e.frameCount >= maxFrames {
			return nil
		}

		state, quit, err := input.Poll()
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		e.applyButtonTransitions(held, state)
		held = state

		e.RunFrame()

		presentThisFrame := e.frameSkip == 0 || e.frameCount%uint64(e.frameSkip+1) == 0
		if presentThisFrame {
			if err := presenter.Present(e.GetCurrentFrame()); err != nil {
				return err
			}
		}
		if sink != nil {
			if err := sink.QueueSamples(e.apu); err != nil {
				slog.Warn("audio sink failed to queue samples", "error", err)
			}
		}

		limiter.WaitForNextFrame()
	}
}

func (e *Emulator) applyButtonTransitions(old, next backend.ButtonState) {
	for _, b := range buttonKeys {
		wasDown := b.get(old)
		isDown := b.get(next)
		if isDown && !wasDown {
			e.HandleKeyPress(b.key)
		} else if wasDown && !isDown {
			e.HandleKeyRelease(b.key)
		}
	}
}
