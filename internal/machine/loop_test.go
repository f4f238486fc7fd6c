package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/timing"
	"github.com/gbcore-dev/pocketgb/internal/video"
)

type fakePresenter struct {
	frames int
}

func (f *fakePresenter) Init(title string, scale int) error { return nil }
func (f *fakePresenter) Present(frame *video.FrameBuffer) error {
	f.frames++
	return nil
}
func (f *fakePresenter) Close() error { return nil }

type scriptedInput struct {
	states []backend.ButtonState
	i      int
}

func (s *scriptedInput) Poll() (backend.ButtonState, bool, error) {
	if s.i >= len(s.states) {
		return backend.ButtonState{}, true, nil
	}
	state := s.states[s.i]
	s.i++
	return state, false, nil
}

type fakeSink struct {
	queued int
}

func (f *fakeSink) Init(sampleRate int) error { return nil }
func (f *fakeSink) QueueSamples(provider backend.SampleProvider) error {
	f.queued++
	return nil
}
func (f *fakeSink) Close() error { return nil }

func TestRun_StopsWhenInputSignalsQuit(t *testing.T) {
	emu := New()
	presenter := &fakePresenter{}
	input := &scriptedInput{states: []backend.ButtonState{{}, {}, {A: true}}}
	sink := &fakeSink{}

	err := emu.Run(presenter, input, sink, timing.NewNoOpLimiter(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 3, presenter.frames, "should present one frame per polled input before quitting")
	assert.Equal(t, 3, sink.queued)
}

func TestRun_StopsAtMaxFrames(t *testing.T) {
	emu := New()
	presenter := &fakePresenter{}
	input := &scriptedInput{states: make([]backend.ButtonState, 100)}

	err := emu.Run(presenter, input, nil, timing.NewNoOpLimiter(), 5)

	assert.NoError(t, err)
	assert.Equal(t, 5, presenter.frames)
	assert.Equal(t, uint64(5), emu.FrameCount())
}

func TestRun_ButtonPressHoldReleaseSequenceRunsEveryFrame(t *testing.T) {
	emu := New()
	presenter := &fakePresenter{}
	input := &scriptedInput{states: []backend.ButtonState{
		{A: true}, // press
		{A: true}, // hold
		{},        // release
	}}

	err := emu.Run(presenter, input, nil, timing.NewNoOpLimiter(), 0)

	assert.NoError(t, err)
	assert.Equal(t, 3, presenter.frames)
}
