package headless

import "github.com/gbcore-dev/pocketgb/internal/backend"

// NullAudioSink discards audio entirely. Useful for scripted runs that
// never open a real audio device.
type NullAudioSink struct{}

func (NullAudioSink) Init(sampleRate int) error { return nil }

func (NullAudioSink) QueueSamples(provider backend.SampleProvider) error {
	return nil
}

func (NullAudioSink) Close() error { return nil }

// NullInputSource never reports a pressed button and never quits on its
// own; a caller driving a fixed number of frames stops the loop itself.
type NullInputSource struct{}

func (NullInputSource) Poll() (backend.ButtonState, bool, error) {
	return backend.ButtonState{}, false, nil
}
