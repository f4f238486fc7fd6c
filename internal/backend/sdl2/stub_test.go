//go:build !gbsdl2

package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gbcore-dev/pocketgb/internal/backend"
)

func TestStubImplementsBackendInterfaces(t *testing.T) {
	var _ backend.Presenter = (*Backend)(nil)
	var _ backend.InputSource = (*Backend)(nil)
	var _ backend.AudioSink = (*Audio)(nil)
}

func TestStub_ReportsUnavailable(t *testing.T) {
	b := New()
	assert.Error(t, b.Init("test", 1))
	assert.Error(t, b.Present(nil))

	_, _, err := b.Poll()
	assert.Error(t, err)

	a := NewAudio()
	assert.Error(t, a.Init(44100))
	assert.Error(t, a.QueueSamples(nil))
	assert.NoError(t, a.Close())
}
