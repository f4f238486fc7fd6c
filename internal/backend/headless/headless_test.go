package headless_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/backend/headless"
	"github.com/gbcore-dev/pocketgb/internal/video"
)

func TestPresenterImplementsBackendInterfaces(t *testing.T) {
	var _ backend.Presenter = (*headless.Presenter)(nil)
	var _ backend.AudioSink = headless.NullAudioSink{}
	var _ backend.InputSource = headless.NullInputSource{}
}

func TestPresenter_PresentNeverErrorsWithoutSnapshotting(t *testing.T) {
	p := headless.New(headless.SnapshotConfig{})
	assert.NoError(t, p.Init("test", 1))

	frame := video.NewFrameBuffer()
	for i := 0; i < 5; i++ {
		assert.NoError(t, p.Present(frame))
	}
	assert.NoError(t, p.Close())
}

func TestPresenter_SavesSnapshotOnInterval(t *testing.T) {
	dir := t.TempDir()
	p := headless.New(headless.SnapshotConfig{
		Interval:  2,
		Directory: dir,
		BaseName:  "frame",
	})
	assert.NoError(t, p.Init("test", 1))

	frame := video.NewFrameBuffer()
	for i := 0; i < 4; i++ {
		assert.NoError(t, p.Present(frame))
	}

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 2, "should snapshot frames 2 and 4 only")
	for _, e := range entries {
		assert.Equal(t, ".png", filepath.Ext(e.Name()))
	}
}

func TestNullInputSource_NeverQuits(t *testing.T) {
	var n headless.NullInputSource
	state, quit, err := n.Poll()
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, backend.ButtonState{}, state)
}

func TestNullAudioSink_IsANoOp(t *testing.T) {
	var s headless.NullAudioSink
	assert.NoError(t, s.Init(44100))
	assert.NoError(t, s.QueueSamples(nil))
	assert.NoError(t, s.Close())
}
