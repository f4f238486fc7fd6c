//go:build gbsdl2

package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/gbcore-dev/pocketgb/internal/backend"
)

func TestKeyMapping_DirectionalAndActionKeys(t *testing.T) {
	var state backend.ButtonState

	keyMapping[sdl.K_UP](&state, true)
	keyMapping[sdl.K_z](&state, true)
	keyMapping[sdl.K_RETURN](&state, true)

	assert.True(t, state.Up)
	assert.True(t, state.A)
	assert.True(t, state.Start)
}

func TestImplementsBackendInterfaces(t *testing.T) {
	var _ backend.Presenter = (*Backend)(nil)
	var _ backend.InputSource = (*Backend)(nil)
	var _ backend.AudioSink = (*Audio)(nil)
}
