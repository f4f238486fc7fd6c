package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/video"
)

func TestPresenterImplementsBackendInterfaces(t *testing.T) {
	var _ backend.Presenter = (*Presenter)(nil)
	var _ backend.InputSource = (*Presenter)(nil)
}

func TestPixelToShade_ExactDMGShades(t *testing.T) {
	assert.Equal(t, 0, pixelToShade(uint32(video.BlackColor)))
	assert.Equal(t, 1, pixelToShade(uint32(video.DarkGreyColor)))
	assert.Equal(t, 2, pixelToShade(uint32(video.LightGreyColor)))
	assert.Equal(t, 3, pixelToShade(uint32(video.WhiteColor)))
}

func TestPixelToShade_ArbitraryCGBColorFallsBackToLuminance(t *testing.T) {
	red := uint32(0xFF0000FF) // bright red, luma ~76 -> bucket 1
	assert.Equal(t, 1, pixelToShade(red))

	nearWhite := uint32(0xF0F0F0FF)
	assert.Equal(t, 3, pixelToShade(nearWhite))
}

func TestHalfBlockGlyph_FullBlockWhenShadesMatch(t *testing.T) {
	ch, fg, bg := halfBlockGlyph(2, 2)
	assert.Equal(t, '█', ch)
	assert.Equal(t, shadeColor[2], fg)
	assert.Equal(t, shadeColor[2], bg)
}

func TestHalfBlockGlyph_HalfBlockWhenShadesDiffer(t *testing.T) {
	ch, fg, bg := halfBlockGlyph(0, 3)
	assert.Equal(t, '▀', ch)
	assert.Equal(t, shadeColor[0], fg)
	assert.Equal(t, shadeColor[3], bg)
}

func TestToLower(t *testing.T) {
	assert.Equal(t, 'z', toLower('Z'))
	assert.Equal(t, 'z', toLower('z'))
	assert.Equal(t, '1', toLower('1'))
}

func TestHandleKey_EscapeRequestsQuit(t *testing.T) {
	p := New()
	assert.False(t, p.quit)

	p.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.True(t, p.quit)
}

func TestHandleKey_ArrowSetsHeldButton(t *testing.T) {
	p := New()

	p.handleKey(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	assert.True(t, p.held.Up)
}

func TestHandleKey_UppercaseRuneMapsToAction(t *testing.T) {
	p := New()

	p.handleKey(tcell.NewEventKey(tcell.KeyRune, 'Z', tcell.ModNone))
	assert.True(t, p.held.A)
}

func TestRuneMapping_CoversActionButtons(t *testing.T) {
	var state backend.ButtonState
	runeMapping['z'](&state, true)
	runeMapping['x'](&state, true)
	assert.True(t, state.A)
	assert.True(t, state.B)
}

func TestKeyMapping_CoversDirectionalButtons(t *testing.T) {
	var state backend.ButtonState
	for key, setter := range keyMapping {
		setter(&state, true)
		_ = key
	}
	assert.True(t, state.Up)
	assert.True(t, state.Down)
	assert.True(t, state.Left)
	assert.True(t, state.Right)
}
