package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ModelAuto, cfg.Model)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 0, cfg.FrameSkip)
	assert.False(t, cfg.Debug)
}
