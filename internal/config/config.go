// Package config holds the emulator's explicit, top-level configuration:
// everything that would otherwise be a process global is a field here,
// constructed once and threaded through the machine at startup.
package config

// Model selects which console the cartridge should be booted as.
type Model int

const (
	// ModelAuto detects DMG vs CGB from the cartridge header's CGB flag,
	// matching what real hardware does when no model is forced.
	ModelAuto Model = iota
	ModelDMG
	ModelCGB
)

// Config is passed explicitly to machine.NewWithConfig/NewWithFileAndConfig
// (machine.New/NewWithFile use Default()) rather than
// read from package-level state, per spec.md §9's "no process globals"
// design note.
type Config struct {
	// Model overrides auto-detection from the cartridge header.
	Model Model

	// SampleRate is the host audio sample rate the APU resamples its
	// internal base-clock-driven PCM stream down to.
	SampleRate int

	// FrameSkip presents only every (FrameSkip+1)th frame; the core still
	// simulates every frame, this only throttles how often a Presenter is
	// asked to draw one. 0 presents every frame.
	FrameSkip int

	// Debug enables debug-level structured logging. No per-frame or
	// per-instruction trace messages are emitted at that level.
	Debug bool
}

// Default returns the configuration used when a caller doesn't need to
// override anything: auto-detected model, 44.1kHz audio, no frame skip.
func Default() Config {
	return Config{
		Model:      ModelAuto,
		SampleRate: 44100,
	}
}
