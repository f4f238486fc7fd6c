// Package machine wires the CPU, MMU, PPU and APU into the runnable
// emulator core: one frame of emulation is "tick the CPU until 70224
// base-clock cycles have elapsed, feeding every subsystem the same
// cycle count," matching spec.md §5's frame model.
package machine

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gbcore-dev/pocketgb/internal/audio"
	"github.com/gbcore-dev/pocketgb/internal/config"
	"github.com/gbcore-dev/pocketgb/internal/cpu"
	"github.com/gbcore-dev/pocketgb/internal/memory"
	"github.com/gbcore-dev/pocketgb/internal/timing"
	"github.com/gbcore-dev/pocketgb/internal/video"
)

// bootDIVSeed matches the post-boot-ROM DIV value real DMG hardware
// leaves behind, since boot-ROM execution itself is out of scope.
const bootDIVSeed = 0xABCC

// Emulator is the root struct tying the CPU/MMU/PPU/APU together and
// driving them one frame at a time.
type Emulator struct {
	cpu *cpu.CPU
	gpu *video.GPU
	apu *audio.APU
	mem *memory.MMU

	frameCount       uint64
	instructionCount uint64

	frameSkip int
}

// New creates an emulator with no cartridge loaded, equivalent to
// powering on with an empty slot, using config.Default().
func New() *Emulator {
	return NewWithConfig(config.Default(), memory.NewCartridge())
}

// NewWithFile loads a ROM image from path and creates an emulator for it,
// using config.Default().
func NewWithFile(path string) (*Emulator, error) {
	return NewWithFileAndConfig(path, config.Default())
}

// NewWithFileAndConfig loads a ROM image from path under an explicit
// configuration (model override, sample rate, debug logging).
func NewWithFileAndConfig(path string, cfg config.Config) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("machine: read ROM: %w", err)
	}

	cart, ok := memory.NewCartridgeFromData(data)
	if !ok {
		return nil, fmt.Errorf("machine: %s is too small to be a valid cartridge image", path)
	}

	return NewWithConfig(cfg, cart), nil
}

// NewWithConfig creates an emulator for cart under an explicit
// configuration, rather than relying on package-level defaults.
func NewWithConfig(cfg config.Config, cart *memory.Cartridge) *Emulator {
	if cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	mem := memory.NewWithCartridge(cart, nil)
	mem.SetTimerSeed(bootDIVSeed)

	switch cfg.Model {
	case config.ModelDMG:
		mem.SetCGBMode(false)
	case config.ModelCGB:
		mem.SetCGBMode(true)
	case config.ModelAuto:
		// NewWithCartridge already set CGB mode from the cartridge header.
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	apu := audio.NewWithSampleRate(sampleRate)
	mem.SetAPU(apu)

	gpu := video.NewGpu(mem)
	gpu.SetHBlankDMAHook(mem.TickHBlankDMA)

	frameSkip := cfg.FrameSkip
	if frameSkip < 0 {
		frameSkip = 0
	}

	return &Emulator{
		cpu:       cpu.New(mem),
		gpu:       gpu,
		apu:       apu,
		mem:       mem,
		frameSkip: frameSkip,
	}
}

// RunFrame executes CPU instructions, feeding every subsystem the same
// cycle count, until a full frame's worth of base-clock cycles have
// elapsed. In double-speed mode the CPU itself runs at the doubled
// rate (more base cycles tick per real M-cycle), but the PPU, timer and
// serial port still only ever see half as many of those cycles per
// CPU.Step call, since they run at the fixed, non-doubled DMG rate.
func (e *Emulator) RunFrame() {
	total := 0
	for total < timing.CyclesPerFrame {
		cycles := e.cpu.Step()
		e.instructionCount++

		hardwareCycles := cycles
		if e.mem.DoubleSpeed() {
			hardwareCycles /= 2
		}

		e.mem.Tick(hardwareCycles)
		e.gpu.Tick(hardwareCycles)
		e.apu.Tick(hardwareCycles)

		total += cycles
	}
	e.frameCount++
}

// GetCurrentFrame returns the last frame the PPU finished rendering.
func (e *Emulator) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

// GetSamples pulls mixed stereo PCM samples from the APU, for an
// AudioSink to queue for playback.
func (e *Emulator) GetSamples(count int) []int16 {
	return e.apu.GetSamples(count)
}

func (e *Emulator) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

func (e *Emulator) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

func (e *Emulator) GetCPU() *cpu.CPU {
	return e.cpu
}

func (e *Emulator) GetMMU() *memory.MMU {
	return e.mem
}

func (e *Emulator) GetAPU() *audio.APU {
	return e.apu
}

func (e *Emulator) FrameCount() uint64 {
	return e.frameCount
}

func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}
