// Command pocketgb runs the emulator against a ROM file, presenting
// output through one of the terminal, SDL2 or headless backends.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/backend/headless"
	"github.com/gbcore-dev/pocketgb/internal/backend/sdl2"
	"github.com/gbcore-dev/pocketgb/internal/backend/terminal"
	"github.com/gbcore-dev/pocketgb/internal/config"
	"github.com/gbcore-dev/pocketgb/internal/machine"
	"github.com/gbcore-dev/pocketgb/internal/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "pocketgb"
	app.Usage = "pocketgb [options] <ROM file>"
	app.Description = "A Game Boy / Game Boy Color emulator"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom", Usage: "Path to the ROM file"},
		cli.StringFlag{Name: "backend", Value: "terminal", Usage: "Presenter backend: terminal, sdl2, or headless"},
		cli.IntFlag{Name: "scale", Value: 2, Usage: "Window scale factor (sdl2 backend only)"},
		cli.IntFlag{Name: "frames", Usage: "Stop after this many frames (0 = run until quit)"},
		cli.IntFlag{Name: "snapshot-interval", Usage: "Save a PNG snapshot every N frames (headless backend only, 0 = disabled)"},
		cli.StringFlag{Name: "snapshot-dir", Usage: "Directory to save snapshots into (headless backend only)"},
		cli.BoolFlag{Name: "mute", Usage: "Disable audio output"},
		cli.StringFlag{Name: "model", Value: "auto", Usage: "Console model: auto, dmg, or cgb"},
		cli.IntFlag{Name: "frame-skip", Usage: "Present only every (N+1)th frame"},
		cli.BoolFlag{Name: "debug", Usage: "Enable debug-level logging"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("pocketgb exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	cfg := config.Default()
	cfg.FrameSkip = c.Int("frame-skip")
	cfg.Debug = c.Bool("debug")
	switch c.String("model") {
	case "dmg":
		cfg.Model = config.ModelDMG
	case "cgb":
		cfg.Model = config.ModelCGB
	}

	emu, err := machine.NewWithFileAndConfig(romPath, cfg)
	if err != nil {
		return err
	}

	presenter, input, sink, limiter, err := buildBackend(c, emu)
	if err != nil {
		return err
	}
	defer presenter.Close()
	if sink != nil {
		defer sink.Close()
	}

	return emu.Run(presenter, input, sink, limiter, uint64(c.Int("frames")))
}

const audioSampleRate = 44100

func buildBackend(c *cli.Context, emu *machine.Emulator) (backend.Presenter, backend.InputSource, backend.AudioSink, timing.Limiter, error) {
	title := fmt.Sprintf("pocketgb - %s", romTitle(emu))
	scale := c.Int("scale")

	switch c.String("backend") {
	case "headless":
		snapshotInterval := c.Int("snapshot-interval")
		snapshotDir := c.String("snapshot-dir")
		if snapshotInterval > 0 && snapshotDir == "" {
			dir, err := os.MkdirTemp("", "pocketgb-snapshots-*")
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("create snapshot dir: %w", err)
			}
			snapshotDir = dir
		}

		p := headless.New(headless.SnapshotConfig{
			Interval:  snapshotInterval,
			Directory: snapshotDir,
			BaseName:  "frame",
		})
		if err := p.Init(title, scale); err != nil {
			return nil, nil, nil, nil, err
		}
		return p, headless.NullInputSource{}, headless.NullAudioSink{}, timing.NewNoOpLimiter(), nil

	case "sdl2":
		p := sdl2.New()
		if err := p.Init(title, scale); err != nil {
			return nil, nil, nil, nil, err
		}
		var sink backend.AudioSink
		if !c.Bool("mute") {
			a := sdl2.NewAudio()
			if err := a.Init(audioSampleRate); err == nil {
				sink = a
			} else {
				slog.Warn("sdl2 audio device unavailable, continuing muted", "error", err)
			}
		}
		return p, p, sink, timing.NewAdaptiveLimiter(), nil

	default:
		p := terminal.New()
		if err := p.Init(title, scale); err != nil {
			return nil, nil, nil, nil, err
		}
		// No audio device without the sdl2 backend; the terminal backend
		// runs silent.
		return p, p, nil, timing.NewAdaptiveLimiter(), nil
	}
}

func romTitle(emu *machine.Emulator) string {
	return emu.GetMMU().Cartridge().Title
}
