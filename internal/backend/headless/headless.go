// Package headless implements a Presenter that does no rendering, for
// test harnesses and scripted runs. It optionally dumps PNG snapshots at
// a fixed frame interval, adapted from the teacher's snapshot dumper.
package headless

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gbcore-dev/pocketgb/internal/video"
)

// SnapshotConfig controls periodic PNG dumps of the presented frame.
// A zero value disables snapshotting entirely.
type SnapshotConfig struct {
	Interval  int    // dump every Interval frames; 0 disables
	Directory string // destination directory, created if missing
	BaseName  string // filename prefix; frame number is appended
}

// Presenter discards frames, optionally saving a PNG snapshot every
// Snapshot.Interval frames.
type Presenter struct {
	Snapshot SnapshotConfig

	frameCount int
}

func New(snapshot SnapshotConfig) *Presenter {
	return &Presenter{Snapshot: snapshot}
}

func (p *Presenter) Init(title string, scale int) error {
	if p.Snapshot.Interval > 0 {
		if err := os.MkdirAll(p.Snapshot.Directory, 0o755); err != nil {
			return fmt.Errorf("headless: create snapshot directory: %w", err)
		}
	}
	return nil
}

func (p *Presenter) Present(frame *video.FrameBuffer) error {
	p.frameCount++
	if p.Snapshot.Interval > 0 && p.frameCount%p.Snapshot.Interval == 0 {
		return p.saveSnapshot(frame)
	}
	return nil
}

func (p *Presenter) Close() error {
	return nil
}

func (p *Presenter) saveSnapshot(frame *video.FrameBuffer) error {
	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			pixel := frame.GetPixel(uint(x), uint(y))
			img.Set(x, y, color.RGBA{
				R: byte(pixel >> 24),
				G: byte(pixel >> 16),
				B: byte(pixel >> 8),
				A: byte(pixel),
			})
		}
	}

	name := fmt.Sprintf("%s_%06d.png", p.Snapshot.BaseName, p.frameCount)
	path := filepath.Join(p.Snapshot.Directory, name)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("headless: encode snapshot: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
