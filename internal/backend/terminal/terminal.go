// Package terminal implements a Presenter and InputSource on top of
// tcell, rendering frames as half-block Unicode glyphs in a terminal
// window. Two vertically stacked pixels share one character cell, one
// as the glyph's foreground color and the other as its background.
package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/gbcore-dev/pocketgb/internal/backend"
	"github.com/gbcore-dev/pocketgb/internal/video"
)

// keyMapping binds terminal keys to Game Boy buttons: arrow keys for the
// d-pad and Enter for Start. Letter keys are in runeMapping: Z/X for A/B,
// S for Start and A for Select.
var keyMapping = map[tcell.Key]func(*backend.ButtonState, bool){
	tcell.KeyUp:    func(b *backend.ButtonState, v bool) { b.Up = v },
	tcell.KeyDown:  func(b *backend.ButtonState, v bool) { b.Down = v },
	tcell.KeyLeft:  func(b *backend.ButtonState, v bool) { b.Left = v },
	tcell.KeyRight: func(b *backend.ButtonState, v bool) { b.Right = v },
	tcell.KeyEnter: func(b *backend.ButtonState, v bool) { b.Start = v },
}

var runeMapping = map[rune]func(*backend.ButtonState, bool){
	'z': func(b *backend.ButtonState, v bool) { b.A = v },
	'x': func(b *backend.ButtonState, v bool) { b.B = v },
	's': func(b *backend.ButtonState, v bool) { b.Start = v },
	'a': func(b *backend.ButtonState, v bool) { b.Select = v },
}

// Presenter renders frames and polls the keyboard for a single tcell
// screen; it implements both backend.Presenter and backend.InputSource
// since both need the same underlying screen.
type Presenter struct {
	screen tcell.Screen
	held   backend.ButtonState
	quit   bool
}

func New() *Presenter {
	return &Presenter{}
}

func (p *Presenter) Init(title string, scale int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.Clear()
	screen.SetTitle(title)
	p.screen = screen
	return nil
}

func (p *Presenter) Close() error {
	if p.screen != nil {
		p.screen.Fini()
	}
	return nil
}

func (p *Presenter) Present(frame *video.FrameBuffer) error {
	p.drainEvents()
	if p.screen == nil {
		return nil
	}

	for row := 0; row < video.FramebufferHeight; row += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			top := pixelToShade(frame.GetPixel(uint(x), uint(row)))
			bottom := 3
			if row+1 < video.FramebufferHeight {
				bottom = pixelToShade(frame.GetPixel(uint(x), uint(row+1)))
			}
			ch, fg, bg := halfBlockGlyph(top, bottom)
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			p.screen.SetContent(x, row/2, ch, nil, style)
		}
	}
	p.screen.Show()
	return nil
}

// Poll drains pending key events since the last call and returns the
// buttons pressed since the previous Poll (then clears them) along with
// whether the terminal requested quit (Escape or Ctrl+C).
func (p *Presenter) Poll() (backend.ButtonState, bool, error) {
	p.drainEvents()
	state := p.held
	p.held = backend.ButtonState{}
	return state, p.quit, nil
}

func (p *Presenter) drainEvents() {
	if p.screen == nil {
		return
	}
	for p.screen.HasPendingEvent() {
		switch ev := p.screen.PollEvent().(type) {
		case *tcell.EventKey:
			p.handleKey(ev)
		case *tcell.EventResize:
			p.screen.Sync()
		}
	}
}

func (p *Presenter) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape || (ev.Key() == tcell.KeyCtrlC) {
		p.quit = true
		return
	}
	// tcell reports a key release as a fresh KeyRune/KeyDown event with
	// no explicit "up" notion in the default terminal driver, so button
	// state here tracks "was pressed this poll" rather than true hold;
	// callers release on the next poll with no matching event.
	if setter, ok := keyMapping[ev.Key()]; ok {
		setter(&p.held, true)
		return
	}
	if setter, ok := runeMapping[toLower(ev.Rune())]; ok {
		setter(&p.held, true)
	}
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}

// pixelToShade buckets an RGBA8888 pixel into one of 4 luminance levels.
// DMG output only ever produces the 4 exact shade constants; CGB output
// is arbitrary true color, so anything that isn't one of those 4 exact
// values falls back to a perceptual-luminance bucket.
func pixelToShade(pixel uint32) int {
	switch pixel {
	case uint32(video.BlackColor):
		return 0
	case uint32(video.DarkGreyColor):
		return 1
	case uint32(video.LightGreyColor):
		return 2
	case uint32(video.WhiteColor):
		return 3
	}

	r := (pixel >> 24) & 0xFF
	g := (pixel >> 16) & 0xFF
	b := (pixel >> 8) & 0xFF
	luma := (r*299 + g*587 + b*114) / 1000
	switch {
	case luma < 64:
		return 0
	case luma < 128:
		return 1
	case luma < 192:
		return 2
	default:
		return 3
	}
}

var shadeColor = [4]tcell.Color{
	tcell.NewRGBColor(0, 0, 0),
	tcell.NewRGBColor(76, 76, 76),
	tcell.NewRGBColor(152, 152, 152),
	tcell.NewRGBColor(255, 255, 255),
}

// halfBlockGlyph renders two stacked pixel shades as a single cell: a
// full block when they match, otherwise a half-block with the top shade
// as foreground and the bottom as background.
func halfBlockGlyph(top, bottom int) (rune, tcell.Color, tcell.Color) {
	if top == bottom {
		return '█', shadeColor[top], shadeColor[bottom]
	}
	return '▀', shadeColor[top], shadeColor[bottom]
}
