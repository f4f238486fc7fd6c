// Package serial implements the Game Boy link-cable port as a pluggable
// device behind the MMU. No physical link partner is modeled; the only
// implementation shipped is a logging sink useful for test ROMs that print
// their results over serial.
package serial

import (
	"log/slog"

	"github.com/gbcore-dev/pocketgb/internal/addr"
	"github.com/gbcore-dev/pocketgb/internal/bit"
)

// Port is the interface the MMU drives the serial peripheral through.
type Port interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	// Tick advances the device by the given number of cycles, completing any
	// in-flight transfer and requesting the Serial interrupt when it finishes.
	Tick(cycles int)
	Reset()
}

// LogSink is a dummy serial device that logs outgoing bytes as text. Handy
// for test ROMs (e.g. blargg's) that report pass/fail over the link port.
type LogSink struct {
	irqHandler     func()
	sb, sc         byte
	transferActive bool
	countdown      int
	logger         *slog.Logger

	immediate bool
	defaultRX byte

	line []byte
}

// Option configures a LogSink.
type Option func(*LogSink)

// WithFixedTiming makes transfers complete after a fixed countdown (~4096
// CPU cycles per byte on DMG) instead of instantly, for timing-sensitive ROMs.
func WithFixedTiming() Option { return func(s *LogSink) { s.immediate = false } }

// NewLogSink creates a logging serial device. irq is called whenever a
// transfer completes and should be wired to request the Serial interrupt.
func NewLogSink(irq func(), opts ...Option) *LogSink {
	s := &LogSink{
		irqHandler: irq,
		immediate:  true,
		defaultRX:  0xFF,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

func (s *LogSink) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value
		s.maybeStartTransfer()
	default:
		panic("serial.LogSink: invalid write address")
	}
}

func (s *LogSink) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		// unused bits read back as 1
		return s.sc | 0x7E
	default:
		panic("serial.LogSink: invalid read address")
	}
}

func (s *LogSink) Tick(cycles int) {
	if s.immediate || !s.transferActive {
		return
	}
	s.countdown -= cycles
	if s.countdown <= 0 {
		s.completeTransfer()
	}
}

func (s *LogSink) Reset() {
	s.sb = 0x00
	s.sc = 0x00
	s.transferActive = false
	s.countdown = 0
	s.line = s.line[:0]
}

func (s *LogSink) maybeStartTransfer() {
	if s.transferActive {
		return
	}
	// a transfer starts when bit 7 (start) and bit 0 (clock source) of SC are set.
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	b := s.sb
	if b == 0 || b == '\n' || b == '\r' {
		if len(s.line) > 0 {
			s.logger.Info("serial", "line", string(s.line))
			s.line = s.line[:0]
		}
	} else {
		s.line = append(s.line, b)
	}

	if s.immediate {
		s.completeTransfer()
		return
	}

	s.transferActive = true
	s.countdown = 4096
}

func (s *LogSink) completeTransfer() {
	s.sb = s.defaultRX
	s.sc = bit.Clear(7, s.sc)
	s.transferActive = false
	s.countdown = 0
	if s.irqHandler != nil {
		s.irqHandler()
	}
}
