// Package cpu implements the SM83 (DMG/CGB) CPU core: registers, the
// fetch-decode-execute loop, interrupt servicing, HALT/STOP and CGB
// double-speed mode.
package cpu

import "github.com/gbcore-dev/pocketgb/internal/addr"

// Bus is the memory interface the CPU is driven through. internal/memory's
// MMU satisfies this; tests use smaller fakes.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// DoubleSpeed reports whether the color model's speed switch is active.
	DoubleSpeed() bool
	// RequestSpeedSwitch actuates a pending KEY1 speed-switch request, if any,
	// flipping DoubleSpeed and returning whether a switch actually occurred.
	RequestSpeedSwitch() bool
}

// flag bit positions within F, the low byte of AF.
type flag uint8

const (
	flagZ flag = 0x80
	flagN flag = 0x40
	flagH flag = 0x20
	flagC flag = 0x10
)

// State is one of the CPU's run states.
type State int

const (
	Running State = iota
	Halted
	Stopped
)

// CPU holds the SM83 register file and scheduling state.
type CPU struct {
	a, f, b, c, d, e, h, l uint8
	sp, pc                 uint16

	bus Bus

	interruptsEnabled bool
	eiPending         bool
	halted            bool
	haltBug           bool
	stopped           bool

	cycles uint64

	currentOpcode uint8
}

// New creates a CPU wired to bus, with registers at their DMG post-boot-ROM
// values (boot-ROM execution itself is out of scope; we start where it
// would have left off).
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.a, c.f = 0x01, 0xB0
	c.b, c.c = 0x00, 0x13
	c.d, c.e = 0x00, 0xD8
	c.h, c.l = 0x01, 0x4D
	c.sp = 0xFFFE
	c.pc = 0x0100
	return c
}

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.pc }

// SP returns the stack pointer.
func (c *CPU) SP() uint16 { return c.sp }

// Halted reports whether the CPU is in the HALT state.
func (c *CPU) Halted() bool { return c.halted }

// InterruptsEnabled reports the master interrupt-enable flag (IME).
func (c *CPU) InterruptsEnabled() bool { return c.interruptsEnabled }

// Cycles returns the running total of base-clock cycles consumed since New.
func (c *CPU) Cycles() uint64 { return c.cycles }

// RequestInterrupt sets the corresponding bit in IF, for peripherals (PPU,
// APU's frame sequencer never does directly, Timer, Serial, Joypad) that
// hold a back-reference to the interrupt line rather than to the CPU itself.
func (c *CPU) RequestInterrupt(kind addr.Interrupt) {
	iflag := c.bus.Read(addr.IF)
	c.bus.Write(addr.IF, iflag|uint8(kind))
}

// Step executes at most one instruction (or a 4-cycle idle while halted/
// stopped), services at most one pending interrupt, and returns the number
// of base-clock cycles elapsed.
func (c *CPU) Step() int {
	cyclesBefore := c.cycles

	imeBeforeInterruptCheck := c.interruptsEnabled
	interruptPending := c.handleInterrupts()
	dispatched := interruptPending && imeBeforeInterruptCheck

	if c.stopped {
		if interruptPending {
			c.stopped = false
		} else {
			c.addCycles(4)
			return int(c.cycles - cyclesBefore)
		}
	}

	if c.halted {
		if interruptPending {
			c.halted = false
			if !imeBeforeInterruptCheck {
				c.haltBug = true
			}
		} else {
			c.addCycles(4)
			return int(c.cycles - cyclesBefore)
		}
	}

	// handleInterrupts already pushed PC, jumped to the vector and charged
	// 20 cycles; fetching and executing here would run whatever opcode sits
	// at the vector address a second time.
	if dispatched {
		return int(c.cycles - cyclesBefore)
	}

	if c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	opcode := c.fetchOpcode()
	c.execute(opcode)

	return int(c.cycles - cyclesBefore)
}

// fetchOpcode reads the byte at PC. Under the halt bug the same byte is
// fetched twice in a row because PC fails to advance on the first fetch.
func (c *CPU) fetchOpcode() uint8 {
	op := c.bus.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
		return op
	}
	c.pc++
	return op
}

// handleInterrupts checks IE & IF & 0x1F. It always reports whether any
// interrupt line is pending (used to wake HALT/STOP regardless of IME), but
// only dispatches - push PC, jump to vector, clear IME and the IF bit - when
// the master enable is set.
func (c *CPU) handleInterrupts() bool {
	ie := c.bus.Read(addr.IE)
	iflag := c.bus.Read(addr.IF)
	pending := ie & iflag & 0x1F
	if pending == 0 {
		return false
	}

	if !c.interruptsEnabled {
		return true
	}

	var bitIndex uint8
	for bitIndex = 0; bitIndex < 5; bitIndex++ {
		if pending&(1<<bitIndex) != 0 {
			break
		}
	}

	c.interruptsEnabled = false
	c.bus.Write(addr.IF, iflag&^(1<<bitIndex))
	c.pushStack(c.pc)
	c.pc = []uint16{0x40, 0x48, 0x50, 0x58, 0x60}[bitIndex]
	c.addCycles(20)

	return true
}

// addCycles advances the running cycle total. Double speed mode does not
// change this count: it changes how many of these cycles elapse per second
// of wall-clock time, which is the concern of internal/timing and the
// peripherals' own double-speed halving, not of the CPU's own bookkeeping.
func (c *CPU) addCycles(n int) {
	c.cycles += uint64(n)
}
