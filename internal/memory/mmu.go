package memory

import (
	"fmt"
	"log/slog"

	"github.com/gbcore-dev/pocketgb/internal/addr"
	"github.com/gbcore-dev/pocketgb/internal/bit"
	"github.com/gbcore-dev/pocketgb/internal/clock"
	"github.com/gbcore-dev/pocketgb/internal/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionUnused
	regionIO
	regionHRAM
)

// JoypadKey identifies one of the eight physical buttons.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Sound is the register-level interface the MMU drives the APU through,
// analogous to Port for serial. Left unset, audio register space just
// reads/writes as plain memory (no channels run) until internal/audio
// supplies an implementation.
type Sound interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// MMU is the full address-space router: cartridge ROM/RAM through the
// active MBC, banked VRAM/WRAM for CGB mode, OAM, I/O registers (joypad,
// serial, timer, APU, PPU, CGB palette RAM, HDMA/GDMA, speed switch) and
// HRAM.
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	regionMap [256]memRegion

	apu Sound

	joypadButtons uint8
	joypadDpad    uint8

	serial serial.Port
	timer  Timer

	// CGB vram/wram banking
	cgb        bool
	vramBank1  [0x2000]uint8
	vbk        uint8
	wramBanks  [8][0x1000]uint8 // index 0 unused; bank 0 writes alias to bank 1
	svbk       uint8

	// CGB speed switch
	key1 uint8

	// CGB HDMA/GDMA
	hdmaSrc       uint16
	hdmaDst       uint16
	hdmaLen       uint16 // remaining length in 0x10-byte blocks, minus one, while active
	hdmaActive    bool
	hdmaHBlank    bool
	hdma5         uint8

	// CGB palette RAM: 8 palettes x 4 colors x 2 bytes each
	bgPalette  [64]uint8
	objPalette [64]uint8
	bcps       uint8
	ocps       uint8
}

// New creates an MMU with no cartridge loaded, equivalent to powering on
// without a cartridge in the slot.
func New() *MMU {
	mmu := &MMU{
		memory:        make([]byte, 0x10000),
		cart:          NewCartridge(),
		joypadButtons: 0x0F,
		joypadDpad:    0x0F,
	}
	mmu.serial = serial.NewLogSink(func() { mmu.RequestInterrupt(addr.SerialInterrupt) })
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.TimerInterrupt) }
	initRegionMap(mmu)
	return mmu
}

// SetCGBMode toggles CGB-only register behavior (VBK/SVBK banking, palette
// RAM, HDMA, KEY1 double speed). DMG-mode machines ignore writes to these
// registers and read them back as 0xFF, matching real hardware.
func (m *MMU) SetCGBMode(enabled bool) {
	m.cgb = enabled
}

// SetAPU installs the sound register backend.
func (m *MMU) SetAPU(apu Sound) {
	m.apu = apu
}

// SetTimerSeed initializes the internal timer divider seed and DIV register.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// NewWithCartridge creates an MMU with the given cartridge's MBC wired in.
// clockSrc is only consulted for MBC3 carts with an RTC; pass nil to use
// the real wall clock.
func NewWithCartridge(cart *Cartridge, clockSrc clock.Source) *MMU {
	mmu := New()
	mmu.cart = cart

	switch cart.Type {
	case MBCNone:
		mmu.mbc = NewNoMBC(cart.Data())
	case MBCType1, MBCType1Multi:
		mmu.mbc = NewMBC1(cart.Data(), cart.RAMBankCount)
	case MBCType2:
		mmu.mbc = NewMBC2(cart.Data())
	case MBCType3:
		mmu.mbc = NewMBC3(cart.Data(), cart.RAMBankCount, cart.HasRTC, clockSrc)
	case MBCType5:
		mmu.mbc = NewMBC5(cart.Data(), cart.RAMBankCount, cart.HasRumble)
	default:
		slog.Warn("unsupported cartridge type, falling back to no-MBC mapping", "type", cart.Type)
		mmu.mbc = NewNoMBC(cart.Data())
	}

	mmu.SetCGBMode(cart.Color != DMGOnly)

	return mmu
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// Tick advances timer, serial and (when active) HBlank-mode HDMA.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
}

// TickHBlankDMA copies one 0x10-byte block of an active HBlank-mode HDMA
// transfer. The PPU calls this once per HBlank entry (spec.md §4.2); a
// general-purpose transfer completes synchronously on the HDMA5 write and
// this is a no-op once hdmaActive clears.
func (m *MMU) TickHBlankDMA() {
	if !m.hdmaActive || !m.hdmaHBlank {
		return
	}

	for i := uint16(0); i < 0x10; i++ {
		m.writeVRAM(m.hdmaDst+i, m.Read(m.hdmaSrc+i))
	}
	m.hdmaSrc += 0x10
	m.hdmaDst += 0x10

	if m.hdmaLen == 0 {
		m.hdmaActive = false
		m.hdma5 = 0xFF
		return
	}
	m.hdmaLen--
	m.hdma5 = uint8(m.hdmaLen & 0x7F)
}

// RequestInterrupt sets the IF bit for the given interrupt line.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	flags := m.Read(addr.IF)

	var bitPos uint8
	switch interrupt {
	case addr.VBlankInterrupt:
		bitPos = 0
	case addr.LCDSTATInterrupt:
		bitPos = 1
	case addr.TimerInterrupt:
		bitPos = 2
	case addr.SerialInterrupt:
		bitPos = 3
	case addr.JoypadInterrupt:
		bitPos = 4
	default:
		slog.Warn("unknown interrupt requested", "interrupt", fmt.Sprintf("0x%02X", uint8(interrupt)))
		return
	}

	m.Write(addr.IF, bit.Set(bitPos, flags))
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	m.Write(address, bit.SetTo(index, m.Read(address), set))
}

// ReadVRAMBank reads VRAM at address from the requested bank directly,
// bypassing the CPU-facing VBK selection register. The PPU needs this to
// read tile attributes from bank 1 and tile pixel data from whichever
// bank a tile's attribute byte selects, independent of what the CPU
// currently has banked in via VBK.
func (m *MMU) ReadVRAMBank(bank uint8, address uint16) uint8 {
	if bank == 1 {
		return m.vramBank1[address-addr.VRAMStart]
	}
	return m.memory[address]
}

// CGBMode reports whether CGB-only registers/behavior are active.
func (m *MMU) CGBMode() bool {
	return m.cgb
}

// Cartridge returns the inserted cartridge's parsed header, for callers
// that want the ROM's title or capabilities without reaching into
// internal MBC state.
func (m *MMU) Cartridge() *Cartridge {
	return m.cart
}

// BGPaletteColor returns the little-endian RGB555 color at (palette,
// colorIndex) in the CGB background palette RAM.
func (m *MMU) BGPaletteColor(palette, colorIndex uint8) uint16 {
	i := (palette&0x07)*8 + (colorIndex&0x03)*2
	return uint16(m.bgPalette[i]) | uint16(m.bgPalette[i+1])<<8
}

// ObjPaletteColor returns the little-endian RGB555 color at (palette,
// colorIndex) in the CGB object palette RAM.
func (m *MMU) ObjPaletteColor(palette, colorIndex uint8) uint16 {
	i := (palette&0x07)*8 + (colorIndex&0x03)*2
	return uint16(m.objPalette[i]) | uint16(m.objPalette[i+1])<<8
}

// DoubleSpeed reports whether the CPU is currently running at double
// speed, satisfying the cpu.Bus contract.
func (m *MMU) DoubleSpeed() bool {
	return bit.IsSet(7, m.key1)
}

// RequestSpeedSwitch actuates a pending CGB speed switch (armed by writing
// bit 0 of KEY1) and reports whether one was pending, satisfying the
// cpu.Bus contract consumed by STOP.
func (m *MMU) RequestSpeedSwitch() bool {
	if !m.cgb || m.key1&0x01 == 0 {
		return false
	}
	m.key1 = bit.SetTo(7, m.key1&0xFE, !bit.IsSet(7, m.key1))
	return true
}

func (m *MMU) writeVRAM(address uint16, value uint8) {
	if m.cgb && m.vbk&0x01 == 1 {
		m.vramBank1[address-addr.VRAMStart] = value
		return
	}
	m.memory[address] = value
}

func (m *MMU) readVRAM(address uint16) uint8 {
	if m.cgb && m.vbk&0x01 == 1 {
		return m.vramBank1[address-addr.VRAMStart]
	}
	return m.memory[address]
}

func (m *MMU) wramBankIndex() int {
	bank := int(m.svbk & 0x07)
	if bank == 0 {
		bank = 1
	}
	return bank
}

func (m *MMU) writeWRAM(address uint16, value uint8) {
	if address < addr.WRAMBankNStart {
		m.memory[address] = value
		return
	}
	if !m.cgb {
		m.memory[address] = value
		return
	}
	m.wramBanks[m.wramBankIndex()][address-addr.WRAMBankNStart] = value
}

func (m *MMU) readWRAM(address uint16) uint8 {
	if address < addr.WRAMBankNStart {
		return m.memory[address]
	}
	if !m.cgb {
		return m.memory[address]
	}
	return m.wramBanks[m.wramBankIndex()][address-addr.WRAMBankNStart]
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			slog.Warn("reading ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM:
		return m.readVRAM(address)
	case regionWRAM:
		return m.readWRAM(address)
	case regionEcho:
		return m.readWRAM(address - 0x2000)
	case regionOAM:
		return m.memory[address]
	case regionIO:
		return m.readIO(address)
	default:
		slog.Warn("read at unmapped address", "addr", fmt.Sprintf("0x%04X", address))
		return 0xFF
	}
}

func (m *MMU) readIO(address uint16) uint8 {
	switch {
	case address == addr.SB || address == addr.SC:
		return m.serial.Read(address)
	case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		return m.timer.Read(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		if m.apu != nil {
			return m.apu.ReadRegister(address)
		}
		return m.memory[address]
	case address == addr.IF:
		// upper 3 bits are unused and always read back as 1
		return m.memory[address] | 0xE0
	case !m.cgb && isCGBOnlyRegister(address):
		return 0xFF
	case address == addr.KEY1:
		return m.key1 | 0x7E
	case address == addr.VBK:
		return m.vbk | 0xFE
	case address == addr.SVBK:
		v := m.svbk & 0x07
		if v == 0 {
			v = 1
		}
		return v | 0xF8
	case address == addr.HDMA5:
		return m.hdma5
	case address == addr.BCPS:
		return m.bcps
	case address == addr.BCPD:
		v := m.bgPalette[m.bcps&0x3F]
		if m.bcps&0x80 != 0 {
			m.bcps = 0x80 | ((m.bcps + 1) & 0x3F)
		}
		return v
	case address == addr.OCPS:
		return m.ocps
	case address == addr.OCPD:
		v := m.objPalette[m.ocps&0x3F]
		if m.ocps&0x80 != 0 {
			m.ocps = 0x80 | ((m.ocps + 1) & 0x3F)
		}
		return v
	default:
		return m.memory[address]
	}
}

func isCGBOnlyRegister(address uint16) bool {
	switch address {
	case addr.KEY1, addr.VBK, addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4, addr.HDMA5,
		addr.BCPS, addr.BCPD, addr.OCPS, addr.OCPD, addr.OPRI, addr.SVBK:
		return true
	default:
		return false
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.mbc == nil {
			slog.Warn("writing ROM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return
		}
		m.mbc.Write(address, value)
	case regionExtRAM:
		if m.mbc == nil {
			slog.Warn("writing external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM:
		m.writeVRAM(address, value)
	case regionWRAM:
		m.writeWRAM(address, value)
	case regionEcho:
		m.writeWRAM(address-0x2000, value)
	case regionOAM:
		m.memory[address] = value
	case regionIO:
		m.writeIO(address, value)
	default:
		slog.Warn("write at unmapped address", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	}
}

func (m *MMU) writeIO(address uint16, value uint8) {
	switch {
	case address == addr.P1:
		m.writeJoypad(value)
	case address == addr.SB || address == addr.SC:
		m.serial.Write(address, value)
	case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		m.timer.Write(address, value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		if m.apu != nil {
			m.apu.WriteRegister(address, value)
		} else {
			m.memory[address] = value
		}
	case address == addr.IF:
		m.memory[address] = value | 0xE0
	case address == addr.DMA:
		m.runOAMDMA(value)
	case !m.cgb && isCGBOnlyRegister(address):
		// ignored on DMG-mode hardware
	case address == addr.KEY1:
		m.key1 = (m.key1 & 0x80) | (value & 0x01)
	case address == addr.VBK:
		m.vbk = value & 0x01
	case address == addr.SVBK:
		m.svbk = value & 0x07
	case address == addr.HDMA1:
		m.hdmaSrc = (m.hdmaSrc & 0x00FF) | uint16(value)<<8
	case address == addr.HDMA2:
		m.hdmaSrc = (m.hdmaSrc & 0xFF00) | uint16(value&0xF0)
	case address == addr.HDMA3:
		m.hdmaDst = addr.VRAMStart | (m.hdmaDst & 0x00FF) | uint16(value&0x1F)<<8
	case address == addr.HDMA4:
		m.hdmaDst = addr.VRAMStart | (m.hdmaDst & 0x1F00) | uint16(value&0xF0)
	case address == addr.HDMA5:
		m.startHDMA(value)
	case address == addr.BCPS:
		m.bcps = value & 0xBF
	case address == addr.BCPD:
		m.bgPalette[m.bcps&0x3F] = value
		if m.bcps&0x80 != 0 {
			m.bcps = 0x80 | ((m.bcps + 1) & 0x3F)
		}
	case address == addr.OCPS:
		m.ocps = value & 0xBF
	case address == addr.OCPD:
		m.objPalette[m.ocps&0x3F] = value
		if m.ocps&0x80 != 0 {
			m.ocps = 0x80 | ((m.ocps + 1) & 0x3F)
		}
	default:
		m.memory[address] = value
	}
}

// runOAMDMA copies 160 bytes from value<<8 into OAM in one step, matching
// the teacher's (hardware-inaccurate but functionally adequate) instant
// transfer; SPEC_FULL.md does not require cycle-accurate DMA bus conflicts.
func (m *MMU) runOAMDMA(value uint8) {
	source := uint16(value) << 8
	for i := uint16(0); i < 160; i++ {
		m.memory[addr.OAMStart+i] = m.Read(source + i)
	}
	m.memory[addr.DMA] = value
}

// startHDMA begins a general-purpose (bit 7 clear, copies synchronously)
// or HBlank-mode (bit 7 set, copies 0x10 bytes per TickHBlankDMA call)
// VRAM DMA transfer, per spec.md §4.2.
func (m *MMU) startHDMA(value uint8) {
	if !m.cgb {
		return
	}

	if m.hdmaActive && m.hdmaHBlank && value&0x80 == 0 {
		// writing with bit 7 clear while an HBlank transfer is running cancels it
		m.hdmaActive = false
		m.hdma5 = value | 0x80
		return
	}

	length := (uint16(value&0x7F) + 1) * 0x10
	m.hdmaHBlank = value&0x80 != 0

	if !m.hdmaHBlank {
		for i := uint16(0); i < length; i++ {
			m.writeVRAM(m.hdmaDst+i, m.Read(m.hdmaSrc+i))
		}
		m.hdmaSrc += length
		m.hdmaDst += length
		m.hdmaActive = false
		m.hdma5 = 0xFF
		return
	}

	m.hdmaActive = true
	m.hdmaLen = length/0x10 - 1
	m.hdma5 = uint8(m.hdmaLen & 0x7F)
}

// updateJoypadRegister recomputes P1's low nibble from the selection bits
// (4-5) and the tracked button/d-pad state; bits 6-7 always read as 1.
func (m *MMU) updateJoypadRegister() {
	p1 := m.memory[addr.P1]
	result := uint8(0b11000000)
	result |= p1 & 0b00110000

	selectDpad := !bit.IsSet(4, p1)
	selectButtons := !bit.IsSet(5, p1)

	switch {
	case selectButtons && !selectDpad:
		result |= m.joypadButtons & 0x0F
	case selectDpad && !selectButtons:
		result |= m.joypadDpad & 0x0F
	case selectButtons && selectDpad:
		result |= m.joypadButtons & m.joypadDpad & 0x0F
	default:
		result |= 0x0F
	}

	m.memory[addr.P1] = result
}

func (m *MMU) writeJoypad(value uint8) {
	m.memory[addr.P1] = value & 0b00110000
	m.updateJoypadRegister()
}

func (m *MMU) HandleKeyPress(key JoypadKey) {
	oldButtons := m.joypadButtons
	oldDpad := m.joypadDpad

	switch key {
	case JoypadRight:
		m.joypadDpad = bit.Reset(0, m.joypadDpad)
	case JoypadLeft:
		m.joypadDpad = bit.Reset(1, m.joypadDpad)
	case JoypadUp:
		m.joypadDpad = bit.Reset(2, m.joypadDpad)
	case JoypadDown:
		m.joypadDpad = bit.Reset(3, m.joypadDpad)
	case JoypadA:
		m.joypadButtons = bit.Reset(0, m.joypadButtons)
	case JoypadB:
		m.joypadButtons = bit.Reset(1, m.joypadButtons)
	case JoypadSelect:
		m.joypadButtons = bit.Reset(2, m.joypadButtons)
	case JoypadStart:
		m.joypadButtons = bit.Reset(3, m.joypadButtons)
	}

	if oldButtons&^m.joypadButtons|oldDpad&^m.joypadDpad != 0 {
		m.RequestInterrupt(addr.JoypadInterrupt)
	}

	m.updateJoypadRegister()
}

func (m *MMU) HandleKeyRelease(key JoypadKey) {
	switch key {
	case JoypadRight:
		m.joypadDpad = bit.Set(0, m.joypadDpad)
	case JoypadLeft:
		m.joypadDpad = bit.Set(1, m.joypadDpad)
	case JoypadUp:
		m.joypadDpad = bit.Set(2, m.joypadDpad)
	case JoypadDown:
		m.joypadDpad = bit.Set(3, m.joypadDpad)
	case JoypadA:
		m.joypadButtons = bit.Set(0, m.joypadButtons)
	case JoypadB:
		m.joypadButtons = bit.Set(1, m.joypadButtons)
	case JoypadSelect:
		m.joypadButtons = bit.Set(2, m.joypadButtons)
	case JoypadStart:
		m.joypadButtons = bit.Set(3, m.joypadButtons)
	}

	m.updateJoypadRegister()
}
