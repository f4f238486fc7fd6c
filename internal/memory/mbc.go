package memory

import (
	"log/slog"

	"github.com/gbcore-dev/pocketgb/internal/clock"
)

// MBC is the four-operation interface every memory bank controller variant
// implements: ROM reads/writes (0x0000-0x7FFF, where writes configure
// banking registers rather than touching ROM bytes) and external-RAM
// reads/writes (0xA000-0xBFFF).
type MBC interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// NoMBC maps a <=32KiB ROM directly with no banking and no external RAM.
type NoMBC struct {
	rom []uint8
}

func NewNoMBC(rom []uint8) *NoMBC {
	return &NoMBC{rom: rom}
}

func (m *NoMBC) Read(address uint16) uint8 {
	if int(address) >= len(m.rom) {
		return 0xFF
	}
	return m.rom[address]
}

func (m *NoMBC) Write(address uint16, value uint8) {}

// bankedROMRead is the common ROM-bank-window read shared by every banked
// controller, reducing the requested bank modulo the available bank count
// when it exceeds it (spec.md §4.3, "computed bank numbers are reduced
// modulo the available bank count").
func bankedROMRead(rom []uint8, bank uint32, address uint16, bankSize uint32) uint8 {
	bankCount := uint32(len(rom)) / bankSize
	if bankCount == 0 {
		return 0xFF
	}
	bank %= bankCount
	offset := bank*bankSize + uint32(address)
	if offset >= uint32(len(rom)) {
		slog.Warn("mbc: rom bank offset out of bounds", "offset", offset, "romSize", len(rom))
		return 0xFF
	}
	return rom[offset]
}

// MBC1: up to 2MiB ROM (125 usable banks), up to 32KiB RAM, ROM/RAM banking
// mode switch, the bank-0-aliasing quirk in RAM-banking mode.
type MBC1 struct {
	rom []uint8
	ram []uint8

	romBank     uint8
	ramBank     uint8
	ramEnabled  bool
	bankingMode uint8 // 0 = ROM banking, 1 = RAM banking
}

func NewMBC1(rom []uint8, ramBanks int) *MBC1 {
	return &MBC1{
		rom:     rom,
		ram:     make([]uint8, max(ramBanks, 1)*0x2000),
		romBank: 1,
	}
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		bank := uint32(0)
		if m.bankingMode == 1 {
			bank = uint32(m.romBank & 0x60)
		}
		return bankedROMRead(m.rom, bank, address, 0x4000)
	case address <= 0x7FFF:
		return bankedROMRead(m.rom, uint32(m.romBank), address-0x4000, 0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		bank := uint32(0)
		if m.bankingMode == 1 {
			bank = uint32(m.ramBank)
		}
		return m.ram[(bank*0x2000+uint32(address-0xA000))%uint32(len(m.ram))]
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = (m.romBank & 0x60) | bank
	case address <= 0x5FFF:
		if m.bankingMode == 0 {
			m.romBank = (m.romBank & 0x1F) | ((value & 0x03) << 5)
		} else {
			m.ramBank = value & 0x03
		}
	case address <= 0x7FFF:
		m.bankingMode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		bank := uint32(0)
		if m.bankingMode == 1 {
			bank = uint32(m.ramBank)
		}
		m.ram[(bank*0x2000+uint32(address-0xA000))%uint32(len(m.ram))] = value
	}
}

// MBC2: up to 256KiB ROM, 512x4-bit built-in RAM selected by address bit 8.
type MBC2 struct {
	rom []uint8
	ram [512]uint8

	romBank    uint8
	ramEnabled bool
}

func NewMBC2(rom []uint8) *MBC2 {
	return &MBC2{rom: rom, romBank: 1}
}

func (m *MBC2) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return bankedROMRead(m.rom, 0, address, 0x4000)
	case address <= 0x7FFF:
		return bankedROMRead(m.rom, uint32(m.romBank), address-0x4000, 0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[address&0x1FF] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		if address&0x100 == 0 {
			m.ramEnabled = value&0x0F == 0x0A
		} else {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if m.ramEnabled {
			m.ram[address&0x1FF] = value & 0x0F
		}
	}
}

// rtcRegister indices, matching the 0x08-0x0C RAM-bank-selector values that
// pick an RTC register instead of a RAM bank.
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDayLow
	rtcDayHigh
)

// MBC3: up to 2MiB ROM, up to 32KiB RAM, and a real-time clock. The RTC is
// modeled as a base timestamp plus a monotonic clock.Source: displayed
// values are `(base + elapsed) mod period`, computed lazily on read/latch
// rather than ticked every cycle (spec.md §9).
type MBC3 struct {
	rom []uint8
	ram []uint8

	romBank    uint8
	ramBank    uint8 // also holds the RTC register selector (0x08-0x0C)
	ramEnabled bool

	hasRTC bool
	clock  clock.Source

	rtcBase    int64 // unix seconds the RTC's zero point corresponds to
	rtcHalted  bool
	latched    [5]uint8
	latchState uint8 // tracks the 0x00->0x01 latch sequence
}

func NewMBC3(rom []uint8, ramBanks int, hasRTC bool, src clock.Source) *MBC3 {
	if src == nil {
		src = clock.System{}
	}
	m := &MBC3{
		rom:     rom,
		ram:     make([]uint8, max(ramBanks, 1)*0x2000),
		romBank: 1,
		hasRTC:  hasRTC,
		clock:   src,
	}
	if hasRTC {
		m.rtcBase = src.Now().Unix()
	}
	return m
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return bankedROMRead(m.rom, 0, address, 0x4000)
	case address <= 0x7FFF:
		return bankedROMRead(m.rom, uint32(m.romBank), address-0x4000, 0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.latched[m.ramBank-0x08]
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		bank := uint32(m.ramBank) % (uint32(len(m.ram)) / 0x2000)
		return m.ram[bank*0x2000+uint32(address-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address <= 0x5FFF:
		m.ramBank = value
	case address <= 0x7FFF:
		if m.hasRTC {
			if m.latchState == 0x00 && value == 0x01 {
				m.latchRTC()
			}
			m.latchState = value
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.writeRTCRegister(m.ramBank-0x08, value)
			return
		}
		if len(m.ram) == 0 {
			return
		}
		bank := uint32(m.ramBank) % (uint32(len(m.ram)) / 0x2000)
		m.ram[bank*0x2000+uint32(address-0xA000)] = value
	}
}

// currentRTC derives the displayed seconds/minutes/hours/day-low/day-high
// values from the elapsed time since rtcBase.
func (m *MBC3) currentRTC() [5]uint8 {
	elapsed := m.clock.Now().Unix() - m.rtcBase
	if elapsed < 0 {
		elapsed = 0
	}
	if m.rtcHalted {
		elapsed = 0
	}
	days := elapsed / 86400
	secOfDay := elapsed % 86400

	var dayHigh uint8
	if days > 511 {
		dayHigh |= 0x01 // day counter overflow carry would set this in real hardware; clamped here
	}
	if m.rtcHalted {
		dayHigh |= 0x40
	}
	dayHigh |= uint8((days >> 8) & 0x01)

	return [5]uint8{
		uint8(secOfDay % 60),
		uint8((secOfDay / 60) % 60),
		uint8(secOfDay / 3600),
		uint8(days & 0xFF),
		dayHigh,
	}
}

func (m *MBC3) latchRTC() {
	m.latched = m.currentRTC()
}

// writeRTCRegister adjusts rtcBase so that a subsequent read returns the
// written value plus elapsed time, per spec.md §4.3's RTC semantics.
func (m *MBC3) writeRTCRegister(reg uint8, value uint8) {
	cur := m.currentRTC()
	switch reg {
	case rtcSeconds:
		cur[0] = value % 60
	case rtcMinutes:
		cur[1] = value % 60
	case rtcHours:
		cur[2] = value % 24
	case rtcDayLow:
		cur[3] = value
	case rtcDayHigh:
		cur[4] = value
		m.rtcHalted = value&0x40 != 0
	}

	days := int64(cur[3]) | int64(cur[4]&0x01)<<8
	elapsed := days*86400 + int64(cur[2])*3600 + int64(cur[1])*60 + int64(cur[0])
	m.rtcBase = m.clock.Now().Unix() - elapsed
	m.latched = cur
}

// MBC5: up to 8MiB ROM (9-bit bank number), up to 128KiB RAM, optional
// rumble motor flag on the RAM-bank-selector's bit 3.
type MBC5 struct {
	rom []uint8
	ram []uint8

	romBank   uint16
	ramBank   uint8
	hasRumble bool
	rumbleOn  bool

	ramEnabled bool
}

func NewMBC5(rom []uint8, ramBanks int, hasRumble bool) *MBC5 {
	return &MBC5{
		rom:       rom,
		ram:       make([]uint8, max(ramBanks, 1)*0x2000),
		romBank:   1,
		hasRumble: hasRumble,
	}
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return bankedROMRead(m.rom, 0, address, 0x4000)
	case address <= 0x7FFF:
		return bankedROMRead(m.rom, uint32(m.romBank), address-0x4000, 0x4000)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		bank := uint32(m.ramBank&0x0F) % (uint32(len(m.ram)) / 0x2000)
		return m.ram[bank*0x2000+uint32(address-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x2FFF:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case address <= 0x3FFF:
		m.romBank = (m.romBank & 0xFF) | (uint16(value&0x01) << 8)
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
		if m.hasRumble {
			m.rumbleOn = value&0x08 != 0
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		bank := uint32(m.ramBank&0x0F) % (uint32(len(m.ram)) / 0x2000)
		m.ram[bank*0x2000+uint32(address-0xA000)] = value
	}
}

// RumbleActive reports the rumble motor's observable flag, for a backend
// that wants to surface it (e.g. as a gamepad vibration call).
func (m *MBC5) RumbleActive() bool { return m.hasRumble && m.rumbleOn }

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
