package memory

import (
	"testing"

	"github.com/gbcore-dev/pocketgb/internal/addr"
)

func TestMMU_wramAndEcho(t *testing.T) {
	m := New()
	m.Write(0xC010, 0x42)
	if got := m.Read(0xC010); got != 0x42 {
		t.Errorf("Read(0xC010) = 0x%02X; want 0x42", got)
	}
	if got := m.Read(0xE010); got != 0x42 {
		t.Errorf("echo Read(0xE010) = 0x%02X; want 0x42 (mirrors WRAM)", got)
	}
}

func TestMMU_ifUpperBitsAlwaysSet(t *testing.T) {
	m := New()
	m.Write(addr.IF, 0x01)
	if got := m.Read(addr.IF); got != 0xE1 {
		t.Errorf("Read(IF) = 0x%02X; want 0xE1 (upper 3 bits always 1)", got)
	}
}

func TestMMU_requestInterruptSetsBit(t *testing.T) {
	m := New()
	m.RequestInterrupt(addr.TimerInterrupt)
	if got := m.Read(addr.IF); got&0x04 == 0 {
		t.Errorf("Read(IF) = 0x%02X; expected timer bit set", got)
	}
}

func TestMMU_oamDMA(t *testing.T) {
	m := New()
	for i := uint16(0); i < 160; i++ {
		m.Write(0xC000+i, uint8(i))
	}
	m.Write(addr.DMA, 0xC0)
	for i := uint16(0); i < 160; i++ {
		if got := m.Read(addr.OAMStart + i); got != uint8(i) {
			t.Fatalf("OAM[%d] = 0x%02X; want 0x%02X", i, got, uint8(i))
		}
	}
}

func TestMMU_joypadSelection(t *testing.T) {
	m := New()
	m.HandleKeyPress(JoypadA)
	m.HandleKeyPress(JoypadRight)

	m.Write(addr.P1, 0b00010000) // bit 5 clear selects buttons
	if got := m.Read(addr.P1); got&0x0F != 0x0E {
		t.Errorf("Read(P1) buttons selected = 0x%02X; want bit 0 (A) clear", got)
	}

	m.Write(addr.P1, 0b00100000) // bit 4 clear selects the d-pad
	if got := m.Read(addr.P1); got&0x0F != 0x0E {
		t.Errorf("Read(P1) d-pad selected = 0x%02X; want bit 0 (right) clear", got)
	}
}

func TestMMU_joypadInterruptOnPress(t *testing.T) {
	m := New()
	m.Write(addr.P1, 0b00010000)
	m.HandleKeyPress(JoypadA)

	if got := m.Read(addr.IF); got&0x10 == 0 {
		t.Errorf("Read(IF) = 0x%02X; expected joypad bit set after a press", got)
	}
}

func TestMMU_dmgModeIgnoresCGBRegisters(t *testing.T) {
	m := New()
	m.Write(addr.VBK, 0x01)
	if got := m.Read(addr.VBK); got != 0xFF {
		t.Errorf("DMG-mode Read(VBK) = 0x%02X; want 0xFF", got)
	}
}

func TestMMU_cgbVRAMBanking(t *testing.T) {
	m := New()
	m.SetCGBMode(true)

	m.Write(addr.VBK, 0x00)
	m.Write(0x8500, 0x11)
	m.Write(addr.VBK, 0x01)
	m.Write(0x8500, 0x22)

	m.Write(addr.VBK, 0x00)
	if got := m.Read(0x8500); got != 0x11 {
		t.Errorf("VRAM bank 0 Read(0x8500) = 0x%02X; want 0x11", got)
	}
	m.Write(addr.VBK, 0x01)
	if got := m.Read(0x8500); got != 0x22 {
		t.Errorf("VRAM bank 1 Read(0x8500) = 0x%02X; want 0x22", got)
	}
}

func TestMMU_cgbWRAMBanking(t *testing.T) {
	m := New()
	m.SetCGBMode(true)

	m.Write(addr.SVBK, 0x02)
	m.Write(0xD100, 0xAB)
	m.Write(addr.SVBK, 0x03)
	m.Write(0xD100, 0xCD)

	m.Write(addr.SVBK, 0x02)
	if got := m.Read(0xD100); got != 0xAB {
		t.Errorf("WRAM bank 2 Read(0xD100) = 0x%02X; want 0xAB", got)
	}

	m.Write(addr.SVBK, 0x00) // bank 0 aliases to bank 1
	if got := m.Read(addr.SVBK); got != 0xF9 {
		t.Errorf("Read(SVBK) with 0 selected = 0x%02X; want 0xF9 (reads back as 1)", got)
	}
}

func TestMMU_cgbPaletteRAMAutoIncrement(t *testing.T) {
	m := New()
	m.SetCGBMode(true)

	m.Write(addr.BCPS, 0x80) // index 0, auto-increment
	m.Write(addr.BCPD, 0x11)
	m.Write(addr.BCPD, 0x22)

	if got := m.bgPalette[0]; got != 0x11 {
		t.Errorf("bgPalette[0] = 0x%02X; want 0x11", got)
	}
	if got := m.bgPalette[1]; got != 0x22 {
		t.Errorf("bgPalette[1] = 0x%02X; want 0x22", got)
	}
}

func TestMMU_cgbPaletteRAMReadAutoIncrement(t *testing.T) {
	m := New()
	m.SetCGBMode(true)

	m.Write(addr.BCPS, 0x80) // index 0, auto-increment
	m.Write(addr.BCPD, 0x12)
	m.Write(addr.BCPD, 0x34)
	m.Write(addr.BCPD, 0x56)
	m.Write(addr.BCPD, 0x78)

	m.Write(addr.BCPS, 0x80) // rewind back to index 0, auto-increment
	want := []uint8{0x12, 0x34, 0x56, 0x78}
	for i, w := range want {
		if got := m.Read(addr.BCPD); got != w {
			t.Errorf("Read(BCPD) #%d = 0x%02X; want 0x%02X", i, got, w)
		}
	}
}

func TestMMU_generalPurposeHDMA(t *testing.T) {
	m := New()
	m.SetCGBMode(true)

	for i := uint16(0); i < 0x20; i++ {
		m.Write(0xC000+i, uint8(i+1))
	}

	m.Write(addr.HDMA1, 0xC0)
	m.Write(addr.HDMA2, 0x00)
	m.Write(addr.HDMA3, 0x80)
	m.Write(addr.HDMA4, 0x00)
	m.Write(addr.HDMA5, 0x01) // bit 7 clear: general purpose, (1+1)*0x10 = 0x20 bytes

	for i := uint16(0); i < 0x20; i++ {
		if got := m.Read(0x8000 + i); got != uint8(i+1) {
			t.Fatalf("VRAM[0x%04X] = 0x%02X; want 0x%02X", 0x8000+i, got, i+1)
		}
	}
	if got := m.Read(addr.HDMA5); got != 0xFF {
		t.Errorf("Read(HDMA5) after completion = 0x%02X; want 0xFF", got)
	}
}

func TestMMU_hblankHDMAStepsOneBlockAtATime(t *testing.T) {
	m := New()
	m.SetCGBMode(true)

	for i := uint16(0); i < 0x30; i++ {
		m.Write(0xC000+i, uint8(i+1))
	}

	m.Write(addr.HDMA1, 0xC0)
	m.Write(addr.HDMA2, 0x00)
	m.Write(addr.HDMA3, 0x80)
	m.Write(addr.HDMA4, 0x00)
	m.Write(addr.HDMA5, 0x82) // bit 7 set: HBlank mode, 3 blocks of 0x10

	for i := uint16(0); i < 0x10; i++ {
		if got := m.Read(0x8000 + i); got != 0x00 {
			t.Fatalf("VRAM[0x%04X] should be untouched before the first HBlank tick, got 0x%02X", 0x8000+i, got)
		}
	}

	m.TickHBlankDMA()
	for i := uint16(0); i < 0x10; i++ {
		if got := m.Read(0x8000 + i); got != uint8(i+1) {
			t.Fatalf("after 1 tick, VRAM[0x%04X] = 0x%02X; want 0x%02X", 0x8000+i, got, i+1)
		}
	}

	m.TickHBlankDMA()
	m.TickHBlankDMA()
	if got := m.Read(addr.HDMA5); got != 0xFF {
		t.Errorf("Read(HDMA5) after 3 ticks = 0x%02X; want 0xFF (complete)", got)
	}
}

func TestMMU_speedSwitch(t *testing.T) {
	m := New()
	m.SetCGBMode(true)

	if m.DoubleSpeed() {
		t.Fatal("expected normal speed initially")
	}

	m.Write(addr.KEY1, 0x01)
	if !m.RequestSpeedSwitch() {
		t.Fatal("expected a pending switch to actuate")
	}
	if !m.DoubleSpeed() {
		t.Error("expected double speed after actuating the switch")
	}
	if m.RequestSpeedSwitch() {
		t.Error("expected no pending switch after it was actuated and cleared")
	}
}
