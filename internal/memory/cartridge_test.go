package memory

import "testing"

func buildHeader(title string, cgbFlag, cartType, romSize, ramSize byte) []byte {
	data := make([]byte, 0x8000)
	copy(data[titleAddress:], title)
	data[cgbFlagAddress] = cgbFlag
	data[cartridgeTypeAddress] = cartType
	data[romSizeAddress] = romSize
	data[ramSizeAddress] = ramSize

	var sum uint8
	for i := 0x134; i <= 0x14C; i++ {
		sum = sum - data[i] - 1
	}
	data[headerChecksumAddress] = sum

	var global uint16
	for i, b := range data {
		if i == globalChecksumAddress || i == globalChecksumAddress+1 {
			continue
		}
		global += uint16(b)
	}
	data[globalChecksumAddress] = byte(global >> 8)
	data[globalChecksumAddress+1] = byte(global)

	return data
}

func TestNewCartridgeFromData_tooSmall(t *testing.T) {
	_, ok := NewCartridgeFromData(make([]byte, 0x100))
	if ok {
		t.Fatal("expected ok=false for a header-sized-too-small image")
	}
}

func TestNewCartridgeFromData_header(t *testing.T) {
	data := buildHeader("POKEMON RED", 0x00, 0x13, 0x01, 0x03)
	cart, ok := NewCartridgeFromData(data)
	if !ok {
		t.Fatal("expected ok=true")
	}

	if cart.Title != "POKEMON RED" {
		t.Errorf("Title = %q; want %q", cart.Title, "POKEMON RED")
	}
	if cart.Color != DMGOnly {
		t.Errorf("Color = %v; want DMGOnly", cart.Color)
	}
	if cart.Type != MBCType3 {
		t.Errorf("Type = %v; want MBCType3", cart.Type)
	}
	if !cart.HasBattery {
		t.Error("expected HasBattery for cart type 0x13")
	}
	if cart.HasRTC {
		t.Error("cart type 0x13 has no RTC")
	}
	if cart.ROMBankCount != 4 {
		t.Errorf("ROMBankCount = %d; want 4", cart.ROMBankCount)
	}
	if cart.RAMBankCount != 4 {
		t.Errorf("RAMBankCount = %d; want 4", cart.RAMBankCount)
	}
	if !cart.VerifyHeaderChecksum() {
		t.Error("expected header checksum to verify")
	}
	if !cart.VerifyGlobalChecksum() {
		t.Error("expected global checksum to verify")
	}
}

func TestNewCartridgeFromData_corruptChecksum(t *testing.T) {
	data := buildHeader("TETRIS", 0x00, 0x00, 0x00, 0x00)
	data[0x200] ^= 0xFF // perturb a byte outside the header but within the global sum
	cart, ok := NewCartridgeFromData(data)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if cart.VerifyGlobalChecksum() {
		t.Error("expected global checksum mismatch after corrupting a data byte")
	}
	if !cart.VerifyHeaderChecksum() {
		t.Error("header checksum should still verify, only a non-header byte changed")
	}
}

func TestColorSupportFromFlag(t *testing.T) {
	cases := map[byte]ColorSupport{
		0x00: DMGOnly,
		0x80: ColorCompatible,
		0xC0: ColorOnly,
	}
	for flag, want := range cases {
		if got := colorSupportFromFlag(flag); got != want {
			t.Errorf("colorSupportFromFlag(0x%02X) = %v; want %v", flag, got, want)
		}
	}
}

func TestDecodeCartridgeType(t *testing.T) {
	tests := []struct {
		code                    byte
		mbc                     MBCType
		battery, rtc, rumble bool
	}{
		{0x00, MBCNone, false, false, false},
		{0x01, MBCType1, false, false, false},
		{0x03, MBCType1, true, false, false},
		{0x05, MBCType2, false, false, false},
		{0x06, MBCType2, true, false, false},
		{0x0F, MBCType3, false, true, false},
		{0x10, MBCType3, true, true, false},
		{0x13, MBCType3, true, false, false},
		{0x19, MBCType5, false, false, false},
		{0x1B, MBCType5, true, false, false},
		{0x1C, MBCType5, false, false, true},
		{0x1E, MBCType5, true, false, true},
		{0xFF, MBCNone, false, false, false}, // unsupported -> falls back to plain mapping
	}

	for _, tt := range tests {
		mbc, battery, rtc, rumble := decodeCartridgeType(tt.code)
		if mbc != tt.mbc || battery != tt.battery || rtc != tt.rtc || rumble != tt.rumble {
			t.Errorf("decodeCartridgeType(0x%02X) = (%v,%v,%v,%v); want (%v,%v,%v,%v)",
				tt.code, mbc, battery, rtc, rumble, tt.mbc, tt.battery, tt.rtc, tt.rumble)
		}
	}
}

func TestRAMBankCount(t *testing.T) {
	cases := map[byte]int{0: 0, 1: 0, 2: 1, 3: 4, 4: 16, 5: 8}
	for code, want := range cases {
		if got := ramBankCount(code); got != want {
			t.Errorf("ramBankCount(%d) = %d; want %d", code, got, want)
		}
	}
}
