package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPU_inc(t *testing.T) {
	c, _ := newTestCPU()

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "increases", arg: 0x0A, want: 0x0B},
		{desc: "sets zero and half carry", arg: 0xFF, want: 0x00, flags: uint8(flagZ | flagH)},
		{desc: "sets half carry only", arg: 0x0F, want: 0x10, flags: uint8(flagH)},
		{desc: "no flags on plain increment", arg: 0x01, want: 0x02, flags: 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c.f = 0
			c.a = tC.arg
			c.inc(&c.a)
			assert.Equal(t, tC.want, c.a)
			assert.Equal(t, tC.flags, c.f)
		})
	}
}

func TestCPU_dec(t *testing.T) {
	c, _ := newTestCPU()

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags uint8
	}{
		{desc: "decreases", arg: 0x0B, want: 0x0A, flags: uint8(flagN)},
		{desc: "sets zero", arg: 0x01, want: 0x00, flags: uint8(flagZ | flagN)},
		{desc: "sets half carry on nibble borrow", arg: 0x10, want: 0x0F, flags: uint8(flagN | flagH)},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c.f = 0
			c.a = tC.arg
			c.dec(&c.a)
			assert.Equal(t, tC.want, c.a)
			assert.Equal(t, tC.flags, c.f)
		})
	}
}

func TestCPU_addToA(t *testing.T) {
	c, _ := newTestCPU()

	c.f = 0
	c.a = 0x3A
	c.addToA(0xC6, 0)

	assert.Equal(t, uint8(0x00), c.a)
	assert.True(t, c.isSet(flagZ))
	assert.True(t, c.isSet(flagH))
	assert.True(t, c.isSet(flagC))
	assert.False(t, c.isSet(flagN))
}

func TestCPU_addToA_withCarryIn(t *testing.T) {
	c, _ := newTestCPU()

	c.f = uint8(flagC)
	c.a = 0x0E
	c.addToA(0x01, c.carryBit())

	assert.Equal(t, uint8(0x10), c.a)
	assert.True(t, c.isSet(flagH))
	assert.False(t, c.isSet(flagC))
}

func TestCPU_addToHL(t *testing.T) {
	c, _ := newTestCPU()

	c.setHL(0x8A23)
	c.f = uint8(flagZ)
	c.addToHL(0x0605)

	assert.Equal(t, uint16(0x9028), c.getHL())
	assert.True(t, c.isSet(flagZ), "Z is preserved by ADD HL,rr")
	assert.False(t, c.isSet(flagN))
	assert.True(t, c.isSet(flagH))
	assert.False(t, c.isSet(flagC))
}

func TestCPU_subFromA(t *testing.T) {
	c, _ := newTestCPU()

	c.a = 0x3E
	c.subFromA(0x3E, 0, true)

	assert.Equal(t, uint8(0x00), c.a)
	assert.True(t, c.isSet(flagZ))
	assert.True(t, c.isSet(flagN))
	assert.False(t, c.isSet(flagH))
	assert.False(t, c.isSet(flagC))
}

func TestCPU_subFromA_cpDoesNotStore(t *testing.T) {
	c, _ := newTestCPU()

	c.a = 0x10
	c.subFromA(0x01, 0, false)

	assert.Equal(t, uint8(0x10), c.a, "CP must not modify A")
	assert.False(t, c.isSet(flagZ))
}

func TestCPU_andOrXor(t *testing.T) {
	c, _ := newTestCPU()

	c.a = 0b1010
	c.and(0b0110)
	assert.Equal(t, uint8(0b0010), c.a)
	assert.True(t, c.isSet(flagH))
	assert.False(t, c.isSet(flagC))

	c.a = 0b1010
	c.or(0b0101)
	assert.Equal(t, uint8(0b1111), c.a)
	assert.False(t, c.isSet(flagH))

	c.a = 0xFF
	c.xor(0xFF)
	assert.Equal(t, uint8(0x00), c.a)
	assert.True(t, c.isSet(flagZ))
}

func TestCPU_rotatesAndShifts(t *testing.T) {
	result, carry := rotateLeft(0x85)
	assert.Equal(t, uint8(0x0B), result)
	assert.True(t, carry)

	result, carry = rotateRight(0x01)
	assert.Equal(t, uint8(0x80), result)
	assert.True(t, carry)

	result, carry = shiftLeftArithmetic(0x80)
	assert.Equal(t, uint8(0x00), result)
	assert.True(t, carry)

	result, carry = shiftRightArithmetic(0x81)
	assert.Equal(t, uint8(0xC0), result)
	assert.True(t, carry)

	result, carry = shiftRightLogical(0x01)
	assert.Equal(t, uint8(0x00), result)
	assert.True(t, carry)

	assert.Equal(t, uint8(0x1E), swapNibbles(0xE1))
}

func TestCPU_daa(t *testing.T) {
	c, _ := newTestCPU()

	// 0x45 + 0x38 in BCD = 0x83, but binary addition gives 0x7D with H set.
	c.a = 0x7D
	c.f = uint8(flagH)
	c.daa()
	assert.Equal(t, uint8(0x83), c.a)
	assert.False(t, c.isSet(flagC))
}

func TestCPU_addSPSigned(t *testing.T) {
	c, _ := newTestCPU()

	c.sp = 0x0FF8
	result := c.addSPSigned(2)

	assert.Equal(t, uint16(0x0FFA), result)
	assert.False(t, c.isSet(flagZ))
	assert.False(t, c.isSet(flagN))
}

func TestCPU_testBit(t *testing.T) {
	c, _ := newTestCPU()

	c.testBit(7, 0x80)
	assert.False(t, c.isSet(flagZ))
	assert.True(t, c.isSet(flagH))

	c.testBit(7, 0x00)
	assert.True(t, c.isSet(flagZ))
}
