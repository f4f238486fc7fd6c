package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecute_loadAndArithmeticBlocks(t *testing.T) {
	c, _ := newTestCPU()

	c.b = 0x42
	c.execute(0x78) // LD A,B
	assert.Equal(t, uint8(0x42), c.a)

	c.a = 0x01
	c.b = 0x02
	c.execute(0x80) // ADD A,B
	assert.Equal(t, uint8(0x03), c.a)

	c.a = 0xFF
	c.execute(0xAF) // XOR A
	assert.Equal(t, uint8(0x00), c.a)
	assert.True(t, c.isSet(flagZ))
}

func TestExecute_loadHLIndirect(t *testing.T) {
	c, bus := newTestCPU()

	c.setHL(0xC000)
	bus.Write(0xC000, 0x99)
	c.execute(0x7E) // LD A,(HL)

	assert.Equal(t, uint8(0x99), c.a)
}

func TestExecute_jpAndCallAndRet(t *testing.T) {
	c, bus := newTestCPU()

	c.pc = 0x0100
	bus.Write(0x0100, 0x34)
	bus.Write(0x0101, 0x12)
	c.execute(0xC3) // JP 0x1234
	assert.Equal(t, uint16(0x1234), c.pc)

	c.sp = 0xFFFE
	bus.Write(0x1234, 0x00)
	bus.Write(0x1235, 0x20)
	c.execute(0xCD) // CALL 0x2000
	assert.Equal(t, uint16(0x2000), c.pc)
	assert.Equal(t, uint16(0xFFFC), c.sp)

	c.execute(0xC9) // RET
	assert.Equal(t, uint16(0x1236), c.pc)
	assert.Equal(t, uint16(0xFFFE), c.sp)
}

func TestExecute_pushPop(t *testing.T) {
	c, _ := newTestCPU()

	c.sp = 0xFFFE
	c.setBC(0xBEEF)
	c.execute(0xC5) // PUSH BC
	c.setBC(0x0000)
	c.execute(0xC1) // POP BC

	assert.Equal(t, uint16(0xBEEF), c.getBC())
	assert.Equal(t, uint16(0xFFFE), c.sp)
}

func TestExecute_conditionalJR(t *testing.T) {
	c, bus := newTestCPU()

	c.pc = 0x0100
	c.f = uint8(flagZ)
	bus.Write(0x0100, uint8(int8(-2)))
	c.execute(0x28) // JR Z,-2
	assert.Equal(t, uint16(0x00FF), c.pc)

	c.pc = 0x0200
	c.f = 0
	bus.Write(0x0200, uint8(int8(10)))
	c.execute(0x28) // JR Z,+10 (not taken, Z clear)
	assert.Equal(t, uint16(0x0201), c.pc)
}

func TestExecuteCB_rotateAndBitOps(t *testing.T) {
	c2, bus2 := newTestCPU()
	c2.b = 0x85
	c2.pc = 0x0100
	bus2.Write(0x0100, 0x00) // RLC B
	c2.execute(0xCB)
	assert.Equal(t, uint8(0x0B), c2.b)
	assert.True(t, c2.isSet(flagC))

	c3, bus3 := newTestCPU()
	c3.setHL(0xC000)
	bus3.Write(0xC000, 0x80)
	c3.pc = 0x0100
	bus3.Write(0x0100, 0x46) // BIT 0,(HL) (group=1 op=0 reg=6)
	c3.execute(0xCB)
	assert.True(t, c3.isSet(flagZ))

	c4, bus4 := newTestCPU()
	c4.c = 0x00
	c4.pc = 0x0100
	bus4.Write(0x0100, 0xC1) // SET 0,C (group=3 op=0 reg=1)
	c4.execute(0xCB)
	assert.Equal(t, uint8(0x01), c4.c)
}
