package cpu

// reg8 reads one of the eight 3-bit-encoded operands (B,C,D,E,H,L,(HL),A),
// the standard SM83/Z80 register index order.
func (c *CPU) reg8(index uint8) uint8 {
	switch index {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case 6:
		return c.bus.Read(c.getHL())
	default:
		return c.a
	}
}

func (c *CPU) setReg8(index uint8, v uint8) {
	switch index {
	case 0:
		c.b = v
	case 1:
		c.c = v
	case 2:
		c.d = v
	case 3:
		c.e = v
	case 4:
		c.h = v
	case 5:
		c.l = v
	case 6:
		c.bus.Write(c.getHL(), v)
	default:
		c.a = v
	}
}

func (c *CPU) readImmediate() uint8 {
	v := c.bus.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) readImmediateSigned() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) readImmediateWord() uint16 {
	lo := c.readImmediate()
	hi := c.readImmediate()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) pushStack(v uint16) {
	c.sp--
	c.bus.Write(c.sp, uint8(v>>8))
	c.sp--
	c.bus.Write(c.sp, uint8(v))
}

func (c *CPU) popStack() uint16 {
	lo := c.bus.Read(c.sp)
	c.sp++
	hi := c.bus.Read(c.sp)
	c.sp++
	return uint16(hi)<<8 | uint16(lo)
}

// condition evaluates one of the four branch conditions encoded in bits 4-3
// of conditional JP/JR/CALL/RET opcodes: 0=NZ, 1=Z, 2=NC, 3=C.
func (c *CPU) condition(cc uint8) bool {
	switch cc {
	case 0:
		return !c.isSet(flagZ)
	case 1:
		return c.isSet(flagZ)
	case 2:
		return !c.isSet(flagC)
	default:
		return c.isSet(flagC)
	}
}

func (c *CPU) jr(offset int8) {
	c.pc = uint16(int32(c.pc) + int32(offset))
}

// execute decodes and runs a single base-table opcode, returning nothing:
// cycle accounting happens through c.addCycles so that instructions that
// read/write memory can charge cycles at the right points if ever needed,
// though in this implementation each opcode charges its total cost once.
func (c *CPU) execute(opcode uint8) {
	c.currentOpcode = opcode

	// LD r,r' block, 0x40-0x7F, except 0x76 which is HALT.
	if opcode >= 0x40 && opcode <= 0x7F && opcode != 0x76 {
		dst := (opcode >> 3) & 0x07
		src := opcode & 0x07
		c.setReg8(dst, c.reg8(src))
		if dst == 6 || src == 6 {
			c.addCycles(8)
		} else {
			c.addCycles(4)
		}
		return
	}

	// ALU A,r block, 0x80-0xBF.
	if opcode >= 0x80 && opcode <= 0xBF {
		src := opcode & 0x07
		op := (opcode >> 3) & 0x07
		value := c.reg8(src)
		c.aluOp(op, value)
		if src == 6 {
			c.addCycles(8)
		} else {
			c.addCycles(4)
		}
		return
	}

	switch opcode {
	case 0x00: // NOP
		c.addCycles(4)
	case 0x01:
		c.setBC(c.readImmediateWord())
		c.addCycles(12)
	case 0x02:
		c.bus.Write(c.getBC(), c.a)
		c.addCycles(8)
	case 0x03:
		c.setBC(c.getBC() + 1)
		c.addCycles(8)
	case 0x04:
		c.inc(&c.b)
		c.addCycles(4)
	case 0x05:
		c.dec(&c.b)
		c.addCycles(4)
	case 0x06:
		c.b = c.readImmediate()
		c.addCycles(8)
	case 0x07:
		res, carry := rotateLeft(c.a)
		c.a = res
		c.applyShiftFlags(res, carry, true)
		c.addCycles(4)
	case 0x08:
		address := c.readImmediateWord()
		c.bus.Write(address, uint8(c.sp))
		c.bus.Write(address+1, uint8(c.sp>>8))
		c.addCycles(20)
	case 0x09:
		c.addToHL(c.getBC())
		c.addCycles(8)
	case 0x0A:
		c.a = c.bus.Read(c.getBC())
		c.addCycles(8)
	case 0x0B:
		c.setBC(c.getBC() - 1)
		c.addCycles(8)
	case 0x0C:
		c.inc(&c.c)
		c.addCycles(4)
	case 0x0D:
		c.dec(&c.c)
		c.addCycles(4)
	case 0x0E:
		c.c = c.readImmediate()
		c.addCycles(8)
	case 0x0F:
		res, carry := rotateRight(c.a)
		c.a = res
		c.applyShiftFlags(res, carry, true)
		c.addCycles(4)
	case 0x10:
		c.readImmediate() // STOP's second byte, conventionally 0x00
		c.stop()
		c.addCycles(4)
	case 0x11:
		c.setDE(c.readImmediateWord())
		c.addCycles(12)
	case 0x12:
		c.bus.Write(c.getDE(), c.a)
		c.addCycles(8)
	case 0x13:
		c.setDE(c.getDE() + 1)
		c.addCycles(8)
	case 0x14:
		c.inc(&c.d)
		c.addCycles(4)
	case 0x15:
		c.dec(&c.d)
		c.addCycles(4)
	case 0x16:
		c.d = c.readImmediate()
		c.addCycles(8)
	case 0x17:
		res, carry := rotateLeftThroughCarry(c.a, c.isSet(flagC))
		c.a = res
		c.applyShiftFlags(res, carry, true)
		c.addCycles(4)
	case 0x18:
		offset := c.readImmediateSigned()
		c.jr(offset)
		c.addCycles(12)
	case 0x19:
		c.addToHL(c.getDE())
		c.addCycles(8)
	case 0x1A:
		c.a = c.bus.Read(c.getDE())
		c.addCycles(8)
	case 0x1B:
		c.setDE(c.getDE() - 1)
		c.addCycles(8)
	case 0x1C:
		c.inc(&c.e)
		c.addCycles(4)
	case 0x1D:
		c.dec(&c.e)
		c.addCycles(4)
	case 0x1E:
		c.e = c.readImmediate()
		c.addCycles(8)
	case 0x1F:
		res, carry := rotateRightThroughCarry(c.a, c.isSet(flagC))
		c.a = res
		c.applyShiftFlags(res, carry, true)
		c.addCycles(4)
	case 0x20:
		offset := c.readImmediateSigned()
		if c.condition(0) {
			c.jr(offset)
			c.addCycles(12)
		} else {
			c.addCycles(8)
		}
	case 0x21:
		c.setHL(c.readImmediateWord())
		c.addCycles(12)
	case 0x22:
		c.bus.Write(c.getHL(), c.a)
		c.setHL(c.getHL() + 1)
		c.addCycles(8)
	case 0x23:
		c.setHL(c.getHL() + 1)
		c.addCycles(8)
	case 0x24:
		c.inc(&c.h)
		c.addCycles(4)
	case 0x25:
		c.dec(&c.h)
		c.addCycles(4)
	case 0x26:
		c.h = c.readImmediate()
		c.addCycles(8)
	case 0x27:
		c.daa()
		c.addCycles(4)
	case 0x28:
		offset := c.readImmediateSigned()
		if c.condition(1) {
			c.jr(offset)
			c.addCycles(12)
		} else {
			c.addCycles(8)
		}
	case 0x29:
		c.addToHL(c.getHL())
		c.addCycles(8)
	case 0x2A:
		c.a = c.bus.Read(c.getHL())
		c.setHL(c.getHL() + 1)
		c.addCycles(8)
	case 0x2B:
		c.setHL(c.getHL() - 1)
		c.addCycles(8)
	case 0x2C:
		c.inc(&c.l)
		c.addCycles(4)
	case 0x2D:
		c.dec(&c.l)
		c.addCycles(4)
	case 0x2E:
		c.l = c.readImmediate()
		c.addCycles(8)
	case 0x2F:
		c.cpl()
		c.addCycles(4)
	case 0x30:
		offset := c.readImmediateSigned()
		if c.condition(2) {
			c.jr(offset)
			c.addCycles(12)
		} else {
			c.addCycles(8)
		}
	case 0x31:
		c.sp = c.readImmediateWord()
		c.addCycles(12)
	case 0x32:
		c.bus.Write(c.getHL(), c.a)
		c.setHL(c.getHL() - 1)
		c.addCycles(8)
	case 0x33:
		c.sp++
		c.addCycles(8)
	case 0x34:
		v := c.bus.Read(c.getHL())
		c.inc(&v)
		c.bus.Write(c.getHL(), v)
		c.addCycles(12)
	case 0x35:
		v := c.bus.Read(c.getHL())
		c.dec(&v)
		c.bus.Write(c.getHL(), v)
		c.addCycles(12)
	case 0x36:
		c.bus.Write(c.getHL(), c.readImmediate())
		c.addCycles(12)
	case 0x37:
		c.clearFlag(flagN)
		c.clearFlag(flagH)
		c.setFlag(flagC)
		c.addCycles(4)
	case 0x38:
		offset := c.readImmediateSigned()
		if c.condition(3) {
			c.jr(offset)
			c.addCycles(12)
		} else {
			c.addCycles(8)
		}
	case 0x39:
		c.addToHL(c.sp)
		c.addCycles(8)
	case 0x3A:
		c.a = c.bus.Read(c.getHL())
		c.setHL(c.getHL() - 1)
		c.addCycles(8)
	case 0x3B:
		c.sp--
		c.addCycles(8)
	case 0x3C:
		c.inc(&c.a)
		c.addCycles(4)
	case 0x3D:
		c.dec(&c.a)
		c.addCycles(4)
	case 0x3E:
		c.a = c.readImmediate()
		c.addCycles(8)
	case 0x3F:
		c.clearFlag(flagN)
		c.clearFlag(flagH)
		c.setFlagTo(flagC, !c.isSet(flagC))
		c.addCycles(4)
	case 0x76:
		c.halt()
		c.addCycles(4)
	case 0xC0:
		if c.condition(0) {
			c.pc = c.popStack()
			c.addCycles(20)
		} else {
			c.addCycles(8)
		}
	case 0xC1:
		c.setBC(c.popStack())
		c.addCycles(12)
	case 0xC2:
		target := c.readImmediateWord()
		if c.condition(0) {
			c.pc = target
			c.addCycles(16)
		} else {
			c.addCycles(12)
		}
	case 0xC3:
		c.pc = c.readImmediateWord()
		c.addCycles(16)
	case 0xC4:
		target := c.readImmediateWord()
		if c.condition(0) {
			c.pushStack(c.pc)
			c.pc = target
			c.addCycles(24)
		} else {
			c.addCycles(12)
		}
	case 0xC5:
		c.pushStack(c.getBC())
		c.addCycles(16)
	case 0xC6:
		c.addToA(c.readImmediate(), 0)
		c.addCycles(8)
	case 0xC7:
		c.pushStack(c.pc)
		c.pc = 0x00
		c.addCycles(16)
	case 0xC8:
		if c.condition(1) {
			c.pc = c.popStack()
			c.addCycles(20)
		} else {
			c.addCycles(8)
		}
	case 0xC9:
		c.pc = c.popStack()
		c.addCycles(16)
	case 0xCA:
		target := c.readImmediateWord()
		if c.condition(1) {
			c.pc = target
			c.addCycles(16)
		} else {
			c.addCycles(12)
		}
	case 0xCB:
		cb := c.readImmediate()
		c.executeCB(cb)
	case 0xCC:
		target := c.readImmediateWord()
		if c.condition(1) {
			c.pushStack(c.pc)
			c.pc = target
			c.addCycles(24)
		} else {
			c.addCycles(12)
		}
	case 0xCD:
		target := c.readImmediateWord()
		c.pushStack(c.pc)
		c.pc = target
		c.addCycles(24)
	case 0xCE:
		c.addToA(c.readImmediate(), c.carryBit())
		c.addCycles(8)
	case 0xCF:
		c.pushStack(c.pc)
		c.pc = 0x08
		c.addCycles(16)
	case 0xD0:
		if c.condition(2) {
			c.pc = c.popStack()
			c.addCycles(20)
		} else {
			c.addCycles(8)
		}
	case 0xD1:
		c.setDE(c.popStack())
		c.addCycles(12)
	case 0xD2:
		target := c.readImmediateWord()
		if c.condition(2) {
			c.pc = target
			c.addCycles(16)
		} else {
			c.addCycles(12)
		}
	case 0xD4:
		target := c.readImmediateWord()
		if c.condition(2) {
			c.pushStack(c.pc)
			c.pc = target
			c.addCycles(24)
		} else {
			c.addCycles(12)
		}
	case 0xD5:
		c.pushStack(c.getDE())
		c.addCycles(16)
	case 0xD6:
		c.subFromA(c.readImmediate(), 0, true)
		c.addCycles(8)
	case 0xD7:
		c.pushStack(c.pc)
		c.pc = 0x10
		c.addCycles(16)
	case 0xD8:
		if c.condition(3) {
			c.pc = c.popStack()
			c.addCycles(20)
		} else {
			c.addCycles(8)
		}
	case 0xD9:
		c.pc = c.popStack()
		c.interruptsEnabled = true
		c.addCycles(16)
	case 0xDA:
		target := c.readImmediateWord()
		if c.condition(3) {
			c.pc = target
			c.addCycles(16)
		} else {
			c.addCycles(12)
		}
	case 0xDC:
		target := c.readImmediateWord()
		if c.condition(3) {
			c.pushStack(c.pc)
			c.pc = target
			c.addCycles(24)
		} else {
			c.addCycles(12)
		}
	case 0xDE:
		c.subFromA(c.readImmediate(), c.carryBit(), true)
		c.addCycles(8)
	case 0xDF:
		c.pushStack(c.pc)
		c.pc = 0x18
		c.addCycles(16)
	case 0xE0:
		c.bus.Write(0xFF00+uint16(c.readImmediate()), c.a)
		c.addCycles(12)
	case 0xE1:
		c.setHL(c.popStack())
		c.addCycles(12)
	case 0xE2:
		c.bus.Write(0xFF00+uint16(c.c), c.a)
		c.addCycles(8)
	case 0xE5:
		c.pushStack(c.getHL())
		c.addCycles(16)
	case 0xE6:
		c.and(c.readImmediate())
		c.addCycles(8)
	case 0xE7:
		c.pushStack(c.pc)
		c.pc = 0x20
		c.addCycles(16)
	case 0xE8:
		offset := c.readImmediateSigned()
		c.sp = c.addSPSigned(offset)
		c.addCycles(16)
	case 0xE9:
		c.pc = c.getHL()
		c.addCycles(4)
	case 0xEA:
		c.bus.Write(c.readImmediateWord(), c.a)
		c.addCycles(16)
	case 0xEE:
		c.xor(c.readImmediate())
		c.addCycles(8)
	case 0xEF:
		c.pushStack(c.pc)
		c.pc = 0x28
		c.addCycles(16)
	case 0xF0:
		c.a = c.bus.Read(0xFF00 + uint16(c.readImmediate()))
		c.addCycles(12)
	case 0xF1:
		c.setAF(c.popStack())
		c.addCycles(12)
	case 0xF2:
		c.a = c.bus.Read(0xFF00 + uint16(c.c))
		c.addCycles(8)
	case 0xF3:
		c.interruptsEnabled = false
		c.eiPending = false
		c.addCycles(4)
	case 0xF5:
		c.pushStack(c.getAF())
		c.addCycles(16)
	case 0xF6:
		c.or(c.readImmediate())
		c.addCycles(8)
	case 0xF7:
		c.pushStack(c.pc)
		c.pc = 0x30
		c.addCycles(16)
	case 0xF8:
		offset := c.readImmediateSigned()
		c.setHL(c.addSPSigned(offset))
		c.addCycles(12)
	case 0xF9:
		c.sp = c.getHL()
		c.addCycles(8)
	case 0xFA:
		c.a = c.bus.Read(c.readImmediateWord())
		c.addCycles(16)
	case 0xFB:
		c.eiPending = true
		c.addCycles(4)
	case 0xFE:
		c.subFromA(c.readImmediate(), 0, false)
		c.addCycles(8)
	case 0xFF:
		c.pushStack(c.pc)
		c.pc = 0x38
		c.addCycles(16)
	default:
		// 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		// illegal on real hardware (locks the CPU). Treated as a 4-cycle no-op
		// per spec.md §7's UnimplementedOpcode error kind rather than a crash.
		c.addCycles(4)
	}
}

// aluOp dispatches the 0x80-0xBF block by its 3-bit operation selector.
func (c *CPU) aluOp(op uint8, value uint8) {
	switch op {
	case 0: // ADD A,r
		c.addToA(value, 0)
	case 1: // ADC A,r
		c.addToA(value, c.carryBit())
	case 2: // SUB r
		c.subFromA(value, 0, true)
	case 3: // SBC A,r
		c.subFromA(value, c.carryBit(), true)
	case 4: // AND r
		c.and(value)
	case 5: // XOR r
		c.xor(value)
	case 6: // OR r
		c.or(value)
	case 7: // CP r
		c.subFromA(value, 0, false)
	}
}

func (c *CPU) halt() {
	c.halted = true
}

// stop honors the CGB speed-switch protocol: if KEY1 has an armed request,
// STOP actuates the switch instead of halting the CPU.
func (c *CPU) stop() {
	if c.bus.RequestSpeedSwitch() {
		return
	}
	c.stopped = true
}
