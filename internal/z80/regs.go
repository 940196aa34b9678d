package z80

// hl returns HL, or IX/IY when a DD/FD prefix is active: every base
// opcode that operates on the "HL" register pair goes through this so
// the same closures serve the unprefixed and indexed forms.
func (c *CPU) hl() uint16 {
	switch c.activePrefix {
	case prefixDD:
		return c.IX
	case prefixFD:
		return c.IY
	default:
		return c.HL()
	}
}

func (c *CPU) setHLreg(v uint16) {
	switch c.activePrefix {
	case prefixDD:
		c.IX = v
	case prefixFD:
		c.IY = v
	default:
		c.SetHL(v)
	}
}

// reg8 reads an 8-bit register by its 3-bit Z80 encoding (B,C,D,E,H,L,
// (HL),A), honouring the active index prefix for H/L/(HL).
func (c *CPU) reg8(idx int) byte {
	switch idx {
	case 4:
		if c.activePrefix == prefixNone {
			return c.H
		}
		return byte(c.hl() >> 8)
	case 5:
		if c.activePrefix == prefixNone {
			return c.L
		}
		return byte(c.hl())
	case 6:
		return c.bus.Read(c.hlOperandAddr())
	default:
		return *c.regs8[idx]
	}
}

func (c *CPU) setReg8(idx int, v byte) {
	switch idx {
	case 4:
		if c.activePrefix == prefixNone {
			c.H = v
		} else {
			c.setHLreg(uint16(v)<<8 | (c.hl() & 0xFF))
		}
	case 5:
		if c.activePrefix == prefixNone {
			c.L = v
		} else {
			c.setHLreg((c.hl() & 0xFF00) | uint16(v))
		}
	case 6:
		c.bus.Write(c.hlOperandAddr(), v)
	default:
		*c.regs8[idx] = v
	}
}

// hlOperandAddr returns HL directly, or the cached (IX+d)/(IY+d)
// effective address fetched by fetchDisplacementIfNeeded at the start
// of the current indexed instruction.
func (c *CPU) hlOperandAddr() uint16 {
	if c.activePrefix == prefixNone {
		return c.HL()
	}
	return c.displacedAddr
}

// usesIndirectHL reports whether opcode (in the unprefixed instruction
// set) reads or writes through the (HL) operand, which becomes
// (IX+d)/(IY+d) under a DD/FD prefix and therefore needs a displacement
// byte fetched before the instruction's real work begins.
func usesIndirectHL(opcode byte) bool {
	switch {
	case opcode == 0x34 || opcode == 0x35 || opcode == 0x36:
		return true
	case opcode >= 0x40 && opcode <= 0x7F && opcode != 0x76:
		return (opcode>>3)&7 == 6 || opcode&7 == 6
	case opcode >= 0x80 && opcode <= 0xBF:
		return opcode&7 == 6
	default:
		return false
	}
}

// fetchDisplacementIfNeeded fetches and caches the (IX+d)/(IY+d)
// displacement byte for opcodes that touch the indirect operand, and
// charges the five extra internal T-states real hardware spends before
// using the computed address.
func (c *CPU) fetchDisplacementIfNeeded(opcode byte) {
	if c.activePrefix == prefixNone || !usesIndirectHL(opcode) {
		return
	}
	d := c.fetchSignedByte()
	c.displacedAddr = uint16(int32(c.hl()) + int32(d))
	c.WZ = c.displacedAddr
	c.bus.Contend(c.PC-1, 5)
}
