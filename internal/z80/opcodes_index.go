package z80

// initDDOps/initFDOps build the indexed tables. Every opcode except
// 0xCB, 0xDD, 0xED and 0xFD behaves exactly like the unprefixed form
// with HL/H/L redirected to IX/IXH/IXL (or IY/IYH/IYL); reg8/setReg8
// and hl()/setHLreg already do that redirection based on activePrefix,
// so the indexed tables are literally the base table reused under a
// different prefix state rather than 256 duplicated closures.
func (c *CPU) initDDOps() {
	c.ddOps = c.baseOps
	c.ddOps[0xCB] = (*CPU).opIndexedCB
}

func (c *CPU) initFDOps() {
	c.fdOps = c.baseOps
	c.fdOps[0xCB] = (*CPU).opIndexedCB
}

func (c *CPU) opDDPrefix() {
	c.activePrefix = prefixDD
	opcode := c.fetchOpcode()
	c.fetchDisplacementIfNeeded(opcode)
	switch opcode {
	case 0xDD, 0xFD:
		// Redundant prefix: discard and let the real one take over.
		c.activePrefix = prefixNone
		c.execOpcode(opcode, c.baseOps)
	case 0xED:
		c.activePrefix = prefixNone
		c.opEDPrefix()
	default:
		c.execOpcode(opcode, c.ddOps)
	}
}

func (c *CPU) opFDPrefix() {
	c.activePrefix = prefixFD
	opcode := c.fetchOpcode()
	c.fetchDisplacementIfNeeded(opcode)
	switch opcode {
	case 0xDD, 0xFD:
		c.activePrefix = prefixNone
		c.execOpcode(opcode, c.baseOps)
	case 0xED:
		c.activePrefix = prefixNone
		c.opEDPrefix()
	default:
		c.execOpcode(opcode, c.fdOps)
	}
}

// opIndexedCB executes the DDCB dd xx / FDCB dd xx form: the
// displacement byte always precedes the opcode byte (regardless of
// what the opcode does), the opcode is fetched as a plain memory read
// (not an M1 cycle, the nuance that made these forms notoriously hard
// to get right in early emulators), and every operation except BIT
// writes its result back to (IX+d)/(IY+d) *and* to the register named
// in the opcode's bottom three bits (undocumented on all but register
// 6).
func (c *CPU) opIndexedCB() {
	d := c.fetchSignedByte()
	addr := uint16(int32(c.hl()) + int32(d))
	c.WZ = addr
	opcode := c.bus.Read(c.PC)
	c.PC++
	c.bus.Contend(c.PC-1, 2)
	c.bus.Contend(addr, 1)

	v := c.bus.Read(addr)
	r := int(opcode & 0x07)

	switch {
	case opcode&0xC0 == 0x40: // BIT
		n := uint((opcode >> 3) & 7)
		c.bitIndexed(n, v)
	case opcode&0xC0 == 0x00: // rotate/shift
		shifts := []func(*CPU, byte) byte{
			(*CPU).rlc, (*CPU).rrc, (*CPU).rl, (*CPU).rr,
			(*CPU).sla, (*CPU).sra, (*CPU).sll, (*CPU).srl,
		}
		result := shifts[(opcode>>3)&7](c, v)
		c.bus.Write(addr, result)
		if r != 6 {
			*c.regs8[r] = result
		}
	case opcode&0xC0 == 0x80: // RES
		n := uint((opcode >> 3) & 7)
		result := c.res(n, v)
		c.bus.Write(addr, result)
		if r != 6 {
			*c.regs8[r] = result
		}
	default: // SET
		n := uint((opcode >> 3) & 7)
		result := c.set(n, v)
		c.bus.Write(addr, result)
		if r != 6 {
			*c.regs8[r] = result
		}
	}
}
