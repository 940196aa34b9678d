package z80

// initCBOps builds the CB-prefixed table: rotate/shift group (0x00-0x3F),
// BIT (0x40-0x7F), RES (0x80-0xBF) and SET (0xC0-0xFF), each over the
// eight 3-bit register encodings.
func (c *CPU) initCBOps() {
	shifts := []func(*CPU, byte) byte{
		(*CPU).rlc, (*CPU).rrc, (*CPU).rl, (*CPU).rr,
		(*CPU).sla, (*CPU).sra, (*CPU).sll, (*CPU).srl,
	}
	for op := 0; op < 8; op++ {
		op := op
		for r := 0; r < 8; r++ {
			r := r
			c.cbOps[byte(op<<3|r)] = func(c *CPU) {
				c.setReg8(r, shifts[op](c, c.reg8(r)))
			}
		}
	}
	for n := 0; n < 8; n++ {
		for r := 0; r < 8; r++ {
			n, r := uint(n), r
			c.cbOps[byte(0x40|int(n)<<3|r)] = func(c *CPU) {
				v := c.reg8(r)
				if r == 6 {
					if c.activePrefix == prefixNone {
						c.WZ = c.HL() + 1
					}
					c.bitIndexed(n, v)
				} else {
					c.bit(n, v)
				}
			}
			c.cbOps[byte(0x80|int(n)<<3|r)] = func(c *CPU) { c.setReg8(r, c.res(n, c.reg8(r))) }
			c.cbOps[byte(0xC0|int(n)<<3|r)] = func(c *CPU) { c.setReg8(r, c.set(n, c.reg8(r))) }
		}
	}
}

// opCBPrefix executes the CB-prefixed table; indexed forms (after
// DD/FD) fetch their displacement and go to opIndexedCB instead (see
// opcodes_index.go), since indexed CB opcodes additionally
// write the result back into a register for everything but BIT.
func (c *CPU) opCBPrefix() {
	opcode := c.fetchOpcode()
	if opcode&7 == 6 {
		c.bus.Contend(c.PC-1, 1)
	}
	c.cbOps[opcode](c)
}
