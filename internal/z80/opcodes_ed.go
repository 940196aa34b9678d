package z80

func (c *CPU) initEDOps() {
	for i := range c.edOps {
		c.edOps[i] = opNop
	}

	for p := 0; p < 4; p++ {
		p := p
		c.edOps[byte(0x42|p<<4)] = func(c *CPU) { c.opSbcHL(p) }
		c.edOps[byte(0x4A|p<<4)] = func(c *CPU) { c.opAdcHL(p) }
		c.edOps[byte(0x43|p<<4)] = func(c *CPU) { c.opLDAddrPair(p) }
		c.edOps[byte(0x4B|p<<4)] = func(c *CPU) { c.opLDPairAddr(p) }
	}

	for r := 0; r < 8; r++ {
		r := r
		if r == 6 {
			c.edOps[byte(0x40|r<<3)] = (*CPU).opInCFlagsOnly
		} else {
			c.edOps[byte(0x40|r<<3)] = func(c *CPU) { c.opInReg(r) }
		}
		if r == 6 {
			c.edOps[byte(0x41|r<<3)] = func(c *CPU) { c.out(c.BC(), 0) }
		} else {
			c.edOps[byte(0x41|r<<3)] = func(c *CPU) { c.opOutReg(r) }
		}
	}

	c.edOps[0x44] = (*CPU).neg
	c.edOps[0x4C] = (*CPU).neg
	c.edOps[0x54] = (*CPU).neg
	c.edOps[0x5C] = (*CPU).neg
	c.edOps[0x64] = (*CPU).neg
	c.edOps[0x6C] = (*CPU).neg
	c.edOps[0x74] = (*CPU).neg
	c.edOps[0x7C] = (*CPU).neg

	c.edOps[0x45] = (*CPU).opRetn
	c.edOps[0x55] = (*CPU).opRetn
	c.edOps[0x65] = (*CPU).opRetn
	c.edOps[0x75] = (*CPU).opRetn
	c.edOps[0x4D] = (*CPU).opReti
	c.edOps[0x5D] = (*CPU).opRetn
	c.edOps[0x6D] = (*CPU).opRetn
	c.edOps[0x7D] = (*CPU).opRetn

	c.edOps[0x46] = func(c *CPU) { c.IM = 0 }
	c.edOps[0x4E] = func(c *CPU) { c.IM = 0 }
	c.edOps[0x56] = func(c *CPU) { c.IM = 1 }
	c.edOps[0x5E] = func(c *CPU) { c.IM = 2 }
	c.edOps[0x66] = func(c *CPU) { c.IM = 0 }
	c.edOps[0x6E] = func(c *CPU) { c.IM = 0 }
	c.edOps[0x76] = func(c *CPU) { c.IM = 1 }
	c.edOps[0x7E] = func(c *CPU) { c.IM = 2 }

	c.edOps[0x47] = func(c *CPU) { c.I = c.A; c.bus.Contend(c.PC-1, 1) }
	c.edOps[0x4F] = func(c *CPU) { c.R = c.A; c.bus.Contend(c.PC-1, 1) }
	c.edOps[0x57] = (*CPU).opLDAI
	c.edOps[0x5F] = (*CPU).opLDAR

	c.edOps[0x67] = (*CPU).opRRD
	c.edOps[0x6F] = (*CPU).opRLD

	c.edOps[0xA0] = (*CPU).opLDI
	c.edOps[0xA8] = (*CPU).opLDD
	c.edOps[0xB0] = (*CPU).opLDIR
	c.edOps[0xB8] = (*CPU).opLDDR

	c.edOps[0xA1] = (*CPU).opCPI
	c.edOps[0xA9] = (*CPU).opCPD
	c.edOps[0xB1] = (*CPU).opCPIR
	c.edOps[0xB9] = (*CPU).opCPDR

	c.edOps[0xA2] = (*CPU).opINI
	c.edOps[0xAA] = (*CPU).opIND
	c.edOps[0xB2] = (*CPU).opINIR
	c.edOps[0xBA] = (*CPU).opINDR

	c.edOps[0xA3] = (*CPU).opOUTI
	c.edOps[0xAB] = (*CPU).opOUTD
	c.edOps[0xB3] = (*CPU).opOTIR
	c.edOps[0xBB] = (*CPU).opOTDR
}

func (c *CPU) opEDPrefix() {
	c.activePrefix = prefixNone
	opcode := c.fetchOpcode()
	c.edOps[opcode](c)
}

func (c *CPU) opSbcHL(p int) {
	c.bus.Contend(c.PC-1, 7)
	c.WZ = c.HL() + 1
	c.SetHL(c.sbc16(c.HL(), c.getPairSP(p)))
}

func (c *CPU) opAdcHL(p int) {
	c.bus.Contend(c.PC-1, 7)
	c.WZ = c.HL() + 1
	c.SetHL(c.adc16(c.HL(), c.getPairSP(p)))
}

func (c *CPU) opLDAddrPair(p int) {
	addr := c.fetchWord()
	c.WZ = addr + 1
	v := c.getPairSP(p)
	c.bus.Write(addr, byte(v))
	c.bus.Write(addr+1, byte(v>>8))
}

func (c *CPU) opLDPairAddr(p int) {
	addr := c.fetchWord()
	c.WZ = addr + 1
	c.setPairSP(p, c.readWord(addr))
}

func (c *CPU) opInReg(r int) {
	v := c.in(c.BC())
	c.setReg8(r, v)
	c.F = sz53p(v) | (c.F & FlagC)
	c.WZ = c.BC() + 1
}

func (c *CPU) opInCFlagsOnly() {
	v := c.in(c.BC())
	c.F = sz53p(v) | (c.F & FlagC)
	c.WZ = c.BC() + 1
}

func (c *CPU) opOutReg(r int) {
	c.out(c.BC(), c.reg8(r))
	c.WZ = c.BC() + 1
}

func (c *CPU) opRetn() {
	c.IFF1 = c.IFF2
	c.PC = c.pop()
	c.WZ = c.PC
}

func (c *CPU) opReti() {
	c.IFF1 = c.IFF2
	c.PC = c.pop()
	c.WZ = c.PC
}

func (c *CPU) opLDAI() {
	c.A = c.I
	c.bus.Contend(c.PC-1, 1)
	c.F = sz53(c.A) | (c.F & FlagC)
	if c.IFF2 {
		c.F |= FlagPV
	}
	c.setQ(true)
}

func (c *CPU) opLDAR() {
	c.A = c.R
	c.bus.Contend(c.PC-1, 1)
	c.F = sz53(c.A) | (c.F & FlagC)
	if c.IFF2 {
		c.F |= FlagPV
	}
	c.setQ(true)
}

func (c *CPU) opRRD() {
	addr := c.HL()
	m := c.bus.Read(addr)
	c.bus.Contend(addr, 4)
	result := (c.A & 0xF0) | (m & 0x0F)
	newM := (m >> 4) | (c.A << 4)
	c.bus.Write(addr, newM)
	c.A = result
	c.F = sz53p(c.A) | (c.F & FlagC)
	c.WZ = addr + 1
	c.setQ(true)
}

func (c *CPU) opRLD() {
	addr := c.HL()
	m := c.bus.Read(addr)
	c.bus.Contend(addr, 4)
	result := (c.A & 0xF0) | (m >> 4)
	newM := (m << 4) | (c.A & 0x0F)
	c.bus.Write(addr, newM)
	c.A = result
	c.F = sz53p(c.A) | (c.F & FlagC)
	c.WZ = addr + 1
	c.setQ(true)
}

// blockTransferFlags is shared by LDI/LDD/LDIR/LDDR: S/Z/C are
// untouched, H/N are reset, and 3/5 come from (A+transferred-byte)
// rather than the result, per the undocumented behaviour Patrik Rak
// documented from silicon.
func (c *CPU) blockTransferFlags(transferred byte, bcNonZero bool) {
	n := c.A + transferred
	f := c.F & (FlagS | FlagZ | FlagC)
	if n&0x02 != 0 {
		f |= FlagY
	}
	if n&0x08 != 0 {
		f |= FlagX
	}
	if bcNonZero {
		f |= FlagPV
	}
	c.F = f
	c.setQ(true)
}

func (c *CPU) opLDI() {
	v := c.bus.Read(c.HL())
	c.bus.Write(c.DE(), v)
	c.bus.Contend(c.DE(), 2)
	c.SetHL(c.HL() + 1)
	c.SetDE(c.DE() + 1)
	c.SetBC(c.BC() - 1)
	c.blockTransferFlags(v, c.BC() != 0)
}

func (c *CPU) opLDD() {
	v := c.bus.Read(c.HL())
	c.bus.Write(c.DE(), v)
	c.bus.Contend(c.DE(), 2)
	c.SetHL(c.HL() - 1)
	c.SetDE(c.DE() - 1)
	c.SetBC(c.BC() - 1)
	c.blockTransferFlags(v, c.BC() != 0)
}

func (c *CPU) opLDIR() {
	c.opLDI()
	if c.BC() != 0 {
		c.bus.Contend(c.DE(), 5)
		c.PC -= 2
		c.WZ = c.PC + 1
	}
}

func (c *CPU) opLDDR() {
	c.opLDD()
	if c.BC() != 0 {
		c.bus.Contend(c.DE(), 5)
		c.PC -= 2
		c.WZ = c.PC + 1
	}
}

func (c *CPU) blockCompareFlags(v byte, bcNonZero bool) {
	result := c.A - v
	halfCarry := (c.A^v^result)&0x10 != 0
	n := result
	if halfCarry {
		n--
	}
	f := FlagN | (c.F & FlagC)
	f |= sz53Table[result] & (FlagS | FlagZ)
	if halfCarry {
		f |= FlagH
	}
	if n&0x02 != 0 {
		f |= FlagY
	}
	if n&0x08 != 0 {
		f |= FlagX
	}
	if bcNonZero {
		f |= FlagPV
	}
	c.F = f
	c.setQ(true)
}

func (c *CPU) opCPI() {
	v := c.bus.Read(c.HL())
	c.bus.Contend(c.HL(), 5)
	c.WZ++
	c.SetHL(c.HL() + 1)
	c.SetBC(c.BC() - 1)
	c.blockCompareFlags(v, c.BC() != 0)
}

func (c *CPU) opCPD() {
	v := c.bus.Read(c.HL())
	c.bus.Contend(c.HL(), 5)
	c.WZ--
	c.SetHL(c.HL() - 1)
	c.SetBC(c.BC() - 1)
	c.blockCompareFlags(v, c.BC() != 0)
}

func (c *CPU) opCPIR() {
	c.opCPI()
	if c.BC() != 0 && !c.flag(FlagZ) {
		c.bus.Contend(c.HL()-1, 5)
		c.PC -= 2
		c.WZ = c.PC + 1
	}
}

func (c *CPU) opCPDR() {
	c.opCPD()
	if c.BC() != 0 && !c.flag(FlagZ) {
		c.bus.Contend(c.HL()+1, 5)
		c.PC -= 2
		c.WZ = c.PC + 1
	}
}

// blockIOFlags implements the full Patrik-Rak-documented flag set for
// INI/IND/OUTI/OUTD and their repeating forms.
func (c *CPU) blockIOFlags(value, bReg byte, addSum int) {
	f := sz53(bReg)
	if value&0x80 != 0 {
		f |= FlagN
	}
	sum := int(value) + addSum
	if sum > 0xFF {
		f |= FlagH | FlagC
	}
	if parityTable[byte(sum&0x07)^bReg] != 0 {
		f |= FlagPV
	}
	c.F = f
	c.setQ(true)
}

func (c *CPU) opINI() {
	c.bus.Contend(c.PC-1, 1)
	v := c.in(c.BC())
	c.bus.Write(c.HL(), v)
	c.B--
	c.SetHL(c.HL() + 1)
	c.WZ = c.BC() + 1
	c.blockIOFlags(v, c.B, int(c.C)+1)
}

func (c *CPU) opIND() {
	c.bus.Contend(c.PC-1, 1)
	v := c.in(c.BC())
	c.bus.Write(c.HL(), v)
	c.B--
	c.SetHL(c.HL() - 1)
	c.WZ = c.BC() - 1
	c.blockIOFlags(v, c.B, int(c.C)-1)
}

func (c *CPU) opINIR() {
	c.opINI()
	if c.B != 0 {
		c.bus.Contend(c.HL()-1, 5)
		c.PC -= 2
	}
}

func (c *CPU) opINDR() {
	c.opIND()
	if c.B != 0 {
		c.bus.Contend(c.HL()-1, 5)
		c.PC -= 2
	}
}

func (c *CPU) opOUTI() {
	c.bus.Contend(c.PC-1, 1)
	v := c.bus.Read(c.HL())
	c.B--
	c.out(c.BC(), v)
	c.SetHL(c.HL() + 1)
	c.WZ = c.BC() + 1
	c.blockIOFlags(v, c.B, int(c.L))
}

func (c *CPU) opOUTD() {
	c.bus.Contend(c.PC-1, 1)
	v := c.bus.Read(c.HL())
	c.B--
	c.out(c.BC(), v)
	c.SetHL(c.HL() - 1)
	c.WZ = c.BC() - 1
	c.blockIOFlags(v, c.B, int(c.L))
}

func (c *CPU) opOTIR() {
	c.opOUTI()
	if c.B != 0 {
		c.bus.Contend(c.BC(), 5)
		c.PC -= 2
	}
}

func (c *CPU) opOTDR() {
	c.opOUTD()
	if c.B != 0 {
		c.bus.Contend(c.BC(), 5)
		c.PC -= 2
	}
}
