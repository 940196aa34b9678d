package z80

import "testing"

// fakeBus is a flat 64KiB RAM with no port devices and no interrupt
// line, just enough to drive the interpreter through individual
// instructions and check the resulting register/memory state.
type fakeBus struct {
	ram     [65536]byte
	ports   map[uint16]byte
	tstates uint64
	intLine bool
}

func newFakeBus() *fakeBus { return &fakeBus{ports: map[uint16]byte{}} }

func (b *fakeBus) FetchOpcode(addr uint16) byte {
	v := b.ram[addr]
	b.tstates += 4
	return v
}
func (b *fakeBus) Read(addr uint16) byte {
	v := b.ram[addr]
	b.tstates += 3
	return v
}
func (b *fakeBus) Write(addr uint16, v byte) {
	b.ram[addr] = v
	b.tstates += 3
}
func (b *fakeBus) ReadPort(port uint16) byte {
	b.tstates += 4
	return b.ports[port]
}
func (b *fakeBus) WritePort(port uint16, v byte) {
	b.tstates += 4
	b.ports[port] = v
}
func (b *fakeBus) Contend(addr uint16, tstates int) { b.tstates += uint64(tstates) }
func (b *fakeBus) ActiveINT() bool                  { return b.intLine }
func (b *fakeBus) Tstates() uint64                  { return b.tstates }

func (b *fakeBus) load(addr uint16, code ...byte) {
	copy(b.ram[addr:], code)
}

func newCPU(bus *fakeBus) *CPU {
	return New(bus)
}

var _ Bus = (*fakeBus)(nil)

func TestLDImmediate(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0x3E, 0x42) // LD A,0x42
	c := newCPU(bus)
	c.Step()
	if c.A != 0x42 {
		t.Fatalf("A = %#x, want 0x42", c.A)
	}
	if c.PC != 2 {
		t.Fatalf("PC = %#x, want 2", c.PC)
	}
}

func TestADDSetsCarryAndZero(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0x80) // ADD A,B
	c := newCPU(bus)
	c.A = 0xFF
	c.B = 0x01
	c.Step()
	if c.A != 0x00 {
		t.Fatalf("A = %#x, want 0x00", c.A)
	}
	if !c.flag(FlagZ) || !c.flag(FlagC) {
		t.Fatalf("F = %#08b, want Z and C set", c.F)
	}
}

func TestINCBWraps(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0x04) // INC B
	c := newCPU(bus)
	c.B = 0xFF
	c.Step()
	if c.B != 0x00 {
		t.Fatalf("B = %#x, want 0x00", c.B)
	}
	if !c.flag(FlagZ) {
		t.Fatal("expected Z flag set after wraparound INC")
	}
}

func TestJPAbsolute(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0xC3, 0x00, 0x10) // JP 0x1000
	c := newCPU(bus)
	c.Step()
	if c.PC != 0x1000 {
		t.Fatalf("PC = %#x, want 0x1000", c.PC)
	}
}

func TestCallAndRet(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0xCD, 0x00, 0x10) // CALL 0x1000
	bus.load(0x1000, 0xC9)        // RET
	c := newCPU(bus)
	c.SP = 0xFFFE
	c.Step() // CALL
	if c.PC != 0x1000 {
		t.Fatalf("PC after CALL = %#x, want 0x1000", c.PC)
	}
	c.Step() // RET
	if c.PC != 0x0003 {
		t.Fatalf("PC after RET = %#x, want 0x0003 (return address)", c.PC)
	}
}

func TestPushPopAF(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0xF5, 0xF1) // PUSH AF ; POP AF
	c := newCPU(bus)
	c.SP = 0xFFFE
	c.A, c.F = 0x12, 0x34
	c.Step() // PUSH AF
	c.A, c.F = 0, 0
	c.Step() // POP AF
	if c.A != 0x12 || c.F != 0x34 {
		t.Fatalf("AF after PUSH/POP round trip = %#x/%#x, want 0x12/0x34", c.A, c.F)
	}
}

func TestExAFAF(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0x08) // EX AF,AF'
	c := newCPU(bus)
	c.A, c.F = 0x11, 0x22
	c.A2, c.F2 = 0x33, 0x44
	c.Step()
	if c.A != 0x33 || c.F != 0x44 {
		t.Fatalf("AF after EX AF,AF' = %#x/%#x, want 0x33/0x44", c.A, c.F)
	}
	if c.A2 != 0x11 || c.F2 != 0x22 {
		t.Fatalf("AF' after EX AF,AF' = %#x/%#x, want 0x11/0x22", c.A2, c.F2)
	}
}

func TestHaltConsumesTStatesWithoutAdvancingPC(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0x76) // HALT
	c := newCPU(bus)
	c.Step()
	if !c.Halted {
		t.Fatal("expected Halted = true after HALT")
	}
	pc := c.PC
	before := bus.Tstates()
	c.Step()
	if c.PC != pc {
		t.Fatalf("PC moved during a halted step: %#x -> %#x", pc, c.PC)
	}
	if bus.Tstates() == before {
		t.Fatal("a halted step should still consume T-states")
	}
}

func TestCBBitInstruction(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0xCB, 0x7F) // BIT 7,A
	c := newCPU(bus)
	c.A = 0x80
	c.Step()
	if c.flag(FlagZ) {
		t.Fatal("BIT 7,A with bit 7 set should clear Z")
	}

	bus2 := newFakeBus()
	bus2.load(0, 0xCB, 0x7F)
	c2 := newCPU(bus2)
	c2.A = 0x00
	c2.Step()
	if !c2.flag(FlagZ) {
		t.Fatal("BIT 7,A with bit 7 clear should set Z")
	}
}

func TestEDLDIR(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0xED, 0xB0) // LDIR
	bus.load(0x2000, 0xAA, 0xBB, 0xCC)
	c := newCPU(bus)
	c.SetHL(0x2000)
	c.SetDE(0x3000)
	c.SetBC(3)
	// LDIR re-dispatches itself (PC rewound to the ED prefix) for as
	// long as BC is nonzero, so a full block copy takes one Step per byte.
	for i := 0; i < 3; i++ {
		c.Step()
	}
	if bus.ram[0x3000] != 0xAA || bus.ram[0x3001] != 0xBB || bus.ram[0x3002] != 0xCC {
		t.Fatalf("LDIR did not copy all three bytes: %#x %#x %#x", bus.ram[0x3000], bus.ram[0x3001], bus.ram[0x3002])
	}
	if c.BC() != 0 {
		t.Fatalf("BC after LDIR = %#x, want 0", c.BC())
	}
}

func TestInterruptServicedAtIM1(t *testing.T) {
	bus := newFakeBus()
	bus.load(0, 0x00) // NOP, then the interrupt fires
	c := newCPU(bus)
	c.IM = 1
	c.IFF1, c.IFF2 = true, true
	c.SP = 0xFFFE
	c.Step() // NOP: samples the interrupt line at the next boundary

	bus.intLine = true
	c.Step()
	if c.PC != 0x0038 {
		t.Fatalf("PC after IM1 interrupt = %#x, want 0x0038", c.PC)
	}
	if c.IFF1 {
		t.Fatal("IFF1 should be cleared while servicing an interrupt")
	}
}
