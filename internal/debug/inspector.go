// Package debug provides register inspection, disassembly and
// breakpoint/backstep facilities for a running Z80 core, independent
// of any particular frontend. cmd/zxemu wires an Inspector into its
// debug overlay; tests can drive one headlessly.
package debug

import (
	"fmt"
	"strings"

	"github.com/zxspectrum/core/internal/z80"
)

// Memory is the subset of memory.Memory the inspector needs: plain
// (uncontended) byte access, since peeking state must not perturb the
// T-state clock the way a real bus access would.
type Memory interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// RegisterInfo describes a single CPU register for display.
type RegisterInfo struct {
	Name     string
	BitWidth int
	Value    uint64
	Group    string // "general", "shadow", "index", "status", "flags"
}

// Inspector exposes a z80.CPU's architectural state for debugging:
// register read/write, bulk memory access and single-step control.
// It never owns the CPU or memory; the caller remains in charge of
// the run loop.
type Inspector struct {
	CPU *z80.CPU
	Mem Memory
}

func New(cpu *z80.CPU, mem Memory) *Inspector {
	return &Inspector{CPU: cpu, Mem: mem}
}

func (in *Inspector) Registers() []RegisterInfo {
	c := in.CPU
	return []RegisterInfo{
		{Name: "A", BitWidth: 8, Value: uint64(c.A), Group: "general"},
		{Name: "F", BitWidth: 8, Value: uint64(c.F), Group: "flags"},
		{Name: "B", BitWidth: 8, Value: uint64(c.B), Group: "general"},
		{Name: "C", BitWidth: 8, Value: uint64(c.C), Group: "general"},
		{Name: "D", BitWidth: 8, Value: uint64(c.D), Group: "general"},
		{Name: "E", BitWidth: 8, Value: uint64(c.E), Group: "general"},
		{Name: "H", BitWidth: 8, Value: uint64(c.H), Group: "general"},
		{Name: "L", BitWidth: 8, Value: uint64(c.L), Group: "general"},
		{Name: "A'", BitWidth: 8, Value: uint64(c.A2), Group: "shadow"},
		{Name: "F'", BitWidth: 8, Value: uint64(c.F2), Group: "shadow"},
		{Name: "B'", BitWidth: 8, Value: uint64(c.B2), Group: "shadow"},
		{Name: "C'", BitWidth: 8, Value: uint64(c.C2), Group: "shadow"},
		{Name: "D'", BitWidth: 8, Value: uint64(c.D2), Group: "shadow"},
		{Name: "E'", BitWidth: 8, Value: uint64(c.E2), Group: "shadow"},
		{Name: "H'", BitWidth: 8, Value: uint64(c.H2), Group: "shadow"},
		{Name: "L'", BitWidth: 8, Value: uint64(c.L2), Group: "shadow"},
		{Name: "IX", BitWidth: 16, Value: uint64(c.IX), Group: "index"},
		{Name: "IY", BitWidth: 16, Value: uint64(c.IY), Group: "index"},
		{Name: "SP", BitWidth: 16, Value: uint64(c.SP), Group: "general"},
		{Name: "PC", BitWidth: 16, Value: uint64(c.PC), Group: "general"},
		{Name: "I", BitWidth: 8, Value: uint64(c.I), Group: "status"},
		{Name: "R", BitWidth: 8, Value: uint64(c.R), Group: "status"},
		{Name: "IM", BitWidth: 8, Value: uint64(c.IM), Group: "status"},
	}
}

func (in *Inspector) Register(name string) (uint64, bool) {
	c := in.CPU
	switch strings.ToUpper(name) {
	case "A":
		return uint64(c.A), true
	case "F":
		return uint64(c.F), true
	case "B":
		return uint64(c.B), true
	case "C":
		return uint64(c.C), true
	case "D":
		return uint64(c.D), true
	case "E":
		return uint64(c.E), true
	case "H":
		return uint64(c.H), true
	case "L":
		return uint64(c.L), true
	case "BC":
		return uint64(c.BC()), true
	case "DE":
		return uint64(c.DE()), true
	case "HL":
		return uint64(c.HL()), true
	case "IX":
		return uint64(c.IX), true
	case "IY":
		return uint64(c.IY), true
	case "SP":
		return uint64(c.SP), true
	case "PC":
		return uint64(c.PC), true
	case "I":
		return uint64(c.I), true
	case "R":
		return uint64(c.R), true
	case "IM":
		return uint64(c.IM), true
	}
	return 0, false
}

func (in *Inspector) SetRegister(name string, value uint64) bool {
	c := in.CPU
	switch strings.ToUpper(name) {
	case "A":
		c.A = byte(value)
	case "F":
		c.F = byte(value)
	case "B":
		c.B = byte(value)
	case "C":
		c.C = byte(value)
	case "D":
		c.D = byte(value)
	case "E":
		c.E = byte(value)
	case "H":
		c.H = byte(value)
	case "L":
		c.L = byte(value)
	case "BC":
		c.SetBC(uint16(value))
	case "DE":
		c.SetDE(uint16(value))
	case "HL":
		c.SetHL(uint16(value))
	case "IX":
		c.IX = uint16(value)
	case "IY":
		c.IY = uint16(value)
	case "SP":
		c.SP = uint16(value)
	case "PC":
		c.PC = uint16(value)
	default:
		return false
	}
	return true
}

func (in *Inspector) ReadMemory(addr uint16, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = in.Mem.Read(addr + uint16(i))
	}
	return out
}

func (in *Inspector) WriteMemory(addr uint16, data []byte) {
	for i, b := range data {
		in.Mem.Write(addr+uint16(i), b)
	}
}

// FormatFlags renders F as the conventional SZ5H3PNC letter string,
// upper-case for a set bit and lower-case for clear; the digit
// positions 5 and 3 show '-' when clear.
func FormatFlags(f byte) string {
	bits := []struct {
		mask byte
		ch   byte
	}{
		{z80.FlagS, 'S'}, {z80.FlagZ, 'Z'}, {z80.FlagY, '5'},
		{z80.FlagH, 'H'}, {z80.FlagX, '3'}, {z80.FlagPV, 'P'},
		{z80.FlagN, 'N'}, {z80.FlagC, 'C'},
	}
	buf := make([]byte, len(bits))
	for i, b := range bits {
		if f&b.mask != 0 {
			buf[i] = b.ch
		} else if b.ch >= 'A' && b.ch <= 'Z' {
			buf[i] = b.ch + ('a' - 'A')
		} else {
			buf[i] = '-'
		}
	}
	return string(buf)
}

// Backtrace walks the stack from SP, reading depth little-endian
// 16-bit return addresses. It doesn't know which of those are real
// call frames versus pushed data; the caller filters by context.
func (in *Inspector) Backtrace(depth int) []uint16 {
	sp := in.CPU.SP
	out := make([]uint16, 0, depth)
	for i := 0; i < depth; i++ {
		lo := in.Mem.Read(sp)
		hi := in.Mem.Read(sp + 1)
		out = append(out, uint16(hi)<<8|uint16(lo))
		sp += 2
	}
	return out
}

func (in *Inspector) String() string {
	c := in.CPU
	return fmt.Sprintf("PC=%04X SP=%04X AF=%04X BC=%04X DE=%04X HL=%04X IX=%04X IY=%04X F=%s",
		c.PC, c.SP, c.AF(), c.BC(), c.DE(), c.HL(), c.IX, c.IY, FormatFlags(c.F))
}
