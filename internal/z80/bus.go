// Package z80 implements a cycle-accurate Zilog Z80 interpreter, including
// the undocumented opcodes, flag effects and hidden registers (WZ, Q) that
// ZX Spectrum software and test suites (ZEXALL/ZEXDOC) rely on.
package z80

// Bus is everything the CPU needs from the rest of the machine. Every
// method is responsible for its own contention accounting (it must add
// any extra wait states to the shared t-state counter before returning),
// mirroring the tightly-coupled CPU/Memory/Video relationship described by
// the machine this core emulates: the CPU never computes contention
// itself, it only tells the bus which address is being accessed.
type Bus interface {
	// FetchOpcode reads an M1 opcode byte: base cost 4 T-states.
	FetchOpcode(addr uint16) byte

	// Read/Write access memory: base cost 3 T-states.
	Read(addr uint16) byte
	Write(addr uint16, value byte)

	// ReadPort/WritePort access an I/O port. The bus applies the
	// early/late contention rule itself and charges 4 T-states base.
	ReadPort(port uint16) byte
	WritePort(port uint16, value byte)

	// Contend charges extra T-states for an internal CPU cycle that
	// still drives an address onto the bus (e.g. the extra cycle after
	// INC (HL), or the seven extra T-states of ADD HL,rr), so contended
	// memory pages still stall the CPU during cycles that touch no
	// explicit Read/Write.
	Contend(addr uint16, tstates int)

	// ActiveINT reports whether the interrupt line is currently
	// asserted; sampled once per instruction boundary.
	ActiveINT() bool

	// Tstates returns the bus's running T-state counter: the single
	// source of truth for elapsed time, which every access above
	// advances by its base cost plus any contention delay before
	// returning. The CPU never keeps its own independent clock.
	Tstates() uint64
}

// TapeTrap lets an external ROM-trap hook intercept well-known PC values
// (the tape loader/saver entry points) to accelerate tape I/O. It returns
// true if it handled the trap (and may have altered PC/registers itself).
type TapeTrap interface {
	HandleTrap(pc uint16, cpu *CPU) bool
}
