package machine

import (
	"github.com/zxspectrum/core/internal/ay"
	"github.com/zxspectrum/core/internal/memory"
	"github.com/zxspectrum/core/internal/ports"
	"github.com/zxspectrum/core/internal/video"
	"github.com/zxspectrum/core/internal/z80"
)

// Bus aggregates Memory, Video, Ports and the AY chip behind the single
// interface the CPU core talks to, the way the teacher's CPU cores are
// all driven through one bus type regardless of which architecture is
// plugged in. Bus owns contention accounting; Ports, Memory and Video
// stay ignorant of each other.
type Bus struct {
	mem   *memory.Memory
	video *video.Video
	ports *ports.Ports
	ay    *ay.AY

	intDeadline uint64 // T-state the interrupt line drops at, each frame
	absolute    uint64 // total T-states elapsed since power-on; never carried or reset
}

// NewBus wires the four components together for region.
func NewBus(region Region, mem *memory.Memory, vid *video.Video, prt *ports.Ports, chip *ay.AY) *Bus {
	return &Bus{mem: mem, video: vid, ports: prt, ay: chip, intDeadline: uint64(region.Timing.IntEndT)}
}

// FetchOpcode reads an M1 byte, charging its whole 4 T-state access
// against the raster's current position once.
func (b *Bus) FetchOpcode(addr uint16) byte {
	v := b.mem.Read(addr)
	b.contendN(addr, 4)
	return v
}

// Read reads one byte, charging its whole 3 T-state access once.
func (b *Bus) Read(addr uint16) byte {
	v := b.mem.Read(addr)
	b.contendN(addr, 3)
	return v
}

// Write stores one byte, charging its whole 3 T-state access once.
func (b *Bus) Write(addr uint16, value byte) {
	b.mem.Write(addr, value)
	b.contendN(addr, 3)
}

// Contend charges tstates extra T-states for an internal CPU cycle that
// still drives addr onto the bus.
func (b *Bus) Contend(addr uint16, tstates int) {
	b.contendN(addr, tstates)
}

func (b *Bus) contendN(addr uint16, n int) {
	before := b.video.Tstates()
	b.video.Draw(n, b.mem.IsContended(addr))
	b.absolute += b.video.Tstates() - before
}

// ReadPort and WritePort delegate entirely to Ports, which already
// implements the full early/late I/O contention pattern itself.
func (b *Bus) ReadPort(port uint16) byte        { return b.ports.ReadPort(port) }
func (b *Bus) WritePort(port uint16, value byte) { b.ports.WritePort(port, value) }

// ActiveINT reports whether the interrupt line is still asserted this
// frame: it drops IntEndT T-states after the frame (and the line)
// starts, and Video's master clock is the bus's single source of time.
func (b *Bus) ActiveINT() bool { return b.video.Tstates() < b.intDeadline }

// Tstates returns the running per-frame master clock Video and the CPU
// core share; it carries over (not resets) at frame boundaries.
func (b *Bus) Tstates() uint64 { return b.video.Tstates() }

// AbsoluteTstates returns the total T-states elapsed since power-on,
// counting straight through frame boundaries. The tape deck's edge
// timing runs against this clock rather than Tstates, since a pilot
// tone's pulses span many frames and Tstates gets carried down to a
// small residual at the end of each one.
func (b *Bus) AbsoluteTstates() uint64 { return b.absolute }

var _ z80.Bus = (*Bus)(nil)
