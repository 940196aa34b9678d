// Package snapshot loads and saves whole-machine state in the two
// container formats the Spectrum emulation scene standardised on: SNA
// (a flat register-and-memory dump) and Z80 (a versioned format with
// optional per-page RLE compression).
package snapshot

import (
	"fmt"

	"github.com/zxspectrum/core/internal/ay"
	"github.com/zxspectrum/core/internal/memory"
	"github.com/zxspectrum/core/internal/video"
	"github.com/zxspectrum/core/internal/z80"
)

// Target bundles the machine components a snapshot loader restores into
// and a saver reads from. It deliberately holds concrete component
// pointers rather than depending on the machine package, since loading
// or saving a snapshot never needs the scheduler or the bus wiring.
type Target struct {
	CPU    *z80.CPU
	Memory *memory.Memory
	Video  *video.Video
	AY     *ay.AY

	// Is128 tells the loader/saver whether the target machine has the
	// 128K-family paging registers and AY chip; it also picks which SNA
	// size and Z80 machine-type byte to use on save.
	Is128 bool
}

// ErrMalformed is returned when a snapshot image fails a structural or
// size check.
type ErrMalformed struct{ Reason string }

func (e *ErrMalformed) Error() string { return fmt.Sprintf("snapshot: malformed image: %s", e.Reason) }

// ErrUnsupportedMachine is returned when a Z80 file names a machine
// type this package has no mapping for.
type ErrUnsupportedMachine struct{ Code byte }

func (e *ErrUnsupportedMachine) Error() string {
	return fmt.Sprintf("snapshot: unsupported Z80 machine code %d", e.Code)
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

func putLE16(b []byte, v uint16) { b[0], b[1] = byte(v), byte(v>>8) }
