// Package machine wires memory, video, ports, the AY chip and the Z80
// core into one Bus implementation and drives it frame by frame,
// parameterizing the eight members of the Spectrum family through a
// single Region value rather than a build tag or a per-model type.
package machine

import (
	"github.com/zxspectrum/core/internal/video"
	"github.com/zxspectrum/core/internal/z80"
)

// Type names one member of the Spectrum family.
type Type int

const (
	Type48K Type = iota
	Type128K
	TypePlus2
	TypePlus2A
	TypePlus3
	TypePentagon
	TypeTK90X
	TypeTK95
)

func (t Type) String() string {
	switch t {
	case Type48K:
		return "48K"
	case Type128K:
		return "128K"
	case TypePlus2:
		return "+2"
	case TypePlus2A:
		return "+2A"
	case TypePlus3:
		return "+3"
	case TypePentagon:
		return "Pentagon"
	case TypeTK90X:
		return "TK90X"
	case TypeTK95:
		return "TK95"
	default:
		return "unknown"
	}
}

// Region carries every constant that distinguishes one machine variant
// from another: ROM count, contention model and frame timing. It's a
// plain value selected once at Machine construction, the same way the
// teacher's CPU core takes an injected opcode/timing table instead of
// branching per architecture.
type Region struct {
	Type Type

	Is128     bool // has the 128K-style banked memory map and paging ports
	HasAY     bool // has an AY-3-8912 at all (stock 48K/TK machines don't)
	ROMPages  int
	Contention z80.Contention

	FrameTStates int
	CPUClockHz   int
	AYClockHz    int

	Timing video.Timing
}

// leftBorderT is fixed across every variant: the border is always
// BorderSize pixels wide and the raster draws two pixels per T-state.
const leftBorderT = video.BorderSize / 2

// visibleLines is the number of raster lines the frame buffer actually
// paints: top border + display + bottom border.
const visibleLines = video.BorderSize*2 + video.DisplayHeight

// ula48FloatingBus and ula128FloatingBus are the floating-bus exposure
// windows for the two contention families: 48K reads bitmap/attr/
// bitmap/attr one T-state later in the 8-phase cycle than the 128K
// family does, per video.Timing.FloatingBusOffs' doc comment.
var ula48FloatingBus = [8]video.FloatKind{
	video.FloatNone, video.FloatBitmap, video.FloatAttr, video.FloatBitmap, video.FloatAttr,
	video.FloatNone, video.FloatNone, video.FloatNone,
}
var ula128FloatingBus = [8]video.FloatKind{
	video.FloatBitmap, video.FloatAttr, video.FloatBitmap, video.FloatAttr,
	video.FloatNone, video.FloatNone, video.FloatNone, video.FloatNone,
}
var noFloatingBus = [8]video.FloatKind{}

func buildTiming(tStatesPerLine, frameTStates, intEndT, contentionOffs int, contended bool, floatWin [8]video.FloatKind) video.Timing {
	totalLines := frameTStates / tStatesPerLine
	return video.Timing{
		TStatesPerLine:  tStatesPerLine,
		TotalLines:      totalLines,
		FirstLineOfTop:  totalLines - visibleLines,
		LeftBorderT:     leftBorderT,
		ContentionOffs:  contentionOffs,
		HasContention:   contended,
		FloatingBusOffs: floatWin,
		IntEndT:         intEndT,
	}
}

// Regions holds the canonical Region value for every supported Type.
var Regions = map[Type]Region{
	Type48K: {
		Type: Type48K, Is128: false, HasAY: false, ROMPages: 1,
		Contention: z80.ContentionUla48,
		FrameTStates: 69888, CPUClockHz: 3500000, AYClockHz: 1750000,
		Timing: buildTiming(224, 69888, 32, 1, true, ula48FloatingBus),
	},
	Type128K: {
		Type: Type128K, Is128: true, HasAY: true, ROMPages: 2,
		Contention: z80.ContentionUla128,
		FrameTStates: 70908, CPUClockHz: 3546900, AYClockHz: 1773400,
		Timing: buildTiming(228, 70908, 36, 3, true, ula128FloatingBus),
	},
	TypePlus2: {
		Type: TypePlus2, Is128: true, HasAY: true, ROMPages: 2,
		Contention: z80.ContentionUla128,
		FrameTStates: 70908, CPUClockHz: 3546900, AYClockHz: 1773400,
		Timing: buildTiming(228, 70908, 36, 3, true, ula128FloatingBus),
	},
	TypePlus2A: {
		Type: TypePlus2A, Is128: true, HasAY: true, ROMPages: 4,
		Contention: z80.ContentionPlus3,
		FrameTStates: 70908, CPUClockHz: 3546900, AYClockHz: 1773400,
		Timing: buildTiming(228, 70908, 36, 3, true, ula128FloatingBus),
	},
	TypePlus3: {
		Type: TypePlus3, Is128: true, HasAY: true, ROMPages: 4,
		Contention: z80.ContentionPlus3,
		FrameTStates: 70908, CPUClockHz: 3546900, AYClockHz: 1773400,
		Timing: buildTiming(228, 70908, 36, 3, true, ula128FloatingBus),
	},
	TypePentagon: {
		Type: TypePentagon, Is128: true, HasAY: true, ROMPages: 2,
		Contention: z80.ContentionPentagon,
		FrameTStates: 71680, CPUClockHz: 3546900, AYClockHz: 1773400,
		Timing: buildTiming(224, 71680, 36, 0, false, noFloatingBus),
	},
	TypeTK90X: {
		Type: TypeTK90X, Is128: false, HasAY: false, ROMPages: 1,
		Contention: z80.ContentionUla48,
		FrameTStates: 71136, CPUClockHz: 3500000, AYClockHz: 1750000,
		Timing: buildTiming(228, 71136, 32, 1, true, ula48FloatingBus),
	},
	TypeTK95: {
		Type: TypeTK95, Is128: false, HasAY: false, ROMPages: 1,
		Contention: z80.ContentionUla48,
		// 59736 T-states doesn't divide evenly by 224 T/line (the 60Hz
		// TK95 frame runs a fraction of a line short); Timing.TotalLines
		// rounds down and Flush() simply paints a few T-states less of
		// bottom border than FrameTStates implies, which is harmless
		// since RunFrame's loop, not Flush, defines the true frame length.
		FrameTStates: 59736, CPUClockHz: 3500000, AYClockHz: 1750000,
		Timing: buildTiming(224, 59736, 32, 1, true, ula48FloatingBus),
	},
}
