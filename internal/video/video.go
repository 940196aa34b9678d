// Package video implements the ULA's raster generator: a t-state-driven
// state machine that renders the border/screen into a fixed-size frame
// buffer, computes memory contention delay, and answers floating-bus
// reads, all keyed off a single running T-state counter that the rest
// of the machine treats as the master clock.
package video

const (
	DisplayWidth  = 256
	DisplayHeight = 192
	BorderSize    = 32
	FrameWidth    = DisplayWidth + 2*BorderSize  // 320
	FrameHeight   = DisplayHeight + 2*BorderSize // 256

	vramAttrOffset = 6144
	vramSize       = 6912
)

// Timing carries every per-machine constant the raster needs. Region
// values in internal/machine construct one of these for each supported
// model.
type Timing struct {
	TStatesPerLine int
	TotalLines     int
	FirstLineOfTop int // line at which the top border starts being drawn
	LeftBorderT    int // t-state within a line where the left border ends / bitmap begins
	ContentionOffs int // 1 on 48K, 3 on 128K/+2/+2A/+3; irrelevant (unused) on Pentagon
	HasContention  bool

	// FloatingBusOffs maps a contended tstate's mod-8 phase to what the
	// floating bus exposes: FloatBitmap, FloatAttr, or FloatNone. 48K
	// exposes four consecutive phases (bitmap, attr, bitmap+1, attr+1);
	// 128K-family machines shift this window one tstate earlier.
	FloatingBusOffs [8]FloatKind
	IntEndT         int // 32 on 48K, 36 on 128K/Pentagon
}

// FloatKind tags what byte a given mod-8 bus phase exposes to a
// floating-bus read.
type FloatKind int

const (
	FloatNone FloatKind = iota
	FloatBitmap
	FloatAttr
)

var contentionPattern = [8]int{6, 5, 4, 3, 2, 1, 0, 0}

// MemorySource gives Video read-only access to the currently selected
// display RAM bank (5 or 7) without depending on the memory package
// directly.
type MemorySource interface {
	ScreenByte(offset uint16) byte
}

// Video is the ULA raster engine.
type Video struct {
	timing Timing
	mem    MemorySource

	tstates uint64 // master clock: every other component reads time through here

	border     byte
	flashFrame int
	flashMask  byte

	frameBuf [FrameWidth * FrameHeight]byte // palette index per pixel, 0-15

	lastBitmapByte byte
	lastAttrByte   byte
}

// New builds a Video driven by timing and reading screen bytes from mem.
func New(timing Timing, mem MemorySource) *Video {
	return &Video{timing: timing, mem: mem}
}

// Reset zeroes the master clock at power-on.
func (v *Video) Reset() {
	v.tstates = 0
}

// CarryFrame rolls the master clock back by frameTStates at the end of
// a frame rather than zeroing it, preserving whatever T-states the
// frame's last instruction overshot the frame boundary by.
func (v *Video) CarryFrame(frameTStates uint64) {
	if v.tstates >= frameTStates {
		v.tstates -= frameTStates
	} else {
		v.tstates = 0
	}
}

// Tstates returns the running T-state counter.
func (v *Video) Tstates() uint64 { return v.tstates }

// SetBorder changes the border colour; the change takes effect at the
// current raster position, same as the real ULA latching it immediately.
func (v *Video) SetBorder(color byte) { v.border = color & 0x07 }

// Border returns the current border colour, used by snapshot savers.
func (v *Video) Border() byte { return v.border }

// Draw advances the raster by tstates T-states, first prepending the
// contention stretch (looked up from the current position) if
// contended is true, matching every access site's early/late pattern.
func (v *Video) Draw(tstates int, contended bool) {
	if contended && v.timing.HasContention {
		delay := v.contentionDelay()
		v.render(delay)
		v.tstates += uint64(delay)
	}
	v.render(tstates)
	v.tstates += uint64(tstates)
}

func (v *Video) contentionDelay() int {
	line := int(v.tstates) % v.timing.TStatesPerLine
	idx := (line + v.timing.ContentionOffs) % 8
	return contentionPattern[idx]
}

// render paints n T-states worth of raster (border or screen pixels)
// starting at the current clock position. Each T-state draws two
// horizontal pixels on real hardware; only the leftmost FrameWidth/2
// T-states of a line land inside the visible frame buffer, the rest
// being horizontal blanking/retrace that produces no visible pixel.
func (v *Video) render(n int) {
	for i := 0; i < n; i++ {
		t := int(v.tstates) + i
		line := t / v.timing.TStatesPerLine
		col := t % v.timing.TStatesPerLine

		y := line - v.timing.FirstLineOfTop
		if y < 0 || y >= FrameHeight || col*2 >= FrameWidth {
			continue
		}

		screenT := col - v.timing.LeftBorderT
		inBitmap := y >= BorderSize && y < BorderSize+DisplayHeight &&
			screenT >= 0 && screenT < DisplayWidth/2

		if !inBitmap {
			v.setPixel(col*2, y, v.border)
			v.setPixel(col*2+1, y, v.border)
			continue
		}
		// Each 8-pixel character cell spans four T-states.
		v.paintBitmapColumn(y, screenT/4)
	}
}

func (v *Video) paintBitmapColumn(y, screenCol int) {
	screenY := y - BorderSize
	bitmapAddr := bitmapAddress(screenY, screenCol)
	attrAddr := uint16(vramAttrOffset) + uint16(screenY/8)*32 + uint16(screenCol)

	bitmap := v.mem.ScreenByte(bitmapAddr)
	attr := v.mem.ScreenByte(attrAddr)
	v.lastBitmapByte = bitmap
	v.lastAttrByte = attr

	ink, paper, _, flash := parseAttribute(attr)
	if flash && v.flashMask != 0 {
		bitmap ^= 0xFF
	}

	x0 := BorderSize + screenCol*8
	for bit := 0; bit < 8; bit++ {
		colorIdx := paper
		if bitmap&(0x80>>uint(bit)) != 0 {
			colorIdx = ink
		}
		v.setPixel(x0+bit, y, colorIdx)
	}
}

func (v *Video) setPixel(x, y int, colorIdx byte) {
	v.frameBuf[y*FrameWidth+x] = colorIdx
}

// bitmapAddress reproduces the ULA's famous non-linear Y addressing:
// the 192 display lines are not stored in raster order.
func bitmapAddress(y, cellX int) uint16 {
	highY := uint16(y&0xC0) << 5
	midY := uint16(y&0x38) << 2
	lowY := uint16(y&0x07) << 8
	return highY | midY | lowY | uint16(cellX)
}

// parseAttribute splits an attribute byte into ink/paper colour
// indices (0-15, already folded with BRIGHT) and the flash flag.
func parseAttribute(attr byte) (ink, paper byte, bright, flash bool) {
	bright = attr&0x40 != 0
	flash = attr&0x80 != 0
	inkBase := attr & 0x07
	paperBase := (attr >> 3) & 0x07
	if bright {
		return inkBase + 8, paperBase + 8, true, flash
	}
	return inkBase, paperBase, false, flash
}

// FloatingBusByte returns the last bitmap or attribute byte the raster
// read during a contended window, or 0xFF outside those windows, per
// the real ULA's floating-bus behaviour.
func (v *Video) FloatingBusByte() byte {
	line := int(v.tstates) / v.timing.TStatesPerLine
	y := line - v.timing.FirstLineOfTop - BorderSize
	if y < 0 || y >= DisplayHeight {
		return 0xFF
	}
	col := int(v.tstates) % v.timing.TStatesPerLine
	switch v.timing.FloatingBusOffs[col%8] {
	case FloatBitmap:
		return v.lastBitmapByte
	case FloatAttr:
		return v.lastAttrByte
	default:
		return 0xFF
	}
}

// Flush catches the raster up to the end of the frame (used after a
// HALT loop leaves t-states unconsumed) and advances the 16-frame
// flash counter.
func (v *Video) Flush() {
	remaining := v.timing.TStatesPerLine*v.timing.TotalLines - int(v.tstates)
	if remaining > 0 {
		v.render(remaining)
		v.tstates += uint64(remaining)
	}
	v.flashFrame++
	if v.flashFrame >= 16 {
		v.flashFrame = 0
		v.flashMask ^= 0xFF
	}
}

// FrameBuffer returns the completed frame as a palette-index slice,
// FrameWidth*FrameHeight long, ready for the host to map through its
// own RGBA palette.
func (v *Video) FrameBuffer() []byte { return v.frameBuf[:] }
