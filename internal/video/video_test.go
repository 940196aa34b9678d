package video

import "testing"

// fakeScreen serves a fixed byte for every address, letting tests
// assert exactly which palette index a given bitmap/attr pair paints.
type fakeScreen struct {
	bitmap byte
	attr   byte
}

func (s fakeScreen) ScreenByte(offset uint16) byte {
	if offset < vramAttrOffset {
		return s.bitmap
	}
	return s.attr
}

func ulaTiming() Timing {
	return Timing{
		TStatesPerLine: 224,
		TotalLines:     312,
		FirstLineOfTop: 56,
		LeftBorderT:    16,
		ContentionOffs: 1,
		HasContention:  true,
		FloatingBusOffs: [8]FloatKind{
			FloatNone, FloatBitmap, FloatAttr, FloatBitmap, FloatAttr,
			FloatNone, FloatNone, FloatNone,
		},
		IntEndT: 32,
	}
}

func TestResetZeroesClock(t *testing.T) {
	v := New(ulaTiming(), fakeScreen{})
	v.Draw(100, false)
	v.Reset()
	if v.Tstates() != 0 {
		t.Fatalf("Tstates() after Reset = %d, want 0", v.Tstates())
	}
}

func TestCarryFramePreservesOvershoot(t *testing.T) {
	v := New(ulaTiming(), fakeScreen{})
	frameLen := uint64(224 * 312)
	v.Draw(int(frameLen)+7, false)
	v.CarryFrame(frameLen)
	if v.Tstates() != 7 {
		t.Fatalf("Tstates() after CarryFrame = %d, want 7 (carried overshoot)", v.Tstates())
	}
}

func TestCarryFrameClampsUnderrun(t *testing.T) {
	v := New(ulaTiming(), fakeScreen{})
	v.Draw(10, false)
	v.CarryFrame(224 * 312)
	if v.Tstates() != 0 {
		t.Fatalf("Tstates() after underrun CarryFrame = %d, want 0", v.Tstates())
	}
}

func TestSetBorderPaintsVisibleBorder(t *testing.T) {
	v := New(ulaTiming(), fakeScreen{})
	v.SetBorder(2)
	if v.Border() != 2 {
		t.Fatalf("Border() = %d, want 2", v.Border())
	}
	// Advance past the invisible top border lines (vertical blanking
	// before FirstLineOfTop) onto the frame buffer's first visible
	// line, still within the top border region (y < BorderSize).
	v.Draw(ulaTiming().FirstLineOfTop*224, false)
	v.Draw(4, false)
	buf := v.FrameBuffer()
	if buf[0] != 2 {
		t.Fatalf("frame buffer top-left pixel = %d, want border colour 2", buf[0])
	}
}

func TestBitmapColumnUsesInkPaper(t *testing.T) {
	// attr: ink=1 (blue), paper=0 (black), no bright, no flash.
	v := New(ulaTiming(), fakeScreen{bitmap: 0x80, attr: 0x01})

	// Draw through the top border into the first display line, whose
	// first T-state column paints the first on-screen bitmap byte.
	topTStates := (ulaTiming().FirstLineOfTop + BorderSize) * 224
	v.Draw(topTStates, false)
	v.Draw(ulaTiming().LeftBorderT, false)
	v.Draw(1, false)

	buf := v.FrameBuffer()
	x0 := BorderSize
	y0 := BorderSize
	inkPixel := buf[y0*FrameWidth+x0]
	paperPixel := buf[y0*FrameWidth+x0+1]
	if inkPixel != 1 {
		t.Fatalf("first bitmap pixel (set bit) = %d, want ink index 1", inkPixel)
	}
	if paperPixel != 0 {
		t.Fatalf("second bitmap pixel (clear bit) = %d, want paper index 0", paperPixel)
	}
}

func TestFloatingBusOutsideDisplayReturns0xFF(t *testing.T) {
	v := New(ulaTiming(), fakeScreen{bitmap: 0x55, attr: 0xAA})
	if got := v.FloatingBusByte(); got != 0xFF {
		t.Fatalf("FloatingBusByte() at clock 0 (top border) = %#x, want 0xff", got)
	}
}

func TestFlushAdvancesFlashMaskEvery16Frames(t *testing.T) {
	v := New(ulaTiming(), fakeScreen{})
	before := v.flashMask
	for i := 0; i < 16; i++ {
		v.Flush()
		v.Reset()
	}
	if v.flashMask == before {
		t.Fatal("flashMask did not toggle after 16 Flush calls")
	}
}

func TestFlushCatchesUpRemainingTStates(t *testing.T) {
	v := New(ulaTiming(), fakeScreen{})
	v.Draw(10, false)
	v.Flush()
	total := uint64(ulaTiming().TStatesPerLine * ulaTiming().TotalLines)
	if v.Tstates() != total {
		t.Fatalf("Tstates() after Flush = %d, want %d (full frame)", v.Tstates(), total)
	}
}

func TestBitmapAddressNonLinearY(t *testing.T) {
	// y=0 and y=8 sit in the same third of the screen but in different
	// character rows (bit 3 of y), so only the mid-Y bits should differ.
	a0 := bitmapAddress(0, 0)
	a8 := bitmapAddress(8, 0)
	if a0 == a8 {
		t.Fatal("bitmapAddress(0,0) and bitmapAddress(8,0) collided")
	}
}

func TestParseAttributeBright(t *testing.T) {
	ink, paper, bright, flash := parseAttribute(0x4F) // bright, ink=7, paper=1
	if !bright || flash {
		t.Fatalf("bright=%v flash=%v, want bright=true flash=false", bright, flash)
	}
	if ink != 15 || paper != 9 {
		t.Fatalf("ink=%d paper=%d, want ink=15 paper=9 (bright-folded)", ink, paper)
	}
}
