package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/zxspectrum/core/internal/debug"
	"github.com/zxspectrum/core/internal/machine"
)

const (
	overlayW, overlayH = 420, 260
	lineHeight         = 13
)

// debugOverlay renders register/disassembly text over the running
// display, the same role the monitor's full-screen panel plays, but
// composited straight onto an RGBA pixel buffer with basicfont rather
// than a bespoke bitmap font, and driven by internal/debug instead of
// reaching into CPU state directly.
type debugOverlay struct {
	insp   *debug.Inspector
	bps    *debug.Breakpoints
	img    *image.RGBA
	gimg   *ebiten.Image
	Paused bool
}

func newDebugOverlay(mach *machine.Machine) *debugOverlay {
	return &debugOverlay{
		insp: debug.New(mach.CPU, mach.Memory),
		bps:  debug.NewBreakpoints(),
		img:  image.NewRGBA(image.Rect(0, 0, overlayW, overlayH)),
	}
}

// handleInput lets F8 toggle a breakpoint at the current PC, F10
// single-step the CPU one opcode, and F7 resume from a breakpoint
// pause. Breakpoints are only checked between frames (see checkPause),
// the only yield point the run loop otherwise has.
func (o *debugOverlay) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF8) {
		pc := o.insp.CPU.PC
		if !o.bps.Clear(pc) {
			o.bps.Set(pc)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		o.insp.CPU.Step()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF7) {
		o.Paused = false
	}
}

// checkPause reports whether a breakpoint at the CPU's current PC
// should hold the machine before the next RunFrame.
func (o *debugOverlay) checkPause() bool {
	if o.Paused {
		return true
	}
	if o.bps.Hit(o.insp.CPU.PC, o.insp) {
		o.Paused = true
	}
	return o.Paused
}

var overlayBG = color.RGBA{0x00, 0x00, 0x00, 0xC0}
var overlayFG = color.RGBA{0x00, 0xFF, 0x40, 0xFF}

func (o *debugOverlay) draw(screen *ebiten.Image) {
	draw.Draw(o.img, o.img.Bounds(), image.NewUniform(overlayBG), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  o.img,
		Src:  image.NewUniform(overlayFG),
		Face: basicfont.Face7x13,
	}
	line := func(row int, s string) {
		d.Dot = fixed.Point26_6{X: fixed.I(4), Y: fixed.I((row + 1) * lineHeight)}
		d.DrawString(s)
	}

	cpu := o.insp.CPU
	line(0, fmt.Sprintf("PC=%04X SP=%04X  AF=%04X BC=%04X DE=%04X HL=%04X",
		cpu.PC, cpu.SP, cpu.AF(), cpu.BC(), cpu.DE(), cpu.HL()))
	line(1, fmt.Sprintf("IX=%04X IY=%04X  I=%02X R=%02X IM=%d  %s",
		cpu.IX, cpu.IY, cpu.I, cpu.R, cpu.IM, debug.FormatFlags(cpu.F)))

	readMem := func(addr uint16, size int) []byte { return o.insp.ReadMemory(addr, size) }
	lines := debug.Disassemble(readMem, cpu.PC, 8, cpu.PC)
	for i, l := range lines {
		marker := "  "
		if l.IsPC {
			marker = "->"
		}
		bp := " "
		if o.bps.Has(l.Address) {
			bp = "*"
		}
		line(3+i, fmt.Sprintf("%s%s%04X  %s", marker, bp, l.Address, l.Mnemonic))
	}
	if o.Paused {
		line(12, "PAUSED at breakpoint -- F7 resume, F10 step")
	}

	if o.gimg == nil {
		o.gimg = ebiten.NewImageFromImage(o.img)
	} else {
		o.gimg.WritePixels(o.img.Pix)
	}
	screen.DrawImage(o.gimg, nil)
}
