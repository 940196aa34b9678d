package main

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/zxspectrum/core/internal/machine"
	"github.com/zxspectrum/core/internal/video"
)

const maxPasteBytes = 4096

// pasteHoldFrames is how many Update calls a pasted character's key
// stays "pressed" for before the player advances to the next one; one
// frame is occasionally too short for a ROM keyboard scan to catch.
const pasteHoldFrames = 3

// Game drives one Machine from ebiten's run loop: it samples host
// keyboard/clipboard state once per frame, publishes it into the
// machine before RunFrame, then converts the completed video frame
// and audio chunk for the host to present.
type Game struct {
	mach *machine.Machine
	snd  *audioPlayer

	fullscreen bool

	windowImg *ebiten.Image
	rgba      []byte

	clipboardOnce sync.Once
	clipboardOK   bool
	paste         []byte
	pasteKey      *pastedKey
	pasteTicks    int

	overlay    *debugOverlay
	overlayOn  bool
}

func newGame(mach *machine.Machine, snd *audioPlayer) *Game {
	return &Game{
		mach:    mach,
		snd:     snd,
		rgba:    make([]byte, video.FrameWidth*video.FrameHeight*4),
		overlay: newDebugOverlay(mach),
	}
}

func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		g.fullscreen = !g.fullscreen
		ebiten.SetFullscreen(g.fullscreen)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		g.overlayOn = !g.overlayOn
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.mach.Reset()
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.queuePaste()
	}

	if g.overlayOn {
		g.overlay.handleInput()
	}

	g.advancePaste()
	pressed := ebiten.AppendPressedKeys(nil)
	rows := rowMask(pressed, g.pasteKey)
	for row, mask := range rows {
		g.mach.SetKeyRow(row, mask)
	}
	g.mach.SetKempston(0)

	if g.overlayOn && g.overlay.checkPause() {
		return nil
	}
	g.mach.RunFrame()
	if g.snd != nil {
		g.snd.feed(g.mach.ConsumeAudio())
	}
	return nil
}

// queuePaste reads the system clipboard once and enqueues its text for
// character-by-character keystroke injection.
func (g *Game) queuePaste() {
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	if !g.clipboardOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return
	}
	if len(data) > maxPasteBytes {
		data = data[:maxPasteBytes]
	}
	g.paste = append(g.paste, data...)
}

// advancePaste pops one queued character into the key matrix at a time,
// holding each for pasteHoldFrames Update calls.
func (g *Game) advancePaste() {
	if g.pasteKey != nil {
		g.pasteTicks++
		if g.pasteTicks < pasteHoldFrames {
			return
		}
		g.pasteKey = nil
		g.pasteTicks = 0
	}
	for len(g.paste) > 0 {
		r := rune(g.paste[0])
		g.paste = g.paste[1:]
		if pk, ok := runeKeymap[r]; ok {
			g.pasteKey = &pk
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.windowImg == nil {
		g.windowImg = ebiten.NewImage(video.FrameWidth, video.FrameHeight)
	}
	rgbaFromIndices(g.rgba, g.mach.ConsumeFrame())
	g.windowImg.WritePixels(g.rgba)
	screen.DrawImage(g.windowImg, nil)
	if g.overlayOn {
		g.overlay.draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return video.FrameWidth, video.FrameHeight
}
