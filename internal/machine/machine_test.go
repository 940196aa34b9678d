package machine

import (
	"testing"

	"github.com/zxspectrum/core/internal/tape"
	"github.com/zxspectrum/core/internal/video"
)

func romSet(pages int) [][]byte {
	roms := make([][]byte, pages)
	for i := range roms {
		roms[i] = make([]byte, 0x4000)
	}
	return roms
}

func TestNewEveryRegion(t *testing.T) {
	for typ, region := range Regions {
		m := New(region, romSet(region.ROMPages), 44100)
		if m.Region.Type != typ {
			t.Fatalf("%s: Region.Type = %v, want %v", typ, m.Region.Type, typ)
		}
		if len(m.ConsumeFrame()) != video.FrameWidth*video.FrameHeight {
			t.Fatalf("%s: frame buffer wrong size", typ)
		}
	}
}

func TestRunFrameProducesFrameAndAudio(t *testing.T) {
	region := Regions[Type48K]
	m := New(region, romSet(region.ROMPages), 44100)

	// HALT in ROM page 0 so the CPU idles through the whole frame
	// without needing real ROM content.
	m.Memory.LoadROM(0, []byte{0x76})
	m.Reset()

	m.RunFrame()

	frame := m.ConsumeFrame()
	if len(frame) != video.FrameWidth*video.FrameHeight {
		t.Fatalf("frame size = %d, want %d", len(frame), video.FrameWidth*video.FrameHeight)
	}
	audio := m.ConsumeAudio()
	if len(audio) != m.samplesPerFrame {
		t.Fatalf("audio size = %d, want %d", len(audio), m.samplesPerFrame)
	}
	if m.samplesPerFrame == 0 {
		t.Fatal("samplesPerFrame computed as 0")
	}
}

func TestRunFrameCarriesOvershootNotReset(t *testing.T) {
	region := Regions[Type48K]
	m := New(region, romSet(region.ROMPages), 44100)
	m.Memory.LoadROM(0, []byte{0x76})
	m.Reset()

	m.RunFrame()
	// Every HALT cycle here costs 4 uncontended T-states and 69888 is a
	// multiple of 4, so this frame ends exactly on the boundary; whatever
	// remainder is carried must stay below one frame's length.
	if m.bus.Tstates() >= uint64(region.FrameTStates) {
		t.Fatalf("carried Tstates %d did not drop below frame length %d", m.bus.Tstates(), region.FrameTStates)
	}
}

func TestActiveINTWindow(t *testing.T) {
	region := Regions[Type48K]
	m := New(region, romSet(region.ROMPages), 44100)
	m.Reset()

	if !m.bus.ActiveINT() {
		t.Fatal("interrupt line should be asserted at frame start")
	}
	m.Memory.LoadROM(0, []byte{0x76})
	for m.bus.Tstates() < uint64(region.Timing.IntEndT) {
		m.CPU.Step()
	}
	if m.bus.ActiveINT() {
		t.Fatal("interrupt line should have dropped after IntEndT")
	}
}

func TestMachineMismatchOnLoad(t *testing.T) {
	reg48 := Regions[Type48K]
	reg128 := Regions[Type128K]

	m128 := New(reg128, romSet(reg128.ROMPages), 44100)
	m128.Reset()
	snap := m128.SaveZ80()

	m48 := New(reg48, romSet(reg48.ROMPages), 44100)
	m48.Reset()

	err := m48.LoadZ80(snap)
	if err == nil {
		t.Fatal("expected ErrMachineMismatch loading a 128K snapshot into a 48K Machine")
	}
	mismatch, ok := err.(*ErrMachineMismatch)
	if !ok {
		t.Fatalf("error type = %T, want *ErrMachineMismatch", err)
	}
	if !mismatch.WantIs128 {
		t.Fatal("WantIs128 should be true for a 128K-family snapshot")
	}
}

func TestMachineMatchOnLoad(t *testing.T) {
	reg48 := Regions[Type48K]
	a := New(reg48, romSet(reg48.ROMPages), 44100)
	a.Reset()
	snap := a.SaveSNA()

	b := New(reg48, romSet(reg48.ROMPages), 44100)
	b.Reset()
	if err := b.LoadSNA(snap); err != nil {
		t.Fatalf("LoadSNA of a same-model snapshot failed: %v", err)
	}
}

func TestMountTapeReplacesPlayer(t *testing.T) {
	region := Regions[Type48K]
	m := New(region, romSet(region.ROMPages), 44100)
	m.Reset()

	block := tape.Block{Data: []byte{0xFF, 0x01, 0x02, 0xFC}, Kind: tape.KindStandard}
	m.MountTape(stubTape{blocks: []tape.Block{block}})

	got, ok := m.Tape.CurrentBlock()
	if !ok {
		t.Fatal("expected a current block after MountTape")
	}
	if len(got.Data) != len(block.Data) {
		t.Fatalf("block data length = %d, want %d", len(got.Data), len(block.Data))
	}
}

type stubTape struct{ blocks []tape.Block }

func (s stubTape) Blocks() []tape.Block { return s.blocks }
