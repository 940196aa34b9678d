package tape

import "testing"

func singleBlockFormat(flag byte, payload []byte) Format {
	raw := buildTAPBlock(flag, payload)
	tap, err := ReadTAP(raw)
	if err != nil {
		panic(err)
	}
	return tap
}

func TestPlayerAdvancesThroughPilot(t *testing.T) {
	p := NewPlayer(singleBlockFormat(0x00, []byte{0xAA}))
	p.Play()
	if !p.Playing() {
		t.Fatalf("player should be playing after Play()")
	}

	flips := 0
	last := p.Level()
	for t := uint64(0); t < uint64(PilotLen)*20 && flips < 3; t++ {
		p.Advance(t)
		if p.Level() != last {
			flips++
			last = p.Level()
		}
	}
	if flips == 0 {
		t.Fatalf("EAR level should flip during the pilot tone")
	}
}

func TestPlayerStopsAtEndOfSingleBlockWithNoPause(t *testing.T) {
	tap, _ := ReadTAP(buildTAPBlock(0x00, nil))
	tap.blocks[0].PauseAfter = 0
	p := NewPlayer(tap)
	p.Play()

	// A header block's pilot alone is 8063 x 2168 T (about 17.5M).
	for t := uint64(0); t < 20_000_000 && p.Playing(); t++ {
		p.Advance(t)
	}
	if p.Playing() {
		t.Fatalf("player should stop once the only block finishes with no pause")
	}
}

func TestPlayerRewind(t *testing.T) {
	p := NewPlayer(singleBlockFormat(0x00, []byte{1}))
	p.Play()
	p.Advance(uint64(PilotLen) * 2)
	p.Rewind()
	if p.index != 0 || p.Playing() {
		t.Fatalf("rewind should reset to block 0, stopped")
	}
}

func TestFlashLoaderSkipsUnknownPC(t *testing.T) {
	p := NewPlayer(singleBlockFormat(0x00, []byte{1, 2, 3}))
	fl := NewFlashLoader(p)
	if fl.HandleTrap(0x1234, nil) {
		t.Fatalf("trap should not fire outside the LD-BYTES entry point")
	}
}
