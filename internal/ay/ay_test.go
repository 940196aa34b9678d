package ay

import "testing"

func tickEnvelopeSteps(shape byte, steps int) []int {
	a := New(1000000, 1000000)
	a.SelectRegister(11)
	a.WriteRegister(0x01)
	a.SelectRegister(12)
	a.WriteRegister(0x00)
	a.SelectRegister(13)
	a.WriteRegister(shape)

	levels := make([]int, 0, steps+1)
	levels = append(levels, a.envelopeLevel())
	for i := 0; i < steps; i++ {
		a.tickEnvelope()
		levels = append(levels, a.envelopeLevel())
	}
	return levels
}

func TestEnvelopeShapes(t *testing.T) {
	for shape := 0; shape < 16; shape++ {
		levels := tickEnvelopeSteps(byte(shape), 32)
		cont := shape&0x08 != 0
		attack := shape&0x04 != 0
		hold := shape&0x01 != 0

		start := 15
		if attack {
			start = 0
		}
		if levels[0] != start {
			t.Fatalf("shape 0x%X: start level %d, want %d", shape, levels[0], start)
		}

		if !cont {
			if got := levels[len(levels)-1]; got != 0 {
				t.Fatalf("shape 0x%X: non-continuing shape should hold at 0, got %d", shape, got)
			}
			continue
		}
		if hold {
			got := levels[len(levels)-1]
			if got != 0 && got != 15 {
				t.Fatalf("shape 0x%X: held level should park at 0 or 15, got %d", shape, got)
			}
		}
	}
}

func TestEnvelopeRestartsOnShapeWrite(t *testing.T) {
	a := New(1000000, 1000000)
	a.SelectRegister(13)
	a.WriteRegister(0x0C) // continue+attack, no alternate/hold
	for i := 0; i < 10; i++ {
		a.tickEnvelope()
	}
	a.SelectRegister(13)
	a.WriteRegister(0x0C)
	if a.envelope.step != 0 || a.envelope.holding {
		t.Fatalf("writing R13 should restart the envelope, got step=%d holding=%v", a.envelope.step, a.envelope.holding)
	}
}

func TestTonePeriodZeroTreatedAsOne(t *testing.T) {
	a := New(1000000, 1000000)
	if got := a.tonePeriod(0); got != 1 {
		t.Fatalf("zero tone period should clamp to 1, got %d", got)
	}
}

func TestMixerEnableBitsAreActiveLow(t *testing.T) {
	a := New(1000000, 1000000)
	a.SelectRegister(7)
	a.WriteRegister(0x3F) // every tone+noise bit set => everything disabled
	if a.toneEnabled(0) || a.noiseEnabled(0) {
		t.Fatalf("mixer bits set should disable tone/noise output")
	}
	a.SelectRegister(7)
	a.WriteRegister(0x00)
	if !a.toneEnabled(0) || !a.noiseEnabled(0) {
		t.Fatalf("mixer bits clear should enable tone/noise output")
	}
}

func TestFillSamplesProducesAudibleTone(t *testing.T) {
	a := New(1773400, 44100)
	a.SelectRegister(0)
	a.WriteRegister(0x20)
	a.SelectRegister(8)
	a.WriteRegister(0x0F)
	a.SelectRegister(7)
	a.WriteRegister(0x3E) // tone A enabled, everything else off

	out := make([]int16, 512)
	a.FillSamples(out)

	nonZero := false
	for _, s := range out {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatalf("full-volume tone channel should produce audible samples")
	}
}

func TestRegisterSelectWraps(t *testing.T) {
	a := New(1000000, 1000000)
	a.SelectRegister(0xFF)
	if a.selected != 0x0F {
		t.Fatalf("register select should mask to 4 bits, got %d", a.selected)
	}
}
