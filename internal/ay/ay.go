// Package ay emulates the General Instrument AY-3-8912 programmable sound
// generator fitted to every 128K-and-later member of the Spectrum family
// (and some 48K expansions): three tone channels, one shared noise
// generator, one envelope generator, and a 14-register file addressed
// through a select/data port pair.
package ay

import "math"

const (
	NumRegisters = 14
	NumChannels  = 3
)

// tonePrescale is the AY's internal /8 prescaler: a tone channel's
// counter advances once every 8 input clocks and toggles its square wave
// every time it reaches the channel's 12-bit period, giving the
// documented tone frequency of clock/(16*period) (two toggles per cycle).
// The envelope generator's own 16-bit period register (R11/R12) counts
// at this same prescaled rate.
const tonePrescale = 8

// volumeTable is the AY's logarithmic 16-step DAC curve (each step ~-2dB
// down from full scale), the same curve every AY/YM clone reproduces
// because the real chip's resistor ladder is logarithmic, not linear.
var volumeTable [16]int16

func init() {
	const fullScale = 0x7FFF
	for i := 1; i < 16; i++ {
		db := float64(i-15) * 2.0
		volumeTable[i] = int16(fullScale * math.Pow(10.0, db/20.0))
	}
	volumeTable[0] = 0
}

// channel holds one tone generator's free-running counter and output
// polarity.
type channel struct {
	counter int
	output  bool
}

// AY is one AY-3-8912 PSG. Register writes are immediate; FillSamples
// advances the internal counters and synthesizes audio at the host
// sample rate, grounded on the same per-sample-step envelope state
// machine the rest of the ecosystem uses, but driven directly off the
// chip's own clocked counters rather than an intermediate event model.
type AY struct {
	regs     [NumRegisters]byte
	selected byte

	tone  [NumChannels]channel
	noise struct {
		counter int
		lfsr    uint32
		output  bool
	}
	envelope struct {
		step    int // 0-31, wraps per the 32-step envelope cycle
		holding bool
	}
	heldLevel       int // level frozen at once the envelope generator stops
	tonePrescaleCtr int // counts raw AY clocks up to tonePrescale
	envCounter      int // counts prescaled ticks up to envelopePeriod()

	clockHz    int
	sampleRate int
	tstateAcc  float64 // fractional AY clocks owed since the last sample
}

// New builds an AY clocked at clockHz (the machine's AY clock, typically
// CPU-clock/2) and producing samples at sampleRate.
func New(clockHz, sampleRate int) *AY {
	a := &AY{clockHz: clockHz, sampleRate: sampleRate}
	a.Reset()
	return a
}

func (a *AY) Reset() {
	a.regs = [NumRegisters]byte{}
	a.selected = 0
	a.tone = [NumChannels]channel{}
	a.noise.counter = 0
	a.noise.lfsr = 1
	a.noise.output = false
	a.envelope.step = 0
	a.envelope.holding = false
	a.heldLevel = 0
}

// SelectRegister latches which of the 14 registers the next WriteRegister
// or ReadRegister call targets (port 0xFFFD).
func (a *AY) SelectRegister(v byte) { a.selected = v & 0x0F }

// WriteRegister stores v into the currently selected register (port
// 0xBFFD). Writing R13 (envelope shape) restarts the envelope generator,
// matching the real chip.
func (a *AY) WriteRegister(v byte) {
	if a.selected >= NumRegisters {
		return
	}
	a.regs[a.selected] = v
	if a.selected == 13 {
		a.envelope.step = 0
		a.envelope.holding = false
	}
}

// ReadRegister returns the currently selected register's value.
func (a *AY) ReadRegister() byte {
	if a.selected >= NumRegisters {
		return 0xFF
	}
	return a.regs[a.selected]
}

// Registers returns a copy of the raw register file.
func (a *AY) Registers() [NumRegisters]byte { return a.regs }

// SelectedRegister returns the currently latched register index.
func (a *AY) SelectedRegister() byte { return a.selected }

// SetRegisters restores the full register file and the latched index.
func (a *AY) SetRegisters(regs [NumRegisters]byte, selected byte) {
	a.regs = regs
	a.selected = selected & 0x0F
}

func (a *AY) tonePeriod(ch int) int {
	period := int(a.regs[ch*2]) | int(a.regs[ch*2+1]&0x0F)<<8
	if period == 0 {
		period = 1
	}
	return period
}

func (a *AY) noisePeriod() int {
	period := int(a.regs[6] & 0x1F)
	if period == 0 {
		period = 1
	}
	return period
}

func (a *AY) envelopePeriod() int {
	period := int(a.regs[11]) | int(a.regs[12])<<8
	if period == 0 {
		period = 1
	}
	return period
}

// envelopeShape returns the four shape bits (continue/attack/alternate/
// hold) of R13.
func (a *AY) envelopeShape() (cont, attack, alt, hold bool) {
	shape := a.regs[13] & 0x0F
	return shape&0x08 != 0, shape&0x04 != 0, shape&0x02 != 0, shape&0x01 != 0
}

// envelopeLevel maps the 32-step envelope counter to the 0-15 volume
// level it currently outputs. Steps 0-15 are the first half-cycle,
// ramping from the attack polarity; steps 16-31 either mirror (alternate)
// or repeat (plain continue) that ramp, per the AY's documented shape
// table. Once held, the level freezes at whatever tickEnvelope parked it.
func (a *AY) envelopeLevel() int {
	if a.envelope.holding {
		return a.heldLevel
	}
	_, attack, alt, _ := a.envelopeShape()
	pos := a.envelope.step % 16
	rising := attack
	if alt && a.envelope.step >= 16 {
		rising = !rising
	}
	if rising {
		return pos
	}
	return 15 - pos
}

// tickEnvelope advances the envelope generator by one step (one
// envelope-period tick), applying the continue/hold semantics
// once the 32-step cycle completes.
func (a *AY) tickEnvelope() {
	if a.envelope.holding {
		return
	}
	a.envelope.step++
	if a.envelope.step < 32 {
		return
	}
	cont, attack, alt, hold := a.envelopeShape()
	if !cont || hold {
		a.envelope.holding = true
		switch {
		case !cont:
			a.heldLevel = 0
		case alt != attack: // hold at the opposite end the ramp arrived at
			a.heldLevel = 0
		default:
			a.heldLevel = 15
		}
		return
	}
	a.envelope.step = 0
}

// mixer bit layout (R7): bits 0-2 tone disable A/B/C, bits 3-5 noise
// disable A/B/C (0 = enabled, matching the chip's active-low mixer).
func (a *AY) toneEnabled(ch int) bool  { return a.regs[7]&(1<<uint(ch)) == 0 }
func (a *AY) noiseEnabled(ch int) bool { return a.regs[7]&(1<<uint(ch+3)) == 0 }

func (a *AY) channelVolume(ch int) int {
	v := a.regs[8+ch]
	if v&0x10 != 0 {
		return a.envelopeLevel()
	}
	return int(v & 0x0F)
}

// FillSamples advances the chip by exactly len(out) host-rate samples,
// writing signed 16-bit mono output into every element of out.
func (a *AY) FillSamples(out []int16) {
	for i := range out {
		out[i] = a.step()
	}
}

// step runs the chip forward by one output sample's worth of AY clocks
// and returns the mixed, DAC-scaled result.
func (a *AY) step() int16 {
	clocksPerSample := float64(a.clockHz) / float64(a.sampleRate)
	a.tstateAcc += clocksPerSample
	for a.tstateAcc >= 1 {
		a.tstateAcc--
		a.tickOneClock()
	}
	return a.mix()
}

func (a *AY) tickOneClock() {
	a.tonePrescaleCtr++
	if a.tonePrescaleCtr < tonePrescale {
		return
	}
	a.tonePrescaleCtr = 0

	for ch := 0; ch < NumChannels; ch++ {
		a.tone[ch].counter++
		if a.tone[ch].counter >= a.tonePeriod(ch) {
			a.tone[ch].counter = 0
			a.tone[ch].output = !a.tone[ch].output
		}
	}

	a.noise.counter++
	if a.noise.counter >= a.noisePeriod() {
		a.noise.counter = 0
		// 17-bit Galois LFSR, matches the AY-3-8912's documented noise
		// polynomial (taps at bits 0 and 3).
		bit := (a.noise.lfsr ^ (a.noise.lfsr >> 3)) & 1
		a.noise.lfsr = (a.noise.lfsr >> 1) | (bit << 16)
		a.noise.output = a.noise.lfsr&1 != 0
	}

	a.envCounter++
	if a.envCounter >= a.envelopePeriod() {
		a.envCounter = 0
		a.tickEnvelope()
	}
}

func (a *AY) mix() int16 {
	var total int32
	for ch := 0; ch < NumChannels; ch++ {
		toneOut := !a.toneEnabled(ch) || a.tone[ch].output
		noiseOut := !a.noiseEnabled(ch) || a.noise.output
		if toneOut && noiseOut {
			total += int32(volumeTable[a.channelVolume(ch)])
		}
	}
	total /= NumChannels
	if total > 0x7FFF {
		total = 0x7FFF
	}
	if total < -0x7FFF {
		total = -0x7FFF
	}
	return int16(total)
}
