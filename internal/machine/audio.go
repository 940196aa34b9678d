package machine

import "github.com/zxspectrum/core/internal/video"

// beeperEvent is one SAVE/beeper level change, timestamped at the
// T-state it occurred on within the current frame.
type beeperEvent struct {
	t     uint64
	level byte
}

// beeperTrack implements ports.Audio: WritePort hands it the combined
// SAVE-bit/beeper level on every border-port write, timestamped by
// querying video's master clock directly (ports.Audio carries no
// timing parameter of its own).
type beeperTrack struct {
	video  *video.Video
	events []beeperEvent
}

func (t *beeperTrack) Sample(level byte) {
	t.events = append(t.events, beeperEvent{t: t.video.Tstates(), level: level})
}

func (t *beeperTrack) reset() { t.events = t.events[:0] }

// render resamples the frame's level-change events into a signed
// square wave at the host sample rate, the same held-level-between-
// edges approximation every software beeper implementation uses, and
// returns the level in force at the end of the frame so the next
// frame's render can carry it forward.
func (t *beeperTrack) render(cpuClockHz, sampleRate int, startLevel byte, out []int16) byte {
	const amplitude = 0x2000
	level := startLevel
	ei := 0
	for i := range out {
		sampleT := uint64(i) * uint64(cpuClockHz) / uint64(sampleRate)
		for ei < len(t.events) && t.events[ei].t <= sampleT {
			level = t.events[ei].level
			ei++
		}
		if level != 0 {
			out[i] = amplitude
		} else {
			out[i] = -amplitude
		}
	}
	return level
}

// mixAdd sums two signed streams sample-by-sample, clamping to int16
// range, used to combine the AY chip's output with the beeper track.
func mixAdd(out, a, b []int16) {
	for i := range out {
		sum := int32(a[i]) + int32(b[i])
		switch {
		case sum > 0x7FFF:
			sum = 0x7FFF
		case sum < -0x7FFF:
			sum = -0x7FFF
		}
		out[i] = int16(sum)
	}
}
