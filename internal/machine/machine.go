package machine

import (
	"github.com/zxspectrum/core/internal/ay"
	"github.com/zxspectrum/core/internal/memory"
	"github.com/zxspectrum/core/internal/ports"
	"github.com/zxspectrum/core/internal/snapshot"
	"github.com/zxspectrum/core/internal/tape"
	"github.com/zxspectrum/core/internal/video"
	"github.com/zxspectrum/core/internal/z80"
)

// emptyTape is the tape.Format a Machine starts with before anything is
// mounted: an empty block list, so the flashload trap and EAR polling
// paths have a live Player to talk to from the very first frame.
type emptyTape struct{}

func (emptyTape) Blocks() []tape.Block { return nil }

// Machine is one emulated Spectrum: a Region's worth of timing and ROM
// layout driving CPU, Memory, Video, Ports, the AY chip and a tape
// deck through the Bus aggregate, with RunFrame as the only externally
// observable yield point per spec.md's single-threaded-per-frame model.
type Machine struct {
	Region Region

	CPU    *z80.CPU
	Memory *memory.Memory
	Video  *video.Video
	Ports  *ports.Ports
	AY     *ay.AY
	Tape   *tape.Player

	bus    *Bus
	beeper *beeperTrack

	sampleRate      int
	samplesPerFrame int
	beeperLevel     byte

	frames *Ring[[]byte]
	audio  *Ring[[]int16]
}

// New builds a Machine for region. roms supplies one ROM image per
// page (0-based, region.ROMPages long); sampleRate is the host audio
// sink's sample rate.
func New(region Region, roms [][]byte, sampleRate int) *Machine {
	mem := memory.New()
	for i, data := range roms {
		if i >= region.ROMPages {
			break
		}
		mem.LoadROM(i, data)
	}
	mem.Reset()

	vid := video.New(region.Timing, mem)
	chip := ay.New(region.AYClockHz, sampleRate)
	beeper := &beeperTrack{video: vid}

	issue := ports.Issue3
	prt := ports.New(vid, mem, chip, beeper, issue, !region.Is128, region.HasAY)

	bus := NewBus(region, mem, vid, prt, chip)
	cpu := z80.New(bus)

	player := tape.NewPlayer(emptyTape{})
	prt.SetTapeBitSource(func() byte {
		player.Advance(bus.AbsoluteTstates())
		if player.Level() {
			return 1
		}
		return 0
	})
	cpu.SetTrap(tape.NewFlashLoader(player))

	samplesPerFrame := sampleRate * region.FrameTStates / region.CPUClockHz

	m := &Machine{
		Region: region,
		CPU:    cpu,
		Memory: mem,
		Video:  vid,
		Ports:  prt,
		AY:     chip,
		Tape:   player,

		bus:             bus,
		beeper:          beeper,
		sampleRate:      sampleRate,
		samplesPerFrame: samplesPerFrame,

		frames: NewRing(func() []byte { return make([]byte, video.FrameWidth*video.FrameHeight) }),
		audio:  NewRing(func() []int16 { return make([]int16, samplesPerFrame) }),
	}
	return m
}

// MountTape replaces the currently playing tape image with f, rewound
// and stopped. The flashload trap keeps working against the new
// Player since CPU.SetTrap only ever needs one live FlashLoader.
func (m *Machine) MountTape(f tape.Format) {
	m.Tape = tape.NewPlayer(f)
	bus := m.bus
	player := m.Tape
	m.Ports.SetTapeBitSource(func() byte {
		player.Advance(bus.AbsoluteTstates())
		if player.Level() {
			return 1
		}
		return 0
	})
	m.CPU.SetTrap(tape.NewFlashLoader(player))
}

// Reset pulses a full machine reset: CPU power-on state, paging
// latches back to their defaults, raster clock to zero, tape rewound.
func (m *Machine) Reset() {
	m.CPU.Reset(true)
	m.Memory.Reset()
	m.Video.Reset()
	m.AY.Reset()
	m.Tape.Rewind()
}

// RunFrame executes exactly one video frame's worth of T-states,
// mirroring spec.md's run_frame pseudocode: step the CPU until the
// frame's T-state budget is exhausted, flush the raster, fill one
// frame of audio, then carry any overshoot into the next frame rather
// than discarding it. The completed video frame and audio chunk are
// published to their rings for a host thread to consume.
func (m *Machine) RunFrame() {
	frameT := uint64(m.Region.FrameTStates)
	for m.bus.Tstates() < frameT {
		m.CPU.Step()
	}
	m.Video.Flush()
	m.Video.CarryFrame(frameT)

	ayOut := make([]int16, m.samplesPerFrame)
	m.AY.FillSamples(ayOut)

	beepOut := make([]int16, m.samplesPerFrame)
	m.beeperLevel = m.beeper.render(m.Region.CPUClockHz, m.sampleRate, m.beeperLevel, beepOut)
	m.beeper.reset()

	m.frames.Publish(func(dst []byte) { copy(dst, m.Video.FrameBuffer()) })
	m.audio.Publish(func(dst []int16) { mixAdd(dst, ayOut, beepOut) })
}

// ConsumeFrame returns the most recently completed video frame buffer,
// FrameWidth*FrameHeight palette indices.
func (m *Machine) ConsumeFrame() []byte { return m.frames.Consume() }

// ConsumeAudio returns the most recently completed frame's mixed
// AY+beeper audio, samplesPerFrame signed 16-bit samples.
func (m *Machine) ConsumeAudio() []int16 { return m.audio.Consume() }

// SetKeyRow and SetKempston forward host input to Ports; spec.md
// requires these only be called between frames.
func (m *Machine) SetKeyRow(row int, mask byte) { m.Ports.SetKeyRow(row, mask) }
func (m *Machine) SetKempston(v byte)           { m.Ports.SetKempston(v) }

// snapshotTarget exposes Machine's live components to internal/snapshot
// without that package depending on Machine's construction.
func (m *Machine) snapshotTarget() *snapshot.Target {
	return &snapshot.Target{CPU: m.CPU, Memory: m.Memory, Video: m.Video, AY: m.AY, Is128: m.Region.Is128}
}

// ErrMachineMismatch is returned when a loaded snapshot names a memory
// model (48K vs 128K-family) different from the Machine's own Region;
// Ports and the Bus are wired for one model at construction time, so a
// mismatched load would leave paging silently half-applied.
type ErrMachineMismatch struct {
	WantIs128 bool
}

func (e *ErrMachineMismatch) Error() string {
	if e.WantIs128 {
		return "machine: snapshot is a 128K-family image, Machine is 48K-class"
	}
	return "machine: snapshot is a 48K image, Machine is 128K-family"
}

// LoadSNA restores an SNA snapshot into this Machine.
func (m *Machine) LoadSNA(data []byte) error {
	t := m.snapshotTarget()
	if err := snapshot.LoadSNA(data, t); err != nil {
		return err
	}
	return m.checkMachineMatch(t)
}

// SaveSNA serialises this Machine as an SNA snapshot.
func (m *Machine) SaveSNA() []byte { return snapshot.SaveSNA(m.snapshotTarget()) }

// LoadZ80 restores a .z80 snapshot into this Machine.
func (m *Machine) LoadZ80(data []byte) error {
	t := m.snapshotTarget()
	if err := snapshot.LoadZ80(data, t); err != nil {
		return err
	}
	return m.checkMachineMatch(t)
}

// SaveZ80 serialises this Machine as a .z80 snapshot.
func (m *Machine) SaveZ80() []byte { return snapshot.SaveZ80(m.snapshotTarget()) }

func (m *Machine) checkMachineMatch(t *snapshot.Target) error {
	if t.Is128 != m.Region.Is128 {
		return &ErrMachineMismatch{WantIs128: t.Is128}
	}
	return nil
}
