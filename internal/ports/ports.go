// Package ports decodes every I/O address the Spectrum family's CPU can
// address into the right device: the ULA (keyboard/border/speaker/tape),
// the AY-3-8912 (on 128K-and-later and any 48K clone fitted with one),
// Kempston joystick, and the 128K/+2/+2A/+3 memory paging registers.
package ports

// Video is the subset of the video layer ports needs: it must be told
// about every I/O access so it can charge the early/late contention
// delay and the border can be redrawn mid-frame on a border write.
type Video interface {
	Draw(tstates int, contended bool)
	SetBorder(color byte)
	FloatingBusByte() byte
}

// Memory is the subset of the memory layer ports needs for contention
// lookups and the 128K-family paging registers.
type Memory interface {
	IsContended(addr uint16) bool
	WritePagingPort(v byte)
	WritePlus3Port(v byte)
	PagingLocked() bool
}

// AY is the AY-3-8912 register interface.
type AY interface {
	SelectRegister(v byte)
	WriteRegister(v byte)
	ReadRegister() byte
}

// Audio receives the speaker level (EAR bit 4 XOR MIC bit 3) on every
// ULA port write, in the same units the teacher's engine samples at.
type Audio interface {
	Sample(level byte)
}

// KeyboardIssue distinguishes the Issue 2 and Issue 3 ULA keyboard-read
// quirk: unused bits read back set, OR-masked with a machine-specific
// constant.
type KeyboardIssue byte

const (
	Issue2 KeyboardIssue = iota
	Issue3
)

// Ports is wired directly into the CPU's Bus implementation; it does
// not implement z80.Bus itself; machine.Bus thinly delegates ReadPort
// and WritePort here, which is where this emulator's port-decode logic
// actually lives.
type Ports struct {
	video  Video
	mem    Memory
	ay     AY
	audio  Audio
	issue  KeyboardIssue
	is48   bool // true on 48K/TK90X/TK95 (no paging register, no AY by default)
	hasAY  bool

	keyRows     [8]byte // one bit per key, 0 = pressed, matching the ULA matrix
	kempston    byte
	border      byte

	tapeBit func() byte // supplies the current tape edge level while loading
}

// New builds a Ports decoder. is48 disables the 128K paging registers;
// hasAY controls whether the AY-select/data ports respond at all (every
// 128K-family machine has one; some 48K clones/expansions do too).
func New(video Video, mem Memory, ay AY, audio Audio, issue KeyboardIssue, is48, hasAY bool) *Ports {
	p := &Ports{video: video, mem: mem, ay: ay, audio: audio, issue: issue, is48: is48, hasAY: hasAY}
	for i := range p.keyRows {
		p.keyRows[i] = 0xFF
	}
	return p
}

// SetTapeBitSource installs the callback used to read the current tape
// edge level into bit 6 of ULA port reads while a tape is loading.
func (p *Ports) SetTapeBitSource(f func() byte) { p.tapeBit = f }

// SetKeyRow sets the pressed-key bitmask for matrix row 0-7 (bit clear
// = key held), mirroring the real ULA's active-low matrix.
func (p *Ports) SetKeyRow(row int, mask byte) { p.keyRows[row] = mask }

// SetKempston sets the Kempston joystick byte (bit 0-3 = right/left/
// down/up, bit 4 = fire).
func (p *Ports) SetKempston(v byte) { p.kempston = v }

// ReadPort implements the full early/late I/O contention pattern the
// ULA applies to every port access, then dispatches by address.
func (p *Ports) ReadPort(addr uint16) byte {
	p.contendEarly(addr)
	p.contendLate(addr)

	if addr&0xFF == 0x1F {
		return p.kempston
	}

	if addr&0xFF == 0xFE {
		result := byte(0xBF)
		portHigh := ^byte(addr>>8) & 0xFF
		for row := 0; row < 8; row++ {
			if portHigh&(1<<uint(row)) != 0 {
				result &= p.keyRows[row]
			}
		}
		switch p.issue {
		case Issue2:
			result |= 0xA0
		default:
			result |= 0xE0
		}
		if p.tapeBit != nil {
			bit := p.tapeBit()
			result = result&^0x40 | (bit << 6)
		}
		return result
	}

	if p.hasAY && (addr>>8)&0xC0 == 0xC0 && addr&0xFF&0x02 == 0x00 {
		return p.ay.ReadRegister()
	}

	data := p.video.FloatingBusByte()

	if !p.is48 && addr&0x8002 == 0 && addr&0x4000 != 0 && !p.mem.PagingLocked() {
		p.mem.WritePagingPort(data)
	}

	return data
}

// WritePort mirrors ReadPort's contention pattern around the write.
func (p *Ports) WritePort(addr uint16, v byte) {
	p.contendEarly(addr)

	if addr&0x0001 == 0 {
		p.video.SetBorder(v & 0x07)
		saveBit := (v >> 3) & 1
		beeperBit := (v >> 4) & 1
		p.audio.Sample(saveBit ^ beeperBit)
	}

	if p.hasAY && addr&0x8002 == 0x8000 {
		if addr&0x4000 != 0 {
			p.ay.SelectRegister(v)
		} else {
			p.ay.WriteRegister(v)
		}
	}

	p.contendLate(addr)

	if !p.is48 && addr&0x8002 == 0 {
		if addr&0x4000 != 0 {
			if !p.mem.PagingLocked() {
				p.mem.WritePagingPort(v)
			}
		} else {
			p.mem.WritePlus3Port(v)
		}
	}
}

func (p *Ports) contendEarly(addr uint16) {
	p.video.Draw(1, p.mem.IsContended(addr))
}

func (p *Ports) contendLate(addr uint16) {
	if addr&0x0001 == 0 {
		p.video.Draw(3, true)
		return
	}
	if p.mem.IsContended(addr) {
		p.video.Draw(1, true)
		p.video.Draw(1, true)
		p.video.Draw(1, true)
	} else {
		p.video.Draw(3, false)
	}
}
