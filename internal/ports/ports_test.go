package ports

import "testing"

type fakeVideo struct {
	drawLog  []int
	border   byte
	floatVal byte
}

func (v *fakeVideo) Draw(tstates int, contended bool) { v.drawLog = append(v.drawLog, tstates) }
func (v *fakeVideo) SetBorder(color byte)             { v.border = color }
func (v *fakeVideo) FloatingBusByte() byte             { return v.floatVal }

type fakeMemory struct {
	contended   bool
	pagingPort  byte
	plus3Port   byte
	locked      bool
	pagingCalls int
}

func (m *fakeMemory) IsContended(addr uint16) bool { return m.contended }
func (m *fakeMemory) WritePagingPort(v byte) {
	m.pagingPort = v
	m.pagingCalls++
	m.locked = m.locked || v&0x20 != 0
}
func (m *fakeMemory) WritePlus3Port(v byte) { m.plus3Port = v }
func (m *fakeMemory) PagingLocked() bool   { return m.locked }

type fakeAY struct {
	selected byte
	written  byte
	readVal  byte
}

func (a *fakeAY) SelectRegister(v byte) { a.selected = v }
func (a *fakeAY) WriteRegister(v byte)  { a.written = v }
func (a *fakeAY) ReadRegister() byte    { return a.readVal }

type fakeAudio struct{ levels []byte }

func (a *fakeAudio) Sample(level byte) { a.levels = append(a.levels, level) }

func newTestPorts(is48, hasAY bool) (*Ports, *fakeVideo, *fakeMemory, *fakeAY, *fakeAudio) {
	v := &fakeVideo{}
	m := &fakeMemory{}
	a := &fakeAY{}
	snd := &fakeAudio{}
	return New(v, m, a, snd, Issue3, is48, hasAY), v, m, a, snd
}

func TestReadPortKempston(t *testing.T) {
	p, _, _, _, _ := newTestPorts(true, false)
	p.SetKempston(0x15)
	if got := p.ReadPort(0x001F); got != 0x15 {
		t.Fatalf("ReadPort(kempston) = %#x, want 0x15", got)
	}
}

func TestReadPortKeyboardIssue3Mask(t *testing.T) {
	p, _, _, _, _ := newTestPorts(true, false)
	for row := range [8]byte{} {
		p.SetKeyRow(row, 0xFF)
	}
	got := p.ReadPort(0xFEFE)
	if got&0xE0 != 0xE0 {
		t.Fatalf("Issue3 read = %#x, want bits 0xe0 forced set", got)
	}
}

func TestReadPortKeyboardIssue2Mask(t *testing.T) {
	p, _, _, _, _ := newTestPorts(true, false)
	p.issue = Issue2
	got := p.ReadPort(0xFEFE)
	if got&0xA0 != 0xA0 {
		t.Fatalf("Issue2 read = %#x, want bits 0xa0 forced set", got)
	}
}

func TestReadPortKeyRowSelectsMatrix(t *testing.T) {
	p, _, _, _, _ := newTestPorts(true, false)
	p.SetKeyRow(0, 0xFE) // row 0, first key held (bit 0 clear)
	// Port high byte with bit 0 clear (i.e. 0xFE) selects row 0 in the
	// half-row decode (inverted, active-low addressing).
	got := p.ReadPort(0xFEFE)
	if got&0x01 != 0 {
		t.Fatalf("ReadPort with row 0 selected = %#x, want bit 0 clear (key held)", got)
	}
}

func TestReadPortTapeBitInBit6(t *testing.T) {
	p, _, _, _, _ := newTestPorts(true, false)
	p.SetTapeBitSource(func() byte { return 1 })
	got := p.ReadPort(0xFEFE)
	if got&0x40 == 0 {
		t.Fatalf("ReadPort = %#x, want bit 6 set from tape source", got)
	}
}

func TestReadPortAYRegisterDecode(t *testing.T) {
	p, _, _, ay, _ := newTestPorts(false, true)
	ay.readVal = 0x3C
	if got := p.ReadPort(0xFFFD); got != 0x3C {
		t.Fatalf("ReadPort(AY data port) = %#x, want 0x3c", got)
	}
}

func TestReadPortAYIgnoredWhenNoChip(t *testing.T) {
	p, vid, _, ay, _ := newTestPorts(true, false)
	ay.readVal = 0x3C
	vid.floatVal = 0xFF
	if got := p.ReadPort(0xFFFD); got != 0xFF {
		t.Fatalf("48K Ports answered an AY read: got %#x, want floating bus 0xff", got)
	}
}

func TestReadPort7FFDRewritesPagingOn128K(t *testing.T) {
	p, vid, mem, _, _ := newTestPorts(false, false)
	vid.floatVal = 0x05 // bank 5, everything else clear
	p.ReadPort(0x7FFD)
	if mem.pagingCalls != 1 {
		t.Fatalf("reading 0x7ffd on a 128K machine should rewrite the paging port; pagingCalls = %d", mem.pagingCalls)
	}
	if mem.pagingPort != 0x05 {
		t.Fatalf("paging port rewritten with %#x, want the floating-bus byte 0x05", mem.pagingPort)
	}
}

func TestReadPort7FFDNotRewrittenOn48K(t *testing.T) {
	p, _, mem, _, _ := newTestPorts(true, false)
	p.ReadPort(0x7FFD)
	if mem.pagingCalls != 0 {
		t.Fatal("48K machines have no paging register; reading 0x7ffd must not write it")
	}
}

func TestWritePortBorderAndBeeper(t *testing.T) {
	p, vid, _, _, audio := newTestPorts(true, false)
	p.WritePort(0x00FE, 0x10) // beeper bit set, border 0
	if vid.border != 0 {
		t.Fatalf("border = %d, want 0", vid.border)
	}
	if len(audio.levels) != 1 || audio.levels[0] != 1 {
		t.Fatalf("audio samples = %v, want a single sample of 1 (beeper bit)", audio.levels)
	}
}

func TestWritePortAYSelectAndData(t *testing.T) {
	p, _, _, ay, _ := newTestPorts(false, true)
	p.WritePort(0xFFFD, 0x07) // select register 7
	if ay.selected != 0x07 {
		t.Fatalf("ay.selected = %#x, want 0x07", ay.selected)
	}
	p.WritePort(0xBFFD, 0x3F) // write data to selected register
	if ay.written != 0x3F {
		t.Fatalf("ay.written = %#x, want 0x3f", ay.written)
	}
}

func TestWritePortPagingRegisters(t *testing.T) {
	p, _, mem, _, _ := newTestPorts(false, false)
	p.WritePort(0x7FFD, 0x03)
	if mem.pagingPort != 0x03 {
		t.Fatalf("pagingPort = %#x, want 0x03", mem.pagingPort)
	}
	p.WritePort(0x1FFD, 0x01)
	if mem.plus3Port != 0x01 {
		t.Fatalf("plus3Port = %#x, want 0x01", mem.plus3Port)
	}
}

func TestWritePortPagingIgnoredOn48K(t *testing.T) {
	p, _, mem, _, _ := newTestPorts(true, false)
	p.WritePort(0x7FFD, 0x03)
	if mem.pagingCalls != 0 {
		t.Fatal("48K Ports must never call WritePagingPort")
	}
}

func TestWritePortRespectsPagingLock(t *testing.T) {
	p, _, mem, _, _ := newTestPorts(false, false)
	p.WritePort(0x7FFD, 0x20) // sets the lock bit
	if !mem.locked {
		t.Fatal("expected paging lock to latch")
	}
	p.WritePort(0x7FFD, 0x01)
	if mem.pagingPort&0x01 != 0 {
		t.Fatal("write after paging lock should have been ignored")
	}
}
