// Package memory implements the banked 64KiB address space every member
// of the Spectrum family exposes to the Z80: four 16KiB slots, the last
// of which is switchable on 128K-and-later machines, backed by up to
// five 16KiB ROM pages and eight 16KiB RAM pages.
package memory

const (
	PageSize = 0x4000
	romPages = 5
	ramPages = 8
)

// Memory owns every RAM/ROM page and the paging latches that decide
// which physical page each of the four 16KiB slots currently exposes.
type Memory struct {
	rom [romPages][PageSize]byte
	ram [ramPages][PageSize]byte

	romInUse   int  // which ROM page slot 0 currently shows
	bankLatch  int  // which RAM page slot 3 currently shows (0-7)
	videoLatch int  // which RAM page (5 or 7) the ULA reads for display
	pagingLock bool // 128K port 0x7ffd bit 5: once set, further writes are ignored until reset

	// romBitHi/romBitLo are the two halves of the ROM selector: bit 0
	// of the +2A/+3 extended port 0x1ffd is the high bit and bit 4 of
	// port 0x7ffd the low bit. Combined they select one of four ROM
	// pages; machines without the extended port (48K/128K/+2) only ever
	// set romBitLo.
	romBitHi int
	romBitLo int

	// allRAM/allRAMCfg implement the +2A/+3 "special paging mode" (port
	// 0x1ffd bit 1), which maps all four slots straight to RAM pages.
	allRAM    bool
	allRAMCfg int
}

// New returns a Memory with all pages zeroed; LoadROM must be called
// before it's usable.
func New() *Memory {
	return &Memory{}
}

// LoadROM copies data into ROM page index (0-4). 48K machines use only
// page 0; 128K/+2 use 0-1; +2A/+3 use 0-3 (plus the 4th "TR-DOS ROM" on
// hardware that carries one, out of scope here).
func (m *Memory) LoadROM(page int, data []byte) {
	n := copy(m.rom[page][:], data)
	for i := n; i < PageSize; i++ {
		m.rom[page][i] = 0
	}
}

// LoadRAMPage fills RAM page index (0-7) directly, used by snapshot
// loaders that restore a full memory image.
func (m *Memory) LoadRAMPage(page int, data []byte) {
	copy(m.ram[page][:], data)
}

// RAMPage returns a direct slice onto RAM page index, used by snapshot
// savers and the video layer (which always reads page 5, or 7 on a
// 128K machine with the screen bank paged in).
func (m *Memory) RAMPage(page int) *[PageSize]byte { return &m.ram[page] }

// Reset returns all paging latches to their power-on state. It does not
// clear RAM/ROM contents.
func (m *Memory) Reset() {
	m.romInUse = 0
	m.bankLatch = 0
	m.videoLatch = 5
	m.pagingLock = false
	m.romBitHi = 0
	m.romBitLo = 0
	m.allRAM = false
}

// plus3RAMLayouts are the four fixed slot->RAM-page mappings selected
// by port 0x1ffd bits 2-3 when special paging mode is active.
var plus3RAMLayouts = [4][4]int{
	{0, 1, 2, 3},
	{4, 5, 6, 7},
	{4, 5, 6, 3},
	{4, 7, 6, 3},
}

// slot returns which of the four 16KiB regions addr falls in (0-3).
func slot(addr uint16) int { return int(addr >> 14) }

// Read returns the byte currently visible at addr.
func (m *Memory) Read(addr uint16) byte {
	page, offset := m.resolve(addr)
	if page.isROM {
		return m.rom[page.index][offset]
	}
	return m.ram[page.index][offset]
}

// Write stores to addr, silently discarding writes that land in ROM.
func (m *Memory) Write(addr uint16, v byte) {
	page, offset := m.resolve(addr)
	if page.isROM {
		return
	}
	m.ram[page.index][offset] = v
}

type resolvedPage struct {
	index int
	isROM bool
}

func (m *Memory) resolve(addr uint16) (resolvedPage, uint16) {
	offset := addr & (PageSize - 1)
	s := slot(addr)

	if m.allRAM {
		return resolvedPage{index: plus3RAMLayouts[m.allRAMCfg][s], isROM: false}, offset
	}

	switch s {
	case 0:
		return resolvedPage{index: m.romInUse, isROM: true}, offset
	case 1:
		return resolvedPage{index: 5, isROM: false}, offset
	case 2:
		return resolvedPage{index: 2, isROM: false}, offset
	default:
		return resolvedPage{index: m.bankLatch, isROM: false}, offset
	}
}

// IsContended reports whether addr falls in a page that stalls the CPU
// when the ULA is drawing: every odd-numbered RAM page is wired to
// contended memory, not just 5 and 7 — any odd bank paged into slot 3
// on a 128K-family machine stalls exactly as slot 1's fixed page 5
// does. The bottom slot (ROM) and slot 2 (fixed page 2) are never
// contended.
func (m *Memory) IsContended(addr uint16) bool {
	page, _ := m.resolve(addr)
	if page.isROM {
		return false
	}
	return page.index%2 == 1
}

// WritePagingPort handles port 0x7ffd (128K/+2 memory paging): bits
// 0-2 select the RAM bank in slot 3, bit 3 selects the video bank
// (shadow vs normal screen), bit 4 selects the ROM, bit 5 locks all
// further paging until a reset.
func (m *Memory) WritePagingPort(v byte) {
	if m.pagingLock {
		return
	}
	m.bankLatch = int(v & 0x07)
	if v&0x08 != 0 {
		m.videoLatch = 7
	} else {
		m.videoLatch = 5
	}
	if v&0x10 != 0 {
		m.romBitLo = 1
	} else {
		m.romBitLo = 0
	}
	if v&0x20 != 0 {
		m.pagingLock = true
	}
	m.romInUse = m.romBitHi<<1 | m.romBitLo
}

// WritePlus3Port handles port 0x1ffd, the +2A/+3 extended paging
// register: bit 0 selects between the two extra ROM pages (combined
// with port 0x7ffd's ROM bit to choose 1 of 4), bit 1 enables the
// "special" all-RAM configurations, bits 2-3 select which all-RAM
// layout when enabled.
func (m *Memory) WritePlus3Port(v byte) {
	if m.pagingLock {
		return
	}
	m.romBitHi = int(v & 0x01)
	m.allRAM = v&0x02 != 0
	m.allRAMCfg = int(v>>2) & 0x03
	m.romInUse = m.romBitHi<<1 | m.romBitLo
}

// VideoBank returns which RAM page (5 or 7) the ULA currently renders.
func (m *Memory) VideoBank() int { return m.videoLatch }

// ScreenByte returns the byte at offset within whichever RAM page the
// ULA currently renders from, satisfying video.MemorySource without
// that package depending on Memory's internal layout.
func (m *Memory) ScreenByte(offset uint16) byte {
	return m.ram[m.videoLatch][offset&(PageSize-1)]
}

// BankLatch returns the RAM page currently paged into slot 3, used by
// snapshot savers to record machine state.
func (m *Memory) BankLatch() int { return m.bankLatch }

// ROMInUse returns the ROM page currently paged into slot 0.
func (m *Memory) ROMInUse() int { return m.romInUse }

// PagingLocked reports whether port 0x7ffd's paging lock has latched.
func (m *Memory) PagingLocked() bool { return m.pagingLock }

// SetLatches restores raw latch state, used by snapshot loaders that
// record the 128K paging byte directly.
func (m *Memory) SetLatches(bankLatch, romInUse int, videoBank7 bool, locked bool) {
	m.bankLatch = bankLatch
	m.romInUse = romInUse
	if videoBank7 {
		m.videoLatch = 7
	} else {
		m.videoLatch = 5
	}
	m.pagingLock = locked
}
