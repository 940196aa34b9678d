package snapshot

import "github.com/zxspectrum/core/internal/memory"

const (
	sna48Size  = 49179
	sna128Size = 131103
	snaHdrSize = 27
)

// LoadSNA restores t from a complete .sna image. 48K images (49179
// bytes) pop PC off the stack; 128K images (131103 bytes, or 147487
// bytes when the banked page is 2 or 5, which then stores one more
// trailing page that is loaded too) carry PC and the paging port
// explicitly.
func LoadSNA(data []byte, t *Target) error {
	if len(data) < sna48Size {
		return &ErrMalformed{Reason: "SNA file shorter than a 48K dump"}
	}

	cpu := t.CPU
	cpu.I = data[0]
	cpu.SetHL2(le16(data[1:]))
	cpu.SetDE2(le16(data[3:]))
	cpu.SetBC2(le16(data[5:]))
	cpu.SetAF2(le16(data[7:]))
	cpu.SetHL(le16(data[9:]))
	cpu.SetDE(le16(data[11:]))
	cpu.SetBC(le16(data[13:]))
	cpu.IY = le16(data[15:])
	cpu.IX = le16(data[17:])

	inter := data[19]
	cpu.IFF2 = inter&0x04 != 0
	cpu.IFF1 = cpu.IFF2
	cpu.R = data[20]

	cpu.SetAF(le16(data[21:]))
	cpu.SP = le16(data[23:])
	cpu.IM = data[25]
	t.Video.SetBorder(data[26])

	t.Memory.LoadRAMPage(5, data[snaHdrSize:snaHdrSize+memory.PageSize])
	t.Memory.LoadRAMPage(2, data[snaHdrSize+memory.PageSize:snaHdrSize+2*memory.PageSize])
	t.Memory.LoadRAMPage(0, data[snaHdrSize+2*memory.PageSize:snaHdrSize+3*memory.PageSize])

	if len(data) == sna48Size {
		sp := cpu.SP
		lo, hi := t.Memory.Read(sp), t.Memory.Read(sp+1)
		cpu.PC = uint16(hi)<<8 | uint16(lo)
		cpu.SP = sp + 2
		t.Memory.SetLatches(0, 0, false, true)
		return nil
	}

	off := snaHdrSize + 3*memory.PageSize
	cpu.PC = le16(data[off:])
	pagingPort := data[off+2]
	bankLatch := int(pagingPort & 0x07)

	// The block nominally loaded as "RAM page 0" above actually holds
	// whichever page is currently banked into slot 3; copy it across
	// unless that page genuinely is page 0.
	if bankLatch != 0 {
		page0 := *t.Memory.RAMPage(0)
		t.Memory.LoadRAMPage(bankLatch, page0[:])
	}

	romInUse := 0
	if pagingPort&0x10 != 0 {
		romInUse = 1
	}
	t.Memory.SetLatches(bankLatch, romInUse, pagingPort&0x08 != 0, pagingPort&0x20 != 0)

	off += 4 // PC(2) + paging port(1) + TR-DOS flag(1, unused)
	for page := 0; page < 8; page++ {
		if page == bankLatch || page == 2 || page == 5 {
			continue
		}
		if off+memory.PageSize > len(data) {
			break
		}
		t.Memory.LoadRAMPage(page, data[off:off+memory.PageSize])
		off += memory.PageSize
	}
	return nil
}

// SaveSNA serialises t into a .sna image, 48K or 128K depending on
// t.Is128.
func SaveSNA(t *Target) []byte {
	cpu := t.CPU

	header := make([]byte, snaHdrSize)
	header[0] = cpu.I
	putLE16(header[1:], cpu.HL2())
	putLE16(header[3:], cpu.DE2())
	putLE16(header[5:], cpu.BC2())
	putLE16(header[7:], cpu.AF2())
	putLE16(header[9:], cpu.HL())
	putLE16(header[11:], cpu.DE())
	putLE16(header[13:], cpu.BC())
	putLE16(header[15:], cpu.IY)
	putLE16(header[17:], cpu.IX)
	if cpu.IFF2 {
		header[19] = 0x04
	}
	header[20] = cpu.R
	putLE16(header[21:], cpu.AF())
	header[25] = cpu.IM
	header[26] = t.Video.Border()

	if !t.Is128 {
		// A 48K loader recovers PC by popping it off the stack, so the
		// save side must push it there first.
		sp := cpu.SP - 2
		t.Memory.Write(sp, byte(cpu.PC))
		t.Memory.Write(sp+1, byte(cpu.PC>>8))
		putLE16(header[23:], sp)
	} else {
		putLE16(header[23:], cpu.SP)
	}

	out := make([]byte, 0, sna128Size)
	out = append(out, header...)
	out = append(out, t.Memory.RAMPage(5)[:]...)
	out = append(out, t.Memory.RAMPage(2)[:]...)

	if !t.Is128 {
		out = append(out, t.Memory.RAMPage(0)[:]...)
		return out
	}

	bankLatch := t.Memory.BankLatch()
	bankPage := *t.Memory.RAMPage(bankLatch)
	out = append(out, bankPage[:]...)

	pcBytes := make([]byte, 2)
	putLE16(pcBytes, cpu.PC)
	out = append(out, pcBytes...)

	pagingPort := byte(bankLatch)
	if t.Memory.VideoBank() == 7 {
		pagingPort |= 0x08
	}
	if t.Memory.ROMInUse() != 0 {
		pagingPort |= 0x10
	}
	if t.Memory.PagingLocked() {
		pagingPort |= 0x20
	}
	out = append(out, pagingPort, 0)

	for page := 0; page < 8; page++ {
		if page == bankLatch || page == 2 || page == 5 {
			continue
		}
		p := *t.Memory.RAMPage(page)
		out = append(out, p[:]...)
	}
	return out
}
