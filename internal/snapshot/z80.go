package snapshot

import "github.com/zxspectrum/core/internal/memory"

// Z80 machine-type byte, as written into header offset 34 by v2/v3
// files. mch48 0 and 1 ("+Interface I") both mean plain 48K; Pentagon
// only exists as a v3 code.
const (
	mch48       = 0
	mch128      = 4
	mchPentagon = 9
)

// z80RAMPageByID and z80RAM128PageByID map a Z80 v2/v3 memory-block
// page ID to the RAM page
// it represents. 48K files only ever use IDs 4, 5 and 8; 128K files use
// 3 through 10 for RAM banks 0-7 and 0/1/3 (or 4 on some dumps) for ROM.
var z80RAMPageByID = map[byte]int{
	4: 2, 5: 0, 8: 5, // 48K layout (slot addresses 0x8000, 0xC000, 0x4000)
}

var z80RAM128PageByID = map[byte]int{
	3: 0, 4: 1, 5: 2, 6: 3, 7: 4, 8: 5, 9: 6, 10: 7,
}

// LoadZ80 restores t from a .z80 image, detecting format version 1, 2
// or 3 from the header length convention the format itself uses (a
// zero PC field at offset 6-7 signals v2/v3, whose additional-header
// length at offset 30-31 then distinguishes the two).
func LoadZ80(data []byte, t *Target) error {
	if len(data) < 30 {
		return &ErrMalformed{Reason: "Z80 file shorter than its fixed header"}
	}
	cpu := t.CPU

	cpu.A = data[0]
	cpu.F = data[1]
	cpu.C = data[2]
	cpu.B = data[3]
	cpu.L = data[4]
	cpu.H = data[5]
	pc := le16(data[6:])

	cpu.SP = le16(data[8:])
	cpu.I = data[10]
	r := data[11] & 0x7F
	b12 := data[12]
	if b12&0x01 != 0 {
		r |= 0x80
	}
	cpu.R = r
	t.Video.SetBorder((b12 >> 1) & 0x07)
	compressed := b12&0x20 != 0

	cpu.E = data[13]
	cpu.D = data[14]
	cpu.C2, cpu.B2 = data[15], data[16]
	cpu.E2, cpu.D2 = data[17], data[18]
	cpu.L2, cpu.H2 = data[19], data[20]
	cpu.A2 = data[21]
	cpu.F2 = data[22]
	cpu.IY = le16(data[23:])
	cpu.IX = le16(data[25:])
	cpu.IFF1 = data[27] != 0
	cpu.IFF2 = data[28] != 0
	cpu.IM = data[29] & 0x03

	if pc != 0 {
		return loadZ80V1(data, t, pc, compressed)
	}
	if len(data) < 32 {
		return &ErrMalformed{Reason: "Z80 v2/v3 file truncated before additional header"}
	}
	ahbLen := le16(data[30:])
	var version int
	switch ahbLen {
	case 23:
		version = 2
	case 54, 55:
		version = 3
	default:
		return &ErrMalformed{Reason: "unrecognised Z80 additional-header length"}
	}

	ahb := data[32 : 32+int(ahbLen)]
	cpu.PC = le16(ahb[0:])
	mch := ahb[2]

	is128, ok := z80MachineIs128(version, mch)
	if !ok {
		return &ErrUnsupportedMachine{Code: mch}
	}
	t.Is128 = is128

	pagingPort := byte(0)
	if len(ahb) > 3 {
		pagingPort = ahb[3]
	}

	body := data[32+int(ahbLen):]
	if !is128 {
		t.Memory.SetLatches(0, 0, false, true)
		return loadZ80Pages48(body, t)
	}
	bankLatch := int(pagingPort & 0x07)
	romInUse := 0
	if pagingPort&0x10 != 0 {
		romInUse = 1
	}
	t.Memory.SetLatches(bankLatch, romInUse, pagingPort&0x08 != 0, pagingPort&0x20 != 0)
	return loadZ80Pages128(body, t)
}

func z80MachineIs128(version int, mch byte) (bool, bool) {
	switch version {
	case 2:
		switch mch {
		case 0, 1:
			return false, true
		case 3, 4:
			return true, true
		}
	case 3:
		switch mch {
		case 0, 1, 3:
			return false, true
		case 4, 5, 6, 7, mchPentagon, 12, 13:
			return true, true
		}
	}
	return false, false
}

// loadZ80V1 handles the simplest version: 48K only, the remainder of
// the file is one 0xC000-byte memory image, optionally RLE-compressed
// with a 00 ED ED 00 terminator.
func loadZ80V1(data []byte, t *Target, pc uint16, compressed bool) error {
	cpu := t.CPU
	cpu.PC = pc
	t.Is128 = false
	t.Memory.SetLatches(0, 0, false, true)

	body := data[30:]
	var flat [0xC000]byte
	if compressed {
		n := len(body)
		if n >= 4 {
			n -= 4 // strip the 00 ED ED 00 terminator
		}
		decompressRLE(body[:n], flat[:])
	} else {
		copy(flat[:], body)
	}
	t.Memory.LoadRAMPage(5, flat[0x0000:0x4000])
	t.Memory.LoadRAMPage(2, flat[0x4000:0x8000])
	t.Memory.LoadRAMPage(0, flat[0x8000:0xC000])
	return nil
}

func loadZ80Pages48(body []byte, t *Target) error {
	for len(body) >= 3 {
		length := int(le16(body))
		id := body[2]
		body = body[3:]
		page, known := z80RAMPageByID[id]
		rest, err := loadZ80Block(body, length, t, page, known)
		if err != nil {
			return err
		}
		body = rest
	}
	return nil
}

func loadZ80Pages128(body []byte, t *Target) error {
	for len(body) >= 3 {
		length := int(le16(body))
		id := body[2]
		body = body[3:]
		page, known := z80RAM128PageByID[id]
		rest, err := loadZ80Block(body, length, t, page, known)
		if err != nil {
			return err
		}
		body = rest
	}
	return nil
}

// loadZ80Block reads one memory-block record (length already parsed by
// the caller) and, if its page ID maps to a RAM bank this loader cares
// about (ROM pages and the +D/TR-DOS page are skipped), writes it in.
// length == 0xFFFF means an uncompressed 0x4000-byte page.
func loadZ80Block(body []byte, length int, t *Target, page int, known bool) ([]byte, error) {
	var raw []byte
	if length == 0xFFFF {
		if len(body) < memory.PageSize {
			return nil, &ErrMalformed{Reason: "truncated uncompressed Z80 page"}
		}
		raw = body[:memory.PageSize]
		body = body[memory.PageSize:]
	} else {
		if len(body) < length {
			return nil, &ErrMalformed{Reason: "truncated compressed Z80 page"}
		}
		var decoded [memory.PageSize]byte
		decompressRLE(body[:length], decoded[:])
		raw = decoded[:]
		body = body[length:]
	}
	if known {
		t.Memory.LoadRAMPage(page, raw)
	}
	return body, nil
}

// decompressRLE implements the Z80 format's ED-ED run-length scheme: a
// literal 0xED 0xED pair is always an escape introducing a (count,
// value) run; any other byte, including a lone 0xED, copies straight
// through.
func decompressRLE(src []byte, dst []byte) {
	si, di := 0, 0
	for si < len(src) && di < len(dst) {
		if src[si] == 0xED && si+1 < len(src) && src[si+1] == 0xED {
			if si+3 >= len(src) {
				break
			}
			count := int(src[si+2])
			val := src[si+3]
			for i := 0; i < count && di < len(dst); i++ {
				dst[di] = val
				di++
			}
			si += 4
			continue
		}
		dst[di] = src[si]
		di++
		si++
	}
}

// compressRLE is the reverse transform: runs of 5 or more identical
// bytes are emitted as the ED-ED escape (anything shorter costs more
// bytes compressed than not). A run of 0xED itself is always escaped
// starting at length 2, since two literal 0xED bytes written back to
// back would otherwise read back as the start of that same escape.
func compressRLE(src []byte) []byte {
	out := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		b := src[i]
		run := 1
		for i+run < len(src) && src[i+run] == b && run < 255 {
			run++
		}
		threshold := 5
		if b == 0xED {
			threshold = 2
		}
		if run >= threshold {
			out = append(out, 0xED, 0xED, byte(run), b)
			i += run
			continue
		}
		out = append(out, b)
		i++
		// The byte after a lone 0xED is always written literally, so the
		// decoder never reads that 0xED as the start of an escape.
		if b == 0xED && i < len(src) {
			out = append(out, src[i])
			i++
		}
	}
	return out
}

// SaveZ80 serialises t as a version-3 .z80 image with RLE-compressed
// memory-page blocks.
func SaveZ80(t *Target) []byte {
	cpu := t.CPU
	header := make([]byte, 30)
	header[0], header[1] = cpu.A, cpu.F
	header[2], header[3] = cpu.C, cpu.B
	header[4], header[5] = cpu.L, cpu.H
	// PC is left zero here: writing it would mark this a v1 file.
	putLE16(header[8:], cpu.SP)
	header[10] = cpu.I
	header[11] = cpu.R & 0x7F
	b12 := byte((t.Video.Border() & 0x07) << 1)
	if cpu.R&0x80 != 0 {
		b12 |= 0x01
	}
	header[12] = b12
	header[13], header[14] = cpu.E, cpu.D
	header[15], header[16] = cpu.C2, cpu.B2
	header[17], header[18] = cpu.E2, cpu.D2
	header[19], header[20] = cpu.L2, cpu.H2
	header[21] = cpu.A2
	header[22] = cpu.F2
	putLE16(header[23:], cpu.IY)
	putLE16(header[25:], cpu.IX)
	if cpu.IFF1 {
		header[27] = 1
	}
	if cpu.IFF2 {
		header[28] = 1
	}
	header[29] = cpu.IM & 0x03

	ahb := make([]byte, 2+54)
	putLE16(ahb[0:2], 54)
	putLE16(ahb[2:4], cpu.PC)
	if t.Is128 {
		ahb[4] = mch128
	} else {
		ahb[4] = mch48
	}
	pagingPort := byte(0)
	if t.Is128 {
		pagingPort = byte(t.Memory.BankLatch())
		if t.Memory.VideoBank() == 7 {
			pagingPort |= 0x08
		}
		if t.Memory.ROMInUse() != 0 {
			pagingPort |= 0x10
		}
		if t.Memory.PagingLocked() {
			pagingPort |= 0x20
		}
	}
	ahb[5] = pagingPort

	out := append([]byte{}, header...)
	out = append(out, ahb...)

	writePage := func(id byte, page *[memory.PageSize]byte) {
		body := compressRLE(page[:])
		hdr := make([]byte, 3)
		putLE16(hdr[0:2], uint16(len(body)))
		hdr[2] = id
		out = append(out, hdr...)
		out = append(out, body...)
	}

	if !t.Is128 {
		writePage(8, t.Memory.RAMPage(5))
		writePage(4, t.Memory.RAMPage(2))
		writePage(5, t.Memory.RAMPage(0))
		return out
	}
	for page := 0; page < 8; page++ {
		writePage(byte(page+3), t.Memory.RAMPage(page))
	}
	return out
}
