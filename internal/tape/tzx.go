package tape

import (
	"bytes"
	"compress/zlib"
	"io"
)

var tzxSignature = [8]byte{'Z', 'X', 'T', 'a', 'p', 'e', '!', 0x1A}

// TZX is the rich block-stream format: every block carries its own
// timing parameters (or, for control blocks, none at all). Block types
// this reader does not give dedicated playback semantics to (group
// markers, jumps/loops/calls, archive info, text blocks) are recorded
// as pause-only or skipped per their documented "informational" status.
type TZX struct {
	major, minor byte
	blocks       []Block
}

// ReadTZX parses a complete TZX file image.
func ReadTZX(data []byte) (*TZX, error) {
	if len(data) < 10 || !bytes.Equal(data[:8], tzxSignature[:]) {
		return nil, &ErrMalformed{Reason: "bad TZX signature"}
	}
	t := &TZX{major: data[8], minor: data[9]}
	r := &byteReader{buf: data[10:]}

	for r.remaining() > 0 {
		id := r.u8()
		blk, err := t.readBlock(id, r)
		if err != nil {
			return nil, err
		}
		if blk != nil {
			t.blocks = append(t.blocks, *blk)
		}
	}
	return t, nil
}

func (t *TZX) Blocks() []Block { return t.blocks }

func (t *TZX) readBlock(id byte, r *byteReader) (*Block, error) {
	switch id {
	case 0x10: // Standard Speed Data
		pause := int(r.u16()) * 3500
		length := int(r.u16())
		data := r.bytes(length)
		pilot := DataPulses
		if len(data) > 0 && data[0] < 0x80 {
			pilot = HeaderPulses
		}
		return &Block{
			Data: data, Kind: KindStandard,
			PilotPulses: pilot, PilotLen: PilotLen,
			Sync1Len: Sync1Len, Sync2Len: Sync2Len,
			Bit0Len: Bit0PulseLen, Bit1Len: Bit1PulseLen,
			UsedBitsLast: 8, PauseAfter: pause,
		}, nil

	case 0x11: // Turbo Speed Data
		pilotLen := int(r.u16())
		sync1 := int(r.u16())
		sync2 := int(r.u16())
		bit0 := int(r.u16())
		bit1 := int(r.u16())
		pilotPulses := int(r.u16())
		usedBits := int(r.u8())
		pause := int(r.u16()) * 3500
		length := int(r.u24())
		data := r.bytes(length)
		return &Block{
			Data: data, Kind: KindStandard,
			PilotPulses: pilotPulses, PilotLen: pilotLen,
			Sync1Len: sync1, Sync2Len: sync2,
			Bit0Len: bit0, Bit1Len: bit1,
			UsedBitsLast: usedBits, PauseAfter: pause,
		}, nil

	case 0x12: // Pure Tone
		length := int(r.u16())
		count := int(r.u16())
		pulses := make([]int, count)
		for i := range pulses {
			pulses[i] = length
		}
		return &Block{Kind: KindPureTone, Pulses: pulses}, nil

	case 0x13: // Pulse sequence
		count := int(r.u8())
		pulses := make([]int, count)
		for i := range pulses {
			pulses[i] = int(r.u16())
		}
		return &Block{Kind: KindPulseSequence, Pulses: pulses}, nil

	case 0x14: // Pure Data
		bit0 := int(r.u16())
		bit1 := int(r.u16())
		usedBits := int(r.u8())
		pause := int(r.u16()) * 3500
		length := int(r.u24())
		data := r.bytes(length)
		return &Block{
			Data: data, Kind: KindStandard,
			Bit0Len: bit0, Bit1Len: bit1,
			UsedBitsLast: usedBits, PauseAfter: pause,
		}, nil

	case 0x15: // Direct recording
		tstatesPerSample := int(r.u16())
		pause := int(r.u16()) * 3500
		usedBits := int(r.u8())
		length := int(r.u24())
		data := r.bytes(length)
		return &Block{
			Data: data, Kind: KindDirectRecording,
			Bit0Len: tstatesPerSample, UsedBitsLast: usedBits, PauseAfter: pause,
		}, nil

	case 0x18: // CSW recording
		blockLen := int(r.u32())
		body := r.bytes(blockLen)
		return decodeCSW(body)

	case 0x19: // Generalized Data Block
		return readGDB(r)

	case 0x20: // Pause or Stop the tape
		ms := int(r.u16())
		if ms == 0 {
			return &Block{Kind: KindPauseOnly, StopTape: true}, nil
		}
		return &Block{Kind: KindPauseOnly, PauseAfter: ms * 3500}, nil

	case 0x21: // Group start
		length := int(r.u8())
		r.bytes(length)
		return nil, nil
	case 0x22: // Group end
		return nil, nil

	case 0x23: // Jump to block
		r.u16()
		return nil, nil
	case 0x24: // Loop start
		r.u16()
		return nil, nil
	case 0x25: // Loop end
		return nil, nil
	case 0x26: // Call sequence
		n := int(r.u16())
		r.bytes(2 * n)
		return nil, nil
	case 0x27: // Return from sequence
		return nil, nil
	case 0x28: // Select block
		length := int(r.u16())
		r.bytes(length)
		return nil, nil

	case 0x2A: // Stop the tape if in 48K mode
		r.u32()
		return &Block{Kind: KindPauseOnly, StopIf48K: true}, nil

	case 0x2B: // Set signal level
		r.u32()
		level := int(r.u8())
		return &Block{Kind: KindSetLevel, InitialLevel: level}, nil

	case 0x30: // Text description
		length := int(r.u8())
		r.bytes(length)
		return nil, nil
	case 0x31: // Message block
		r.u8()
		length := int(r.u8())
		r.bytes(length)
		return nil, nil
	case 0x32: // Archive info
		length := int(r.u16())
		r.bytes(length)
		return nil, nil
	case 0x33: // Hardware type
		n := int(r.u8())
		r.bytes(3 * n)
		return nil, nil
	case 0x35: // Custom info block
		r.bytes(16)
		length := int(r.u32())
		r.bytes(length)
		return nil, nil
	case 0x5A: // "Glue" block (signature of a concatenated TZX)
		r.bytes(9)
		return nil, nil

	default:
		// General extension rule: every block added after v1.10 has a
		// 4-byte length immediately following its ID.
		length := int(r.u32())
		r.bytes(length)
		return nil, nil
	}
}

// decodeCSW inflates a CSW recording block (ID 0x18) into a Pulse-
// sequence Block. Uncompressed and RLE-compressed (type 1) pulses are
// handled the same way since CSW's "RLE" just means a zero byte escapes
// to a 4-byte pulse length; Z-RLE (type 2) additionally zlib-inflates
// the whole pulse stream before that same escape rule applies.
func decodeCSW(body []byte) (*Block, error) {
	if len(body) < 14 {
		return nil, &ErrMalformed{Reason: "truncated CSW block"}
	}
	sampleRate := int(body[4]) | int(body[5])<<8 | int(body[6])<<16
	if sampleRate == 0 {
		sampleRate = 1
	}
	tstatesPerSample := 3500000 / sampleRate
	compression := body[7]
	pulseStream := body[14:]

	if compression == 2 {
		zr, err := zlib.NewReader(bytes.NewReader(pulseStream))
		if err != nil {
			return nil, &ErrMalformed{Reason: "bad CSW Z-RLE stream"}
		}
		defer zr.Close()
		inflated, err := io.ReadAll(zr)
		if err != nil {
			return nil, &ErrMalformed{Reason: "bad CSW Z-RLE stream"}
		}
		pulseStream = inflated
	}

	var pulses []int
	for i := 0; i < len(pulseStream); {
		n := int(pulseStream[i])
		i++
		if n != 0 {
			pulses = append(pulses, n*tstatesPerSample)
			continue
		}
		if i+4 > len(pulseStream) {
			break
		}
		raw := int(pulseStream[i]) | int(pulseStream[i+1])<<8 | int(pulseStream[i+2])<<16 | int(pulseStream[i+3])<<24
		i += 4
		pulses = append(pulses, raw*tstatesPerSample)
	}
	return &Block{Kind: KindPulseSequence, Pulses: pulses}, nil
}

// readGDB parses a Generalized Data Block (ID 0x19): a symbol table for
// the pilot/sync run followed by one for the data stream, then the
// symbol-indexed data itself.
func readGDB(r *byteReader) (*Block, error) {
	r.u32() // block length, recomputed implicitly by the reads below
	pause := int(r.u16()) * 3500
	totp := int(r.u32())
	npp := int(r.u8())
	asp := int(r.u8())
	if asp == 0 {
		asp = 256
	}
	totd := int(r.u32())
	npd := int(r.u8())
	asd := int(r.u8())
	if asd == 0 {
		asd = 256
	}

	readSymbolTable(r, asp, npp) // pilot/sync symbol definitions; playback uses the data table below
	for i := 0; i < totp; i++ {
		r.u8()
		r.u16()
	}

	dataSymbols := readSymbolTable(r, asd, npd)
	bits := bitsForAlphabet(asd)
	dataBytes := (totd*bits + 7) / 8
	data := r.bytes(dataBytes)

	return &Block{
		Kind: KindGeneralized, Symbols: dataSymbols, SymbolBits: bits,
		SymbolData: data, PauseAfter: pause,
	}, nil
}

func bitsForAlphabet(n int) int {
	bits := 0
	for (1 << uint(bits)) < n {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

func readSymbolTable(r *byteReader, alphabetSize, maxPulses int) []symbolDef {
	table := make([]symbolDef, alphabetSize)
	for i := range table {
		flags := r.u8()
		pulses := make([]int, maxPulses)
		for j := range pulses {
			pulses[j] = int(r.u16())
		}
		table[i] = symbolDef{polarityFlip: flags&0x02 != 0, pulses: pulses}
	}
	return table
}

// byteReader is a minimal forward-only cursor over a TZX byte stream.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) remaining() int { return len(r.buf) - r.pos }

func (r *byteReader) u8() byte {
	if r.pos >= len(r.buf) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *byteReader) u16() uint16 {
	return uint16(r.u8()) | uint16(r.u8())<<8
}

func (r *byteReader) u24() uint32 {
	return uint32(r.u8()) | uint32(r.u8())<<8 | uint32(r.u8())<<16
}

func (r *byteReader) u32() uint32 {
	return uint32(r.u8()) | uint32(r.u8())<<8 | uint32(r.u8())<<16 | uint32(r.u8())<<24
}

func (r *byteReader) bytes(n int) []byte {
	if n < 0 || r.pos+n > len(r.buf) {
		n = r.remaining()
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v
}
