package tape

// TAP is the plain block-only tape format: a flat sequence of
// [length_lo length_hi][flag][...data...][checksum] records, each
// replayed with the canonical standard-speed pilot/sync/bit timings.
type TAP struct {
	blocks []Block
}

// ReadTAP parses a complete TAP file image.
func ReadTAP(data []byte) (*TAP, error) {
	t := &TAP{}
	pos := 0
	for pos+2 <= len(data) {
		length := int(data[pos]) | int(data[pos+1])<<8
		pos += 2
		if length == 0 || pos+length > len(data) {
			return nil, &ErrMalformed{Reason: "truncated TAP block"}
		}
		body := data[pos : pos+length]
		pos += length

		pilot := DataPulses
		if len(body) > 0 && body[0] < 0x80 {
			pilot = HeaderPulses
		}
		t.blocks = append(t.blocks, Block{
			Data:         body,
			Kind:         KindStandard,
			PilotPulses:  pilot,
			PilotLen:     PilotLen,
			Sync1Len:     Sync1Len,
			Sync2Len:     Sync2Len,
			Bit0Len:      Bit0PulseLen,
			Bit1Len:      Bit1PulseLen,
			UsedBitsLast: 8,
			PauseAfter:   defaultPauseT,
		})
	}
	return t, nil
}

func (t *TAP) Blocks() []Block { return t.blocks }
