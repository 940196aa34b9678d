package tape

import "testing"

func buildTAPBlock(flag byte, payload []byte) []byte {
	body := append([]byte{flag}, payload...)
	checksum := byte(0)
	for _, b := range body {
		checksum ^= b
	}
	body = append(body, checksum)
	length := len(body)
	return append([]byte{byte(length), byte(length >> 8)}, body...)
}

func TestReadTAPSingleBlock(t *testing.T) {
	raw := buildTAPBlock(0x00, []byte("HELLO"))
	tap, err := ReadTAP(raw)
	if err != nil {
		t.Fatalf("ReadTAP: %v", err)
	}
	blocks := tap.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(blocks))
	}
	if blocks[0].PilotPulses != HeaderPulses {
		t.Fatalf("header block should use the long pilot run, got %d pulses", blocks[0].PilotPulses)
	}
}

func TestReadTAPDataBlockUsesShortPilot(t *testing.T) {
	raw := buildTAPBlock(0xFF, []byte{1, 2, 3})
	tap, _ := ReadTAP(raw)
	if tap.Blocks()[0].PilotPulses != DataPulses {
		t.Fatalf("data block should use the short pilot run")
	}
}

func TestReadTAPTruncatedBlockErrors(t *testing.T) {
	raw := []byte{0x10, 0x00, 0x01, 0x02} // claims 16 bytes, only 2 present
	if _, err := ReadTAP(raw); err == nil {
		t.Fatalf("truncated TAP block should error")
	}
}

func TestReadTAPMultipleBlocks(t *testing.T) {
	var raw []byte
	raw = append(raw, buildTAPBlock(0x00, []byte("ONE"))...)
	raw = append(raw, buildTAPBlock(0xFF, []byte("TWO"))...)
	tap, err := ReadTAP(raw)
	if err != nil {
		t.Fatalf("ReadTAP: %v", err)
	}
	if len(tap.Blocks()) != 2 {
		t.Fatalf("want 2 blocks, got %d", len(tap.Blocks()))
	}
}
