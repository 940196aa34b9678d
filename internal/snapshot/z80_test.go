package snapshot

import (
	"testing"

	"github.com/zxspectrum/core/internal/memory"
)

func TestZ80RoundTrip48K(t *testing.T) {
	src := newTarget(false)
	src.CPU.SetBC(0x1122)
	src.CPU.SetHL(0x3344)
	src.CPU.PC = 0x6000
	src.CPU.IFF1, src.CPU.IFF2 = true, true
	src.CPU.IM = 2
	src.Video.SetBorder(2)
	var page [memory.PageSize]byte
	for i := range page[:16] {
		page[i] = byte(i)
	}
	page[100] = 0xED // must survive the RLE escape byte unscathed
	page[101] = 0xED
	src.Memory.LoadRAMPage(5, page[:])

	data := SaveZ80(src)

	dst := newTarget(false)
	if err := LoadZ80(data, dst); err != nil {
		t.Fatalf("LoadZ80: %v", err)
	}
	if dst.CPU.BC() != 0x1122 || dst.CPU.HL() != 0x3344 {
		t.Fatalf("register mismatch: BC=%#04x HL=%#04x", dst.CPU.BC(), dst.CPU.HL())
	}
	if dst.CPU.PC != 0x6000 {
		t.Fatalf("PC: want 0x6000, got %#04x", dst.CPU.PC)
	}
	if !dst.CPU.IFF1 || !dst.CPU.IFF2 {
		t.Fatalf("IFF1/IFF2 should both be restored set")
	}
	if dst.CPU.IM != 2 {
		t.Fatalf("IM: want 2, got %d", dst.CPU.IM)
	}
	if dst.Video.Border() != 2 {
		t.Fatalf("border: want 2, got %d", dst.Video.Border())
	}
	got := dst.Memory.RAMPage(5)
	for i := range page[:16] {
		if got[i] != page[i] {
			t.Fatalf("RAM page 5 byte %d: want %#02x, got %#02x", i, page[i], got[i])
		}
	}
	if got[100] != 0xED || got[101] != 0xED {
		t.Fatalf("literal 0xED bytes were not preserved through RLE round-trip")
	}
}

func TestZ80RoundTrip128K(t *testing.T) {
	src := newTarget(true)
	src.CPU.PC = 0x9000
	src.Memory.WritePagingPort(0x06) // bank 6 into slot 3
	var page [memory.PageSize]byte
	page[0] = 0x42
	src.Memory.LoadRAMPage(6, page[:])

	data := SaveZ80(src)

	dst := newTarget(true)
	if err := LoadZ80(data, dst); err != nil {
		t.Fatalf("LoadZ80: %v", err)
	}
	if dst.CPU.PC != 0x9000 {
		t.Fatalf("PC: want 0x9000, got %#04x", dst.CPU.PC)
	}
	if dst.Memory.BankLatch() != 6 {
		t.Fatalf("bank latch: want 6, got %d", dst.Memory.BankLatch())
	}
	if dst.Memory.RAMPage(6)[0] != 0x42 {
		t.Fatalf("RAM page 6 byte 0: want 0x42, got %#02x", dst.Memory.RAMPage(6)[0])
	}
}

func TestDecompressRLEHandlesLiteralEDPair(t *testing.T) {
	src := compressRLE([]byte{1, 2, 3, 0xED, 0xED, 4})
	var dst [6]byte
	decompressRLE(src, dst[:])
	want := []byte{1, 2, 3, 0xED, 0xED, 4}
	for i, b := range want {
		if dst[i] != b {
			t.Fatalf("byte %d: want %#02x, got %#02x", i, b, dst[i])
		}
	}
}

func TestCompressRLERunsLongRepeats(t *testing.T) {
	src := make([]byte, 10)
	for i := range src {
		src[i] = 0x99
	}
	compressed := compressRLE(src)
	if len(compressed) != 4 {
		t.Fatalf("want a single 4-byte escape for a 10-byte run, got %d bytes", len(compressed))
	}
}

func TestLoadZ80RejectsUnknownVersion(t *testing.T) {
	data := make([]byte, 40)
	putLE16(data[30:], 999)
	if _, ok := z80MachineIs128(2, 0); !ok {
		t.Fatalf("sanity check: 48K v2 machine code should be recognised")
	}
	if err := LoadZ80(data, newTarget(false)); err == nil {
		t.Fatalf("expected an error for an unrecognised additional-header length")
	}
}
