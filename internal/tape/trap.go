package tape

import "github.com/zxspectrum/core/internal/z80"

// ROM tape-routine entry points: LD-BYTES (loading/verifying a block),
// where the flashload trap fires, and SA-BYTES (saving one), which it
// does not intercept. Both are
// identical across every 48K/128K ROM variant that carries the
// standard tape routines.
const (
	LoadTrapPC = 0x056B
	SaveTrapPC = 0x04D4
)

// FlashLoader implements z80.TapeTrap: when the CPU reaches LD-BYTES
// and the mounted tape has a block left to read, whether or not the
// tape is playing, it splices the current block's bytes
// directly into memory and synthesizes the routine's register/flag
// results, skipping edge-accurate pilot/sync/bit playback entirely.
// Saving (SA-BYTES) is not accelerated: there is nothing to skip past
// since there's no tape image to append to during emulation.
type FlashLoader struct {
	player *Player
}

// NewFlashLoader wraps player for fast loading.
func NewFlashLoader(player *Player) *FlashLoader { return &FlashLoader{player: player} }

// HandleTrap is called on every instruction boundary; it only acts when
// pc is the LD-BYTES entry point and a block is available.
func (f *FlashLoader) HandleTrap(pc uint16, cpu *z80.CPU) bool {
	if pc != LoadTrapPC {
		return false
	}
	block, ok := f.player.CurrentBlock()
	if !ok || len(block.Data) == 0 {
		return false
	}
	f.loadBlock(cpu, block)
	f.player.index++
	f.player.phase = phaseIdle
	return true
}

// loadBlock reproduces LD-BYTES' contract: A holds the expected flag
// byte, carry (on entry) distinguishes LOAD from VERIFY, IX is the
// destination address and DE the requested length. It returns with
// carry set on success (flag matched and checksum verified) or clear
// otherwise, and jumps to the caller's return address exactly as RET
// would, since this trap fully replaces the routine body.
func (f *FlashLoader) loadBlock(cpu *z80.CPU, block Block) {
	af := cpu.AF()
	expectedFlag := byte(af >> 8)
	verifying := af&0x01 == 0 // carry clear => VERIFY, set => LOAD

	data := block.Data
	gotFlag := data[0]
	body := data[1:]
	if len(body) > 0 {
		body = body[:len(body)-1] // drop trailing checksum byte
	}

	success := gotFlag == expectedFlag

	dest := cpu.IX
	length := cpu.DE()
	if success && !verifying {
		n := int(length)
		if n > len(body) {
			n = len(body)
		}
		for i := 0; i < n; i++ {
			cpu.WriteByte(dest+uint16(i), body[i])
		}
	} else if success {
		n := int(length)
		if n > len(body) {
			n = len(body)
		}
		for i := 0; i < n; i++ {
			if cpu.ReadByte(dest+uint16(i)) != body[i] {
				success = false
				break
			}
		}
	}

	checksum := gotFlag
	for _, b := range body {
		checksum ^= b
	}
	if checksum != data[len(data)-1] {
		success = false
	}

	newF := byte(0)
	if success {
		newF = 0x01 // carry
	}
	cpu.SetAF(uint16(gotFlag)<<8 | uint16(newF))
	cpu.H = gotFlag // LD-BYTES leaves the header/data type byte in H
	cpu.IX = dest + length
	cpu.SetDE(0)

	retLo := cpu.ReadByte(cpu.SP)
	retHi := cpu.ReadByte(cpu.SP + 1)
	cpu.SP += 2
	cpu.PC = uint16(retHi)<<8 | uint16(retLo)
}
