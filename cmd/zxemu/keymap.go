package main

import "github.com/hajimehoshi/ebiten/v2"

// The ZX Spectrum keyboard is eight half-rows of five keys, each row
// selected by clearing one bit of the port 0xFE address's high byte;
// a clear bit in the row's returned byte means the corresponding key
// is held. capsShiftRow/capsShiftBit and symShiftRow/symShiftBit name
// the two modifier keys' own positions in that same matrix, since on
// real hardware they are keys like any other.
const (
	capsShiftRow, capsShiftBit = 0, 0
	symShiftRow, symShiftBit   = 7, 1
)

// matrixKey names one physical key's row and bit within Ports.SetKeyRow.
type matrixKey struct {
	row int
	bit uint
}

// hostKeymap maps ebiten key codes for the alphanumeric matrix to their
// Spectrum position. Function keys, modifiers handled separately, and
// anything not on a real 40-key Spectrum keyboard are left unmapped.
var hostKeymap = map[ebiten.Key]matrixKey{
	ebiten.KeyZ: {0, 1}, ebiten.KeyX: {0, 2}, ebiten.KeyC: {0, 3}, ebiten.KeyV: {0, 4},
	ebiten.KeyA: {1, 0}, ebiten.KeyS: {1, 1}, ebiten.KeyD: {1, 2}, ebiten.KeyF: {1, 3}, ebiten.KeyG: {1, 4},
	ebiten.KeyQ: {2, 0}, ebiten.KeyW: {2, 1}, ebiten.KeyE: {2, 2}, ebiten.KeyR: {2, 3}, ebiten.KeyT: {2, 4},
	ebiten.Key1: {3, 0}, ebiten.Key2: {3, 1}, ebiten.Key3: {3, 2}, ebiten.Key4: {3, 3}, ebiten.Key5: {3, 4},
	ebiten.Key0: {4, 0}, ebiten.Key9: {4, 1}, ebiten.Key8: {4, 2}, ebiten.Key7: {4, 3}, ebiten.Key6: {4, 4},
	ebiten.KeyP: {5, 0}, ebiten.KeyO: {5, 1}, ebiten.KeyI: {5, 2}, ebiten.KeyU: {5, 3}, ebiten.KeyY: {5, 4},
	ebiten.KeyEnter: {6, 0}, ebiten.KeyL: {6, 1}, ebiten.KeyK: {6, 2}, ebiten.KeyJ: {6, 3}, ebiten.KeyH: {6, 4},
	ebiten.KeySpace: {7, 0}, ebiten.KeyM: {7, 2}, ebiten.KeyN: {7, 3}, ebiten.KeyB: {7, 4},
}

// pastedKey is the matrix state needed to type one character: the main
// key plus whichever shift(s) must be held with it. Letters need no
// shift for lower case on a Spectrum (there is no case; CAPS SHIFT
// selects the alternate graphics/control meaning of a key instead), so
// this table only holds what "typing the character" actually requires.
type pastedKey struct {
	key            matrixKey
	caps, sym bool
}

// runeKeymap covers the character set a BASIC listing normally pastes:
// letters, digits, space, newline, and the symbol-shifted punctuation
// printed on the 128K keyboard's number row and a few dedicated keys.
var runeKeymap = buildRuneKeymap()

func buildRuneKeymap() map[rune]pastedKey {
	m := make(map[rune]pastedKey, 64)
	letterKeys := []struct {
		r rune
		k ebiten.Key
	}{
		{'a', ebiten.KeyA}, {'b', ebiten.KeyB}, {'c', ebiten.KeyC}, {'d', ebiten.KeyD},
		{'e', ebiten.KeyE}, {'f', ebiten.KeyF}, {'g', ebiten.KeyG}, {'h', ebiten.KeyH},
		{'i', ebiten.KeyI}, {'j', ebiten.KeyJ}, {'k', ebiten.KeyK}, {'l', ebiten.KeyL},
		{'m', ebiten.KeyM}, {'n', ebiten.KeyN}, {'o', ebiten.KeyO}, {'p', ebiten.KeyP},
		{'q', ebiten.KeyQ}, {'r', ebiten.KeyR}, {'s', ebiten.KeyS}, {'t', ebiten.KeyT},
		{'u', ebiten.KeyU}, {'v', ebiten.KeyV}, {'w', ebiten.KeyW}, {'x', ebiten.KeyX},
		{'y', ebiten.KeyY}, {'z', ebiten.KeyZ},
	}
	for _, lk := range letterKeys {
		k := hostKeymap[lk.k]
		m[lk.r] = pastedKey{key: k}
		m[lk.r-32] = pastedKey{key: k, caps: true} // uppercase -> CAPS SHIFT
	}
	digitKeys := []ebiten.Key{ebiten.Key0, ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5, ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9}
	for i, ek := range digitKeys {
		m[rune('0'+i)] = pastedKey{key: hostKeymap[ek]}
	}
	m[' '] = pastedKey{key: hostKeymap[ebiten.KeySpace]}
	m['\n'] = pastedKey{key: hostKeymap[ebiten.KeyEnter]}
	m['\r'] = pastedKey{key: hostKeymap[ebiten.KeyEnter]}

	symShifted := map[rune]ebiten.Key{
		'!': ebiten.Key1, '@': ebiten.Key2, '#': ebiten.Key3, '$': ebiten.Key4, '%': ebiten.Key5,
		'&': ebiten.Key6, '\'': ebiten.Key7, '(': ebiten.Key8, ')': ebiten.Key9, '_': ebiten.Key0,
		':': ebiten.KeyZ, ';': ebiten.KeyO, '"': ebiten.KeyP, ',': ebiten.KeyN, '.': ebiten.KeyM,
		'-': ebiten.KeyJ, '+': ebiten.KeyK, '=': ebiten.KeyL, '/': ebiten.KeyV, '*': ebiten.KeyB,
	}
	for r, ek := range symShifted {
		m[r] = pastedKey{key: hostKeymap[ek], sym: true}
	}
	return m
}

// rowMask folds the currently-pressed host keys plus any in-progress
// paste keystroke into the eight Spectrum row masks, one bit per key,
// matching the active-low convention Ports.ReadPort expects.
func rowMask(pressed []ebiten.Key, paste *pastedKey) [8]byte {
	var rows [8]byte
	for i := range rows {
		rows[i] = 0xFF
	}
	press := func(k matrixKey) { rows[k.row] &^= 1 << k.bit }

	for _, ek := range pressed {
		if k, ok := hostKeymap[ek]; ok {
			press(k)
		}
	}
	if isCapsHeld(pressed) {
		press(matrixKey{capsShiftRow, capsShiftBit})
	}
	if isSymHeld(pressed) {
		press(matrixKey{symShiftRow, symShiftBit})
	}
	if paste != nil {
		press(paste.key)
		if paste.caps {
			press(matrixKey{capsShiftRow, capsShiftBit})
		}
		if paste.sym {
			press(matrixKey{symShiftRow, symShiftBit})
		}
	}
	return rows
}

func isCapsHeld(pressed []ebiten.Key) bool {
	for _, k := range pressed {
		if k == ebiten.KeyShiftLeft || k == ebiten.KeyShiftRight {
			return true
		}
	}
	return false
}

func isSymHeld(pressed []ebiten.Key) bool {
	for _, k := range pressed {
		if k == ebiten.KeyControlLeft || k == ebiten.KeyControlRight || k == ebiten.KeyAltLeft {
			return true
		}
	}
	return false
}
