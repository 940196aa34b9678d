// Command zxemu is a desktop frontend for the Spectrum-family core in
// internal/machine: ebiten for display, input and audio, or a raw
// stdin loop in -headless mode for running without a window.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zxspectrum/core/internal/machine"
	"github.com/zxspectrum/core/internal/tape"
)

const defaultSampleRate = 44100

// romFlags collects repeated -rom flags in the order given, one image
// per memory page (page 0 first).
type romFlags []string

func (r *romFlags) String() string { return strings.Join(*r, ",") }
func (r *romFlags) Set(v string) error {
	*r = append(*r, v)
	return nil
}

var regionNames = map[string]machine.Type{
	"48k": machine.Type48K, "128k": machine.Type128K,
	"+2": machine.TypePlus2, "+2a": machine.TypePlus2A, "+3": machine.TypePlus3,
	"pentagon": machine.TypePentagon, "tk90x": machine.TypeTK90X, "tk95": machine.TypeTK95,
}

func main() {
	var roms romFlags
	flag.Var(&roms, "rom", "ROM image for one memory page (repeat in page order)")
	region := flag.String("region", "48k", "machine variant: 48k, 128k, +2, +2a, +3, pentagon, tk90x, tk95")
	tapePath := flag.String("tape", "", "TAP or TZX tape image to mount")
	snapPath := flag.String("snapshot", "", "SNA or Z80 snapshot to load at startup")
	headless := flag.Bool("headless", false, "run with no display, raw stdin keyboard only")
	scale := flag.Int("scale", 2, "window scale factor")
	flag.Parse()

	rt, ok := regionNames[strings.ToLower(*region)]
	if !ok {
		fmt.Fprintf(os.Stderr, "zxemu: unknown region %q\n", *region)
		os.Exit(1)
	}
	reg := machine.Regions[rt]

	romImages, err := loadROMs([]string(roms), reg.ROMPages)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zxemu: %v\n", err)
		os.Exit(1)
	}

	mach := machine.New(reg, romImages, defaultSampleRate)
	mach.Reset()

	if *tapePath != "" {
		if err := mountTape(mach, *tapePath); err != nil {
			fmt.Fprintf(os.Stderr, "zxemu: %v\n", err)
			os.Exit(1)
		}
	}
	if *snapPath != "" {
		if err := loadSnapshot(mach, *snapPath); err != nil {
			fmt.Fprintf(os.Stderr, "zxemu: %v\n", err)
			os.Exit(1)
		}
	}

	if *headless {
		if err := runHeadless(mach); err != nil {
			fmt.Fprintf(os.Stderr, "zxemu: %v\n", err)
			os.Exit(1)
		}
		return
	}

	snd, err := newAudioPlayer(defaultSampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zxemu: audio disabled: %v\n", err)
	}

	game := newGame(mach, snd)

	w, h := 320*(*scale), 256*(*scale)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(fmt.Sprintf("zxemu - %s", reg.Type))
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(game); err != nil {
		fmt.Fprintf(os.Stderr, "zxemu: %v\n", err)
		os.Exit(1)
	}
}

func loadROMs(paths []string, pages int) ([][]byte, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one -rom image is required (region needs %d page(s))", pages)
	}
	out := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading ROM %q: %w", p, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func mountTape(mach *machine.Machine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading tape %q: %w", path, err)
	}
	var fmtImage tape.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tzx":
		fmtImage, err = tape.ReadTZX(data)
	default:
		fmtImage, err = tape.ReadTAP(data)
	}
	if err != nil {
		return fmt.Errorf("parsing tape %q: %w", path, err)
	}
	mach.MountTape(fmtImage)
	return nil
}

func loadSnapshot(mach *machine.Machine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".z80":
		return mach.LoadZ80(data)
	case ".sna":
		return mach.LoadSNA(data)
	default:
		return fmt.Errorf("unrecognised snapshot extension for %q", path)
	}
}
