package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/zxspectrum/core/internal/machine"
)

// stdinHost reads raw, non-blocking stdin bytes and turns them into
// Spectrum keystrokes, for running a machine with no display attached
// (scripted snapshot/tape regression runs, CI smoke tests).
type stdinHost struct {
	fd           int
	oldState     *term.State
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	keyCh        chan byte
}

func newStdinHost() *stdinHost {
	return &stdinHost{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		keyCh:  make(chan byte, 64),
	}
}

func (h *stdinHost) start() error {
	h.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("headless: failed to set raw mode: %w", err)
	}
	h.oldState = oldState
	if err := syscall.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.oldState)
		close(h.done)
		return fmt.Errorf("headless: failed to set nonblocking stdin: %w", err)
	}

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-h.stopCh:
				return
			default:
			}
			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				b := buf[0]
				if b == '\r' {
					b = '\n'
				}
				if b == 0x7F {
					b = 0x08
				}
				if b == 0x03 { // Ctrl-C
					h.stopped.Do(func() { close(h.stopCh) })
					return
				}
				select {
				case h.keyCh <- b:
				default:
				}
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

func (h *stdinHost) stop() {
	h.stopped.Do(func() { close(h.stopCh) })
	<-h.done
	_ = syscall.SetNonblock(h.fd, false)
	if h.oldState != nil {
		_ = term.Restore(h.fd, h.oldState)
	}
}

// runHeadless drives mach in real time with no video backend: keyboard
// comes from raw stdin, translated through the same runeKeymap the
// windowed frontend's clipboard paste uses, and a one-line status
// report prints once a second.
func runHeadless(mach *machine.Machine) error {
	host := newStdinHost()
	if err := host.start(); err != nil {
		return err
	}
	defer host.stop()

	fmt.Fprintln(os.Stderr, "zxemu: headless mode, Ctrl-C to quit")

	frameInterval := time.Second / 50
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	statusEvery := 50
	frames := 0

	var held *pastedKey
	heldTicks := 0

	for {
		select {
		case <-host.stopCh:
			return nil
		case b := <-host.keyCh:
			if pk, ok := runeKeymap[rune(b)]; ok {
				held = &pk
				heldTicks = 0
			}
		case <-ticker.C:
			if held != nil {
				heldTicks++
				if heldTicks > pasteHoldFrames {
					held = nil
				}
			}
			rows := rowMask(nil, held)
			for row, mask := range rows {
				mach.SetKeyRow(row, mask)
			}
			mach.RunFrame()
			mach.ConsumeAudio() // drained but not played in headless mode

			frames++
			if frames%statusEvery == 0 {
				fmt.Fprintf(os.Stderr, "frame %d  PC=%04X\n", frames, mach.CPU.PC)
			}
		}
	}
}
