package main

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// pcmStream is the io.Reader ebiten's audio.Player pulls from; feed
// appends newly rendered frames and Read drains them, padding with
// silence on an underrun rather than blocking the audio callback.
type pcmStream struct {
	mu  sync.Mutex
	buf []byte
}

func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (s *pcmStream) write(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, b...)
	// Cap the backlog so a paused/minimised window doesn't let this
	// grow without bound; a couple of frames of latency is inaudible.
	const maxBacklog = 1 << 16
	if len(s.buf) > maxBacklog {
		s.buf = s.buf[len(s.buf)-maxBacklog:]
	}
}

// audioPlayer turns Machine.ConsumeAudio's mono 16-bit samples into the
// stereo PCM stream ebiten's audio.Context expects.
type audioPlayer struct {
	stream *pcmStream
	player *audio.Player
}

func newAudioPlayer(sampleRate int) (*audioPlayer, error) {
	ctx := audio.NewContext(sampleRate)
	stream := &pcmStream{}
	p, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, err
	}
	p.Play()
	return &audioPlayer{stream: stream, player: p}, nil
}

// feed converts one frame's mono samples to interleaved little-endian
// stereo bytes and appends them to the player's backing stream.
func (a *audioPlayer) feed(samples []int16) {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		lo, hi := byte(s), byte(s>>8)
		o := i * 4
		out[o], out[o+1] = lo, hi
		out[o+2], out[o+3] = lo, hi
	}
	a.stream.write(out)
}
