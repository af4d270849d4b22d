package main

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/bodgit/picocart/synth"
	"github.com/ebitengine/oto/v3"
)

const bytesPerSample = 4

// pcmReader adapts a synth.Player to the float32 little endian byte stream
// the audio device pulls from.
type pcmReader struct {
	p       *synth.Player
	limit   int
	written int
	buf     []float32
}

func (r *pcmReader) Read(b []byte) (int, error) {
	want := len(b) / bytesPerSample
	if r.limit > 0 && r.limit-r.written < want {
		want = r.limit - r.written
	}
	if want == 0 {
		return 0, io.EOF
	}

	if cap(r.buf) < want {
		r.buf = make([]float32, want)
	}
	n := r.p.Read(r.buf[:want])
	if n == 0 {
		return 0, io.EOF
	}

	for i, s := range r.buf[:n] {
		binary.LittleEndian.PutUint32(b[i*bytesPerSample:], math.Float32bits(s))
	}
	r.written += n
	return n * bytesPerSample, nil
}

func play(p *synth.Player, limit int) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   p.SampleRate(),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	player := ctx.NewPlayer(&pcmReader{p: p, limit: limit})
	defer player.Close()

	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	return player.Err()
}
