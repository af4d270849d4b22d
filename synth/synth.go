/*
Package synth turns a sound effect into mono PCM samples.

A Player is a pull iterator: each call to Next or Read returns samples from a
buffer holding the current note, which is rendered in one pass when playback
reaches it. When the buffer is exhausted the player moves to the next note,
following the loop rules of the sound effect.
*/
package synth

import (
	"math/rand"

	"github.com/bodgit/picocart/sfx"
)

const (
	// DefaultSampleRate is the output rate used when none is configured
	DefaultSampleRate = 22050

	// DefaultTempo is the number of speed units per second
	DefaultTempo = 120
)

// Options configures a Player. The zero value is usable.
type Options struct {
	SampleRate int
	Tempo      float64
	Seed       int64
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Tempo <= 0 {
		o.Tempo = DefaultTempo
	}
	return o
}

// NoteLength returns the number of samples each note of s lasts.
func NoteLength(s *sfx.Sfx, opts Options) int {
	opts = opts.withDefaults()
	n := int(float64(s.TicksPerNote()) / opts.Tempo * float64(opts.SampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

// Player produces samples for one sound effect.
type Player struct {
	s     *sfx.Sfx
	opts  Options
	index int
	done  bool

	buf []float32
	pos int

	phase float64
	voice voice
}

// New returns a Player positioned at the first note of s.
func New(s *sfx.Sfx, opts Options) *Player {
	opts = opts.withDefaults()
	p := &Player{
		s:    s,
		opts: opts,
		voice: voice{
			rng: rand.New(rand.NewSource(opts.Seed)),
		},
	}
	if s == nil || len(s.Notes) == 0 {
		p.done = true
	}
	return p
}

// Silence returns a Player that produces nothing.
func Silence() *Player {
	return New(nil, Options{})
}

// SampleRate returns the output rate.
func (p *Player) SampleRate() int {
	return p.opts.SampleRate
}

// Done reports whether playback has run off the end of the sound effect.
// A sound effect with an unreleased loop is never done.
func (p *Player) Done() bool {
	return p.done
}

// Note returns the index of the note currently playing.
func (p *Player) Note() int {
	return p.index
}

func (p *Player) render() {
	n := p.s.Notes[p.index]
	length := NoteLength(p.s, p.opts)
	if cap(p.buf) < length {
		p.buf = make([]float32, length)
	}
	p.buf = p.buf[:length]

	step := n.Frequency() / float64(p.opts.SampleRate)
	level := n.Level()
	wave := n.Wave()
	for i := range p.buf {
		p.buf[i] = float32(p.voice.sample(wave, p.phase) * level)
		p.phase = frac(p.phase + step)
	}
	p.pos = 0
}

func (p *Player) advance() {
	if l := p.s.Loop; l != nil && p.index == l.End && l.Wraps() {
		p.index = l.Start
	} else {
		p.index++
	}
	if p.index >= len(p.s.Notes) {
		p.done = true
	}
}

// Next returns the next sample. The second value is false once playback has
// finished.
func (p *Player) Next() (float32, bool) {
	if p.done {
		return 0, false
	}
	if p.buf == nil {
		p.render()
	}
	if p.pos == len(p.buf) {
		p.advance()
		if p.done {
			return 0, false
		}
		p.render()
	}
	v := p.buf[p.pos]
	p.pos++
	return v, true
}

// Read fills out with samples and returns how many were written. It only
// returns fewer than len(out) when playback finishes.
func (p *Player) Read(out []float32) int {
	for i := range out {
		v, ok := p.Next()
		if !ok {
			return i
		}
		out[i] = v
	}
	return len(out)
}
