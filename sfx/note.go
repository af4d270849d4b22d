/*
Package sfx implements the packed sound note and the sound effect built from a
sequence of them.

A note is 16 bits wide:

	bits  0-5   pitch, offset from PitchOffset
	bits  6-8   waveform
	bits  9-11  volume, 0 to 7
	bits 12-14  effect
	bit  15     custom instrument

Sound effects are stored either as one line of hex digits in a text cartridge
or as a 68 byte record in cartridge memory. Both decode to the same Sfx.
*/
package sfx

import (
	"fmt"
	"math"

	"github.com/bodgit/picocart/fault"
)

const (
	// PitchOffset is added to the stored pitch to give a MIDI note number
	PitchOffset = 35

	// MaxPitch is the highest storable pitch
	MaxPitch = 0x3f

	// MaxVolume is the loudest volume
	MaxVolume = 7

	maxEffect = 7
	maxWave   = 7

	customBit = 1 << 15
)

// Wave identifies one of the built-in oscillators.
type Wave uint8

// The built-in waveforms in note order.
const (
	Triangle Wave = iota
	TiltedSaw
	Saw
	Square
	Pulse
	Organ
	Noise
	Phaser
)

var waveNames = [...]string{"triangle", "tilted saw", "saw", "square", "pulse", "organ", "noise", "phaser"}

func (w Wave) String() string {
	if w > maxWave {
		return fmt.Sprintf("wave(%d)", uint8(w))
	}
	return waveNames[w]
}

// Effect identifies the per-note effect. Effects are decoded and preserved
// but the synthesizer does not apply them.
type Effect uint8

// The note effects.
const (
	NoEffect Effect = iota
	Slide
	Vibrato
	Drop
	FadeIn
	FadeOut
	ArpeggioFast
	ArpeggioSlow
)

var effectNames = [...]string{"none", "slide", "vibrato", "drop", "fade in", "fade out", "arpeggio fast", "arpeggio slow"}

func (e Effect) String() string {
	if e > maxEffect {
		return fmt.Sprintf("effect(%d)", uint8(e))
	}
	return effectNames[e]
}

// Note is a packed pitch, waveform, volume and effect.
type Note uint16

// NewNote packs the fields into a Note. Fields that don't fit their bit width
// are an error.
func NewNote(pitch uint8, wave Wave, volume uint8, effect Effect) (Note, error) {
	switch {
	case pitch > MaxPitch:
		return 0, fmt.Errorf("%w: pitch %d", fault.ErrUnsupportedEncoding, pitch)
	case wave > maxWave:
		return 0, fmt.Errorf("%w: waveform %d", fault.ErrUnsupportedEncoding, wave)
	case volume > MaxVolume:
		return 0, fmt.Errorf("%w: volume %d", fault.ErrUnsupportedEncoding, volume)
	case effect > maxEffect:
		return 0, fmt.Errorf("%w: effect %d", fault.ErrUnsupportedEncoding, effect)
	}
	return Note(uint16(pitch) | uint16(wave)<<6 | uint16(volume)<<9 | uint16(effect)<<12), nil
}

// RawPitch returns the stored 6 bit pitch.
func (n Note) RawPitch() uint8 { return uint8(n & 0x3f) }

// Pitch returns the MIDI note number.
func (n Note) Pitch() int { return int(n.RawPitch()) + PitchOffset }

// Wave returns the waveform.
func (n Note) Wave() Wave { return Wave(n >> 6 & 0x7) }

// Volume returns the stored volume, 0 to 7.
func (n Note) Volume() uint8 { return uint8(n >> 9 & 0x7) }

// Level returns the volume normalised to [0, 1].
func (n Note) Level() float64 { return float64(n.Volume()) / MaxVolume }

// Effect returns the effect.
func (n Note) Effect() Effect { return Effect(n >> 12 & 0x7) }

// Custom reports whether the waveform field selects a custom instrument
// rather than a built-in oscillator.
func (n Note) Custom() bool { return n&customBit != 0 }

// WithCustom returns n with the custom instrument flag changed.
func (n Note) WithCustom(custom bool) Note {
	if custom {
		return n | customBit
	}
	return n &^ customBit
}

// Frequency returns the note frequency in Hz, A4 being 440.
func (n Note) Frequency() float64 {
	return 440 * math.Exp2(float64(n.Pitch()-69)/12)
}

func (n Note) String() string {
	return fmt.Sprintf("pitch %d %v volume %d effect %v", n.Pitch(), n.Wave(), n.Volume(), n.Effect())
}
