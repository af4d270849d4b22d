package synth

import (
	"math"
	"math/rand"

	"github.com/bodgit/picocart/sfx"
)

const (
	tiltKnee  = 0.9
	pulseDuty = 0.375
	noisePace = 0.1
)

func frac(x float64) float64 {
	return x - math.Floor(x)
}

func triangle(p float64) float64 {
	return 1 - 4*math.Abs(p-0.5)
}

func tiltedSaw(p float64) float64 {
	if p < tiltKnee {
		return -1 + 2*p/tiltKnee
	}
	return 1 - 2*(p-tiltKnee)/(1-tiltKnee)
}

func saw(p float64) float64 {
	return 2*p - 1
}

func square(p float64) float64 {
	if p < 0.5 {
		return 1
	}
	return -1
}

func pulse(p float64) float64 {
	if p < pulseDuty {
		return 1
	}
	return -1
}

// organ is a major triangle over the first half cycle followed by a minor
// one a third of its height, both rising out of the same trough.
func organ(p float64) float64 {
	if p < 0.5 {
		return 1 - math.Abs(8*p-2)
	}
	return (1 - math.Abs(16*p-12)) / 3
}

func phaser(p float64) float64 {
	return math.Sin(2 * math.Pi * p)
}

// voice carries the only oscillator state that isn't a function of phase,
// the position of the noise random walk.
type voice struct {
	rng  *rand.Rand
	walk float64
}

func (v *voice) noise() float64 {
	v.walk += (v.rng.Float64()*2 - 1) * noisePace
	switch {
	case v.walk > 1:
		v.walk = 1
	case v.walk < -1:
		v.walk = -1
	}
	return v.walk
}

// sample evaluates waveform w at phase p in [0, 1).
func (v *voice) sample(w sfx.Wave, p float64) float64 {
	switch w {
	case sfx.Triangle:
		return triangle(p)
	case sfx.TiltedSaw:
		return tiltedSaw(p)
	case sfx.Saw:
		return saw(p)
	case sfx.Square:
		return square(p)
	case sfx.Pulse:
		return pulse(p)
	case sfx.Organ:
		return organ(p)
	case sfx.Noise:
		return v.noise()
	case sfx.Phaser:
		return phaser(p)
	}
	// Notes can only carry 3 bit waveforms so this is unreachable.
	return 0
}
