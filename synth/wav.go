package synth

import (
	"errors"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
	wavChunk    = 4096
)

var errNoLimit = errors.New("synth: looping sound effect needs a sample limit")

// WriteWAV drains p into w as 16-bit mono PCM. At most limit samples are
// written; a limit of 0 means play to the end, which is an error for a sound
// effect that loops forever.
func WriteWAV(w io.WriteSeeker, p *Player, limit int) (int, error) {
	if limit <= 0 && p.s != nil && p.s.Loop != nil && p.s.Loop.Wraps() {
		return 0, errNoLimit
	}

	enc := wav.NewEncoder(w, p.SampleRate(), wavBitDepth, 1, wavPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  p.SampleRate(),
		},
		SourceBitDepth: wavBitDepth,
	}

	samples := make([]float32, wavChunk)
	total := 0
	for limit <= 0 || total < limit {
		want := len(samples)
		if limit > 0 && limit-total < want {
			want = limit - total
		}
		n := p.Read(samples[:want])
		if n == 0 {
			break
		}
		buf.Data = buf.Data[:0]
		for _, s := range samples[:n] {
			buf.Data = append(buf.Data, toInt16(s))
		}
		if err := enc.Write(buf); err != nil {
			return total, err
		}
		total += n
		if n < want {
			break
		}
	}

	return total, enc.Close()
}

func toInt16(s float32) int {
	v := math.Round(float64(s) * math.MaxInt16)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int(v)
}
