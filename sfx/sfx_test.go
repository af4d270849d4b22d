package sfx

import (
	"errors"
	"strings"
	"testing"

	"github.com/bodgit/picocart/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteRoundTrip(t *testing.T) {
	for pitch := uint8(0); pitch <= MaxPitch; pitch++ {
		for wave := Triangle; wave <= Phaser; wave++ {
			for volume := uint8(0); volume <= MaxVolume; volume++ {
				for effect := NoEffect; effect <= ArpeggioSlow; effect++ {
					n, err := NewNote(pitch, wave, volume, effect)
					require.NoError(t, err)
					assert.Equal(t, pitch, n.RawPitch())
					assert.Equal(t, int(pitch)+PitchOffset, n.Pitch())
					assert.Equal(t, wave, n.Wave())
					assert.Equal(t, volume, n.Volume())
					assert.Equal(t, effect, n.Effect())
					assert.False(t, n.Custom())
				}
			}
		}
	}
}

func TestNewNoteOutOfRange(t *testing.T) {
	tables := []struct {
		name   string
		pitch  uint8
		wave   Wave
		volume uint8
		effect Effect
	}{
		{"pitch", 64, Triangle, 0, NoEffect},
		{"wave", 0, 8, 0, NoEffect},
		{"volume", 0, Triangle, 8, NoEffect},
		{"effect", 0, Triangle, 0, 8},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := NewNote(table.pitch, table.wave, table.volume, table.effect)
			assert.True(t, errors.Is(err, fault.ErrUnsupportedEncoding))
		})
	}
}

func TestFrequency(t *testing.T) {
	n, err := NewNote(69-PitchOffset, Square, 7, NoEffect)
	require.NoError(t, err)
	assert.InDelta(t, 440.0, n.Frequency(), 1e-9)
	assert.Equal(t, 1.0, n.Level())

	n, err = NewNote(81-PitchOffset, Square, 0, NoEffect)
	require.NoError(t, err)
	assert.InDelta(t, 880.0, n.Frequency(), 1e-9)
	assert.Equal(t, 0.0, n.Level())
}

func TestParseText(t *testing.T) {
	s, err := ParseText("00010000020503f050200002107000000")
	require.NoError(t, err)
	require.Len(t, s.Notes, 4)
	assert.Nil(t, s.Loop)
	assert.Equal(t, uint8(1), s.Speed)

	expected := []struct {
		pitch int
		wave  Wave
		level float64
	}{
		{37, Triangle, 5.0 / 7},
		{98, Triangle, 5.0 / 7},
		{67, Triangle, 0},
		{68, Triangle, 1},
	}
	for i, e := range expected {
		assert.Equal(t, e.pitch, s.Notes[i].Pitch(), "note %d", i)
		assert.Equal(t, e.wave, s.Notes[i].Wave(), "note %d", i)
		assert.InDelta(t, e.level, s.Notes[i].Level(), 1e-9, "note %d", i)
	}
}

func TestParseTextVolumes(t *testing.T) {
	var b strings.Builder
	b.WriteString("00100000")
	for v := 0; v < 8; v++ {
		b.WriteString("1b0")
		b.WriteByte(byte('0' + v))
		b.WriteString("0")
	}

	s, err := ParseText(b.String())
	require.NoError(t, err)
	require.Len(t, s.Notes, 8)
	for i, n := range s.Notes {
		assert.InDelta(t, float64(i)/7, n.Level(), 1e-9)
	}
	assert.Equal(t, 0.0, s.Notes[0].Level())
	assert.Equal(t, 1.0, s.Notes[7].Level())
}

func TestParseTextUpperCase(t *testing.T) {
	s, err := ParseText("001000001B020")
	require.NoError(t, err)
	require.Len(t, s.Notes, 1)
	assert.Equal(t, 62, s.Notes[0].Pitch())
	assert.InDelta(t, 2.0/7, s.Notes[0].Level(), 1e-9)
}

func TestParseTextCustom(t *testing.T) {
	s, err := ParseText("001000001b950")
	require.NoError(t, err)
	require.Len(t, s.Notes, 1)
	assert.True(t, s.Notes[0].Custom())
	assert.Equal(t, TiltedSaw, s.Notes[0].Wave())
	assert.Equal(t, uint8(5), s.Notes[0].Volume())
}

func TestParseTextErrors(t *testing.T) {
	tables := []struct {
		name string
		line string
		err  error
	}{
		{"short header", "001000", fault.ErrMissing},
		{"partial note", "001000001b02", fault.ErrMissing},
		{"bad digit", "001000001g020", fault.ErrUnexpectedHex},
		{"bad header", "0z1000001b020", fault.ErrUnexpectedHex},
		{"pitch too high", "0010000040000", fault.ErrUnsupportedEncoding},
		{"volume too high", "001000001b090", fault.ErrUnsupportedEncoding},
		{"effect too high", "001000001b028", fault.ErrUnsupportedEncoding},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := ParseText(table.line)
			assert.True(t, errors.Is(err, table.err), "%v", err)
			assert.True(t, errors.Is(err, fault.ErrMalformedInput) == errors.Is(table.err, fault.ErrMalformedInput))
		})
	}
}

func TestTrailingSilenceTrimmed(t *testing.T) {
	s, err := ParseText("001000001b020" + strings.Repeat("00000", 31))
	require.NoError(t, err)
	assert.Len(t, s.Notes, 1)
}

func record(start, end uint8, notes ...Note) []byte {
	b := make([]byte, BinarySize)
	for i, n := range notes {
		b[i*2] = uint8(n)
		b[i*2+1] = uint8(n >> 8)
	}
	copy(b[NotesPerSfx*2:], []byte{0, 1, start, end})
	return b
}

func sequence(n int) []Note {
	notes := make([]Note, n)
	for i := range notes {
		notes[i], _ = NewNote(uint8(i+1), Square, 5, NoEffect)
	}
	return notes
}

func TestBinaryLoop(t *testing.T) {
	notes := sequence(NotesPerSfx)

	s, err := Decode(record(4, 9, notes...))
	require.NoError(t, err)
	require.NotNil(t, s.Loop)
	assert.Equal(t, 4, s.Loop.Start)
	assert.Equal(t, 9, s.Loop.End)
	assert.False(t, s.Loop.Stoppable())
	assert.True(t, s.Loop.Wraps())

	// Walking the advance rule N times around the loop always comes back to
	// the start.
	i := s.Loop.Start
	for n := 0; n < 3*(s.Loop.End-s.Loop.Start+1); n++ {
		if i == s.Loop.End {
			i = s.Loop.Start
		} else {
			i++
		}
	}
	assert.Equal(t, s.Loop.Start, i)
}

func TestBinaryTruncate(t *testing.T) {
	notes := sequence(NotesPerSfx)

	s, err := Decode(record(5, 0, notes...))
	require.NoError(t, err)
	assert.Nil(t, s.Loop)
	assert.Equal(t, notes[:5], s.Notes)

	// Rests inside the truncation are part of it.
	notes[3], notes[4] = 0, 0
	s, err = Decode(record(5, 0, notes...))
	require.NoError(t, err)
	assert.Equal(t, notes[:5], s.Notes)
}

func TestBinaryDropHead(t *testing.T) {
	notes := sequence(10)

	s, err := Decode(record(6, 2, notes...))
	require.NoError(t, err)
	assert.Nil(t, s.Loop)
	assert.Equal(t, notes[6:], s.Notes)
}

func TestBinaryLoopKeepsSilence(t *testing.T) {
	notes := sequence(2)

	s, err := Decode(record(0, 7, notes...))
	require.NoError(t, err)
	require.NotNil(t, s.Loop)
	assert.Len(t, s.Notes, 8)
}

func TestBinarySize(t *testing.T) {
	_, err := Decode(make([]byte, BinarySize-1))
	assert.True(t, errors.Is(err, fault.ErrMissing))
}

func TestMarshalBinary(t *testing.T) {
	b := record(4, 9, sequence(NotesPerSfx)...)
	s, err := Decode(b)
	require.NoError(t, err)

	out, err := s.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, b, out)
}

func TestMarshalText(t *testing.T) {
	line := "000102031b0201b9201b0201b020" + strings.Repeat("00000", 28)
	s, err := ParseText(line)
	require.NoError(t, err)

	out, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, line, string(out))
}

func TestStoppable(t *testing.T) {
	s, err := ParseText("000101021b0201b0201b020")
	require.NoError(t, err)

	dup, release := s.Stoppable()
	require.NotNil(t, release)
	assert.False(t, s.Loop.Stoppable())
	assert.True(t, dup.Loop.Stoppable())
	assert.True(t, dup.Loop.Wraps())

	release.Release()
	assert.False(t, dup.Loop.Wraps())
	assert.True(t, s.Loop.Wraps())

	// Clones of a stoppable sfx share the flag.
	again := dup.Clone()
	assert.False(t, again.Loop.Wraps())

	plain, none := (&Sfx{Notes: s.Notes}).Stoppable()
	assert.Nil(t, none)
	assert.Nil(t, plain.Loop)
}

func TestTicks(t *testing.T) {
	s := &Sfx{Notes: sequence(4)}
	assert.Equal(t, DefaultSpeed, s.TicksPerNote())
	assert.Equal(t, 4*DefaultSpeed, s.Ticks())
}
