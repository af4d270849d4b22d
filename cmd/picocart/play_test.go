package main

import (
	"encoding/binary"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/bodgit/picocart/sfx"
	"github.com/bodgit/picocart/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCMReader(t *testing.T) {
	s, err := sfx.ParseText("0001000022070" + strings.Repeat("0", 155))
	require.NoError(t, err)

	opts := synth.Options{SampleRate: 1200}
	total := synth.NoteLength(s, opts)
	r := &pcmReader{p: synth.New(s, opts)}

	want := synth.New(s, opts)
	b := make([]byte, 64*bytesPerSample)
	read := 0
	for {
		n, err := r.Read(b)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, 0, n%bytesPerSample)
		for i := 0; i < n; i += bytesPerSample {
			v, ok := want.Next()
			require.True(t, ok)
			assert.Equal(t, v, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
		}
		read += n / bytesPerSample
	}
	assert.Equal(t, total, read)
}

func TestPCMReaderLimit(t *testing.T) {
	s, err := sfx.ParseText("0001000022070" + strings.Repeat("0", 155))
	require.NoError(t, err)

	r := &pcmReader{p: synth.New(s, synth.Options{SampleRate: 1200}), limit: 3}
	b := make([]byte, 64)
	n, err := r.Read(b)
	require.NoError(t, err)
	assert.Equal(t, 3*bytesPerSample, n)

	_, err = r.Read(b)
	assert.Equal(t, io.EOF, err)
}
