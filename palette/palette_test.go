package palette

import (
	"crypto/sha1"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/picocart/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAt(t *testing.T) {
	c, err := Default.At(8)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0xff, 0x00, 0x4d, 0xff}, c)

	for _, i := range []int{-1, 16, 255} {
		_, err = Default.At(i)
		assert.True(t, errors.Is(err, fault.ErrResourceNotFound))
	}
}

func TestFromImage(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i, c := range Default[:8] {
		m.SetRGBA(i%4, i/4, c)
	}

	p := FromImage(m)
	assert.Equal(t, Default[:8], p)
	assert.Len(t, p.Colors(), 8)
}

func TestPalMap(t *testing.T) {
	pm := NewPalMap()
	for i := 0; i < 256; i++ {
		assert.Equal(t, uint8(i), pm.Map(uint8(i)))
		assert.Equal(t, i == 0, pm.Transparent(uint8(i)))
	}

	pm.Remap(3, 9)
	pm.SetTransparent(0, false)
	pm.SetTransparent(200, true)
	assert.Equal(t, uint8(9), pm.Map(3))
	assert.False(t, pm.Transparent(0))
	assert.True(t, pm.Transparent(200))

	c, err := pm.Color(Default, 3)
	require.NoError(t, err)
	assert.Equal(t, Default[9], c)

	c, err = pm.Color(Default, 200)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{}, c)

	_, err = pm.Color(Default, 17)
	assert.True(t, errors.Is(err, fault.ErrResourceNotFound))

	pm.Reset()
	assert.Equal(t, uint8(3), pm.Map(3))
	assert.True(t, pm.Transparent(200))

	pm.ResetTransparency()
	assert.True(t, pm.Transparent(0))
	assert.False(t, pm.Transparent(200))
}

func TestPalMapHash(t *testing.T) {
	sum := func(pm *PalMap) []byte {
		h := sha1.New()
		pm.Hash(h)
		return h.Sum(nil)
	}

	a, b := NewPalMap(), NewPalMap()
	assert.Equal(t, sum(a), sum(b))

	b.Remap(1, 2)
	assert.NotEqual(t, sum(a), sum(b))

	b.Reset()
	b.SetTransparent(5, true)
	assert.NotEqual(t, sum(a), sum(b))
}
