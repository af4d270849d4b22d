package gfx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/bodgit/picocart/fault"
	"github.com/bodgit/picocart/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tables := []struct {
		width, height, depth int
		size                 int
	}{
		{128, 128, 4, 8192},
		{128, 128, 8, 16384},
		{3, 3, 1, 2},
		{5, 1, 2, 2},
		{0, 0, 4, 0},
	}

	for _, table := range tables {
		g, err := New(table.width, table.height, table.depth)
		require.NoError(t, err)
		assert.Len(t, g.Bytes(), table.size)
	}

	_, err := New(8, 8, 3)
	assert.Equal(t, errBadDepth, err)
	_, err = New(-1, 8, 4)
	assert.Equal(t, errBadSize, err)
}

func TestNybbleOrder(t *testing.T) {
	g, err := FromBytes(2, 1, 4, []byte{0xba})
	require.NoError(t, err)
	assert.Equal(t, uint8(0xa), g.Get(0, 0))
	assert.Equal(t, uint8(0xb), g.Get(1, 0))
}

func TestGetSet(t *testing.T) {
	for _, depth := range []int{1, 2, 4, 8} {
		g, err := New(7, 5, depth)
		require.NoError(t, err)
		top := uint8(int(1)<<uint(depth) - 1)

		for y := 0; y < 5; y++ {
			for x := 0; x < 7; x++ {
				require.NoError(t, g.Set(x, y, uint8(x+y*7)&top))
			}
		}
		for y := 0; y < 5; y++ {
			for x := 0; x < 7; x++ {
				assert.Equal(t, uint8(x+y*7)&top, g.Get(x, y), "depth %d at (%d, %d)", depth, x, y)
			}
		}

		if depth < 8 {
			err = g.Set(0, 0, top+1)
			assert.True(t, errors.Is(err, fault.ErrUnsupportedEncoding))
		}
	}
}

func TestBounds(t *testing.T) {
	g, err := New(4, 4, 4)
	require.NoError(t, err)

	for _, p := range []image.Point{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		assert.Equal(t, uint8(0), g.Get(p.X, p.Y))
		assert.True(t, errors.Is(g.Set(p.X, p.Y, 1), fault.ErrResourceNotFound))
	}
	assert.Equal(t, make([]byte, 8), g.Bytes())
}

func TestFromBytesShort(t *testing.T) {
	_, err := FromBytes(4, 4, 4, make([]byte, 7))
	assert.Equal(t, errShortData, err)
}

func TestCloneAndSub(t *testing.T) {
	g, err := New(8, 8, 4)
	require.NoError(t, err)
	require.NoError(t, g.Set(3, 4, 9))

	c := g.Clone()
	require.NoError(t, c.Set(3, 4, 1))
	assert.Equal(t, uint8(9), g.Get(3, 4))

	s, err := g.Sub(2, 3, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Width())
	assert.Equal(t, uint8(9), s.Get(1, 1))

	s, err = g.Sub(6, 6, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), s.Get(3, 3))
}

func TestFillPat(t *testing.T) {
	var f FillPat
	f = f.Set(0, 0, true)
	assert.Equal(t, FillPat(0x8000), f)
	assert.True(t, f.Get(4, 4))
	assert.False(t, f.Get(1, 0))

	f = f.Set(3, 3, true)
	assert.Equal(t, FillPat(0x8001), f)
	f = f.Set(0, 0, false)
	assert.Equal(t, FillPat(0x0001), f)
}

func TestImage(t *testing.T) {
	g, err := New(4, 1, 4)
	require.NoError(t, err)
	for x, c := range []uint8{0, 7, 8, 15} {
		require.NoError(t, g.Set(x, 0, c))
	}

	pm := palette.NewPalMap()
	pm.Remap(8, 12)

	m, missing := g.Image(palette.Default, pm, 0)
	assert.Equal(t, 0, missing)
	assert.Equal(t, color.RGBA{}, m.RGBAAt(0, 0))
	assert.Equal(t, palette.Default[7], m.RGBAAt(1, 0))
	assert.Equal(t, palette.Default[12], m.RGBAAt(2, 0))
	assert.Equal(t, palette.Default[15], m.RGBAAt(3, 0))

	m, _ = g.Image(palette.Default, pm, FillPat(0).Set(1, 0, true))
	assert.Equal(t, color.RGBA{}, m.RGBAAt(1, 0))

	m, missing = g.Image(palette.Default[:8], pm, 0)
	assert.Equal(t, 2, missing)
	assert.Equal(t, palette.Missing, m.RGBAAt(3, 0))
}

func TestPNGRoundTrip(t *testing.T) {
	g, err := New(16, 8, 4)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		require.NoError(t, g.Set(i, i%8, uint8(i)))
	}

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, g, palette.Default))

	d, err := DecodePNG(bytes.NewReader(buf.Bytes()), 4)
	require.NoError(t, err)
	assert.Equal(t, g.Bytes(), d.Bytes())

	_, err = DecodePNG(bytes.NewReader(buf.Bytes()), 2)
	assert.True(t, errors.Is(err, fault.ErrUnsupportedEncoding))
}

func TestDecodePNGNotIndexed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	_, err := DecodePNG(&buf, 4)
	assert.Equal(t, errNotIndexed, err)
}

func TestFromImage(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				m.SetRGBA(x, y, palette.Default[8])
			} else {
				m.SetRGBA(x, y, palette.Default[12])
			}
		}
	}

	g, p, err := FromImage(m, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(p), 16)

	left, err := p.At(int(g.Get(0, 0)))
	require.NoError(t, err)
	right, err := p.At(int(g.Get(3, 3)))
	require.NoError(t, err)
	assert.Equal(t, palette.Default[8], left)
	assert.Equal(t, palette.Default[12], right)
}

func TestScale(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 2, 1))
	m.SetRGBA(1, 0, palette.Default[7])

	s, err := Scale(m, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 3), s.Bounds())
	assert.Equal(t, palette.Default[7], s.RGBAAt(5, 2))
	assert.Equal(t, color.RGBA{}, s.RGBAAt(2, 2))

	_, err = Scale(m, 0)
	assert.True(t, errors.Is(err, fault.ErrUnsupportedEncoding))
}
