package handles

import (
	"bytes"
	"errors"
	"image"
	"log"
	"testing"

	"github.com/bodgit/picocart/fault"
	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	renders int
}

func (c *counter) render(r Request) *image.RGBA {
	c.renders++
	return image.NewRGBA(image.Rect(0, 0, r.Gfx.Width(), r.Gfx.Height()))
}

func testGfx(t *testing.T, c uint8) *gfx.Gfx {
	t.Helper()
	g, err := gfx.New(8, 8, 4)
	require.NoError(t, err)
	require.NoError(t, g.Set(0, 0, c))
	return g
}

func TestMemoized(t *testing.T) {
	var n counter
	store := NewMemStore()
	c := New(store, Options{Render: n.render})

	req := Request{Gfx: testGfx(t, 1), Palette: palette.Default}
	a, err := c.GetOrCreate(req)
	require.NoError(t, err)
	b, err := c.GetOrCreate(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, n.renders)

	// Different content, different bitmap.
	d, err := c.GetOrCreate(Request{Gfx: testGfx(t, 2), Palette: palette.Default})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
	assert.Equal(t, 2, n.renders)
	assert.Equal(t, 2, c.Len())
}

func TestRequestKey(t *testing.T) {
	g := testGfx(t, 1)
	base := Request{Gfx: g, Palette: palette.Default}
	assert.Equal(t, base.Key(), Request{Gfx: g.Clone(), Palette: palette.Default}.Key())

	pm := palette.NewPalMap()
	pm.Remap(1, 2)
	assert.NotEqual(t, base.Key(), Request{Gfx: g, Palette: palette.Default, PalMap: pm}.Key())
	assert.NotEqual(t, base.Key(), Request{Gfx: g, Palette: palette.Default, Fill: 0x5a5a}.Key())
	assert.NotEqual(t, base.Key(), Request{Gfx: g, PaletteID: 7}.Key())

	// Identifiers stand in for the content.
	assert.Equal(t,
		Request{Gfx: g, GfxID: 3, PaletteID: 4}.Key(),
		Request{Gfx: testGfx(t, 9), GfxID: 3, PaletteID: 4}.Key())
}

func TestReleasedAfterRing(t *testing.T) {
	var n counter
	store := NewMemStore()
	c := New(store, Options{RingSize: 2, Render: n.render})

	h, err := c.GetOrCreate(Request{Gfx: testGfx(t, 1)})
	require.NoError(t, err)

	c.Tick()
	_, ok := store.Resolve(h)
	assert.True(t, ok)

	c.Tick()
	_, ok = store.Resolve(h)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, store.Len())
}

func TestKeptAliveByUse(t *testing.T) {
	var n counter
	store := NewMemStore()
	c := New(store, Options{Render: n.render})
	req := Request{Gfx: testGfx(t, 1)}

	h, err := c.GetOrCreate(req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		c.Tick()
		again, err := c.GetOrCreate(req)
		require.NoError(t, err)
		assert.Equal(t, h, again)
	}
	assert.Equal(t, 1, n.renders)

	for i := 0; i < DefaultRingSize; i++ {
		c.Tick()
	}
	assert.Equal(t, 0, store.Len())
}

func TestEvicted(t *testing.T) {
	var n counter
	var buf bytes.Buffer
	store := NewMemStore()
	c := New(store, Options{Render: n.render, Logger: log.New(&buf, "", 0)})
	req := Request{Gfx: testGfx(t, 1)}

	h, err := c.GetOrCreate(req)
	require.NoError(t, err)
	store.Evict(h)

	again, err := c.GetOrCreate(req)
	require.NoError(t, err)
	assert.NotEqual(t, h, again)
	assert.Equal(t, 2, n.renders)
	assert.Contains(t, buf.String(), "evicted")

	m, ok := store.Resolve(again)
	require.True(t, ok)
	assert.Equal(t, 8, m.Bounds().Dx())
}

func TestNoBitmap(t *testing.T) {
	c := New(NewMemStore(), Options{})
	_, err := c.GetOrCreate(Request{})
	assert.True(t, errors.Is(err, fault.ErrResourceNotFound))
}

func TestDefaultRender(t *testing.T) {
	var buf bytes.Buffer
	store := NewMemStore()
	c := New(store, Options{Logger: log.New(&buf, "", 0)})

	h, err := c.GetOrCreate(Request{Gfx: testGfx(t, 8), Palette: palette.Default})
	require.NoError(t, err)
	m, ok := store.Resolve(h)
	require.True(t, ok)
	assert.Equal(t, palette.Default[8], m.RGBAAt(0, 0))
	assert.Empty(t, buf.String())

	// A palette too short for the pixel is drawn with the missing colour.
	h, err = c.GetOrCreate(Request{Gfx: testGfx(t, 8), Palette: palette.Default[:4]})
	require.NoError(t, err)
	m, _ = store.Resolve(h)
	assert.Equal(t, palette.Missing, m.RGBAAt(0, 0))
	assert.Contains(t, buf.String(), "missing")
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	h := s.Add(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.True(t, s.Retain(h))
	s.Release(h)
	_, ok := s.Resolve(h)
	assert.True(t, ok)
	s.Release(h)
	_, ok = s.Resolve(h)
	assert.False(t, ok)
	assert.False(t, s.Retain(h))
	s.Release(h)
}
