/*
Package handles memoizes the true-colour bitmaps rendered from indexed
bitmaps.

The Cache keeps a weak index from the hash of a render request to the handle
it produced, and a short ring of strong references so that recently used
bitmaps stay alive. The bitmaps themselves belong to a Store; the cache never
owns them for longer than the ring holds on to them, and copes with the Store
evicting a bitmap behind its back by rendering it again.
*/
package handles

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"image"
	"io/ioutil"
	"log"

	"github.com/bodgit/picocart/fault"
	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/palette"
)

// DefaultRingSize is the number of ticks a handle is retained for after its
// last use.
const DefaultRingSize = 3

// Handle identifies a bitmap in a Store.
type Handle uint64

// Store holds rendered bitmaps with reference counting.
type Store interface {
	// Add stores m and returns its handle holding one reference.
	Add(m *image.RGBA) Handle

	// Resolve returns the bitmap for h if it is still stored.
	Resolve(h Handle) (*image.RGBA, bool)

	// Retain takes another reference on h. It fails if h is gone.
	Retain(h Handle) bool

	// Release drops a reference on h.
	Release(h Handle)
}

// Request describes one bitmap to render. GfxID and PaletteID identify the
// source bitmap and palette; when zero their content is hashed instead.
type Request struct {
	Gfx       *gfx.Gfx
	GfxID     uint64
	Palette   palette.Palette
	PaletteID uint64
	PalMap    *palette.PalMap
	Fill      gfx.FillPat
}

func writeUint64(h hash.Hash, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, _ = h.Write(b[:])
}

// Key returns the hash that identifies the rendered result of r.
func (r Request) Key() uint64 {
	h := fnv.New64a()
	if r.GfxID != 0 {
		writeUint64(h, r.GfxID)
	} else if r.Gfx != nil {
		writeUint64(h, uint64(r.Gfx.Width())<<32|uint64(r.Gfx.Height()))
		writeUint64(h, uint64(r.Gfx.Depth()))
		_, _ = h.Write(r.Gfx.Bytes())
	}
	if r.PaletteID != 0 {
		writeUint64(h, r.PaletteID)
	} else {
		for _, c := range r.Palette {
			_, _ = h.Write([]byte{c.R, c.G, c.B, c.A})
		}
	}
	if r.PalMap != nil {
		r.PalMap.Hash(h)
	}
	writeUint64(h, uint64(r.Fill))
	return h.Sum64()
}

// RenderFunc turns a request into pixels.
type RenderFunc func(Request) *image.RGBA

// Options configures a Cache.
type Options struct {
	RingSize int
	Render   RenderFunc
	Logger   *log.Logger
}

// Cache maps render requests to handles.
type Cache struct {
	store  Store
	render RenderFunc
	logger *log.Logger

	index map[uint64]Handle
	ring  [][]Handle
	tick  int
}

// New returns a Cache over store.
func New(store Store, opts Options) *Cache {
	c := &Cache{
		store:  store,
		render: opts.Render,
		logger: opts.Logger,
		index:  make(map[uint64]Handle),
	}
	if c.logger == nil {
		c.logger = log.New(ioutil.Discard, "", 0)
	}
	if c.render == nil {
		c.render = c.Render
	}
	size := opts.RingSize
	if size <= 0 {
		size = DefaultRingSize
	}
	c.ring = make([][]Handle, size)
	return c
}

// Render draws r with its palette state. It is the RenderFunc used when
// Options.Render is nil.
func (c *Cache) Render(r Request) *image.RGBA {
	pm := r.PalMap
	if pm == nil {
		pm = palette.NewPalMap()
	}
	m, missing := r.Gfx.Image(r.Palette, pm, r.Fill)
	if missing > 0 {
		c.logger.Printf("%d pixels have no palette entry, drawn as missing\n", missing)
	}
	return m
}

func (c *Cache) hold(h Handle) {
	slot := c.tick % len(c.ring)
	c.ring[slot] = append(c.ring[slot], h)
}

// GetOrCreate returns the handle for r, rendering it if it was never
// rendered or the store has since evicted it.
func (c *Cache) GetOrCreate(r Request) (Handle, error) {
	if r.Gfx == nil {
		return 0, fmt.Errorf("%w: request has no bitmap", fault.ErrResourceNotFound)
	}

	key := r.Key()
	if h, ok := c.index[key]; ok {
		if c.store.Retain(h) {
			c.hold(h)
			return h, nil
		}
		c.logger.Printf("Bitmap %d was evicted, rendering again\n", h)
		delete(c.index, key)
	}

	h := c.store.Add(c.render(r))
	c.index[key] = h
	c.hold(h)
	return h, nil
}

// Tick advances the ring, releasing the references taken RingSize ticks ago,
// and drops index entries whose bitmaps are gone.
func (c *Cache) Tick() {
	c.tick++
	slot := c.tick % len(c.ring)
	for _, h := range c.ring[slot] {
		c.store.Release(h)
	}
	c.ring[slot] = c.ring[slot][:0]

	for key, h := range c.index {
		if _, ok := c.store.Resolve(h); !ok {
			delete(c.index, key)
		}
	}
}

// Len returns the number of indexed bitmaps.
func (c *Cache) Len() int {
	return len(c.index)
}
