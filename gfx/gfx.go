/*
Package gfx implements a packed indexed bitmap.

Pixels are stored with a fixed depth of 1, 2, 4 or 8 bits, least significant
bits first. For a 4 bit bitmap that means the pixel with the even x
coordinate lives in the low nybble of its byte and its right hand neighbour
in the high nybble, which is the layout used in cartridge memory.
*/
package gfx

import (
	"errors"
	"fmt"

	"github.com/bodgit/picocart/fault"
)

var (
	errBadDepth  = errors.New("gfx: depth must be 1, 2, 4 or 8")
	errBadSize   = errors.New("gfx: invalid size")
	errShortData = errors.New("gfx: not enough pixel data")
)

// Gfx is an indexed bitmap of width by height pixels, each Depth bits wide.
type Gfx struct {
	width, height int
	depth         int
	data          []byte
}

func validDepth(depth int) bool {
	switch depth {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// Size returns the number of bytes needed to pack width by height pixels of
// the given depth.
func Size(width, height, depth int) int {
	return (width*height*depth + 7) / 8
}

// New returns a zeroed bitmap.
func New(width, height, depth int) (*Gfx, error) {
	if !validDepth(depth) {
		return nil, errBadDepth
	}
	if width < 0 || height < 0 {
		return nil, errBadSize
	}
	return &Gfx{
		width:  width,
		height: height,
		depth:  depth,
		data:   make([]byte, Size(width, height, depth)),
	}, nil
}

// FromBytes wraps already packed pixel data. The slice is used directly, any
// bytes beyond the packed size are ignored.
func FromBytes(width, height, depth int, b []byte) (*Gfx, error) {
	if !validDepth(depth) {
		return nil, errBadDepth
	}
	if width < 0 || height < 0 {
		return nil, errBadSize
	}
	n := Size(width, height, depth)
	if len(b) < n {
		return nil, errShortData
	}
	return &Gfx{
		width:  width,
		height: height,
		depth:  depth,
		data:   b[:n],
	}, nil
}

// Width returns the width in pixels.
func (g *Gfx) Width() int { return g.width }

// Height returns the height in pixels.
func (g *Gfx) Height() int { return g.height }

// Depth returns the number of bits per pixel.
func (g *Gfx) Depth() int { return g.depth }

// Bytes returns the packed pixel data.
func (g *Gfx) Bytes() []byte { return g.data }

func (g *Gfx) offset(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return 0, false
	}
	return (y*g.width + x) * g.depth, true
}

func (g *Gfx) mask() uint8 {
	return uint8(int(1)<<uint(g.depth) - 1)
}

// Get returns the colour index at (x, y). Coordinates outside the bitmap
// read as 0.
func (g *Gfx) Get(x, y int) uint8 {
	bit, ok := g.offset(x, y)
	if !ok {
		return 0
	}
	return g.data[bit>>3] >> uint(bit&7) & g.mask()
}

// Set stores colour index c at (x, y).
func (g *Gfx) Set(x, y int, c uint8) error {
	bit, ok := g.offset(x, y)
	if !ok {
		return fmt.Errorf("%w: pixel (%d, %d) outside %dx%d", fault.ErrResourceNotFound, x, y, g.width, g.height)
	}
	if c > g.mask() {
		return fmt.Errorf("%w: colour %d exceeds %d bit depth", fault.ErrUnsupportedEncoding, c, g.depth)
	}
	shift := uint(bit & 7)
	g.data[bit>>3] = g.data[bit>>3]&^(g.mask()<<shift) | c<<shift
	return nil
}

// Clone returns a deep copy.
func (g *Gfx) Clone() *Gfx {
	dup := *g
	dup.data = append([]byte(nil), g.data...)
	return &dup
}

// Sub copies the rectangle at (x, y) of size w by h into a new bitmap of the
// same depth. Pixels outside g read as 0.
func (g *Gfx) Sub(x, y, w, h int) (*Gfx, error) {
	s, err := New(w, h, g.depth)
	if err != nil {
		return nil, err
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if err := s.Set(dx, dy, g.Get(x+dx, y+dy)); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}
