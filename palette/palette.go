/*
Package palette implements the indexed colour lookup used to turn packed
bitmaps into true-colour pixels.

A Palette is an ordered list of RGBA colours. A PalMap layers a runtime
remap table and a transparency mask on top of it; it starts out as the
identity mapping with colour 0 transparent and only changes when the
runtime asks it to.
*/
package palette

import (
	"fmt"
	"image"
	"image/color"

	"github.com/bodgit/picocart/fault"
)

// Palette is an ordered, fixed length list of colours.
type Palette []color.RGBA

// Default is the sixteen colour console palette.
var Default = Palette{
	{0x00, 0x00, 0x00, 0xff}, // black
	{0x1d, 0x2b, 0x53, 0xff}, // dark blue
	{0x7e, 0x25, 0x53, 0xff}, // dark purple
	{0x00, 0x87, 0x51, 0xff}, // dark green
	{0xab, 0x52, 0x36, 0xff}, // brown
	{0x5f, 0x57, 0x4f, 0xff}, // dark grey
	{0xc2, 0xc3, 0xc7, 0xff}, // light grey
	{0xff, 0xf1, 0xe8, 0xff}, // white
	{0xff, 0x00, 0x4d, 0xff}, // red
	{0xff, 0xa3, 0x00, 0xff}, // orange
	{0xff, 0xec, 0x27, 0xff}, // yellow
	{0x00, 0xe4, 0x36, 0xff}, // green
	{0x29, 0xad, 0xff, 0xff}, // blue
	{0x83, 0x76, 0x9c, 0xff}, // lavender
	{0xff, 0x77, 0xa8, 0xff}, // pink
	{0xff, 0xcc, 0xaa, 0xff}, // light peach
}

// Missing is substituted by renderers for colours that cannot be resolved.
var Missing = color.RGBA{0xff, 0x00, 0xff, 0xff}

// FromImage reads every pixel of m in row-major order as one palette entry.
func FromImage(m image.Image) Palette {
	b := m.Bounds()
	p := make(Palette, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p = append(p, color.RGBAModel.Convert(m.At(x, y)).(color.RGBA))
		}
	}
	return p
}

// At returns the colour at index i. Unlike color.Palette it never clamps; an
// index past the end is an error.
func (p Palette) At(i int) (color.RGBA, error) {
	if i < 0 || i >= len(p) {
		return color.RGBA{}, fmt.Errorf("%w: colour %d of %d", fault.ErrResourceNotFound, i, len(p))
	}
	return p[i], nil
}

// Colors returns p as a color.Palette suitable for image.Paletted.
func (p Palette) Colors() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = c
	}
	return cp
}
