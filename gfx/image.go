package gfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/bodgit/picocart/fault"
	"github.com/bodgit/picocart/palette"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

var errNotIndexed = errors.New("gfx: not an indexed image")

// Image resolves every pixel through pm and p into a true-colour image. Pixels
// covered by a set bit of fill are left transparent. Colours that cannot be
// resolved are drawn as palette.Missing and counted in the second return value.
func (g *Gfx) Image(p palette.Palette, pm *palette.PalMap, fill FillPat) (*image.RGBA, int) {
	m := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	var missing int
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if fill.Get(x, y) {
				continue
			}
			c, err := pm.Color(p, g.Get(x, y))
			if err != nil {
				c = palette.Missing
				missing++
			}
			m.SetRGBA(x, y, c)
		}
	}
	return m, missing
}

// Paletted returns g as an image.Paletted using p. Indices past the end of p
// are shown as palette.Missing.
func (g *Gfx) Paletted(p palette.Palette) *image.Paletted {
	cp := p.Colors()
	for len(cp) < 1<<uint(g.depth) {
		cp = append(cp, palette.Missing)
	}
	m := image.NewPaletted(image.Rect(0, 0, g.width, g.height), cp)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			m.SetColorIndex(x, y, g.Get(x, y))
		}
	}
	return m
}

// EncodePNG writes g to w as an indexed PNG using p.
func EncodePNG(w io.Writer, g *Gfx, p palette.Palette) error {
	return png.Encode(w, g.Paletted(p))
}

// DecodePNG reads an indexed PNG from r into a bitmap of the given depth. Any
// pixel whose index does not fit the depth is an error rather than being
// truncated.
func DecodePNG(r io.Reader, depth int) (*Gfx, error) {
	m, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	pm, ok := m.(*image.Paletted)
	if !ok {
		return nil, errNotIndexed
	}
	return fromPaletted(pm, depth)
}

func fromPaletted(m *image.Paletted, depth int) (*Gfx, error) {
	b := m.Bounds()
	g, err := New(b.Dx(), b.Dy(), depth)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := m.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
			if err := g.Set(x, y, i); err != nil {
				return nil, fmt.Errorf("gfx: pixel %d with value %d: %w", y*b.Dx()+x, i, err)
			}
		}
	}
	return g, nil
}

// FromImage converts any image to a bitmap of the given depth. Paletted images
// that already fit are taken as is, anything else is reduced to at most 2^depth
// colours with a median cut quantizer. The palette that the indices refer to
// is returned alongside.
func FromImage(m image.Image, depth int) (*Gfx, palette.Palette, error) {
	if !validDepth(depth) {
		return nil, nil, errBadDepth
	}
	colors := 1 << uint(depth)
	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm == nil || len(pm.Palette) > colors {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	g, err := fromPaletted(pm, depth)
	if err != nil {
		return nil, nil, err
	}

	p := make(palette.Palette, len(pm.Palette))
	for i, c := range pm.Palette {
		p[i] = color.RGBAModel.Convert(c).(color.RGBA)
	}
	return g, p, nil
}

// Scale enlarges m by an integer factor without smoothing.
func Scale(m image.Image, factor int) (*image.RGBA, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: scale factor %d", fault.ErrUnsupportedEncoding, factor)
	}
	b := m.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst, nil
}
