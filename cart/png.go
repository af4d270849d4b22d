package cart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/bodgit/picocart/fault"
	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/palette"
	"github.com/bodgit/picocart/sfx"
	"golang.org/x/image/draw"
)

const (
	// CarrierWidth is the width of an image cartridge
	CarrierWidth = 160

	// CarrierHeight is the height of an image cartridge
	CarrierHeight = 205

	musicBytes = 4
)

var (
	errCarrierSize = errors.New("cart: image is not 160x205")
	errCodeSize    = errors.New("cart: code too large for cartridge")

	labelRect = image.Rect(16, 24, 16+SheetWidth, 24+SheetHeight)
	cardColor = color.NRGBA{0x1d, 0x2b, 0x53, 0xff}
)

// ExtractROM recovers the memory image hidden in the two low bits of each
// channel of m. Each pixel carries one byte, alpha in the top bits then red,
// green and blue.
func ExtractROM(m image.Image) ([]byte, error) {
	b := m.Bounds()
	if b.Dx() != CarrierWidth || b.Dy() != CarrierHeight {
		return nil, fmt.Errorf("%w: %w", fault.ErrDecompression, errCarrierSize)
	}

	rom := make([]byte, 0, payloadSize)
	for y := b.Min.Y; y < b.Max.Y && len(rom) < payloadSize; y++ {
		for x := b.Min.X; x < b.Max.X && len(rom) < payloadSize; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			rom = append(rom, (c.A&3)<<6|(c.R&3)<<4|(c.G&3)<<2|c.B&3)
		}
	}
	return rom, nil
}

// EmbedROM hides rom in a copy of cover. A nil cover gets a plain card.
func EmbedROM(cover image.Image, rom []byte) (*image.NRGBA, error) {
	if len(rom) > payloadSize {
		return nil, fmt.Errorf("%w: %d byte memory image", fault.ErrUnsupportedEncoding, len(rom))
	}

	dst := image.NewNRGBA(image.Rect(0, 0, CarrierWidth, CarrierHeight))
	if cover == nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(cardColor), image.Point{}, draw.Src)
	} else {
		if b := cover.Bounds(); b.Dx() != CarrierWidth || b.Dy() != CarrierHeight {
			return nil, errCarrierSize
		}
		draw.Draw(dst, dst.Bounds(), cover, cover.Bounds().Min, draw.Src)
	}

	for i := 0; i < CarrierWidth*CarrierHeight; i++ {
		var v byte
		if i < len(rom) {
			v = rom[i]
		}
		p := dst.Pix[i*4 : i*4+4]
		p[0] = p[0]&^3 | v>>4&3
		p[1] = p[1]&^3 | v>>2&3
		p[2] = p[2]&^3 | v&3
		p[3] = p[3]&^3 | v>>6&3
	}
	return dst, nil
}

// DecodePNG reads an image cartridge from r. The label is recovered from the
// visible picture, snapped to the default palette.
func DecodePNG(r io.Reader) (*Cart, error) {
	m, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	rom, err := ExtractROM(m)
	if err != nil {
		return nil, err
	}
	c, err := DecodeROM(rom)
	if err != nil {
		return nil, err
	}
	if c.Label, err = readLabel(m); err != nil {
		return nil, err
	}
	return c, nil
}

func readLabel(m image.Image) (*gfx.Gfx, error) {
	g, err := gfx.New(SheetWidth, SheetHeight, labelDepth)
	if err != nil {
		return nil, err
	}
	cp := palette.Default.Colors()
	o := m.Bounds().Min.Add(labelRect.Min)
	for y := 0; y < SheetHeight; y++ {
		for x := 0; x < SheetWidth; x++ {
			c := color.NRGBAModel.Convert(m.At(o.X+x, o.Y+y)).(color.NRGBA)
			c.A = 0xff
			if err := g.Set(x, y, uint8(cp.Index(c))); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// LabelFromImage turns any picture into a label. The picture is resized to
// fill the label, reduced to 16 colours, and each colour is snapped to the
// nearest entry of p. A nil p means palette.Default.
func LabelFromImage(m image.Image, p palette.Palette) (*gfx.Gfx, error) {
	if p == nil {
		p = palette.Default
	}

	scaled := image.NewRGBA(image.Rect(0, 0, SheetWidth, SheetHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), m, m.Bounds(), draw.Src, nil)

	q, qp, err := gfx.FromImage(scaled, 4)
	if err != nil {
		return nil, err
	}

	cp := p.Colors()
	snap := make([]uint8, len(qp))
	for i, c := range qp {
		snap[i] = uint8(cp.Index(c))
	}

	g, err := gfx.New(SheetWidth, SheetHeight, labelDepth)
	if err != nil {
		return nil, err
	}
	for y := 0; y < SheetHeight; y++ {
		for x := 0; x < SheetWidth; x++ {
			if err := g.Set(x, y, snap[q.Get(x, y)]); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// DecodeROM decodes a memory image.
func DecodeROM(rom []byte) (*Cart, error) {
	if len(rom) < romSize {
		return nil, fmt.Errorf("%w: memory image is %d bytes", fault.ErrDecompression, len(rom))
	}

	code, err := decompress(rom[codeOffset:codeEnd])
	if err != nil {
		return nil, err
	}

	c := &Cart{
		Lua:   ToUTF8(code),
		Map:   append([]byte(nil), rom[mapOffset:flagsOffset]...),
		Flags: append([]byte(nil), rom[flagsOffset:musicOffset]...),
	}
	if len(rom) > versionByte {
		c.Version = int(rom[versionByte])
	}

	if c.Gfx, err = gfx.FromBytes(SheetWidth, SheetHeight, 4, append([]byte(nil), rom[gfxOffset:mapOffset]...)); err != nil {
		return nil, err
	}

	for i := 0; i < MusicCount; i++ {
		c.Music = append(c.Music, decodeMusic(rom[musicOffset+i*musicBytes:]))
	}

	for i := 0; i < SfxCount; i++ {
		off := sfxOffset + i*sfx.BinarySize
		s, err := sfx.Decode(rom[off : off+sfx.BinarySize])
		if err != nil {
			return nil, err
		}
		c.Sfx = append(c.Sfx, s)
	}

	return c, nil
}

// decodeMusic unpacks one pattern. Bit 7 of the first three channel bytes
// holds the begin, end and stop flags.
func decodeMusic(b []byte) Music {
	m := Music{
		Begin: b[0]&0x80 != 0,
		End:   b[1]&0x80 != 0,
		Stop:  b[2]&0x80 != 0,
	}
	for _, p := range b[:musicBytes] {
		if p&musicSilent != 0 {
			continue
		}
		m.Patterns = append(m.Patterns, p&musicSfxMask)
	}
	return m
}

func encodeMusic(m Music) [musicBytes]byte {
	var b [musicBytes]byte
	for i := range b {
		b[i] = musicSilent | byte(i+1)
		if i < len(m.Patterns) {
			b[i] = m.Patterns[i] & musicSfxMask
		}
	}
	if m.Begin {
		b[0] |= 0x80
	}
	if m.End {
		b[1] |= 0x80
	}
	if m.Stop {
		b[2] |= 0x80
	}
	return b
}

// ROM builds the memory image of c. Code is stored uncompressed, so it must
// fit the code region once converted to the console character set.
func (c *Cart) ROM() ([]byte, error) {
	rom := make([]byte, payloadSize)

	if c.Gfx != nil {
		sheet, err := gfx.New(SheetWidth, SheetHeight, 4)
		if err != nil {
			return nil, err
		}
		for y := 0; y < SheetHeight && y < c.Gfx.Height(); y++ {
			for x := 0; x < SheetWidth && x < c.Gfx.Width(); x++ {
				if err := sheet.Set(x, y, c.Gfx.Get(x, y)&0xf); err != nil {
					return nil, err
				}
			}
		}
		copy(rom[gfxOffset:mapOffset], sheet.Bytes())
	}
	copy(rom[mapOffset:mapOffset+mapSize], c.Map)
	copy(rom[flagsOffset:flagsOffset+flagsSize], c.Flags)

	for i := 0; i < MusicCount; i++ {
		var m Music
		if i < len(c.Music) {
			m = c.Music[i]
		}
		b := encodeMusic(m)
		copy(rom[musicOffset+i*musicBytes:], b[:])
	}

	for i, s := range c.Sfx {
		if i >= SfxCount {
			break
		}
		b, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		copy(rom[sfxOffset+i*sfx.BinarySize:], b)
	}

	code := FromUTF8(c.Lua)
	if len(code) > codeSize {
		return nil, errCodeSize
	}
	copy(rom[codeOffset:], code)

	rom[versionByte] = byte(c.Version)
	return rom, nil
}

// EncodePNG writes c as an image cartridge. The label, if any, is drawn
// onto the card in the default palette.
func EncodePNG(w io.Writer, c *Cart) error {
	rom, err := c.ROM()
	if err != nil {
		return err
	}

	card := image.NewNRGBA(image.Rect(0, 0, CarrierWidth, CarrierHeight))
	draw.Draw(card, card.Bounds(), image.NewUniform(cardColor), image.Point{}, draw.Src)
	if c.Label != nil {
		draw.Draw(card, labelRect, c.Label.Paletted(palette.Default), image.Point{}, draw.Src)
	}

	m, err := EmbedROM(card, rom)
	if err != nil {
		return err
	}
	return png.Encode(w, m)
}
