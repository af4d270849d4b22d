package cart

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bodgit/picocart/fault"
)

var (
	legacyMagic = []byte(":c:\x00")
	pxaMagic    = []byte("\x00pxa")
)

const (
	legacyHeader = 8
	pxaHeader    = 8

	legacyLiteral = 0x3c
	legacyLUT     = "\n 0123456789abcdefghijklmnopqrstuvwxyz!#%(){}[]<>+=/*:;.,~_"
)

// decompress recovers the code bytes from the code region of a memory image.
// Code that carries neither compression header is stored as is, terminated
// by the first NUL.
func decompress(b []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(b, pxaMagic):
		return decompressPXA(b)
	case bytes.HasPrefix(b, legacyMagic):
		return decompressLegacy(b)
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return append([]byte(nil), b...), nil
}

func errDecompression(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", fault.ErrDecompression, fmt.Sprintf(format, a...))
}

// backReference appends length bytes copied from offset bytes back. The
// ranges may overlap.
func backReference(out []byte, offset, length int) ([]byte, error) {
	if offset <= 0 || offset > len(out) {
		return nil, errDecompression("offset %d with %d bytes output", offset, len(out))
	}
	start := len(out) - offset
	for i := 0; i < length; i++ {
		out = append(out, out[start+i])
	}
	return out, nil
}

func decompressLegacy(b []byte) ([]byte, error) {
	if len(b) < legacyHeader {
		return nil, errDecompression("short header")
	}
	size := int(binary.BigEndian.Uint16(b[4:]))
	out := make([]byte, 0, size)

	pos := legacyHeader
	next := func() (byte, error) {
		if pos >= len(b) {
			return 0, errDecompression("truncated at %d of %d bytes", len(out), size)
		}
		c := b[pos]
		pos++
		return c, nil
	}

	for len(out) < size {
		c, err := next()
		if err != nil {
			return nil, err
		}
		switch {
		case c == 0:
			if c, err = next(); err != nil {
				return nil, err
			}
			out = append(out, c)
		case c < legacyLiteral:
			out = append(out, legacyLUT[c-1])
		default:
			c2, err := next()
			if err != nil {
				return nil, err
			}
			offset := int(c-legacyLiteral)*16 + int(c2&0xf)
			length := int(c2>>4) + 2
			if out, err = backReference(out, offset, length); err != nil {
				return nil, err
			}
		}
	}
	return out[:size], nil
}

// bitReader reads a stream least significant bit first.
type bitReader struct {
	data []byte
	pos  int
	err  error
}

func (r *bitReader) readBit() int {
	if r.pos >= len(r.data)*8 {
		if r.err == nil {
			r.err = errDecompression("bit stream exhausted")
		}
		return 0
	}
	bit := r.data[r.pos>>3] >> uint(r.pos&7) & 1
	r.pos++
	return int(bit)
}

func (r *bitReader) readBits(n int) int {
	val := 0
	for i := 0; i < n; i++ {
		val |= r.readBit() << uint(i)
	}
	return val
}

// Literal indices 240-255 need a unary prefix of 4. Anything longer is
// corrupt.
const maxUnary = 4

func decompressPXA(b []byte) ([]byte, error) {
	if len(b) < pxaHeader {
		return nil, errDecompression("short header")
	}
	size := int(binary.BigEndian.Uint16(b[4:]))
	compressed := int(binary.BigEndian.Uint16(b[6:]))
	if compressed < pxaHeader || compressed > len(b) {
		compressed = len(b)
	}

	var mtf [256]byte
	for i := range mtf {
		mtf[i] = byte(i)
	}

	r := &bitReader{data: b[pxaHeader:compressed]}
	out := make([]byte, 0, size)
	for len(out) < size && r.err == nil {
		if r.readBit() == 1 {
			unary := 0
			for r.readBit() == 1 && r.err == nil {
				if unary++; unary > maxUnary {
					return nil, errDecompression("literal prefix longer than %d bits", maxUnary)
				}
			}
			index := r.readBits(4+unary) + ((1<<uint(unary))-1)<<4
			if index < 0 || index >= len(mtf) {
				return nil, errDecompression("literal index %d", index)
			}
			c := mtf[index]
			copy(mtf[1:index+1], mtf[:index])
			mtf[0] = c
			out = append(out, c)
			continue
		}

		bits := 15
		if r.readBit() == 1 {
			bits = 10
			if r.readBit() == 1 {
				bits = 5
			}
		}
		offset := r.readBits(bits) + 1

		if bits == 10 && offset == 1 {
			for r.err == nil {
				c := byte(r.readBits(8))
				if c == 0 {
					break
				}
				out = append(out, c)
			}
			continue
		}

		length := 3
		for {
			part := r.readBits(3)
			length += part
			if part != 7 || r.err != nil {
				break
			}
		}
		var err error
		if out, err = backReference(out, offset, length); err != nil {
			return nil, err
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}
