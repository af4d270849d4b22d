/*
Package cart decodes game cartridges.

Cartridges come in two encodings. The text encoding is a series of
"__name__" delimited sections of hex digits. The image encoding hides a
32KiB memory image in the low bits of a 160x205 PNG, with the code region
optionally compressed. Both decode to the same Cart.

Memory image layout:

	0x0000-0x1fff  sprite sheet, 128x128 4 bit pixels
	0x2000-0x2fff  map, 128x32 tiles
	0x3000-0x30ff  sprite flags
	0x3100-0x31ff  music patterns, 4 bytes each
	0x3200-0x42ff  sound effects, 68 bytes each
	0x4300-0x7fff  code
	0x8000         version
*/
package cart

import (
	"fmt"
	"strings"

	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/sfx"
)

const (
	// SheetWidth is the width of the sprite sheet in pixels
	SheetWidth = 128

	// SheetHeight is the height of the sprite sheet in pixels
	SheetHeight = 128

	// MapWidth is the row width of the map in tiles
	MapWidth = 128

	// SfxCount is the number of sound effect slots
	SfxCount = 64

	// MusicCount is the number of music pattern slots
	MusicCount = 64

	gfxOffset   = 0x0000
	mapOffset   = 0x2000
	flagsOffset = 0x3000
	musicOffset = 0x3100
	sfxOffset   = 0x3200
	codeOffset  = 0x4300
	codeEnd     = 0x8000

	romSize     = 0x8000
	versionByte = 0x8000
	payloadSize = 0x8005

	mapSize   = flagsOffset - mapOffset
	flagsSize = musicOffset - flagsOffset
	codeSize  = codeEnd - codeOffset
)

// Music is one music pattern: the sound effects played together on the
// enabled channels plus the flow control flags.
type Music struct {
	Begin    bool
	End      bool
	Stop     bool
	Patterns []uint8
}

// Cart is a decoded cartridge.
type Cart struct {
	Version int
	Lua     string
	Gfx     *gfx.Gfx
	Label   *gfx.Gfx
	Map     []byte
	Flags   []byte
	Sfx     []*sfx.Sfx
	Music   []Music
}

// Title returns the text of the first line of code if it is a comment.
func (c *Cart) Title() string {
	return c.comment(0)
}

// Author returns the text of the second line of code if both it and the
// first line are comments.
func (c *Cart) Author() string {
	if c.comment(0) == "" {
		return ""
	}
	return c.comment(1)
}

func (c *Cart) comment(n int) string {
	lines := strings.SplitN(c.Lua, "\n", n+2)
	if len(lines) <= n {
		return ""
	}
	line := strings.TrimSpace(lines[n])
	if !strings.HasPrefix(line, "--") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "--"))
}

// Tile returns the map tile at (x, y), or 0 outside the map.
func (c *Cart) Tile(x, y int) uint8 {
	if x < 0 || y < 0 || x >= MapWidth {
		return 0
	}
	i := x + y*MapWidth
	if i >= len(c.Map) {
		return 0
	}
	return c.Map[i]
}

// Flag returns the flags of sprite n.
func (c *Cart) Flag(n int) uint8 {
	if n < 0 || n >= len(c.Flags) {
		return 0
	}
	return c.Flags[n]
}

// SectionError records the section and line of a text cartridge that failed
// to decode.
type SectionError struct {
	Section string
	Line    int
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("cart: __%s__ line %d: %v", e.Section, e.Line, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}
