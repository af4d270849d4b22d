package cart

import (
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/bodgit/picocart/fault"
	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/sfx"
)

const (
	headerMagic   = "pico-8 cartridge"
	versionPrefix = "version "

	sectionLua   = "lua"
	sectionGfx   = "gfx"
	sectionLabel = "label"
	sectionGff   = "gff"
	sectionMap   = "map"
	sectionSfx   = "sfx"
	sectionMusic = "music"

	labelDepth = 8
)

var sections = map[string]bool{
	sectionLua:   true,
	sectionGfx:   true,
	sectionLabel: true,
	sectionGff:   true,
	sectionMap:   true,
	sectionSfx:   true,
	sectionMusic: true,
}

// section is the body of one delimited section. first is the line number of
// the first body line.
type section struct {
	name  string
	first int
	lines []string
}

func (s *section) errorf(i int, err error) error {
	return &SectionError{Section: s.name, Line: s.first + i, Err: err}
}

// grid returns the non-blank body with trailing blank lines removed, after
// checking every line is as long as the first.
func (s *section) grid() ([]string, error) {
	lines := s.lines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, nil
	}
	columns := len(lines[0])
	for i, line := range lines {
		if len(line) != columns {
			return nil, s.errorf(i, fmt.Errorf("%w: %d columns, expected %d", fault.ErrRaggedRow, len(line), columns))
		}
	}
	return lines, nil
}

func isDelimiter(line string) (string, bool) {
	if len(line) > 4 && strings.HasPrefix(line, "__") && strings.HasSuffix(line, "__") {
		return line[2 : len(line)-2], true
	}
	return "", false
}

// Decode reads a text cartridge from r.
func Decode(r io.Reader) (*Cart, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseText(string(b))
}

// ParseText decodes a text cartridge.
func ParseText(content string) (*Cart, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var (
		preamble []string
		current  *section
		found    = make(map[string]*section)
	)
	for i, line := range lines {
		if name, ok := isDelimiter(line); ok {
			if !sections[name] {
				return nil, &SectionError{Section: name, Line: i + 1, Err: fault.ErrUnknownHeader}
			}
			if s, ok := found[name]; ok {
				current = s
			} else {
				current = &section{name: name, first: i + 2}
				found[name] = current
			}
			continue
		}
		if current == nil {
			preamble = append(preamble, line)
			continue
		}
		current.lines = append(current.lines, line)
	}

	c := new(Cart)
	if err := c.parseHeader(preamble); err != nil {
		return nil, err
	}

	if s, ok := found[sectionLua]; ok {
		c.Lua = strings.Join(s.lines, "\n")
	}

	var err error
	if s, ok := found[sectionGfx]; ok {
		if c.Gfx, err = parseGfx(s); err != nil {
			return nil, err
		}
	}
	if s, ok := found[sectionLabel]; ok {
		if c.Label, err = parseLabel(s); err != nil {
			return nil, err
		}
	}
	if s, ok := found[sectionGff]; ok {
		if c.Flags, err = parseBytes(s); err != nil {
			return nil, err
		}
	}
	if s, ok := found[sectionMap]; ok {
		if c.Map, err = parseBytes(s); err != nil {
			return nil, err
		}
	}
	if s, ok := found[sectionSfx]; ok {
		if c.Sfx, err = parseSfx(s); err != nil {
			return nil, err
		}
	}
	if s, ok := found[sectionMusic]; ok {
		if c.Music, err = parseMusic(s); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Cart) parseHeader(lines []string) error {
	if len(lines) == 0 || !strings.HasPrefix(lines[0], headerMagic) {
		return &SectionError{Section: "header", Line: 1, Err: fmt.Errorf("%w: %q", fault.ErrMissing, headerMagic)}
	}
	for i, line := range lines[1:] {
		if !strings.HasPrefix(line, versionPrefix) {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, versionPrefix)))
		if err != nil {
			return &SectionError{Section: "header", Line: i + 2, Err: fmt.Errorf("%w: version %q", fault.ErrMalformedInput, line)}
		}
		c.Version = v
		return nil
	}
	return &SectionError{Section: "header", Line: 2, Err: fmt.Errorf("%w: version", fault.ErrMissing)}
}

func digit(c byte, base int) (uint8, error) {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		v = base
	}
	if v >= base {
		return 0, fmt.Errorf("%w: %q", fault.ErrUnexpectedHex, c)
	}
	return uint8(v), nil
}

// parsePixels decodes one digit per pixel, with the row count padded up to a
// multiple of 8.
func parsePixels(s *section, base, depth int, pad bool) (*gfx.Gfx, error) {
	lines, err := s.grid()
	if err != nil || lines == nil {
		return nil, err
	}

	rows := len(lines)
	if pad && rows%8 != 0 {
		rows += 8 - rows%8
	}
	g, err := gfx.New(len(lines[0]), rows, depth)
	if err != nil {
		return nil, err
	}

	for y, line := range lines {
		for x := 0; x < len(line); x++ {
			v, err := digit(line[x], base)
			if err != nil {
				return nil, s.errorf(y, err)
			}
			if err := g.Set(x, y, v); err != nil {
				return nil, s.errorf(y, err)
			}
		}
	}
	return g, nil
}

func parseGfx(s *section) (*gfx.Gfx, error) {
	return parsePixels(s, 16, 4, true)
}

func parseLabel(s *section) (*gfx.Gfx, error) {
	return parsePixels(s, 32, labelDepth, false)
}

func hexPair(hi, lo byte) (uint8, error) {
	h, err := digit(hi, 16)
	if err != nil {
		return 0, err
	}
	l, err := digit(lo, 16)
	if err != nil {
		return 0, err
	}
	return h<<4 | l, nil
}

// parseBytes decodes a grid of hex pairs, most significant digit first.
func parseBytes(s *section) ([]byte, error) {
	lines, err := s.grid()
	if err != nil || lines == nil {
		return nil, err
	}
	if len(lines[0])%2 != 0 {
		return nil, s.errorf(0, fmt.Errorf("%w: odd number of digits", fault.ErrMissing))
	}

	b := make([]byte, 0, len(lines)*len(lines[0])/2)
	for y, line := range lines {
		for x := 0; x < len(line); x += 2 {
			v, err := hexPair(line[x], line[x+1])
			if err != nil {
				return nil, s.errorf(y, err)
			}
			b = append(b, v)
		}
	}
	return b, nil
}

func parseSfx(s *section) ([]*sfx.Sfx, error) {
	lines, err := s.grid()
	if err != nil || lines == nil {
		return nil, err
	}

	out := make([]*sfx.Sfx, 0, len(lines))
	for i, line := range lines {
		x, err := sfx.ParseText(line)
		if err != nil {
			return nil, s.errorf(i, err)
		}
		out = append(out, x)
	}
	return out, nil
}

const (
	musicBegin   = 1 << 0
	musicEnd     = 1 << 1
	musicStop    = 1 << 2
	musicSilent  = 1 << 6
	musicSfxMask = 0x3f
)

// parseMusic decodes lines of the form "ff aabbccdd": a flags byte then one
// byte per channel. Channels with bit 6 set are disabled and dropped.
func parseMusic(s *section) ([]Music, error) {
	lines, err := s.grid()
	if err != nil || lines == nil {
		return nil, err
	}

	out := make([]Music, 0, len(lines))
	for y, line := range lines {
		if len(line) < 2 {
			return nil, s.errorf(y, fmt.Errorf("%w: music flags", fault.ErrMissing))
		}
		flags, err := hexPair(line[0], line[1])
		if err != nil {
			return nil, s.errorf(y, err)
		}

		body := strings.TrimPrefix(line[2:], " ")
		if len(body)%2 != 0 || len(body) > 8 {
			return nil, s.errorf(y, fmt.Errorf("%w: music channels %q", fault.ErrMalformedInput, body))
		}
		m := Music{
			Begin: flags&musicBegin != 0,
			End:   flags&musicEnd != 0,
			Stop:  flags&musicStop != 0,
		}
		for x := 0; x < len(body); x += 2 {
			p, err := hexPair(body[x], body[x+1])
			if err != nil {
				return nil, s.errorf(y, err)
			}
			if p&musicSilent != 0 {
				continue
			}
			m.Patterns = append(m.Patterns, p&musicSfxMask)
		}
		out = append(out, m)
	}
	return out, nil
}
