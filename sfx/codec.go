package sfx

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/bodgit/picocart/fault"
)

const (
	// BinarySize is the size in bytes of one stored sound effect
	BinarySize = NotesPerSfx*2 + 4

	headerDigits = 8
	noteDigits   = 5
)

func nybble(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("%w: %q", fault.ErrUnexpectedHex, c)
}

func hexByte(s string) (uint8, error) {
	hi, err := nybble(s[0])
	if err != nil {
		return 0, err
	}
	lo, err := nybble(s[1])
	if err != nil {
		return 0, err
	}
	return hi<<4 | lo, nil
}

// ParseText decodes one line of a text cartridge's sound section. The line
// is an 8 digit header of editor mode, speed, loop start and loop end
// followed by 5 digits per note: two for the pitch then one each for the
// waveform, volume and effect. A waveform digit of 8 or more selects a
// custom instrument.
func ParseText(line string) (*Sfx, error) {
	line = strings.TrimSpace(line)
	if len(line) < headerDigits {
		return nil, fmt.Errorf("%w: sfx header", fault.ErrMissing)
	}

	var header [4]uint8
	for i := range header {
		b, err := hexByte(line[i*2:])
		if err != nil {
			return nil, err
		}
		header[i] = b
	}

	body := line[headerDigits:]
	if len(body)%noteDigits != 0 {
		return nil, fmt.Errorf("%w: note %d is incomplete", fault.ErrMissing, len(body)/noteDigits)
	}

	notes := make([]Note, 0, len(body)/noteDigits)
	for i := 0; i < len(body); i += noteDigits {
		n, err := parseNote(body[i : i+noteDigits])
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", i/noteDigits, err)
		}
		notes = append(notes, n)
	}

	return newSfx(notes, header[0], header[1], header[2], header[3]), nil
}

func parseNote(s string) (Note, error) {
	pitch, err := hexByte(s)
	if err != nil {
		return 0, err
	}
	var fields [3]uint8
	for i := range fields {
		if fields[i], err = nybble(s[2+i]); err != nil {
			return 0, err
		}
	}
	wave, volume, effect := fields[0], fields[1], fields[2]
	n, err := NewNote(pitch, Wave(wave&maxWave), volume, Effect(effect))
	if err != nil {
		return 0, err
	}
	return n.WithCustom(wave > maxWave), nil
}

// MarshalText encodes s as a text cartridge line. The notes are padded with
// silence to NotesPerSfx.
func (s *Sfx) MarshalText() ([]byte, error) {
	if len(s.Notes) > NotesPerSfx {
		return nil, fmt.Errorf("%w: %d notes", fault.ErrUnsupportedEncoding, len(s.Notes))
	}
	start, end := s.loopBytes()

	var b strings.Builder
	fmt.Fprintf(&b, "%02x%02x%02x%02x", s.Editor, s.Speed, start, end)
	for i := 0; i < NotesPerSfx; i++ {
		var n Note
		if i < len(s.Notes) {
			n = s.Notes[i]
		}
		wave := uint8(n.Wave())
		if n.Custom() {
			wave |= 8
		}
		fmt.Fprintf(&b, "%02x%x%x%x", n.RawPitch(), wave, n.Volume(), uint8(n.Effect()))
	}
	return []byte(b.String()), nil
}

func (s *Sfx) loopBytes() (uint8, uint8) {
	if s.Loop == nil {
		return 0, 0
	}
	return uint8(s.Loop.Start), uint8(s.Loop.End)
}

// UnmarshalBinary decodes a BinarySize record: 32 little-endian notes
// followed by the editor mode, speed, loop start and loop end bytes.
func (s *Sfx) UnmarshalBinary(b []byte) error {
	if len(b) != BinarySize {
		return fmt.Errorf("%w: sfx record is %d bytes, expected %d", fault.ErrMissing, len(b), BinarySize)
	}
	notes := make([]Note, NotesPerSfx)
	for i := range notes {
		notes[i] = Note(binary.LittleEndian.Uint16(b[i*2:]))
	}
	c := b[NotesPerSfx*2:]
	*s = *newSfx(notes, c[0], c[1], c[2], c[3])
	return nil
}

// MarshalBinary encodes s as a BinarySize record.
func (s *Sfx) MarshalBinary() ([]byte, error) {
	if len(s.Notes) > NotesPerSfx {
		return nil, fmt.Errorf("%w: %d notes", fault.ErrUnsupportedEncoding, len(s.Notes))
	}
	b := make([]byte, BinarySize)
	for i, n := range s.Notes {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(n))
	}
	start, end := s.loopBytes()
	copy(b[NotesPerSfx*2:], []byte{s.Editor, s.Speed, start, end})
	return b, nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode(b []byte) (*Sfx, error) {
	s := new(Sfx)
	if err := s.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return s, nil
}
