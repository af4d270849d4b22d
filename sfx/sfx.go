package sfx

import (
	"sync/atomic"
)

const (
	// NotesPerSfx is the number of note slots in a stored sound effect
	NotesPerSfx = 32

	// DefaultSpeed is the speed used for an unset speed byte
	DefaultSpeed = 16
)

// ReleaseFlag is shared between a playing sound effect and the code that
// wants it to leave its loop. It is safe to set from another goroutine.
type ReleaseFlag struct {
	released atomic.Bool
}

// Release lets the loop finish its current pass and then fall through.
func (r *ReleaseFlag) Release() {
	r.released.Store(true)
}

// Released reports whether Release has been called.
func (r *ReleaseFlag) Released() bool {
	return r.released.Load()
}

// Loop is an inclusive range of note indices that repeats. Without a release
// flag the loop never ends.
type Loop struct {
	Start, End int

	release *ReleaseFlag
}

// Stoppable reports whether the loop can be released.
func (l *Loop) Stoppable() bool {
	return l.release != nil
}

// Wraps reports whether playback at the loop end should return to the loop
// start.
func (l *Loop) Wraps() bool {
	return l.release == nil || !l.release.Released()
}

// Sfx is an ordered sequence of notes played at a fixed speed, in ticks per
// note, with an optional loop.
type Sfx struct {
	Notes  []Note
	Speed  uint8
	Editor uint8
	Loop   *Loop
}

// Clone returns a deep copy. A stoppable loop keeps sharing its flag.
func (s *Sfx) Clone() *Sfx {
	dup := *s
	dup.Notes = append([]Note(nil), s.Notes...)
	if s.Loop != nil {
		l := *s.Loop
		dup.Loop = &l
	}
	return &dup
}

// Stoppable returns a copy of s whose loop can be released with the returned
// flag. If s has no loop the copy is returned with a nil flag.
func (s *Sfx) Stoppable() (*Sfx, *ReleaseFlag) {
	dup := s.Clone()
	if dup.Loop == nil {
		return dup, nil
	}
	dup.Loop.release = new(ReleaseFlag)
	return dup, dup.Loop.release
}

// newSfx applies the loop header rules to a full set of notes:
//
//	end == 0              no loop, truncated to start notes when start > 0
//	0 < end < start       the first start notes are dropped, no loop
//	end > start           notes start to end inclusive repeat
//
// Trailing silent notes are then trimmed, never cutting into a loop or a
// truncation.
func newSfx(notes []Note, editor, speed, start, end uint8) *Sfx {
	s := &Sfx{
		Editor: editor,
		Speed:  speed,
	}

	keep := 0
	switch {
	case end == 0:
		if start > 0 && int(start) < len(notes) {
			notes = notes[:start]
			keep = len(notes)
		}
	case end < start:
		if int(start) < len(notes) {
			notes = notes[start:]
		} else {
			notes = notes[:0]
		}
	case end > start:
		if int(start) < len(notes) {
			e := int(end)
			if e >= len(notes) {
				e = len(notes) - 1
			}
			s.Loop = &Loop{Start: int(start), End: e}
		}
	}

	if s.Loop != nil {
		keep = s.Loop.End + 1
	}
	n := len(notes)
	for n > keep && notes[n-1] == 0 {
		n--
	}
	s.Notes = append([]Note(nil), notes[:n]...)

	return s
}

// TicksPerNote returns the speed, substituting DefaultSpeed for 0.
func (s *Sfx) TicksPerNote() int {
	if s.Speed == 0 {
		return DefaultSpeed
	}
	return int(s.Speed)
}

// Ticks returns the length of the sound effect in ticks, counting one pass
// through any loop.
func (s *Sfx) Ticks() int {
	return s.TicksPerNote() * len(s.Notes)
}
