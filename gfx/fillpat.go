package gfx

// FillPat is a 4 by 4 repeating pattern packed into 16 bits, with the top
// left pixel in the most significant bit.
type FillPat uint16

func fillBit(x, y int) uint {
	return 15 - uint(x&3+(y&3)*4)
}

// Get reports whether the pattern bit covering (x, y) is set.
func (f FillPat) Get(x, y int) bool {
	return f>>fillBit(x, y)&1 != 0
}

// Set returns the pattern with the bit covering (x, y) changed.
func (f FillPat) Set(x, y int, v bool) FillPat {
	if v {
		return f | 1<<fillBit(x, y)
	}
	return f &^ (1 << fillBit(x, y))
}
