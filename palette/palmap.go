package palette

import (
	"encoding/binary"
	"hash"
	"image/color"
)

const mapSize = 256

// PalMap remaps colour indices and marks some of them transparent.
type PalMap struct {
	remap        [mapSize]uint8
	transparency [mapSize / 64]uint64
}

// NewPalMap returns the identity mapping with colour 0 transparent.
func NewPalMap() *PalMap {
	pm := new(PalMap)
	pm.Reset()
	pm.ResetTransparency()
	return pm
}

// Remap draws colour old as colour new from now on.
func (pm *PalMap) Remap(old, new uint8) {
	pm.remap[old] = new
}

// Reset restores the identity mapping. Transparency is left alone.
func (pm *PalMap) Reset() {
	for i := range pm.remap {
		pm.remap[i] = uint8(i)
	}
}

// SetTransparent marks colour i as transparent or opaque.
func (pm *PalMap) SetTransparent(i uint8, transparent bool) {
	if transparent {
		pm.transparency[i>>6] |= 1 << (i & 63)
	} else {
		pm.transparency[i>>6] &^= 1 << (i & 63)
	}
}

// ResetTransparency makes colour 0 the only transparent colour.
func (pm *PalMap) ResetTransparency() {
	pm.transparency = [mapSize / 64]uint64{1}
}

// Map returns the colour index that i is drawn as.
func (pm *PalMap) Map(i uint8) uint8 {
	return pm.remap[i]
}

// Transparent reports whether colour i is transparent. Transparency applies
// to the index before remapping.
func (pm *PalMap) Transparent(i uint8) bool {
	return pm.transparency[i>>6]&(1<<(i&63)) != 0
}

// Color resolves colour index i through the map and p. Transparent colours
// resolve to the zero colour.
func (pm *PalMap) Color(p Palette, i uint8) (color.RGBA, error) {
	if pm.Transparent(i) {
		return color.RGBA{}, nil
	}
	return p.At(int(pm.Map(i)))
}

// Hash writes the content of the map to h.
func (pm *PalMap) Hash(h hash.Hash) {
	_, _ = h.Write(pm.remap[:])
	var b [8]byte
	for _, t := range pm.transparency {
		binary.LittleEndian.PutUint64(b[:], t)
		_, _ = h.Write(b[:])
	}
}
