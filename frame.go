package picocart

import (
	"image"
	"io/ioutil"
	"log"
	"sort"

	"github.com/bodgit/picocart/cart"
	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/handles"
	"github.com/bodgit/picocart/lifecycle"
	"github.com/bodgit/picocart/palette"
	"github.com/bodgit/picocart/synth"
)

const (
	spriteSize    = 8
	spritesPerRow = cart.SheetWidth / spriteSize
)

// Sprite is one sprite draw call kept alive by a Frame.
type Sprite struct {
	ID     lifecycle.ID
	Handle handles.Handle
	N      int
	X, Y   int
	Depth  float64
}

// FrameOptions configures a Frame.
type FrameOptions struct {
	Lifecycle lifecycle.Options
	Handles   handles.Options
	Audio     synth.Options
	Logger    *log.Logger
}

// Frame drives the per-frame draw state for one cartridge. Draw state that
// cannot be resolved is logged and replaced, never returned as an error.
type Frame struct {
	cart    *cart.Cart
	store   handles.Store
	prims   *lifecycle.Cache
	bitmaps *handles.Cache
	audio   synth.Options
	logger  *log.Logger

	Palette palette.Palette
	PalMap  *palette.PalMap
	Fill    gfx.FillPat

	mark    uint64
	sprites map[lifecycle.ID]*Sprite
	blank   *gfx.Gfx
}

// NewFrame returns a Frame drawing from c into store.
func NewFrame(c *cart.Cart, store handles.Store, opts FrameOptions) *Frame {
	f := &Frame{
		cart:    c,
		store:   store,
		audio:   opts.Audio,
		logger:  opts.Logger,
		Palette: palette.Default,
		PalMap:  palette.NewPalMap(),
		sprites: make(map[lifecycle.ID]*Sprite),
	}
	if f.logger == nil {
		f.logger = log.New(ioutil.Discard, "", 0)
	}

	lo := opts.Lifecycle
	onDestroy := lo.OnDestroy
	lo.OnDestroy = func(id lifecycle.ID, p lifecycle.Clearable) {
		delete(f.sprites, id)
		if onDestroy != nil {
			onDestroy(id, p)
		}
	}
	if lo.Logger == nil {
		lo.Logger = f.logger
	}
	f.prims = lifecycle.New(lo)

	ho := opts.Handles
	if ho.Logger == nil {
		ho.Logger = f.logger
	}
	render := ho.Render
	ho.Render = func(r handles.Request) *image.RGBA {
		r.Gfx = f.cut(r)
		if render != nil {
			return render(r)
		}
		return f.bitmaps.Render(r)
	}
	f.bitmaps = handles.New(store, ho)

	f.blank, _ = gfx.New(spriteSize, spriteSize, 4)

	return f
}

// Begin starts a frame.
func (f *Frame) Begin() {
	f.mark = f.prims.Mark()
}

func (f *Frame) valid(n int) bool {
	if f.cart.Gfx == nil {
		f.logger.Printf("Sprite %d drawn from a cartridge with no sprite sheet\n", n)
		return false
	}
	rows := f.cart.Gfx.Height() / spriteSize
	if n < 0 || n >= spritesPerRow*rows {
		f.logger.Printf("Sprite %d is outside the sprite sheet\n", n)
		return false
	}
	return true
}

// cut copies the sprite a request names out of the sprite sheet. It only
// runs when the bitmap cache has nothing for the request.
func (f *Frame) cut(r handles.Request) *gfx.Gfx {
	if r.GfxID == 0 || r.Gfx != f.cart.Gfx {
		return r.Gfx
	}
	n := int(r.GfxID - 1)
	g, err := r.Gfx.Sub(n%spritesPerRow*spriteSize, n/spritesPerRow*spriteSize, spriteSize, spriteSize)
	if err != nil {
		f.logger.Printf("Sprite %d: %v\n", n, err)
		return f.blank
	}
	return g
}

// Sprite draws sprite n at x, y with the current palette state. A call with
// the same parameters as one in the previous frame reuses its primitive.
func (f *Frame) Sprite(n, x, y int) *Sprite {
	req := handles.Request{
		Gfx:     f.blank,
		Palette: f.Palette,
		PalMap:  f.PalMap,
		Fill:    f.Fill,
	}
	// The sprite number stands in for the sheet pixels in the key.
	if f.valid(n) {
		req.Gfx = f.cart.Gfx
		req.GfxID = uint64(n) + 1
	}

	id, _ := f.prims.Issue(lifecycle.MakeKey(int64(n), int64(x), int64(y), int64(req.Key())))

	h, err := f.bitmaps.GetOrCreate(req)
	if err != nil {
		f.logger.Printf("Sprite %d: %v\n", n, err)
	}

	s, ok := f.sprites[id]
	if !ok {
		s = &Sprite{ID: id, N: n, X: x, Y: y}
		f.sprites[id] = s
	}
	s.Handle = h
	if p, ok := f.prims.Get(id); ok {
		s.Depth = p.Depth
	}
	return s
}

// End finishes a frame, hiding or destroying the sprites not drawn since
// Begin, and releasing bitmaps no longer in use.
func (f *Frame) End() lifecycle.Stats {
	stats := f.prims.Sweep(f.mark)
	f.bitmaps.Tick()
	return stats
}

// Visible returns the sprites drawn in the last frame in depth order.
func (f *Frame) Visible() []Sprite {
	var out []Sprite
	for id, s := range f.sprites {
		p, ok := f.prims.Get(id)
		if !ok || !p.Visible {
			continue
		}
		s.Depth = p.Depth
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}

// SoundEffect returns a player for sound effect n. Indices with no sound
// effect play silence.
func (f *Frame) SoundEffect(n int) *synth.Player {
	if n < 0 || n >= len(f.cart.Sfx) || f.cart.Sfx[n] == nil {
		f.logger.Printf("No sound effect %d, playing silence\n", n)
		return synth.Silence()
	}
	return synth.New(f.cart.Sfx[n], f.audio)
}
