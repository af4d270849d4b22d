/*
Package lifecycle tracks the ephemeral draw primitives a renderer creates
every frame and decides which of them to keep.

Every time a primitive is issued it is stamped with the next value of a
generation counter owned by the Cache. At the start of a frame the host takes
a Mark; once all of the frame's draw calls are done it passes that mark to
Sweep. Primitives stamped before the mark were not drawn this frame: they are
hidden for a few grace sweeps and then destroyed. Primitives stamped at or
after the mark are kept, their generation reset and their depth renumbered.

Primitives may carry a content Key so that a draw call with identical
parameters reuses the primitive from the previous frame.
*/
package lifecycle

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io/ioutil"
	"log"
	"sort"

	"github.com/bodgit/picocart/fault"
)

const (
	// DefaultTTL is the number of hidden sweeps an untouched primitive
	// survives before it is destroyed
	DefaultTTL = 1

	// DefaultExpectedPerFrame scales generations into depth suggestions
	DefaultExpectedPerFrame = 1024
)

// ID identifies a live primitive.
type ID uint64

// Key is a content hash of the parameters that produced a primitive. The
// zero Key means the primitive has no content hash.
type Key uint64

// MakeKey hashes the parameters of a draw call.
func MakeKey(values ...int64) Key {
	h := fnv.New64a()
	var b [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		_, _ = h.Write(b[:])
	}
	if k := Key(h.Sum64()); k != 0 {
		return k
	}
	return 1
}

// Clearable is the lifecycle state of one primitive.
type Clearable struct {
	Generation uint64
	TTL        int
	Key        Key
	Depth      float64
	Visible    bool
}

// Options configures a Cache.
type Options struct {
	// TTL is the number of grace sweeps. Zero selects DefaultTTL and a
	// negative value destroys untouched primitives on the first sweep.
	TTL int

	// ExpectedPerFrame is the number of primitives a frame is expected to
	// issue. Zero selects DefaultExpectedPerFrame.
	ExpectedPerFrame int

	// CounterStart is the first generation handed out.
	CounterStart uint64

	// OnDestroy is called for every primitive the cache destroys.
	OnDestroy func(ID, Clearable)

	Logger *log.Logger
}

// Stats summarises one sweep.
type Stats struct {
	Fresh     int
	Hidden    int
	Destroyed int
}

// Cache owns the generation counter and the live primitives.
type Cache struct {
	ttl      int
	perFrame float64
	onDelete func(ID, Clearable)
	logger   *log.Logger

	counter uint64
	wrapped bool
	nextID  ID

	live   map[ID]*Clearable
	byHash map[Key]ID
}

// New returns an empty Cache.
func New(opts Options) *Cache {
	c := &Cache{
		ttl:      opts.TTL,
		perFrame: float64(opts.ExpectedPerFrame),
		onDelete: opts.OnDestroy,
		logger:   opts.Logger,
		counter:  opts.CounterStart,
		nextID:   1,
		live:     make(map[ID]*Clearable),
		byHash:   make(map[Key]ID),
	}
	switch {
	case c.ttl == 0:
		c.ttl = DefaultTTL
	case c.ttl < 0:
		c.ttl = 0
	}
	if c.perFrame <= 0 {
		c.perFrame = DefaultExpectedPerFrame
	}
	if c.logger == nil {
		c.logger = log.New(ioutil.Discard, "", 0)
	}
	return c
}

// NextGeneration returns the next generation and advances the counter. If
// the counter wraps every live primitive is reset to generation 0 and the
// following sweep treats them all as fresh.
func (c *Cache) NextGeneration() uint64 {
	g := c.counter
	c.counter++
	if c.counter == 0 {
		c.logger.Printf("Generation counter wrapped, resetting %d primitives\n", len(c.live))
		for _, p := range c.live {
			p.Generation = 0
		}
		c.wrapped = true
	}
	return g
}

// Mark returns the generation the next primitive will be stamped with. Taken
// at the start of a frame it is the ceiling to pass to Sweep at the end.
func (c *Cache) Mark() uint64 {
	return c.counter
}

func (c *Cache) suggestDepth(g uint64) float64 {
	return float64(g) / c.perFrame
}

func (c *Cache) stamp(p *Clearable) {
	p.Generation = c.NextGeneration()
	p.TTL = c.ttl
	p.Depth = c.suggestDepth(p.Generation)
	p.Visible = true
}

// Issue creates a primitive, or refreshes the one already created with the
// same non-zero key. The second return value reports whether an existing
// primitive was reused.
func (c *Cache) Issue(key Key) (ID, bool) {
	if key != 0 {
		if id, ok := c.byHash[key]; ok {
			c.stamp(c.live[id])
			return id, true
		}
	}

	id := c.nextID
	c.nextID++

	p := &Clearable{Key: key}
	c.stamp(p)
	c.live[id] = p
	if key != 0 {
		c.byHash[key] = id
	}
	return id, false
}

// Refresh stamps an existing primitive as drawn this frame.
func (c *Cache) Refresh(id ID) error {
	p, ok := c.live[id]
	if !ok {
		return fmt.Errorf("%w: primitive %d", fault.ErrResourceNotFound, id)
	}
	c.stamp(p)
	return nil
}

// Lookup returns the primitive created with key, if it is still alive.
func (c *Cache) Lookup(key Key) (ID, bool) {
	if key == 0 {
		return 0, false
	}
	id, ok := c.byHash[key]
	return id, ok
}

// Get returns a copy of the state of a primitive.
func (c *Cache) Get(id ID) (Clearable, bool) {
	p, ok := c.live[id]
	if !ok {
		return Clearable{}, false
	}
	return *p, true
}

// Len returns the number of live primitives.
func (c *Cache) Len() int {
	return len(c.live)
}

// Remove destroys a primitive immediately.
func (c *Cache) Remove(id ID) {
	p, ok := c.live[id]
	if !ok {
		return
	}
	c.destroy(id, p)
}

func (c *Cache) destroy(id ID, p *Clearable) {
	delete(c.live, id)
	if p.Key != 0 && c.byHash[p.Key] == id {
		delete(c.byHash, p.Key)
	}
	if c.onDelete != nil {
		c.onDelete(id, *p)
	}
}

// Sweep ages every primitive stamped before ceiling and resets the rest. It
// must run after all draw calls of a frame and before any of the next.
func (c *Cache) Sweep(ceiling uint64) Stats {
	if c.wrapped {
		ceiling = 0
		c.wrapped = false
	}

	var stats Stats
	fresh := make([]ID, 0, len(c.live))
	for id, p := range c.live {
		if p.Generation >= ceiling {
			fresh = append(fresh, id)
			continue
		}
		if p.TTL == 0 {
			c.destroy(id, p)
			stats.Destroyed++
			continue
		}
		p.TTL--
		p.Visible = false
		stats.Hidden++
	}

	sort.Slice(fresh, func(i, j int) bool { return fresh[i] < fresh[j] })
	sort.SliceStable(fresh, func(i, j int) bool {
		return c.live[fresh[i]].Depth < c.live[fresh[j]].Depth
	})
	for i, id := range fresh {
		p := c.live[id]
		p.Generation = 0
		p.Depth = float64(i + 1)
	}
	stats.Fresh = len(fresh)

	return stats
}
