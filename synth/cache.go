package synth

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Generator renders one waveform request.
type Generator interface {
	Generate(kind Kind, freq float64, sampleCount int, volume float64) (Wave, error)
}

// Key identifies a cached buffer. Volume is deliberately not part of it: a
// render uses one volume per track count, and the buffer cached for a key
// keeps whatever volume was requested first.
type Key struct {
	Kind        Kind
	Frequency   float64
	SampleCount int
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%016x/%d", int(k.Kind), math.Float64bits(k.Frequency), k.SampleCount)
}

// Cache memoizes a Generator. Each key is synthesized at most once, also under
// concurrent Get calls; readers of a resolved key only take a read lock.
// Returned waves are shared between callers and must not be modified.
type Cache struct {
	gen Generator

	mu      sync.RWMutex
	entries map[Key]Wave
	group   singleflight.Group

	hits      atomic.Int64
	syntheses atomic.Int64
}

// NewCache returns an empty cache in front of gen.
func NewCache(gen Generator) *Cache {
	return &Cache{gen: gen, entries: make(map[Key]Wave)}
}

func (c *Cache) lookup(k Key) (Wave, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.entries[k]
	return w, ok
}

// Get returns the buffer for (kind, freq, sampleCount), synthesizing it with
// volume on a miss. On a hit volume is ignored.
func (c *Cache) Get(kind Kind, freq float64, sampleCount int, volume float64) (Wave, error) {
	k := Key{Kind: kind, Frequency: freq, SampleCount: sampleCount}
	if w, ok := c.lookup(k); ok {
		c.hits.Add(1)
		return w, nil
	}
	v, err, _ := c.group.Do(k.String(), func() (any, error) {
		// A flight for k may have finished between lookup and Do.
		if w, ok := c.lookup(k); ok {
			return w, nil
		}
		w, err := c.gen.Generate(kind, freq, sampleCount, volume)
		if err != nil {
			return nil, err
		}
		c.syntheses.Add(1)
		c.mu.Lock()
		c.entries[k] = w
		c.mu.Unlock()
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Wave), nil
}

// Len is the number of cached buffers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Syntheses counts calls that reached the generator and succeeded.
func (c *Cache) Syntheses() int64 {
	return c.syntheses.Load()
}

// Hits counts Get calls served from the map without a flight.
func (c *Cache) Hits() int64 {
	return c.hits.Load()
}

// Clear drops every cached buffer.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]Wave)
	c.mu.Unlock()
}
