package meta

import (
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sys/cpu"

	"github.com/coregx/derivre/syntax"
)

// Cache keeps compiled engines keyed by pattern and flags. It is safe for
// concurrent use. Compiling the same pattern twice from different
// goroutines may build two engines; both are equivalent.
type Cache struct {
	// hits and misses are updated on every lookup from many goroutines.
	hits   atomic.Uint64
	_      cpu.CacheLinePad
	misses atomic.Uint64
	_      cpu.CacheLinePad

	config  Config
	engines *ristretto.Cache[string, *Engine]
}

// CacheStats reports lookup counts of a Cache.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// NewCache creates a cache holding up to config.CacheSize engines, all
// compiled with config. A zero CacheSize returns a cache that compiles on
// every lookup.
func NewCache(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Cache{config: config}
	if config.CacheSize == 0 {
		return c, nil
	}
	engines, err := ristretto.NewCache[string, *Engine](&ristretto.Config[string, *Engine]{
		NumCounters: config.CacheSize * 10,
		MaxCost:     config.CacheSize,
		BufferItems: 16,
		Metrics:     true,
		Cost: func(*Engine) int64 {
			return 1
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "while creating engine cache of size %d", config.CacheSize)
	}
	c.engines = engines
	return c, nil
}

// Get returns the engine for pattern and flags, compiling it on a miss.
func (c *Cache) Get(pattern string, flags syntax.Flags) (*Engine, error) {
	key := cacheKey(pattern, flags)
	if c.engines != nil {
		if e, ok := c.engines.Get(key); ok {
			c.hits.Add(1)
			return e, nil
		}
	}
	c.misses.Add(1)
	if glog.V(3) {
		glog.Infof("Engine cache miss for %q (flags %q)", pattern, flags)
	}

	e, err := Compile(pattern, flags, c.config)
	if err != nil {
		return nil, err
	}
	if c.engines != nil {
		c.engines.Set(key, e, 1)
	}
	return e, nil
}

// Wait blocks until pending insertions are visible to Get.
func (c *Cache) Wait() {
	if c.engines != nil {
		c.engines.Wait()
	}
}

// Stats returns the number of lookups served from the cache and the number
// that compiled.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	if c.engines != nil {
		c.engines.Close()
	}
}

func cacheKey(pattern string, flags syntax.Flags) string {
	return flags.String() + "/" + pattern
}
