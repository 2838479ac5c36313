package meta

import (
	"errors"
	"testing"

	"github.com/coregx/derivre/syntax"
)

func TestCache_Get(t *testing.T) {
	c, err := NewCache(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	e1, err := c.Get(`a+b`, 0)
	if err != nil {
		t.Fatal(err)
	}
	c.Wait()

	e2, err := c.Get(`a+b`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e1 != e2 {
		t.Error("second Get should return the cached engine")
	}

	e3, err := c.Get(`a+b`, syntax.IgnoreCase)
	if err != nil {
		t.Fatal(err)
	}
	if e1 == e3 {
		t.Error("flags must be part of the cache key")
	}
	if !e3.IsMatch("AAB") {
		t.Error("case-insensitive engine should match AAB")
	}
	if e1.IsMatch("AAB") {
		t.Error("case-sensitive engine should not match AAB")
	}

	if got, want := c.Stats(), (CacheStats{Hits: 1, Misses: 2}); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestCache_Disabled(t *testing.T) {
	config := DefaultConfig()
	config.CacheSize = 0
	c, err := NewCache(config)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	e1, err := c.Get(`x`, 0)
	if err != nil {
		t.Fatal(err)
	}
	c.Wait()
	e2, err := c.Get(`x`, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e1 == e2 {
		t.Error("disabled cache returned the same engine twice")
	}
	if got, want := c.Stats(), (CacheStats{Misses: 2}); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestCache_Errors(t *testing.T) {
	config := DefaultConfig()
	config.CacheSize = -5
	if _, err := NewCache(config); err == nil {
		t.Error("NewCache with negative size should fail")
	}

	c, err := NewCache(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err = c.Get(`(`, 0); !errors.Is(err, syntax.ErrMissingParen) {
		t.Errorf("Get(\"(\") error = %v, want ErrMissingParen", err)
	}
}

func TestCacheKey(t *testing.T) {
	if cacheKey("a", syntax.IgnoreCase) == cacheKey("a", 0) {
		t.Error("flags do not change the key")
	}
	if cacheKey("i/a", 0) == cacheKey("a", syntax.IgnoreCase) {
		t.Error("pattern text collides with the flag encoding")
	}
}
