package meta

import (
	"errors"
	"strings"
	"testing"

	"github.com/coregx/derivre/nfa"
	"github.com/coregx/derivre/syntax"
)

// TestDefaultConfigValues verifies DefaultConfig returns expected field values.
func TestDefaultConfigValues(t *testing.T) {
	c := DefaultConfig()

	if c.MaxStates != 10000 {
		t.Errorf("MaxStates = %d, want 10000", c.MaxStates)
	}
	if c.MaxInstructions != 100000 {
		t.Errorf("MaxInstructions = %d, want 100000", c.MaxInstructions)
	}
	if c.MaxRecursionDepth != syntax.DefaultMaxDepth {
		t.Errorf("MaxRecursionDepth = %d, want %d", c.MaxRecursionDepth, syntax.DefaultMaxDepth)
	}
	if !c.EnablePrefilter {
		t.Error("EnablePrefilter should be true by default")
	}
	if c.MinPrefixLen != 2 {
		t.Errorf("MinPrefixLen = %d, want 2", c.MinPrefixLen)
	}
	if !c.EnableAhoCorasick {
		t.Error("EnableAhoCorasick should be true by default")
	}
	if c.CacheSize != 1024 {
		t.Errorf("CacheSize = %d, want 1024", c.CacheSize)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"zero states", func(c *Config) { c.MaxStates = 0 }, "MaxStates"},
		{"minimum states", func(c *Config) { c.MaxStates = 1 }, ""},
		{"too many states", func(c *Config) { c.MaxStates = 1_000_001 }, "MaxStates"},
		{"zero instructions", func(c *Config) { c.MaxInstructions = 0 }, "MaxInstructions"},
		{"maximum instructions", func(c *Config) { c.MaxInstructions = 10_000_000 }, ""},
		{"zero depth", func(c *Config) { c.MaxRecursionDepth = 0 }, "MaxRecursionDepth"},
		{"deep", func(c *Config) { c.MaxRecursionDepth = 100_001 }, "MaxRecursionDepth"},
		{"zero prefix", func(c *Config) { c.MinPrefixLen = 0 }, "MinPrefixLen"},
		{"zero prefix without prefilter", func(c *Config) {
			c.MinPrefixLen = 0
			c.EnablePrefilter = false
		}, ""},
		{"long prefix", func(c *Config) { c.MinPrefixLen = 65 }, "MinPrefixLen"},
		{"no cache", func(c *Config) { c.CacheSize = 0 }, ""},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }, "CacheSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(&c)
			err := c.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
			if !errors.Is(err, nfa.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap nfa.ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Error() = %q, want it to name %s", err.Error(), tt.wantField)
			}
		})
	}
}

func TestCompileRejectsInvalidConfig(t *testing.T) {
	c := DefaultConfig()
	c.MaxStates = 0
	if _, err := Compile("abc", 0, c); !errors.Is(err, nfa.ErrInvalidConfig) {
		t.Errorf("Compile error = %v, want nfa.ErrInvalidConfig", err)
	}
}
