// Package meta compiles patterns into search engines and runs them.
//
// An Engine couples an immutable automaton with a pool of per-search
// matchers, so one compiled pattern serves any number of goroutines:
//   - Compile parses the pattern, builds the automaton and picks the
//     start-position strategy (Boyer-Moore, prefix set, byte scan,
//     first-character test or full scan)
//   - Engine.Find and Engine.FindNext borrow a matcher from the pool
//   - Cache keeps compiled engines by pattern and flags
//
// The package provides the plumbing below the public API in the root
// package, hiding pooling and caching from users.
package meta

import (
	"github.com/coregx/derivre/nfa"
	"github.com/coregx/derivre/syntax"
)

// Config controls compilation limits and acceleration.
//
// Example:
//
//	config := meta.DefaultConfig()
//	config.EnablePrefilter = false // Test every position with the first-character test
//	engine, err := meta.Compile(`\w+@\w+`, 0, config)
type Config struct {
	// MaxStates caps the number of automaton states. Patterns whose
	// derivatives keep producing new states fail with nfa.ErrTooComplex.
	// Default: 10000
	MaxStates int

	// MaxInstructions caps the size of the instruction table.
	// Default: 100000
	MaxInstructions int

	// MaxRecursionDepth limits group nesting while parsing.
	// Default: syntax.DefaultMaxDepth
	MaxRecursionDepth int

	// EnablePrefilter enables literal-based start acceleration.
	// When false, candidate starts are found with the first-character test
	// alone.
	// Default: true
	EnablePrefilter bool

	// MinPrefixLen is the shortest fixed prefix, in codepoints, searched
	// with Boyer-Moore.
	// Default: 2
	MinPrefixLen int

	// EnableAhoCorasick allows an Aho-Corasick scanner when a pattern starts
	// with one of several literals.
	// Default: true
	EnableAhoCorasick bool

	// CacheSize is the number of compiled engines a Cache keeps.
	// 0 disables caching.
	// Default: 1024
	CacheSize int64
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxStates:         10000,
		MaxInstructions:   100000,
		MaxRecursionDepth: syntax.DefaultMaxDepth,
		EnablePrefilter:   true,
		MinPrefixLen:      2,
		EnableAhoCorasick: true,
		CacheSize:         1024,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any parameter is out of range.
//
// Valid ranges:
//   - MaxStates: 1 to 1,000,000
//   - MaxInstructions: 1 to 10,000,000
//   - MaxRecursionDepth: 1 to 100,000
//   - MinPrefixLen: 1 to 64
//   - CacheSize: 0 to 1,000,000
func (c Config) Validate() error {
	if c.MaxStates < 1 || c.MaxStates > 1_000_000 {
		return &ConfigError{
			Field:   "MaxStates",
			Message: "must be between 1 and 1,000,000",
		}
	}
	if c.MaxInstructions < 1 || c.MaxInstructions > 10_000_000 {
		return &ConfigError{
			Field:   "MaxInstructions",
			Message: "must be between 1 and 10,000,000",
		}
	}
	if c.MaxRecursionDepth < 1 || c.MaxRecursionDepth > 100_000 {
		return &ConfigError{
			Field:   "MaxRecursionDepth",
			Message: "must be between 1 and 100,000",
		}
	}
	if c.EnablePrefilter && (c.MinPrefixLen < 1 || c.MinPrefixLen > 64) {
		return &ConfigError{
			Field:   "MinPrefixLen",
			Message: "must be between 1 and 64",
		}
	}
	if c.CacheSize < 0 || c.CacheSize > 1_000_000 {
		return &ConfigError{
			Field:   "CacheSize",
			Message: "must be between 0 and 1,000,000",
		}
	}
	return nil
}

// nfaConfig returns the automaton construction settings.
func (c Config) nfaConfig() nfa.Config {
	return nfa.Config{
		MaxStates:         c.MaxStates,
		MaxRecursionDepth: c.MaxRecursionDepth,
		EnablePrefilter:   c.EnablePrefilter,
		MinPrefixLen:      max(c.MinPrefixLen, 1),
		EnableAhoCorasick: c.EnableAhoCorasick,
	}
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "derivre: invalid config: " + e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match nfa.ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return nfa.ErrInvalidConfig
}
