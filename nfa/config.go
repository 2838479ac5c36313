package nfa

import (
	"fmt"

	"github.com/coregx/derivre/syntax"
)

// Config controls automaton construction.
type Config struct {
	// MaxStates bounds the number of automaton states. Patterns whose
	// derivative closure grows past it fail with ErrTooComplex.
	// Default: 10000
	MaxStates int

	// MaxRecursionDepth bounds group nesting while parsing.
	// Default: syntax.DefaultMaxDepth
	MaxRecursionDepth int

	// EnablePrefilter attaches a start-position accelerator when the pattern
	// has literal prefixes.
	// Default: true
	EnablePrefilter bool

	// MinPrefixLen is the shortest fixed prefix, in codepoints, searched with
	// Boyer-Moore.
	// Default: 2
	MinPrefixLen int

	// EnableAhoCorasick allows an Aho-Corasick scanner over a set of prefix
	// literals.
	// Default: true
	EnableAhoCorasick bool
}

// DefaultConfig returns the default construction limits.
func DefaultConfig() Config {
	return Config{
		MaxStates:         10000,
		MaxRecursionDepth: syntax.DefaultMaxDepth,
		EnablePrefilter:   true,
		MinPrefixLen:      2,
		EnableAhoCorasick: true,
	}
}

// Validate checks that the limits are usable.
func (c Config) Validate() error {
	switch {
	case c.MaxStates < 1:
		return fmt.Errorf("%w: MaxStates must be positive, got %d", ErrInvalidConfig, c.MaxStates)
	case c.MaxRecursionDepth < 1:
		return fmt.Errorf("%w: MaxRecursionDepth must be positive, got %d", ErrInvalidConfig, c.MaxRecursionDepth)
	case c.MinPrefixLen < 1:
		return fmt.Errorf("%w: MinPrefixLen must be positive, got %d", ErrInvalidConfig, c.MinPrefixLen)
	}
	return nil
}
