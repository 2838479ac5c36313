package nfa

import (
	"fmt"

	"github.com/coregx/derivre/ast"
	"github.com/coregx/derivre/syntax"
)

// Compile parses pattern and builds its automaton.
//
// Parse failures are returned as a *CompileError that matches both
// ErrInvalidPattern and the underlying *syntax.Error.
func Compile(pattern string, flags syntax.Flags, config Config) (*NFA, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := ast.NewContext()
	re, err := syntax.ParseDepth(c, pattern, flags, config.MaxRecursionDepth)
	if err != nil {
		return nil, &CompileError{
			Pattern: pattern,
			Err:     fmt.Errorf("%w: %w", ErrInvalidPattern, err),
		}
	}
	return CompileRegexp(c, re, config)
}

// CompileRegexp builds the automaton of a parsed pattern. c must be the
// context re was parsed in.
func CompileRegexp(c *ast.Context, re *syntax.Regexp, config Config) (*NFA, error) {
	n, err := Traverse(c, re.Root, config)
	if err != nil {
		return nil, err
	}
	// Groups that the simplifier removed still report as unmatched.
	n.numCaptures = max(n.numCaptures, re.NumGroups+1)
	n.numAtomics = max(n.numAtomics, re.NumAtomics)
	n.names = re.Names
	return n, nil
}
