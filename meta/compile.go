package meta

import (
	stderrors "errors"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/coregx/derivre/nfa"
	"github.com/coregx/derivre/syntax"
)

// Compile compiles a pattern into an executable Engine.
//
// Steps:
//  1. Validate the configuration
//  2. Parse the pattern into a derivative tree
//  3. Build the automaton by exploring derivatives
//  4. Attach a prefilter (if the pattern has literal prefixes)
//  5. Select the start strategy
//
// Returns an error if:
//   - Pattern syntax is invalid (*CompileError wrapping a *syntax.Error)
//   - Pattern is too complex (matches nfa.ErrTooComplex)
//   - Configuration is invalid (*ConfigError)
//
// Example:
//
//	engine, err := meta.Compile("hello.*world", 0, meta.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string, flags syntax.Flags, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	n, err := nfa.Compile(pattern, flags, config.nfaConfig())
	if err != nil {
		if stderrors.Is(err, nfa.ErrInvalidPattern) {
			return nil, &CompileError{Pattern: pattern, Err: err}
		}
		return nil, &CompileError{
			Pattern: pattern,
			Err:     errors.Wrapf(err, "while building automaton for %q", pattern),
		}
	}
	if len(n.Instructions()) > config.MaxInstructions {
		return nil, &CompileError{
			Pattern: pattern,
			Err: errors.Wrapf(nfa.ErrTooComplex, "%d instructions exceed limit %d",
				len(n.Instructions()), config.MaxInstructions),
		}
	}

	strategy := SelectStrategy(n)
	if glog.V(1) {
		glog.Infof("Compiled %q: %d states, %d instructions, strategy %s",
			pattern, n.States(), len(n.Instructions()), strategy)
	}

	return &Engine{
		pattern:   pattern,
		flags:     flags,
		nfa:       n,
		strategy:  strategy,
		config:    config,
		statePool: newSearchStatePool(n),
	}, nil
}

// CompileError represents a pattern compilation error.
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface.
// Syntax errors are returned unchanged, like the stdlib regexp package.
func (e *CompileError) Error() string {
	var synErr *syntax.Error
	if stderrors.As(e.Err, &synErr) {
		return synErr.Error()
	}
	return "regexp: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}
