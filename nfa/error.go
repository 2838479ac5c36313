// Package nfa turns a pattern tree into an automaton by repeated
// derivation and runs it.
//
// The automaton builder explores the derivatives of the pattern breadth
// first; every distinct derivative becomes a state, and every derivative's
// acceptance test becomes an entry of a shared instruction table. The
// Matcher then walks the automaton over the input, keeping several
// candidate matches at once, and picks the winner by POSIX priority.
package nfa

import (
	"errors"
	"fmt"
)

// Common NFA errors
var (
	// ErrInvalidPattern indicates the regex pattern could not be parsed
	ErrInvalidPattern = errors.New("invalid regex pattern")

	// ErrTooComplex indicates the automaton exceeded the configured size
	ErrTooComplex = errors.New("pattern too complex")

	// ErrInvalidConfig indicates invalid configuration was provided
	ErrInvalidConfig = errors.New("invalid NFA configuration")
)

// CompileError wraps compilation errors with additional context
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("NFA compilation failed for pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("NFA compilation failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// BuildError reports where automaton construction stopped.
type BuildError struct {
	Message string
	StateID StateID
	Err     error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.StateID != InvalidState {
		return fmt.Sprintf("NFA build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("NFA build error: %s", e.Message)
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	return e.Err
}
