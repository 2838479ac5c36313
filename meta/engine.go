package meta

import (
	"sync/atomic"

	"github.com/coregx/derivre/nfa"
	"github.com/coregx/derivre/syntax"
)

// Engine is a compiled pattern ready for searching.
//
// Thread safety: the automaton is immutable after compilation and
// per-search state comes from a sync.Pool, so any number of goroutines may
// search with one Engine concurrently.
//
// Example:
//
//	engine, err := meta.Compile(`(foo|bar)\d+`, 0, meta.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	m := engine.Find("test foo123 end", 0)
//	if m.Success() {
//	    println(m.Value()) // "foo123"
//	}
type Engine struct {
	// IMPORTANT: stats MUST be first field for proper 8-byte alignment on
	// 32-bit platforms.
	stats engineStats

	pattern  string
	flags    syntax.Flags
	nfa      *nfa.NFA
	strategy Strategy
	config   Config

	statePool *searchStatePool
}

type engineStats struct {
	searches atomic.Uint64
	matches  atomic.Uint64
}

// Stats tracks execution statistics for performance analysis.
type Stats struct {
	// Searches counts Find calls, FindNext included.
	Searches uint64

	// Matches counts successful searches.
	Matches uint64
}

// Find returns the leftmost match in text at or after start.
func (e *Engine) Find(text string, start int) *nfa.Match {
	return e.search(text, start, false)
}

// FindAnchored returns a match beginning exactly at start, if any.
func (e *Engine) FindAnchored(text string, start int) *nfa.Match {
	return e.search(text, start, true)
}

// FindNext continues the search after prev. prev must have succeeded.
func (e *Engine) FindNext(prev *nfa.Match) *nfa.Match {
	state := e.getSearchState()
	defer e.putSearchState(state)
	return e.count(state.matcher.FindNext(prev))
}

// IsMatch reports whether text contains a match.
func (e *Engine) IsMatch(text string) bool {
	return e.Find(text, 0).Success()
}

func (e *Engine) search(text string, start int, anchored bool) *nfa.Match {
	state := e.getSearchState()
	defer e.putSearchState(state)
	return e.count(state.matcher.Find(text, start, anchored))
}

func (e *Engine) count(m *nfa.Match) *nfa.Match {
	e.stats.searches.Add(1)
	if m.Success() {
		e.stats.matches.Add(1)
	}
	return m
}

// Pattern returns the source text of the pattern.
func (e *Engine) Pattern() string {
	return e.pattern
}

// Flags returns the flags the pattern was compiled with.
func (e *Engine) Flags() syntax.Flags {
	return e.flags
}

// NFA returns the compiled automaton.
func (e *Engine) NFA() *nfa.NFA {
	return e.nfa
}

// Strategy returns the start strategy selected for this engine.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// NumCaptures returns the number of capture groups in the pattern.
// Group 0 is the entire match, groups 1+ are explicit captures.
func (e *Engine) NumCaptures() int {
	return e.nfa.CaptureCount()
}

// SubexpNames returns the names of capture groups in the pattern.
// Index 0 is always "" (entire match). Named groups return their names,
// unnamed groups return "". This matches stdlib regexp.Regexp.SubexpNames()
// behavior.
func (e *Engine) SubexpNames() []string {
	return e.nfa.SubexpNames()
}

// Stats returns execution statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		Searches: e.stats.searches.Load(),
		Matches:  e.stats.matches.Load(),
	}
}

// ResetStats resets execution statistics to zero.
func (e *Engine) ResetStats() {
	e.stats.searches.Store(0)
	e.stats.matches.Store(0)
}

// getSearchState retrieves a SearchState from the pool.
// Caller must call putSearchState when done.
func (e *Engine) getSearchState() *SearchState {
	return e.statePool.get()
}

// putSearchState returns a SearchState to the pool.
func (e *Engine) putSearchState(state *SearchState) {
	e.statePool.put(state)
}
