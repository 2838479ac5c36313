package meta

import (
	"sync"

	"github.com/coregx/derivre/nfa"
)

// SearchState holds per-search mutable state for thread-safe concurrent
// searches. It is obtained from a sync.Pool so that one compiled Engine can
// be used from many goroutines.
//
// Usage pattern:
//
//	state := engine.getSearchState()
//	defer engine.putSearchState(state)
//	// use state.matcher for search operations
//
// Thread safety: each goroutine must use its own SearchState instance.
type SearchState struct {
	// matcher owns the undo journal, the evaluation stack and the
	// candidate pool of one search.
	matcher *nfa.Matcher
}

func newSearchState(n *nfa.NFA) *SearchState {
	return &SearchState{matcher: nfa.NewMatcher(n)}
}

// searchStatePool manages a pool of SearchState instances for reuse.
// This follows the stdlib regexp pattern of using sync.Pool for concurrent
// safety.
type searchStatePool struct {
	pool sync.Pool
	nfa  *nfa.NFA
}

func newSearchStatePool(n *nfa.NFA) *searchStatePool {
	p := &searchStatePool{nfa: n}
	p.pool = sync.Pool{
		New: func() any {
			return newSearchState(p.nfa)
		},
	}
	return p
}

func (p *searchStatePool) get() *SearchState {
	return p.pool.Get().(*SearchState)
}

func (p *searchStatePool) put(state *SearchState) {
	if state == nil {
		return
	}
	p.pool.Put(state)
}
