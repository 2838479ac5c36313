package meta

import (
	"github.com/coregx/derivre/nfa"
	"github.com/coregx/derivre/prefilter"
)

// Strategy describes how an Engine finds positions where a match may
// start. Every strategy gives the same results; they differ only in how
// much text the matcher must look at.
type Strategy int

const (
	// UseFullScan launches a match attempt at every position.
	// Selected for patterns that can match the empty string or start with
	// any codepoint.
	UseFullScan Strategy = iota

	// UseFirstChar tests each position with the pattern's first-character
	// test before launching an attempt.
	UseFirstChar

	// UseAnchored launches a single attempt at the search start.
	// Selected for patterns beginning with \A, ^ (without multiline) or \G.
	UseAnchored

	// UseBoyerMoore searches for the fixed literal prefix every match
	// begins with.
	UseBoyerMoore

	// UsePrefixSet searches for any of several literal prefixes with an
	// Aho-Corasick automaton.
	UsePrefixSet

	// UseByteScan searches for the single byte every match begins with.
	UseByteScan
)

// String returns a human-readable representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case UseFullScan:
		return "UseFullScan"
	case UseFirstChar:
		return "UseFirstChar"
	case UseAnchored:
		return "UseAnchored"
	case UseBoyerMoore:
		return "UseBoyerMoore"
	case UsePrefixSet:
		return "UsePrefixSet"
	case UseByteScan:
		return "UseByteScan"
	default:
		return "Unknown"
	}
}

// SelectStrategy reports the start strategy the matcher will use for n.
func SelectStrategy(n *nfa.NFA) Strategy {
	if n.IsAnchored() {
		return UseAnchored
	}
	switch n.Prefilter().(type) {
	case *prefilter.BoyerMoore:
		return UseBoyerMoore
	case *prefilter.PrefixSet:
		return UsePrefixSet
	case nil:
	default:
		return UseByteScan
	}
	if _, ok := n.FirstChar(); ok {
		return UseFirstChar
	}
	return UseFullScan
}
