package prefilter

import (
	"strconv"
	"strings"

	"github.com/coregx/ahocorasick"
)

// PrefixSet finds the leftmost occurrence of any of several literals with
// an Aho-Corasick automaton. It serves patterns such as "foo\d|bar\d" whose
// matches begin with one of a few known strings but share no common prefix.
type PrefixSet struct {
	auto     *ahocorasick.Automaton
	literals [][]byte
	byFirst  [256][]string
	maxLen   int
}

// NewPrefixSet builds the automaton for literals. Every literal must be
// non-empty.
func NewPrefixSet(literals [][]byte) (*PrefixSet, error) {
	builder := ahocorasick.NewBuilder()
	for _, lit := range literals {
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	ps := &PrefixSet{auto: auto, literals: literals}
	for _, lit := range literals {
		ps.byFirst[lit[0]] = append(ps.byFirst[lit[0]], string(lit))
		ps.maxLen = max(ps.maxLen, len(lit))
	}
	return ps, nil
}

// Find implements Prefilter.Find. It returns the leftmost start of any
// literal at or after start.
//
// The automaton reports the occurrence that ends first, which need not be
// the one that starts first: with literals "acb" and "c" it reports "c" in
// "acb". An occurrence starting before the reported one must end at or
// after it, so it starts no earlier than m.End-maxLen; that window is
// checked directly.
func (ps *PrefixSet) Find(haystack string, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := ps.auto.Find(bytesOf(haystack), start)
	if m == nil {
		return -1
	}
	for at := max(start, m.End-ps.maxLen); at < m.Start; at++ {
		if ps.startsAt(haystack, at) {
			return at
		}
	}
	return m.Start
}

// startsAt reports whether some literal occurs at haystack[at:].
func (ps *PrefixSet) startsAt(haystack string, at int) bool {
	for _, lit := range ps.byFirst[haystack[at]] {
		if strings.HasPrefix(haystack[at:], lit) {
			return true
		}
	}
	return false
}

// Len returns the number of literals.
func (ps *PrefixSet) Len() int {
	return len(ps.literals)
}

// HeapBytes implements Prefilter.HeapBytes. The automaton's own tables are
// not visible and are estimated from the literal bytes.
func (ps *PrefixSet) HeapBytes() int {
	n := 0
	for _, lit := range ps.literals {
		n += len(lit)
	}
	return n * 16
}

func (ps *PrefixSet) String() string {
	return "aho-corasick(" + strconv.Itoa(len(ps.literals)) + " literals)"
}
