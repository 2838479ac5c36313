package nfa

import (
	"fmt"
)

// Match is a match attempt: a candidate while a search runs, and the result
// of Find once it returns.
//
// All of a match's state lives in one slice: the automaton state, the input
// position, the backreference cursor, a start and end per capture group
// (group 0 is the whole match), an open and close per atomic group and one
// counter per loop level. Unset positions are -1.
type Match struct {
	nfa      *NFA
	text     string
	origin   int
	anchored bool
	success  bool
	data     []int
}

// NewMatch returns a candidate for n in state 0 at position start of text.
func NewMatch(n *NFA, text string, start int) *Match {
	m := &Match{data: make([]int, n.slotCount())}
	m.reset(n, text, start, false)
	return m
}

func (m *Match) reset(n *NFA, text string, start int, anchored bool) {
	m.nfa = n
	m.text = text
	m.origin = start
	m.anchored = anchored
	m.success = false
	counters := n.counterSlot(0)
	for i := range m.data[:counters] {
		m.data[i] = -1
	}
	clear(m.data[counters:])
	m.data[slotState] = 0
	m.data[slotPos] = start
	m.data[n.captureSlot(0)] = start
}

// copyFrom overwrites m with src. It panics if m is already bound to a
// different automaton.
func (m *Match) copyFrom(src *Match) {
	if m.nfa != nil && m.nfa != src.nfa {
		panic("nfa: copying a match between different automata")
	}
	if len(m.data) != len(src.data) {
		panic("nfa: copying a match with a different slot layout")
	}
	m.nfa = src.nfa
	m.text = src.text
	m.origin = src.origin
	m.anchored = src.anchored
	m.success = src.success
	copy(m.data, src.data)
}

// clone returns an unpooled copy of m.
func (m *Match) clone() *Match {
	c := &Match{data: make([]int, len(m.data))}
	c.copyFrom(m)
	return c
}

// Success reports whether the match succeeded.
func (m *Match) Success() bool {
	return m.success
}

// State returns the automaton state of a candidate.
func (m *Match) State() StateID {
	return StateID(m.data[slotState])
}

// Pos returns the input position of a candidate. For a finished match it
// is the end of the match.
func (m *Match) Pos() int {
	return m.data[slotPos]
}

// Start returns the byte offset where the match begins, or -1.
func (m *Match) Start() int {
	if !m.success {
		return -1
	}
	return m.data[m.nfa.captureSlot(0)]
}

// End returns the byte offset just past the match, or -1.
func (m *Match) End() int {
	if !m.success {
		return -1
	}
	return m.data[m.nfa.captureSlot(0)+1]
}

// Len returns the length of the match in bytes.
func (m *Match) Len() int {
	if !m.success {
		return 0
	}
	return m.End() - m.Start()
}

// Value returns the matched text, or "" for a failed match.
func (m *Match) Value() string {
	if !m.success {
		return ""
	}
	return m.text[m.Start():m.End()]
}

// Text returns the searched text.
func (m *Match) Text() string {
	return m.text
}

// Origin returns the offset the search started from.
func (m *Match) Origin() int {
	return m.origin
}

// NumGroups returns the number of capture groups, group 0 included.
func (m *Match) NumGroups() int {
	return m.nfa.numCaptures
}

// Group returns the bounds of capture group i, or (-1, -1) if the group did
// not participate in the match.
func (m *Match) Group(i int) (start, end int) {
	if !m.success || i < 0 || i >= m.nfa.numCaptures {
		return -1, -1
	}
	s := m.nfa.captureSlot(i)
	start, end = m.data[s], m.data[s+1]
	if start < 0 || end < 0 {
		return -1, -1
	}
	return start, end
}

// GroupString returns the text of capture group i, or "" if it did not
// participate.
func (m *Match) GroupString(i int) string {
	start, end := m.Group(i)
	if start < 0 {
		return ""
	}
	return m.text[start:end]
}

// Index returns the bounds of every group as pairs, the layout of
// regexp.Regexp.FindStringSubmatchIndex. It returns nil for a failed match.
func (m *Match) Index() []int {
	if !m.success {
		return nil
	}
	idx := make([]int, 2*m.nfa.numCaptures)
	for i := 0; i < m.nfa.numCaptures; i++ {
		idx[2*i], idx[2*i+1] = m.Group(i)
	}
	return idx
}

// String returns a human-readable representation of the match
func (m *Match) String() string {
	if !m.success {
		return "Match{failed}"
	}
	return fmt.Sprintf("Match{[%d:%d] %q}", m.Start(), m.End(), m.Value())
}

func (m *Match) atomic(i int) (open, close int) {
	s := m.nfa.atomicSlot(i)
	return m.data[s], m.data[s+1]
}

// PosixPriority orders two matches of one automaton on one text. It returns
// +1 if x is preferred, -1 if y is, and 0 if neither is.
//
// Earlier starts win. Then atomic groups are compared in index order, which
// is the order of their closing parentheses: a match that has closed a
// group beats one that has not; if both have, the earlier opening wins, and
// for the same opening the later closing wins. Then a completed match beats
// a failed one, and finally the longer match wins.
//
// PosixPriority panics if x and y belong to different automata or texts.
func PosixPriority(x, y *Match) int {
	if x.nfa != y.nfa {
		panic("nfa: PosixPriority on matches of different automata")
	}
	if x.text != y.text {
		panic("nfa: PosixPriority on matches of different texts")
	}
	n := x.nfa
	if xs, ys := x.data[n.captureSlot(0)], y.data[n.captureSlot(0)]; xs != ys {
		return order(xs < ys)
	}
	for i := 0; i < n.numAtomics; i++ {
		xo, xc := x.atomic(i)
		yo, yc := y.atomic(i)
		xClosed, yClosed := xc >= 0, yc >= 0
		if xClosed != yClosed {
			return order(xClosed)
		}
		if !xClosed {
			continue
		}
		if xo != yo {
			return order(xo < yo)
		}
		if xc != yc {
			return order(xc > yc)
		}
	}
	if x.success != y.success {
		return order(x.success)
	}
	if xe, ye := x.data[slotPos], y.data[slotPos]; xe != ye {
		return order(xe > ye)
	}
	return 0
}

func order(first bool) int {
	if first {
		return 1
	}
	return -1
}
