// Package literal derives literal strings that every match of a pattern
// must start with.
//
// A search uses them to jump to candidate positions before running the
// automaton. Prefix returns the single codepoint string shared by all
// matches, which feeds the Boyer-Moore scanner. Extractor.ExtractPrefixes
// returns a finite set of alternative UTF-8 strings, which feeds the
// Aho-Corasick scanner.
package literal

import (
	"bytes"
	"slices"
	"strconv"
)

// Literal is a UTF-8 string a match may start with. Complete is set when
// the string is everything its branch of the pattern consumes, so nothing
// can follow it inside that branch.
type Literal struct {
	Bytes    []byte
	Complete bool
}

// NewLiteral returns a Literal holding b.
func NewLiteral(b []byte, complete bool) Literal {
	return Literal{Bytes: b, Complete: complete}
}

// Len returns the literal's length in bytes.
func (l Literal) Len() int { return len(l.Bytes) }

func (l Literal) String() string {
	s := strconv.Quote(string(l.Bytes))
	if !l.Complete {
		s += "..."
	}
	return s
}

// Seq is a set of alternative prefix literals. A nil or empty Seq carries
// no information about where matches begin.
type Seq struct {
	literals []Literal
}

// NewSeq returns a sequence of lits.
func NewSeq(lits ...Literal) *Seq {
	return &Seq{literals: lits}
}

// Len returns the number of alternatives.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// Get returns the i-th alternative.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// IsEmpty reports whether the sequence has no alternatives.
func (s *Seq) IsEmpty() bool { return s.Len() == 0 }

// IsFinite reports whether the alternatives cover every way a match can
// begin.
func (s *Seq) IsFinite() bool { return !s.IsEmpty() }

// HasEmpty reports whether some alternative is the empty string, which
// makes the set useless as a filter.
func (s *Seq) HasEmpty() bool {
	return s != nil && slices.ContainsFunc(s.literals, func(l Literal) bool {
		return len(l.Bytes) == 0
	})
}

// AllComplete reports whether no alternative is cut short.
func (s *Seq) AllComplete() bool {
	return s == nil || !slices.ContainsFunc(s.literals, func(l Literal) bool {
		return !l.Complete
	})
}

// Bytes returns the alternatives' bytes in order.
func (s *Seq) Bytes() [][]byte {
	out := make([][]byte, 0, s.Len())
	if s == nil {
		return out
	}
	for _, l := range s.literals {
		out = append(out, l.Bytes)
	}
	return out
}

// Clone returns a copy that shares no memory with s.
func (s *Seq) Clone() *Seq {
	if s == nil {
		return nil
	}
	c := &Seq{literals: make([]Literal, 0, len(s.literals))}
	for _, l := range s.literals {
		c.literals = append(c.literals, NewLiteral(bytes.Clone(l.Bytes), l.Complete))
	}
	return c
}

// makeInexact clears Complete on every alternative.
func (s *Seq) makeInexact() {
	for i := range s.literals {
		s.literals[i].Complete = false
	}
}

// Minimize drops every alternative that has another alternative as a
// prefix, since a scan for the shorter one already stops wherever the
// longer one occurs. The survivors are left shortest first.
func (s *Seq) Minimize() {
	if s.IsEmpty() {
		return
	}
	slices.SortStableFunc(s.literals, func(a, b Literal) int {
		return len(a.Bytes) - len(b.Bytes)
	})
	n := 0
	for _, l := range s.literals {
		covered := slices.ContainsFunc(s.literals[:n], func(k Literal) bool {
			return bytes.HasPrefix(l.Bytes, k.Bytes)
		})
		if !covered {
			s.literals[n] = l
			n++
		}
	}
	s.literals = s.literals[:n]
}

// LongestCommonPrefix returns the bytes shared by the start of every
// alternative. The result is a fresh slice, empty when nothing is shared.
func (s *Seq) LongestCommonPrefix() []byte {
	if s.IsEmpty() {
		return []byte{}
	}
	lcp := s.literals[0].Bytes
	for _, l := range s.literals[1:] {
		k := 0
		for k < len(lcp) && k < len(l.Bytes) && lcp[k] == l.Bytes[k] {
			k++
		}
		lcp = lcp[:k]
	}
	return append([]byte{}, lcp...)
}
