// Package sparse provides a set of small unsigned integers that can be
// emptied in constant time. The matcher uses it to remember which automaton
// states already have a candidate queued for the next position.
package sparse

// Set holds values from a dense universe [0, n). Each slot records the
// generation in which its value was added, so Reset only bumps the
// generation.
type Set struct {
	stamp []uint32
	gen   uint32
	items []uint32
}

// NewSet returns an empty set sized for values below n.
func NewSet(n int) *Set {
	return &Set{stamp: make([]uint32, max(n, 0)), gen: 1}
}

// Add inserts v and reports whether it was absent. The universe grows to
// fit v.
func (s *Set) Add(v uint32) bool {
	if int(v) >= len(s.stamp) {
		s.stamp = append(s.stamp, make([]uint32, int(v)+1-len(s.stamp))...)
	}
	if s.stamp[v] == s.gen {
		return false
	}
	s.stamp[v] = s.gen
	s.items = append(s.items, v)
	return true
}

// Has reports whether v is in the set.
func (s *Set) Has(v uint32) bool {
	return int(v) < len(s.stamp) && s.stamp[v] == s.gen
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// Values returns the values in insertion order. The slice is valid until
// the next Add or Reset.
func (s *Set) Values() []uint32 {
	return s.items
}

// Reset empties the set.
func (s *Set) Reset() {
	s.items = s.items[:0]
	s.gen++
	if s.gen == 0 {
		clear(s.stamp)
		s.gen = 1
	}
}
