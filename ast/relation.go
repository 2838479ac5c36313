package ast

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"

	"github.com/coregx/derivre/internal/casefold"
)

// smallSet bounds the number of codepoints enumerated when a relation can
// only be decided rune by rune.
const smallSet = 1024

// Contains reports whether every string matched by y is also matched by x.
// The answer is conservative: false means "unknown or no".
func (c *Context) Contains(x, y *Node) bool {
	switch {
	case x == y, y == c.fail:
		return true
	case x == c.fail:
		return false
	case x.universal():
		return true
	}
	if x.consumingTest() && y.consumingTest() {
		if !x.charOnly() || !y.charOnly() {
			return false
		}
		k := relKey{a: x.id, b: y.id, contains: true}
		if v, ok := c.rel[k]; ok {
			return v
		}
		v := c.testContains(x, y)
		c.rel[k] = v
		return v
	}
	switch {
	case x.kind == KindAlt:
		return c.Contains(x.left, y) || c.Contains(x.right, y)
	case y.kind == KindAlt:
		return c.Contains(x, y.left) && c.Contains(x, y.right)
	case x == c.empty:
		return false
	case x.kind == KindLoop && x.min == 0 && y == c.empty:
		return true
	case x.kind == KindLoop && x.max == Unbounded && x.min == 0:
		// x* contains x and x·x*.
		if y == x.left {
			return true
		}
		if y.kind == KindSeq && y.right == x && c.Contains(x.left, y.left) {
			return true
		}
	}
	return false
}

func (c *Context) testContains(x, y *Node) bool {
	switch {
	case x.kind == KindAny:
		return true
	case y.kind == KindAny:
		return false
	case y.kind == KindTestOr:
		return c.Contains(x, y.left) && c.Contains(x, y.right)
	case x.kind == KindTestOr:
		if c.Contains(x.left, y) || c.Contains(x.right, y) {
			return true
		}
		return c.enumContains(x, y)
	case x.kind == KindTestAnd:
		return c.Contains(x.left, y) && c.Contains(x.right, y)
	case y.kind == KindTestAnd:
		return c.Contains(x, y.left) || c.Contains(x, y.right) || c.enumContains(x, y)
	case y.kind == KindTestDiff:
		return c.Contains(x, y.left)
	case x.kind == KindTestDiff:
		return c.Contains(x.left, y) && c.DisjointWith(x.right, y)
	case y.kind == KindChar:
		if y.fold {
			var buf [4]rune
			for _, r := range casefold.Orbit(buf[:0], y.lo) {
				if !x.ContainsRune(r) {
					return false
				}
			}
			return true
		}
		return x.ContainsRune(y.lo)
	case isRangeLike(x) && y.kind == KindRange && !y.fold:
		if x.lo <= y.lo && y.hi <= x.hi {
			return true
		}
		return x.fold && c.enumContains(x, y)
	case x.kind == KindClass && y.kind == KindClass:
		if x.table == y.table && (x.fold || !y.fold) {
			return true
		}
		if y.fold && !x.fold {
			return false
		}
		ok := true
		rangetable.Visit(y.table, func(r rune) {
			if ok && !x.ContainsRune(r) {
				ok = false
			}
		})
		return ok
	case x.kind == KindClass && y.kind == KindRange && !y.fold && !x.fold:
		return tableCovers(x.table, y.lo, y.hi)
	}
	return c.enumContains(x, y)
}

// enumContains decides containment by enumerating y when y is small.
func (c *Context) enumContains(x, y *Node) bool {
	lo, hi, ok := bounds(y)
	if !ok || hi-lo >= smallSet {
		return false
	}
	for r := lo; r <= hi; r++ {
		if y.ContainsRune(r) && !x.ContainsRune(r) {
			return false
		}
	}
	return true
}

// bounds returns a codepoint interval enclosing every rune a test accepts,
// folding included.
func bounds(n *Node) (lo, hi rune, ok bool) {
	switch n.kind {
	case KindChar, KindRange:
		if !n.fold {
			return n.lo, n.hi, true
		}
		if n.hi-n.lo >= smallSet {
			return 0, 0, false
		}
		lo, hi = n.lo, n.hi
		var buf [4]rune
		for r := n.lo; r <= n.hi; r++ {
			for _, f := range casefold.Orbit(buf[:0], r) {
				lo, hi = min(lo, f), max(hi, f)
			}
		}
		return lo, hi, true
	case KindTestOr:
		l1, h1, ok1 := bounds(n.left)
		l2, h2, ok2 := bounds(n.right)
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		return min(l1, l2), max(h1, h2), true
	case KindTestAnd:
		if l, h, ok := bounds(n.left); ok {
			return l, h, true
		}
		return bounds(n.right)
	case KindTestDiff:
		return bounds(n.left)
	}
	return 0, 0, false
}

// DisjointWith reports whether x and y can never both match the same input.
// Like Contains, it only answers true when certain.
func (c *Context) DisjointWith(x, y *Node) bool {
	switch {
	case x == c.fail || y == c.fail:
		return true
	case x == y:
		return false
	}
	if x.consumingTest() && y.consumingTest() {
		if !x.charOnly() || !y.charOnly() {
			return false
		}
		a, b := x, y
		if a.id > b.id {
			a, b = b, a
		}
		k := relKey{a: a.id, b: b.id}
		if v, ok := c.rel[k]; ok {
			return v
		}
		v := c.testDisjoint(x, y)
		c.rel[k] = v
		return v
	}
	switch {
	case x == c.empty:
		return !y.Nullable()
	case y == c.empty:
		return !x.Nullable()
	case x.kind == KindAlt:
		return c.DisjointWith(x.left, y) && c.DisjointWith(x.right, y)
	case y.kind == KindAlt:
		return c.DisjointWith(x, y.left) && c.DisjointWith(x, y.right)
	}
	// Two patterns that must start with disjoint characters share no string.
	hx, hy := head(x), head(y)
	if hx != nil && hy != nil {
		return c.DisjointWith(hx, hy)
	}
	return false
}

// head returns the pure test every non-empty match of n starts with, when n
// cannot match the empty string.
func head(n *Node) *Node {
	for {
		switch {
		case n.consumingTest():
			if n.Pure() {
				return n
			}
			return nil
		case n.kind == KindSeq && !n.left.Nullable():
			n = n.left
		case n.kind == KindCapture || n.kind == KindAtomic:
			n = n.left
		case n.kind == KindLoop && n.min > 0:
			n = n.left
		default:
			return nil
		}
	}
}

func (c *Context) testDisjoint(x, y *Node) bool {
	switch {
	case x.kind == KindAny || y.kind == KindAny:
		return false
	case x.kind == KindTestOr:
		return c.DisjointWith(x.left, y) && c.DisjointWith(x.right, y)
	case y.kind == KindTestOr:
		return c.DisjointWith(x, y.left) && c.DisjointWith(x, y.right)
	case x.kind == KindTestAnd:
		return c.DisjointWith(x.left, y) || c.DisjointWith(x.right, y) || c.enumDisjoint(x, y)
	case y.kind == KindTestAnd:
		return c.DisjointWith(x, y.left) || c.DisjointWith(x, y.right) || c.enumDisjoint(x, y)
	case x.kind == KindTestDiff:
		return c.DisjointWith(x.left, y) || c.Contains(x.right, y) || c.enumDisjoint(x, y)
	case y.kind == KindTestDiff:
		return c.DisjointWith(x, y.left) || c.Contains(y.right, x) || c.enumDisjoint(x, y)
	case x.kind == KindChar:
		return charDisjoint(x, y)
	case y.kind == KindChar:
		return charDisjoint(y, x)
	case x.kind == KindRange && y.kind == KindRange:
		if !x.fold && !y.fold {
			return x.hi < y.lo || y.hi < x.lo
		}
	case x.kind == KindClass && y.kind == KindRange && !x.fold && !y.fold:
		return !tableOverlaps(x.table, y.lo, y.hi)
	case y.kind == KindClass && x.kind == KindRange && !x.fold && !y.fold:
		return !tableOverlaps(y.table, x.lo, x.hi)
	case x.kind == KindClass && y.kind == KindClass:
		if x.table == y.table {
			return false
		}
		if !x.fold && !y.fold {
			return !tablesOverlap(x.table, y.table)
		}
	}
	return c.enumDisjoint(x, y)
}

func charDisjoint(ch, y *Node) bool {
	if !ch.fold {
		return !y.ContainsRune(ch.lo)
	}
	var buf [4]rune
	for _, r := range casefold.Orbit(buf[:0], ch.lo) {
		if y.ContainsRune(r) {
			return false
		}
	}
	return true
}

func (c *Context) enumDisjoint(x, y *Node) bool {
	lo, hi, ok := bounds(x)
	if !ok || hi-lo >= smallSet {
		lo, hi, ok = bounds(y)
		if !ok || hi-lo >= smallSet {
			return false
		}
	}
	for r := lo; r <= hi; r++ {
		if x.ContainsRune(r) && y.ContainsRune(r) {
			return false
		}
	}
	return true
}

// tableOverlaps reports whether t holds any codepoint in [lo, hi].
func tableOverlaps(t *unicode.RangeTable, lo, hi rune) bool {
	for _, r := range t.R16 {
		if rangeHits(rune(r.Lo), rune(r.Hi), rune(r.Stride), lo, hi) {
			return true
		}
	}
	for _, r := range t.R32 {
		if rangeHits(rune(r.Lo), rune(r.Hi), rune(r.Stride), lo, hi) {
			return true
		}
	}
	return false
}

// rangeHits reports whether the strided range rlo..rhi (step stride) has a
// member in [lo, hi].
func rangeHits(rlo, rhi, stride, lo, hi rune) bool {
	start := max(rlo, lo)
	end := min(rhi, hi)
	if start > end {
		return false
	}
	if stride > 1 {
		if off := (start - rlo) % stride; off != 0 {
			start += stride - off
		}
	}
	return start <= end
}

// tableCovers reports whether every codepoint of [lo, hi] is in t.
func tableCovers(t *unicode.RangeTable, lo, hi rune) bool {
	if hi-lo >= smallSet {
		return false
	}
	for r := lo; r <= hi; r++ {
		if !unicode.Is(t, r) {
			return false
		}
	}
	return true
}

func tablesOverlap(a, b *unicode.RangeTable) bool {
	for _, r := range a.R16 {
		if stridedOverlap(b, rune(r.Lo), rune(r.Hi), rune(r.Stride)) {
			return true
		}
	}
	for _, r := range a.R32 {
		if stridedOverlap(b, rune(r.Lo), rune(r.Hi), rune(r.Stride)) {
			return true
		}
	}
	return false
}

func stridedOverlap(t *unicode.RangeTable, lo, hi, stride rune) bool {
	if stride == 1 {
		return tableOverlaps(t, lo, hi)
	}
	for r := lo; r <= hi; r += stride {
		if unicode.Is(t, r) {
			return true
		}
	}
	return false
}
