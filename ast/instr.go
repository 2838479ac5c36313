package ast

import (
	"cmp"
	"slices"
	"unicode"

	"github.com/coregx/derivre/internal/casefold"
)

// Char returns the test accepting r. With fold, every case variant of r is
// accepted too; folding is dropped for runes without case variants.
func (c *Context) Char(r rune, fold bool) *Node {
	r = validRune(r)
	if fold && !casefold.HasFold(r) {
		fold = false
	}
	if fold {
		r = casefold.Key(r)
	}
	return c.intern(&Node{kind: KindChar, lo: r, hi: r, fold: fold})
}

// Range returns the test accepting codepoints in [lo, hi].
func (c *Context) Range(lo, hi rune, fold bool) *Node {
	lo, hi = validRune(lo), validRune(hi)
	switch {
	case lo > hi:
		return c.fail
	case lo == hi:
		return c.Char(lo, fold)
	case lo == 0 && hi == unicode.MaxRune:
		return c.any
	}
	if fold && !rangeHasFold(lo, hi) {
		fold = false
	}
	return c.intern(&Node{kind: KindRange, lo: lo, hi: hi, fold: fold})
}

// rangeHasFold reports whether folding can widen [lo, hi]. Large ranges are
// assumed to.
func rangeHasFold(lo, hi rune) bool {
	if hi-lo > 512 {
		return true
	}
	for r := lo; r <= hi; r++ {
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if f < lo || f > hi {
				return true
			}
		}
	}
	return false
}

// Class returns the test accepting the codepoints of table. name identifies
// the table for interning and printing; distinct tables must use distinct
// names.
func (c *Context) Class(name string, table *unicode.RangeTable, fold bool) *Node {
	return c.intern(&Node{kind: KindClass, name: name, table: table, fold: fold})
}

// Assert returns the zero-width assertion op.
func (c *Context) Assert(op AssertOp) *Node {
	return c.intern(&Node{kind: KindAssert, index: int(op)})
}

// GroupSet returns the test that succeeds when capture group g has matched.
func (c *Context) GroupSet(g int) *Node {
	return c.intern(&Node{kind: KindGroupSet, index: g})
}

// CaptureOpen returns the marker recording the start of capture group g.
func (c *Context) CaptureOpen(g int) *Node {
	return c.intern(&Node{kind: KindCaptureOpen, index: g})
}

// CaptureClose returns the marker recording the end of capture group g.
func (c *Context) CaptureClose(g int) *Node {
	return c.intern(&Node{kind: KindCaptureClose, index: g})
}

// AtomicOpen returns the marker recording entry into atomic group i.
func (c *Context) AtomicOpen(i int) *Node {
	return c.intern(&Node{kind: KindAtomicOpen, index: i})
}

// AtomicClose returns the marker recording exit from atomic group i.
func (c *Context) AtomicClose(i int) *Node {
	return c.intern(&Node{kind: KindAtomicClose, index: i})
}

// LoopRepeat returns the marker that starts another iteration of a counted
// loop: it fails once counter level has reached max, else increments it.
func (c *Context) LoopRepeat(level, max int) *Node {
	return c.intern(&Node{kind: KindLoopRepeat, level: level, max: max})
}

// LoopExit returns the marker that leaves a counted loop: it fails while
// counter level is below min, else resets it.
func (c *Context) LoopExit(level, min int) *Node {
	return c.intern(&Node{kind: KindLoopExit, level: level, min: min})
}

// BackrefStep returns the test consuming the next codepoint of group g's
// captured text.
func (c *Context) BackrefStep(g int, fold bool) *Node {
	return c.intern(&Node{kind: KindBackrefStep, index: g, fold: fold})
}

// BackrefDone returns the test that succeeds once group g's captured text has
// been consumed completely.
func (c *Context) BackrefDone(g int) *Node {
	return c.intern(&Node{kind: KindBackrefDone, index: g})
}

// TestNot negates a test. Negating a consuming test yields "any codepoint not
// accepted by x".
func (c *Context) TestNot(x *Node) *Node {
	switch {
	case x == c.tru:
		return c.fail
	case x == c.fail:
		return c.tru
	case x.kind == KindTestNot:
		return x.left
	case x.kind == KindAssert:
		if neg, ok := x.Op().negation(); ok {
			return c.Assert(neg)
		}
	}
	if !x.ZeroWidth() {
		return c.TestDiff(c.any, x)
	}
	return c.intern(&Node{kind: KindTestNot, left: x})
}

// TestAnd returns the conjunction of two tests. Side effects run left to
// right, so impure conjunctions keep operand order.
func (c *Context) TestAnd(x, y *Node) *Node {
	switch {
	case x == c.fail || y == c.fail:
		return c.fail
	case x == c.tru:
		return y
	case y == c.tru:
		return x
	case x == y && x.Pure():
		return x
	}
	if x.Pure() && y.Pure() {
		return c.pureAnd(x, y)
	}
	if x.kind == KindTestAnd {
		return c.TestAnd(x.left, c.TestAnd(x.right, y))
	}
	if x.Pure() && !x.ZeroWidth() && y.kind == KindTestAnd && !y.Pure() {
		// A pure character test conjoined with a chain whose pure tail is
		// disjoint from it can never succeed.
		if t := pureTail(y); t != nil && c.DisjointWith(x, t) {
			return c.fail
		}
	}
	return c.intern(&Node{kind: KindTestAnd, left: x, right: y})
}

// pureTail returns the last operand of an And chain if it is a pure
// consuming test.
func pureTail(n *Node) *Node {
	for n.kind == KindTestAnd {
		n = n.right
	}
	if n.Pure() && n.consumingTest() {
		return n
	}
	return nil
}

func (c *Context) pureAnd(x, y *Node) *Node {
	var members []*Node
	members = flatten(members, x, KindTestAnd)
	members = flatten(members, y, KindTestAnd)

	var kept []*Node
next:
	for _, m := range members {
		for i, e := range kept {
			if e == m {
				continue next
			}
			if e.ZeroWidth() || m.ZeroWidth() {
				continue
			}
			if c.DisjointWith(e, m) {
				return c.fail
			}
			if c.Contains(m, e) {
				continue next
			}
			if c.Contains(e, m) {
				kept[i] = m
				continue next
			}
			if isRangeLike(e) && isRangeLike(m) && !e.fold && !m.fold {
				kept[i] = c.Range(max(e.lo, m.lo), min(e.hi, m.hi), false)
				if kept[i] == c.fail {
					return c.fail
				}
				continue next
			}
		}
		kept = append(kept, m)
	}
	return c.chain(KindTestAnd, kept)
}

// TestOr returns the disjunction of two tests. Pure tests of equal width are
// normalized: duplicates and subsumed operands are dropped and adjacent or
// overlapping ranges with the same folding are merged.
func (c *Context) TestOr(x, y *Node) *Node {
	switch {
	case x == c.fail:
		return y
	case y == c.fail:
		return x
	case x == y && x.Pure():
		return x
	case x == c.tru:
		return c.tru
	}
	if x.Pure() && y.Pure() && x.ZeroWidth() == y.ZeroWidth() {
		return c.pureOr(x, y)
	}
	if x.kind == KindTestOr && !x.Pure() {
		return c.TestOr(x.left, c.TestOr(x.right, y))
	}
	return c.intern(&Node{kind: KindTestOr, left: x, right: y})
}

type span struct{ lo, hi rune }

func (c *Context) pureOr(x, y *Node) *Node {
	var members []*Node
	members = flatten(members, x, KindTestOr)
	members = flatten(members, y, KindTestOr)

	var spans [2][]span
	var others []*Node
	for _, m := range members {
		switch {
		case m == c.any || m == c.tru:
			return m
		case isRangeLike(m):
			f := 0
			if m.fold {
				f = 1
			}
			spans[f] = append(spans[f], span{m.lo, m.hi})
		default:
			others = append(others, m)
		}
	}
	for f, ss := range spans {
		if len(ss) == 0 {
			continue
		}
		slices.SortFunc(ss, func(a, b span) int { return cmp.Compare(a.lo, b.lo) })
		cur := ss[0]
		for _, s := range ss[1:] {
			if s.lo <= cur.hi+1 {
				cur.hi = max(cur.hi, s.hi)
				continue
			}
			others = append(others, c.Range(cur.lo, cur.hi, f == 1))
			cur = s
		}
		r := c.Range(cur.lo, cur.hi, f == 1)
		if r == c.any {
			return r
		}
		others = append(others, r)
	}

	// Drop operands subsumed by another operand.
	var kept []*Node
	for i, m := range others {
		redundant := false
		for j, o := range others {
			if i == j || o == m || m.ZeroWidth() {
				continue
			}
			if c.Contains(o, m) && (!c.Contains(m, o) || j < i) {
				redundant = true
				break
			}
		}
		if !redundant && !slices.Contains(kept, m) {
			kept = append(kept, m)
		}
	}
	return c.chain(KindTestOr, kept)
}

// TestDiff returns the test accepting what x accepts and y does not. y's side
// effects are always rolled back.
func (c *Context) TestDiff(x, y *Node) *Node {
	switch {
	case x == c.fail:
		return c.fail
	case y == c.fail:
		return x
	case x == y && x.Pure():
		return c.fail
	}
	if x.ZeroWidth() {
		return c.TestAnd(x, c.TestNot(y))
	}
	if x.Pure() && y.Pure() && !y.ZeroWidth() {
		if c.DisjointWith(x, y) {
			return x
		}
		if c.Contains(y, x) {
			return c.fail
		}
		if isRangeLike(x) && isRangeLike(y) && !x.fold && !y.fold {
			switch {
			case y.lo <= x.lo && y.hi < x.hi:
				return c.Range(y.hi+1, x.hi, false)
			case y.hi >= x.hi && y.lo > x.lo:
				return c.Range(x.lo, y.lo-1, false)
			}
		}
		if x.kind == KindTestDiff {
			return c.TestDiff(x.left, c.TestOr(x.right, y))
		}
	}
	return c.intern(&Node{kind: KindTestDiff, left: x, right: y})
}

func isRangeLike(n *Node) bool {
	return n.kind == KindChar || n.kind == KindRange
}

func flatten(dst []*Node, n *Node, k Kind) []*Node {
	for n.kind == k {
		dst = flatten(dst, n.left, k)
		n = n.right
	}
	return append(dst, n)
}

// chain builds a right-associated chain of pure operands in id order.
func (c *Context) chain(k Kind, ops []*Node) *Node {
	switch len(ops) {
	case 0:
		if k == KindTestAnd {
			return c.tru
		}
		return c.fail
	case 1:
		return ops[0]
	}
	slices.SortFunc(ops, func(a, b *Node) int { return cmp.Compare(a.id, b.id) })
	n := ops[len(ops)-1]
	for i := len(ops) - 2; i >= 0; i-- {
		n = c.intern(&Node{kind: k, left: ops[i], right: n})
	}
	return n
}
