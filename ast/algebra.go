package ast

// Seq returns the concatenation l·r. Sequences are kept right-associated.
func (c *Context) Seq(l, r *Node) *Node {
	switch {
	case l == c.fail || r == c.fail:
		return c.fail
	case l == c.empty || l == c.tru:
		return r
	case r == c.empty || r == c.tru:
		return l
	case l.kind == KindSeq:
		return c.Seq(l.left, c.Seq(l.right, r))
	case l.universal() && r.universal() && l.greedy == r.greedy:
		return l
	}
	return c.intern(&Node{kind: KindSeq, left: l, right: r})
}

// Alt returns the alternation l|r. Alternatives are kept right-associated
// and in source order; adjacent single-codepoint tests are merged into one
// test and adjacent alternatives sharing a head are factored.
func (c *Context) Alt(l, r *Node) *Node {
	switch {
	case l == c.fail:
		return r
	case r == c.fail:
		return l
	case l == r:
		return l
	case l.universal() && r.Pure():
		return l
	case r.universal() && l.Pure():
		return r
	case l.kind == KindAlt:
		return c.Alt(l.left, c.Alt(l.right, r))
	}

	head, rest := r, (*Node)(nil)
	if r.kind == KindAlt {
		head, rest = r.left, r.right
	}
	if l.Pure() && head.Pure() && l.consumingTest() && head.consumingTest() {
		return c.altTail(c.TestOr(l, head), rest)
	}
	if rest != nil && c.hasAlternative(rest, l) && l.Pure() {
		// A later duplicate alternative is redundant under leftmost-longest
		// semantics.
		return r
	}
	if f := c.factor(l, head); f != nil {
		return c.altTail(f, rest)
	}
	if l.Pure() && r.Pure() {
		if c.Contains(l, r) {
			return l
		}
		if c.Contains(r, l) {
			return r
		}
	}
	return c.intern(&Node{kind: KindAlt, left: l, right: r})
}

func (c *Context) altTail(head, rest *Node) *Node {
	if rest == nil {
		return head
	}
	return c.Alt(head, rest)
}

func (c *Context) hasAlternative(alts, x *Node) bool {
	for alts.kind == KindAlt {
		if alts.left == x {
			return true
		}
		alts = alts.right
	}
	return alts == x
}

// factor rewrites h·x | h·y into h·(x|y). It returns nil when a and b do not
// share a head.
func (c *Context) factor(a, b *Node) *Node {
	ha, ta := a, c.empty
	if a.kind == KindSeq {
		ha, ta = a.left, a.right
	}
	hb, tb := b, c.empty
	if b.kind == KindSeq {
		hb, tb = b.left, b.right
	}
	if ha != hb || ha == c.empty {
		return nil
	}
	return c.Seq(ha, c.Alt(ta, tb))
}

// Inter returns the intersection l&r.
func (c *Context) Inter(l, r *Node) *Node {
	switch {
	case l == c.fail || r == c.fail:
		return c.fail
	case l == r:
		return l
	case l.universal():
		return r
	case r.universal():
		return l
	case l.kind == KindInter:
		return c.Inter(l.left, c.Inter(l.right, r))
	}
	if l.Pure() && r.Pure() && l.consumingTest() && r.consumingTest() {
		return c.TestAnd(l, r)
	}
	if l == c.empty || r == c.empty {
		other := r
		if r == c.empty {
			other = l
		}
		if !other.Nullable() {
			return c.fail
		}
		if other.kind == KindLoop && other.min == 0 && other.Pure() {
			return c.empty
		}
	}
	if c.DisjointWith(l, r) {
		return c.fail
	}
	if l.levels > 0 && r.levels > 0 {
		// Both operands would drive counters on the same input.
		r = c.Unroll(r)
	}
	if r.kind != KindInter && l.Pure() && r.Pure() && r.id < l.id {
		l, r = r, l
	}
	return c.intern(&Node{kind: KindInter, left: l, right: r})
}

// Compl returns the complement ~x: every string x does not match. Captures
// and atomic groups inside x are dropped and counted loops are unrolled, as
// a complement has no single matching path to attribute them to.
func (c *Context) Compl(x *Node) *Node {
	switch {
	case x.kind == KindCompl:
		return x.left
	case x == c.fail:
		return c.anyStar
	case x.universal():
		return c.fail
	}
	if p := c.Purify(x); p != x {
		return c.Compl(p)
	}
	switch x.kind {
	case KindAlt:
		return c.Inter(c.Compl(x.left), c.Compl(x.right))
	case KindInter:
		return c.Alt(c.Compl(x.left), c.Compl(x.right))
	}
	return c.intern(&Node{kind: KindCompl, left: x})
}

// Loop returns x repeated between min and max times (max may be Unbounded).
func (c *Context) Loop(x *Node, min, max int, greedy bool) *Node {
	switch {
	case max != Unbounded && max < min:
		return c.fail
	case max == 0:
		return c.empty
	case x == c.empty || x == c.tru:
		return c.empty
	case x == c.fail:
		if min == 0 {
			return c.empty
		}
		return c.fail
	case min == 1 && max == 1:
		return x
	}
	if x.Nullable() {
		// Empty iterations already satisfy the lower bound.
		min = 0
	}
	switch {
	case min == 0 && max == 1:
		if greedy {
			return c.Alt(x, c.empty)
		}
		return c.Alt(c.empty, x)
	case max == Unbounded:
		star := c.Star(x, greedy)
		switch min {
		case 0:
			return star
		case 1:
			return c.Seq(x, star)
		}
		return c.Seq(c.Loop(x, min, min, greedy), star)
	}
	return c.intern(&Node{kind: KindLoop, left: x, min: min, max: max, greedy: greedy, level: x.levels})
}

// Star returns x*, or x*? when greedy is false.
func (c *Context) Star(x *Node, greedy bool) *Node {
	switch {
	case x == c.empty || x == c.tru || x == c.fail:
		return c.empty
	case x.kind == KindLoop && x.min == 0 && x.max == Unbounded:
		return x
	}
	return c.intern(&Node{kind: KindLoop, left: x, max: Unbounded, greedy: greedy})
}

// Capture returns capture group index around x.
func (c *Context) Capture(x *Node, index int, name string) *Node {
	if x == c.fail {
		return c.fail
	}
	return c.intern(&Node{kind: KindCapture, left: x, index: index, name: name})
}

// Atomic returns atomic group index around x.
func (c *Context) Atomic(x *Node, index int) *Node {
	if x == c.fail {
		return c.fail
	}
	return c.intern(&Node{kind: KindAtomic, left: x, index: index})
}

// Cond returns the conditional (?(group)yes|no).
func (c *Context) Cond(group int, yes, no *Node) *Node {
	if yes == no {
		return yes
	}
	return c.intern(&Node{kind: KindCond, left: yes, right: no, index: group})
}

// Backref returns a reference to the text captured by group.
func (c *Context) Backref(group int, fold bool) *Node {
	return c.intern(&Node{kind: KindBackref, index: group, fold: fold})
}

// Purify returns x without captures and atomic groups and with every
// counted loop unrolled. The result has the same language as x.
func (c *Context) Purify(x *Node) *Node {
	if x.Pure() && x.levels == 0 {
		return x
	}
	if p, ok := c.pure[x]; ok {
		return p
	}
	var p *Node
	switch x.kind {
	case KindCapture, KindAtomic:
		p = c.Purify(x.left)
	case KindSeq:
		p = c.Seq(c.Purify(x.left), c.Purify(x.right))
	case KindAlt:
		p = c.Alt(c.Purify(x.left), c.Purify(x.right))
	case KindInter:
		p = c.Inter(c.Purify(x.left), c.Purify(x.right))
	case KindLoop:
		p = c.Unroll(c.Loop(c.Purify(x.left), x.min, x.max, x.greedy))
	case KindCond:
		p = c.Cond(x.index, c.Purify(x.left), c.Purify(x.right))
	default:
		p = x
	}
	c.pure[x] = p
	return p
}

// Unroll rewrites every counted loop in x as a sequence of copies of its
// body followed by nested optional copies.
func (c *Context) Unroll(x *Node) *Node {
	if x.levels == 0 {
		return x
	}
	if u, ok := c.unrolled[x]; ok {
		return u
	}
	var u *Node
	switch x.kind {
	case KindLoop:
		body := c.Unroll(x.left)
		if x.max == Unbounded {
			u = c.Star(body, x.greedy)
			break
		}
		opt := c.empty
		for i := x.min; i < x.max; i++ {
			if x.greedy {
				opt = c.Alt(c.Seq(body, opt), c.empty)
			} else {
				opt = c.Alt(c.empty, c.Seq(body, opt))
			}
		}
		u = opt
		for i := 0; i < x.min; i++ {
			u = c.Seq(body, u)
		}
	case KindSeq:
		u = c.Seq(c.Unroll(x.left), c.Unroll(x.right))
	case KindAlt:
		u = c.Alt(c.Unroll(x.left), c.Unroll(x.right))
	case KindInter:
		u = c.Inter(c.Unroll(x.left), c.Unroll(x.right))
	case KindCapture:
		u = c.Capture(c.Unroll(x.left), x.index, x.name)
	case KindAtomic:
		u = c.Atomic(c.Unroll(x.left), x.index)
	case KindCond:
		u = c.Cond(x.index, c.Unroll(x.left), c.Unroll(x.right))
	default:
		u = x
	}
	c.unrolled[x] = u
	return u
}
