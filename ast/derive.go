package ast

// Derivative is one outgoing transition of a pattern: on input satisfying
// Accept, the rest of the match must satisfy Target.
//
// Zero-width accepts always have Target == Empty: a transition either
// consumes one codepoint or finishes the match.
type Derivative struct {
	Accept *Node
	Target *Node
}

// Derivatives returns the ordered derivatives of n. Earlier entries are
// preferred by greedy and lazy quantifiers. The result is cached and must not
// be modified.
func (c *Context) Derivatives(n *Node) []Derivative {
	if ds, ok := c.derivs[n]; ok {
		return ds
	}
	ds := c.derive(n)
	c.derivs[n] = ds
	return ds
}

// withFinal returns n's derivatives plus the implicit zero-width acceptance
// of Empty, for operators that must see every way an operand can finish.
func (c *Context) withFinal(n *Node) []Derivative {
	if n == c.empty {
		return []Derivative{{Accept: c.tru, Target: c.empty}}
	}
	return c.Derivatives(n)
}

type derivList struct {
	c   *Context
	out []Derivative
}

func (l *derivList) add(accept, target *Node) {
	if accept == l.c.fail || target == l.c.fail {
		return
	}
	for i, d := range l.out {
		if d.Target != target {
			continue
		}
		if d.Accept == accept {
			return
		}
		if d.Accept.Pure() && accept.Pure() && d.Accept.ZeroWidth() == accept.ZeroWidth() {
			l.out[i].Accept = l.c.TestOr(d.Accept, accept)
			return
		}
	}
	l.out = append(l.out, Derivative{Accept: accept, Target: target})
}

func (c *Context) derive(n *Node) []Derivative {
	l := derivList{c: c}
	switch n.kind {
	case KindEmpty, KindFail:
		return nil

	case KindSeq:
		for _, d := range c.Derivatives(n.left) {
			if !d.Accept.ZeroWidth() || d.Target != c.empty {
				l.add(d.Accept, c.Seq(d.Target, n.right))
				continue
			}
			for _, d2 := range c.Derivatives(n.right) {
				l.add(c.TestAnd(d.Accept, d2.Accept), d2.Target)
			}
		}

	case KindAlt:
		for _, d := range c.withFinal(n.left) {
			l.add(d.Accept, d.Target)
		}
		for _, d := range c.withFinal(n.right) {
			l.add(d.Accept, d.Target)
		}

	case KindInter:
		for _, d1 := range c.withFinal(n.left) {
			for _, d2 := range c.withFinal(n.right) {
				z := d1.Accept.ZeroWidth()
				if z != d2.Accept.ZeroWidth() {
					continue
				}
				acc := c.TestAnd(d1.Accept, d2.Accept)
				if z {
					l.add(acc, c.empty)
				} else {
					l.add(acc, c.Inter(d1.Target, d2.Target))
				}
			}
		}

	case KindCompl:
		c.deriveCompl(&l, n.left)

	case KindLoop:
		c.deriveLoop(&l, n)

	case KindCapture:
		return c.Derivatives(c.Seq(c.CaptureOpen(n.index), c.Seq(n.left, c.CaptureClose(n.index))))

	case KindAtomic:
		return c.Derivatives(c.Seq(c.AtomicOpen(n.index), c.Seq(n.left, c.AtomicClose(n.index))))

	case KindCond:
		set := c.GroupSet(n.index)
		return c.Derivatives(c.Alt(c.Seq(set, n.left), c.Seq(c.TestNot(set), n.right)))

	case KindBackref:
		l.add(c.BackrefStep(n.index, n.fold), n)
		l.add(c.BackrefDone(n.index), c.empty)

	default:
		l.add(n, c.empty)
	}
	return l.out
}

// comesFrom reports whether a body derivative of a loop would re-enter the
// loop without consuming input. Such iterations are dropped: they cannot
// contribute a new match and would let the loop spin in place.
func comesFrom(d Derivative) bool {
	return d.Accept.ZeroWidth()
}

func (c *Context) deriveLoop(l *derivList, n *Node) {
	counted := n.Counted()
	var reps []Derivative
	for _, d := range c.Derivatives(n.left) {
		if comesFrom(d) {
			continue
		}
		acc := d.Accept
		if counted {
			acc = c.TestAnd(c.LoopRepeat(n.level, n.max), acc)
		}
		reps = append(reps, Derivative{Accept: acc, Target: c.Seq(d.Target, n)})
	}
	exit := c.tru
	if counted {
		exit = c.LoopExit(n.level, n.min)
	}
	if !n.greedy {
		l.add(exit, c.empty)
	}
	for _, d := range reps {
		l.add(d.Accept, d.Target)
	}
	if n.greedy {
		l.add(exit, c.empty)
	}
}

// deriveCompl computes the derivatives of ~x. The consuming accepts of x are
// split into disjoint minterms; each minterm leads to the complement of the
// union of the targets it reaches. Input accepted by none of x's consuming
// tests leads to .*.
func (c *Context) deriveCompl(l *derivList, x *Node) {
	type part struct {
		test    *Node
		targets *Node
	}
	var parts []part
	union := c.fail
	zero := c.fail
	for _, d := range c.withFinal(x) {
		if d.Accept.ZeroWidth() {
			zero = c.TestOr(zero, d.Accept)
			continue
		}
		union = c.TestOr(union, d.Accept)
		rest := d.Accept
		var next []part
		for _, p := range parts {
			if rest == c.fail {
				next = append(next, p)
				continue
			}
			both := c.TestAnd(p.test, rest)
			if both == c.fail {
				next = append(next, p)
				continue
			}
			next = append(next, part{test: both, targets: c.Alt(p.targets, d.Target)})
			if only := c.TestDiff(p.test, rest); only != c.fail {
				next = append(next, part{test: only, targets: p.targets})
			}
			rest = c.TestDiff(rest, p.test)
		}
		if rest != c.fail {
			next = append(next, part{test: rest, targets: d.Target})
		}
		parts = next
	}
	for _, p := range parts {
		l.add(p.test, c.Compl(p.targets))
	}
	if none := c.TestDiff(c.any, union); none != c.fail {
		l.add(none, c.anyStar)
	}
	if nz := c.TestNot(zero); nz != c.fail {
		l.add(nz, c.empty)
	}
}
