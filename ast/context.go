package ast

import (
	"encoding/binary"
	"unicode"

	farm "github.com/dgryski/go-farm"

	"github.com/coregx/derivre/internal/casefold"
)

var (
	foldEqual   = casefold.Equal
	foldInRange = casefold.InRange
	foldInTable = casefold.InTable
)

// Context owns the interning table of a family of patterns together with
// the per-node caches of derived data (derivatives, annotations, relation
// results). A Context is not safe for concurrent use; compile each pattern
// in its own Context or serialize access.
type Context struct {
	buckets map[uint64][]*Node
	nodes   []*Node
	key     []byte

	derivs   map[*Node][]Derivative
	info     map[*Node]*Info
	pure     map[*Node]*Node
	unrolled map[*Node]*Node
	rel      map[relKey]bool

	empty   *Node
	fail    *Node
	tru     *Node
	any     *Node
	anyStar *Node
}

type relKey struct {
	a, b     uint32
	contains bool
}

// NewContext returns an empty Context with the constant nodes preallocated.
func NewContext() *Context {
	c := &Context{
		buckets:  make(map[uint64][]*Node),
		derivs:   make(map[*Node][]Derivative),
		info:     make(map[*Node]*Info),
		pure:     make(map[*Node]*Node),
		unrolled: make(map[*Node]*Node),
		rel:      make(map[relKey]bool),
	}
	c.empty = c.intern(&Node{kind: KindEmpty})
	c.fail = c.intern(&Node{kind: KindFail})
	c.tru = c.intern(&Node{kind: KindTrue})
	c.any = c.intern(&Node{kind: KindAny})
	c.anyStar = c.intern(&Node{kind: KindLoop, left: c.any, max: Unbounded, greedy: true})
	return c
}

// NumNodes returns the number of distinct nodes created so far.
func (c *Context) NumNodes() int { return len(c.nodes) }

// Node returns the node with the given id.
func (c *Context) Node(id uint32) *Node { return c.nodes[id] }

// Empty returns the pattern matching only the empty string.
func (c *Context) Empty() *Node { return c.empty }

// Fail returns the pattern matching nothing. It doubles as the test that
// never succeeds.
func (c *Context) Fail() *Node { return c.fail }

// True returns the zero-width test that always succeeds.
func (c *Context) True() *Node { return c.tru }

// Any returns the test accepting every codepoint.
func (c *Context) Any() *Node { return c.any }

// AnyStar returns .*, the pattern matching every string.
func (c *Context) AnyStar() *Node { return c.anyStar }

const nilID = ^uint32(0)

func idOf(n *Node) uint32 {
	if n == nil {
		return nilID
	}
	return n.id
}

// intern returns the canonical node equal to proto, registering proto if it
// is new. proto must not be used by the caller afterwards.
func (c *Context) intern(proto *Node) *Node {
	k := c.key[:0]
	k = append(k, byte(proto.kind))
	k = binary.LittleEndian.AppendUint32(k, idOf(proto.left))
	k = binary.LittleEndian.AppendUint32(k, idOf(proto.right))
	k = binary.LittleEndian.AppendUint32(k, uint32(proto.lo))
	k = binary.LittleEndian.AppendUint32(k, uint32(proto.hi))
	k = binary.AppendVarint(k, int64(proto.min))
	k = binary.AppendVarint(k, int64(proto.max))
	k = binary.AppendVarint(k, int64(proto.index))
	k = binary.AppendVarint(k, int64(proto.level))
	var bits byte
	if proto.fold {
		bits |= 1
	}
	if proto.greedy {
		bits |= 2
	}
	k = append(k, bits)
	k = append(k, proto.name...)
	c.key = k

	h := farm.Fingerprint64(k)
	for _, n := range c.buckets[h] {
		if sameNode(n, proto) {
			return n
		}
	}
	proto.id = uint32(len(c.nodes))
	c.analyze(proto)
	c.nodes = append(c.nodes, proto)
	c.buckets[h] = append(c.buckets[h], proto)
	return proto
}

func sameNode(a, b *Node) bool {
	return a.kind == b.kind && a.left == b.left && a.right == b.right &&
		a.lo == b.lo && a.hi == b.hi && a.min == b.min && a.max == b.max &&
		a.index == b.index && a.level == b.level && a.name == b.name &&
		a.fold == b.fold && a.greedy == b.greedy && a.table == b.table
}

// analyze fills the derived properties of a freshly created node. Children
// are always interned before their parents, so their properties are final.
func (c *Context) analyze(n *Node) {
	l, r := n.left, n.right
	n.depth = 1
	if l != nil {
		n.depth = l.depth + 1
		n.levels = l.levels
		n.flags |= l.flags & (flagBackref | flagPosDep)
	}
	if r != nil {
		n.depth = max(n.depth, r.depth+1)
		n.levels = max(n.levels, r.levels)
		n.flags |= r.flags & (flagBackref | flagPosDep)
	}

	switch n.kind {
	case KindEmpty:
		n.flags |= flagNullable | flagZeroWidth
	case KindFail:
	case KindSeq:
		n.setPurity(l, r)
		if l.Nullable() && r.Nullable() {
			n.flags |= flagNullable
		}
	case KindAlt:
		n.setPurity(l, r)
		if l.Nullable() || r.Nullable() {
			n.flags |= flagNullable
		}
	case KindInter:
		n.setPurity(l, r)
		if l.Nullable() && r.Nullable() {
			n.flags |= flagNullable
		}
	case KindCompl:
		// Conditional nullability of the operand leaves the complement
		// possibly nullable as well.
		if !l.Nullable() || l.flags&flagPosDep != 0 {
			n.flags |= flagNullable
		}
	case KindLoop:
		n.setPurity(l, nil)
		if n.min == 0 || l.Nullable() {
			n.flags |= flagNullable
		}
		if n.max != Unbounded {
			n.levels = l.levels + 1
		}
	case KindCapture, KindAtomic:
		n.flags |= flagImpure
		if l.Nullable() {
			n.flags |= flagNullable
		}
	case KindCond:
		n.setPurity(l, r)
		if l.Nullable() || r.Nullable() {
			n.flags |= flagNullable
		}
	case KindBackref:
		n.flags |= flagImpure | flagNullable | flagBackref

	case KindChar, KindRange, KindAny, KindClass:
		n.effects = 0
	case KindTrue:
		n.flags |= flagZeroWidth | flagNullable
	case KindAssert, KindGroupSet:
		n.flags |= flagZeroWidth | flagNullable | flagPosDep
	case KindCaptureOpen, KindCaptureClose, KindAtomicOpen, KindAtomicClose,
		KindLoopRepeat, KindLoopExit, KindBackrefDone:
		n.flags |= flagZeroWidth | flagNullable | flagImpure | flagPosDep
		n.effects = 2
	case KindBackrefStep:
		n.flags |= flagImpure | flagPosDep
		n.effects = 1

	case KindTestNot:
		n.flags |= l.flags & (flagImpure | flagZeroWidth | flagNullable)
		n.effects = l.effects
	case KindTestAnd:
		n.setPurity(l, r)
		if l.ZeroWidth() && r.ZeroWidth() {
			n.flags |= flagZeroWidth | flagNullable
		}
		n.effects = l.effects + r.effects
	case KindTestOr:
		n.setPurity(l, r)
		if l.ZeroWidth() && r.ZeroWidth() {
			n.flags |= flagZeroWidth | flagNullable
		}
		n.effects = max(l.effects, r.effects)
	case KindTestDiff:
		n.setPurity(l, r)
		n.flags |= l.flags & (flagZeroWidth | flagNullable)
		// Both sides run; the right side is rolled back afterwards.
		n.effects = l.effects + r.effects
	}
}

func (n *Node) setPurity(l, r *Node) {
	if !l.Pure() || (r != nil && !r.Pure()) {
		n.flags |= flagImpure
	}
}

// validRune clamps r into the Unicode range.
func validRune(r rune) rune {
	switch {
	case r < 0:
		return 0
	case r > unicode.MaxRune:
		return unicode.MaxRune
	}
	return r
}
