package nfa

import (
	"fmt"
	"unicode"

	"github.com/golang/glog"

	"github.com/coregx/derivre/ast"
	"github.com/coregx/derivre/internal/conv"
	"github.com/coregx/derivre/literal"
	"github.com/coregx/derivre/prefilter"
)

// builder discovers the states of an automaton and fills its tables.
type builder struct {
	c      *ast.Context
	config Config
	nfa    *NFA

	ids   map[*ast.Node]StateID
	queue []*ast.Node

	memo   map[*ast.Node]uint32
	dedup  map[Instruction]uint32
	tables map[*unicode.RangeTable]int32
}

// Traverse builds the automaton of root.
//
// States are discovered breadth first from root, which becomes state 0.
// Every distinct derivative target is one state; since nodes are interned,
// structurally equal targets reached along different paths share a state.
// Each derivative's acceptance test is translated once into the
// instruction table, and equal tests share one entry.
//
// Traverse fails with ErrTooComplex (wrapped in a *BuildError) when more
// than config.MaxStates states are reachable.
func Traverse(c *ast.Context, root *ast.Node, config Config) (*NFA, error) {
	info := c.Annotate(root)
	b := &builder{
		c:      c,
		config: config,
		nfa: &NFA{
			final:       InvalidState,
			firstChar:   noInstr,
			names:       info.Names,
			numCaptures: info.NumCaptures,
			numAtomics:  info.NumAtomics,
			levels:      info.Levels,
			anchored:    info.Anchored,
			hasBackrefs: info.HasBackrefs,
		},
		ids:    make(map[*ast.Node]StateID),
		memo:   make(map[*ast.Node]uint32),
		dedup:  make(map[Instruction]uint32),
		tables: make(map[*unicode.RangeTable]int32),
	}
	n := b.nfa

	if _, err := b.state(root); err != nil {
		return nil, err
	}
	for i := 0; i < len(b.queue); i++ {
		ds := c.Derivatives(b.queue[i])
		trans := make([]Transition, 0, len(ds))
		for _, d := range ds {
			instr := b.toInstruction(d.Accept)
			target, err := b.state(d.Target)
			if err != nil {
				return nil, err
			}
			trans = append(trans, Transition{Instr: instr, Target: target})
			n.maxEffects = max(n.maxEffects, d.Accept.Effects())
			n.maxNesting = max(n.maxNesting, d.Accept.Depth())
		}
		n.states[i] = trans
	}

	if t := startTest(c, root); t != nil {
		n.firstChar = b.toInstruction(t)
	}
	n.prefix, n.prefixFold = literal.Prefix(root)
	if config.EnablePrefilter && !n.anchored {
		prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(root)
		n.prefilter = prefilter.NewBuilder(n.prefix, n.prefixFold, prefixes).
			MinPrefixLen(config.MinPrefixLen).
			AhoCorasick(config.EnableAhoCorasick).
			Build()
	}

	if glog.V(2) {
		glog.Infof("nfa: %d states, %d instructions, max effects %d, max nesting %d, prefilter %v",
			len(n.states), len(n.instructions), n.maxEffects, n.maxNesting, n.prefilter)
	}
	return n, nil
}

// state returns the id of node, registering it as a new state if needed.
func (b *builder) state(node *ast.Node) (StateID, error) {
	if id, ok := b.ids[node]; ok {
		return id, nil
	}
	if len(b.queue) >= b.config.MaxStates {
		return InvalidState, &BuildError{
			Message: fmt.Sprintf("more than %d states", b.config.MaxStates),
			StateID: StateID(conv.IntToUint32(len(b.queue))),
			Err:     ErrTooComplex,
		}
	}
	id := StateID(conv.IntToUint32(len(b.queue)))
	b.ids[node] = id
	b.queue = append(b.queue, node)
	b.nfa.states = append(b.nfa.states, nil)
	if node == b.c.Empty() {
		b.nfa.final = id
	}
	return id, nil
}

// toInstruction returns the instruction table index of test n, adding it
// and its operands as needed.
func (b *builder) toInstruction(n *ast.Node) uint32 {
	if i, ok := b.memo[n]; ok {
		return i
	}
	var in Instruction
	switch n.Kind() {
	case ast.KindFail:
		in.Op = OpFail
	case ast.KindTrue:
		in.Op = OpTrue
	case ast.KindChar:
		in = Instruction{Op: OpChar, A: n.Rune()}
		if n.Fold() {
			in.Op = OpCharFold
		}
	case ast.KindRange:
		in = Instruction{Op: OpRange, A: n.Lo(), B: n.Hi()}
		if n.Fold() {
			in.Op = OpRangeFold
		}
	case ast.KindAny:
		in.Op = OpAny
	case ast.KindClass:
		in = Instruction{Op: OpClass, A: b.table(n.Table())}
		if n.Fold() {
			in.Op = OpClassFold
		}
	case ast.KindAssert:
		in = Instruction{Op: OpAssert, A: int32(n.Op())}
	case ast.KindGroupSet:
		in = Instruction{Op: OpGroupSet, A: index32(n.Index())}
		b.nfa.groupTests = true
	case ast.KindCaptureOpen:
		in = Instruction{Op: OpCaptureOpen, A: index32(n.Index())}
	case ast.KindCaptureClose:
		in = Instruction{Op: OpCaptureClose, A: index32(n.Index())}
	case ast.KindAtomicOpen:
		in = Instruction{Op: OpAtomicOpen, A: index32(n.Index())}
	case ast.KindAtomicClose:
		in = Instruction{Op: OpAtomicClose, A: index32(n.Index())}
	case ast.KindLoopRepeat:
		in = Instruction{Op: OpLoopRepeat, A: index32(n.Level()), B: index32(n.Max())}
	case ast.KindLoopExit:
		in = Instruction{Op: OpLoopExit, A: index32(n.Level()), B: index32(n.Min())}
	case ast.KindBackrefStep:
		in = Instruction{Op: OpBackrefStep, A: index32(n.Index())}
		if n.Fold() {
			in.B = 1
		}
	case ast.KindBackrefDone:
		in = Instruction{Op: OpBackrefDone, A: index32(n.Index())}
	case ast.KindTestNot:
		in = Instruction{Op: OpNot, A: b.operand(n.Left())}
	case ast.KindTestAnd:
		in = Instruction{Op: OpAnd, A: b.operand(n.Left()), B: b.operand(n.Right())}
	case ast.KindTestOr:
		in = Instruction{Op: OpOr, A: b.operand(n.Left()), B: b.operand(n.Right())}
	case ast.KindTestDiff:
		in = Instruction{Op: OpDiff, A: b.operand(n.Left()), B: b.operand(n.Right())}
	default:
		panic(fmt.Sprintf("nfa: %v node %v is not an instruction", n.Kind(), n))
	}

	i, ok := b.dedup[in]
	if !ok {
		i = conv.IntToUint32(len(b.nfa.instructions))
		b.nfa.instructions = append(b.nfa.instructions, in)
		b.nfa.zeroWidth = append(b.nfa.zeroWidth, n.ZeroWidth())
		b.dedup[in] = i
	}
	b.memo[n] = i
	return i
}

func (b *builder) operand(n *ast.Node) int32 {
	return int32(b.toInstruction(n))
}

func (b *builder) table(t *unicode.RangeTable) int32 {
	if i, ok := b.tables[t]; ok {
		return i
	}
	i := index32(len(b.nfa.tables))
	b.nfa.tables = append(b.nfa.tables, t)
	b.tables[t] = i
	return i
}

func index32(v int) int32 {
	return conv.IntToInt32(v)
}

// startTest returns a pure test that the first codepoint of every match
// passes, or nil when the pattern can match without consuming or the test
// would accept everything.
func startTest(c *ast.Context, root *ast.Node) *ast.Node {
	if root.Nullable() {
		return nil
	}
	test := c.Fail()
	for _, d := range c.Derivatives(root) {
		p := charPart(c, d.Accept)
		if p == nil {
			return nil
		}
		test = c.TestOr(test, p)
	}
	if test == c.Any() {
		return nil
	}
	return test
}

// charPart strips the side effects from a consuming test, keeping a pure
// test that accepts at least what n accepts. It returns nil when n may
// succeed without consuming.
func charPart(c *ast.Context, n *ast.Node) *ast.Node {
	if n.ZeroWidth() {
		return nil
	}
	if n.Pure() {
		return n
	}
	switch n.Kind() {
	case ast.KindTestAnd:
		l, r := charPart(c, n.Left()), charPart(c, n.Right())
		switch {
		case l == nil:
			return r
		case r == nil:
			return l
		}
		return c.TestAnd(l, r)
	case ast.KindTestOr:
		l, r := charPart(c, n.Left()), charPart(c, n.Right())
		if l == nil || r == nil {
			return nil
		}
		return c.TestOr(l, r)
	case ast.KindTestDiff:
		return charPart(c, n.Left())
	}
	return c.Any()
}
