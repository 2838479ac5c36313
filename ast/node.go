// Package ast defines the pattern tree consumed by the derivative engine.
//
// A pattern is a DAG of immutable *Node values. Nodes are only created
// through the factory methods of a Context, which simplify every new node
// against a fixed algebra and intern the result, so two structurally
// identical patterns built in the same Context are the same pointer.
//
// Nodes come in two families:
//
//   - regex nodes (Seq, Alt, Inter, Compl, Loop, Capture, Atomic, Cond,
//     Backref, Empty, Fail) describe languages;
//   - instruction nodes (character tests, assertions, markers and the test
//     combinators Not/And/Or/Diff) are the transition labels of the
//     automaton. They are also valid regex leaves: a consuming test matches
//     one codepoint, a zero-width test matches the empty string.
package ast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Kind identifies the variant of a Node.
type Kind uint8

// Node kinds.
const (
	KindEmpty Kind = iota // matches the empty string; the accepting pattern
	KindFail              // matches nothing
	KindSeq
	KindAlt
	KindInter
	KindCompl
	KindLoop
	KindCapture
	KindAtomic
	KindCond
	KindBackref

	KindChar
	KindRange
	KindAny
	KindClass
	KindTrue
	KindAssert
	KindGroupSet
	KindCaptureOpen
	KindCaptureClose
	KindAtomicOpen
	KindAtomicClose
	KindLoopRepeat
	KindLoopExit
	KindBackrefStep
	KindBackrefDone

	KindTestNot
	KindTestAnd
	KindTestOr
	KindTestDiff
)

var kindNames = [...]string{
	KindEmpty:        "Empty",
	KindFail:         "Fail",
	KindSeq:          "Seq",
	KindAlt:          "Alt",
	KindInter:        "Inter",
	KindCompl:        "Compl",
	KindLoop:         "Loop",
	KindCapture:      "Capture",
	KindAtomic:       "Atomic",
	KindCond:         "Cond",
	KindBackref:      "Backref",
	KindChar:         "Char",
	KindRange:        "Range",
	KindAny:          "Any",
	KindClass:        "Class",
	KindTrue:         "True",
	KindAssert:       "Assert",
	KindGroupSet:     "GroupSet",
	KindCaptureOpen:  "CaptureOpen",
	KindCaptureClose: "CaptureClose",
	KindAtomicOpen:   "AtomicOpen",
	KindAtomicClose:  "AtomicClose",
	KindLoopRepeat:   "LoopRepeat",
	KindLoopExit:     "LoopExit",
	KindBackrefStep:  "BackrefStep",
	KindBackrefDone:  "BackrefDone",
	KindTestNot:      "Not",
	KindTestAnd:      "And",
	KindTestOr:       "Or",
	KindTestDiff:     "Diff",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsInstruction reports whether nodes of this kind can label a transition.
func (k Kind) IsInstruction() bool {
	return k >= KindChar || k == KindFail
}

// AssertOp identifies a zero-width position assertion.
type AssertOp uint8

// Assertions.
const (
	AssertBeginText AssertOp = iota // \A, or ^ without multiline
	AssertEndText                   // \z
	AssertEndTextOptNL              // \Z, or $ without multiline
	AssertBeginLine                 // ^ with multiline
	AssertEndLine                   // $ with multiline
	AssertWordBoundary
	AssertNotWordBoundary
	AssertWordBoundaryASCII
	AssertNotWordBoundaryASCII
	AssertStartPos // \G
)

var assertNames = [...]string{
	AssertBeginText:            `\A`,
	AssertEndText:              `\z`,
	AssertEndTextOptNL:         `\Z`,
	AssertBeginLine:            `(?m:^)`,
	AssertEndLine:              `(?m:$)`,
	AssertWordBoundary:         `\b`,
	AssertNotWordBoundary:      `\B`,
	AssertWordBoundaryASCII:    `(?-u:\b)`,
	AssertNotWordBoundaryASCII: `(?-u:\B)`,
	AssertStartPos:             `\G`,
}

func (op AssertOp) String() string {
	if int(op) < len(assertNames) {
		return assertNames[op]
	}
	return "Assert(" + strconv.Itoa(int(op)) + ")"
}

// negation returns the assertion that holds exactly where op does not, if
// there is one.
func (op AssertOp) negation() (AssertOp, bool) {
	switch op {
	case AssertWordBoundary:
		return AssertNotWordBoundary, true
	case AssertNotWordBoundary:
		return AssertWordBoundary, true
	case AssertWordBoundaryASCII:
		return AssertNotWordBoundaryASCII, true
	case AssertNotWordBoundaryASCII:
		return AssertWordBoundaryASCII, true
	}
	return 0, false
}

type nodeFlags uint8

const (
	flagImpure nodeFlags = 1 << iota
	flagZeroWidth
	flagNullable
	flagBackref
	flagPosDep
)

// Unbounded is the Max of a loop without an upper bound.
const Unbounded = -1

// Node is an interned pattern node. Nodes are immutable; compare them with
// ==.
type Node struct {
	kind  Kind
	id    uint32
	left  *Node
	right *Node

	lo, hi   rune
	min, max int
	index    int
	level    int
	name     string
	table    *unicode.RangeTable
	fold     bool
	greedy   bool

	flags   nodeFlags
	effects int
	depth   int
	levels  int
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// ID returns the creation order of the node within its Context.
func (n *Node) ID() uint32 { return n.id }

// Left returns the first operand of a binary node or the body of a unary one.
func (n *Node) Left() *Node { return n.left }

// Right returns the second operand of a binary node.
func (n *Node) Right() *Node { return n.right }

// Body is Left under a name that reads better for Loop, Capture, Atomic,
// Compl and Not.
func (n *Node) Body() *Node { return n.left }

// Rune returns the codepoint of a Char.
func (n *Node) Rune() rune { return n.lo }

// Lo returns the lower bound of a Range (or the rune of a Char).
func (n *Node) Lo() rune { return n.lo }

// Hi returns the upper bound of a Range (or the rune of a Char).
func (n *Node) Hi() rune { return n.hi }

// Fold reports whether the test compares under simple case folding.
func (n *Node) Fold() bool { return n.fold }

// Min returns the lower repetition bound of a Loop.
func (n *Node) Min() int { return n.min }

// Max returns the upper repetition bound of a Loop, or Unbounded.
func (n *Node) Max() int { return n.max }

// Greedy reports whether a Loop prefers more iterations.
func (n *Node) Greedy() bool { return n.greedy }

// Level returns the counter slot of a counted Loop, LoopRepeat or LoopExit.
func (n *Node) Level() int { return n.level }

// Index returns the group number of captures, atomics, backrefs,
// conditionals and their markers.
func (n *Node) Index() int { return n.index }

// Name returns the capture name or the class name.
func (n *Node) Name() string { return n.name }

// Table returns the Unicode table of a Class.
func (n *Node) Table() *unicode.RangeTable { return n.table }

// Op returns the assertion of an Assert node.
func (n *Node) Op() AssertOp { return AssertOp(n.index) }

// Counted reports whether a Loop uses an iteration counter.
func (n *Node) Counted() bool { return n.kind == KindLoop && n.max != Unbounded }

// Pure reports whether evaluating the node has no side effects.
func (n *Node) Pure() bool { return n.flags&flagImpure == 0 }

// ZeroWidth reports whether an instruction consumes no input.
func (n *Node) ZeroWidth() bool { return n.flags&flagZeroWidth != 0 }

// Nullable reports whether the pattern may match the empty string. Zero-width
// assertions count as nullable.
func (n *Node) Nullable() bool { return n.flags&flagNullable != 0 }

// HasBackrefs reports whether a backreference occurs below n.
func (n *Node) HasBackrefs() bool { return n.flags&flagBackref != 0 }

// Effects returns the number of match-state writes an instruction may make.
func (n *Node) Effects() int { return n.effects }

// Depth returns the height of the node.
func (n *Node) Depth() int { return n.depth }

// Levels returns the number of counter levels used by counted loops at or
// below n.
func (n *Node) Levels() int { return n.levels }

// IsInstruction reports whether n can label a transition.
func (n *Node) IsInstruction() bool { return n.kind.IsInstruction() }

// consumingTest reports whether n is an instruction that reads exactly one
// codepoint.
func (n *Node) consumingTest() bool {
	return n.kind.IsInstruction() && n.kind != KindFail && n.flags&flagZeroWidth == 0
}

// charOnly reports whether n is a consuming test whose outcome depends only
// on the codepoint read.
func (n *Node) charOnly() bool {
	return n.consumingTest() && n.flags&(flagImpure|flagPosDep) == 0
}

// universal reports whether n is .* (greedy or lazy).
func (n *Node) universal() bool {
	return n.kind == KindLoop && n.max == Unbounded && n.min == 0 && n.left.kind == KindAny
}

// ContainsRune reports whether a pure consuming test accepts r.
func (n *Node) ContainsRune(r rune) bool {
	switch n.kind {
	case KindChar:
		if n.fold {
			return foldEqual(r, n.lo)
		}
		return r == n.lo
	case KindRange:
		if n.fold {
			return foldInRange(r, n.lo, n.hi)
		}
		return n.lo <= r && r <= n.hi
	case KindAny:
		return true
	case KindClass:
		if n.fold {
			return foldInTable(n.table, r)
		}
		return unicode.Is(n.table, r)
	case KindTestOr:
		return n.left.ContainsRune(r) || n.right.ContainsRune(r)
	case KindTestAnd:
		return n.left.ContainsRune(r) && n.right.ContainsRune(r)
	case KindTestDiff:
		return n.left.ContainsRune(r) && !n.right.ContainsRune(r)
	case KindTestNot:
		return !n.left.ContainsRune(r)
	case KindTrue:
		return true
	}
	return false
}

// String renders the node in a regex-like notation for debugging.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.kind {
	case KindEmpty:
		b.WriteString("()")
	case KindFail:
		b.WriteString("[]")
	case KindSeq:
		n.left.writeOperand(b, KindSeq)
		n.right.writeOperand(b, KindSeq)
	case KindAlt:
		n.left.writeOperand(b, KindAlt)
		b.WriteByte('|')
		n.right.writeOperand(b, KindAlt)
	case KindInter:
		n.left.writeOperand(b, KindInter)
		b.WriteByte('&')
		n.right.writeOperand(b, KindInter)
	case KindCompl:
		b.WriteString("~(")
		n.left.write(b)
		b.WriteByte(')')
	case KindLoop:
		n.left.writeOperand(b, KindLoop)
		switch {
		case n.min == 0 && n.max == Unbounded:
			b.WriteByte('*')
		default:
			b.WriteByte('{')
			b.WriteString(strconv.Itoa(n.min))
			if n.max != n.min {
				b.WriteByte(',')
				if n.max != Unbounded {
					b.WriteString(strconv.Itoa(n.max))
				}
			}
			b.WriteByte('}')
		}
		if !n.greedy {
			b.WriteByte('?')
		}
	case KindCapture:
		b.WriteByte('(')
		if n.name != "" {
			b.WriteString("?<" + n.name + ">")
		}
		n.left.write(b)
		b.WriteByte(')')
	case KindAtomic:
		b.WriteString("(?>")
		n.left.write(b)
		b.WriteByte(')')
	case KindCond:
		fmt.Fprintf(b, "(?(%d)", n.index)
		n.left.write(b)
		b.WriteByte('|')
		n.right.write(b)
		b.WriteByte(')')
	case KindBackref:
		fmt.Fprintf(b, `\%d`, n.index)
	case KindChar:
		writeRune(b, n.lo, n.fold)
	case KindRange:
		b.WriteByte('[')
		writeRune(b, n.lo, false)
		b.WriteByte('-')
		writeRune(b, n.hi, false)
		b.WriteByte(']')
		if n.fold {
			b.WriteString("/i")
		}
	case KindAny:
		b.WriteString("(?s:.)")
	case KindClass:
		b.WriteString(`\p{` + n.name + "}")
		if n.fold {
			b.WriteString("/i")
		}
	case KindTrue:
		b.WriteString("<true>")
	case KindAssert:
		b.WriteString(n.Op().String())
	case KindGroupSet:
		fmt.Fprintf(b, "<set%d>", n.index)
	case KindCaptureOpen:
		fmt.Fprintf(b, "<open%d>", n.index)
	case KindCaptureClose:
		fmt.Fprintf(b, "<close%d>", n.index)
	case KindAtomicOpen:
		fmt.Fprintf(b, "<aopen%d>", n.index)
	case KindAtomicClose:
		fmt.Fprintf(b, "<aclose%d>", n.index)
	case KindLoopRepeat:
		fmt.Fprintf(b, "<rep%d<%d>", n.level, n.max)
	case KindLoopExit:
		fmt.Fprintf(b, "<exit%d>=%d>", n.level, n.min)
	case KindBackrefStep:
		fmt.Fprintf(b, "<step%d>", n.index)
	case KindBackrefDone:
		fmt.Fprintf(b, "<done%d>", n.index)
	case KindTestNot:
		b.WriteString("!")
		n.left.writeOperand(b, KindTestNot)
	case KindTestAnd, KindTestOr, KindTestDiff:
		op := map[Kind]string{KindTestAnd: " && ", KindTestOr: " || ", KindTestDiff: " -- "}[n.kind]
		b.WriteByte('{')
		n.left.write(b)
		b.WriteString(op)
		n.right.write(b)
		b.WriteByte('}')
	default:
		b.WriteString(n.kind.String())
	}
}

func (n *Node) writeOperand(b *strings.Builder, parent Kind) {
	wrap := false
	switch n.kind {
	case KindAlt:
		wrap = parent != KindAlt
	case KindInter:
		wrap = parent == KindSeq || parent == KindLoop || parent == KindTestNot
	case KindSeq:
		wrap = parent == KindLoop || parent == KindTestNot
	case KindLoop:
		wrap = parent == KindLoop
	}
	if wrap {
		b.WriteString("(?:")
		n.write(b)
		b.WriteByte(')')
		return
	}
	n.write(b)
}

func writeRune(b *strings.Builder, r rune, fold bool) {
	if fold {
		b.WriteString("(?i:")
	}
	if strings.ContainsRune(`\.+*?()|[]{}^$&~`, r) {
		b.WriteByte('\\')
	}
	if unicode.IsPrint(r) {
		b.WriteRune(r)
	} else {
		fmt.Fprintf(b, `\x{%x}`, r)
	}
	if fold {
		b.WriteByte(')')
	}
}
