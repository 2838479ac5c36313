package nfa

import (
	"fmt"
	"unicode"

	"github.com/coregx/derivre/prefilter"
)

// StateID identifies an automaton state. State 0 is the start state.
type StateID uint32

// InvalidState marks a missing state, such as the final state of a pattern
// that can never match.
const InvalidState StateID = 0xFFFFFFFF

// Op is the opcode of an instruction.
type Op uint8

// Instruction opcodes. Operands A and B are described per opcode; for the
// combinators they are indexes of other instructions.
const (
	OpFail        Op = iota // never succeeds
	OpTrue                  // always succeeds, consumes nothing
	OpChar                  // A = codepoint
	OpCharFold              // A = case-fold key
	OpRange                 // A..B
	OpRangeFold             // A..B under case folding
	OpAny                   // any codepoint
	OpClass                 // A = table index
	OpClassFold             // A = table index, under case folding
	OpAssert                // A = ast.AssertOp
	OpGroupSet              // A = capture group
	OpCaptureOpen           // A = capture group
	OpCaptureClose          // A = capture group
	OpAtomicOpen            // A = atomic group
	OpAtomicClose           // A = atomic group
	OpLoopRepeat            // A = counter level, B = max
	OpLoopExit              // A = counter level, B = min
	OpBackrefStep           // A = capture group, B = 1 with case folding
	OpBackrefDone           // A = capture group
	OpNot                   // !A
	OpAnd                   // A && B, effects in order
	OpOr                    // A || B, B only runs when A fails
	OpDiff                  // A && !B, B's effects rolled back
)

var opNames = [...]string{
	OpFail:         "Fail",
	OpTrue:         "True",
	OpChar:         "Char",
	OpCharFold:     "CharFold",
	OpRange:        "Range",
	OpRangeFold:    "RangeFold",
	OpAny:          "Any",
	OpClass:        "Class",
	OpClassFold:    "ClassFold",
	OpAssert:       "Assert",
	OpGroupSet:     "GroupSet",
	OpCaptureOpen:  "CaptureOpen",
	OpCaptureClose: "CaptureClose",
	OpAtomicOpen:   "AtomicOpen",
	OpAtomicClose:  "AtomicClose",
	OpLoopRepeat:   "LoopRepeat",
	OpLoopExit:     "LoopExit",
	OpBackrefStep:  "BackrefStep",
	OpBackrefDone:  "BackrefDone",
	OpNot:          "Not",
	OpAnd:          "And",
	OpOr:           "Or",
	OpDiff:         "Diff",
}

// String returns a human-readable representation of the Op
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Unknown(%d)", op)
}

// Instruction is one entry of the instruction table. Composite tests refer
// to their operands by index, so shared subtrees are stored once and the
// table forms a DAG.
type Instruction struct {
	Op   Op
	A, B int32
}

// String returns a human-readable representation of the instruction
func (in Instruction) String() string {
	switch in.Op {
	case OpFail, OpTrue, OpAny:
		return in.Op.String()
	case OpChar, OpCharFold:
		return fmt.Sprintf("%s(%q)", in.Op, rune(in.A))
	case OpRange, OpRangeFold:
		return fmt.Sprintf("%s(%q-%q)", in.Op, rune(in.A), rune(in.B))
	case OpNot, OpClass, OpClassFold, OpAssert, OpGroupSet, OpCaptureOpen,
		OpCaptureClose, OpAtomicOpen, OpAtomicClose, OpBackrefDone:
		return fmt.Sprintf("%s(%d)", in.Op, in.A)
	}
	return fmt.Sprintf("%s(%d, %d)", in.Op, in.A, in.B)
}

// Transition is one outgoing edge of a state: if instruction Instr succeeds
// at the current position, the match continues in Target.
type Transition struct {
	Instr  uint32
	Target StateID
}

// noInstr marks a missing instruction index.
const noInstr = ^uint32(0)

// NFA is a compiled pattern: the instruction table, the transition table
// and what the matcher needs to size and accelerate its search.
//
// An NFA is immutable after construction and may be shared by concurrent
// searches, each using its own Matcher.
type NFA struct {
	instructions []Instruction
	zeroWidth    []bool
	tables       []*unicode.RangeTable
	states       [][]Transition
	final        StateID

	names       []string
	numCaptures int
	numAtomics  int
	levels      int
	anchored    bool
	hasBackrefs bool
	groupTests  bool

	prefix     []rune
	prefixFold bool
	prefilter  prefilter.Prefilter
	firstChar  uint32

	maxEffects int
	maxNesting int
}

// States returns the number of states.
func (n *NFA) States() int {
	return len(n.states)
}

// Transitions returns the outgoing transitions of state id in priority
// order. The slice must not be modified.
func (n *NFA) Transitions(id StateID) []Transition {
	if int(id) >= len(n.states) {
		return nil
	}
	return n.states[id]
}

// Final returns the accepting state, or InvalidState when the pattern can
// never match.
func (n *NFA) Final() StateID {
	return n.final
}

// IsFinal reports whether id is the accepting state.
func (n *NFA) IsFinal(id StateID) bool {
	return id == n.final
}

// Instructions returns the instruction table. The slice must not be
// modified.
func (n *NFA) Instructions() []Instruction {
	return n.instructions
}

// Instruction returns instruction i.
func (n *NFA) Instruction(i uint32) Instruction {
	return n.instructions[i]
}

// ZeroWidth reports whether instruction i consumes no input.
func (n *NFA) ZeroWidth(i uint32) bool {
	return n.zeroWidth[i]
}

// Table returns the Unicode table referenced by a Class instruction.
func (n *NFA) Table(i int32) *unicode.RangeTable {
	return n.tables[i]
}

// CaptureCount returns the number of capture groups, group 0 (the whole
// match) included.
func (n *NFA) CaptureCount() int {
	return n.numCaptures
}

// AtomicCount returns the number of atomic groups.
func (n *NFA) AtomicCount() int {
	return n.numAtomics
}

// Levels returns the number of loop counters.
func (n *NFA) Levels() int {
	return n.levels
}

// SubexpNames returns the names of the capture groups. Index 0 is always ""
// and unnamed groups have "". The result is a copy.
func (n *NFA) SubexpNames() []string {
	names := make([]string, n.numCaptures)
	copy(names, n.names)
	return names
}

// IsAnchored reports whether every match must begin at the search start.
func (n *NFA) IsAnchored() bool {
	return n.anchored
}

// HasBackrefs reports whether the pattern uses backreferences.
func (n *NFA) HasBackrefs() bool {
	return n.hasBackrefs
}

// Prefix returns the literal every match begins with, and whether it is
// compared under case folding.
func (n *NFA) Prefix() ([]rune, bool) {
	return n.prefix, n.prefixFold
}

// Prefilter returns the start-position accelerator, or nil.
func (n *NFA) Prefilter() prefilter.Prefilter {
	return n.prefilter
}

// FirstChar returns the pure test every match's first codepoint satisfies.
// ok is false when no such test narrows the search.
func (n *NFA) FirstChar() (instr uint32, ok bool) {
	return n.firstChar, n.firstChar != noInstr
}

// MaxEffects returns the largest number of match-state writes a single
// instruction can make.
func (n *NFA) MaxEffects() int {
	return n.maxEffects
}

// MaxNesting returns the deepest instruction tree.
func (n *NFA) MaxNesting() int {
	return n.maxNesting
}

// Slot layout of Match.data.
const (
	slotState  = 0
	slotPos    = 1
	slotCursor = 2
	slotGroups = 3
)

func (n *NFA) captureSlot(g int) int {
	return slotGroups + 2*g
}

func (n *NFA) atomicSlot(i int) int {
	return slotGroups + 2*n.numCaptures + 2*i
}

func (n *NFA) counterSlot(level int) int {
	return slotGroups + 2*n.numCaptures + 2*n.numAtomics + level
}

// slotCount returns the length of Match.data.
func (n *NFA) slotCount() int {
	return n.counterSlot(n.levels)
}

// String returns a human-readable representation of the NFA
func (n *NFA) String() string {
	return fmt.Sprintf("NFA{states: %d, instructions: %d, final: %d, captures: %d, atomics: %d, anchored: %v}",
		len(n.states), len(n.instructions), n.final, n.numCaptures, n.numAtomics, n.anchored)
}
