package nfa

import (
	"fmt"
	"math"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/derivre/ast"
	"github.com/coregx/derivre/internal/casefold"
	"github.com/coregx/derivre/internal/sparse"
	"github.com/coregx/derivre/prefilter"
	"github.com/coregx/derivre/syntax"
)

// undo is one journal entry: the value slot held before a write.
type undo struct {
	slot int
	old  int
}

// frame is a pending combinator on the evaluation stack.
type frame struct {
	instr uint32
	phase uint8
	mark  int
}

// group tracks the best completed candidate for one start position and
// the failed candidates that can still rule completed ones out.
type group struct {
	start  int
	best   *Match
	vetoes []*Match
}

// Matcher runs an automaton over input text.
//
// A Matcher holds the scratch state of one search at a time: the undo
// journal, the evaluation stack, the candidate queues and a pool of
// candidates reused between generations. It is not safe for concurrent use;
// concurrent searches over one NFA each need their own Matcher.
type Matcher struct {
	nfa     *NFA
	tracker *prefilter.Tracker

	journal []undo
	mark    int
	frames  []frame

	cur   []*Match
	next  []*Match
	free  []*Match
	seen  *sparse.Set
	bests []group
	head  int
	limit int

	probe *Match
}

// NewMatcher creates a matcher for n.
func NewMatcher(n *NFA) *Matcher {
	mt := &Matcher{
		nfa:     n,
		tracker: prefilter.NewTracker(n.prefilter),
		journal: make([]undo, 0, max(16, 4*n.maxEffects)),
		frames:  make([]frame, 0, max(8, n.maxNesting)),
		seen:    sparse.NewSet(len(n.states)),
	}
	mt.probe = NewMatch(n, "", 0)
	return mt
}

// NFA returns the automaton the matcher runs.
func (mt *Matcher) NFA() *NFA {
	return mt.nfa
}

// Tracker returns the prefilter tracker, or nil when the automaton has no
// prefilter.
func (mt *Matcher) Tracker() *prefilter.Tracker {
	return mt.tracker
}

// Scan moves m forward to the first position at or after its current one
// where a match could start. It reports false when there is none.
func (mt *Matcher) Scan(m *Match) bool {
	p := mt.scan(m.text, m.origin, m.data[slotPos])
	if p < 0 {
		return false
	}
	m.data[slotPos] = p
	return true
}

// scan returns the first position at or after from where a match could
// start, or -1.
func (mt *Matcher) scan(text string, origin, from int) int {
	if from > len(text) {
		return -1
	}
	if mt.tracker != nil && mt.tracker.IsActive() {
		return mt.tracker.Find(text, from)
	}
	instr, ok := mt.nfa.FirstChar()
	if !ok {
		return from
	}
	p := mt.probe
	p.text = text
	p.origin = origin
	for pos := from; pos < len(text); {
		p.data[slotPos] = pos
		if mt.Evaluate(p, instr, 0, false) {
			return pos
		}
		_, w := utf8.DecodeRuneInString(text[pos:])
		pos += w
	}
	return -1
}

// Evaluate runs instruction instr for candidate m at its current position.
// On success the candidate moves to target, past the consumed codepoint if
// the instruction consumes one.
//
// Every write to m is journaled. Writes are speculative: a failed
// instruction may leave partial effects behind, so a failed candidate can
// still be inspected. Unevaluate restores m to its state before the call.
// With recordUndo false the writes are committed and Unevaluate has no
// effect.
func (mt *Matcher) Evaluate(m *Match, instr uint32, target StateID, recordUndo bool) bool {
	mt.mark = len(mt.journal)
	pos := m.data[slotPos]
	r, w := rune(-1), 0
	if pos < len(m.text) {
		r, w = utf8.DecodeRuneInString(m.text[pos:])
	}
	ok := mt.test(m, instr, r, w)
	if ok {
		mt.set(m, slotState, int(target))
		if !mt.nfa.zeroWidth[instr] {
			mt.set(m, slotPos, pos+w)
		}
	}
	if !recordUndo {
		mt.journal = mt.journal[:mt.mark]
	}
	return ok
}

// Unevaluate undoes the writes of the last Evaluate call on m.
func (mt *Matcher) Unevaluate(m *Match) {
	mt.rollback(m, mt.mark)
}

func (mt *Matcher) set(m *Match, slot, v int) {
	mt.journal = append(mt.journal, undo{slot: slot, old: m.data[slot]})
	m.data[slot] = v
}

func (mt *Matcher) rollback(m *Match, mark int) {
	for i := len(mt.journal) - 1; i >= mark; i-- {
		u := mt.journal[i]
		m.data[u.slot] = u.old
	}
	mt.journal = mt.journal[:mark]
}

// test evaluates an instruction tree with an explicit stack. r and w are
// the codepoint at the current position and its width, w == 0 at the end of
// the text.
func (mt *Matcher) test(m *Match, root uint32, r rune, w int) bool {
	instrs := mt.nfa.instructions
	stack := append(mt.frames[:0], frame{instr: root})
	result := false
	for len(stack) > 0 {
		top := len(stack) - 1
		f := &stack[top]
		in := instrs[f.instr]
		switch in.Op {
		case OpNot, OpAnd, OpOr, OpDiff:
		default:
			result = mt.leaf(m, in, r, w)
			stack = stack[:top]
			continue
		}
		switch f.phase {
		case 0:
			f.phase = 1
			f.mark = len(mt.journal)
			stack = append(stack, frame{instr: uint32(in.A)})
		case 1:
			switch {
			case in.Op == OpNot:
				mt.rollback(m, f.mark)
				result = !result
				stack = stack[:top]
			case in.Op == OpAnd && !result, in.Op == OpDiff && !result:
				stack = stack[:top]
			case in.Op == OpOr && result:
				stack = stack[:top]
			default:
				if in.Op == OpOr {
					mt.rollback(m, f.mark)
				}
				f.phase = 2
				f.mark = len(mt.journal)
				stack = append(stack, frame{instr: uint32(in.B)})
			}
		default:
			if in.Op == OpDiff {
				mt.rollback(m, f.mark)
				result = !result
			}
			stack = stack[:top]
		}
	}
	mt.frames = stack[:0]
	return result
}

func (mt *Matcher) leaf(m *Match, in Instruction, r rune, w int) bool {
	n := mt.nfa
	d := m.data
	pos := d[slotPos]
	switch in.Op {
	case OpFail:
		return false
	case OpTrue:
		return true
	case OpChar:
		return w > 0 && r == in.A
	case OpCharFold:
		return w > 0 && casefold.Key(r) == in.A
	case OpRange:
		return w > 0 && in.A <= r && r <= in.B
	case OpRangeFold:
		return w > 0 && casefold.InRange(r, in.A, in.B)
	case OpAny:
		return w > 0
	case OpClass:
		return w > 0 && unicode.Is(n.tables[in.A], r)
	case OpClassFold:
		return w > 0 && casefold.InTable(n.tables[in.A], r)
	case OpAssert:
		return assert(ast.AssertOp(in.A), m.text, pos, m.origin)
	case OpGroupSet:
		return d[n.captureSlot(int(in.A))+1] >= 0
	case OpCaptureOpen:
		s := n.captureSlot(int(in.A))
		mt.set(m, s, pos)
		mt.set(m, s+1, -1)
		return true
	case OpCaptureClose:
		mt.set(m, n.captureSlot(int(in.A))+1, pos)
		return true
	case OpAtomicOpen:
		s := n.atomicSlot(int(in.A))
		mt.set(m, s, pos)
		mt.set(m, s+1, -1)
		return true
	case OpAtomicClose:
		mt.set(m, n.atomicSlot(int(in.A))+1, pos)
		return true
	case OpLoopRepeat:
		s := n.counterSlot(int(in.A))
		if in.B >= 0 && d[s] >= int(in.B) {
			return false
		}
		mt.set(m, s, d[s]+1)
		return true
	case OpLoopExit:
		s := n.counterSlot(int(in.A))
		if d[s] < int(in.B) {
			return false
		}
		mt.set(m, s, 0)
		return true
	case OpBackrefStep:
		return mt.backrefStep(m, int(in.A), in.B != 0, r, w)
	case OpBackrefDone:
		s := n.captureSlot(int(in.A))
		open, close := d[s], d[s+1]
		if open < 0 || close < 0 {
			return false
		}
		cursor := d[slotCursor]
		if cursor < 0 {
			return open == close
		}
		if cursor != close {
			return false
		}
		mt.set(m, slotCursor, -1)
		return true
	}
	panic(fmt.Sprintf("nfa: unknown opcode %v", in.Op))
}

func (mt *Matcher) backrefStep(m *Match, g int, fold bool, r rune, w int) bool {
	if w == 0 {
		return false
	}
	d := m.data
	s := mt.nfa.captureSlot(g)
	open, close := d[s], d[s+1]
	if open < 0 || close < 0 {
		return false
	}
	cursor := d[slotCursor]
	if cursor < 0 {
		cursor = open
	}
	if cursor >= close {
		return false
	}
	want, size := utf8.DecodeRuneInString(m.text[cursor:close])
	if want != r && !(fold && casefold.Equal(want, r)) {
		return false
	}
	mt.set(m, slotCursor, cursor+size)
	return true
}

func assert(op ast.AssertOp, text string, pos, origin int) bool {
	switch op {
	case ast.AssertBeginText:
		return pos == 0
	case ast.AssertEndText:
		return pos == len(text)
	case ast.AssertEndTextOptNL:
		return pos == len(text) || pos == len(text)-1 && text[pos] == '\n'
	case ast.AssertBeginLine:
		return pos == 0 || text[pos-1] == '\n'
	case ast.AssertEndLine:
		return pos == len(text) || text[pos] == '\n'
	case ast.AssertWordBoundary:
		return wordBefore(text, pos, syntax.IsWordChar) != wordAfter(text, pos, syntax.IsWordChar)
	case ast.AssertNotWordBoundary:
		return wordBefore(text, pos, syntax.IsWordChar) == wordAfter(text, pos, syntax.IsWordChar)
	case ast.AssertWordBoundaryASCII:
		return wordBefore(text, pos, syntax.IsWordCharASCII) != wordAfter(text, pos, syntax.IsWordCharASCII)
	case ast.AssertNotWordBoundaryASCII:
		return wordBefore(text, pos, syntax.IsWordCharASCII) == wordAfter(text, pos, syntax.IsWordCharASCII)
	case ast.AssertStartPos:
		return pos == origin
	}
	panic(fmt.Sprintf("nfa: unknown assertion %v", op))
}

func wordBefore(text string, pos int, isWord func(rune) bool) bool {
	if pos == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return isWord(r)
}

func wordAfter(text string, pos int, isWord func(rune) bool) bool {
	if pos >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return isWord(r)
}

// Find returns the leftmost match of the automaton in text at or after
// start, preferring among matches with the same start the one PosixPriority
// ranks first. With anchored set only matches beginning at start are
// considered. The result reports Success false if there is no match.
//
// All candidates of one generation sit at the same position and advance
// together by one codepoint; fresh attempts join the generation at the
// positions the scanner proposes.
func (mt *Matcher) Find(text string, start int, anchored bool) *Match {
	if start < 0 || start > len(text) {
		panic(fmt.Sprintf("nfa: start %d out of range [0, %d]", start, len(text)))
	}
	n := mt.nfa
	mt.reset()
	if mt.tracker != nil {
		mt.tracker.Reset()
	}
	if n.final == InvalidState {
		return mt.failed(text, start, anchored)
	}

	at := start
	scanFrom := start
	nextStart := -1
	launching := true
	if anchored || n.anchored {
		mt.launch(text, start, anchored)
		launching = false
	}
	for {
		if launching && nextStart < scanFrom {
			nextStart = mt.scan(text, start, scanFrom)
			launching = nextStart >= 0
		}
		if launching {
			if len(mt.cur) == 0 {
				at = nextStart
			}
			if nextStart == at {
				mt.launch(text, at, anchored)
				scanFrom = at + 1
				if at < len(text) {
					_, w := utf8.DecodeRuneInString(text[at:])
					scanFrom = at + w
				}
			}
		}

		if len(mt.cur) == 0 {
			if m := mt.finish(math.MaxInt); m != nil {
				return m
			}
			if !launching {
				break
			}
			continue
		}

		for _, m := range mt.cur {
			if m.data[n.captureSlot(0)] <= mt.limit {
				mt.step(m)
			}
		}
		if mt.limit < math.MaxInt {
			launching = false
		}
		mt.free = append(mt.free, mt.cur...)
		mt.cur, mt.next = mt.next, mt.cur[:0]
		mt.seen.Reset()

		minLive := math.MaxInt
		if len(mt.cur) > 0 {
			minLive = mt.cur[0].data[n.captureSlot(0)]
			at = mt.cur[0].data[slotPos]
		}
		if m := mt.finish(minLive); m != nil {
			return m
		}
	}
	return mt.failed(text, start, anchored)
}

// FindNext continues the search after prev, which must have succeeded.
// After an empty match the search resumes one codepoint further on.
func (mt *Matcher) FindNext(prev *Match) *Match {
	if !prev.success {
		panic("nfa: FindNext on a failed match")
	}
	if prev.nfa != mt.nfa {
		panic("nfa: FindNext on a match of another automaton")
	}
	pos := prev.End()
	if pos == prev.Start() {
		if pos >= len(prev.text) {
			return mt.failed(prev.text, pos, prev.anchored)
		}
		_, w := utf8.DecodeRuneInString(prev.text[pos:])
		pos += w
	}
	return mt.Find(prev.text, pos, prev.anchored)
}

// step tries every transition of candidate m. Transitions into the final
// state complete a match; others queue an advanced copy for the next
// generation.
func (mt *Matcher) step(m *Match) {
	n := mt.nfa
	for _, t := range n.states[m.data[slotState]] {
		if mt.Evaluate(m, t.Instr, t.Target, true) {
			if t.Target == n.final {
				mt.offer(m, true)
			} else {
				mt.enqueue(m)
			}
		} else if n.numAtomics > 0 {
			mt.offer(m, false)
		}
		mt.Unevaluate(m)
	}
}

func (mt *Matcher) launch(text string, at int, anchored bool) {
	n := mt.nfa
	m := mt.alloc()
	m.reset(n, text, at, anchored)
	mt.bests = append(mt.bests, group{start: at})
	if n.final == 0 {
		mt.offer(m, true)
		mt.free = append(mt.free, m)
		return
	}
	mt.cur = append(mt.cur, m)
}

// enqueue adds a copy of m to the next generation unless an equivalent
// candidate is already queued.
func (mt *Matcher) enqueue(m *Match) {
	n := mt.nfa
	if m.data[n.captureSlot(0)] > mt.limit {
		return
	}
	state := uint32(m.data[slotState])
	if !mt.seen.Add(state) {
		for _, q := range mt.next {
			if !mt.sameFinal(q, m) {
				continue
			}
			if n.numAtomics > 0 && PosixPriority(m, q) > 0 {
				q.copyFrom(m)
			}
			return
		}
	}
	c := mt.alloc()
	c.copyFrom(m)
	mt.next = append(mt.next, c)
}

// sameFinal reports whether x and y will behave the same from here on.
// Captures only matter when the rest of the pattern can read them.
func (mt *Matcher) sameFinal(x, y *Match) bool {
	n := mt.nfa
	a, b := x.data, y.data
	if a[slotState] != b[slotState] || a[slotPos] != b[slotPos] || a[slotCursor] != b[slotCursor] {
		return false
	}
	counters := n.counterSlot(0)
	if !slices.Equal(a[counters:], b[counters:]) {
		return false
	}
	if n.hasBackrefs || n.groupTests {
		lo, hi := n.captureSlot(1), n.captureSlot(n.numCaptures)
		if !slices.Equal(a[lo:hi], b[lo:hi]) {
			return false
		}
	}
	if n.numAtomics > 0 {
		s := n.captureSlot(0)
		return a[s] == b[s]
	}
	return true
}

// offer records m as a completed or failed attempt of its start position.
// A completed attempt is kept if it beats the best one so far and no
// recorded failure vetoes it. A failed attempt is kept only when it closed
// an atomic group, since that is the only way it can affect the result.
func (mt *Matcher) offer(m *Match, success bool) {
	n := mt.nfa
	start := m.data[n.captureSlot(0)]
	g := mt.group(start)
	if g == nil {
		return
	}
	if !success {
		if !closedAtomic(m) || slices.ContainsFunc(g.vetoes, func(v *Match) bool {
			return sameAtomics(v, m)
		}) {
			return
		}
		snap := mt.alloc()
		snap.copyFrom(m)
		snap.success = false
		if g.best != nil && vetoes(snap, g.best) {
			mt.free = append(mt.free, g.best)
			g.best = nil
		}
		g.vetoes = append(g.vetoes, snap)
		return
	}

	for _, v := range g.vetoes {
		if vetoes(v, m) {
			return
		}
	}
	snap := mt.alloc()
	snap.copyFrom(m)
	snap.success = true
	snap.data[n.captureSlot(0)+1] = snap.data[slotPos]
	if g.best != nil && PosixPriority(snap, g.best) <= 0 {
		mt.free = append(mt.free, snap)
		return
	}
	if g.best != nil {
		mt.free = append(mt.free, g.best)
	}
	g.best = snap
	if n.numAtomics == 0 {
		mt.limit = min(mt.limit, start)
	}
}

// vetoes reports whether the failed candidate f rules out s: both opened
// some atomic group at the same position and f closed it at a position the
// group prefers over the one s took.
func vetoes(f, s *Match) bool {
	for i := 0; i < f.nfa.numAtomics; i++ {
		fo, fc := f.atomic(i)
		so, sc := s.atomic(i)
		if fc >= 0 && fo == so && fc > sc {
			return true
		}
	}
	return false
}

func closedAtomic(m *Match) bool {
	for i := 0; i < m.nfa.numAtomics; i++ {
		if _, c := m.atomic(i); c >= 0 {
			return true
		}
	}
	return false
}

func sameAtomics(x, y *Match) bool {
	for i := 0; i < x.nfa.numAtomics; i++ {
		xo, xc := x.atomic(i)
		yo, yc := y.atomic(i)
		if xo != yo || xc != yc {
			return false
		}
	}
	return true
}

func (mt *Matcher) group(start int) *group {
	for i := len(mt.bests) - 1; i >= mt.head; i-- {
		switch g := &mt.bests[i]; {
		case g.start == start:
			return g
		case g.start < start:
			return nil
		}
	}
	return nil
}

// finish resolves, in start order, the groups whose start lies before
// minLive. It returns the first successful one.
func (mt *Matcher) finish(minLive int) *Match {
	for mt.head < len(mt.bests) && mt.bests[mt.head].start < minLive {
		g := mt.bests[mt.head]
		mt.head++
		mt.free = append(mt.free, g.vetoes...)
		if g.best == nil {
			continue
		}
		mt.free = append(mt.free, g.best)
		if mt.tracker != nil {
			mt.tracker.ConfirmMatch()
		}
		return g.best.clone()
	}
	return nil
}

func (mt *Matcher) failed(text string, start int, anchored bool) *Match {
	m := NewMatch(mt.nfa, text, start)
	m.anchored = anchored
	return m
}

func (mt *Matcher) alloc() *Match {
	if k := len(mt.free); k > 0 {
		m := mt.free[k-1]
		mt.free = mt.free[:k-1]
		return m
	}
	return &Match{nfa: mt.nfa, data: make([]int, mt.nfa.slotCount())}
}

// reset returns every candidate of the previous search to the pool.
func (mt *Matcher) reset() {
	mt.free = append(mt.free, mt.cur...)
	mt.free = append(mt.free, mt.next...)
	for _, g := range mt.bests[mt.head:] {
		if g.best != nil {
			mt.free = append(mt.free, g.best)
		}
		mt.free = append(mt.free, g.vetoes...)
	}
	mt.cur = mt.cur[:0]
	mt.next = mt.next[:0]
	mt.bests = mt.bests[:0]
	mt.head = 0
	mt.limit = math.MaxInt
	mt.journal = mt.journal[:0]
	mt.mark = 0
	mt.seen.Reset()
}
