package ast

import (
	"math/rand"
	"slices"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestInterning(t *testing.T) {
	c := NewContext()
	a1 := c.Seq(c.Char('a', false), c.Star(c.Char('b', false), true))
	a2 := c.Seq(c.Char('a', false), c.Star(c.Char('b', false), true))
	if a1 != a2 {
		t.Fatal("structurally equal patterns must intern to the same node")
	}
	if c.Char('a', true) != c.Char('A', true) {
		t.Error("folded chars of one orbit must intern together")
	}
	if c.Char('1', true) != c.Char('1', false) {
		t.Error("folding must be dropped for runes without case variants")
	}
	if c.Star(c.Char('b', false), true) == c.Star(c.Char('b', false), false) {
		t.Error("greedy and lazy loops are distinct nodes")
	}
	before := c.NumNodes()
	_ = c.Seq(c.Char('a', false), c.Star(c.Char('b', false), true))
	if c.NumNodes() != before {
		t.Errorf("rebuilding an existing pattern created %d nodes", c.NumNodes()-before)
	}
}

func TestSeqRules(t *testing.T) {
	c := NewContext()
	a, b, d := c.Char('a', false), c.Char('b', false), c.Char('d', false)
	tests := []struct {
		name string
		got  *Node
		want *Node
	}{
		{"fail left", c.Seq(c.Fail(), a), c.Fail()},
		{"fail right", c.Seq(a, c.Fail()), c.Fail()},
		{"empty left", c.Seq(c.Empty(), a), a},
		{"empty right", c.Seq(a, c.Empty()), a},
		{"right assoc", c.Seq(c.Seq(a, b), d), c.Seq(a, c.Seq(b, d))},
		{"any star twice", c.Seq(c.AnyStar(), c.AnyStar()), c.AnyStar()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestAltRules(t *testing.T) {
	c := NewContext()
	a, b := c.Char('a', false), c.Char('b', false)
	ab := c.Seq(a, b)

	if got := c.Alt(c.Fail(), ab); got != ab {
		t.Errorf("Fail|x = %v", got)
	}
	if got := c.Alt(ab, ab); got != ab {
		t.Errorf("x|x = %v", got)
	}
	if got := c.Alt(c.AnyStar(), ab); got != c.AnyStar() {
		t.Errorf(".*|x = %v", got)
	}
	if got := c.Alt(a, b); got.Kind() != KindRange || got.Lo() != 'a' || got.Hi() != 'b' {
		t.Errorf("a|b = %v, want merged range [a-b]", got)
	}
	// Left factoring: ab|ac = a(b|c) = a[bc].
	got := c.Alt(ab, c.Seq(a, c.Char('c', false)))
	want := c.Seq(a, c.Range('b', 'c', false))
	if got != want {
		t.Errorf("ab|ac = %v, want %v", got, want)
	}
	// Later duplicates are dropped.
	x := c.Seq(b, b)
	if got := c.Alt(ab, c.Alt(x, ab)); got != c.Alt(x, ab) {
		t.Errorf("ab|bb|ab = %v", got)
	}
}

func TestTestAlgebra(t *testing.T) {
	c := NewContext()
	az := c.Range('a', 'z', false)
	mz := c.Range('m', 'z', false)
	digit := c.Range('0', '9', false)

	t.Run("or merges adjacent ranges", func(t *testing.T) {
		got := c.TestOr(c.Range('a', 'f', false), c.Range('g', 'k', false))
		if got != c.Range('a', 'k', false) {
			t.Errorf("got %v", got)
		}
	})
	t.Run("or absorbs subsumed tests", func(t *testing.T) {
		if got := c.TestOr(az, c.Char('q', false)); got != az {
			t.Errorf("got %v", got)
		}
	})
	t.Run("or is idempotent and commutative", func(t *testing.T) {
		x := c.TestOr(az, digit)
		y := c.TestOr(digit, az)
		if x != y {
			t.Errorf("%v != %v", x, y)
		}
		if c.TestOr(x, digit) != x {
			t.Error("re-adding an operand changed the test")
		}
	})
	t.Run("and of disjoint is fail", func(t *testing.T) {
		if got := c.TestAnd(az, digit); got != c.Fail() {
			t.Errorf("got %v", got)
		}
	})
	t.Run("and intersects ranges", func(t *testing.T) {
		if got := c.TestAnd(az, c.Range('x', '~', false)); got != c.Range('x', 'z', false) {
			t.Errorf("got %v", got)
		}
		if got := c.TestAnd(az, mz); got != mz {
			t.Errorf("got %v", got)
		}
	})
	t.Run("diff trims ranges", func(t *testing.T) {
		if got := c.TestDiff(az, mz); got != c.Range('a', 'l', false) {
			t.Errorf("got %v", got)
		}
		if got := c.TestDiff(mz, az); got != c.Fail() {
			t.Errorf("got %v", got)
		}
		if got := c.TestDiff(az, digit); got != az {
			t.Errorf("got %v", got)
		}
	})
	t.Run("not", func(t *testing.T) {
		if c.TestNot(c.True()) != c.Fail() || c.TestNot(c.Fail()) != c.True() {
			t.Error("Not(True)/Not(Fail) not simplified")
		}
		wb := c.Assert(AssertWordBoundary)
		if c.TestNot(wb) != c.Assert(AssertNotWordBoundary) {
			t.Error(`Not(\b) must be \B`)
		}
		bol := c.Assert(AssertBeginLine)
		if c.TestNot(c.TestNot(bol)) != bol {
			t.Error("double negation not removed")
		}
		if got := c.TestNot(az); got.Kind() != KindTestDiff {
			t.Errorf("Not of a consuming test = %v, want a difference from Any", got)
		}
	})
	t.Run("effects keep order", func(t *testing.T) {
		open, cls := c.CaptureOpen(1), c.CaptureClose(1)
		x := c.TestAnd(cls, c.TestAnd(open, az))
		if x.Left() != cls || x.Right().Left() != open {
			t.Errorf("effect order changed: %v", x)
		}
		exit := c.LoopExit(0, 2)
		if got := c.TestAnd(exit, exit); got.Kind() != KindTestAnd {
			t.Errorf("repeated effects must not collapse, got %v", got)
		}
	})
}

func TestRelations(t *testing.T) {
	c := NewContext()
	letters := c.Class("L", unicode.L, false)
	upper := c.Class("Lu", unicode.Lu, false)
	digits := c.Class("Nd", unicode.Nd, false)
	az := c.Range('a', 'z', false)

	tests := []struct {
		name     string
		x, y     *Node
		contains bool
		disjoint bool
	}{
		{"letters ⊇ upper", letters, upper, true, false},
		{"upper vs digits", upper, digits, false, true},
		{"letters ⊇ a-z", letters, az, true, false},
		{"digits vs a-z", digits, az, false, true},
		{"fold char", c.Char('k', true), c.Char('K', false), true, false},
		{"fold range", c.Range('a', 'c', true), c.Char('B', false), true, false},
		{"any", c.Any(), upper, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Contains(tt.x, tt.y); got != tt.contains {
				t.Errorf("Contains = %v, want %v", got, tt.contains)
			}
			if got := c.DisjointWith(tt.x, tt.y); got != tt.disjoint {
				t.Errorf("DisjointWith = %v, want %v", got, tt.disjoint)
			}
		})
	}
}

func TestLoopRules(t *testing.T) {
	c := NewContext()
	a := c.Char('a', false)
	if c.Loop(a, 1, 1, true) != a {
		t.Error("x{1} must be x")
	}
	if c.Loop(a, 0, 0, true) != c.Empty() {
		t.Error("x{0} must be Empty")
	}
	if got := c.Loop(a, 0, 1, true); got != c.Alt(a, c.Empty()) {
		t.Errorf("x? = %v", got)
	}
	if got := c.Loop(a, 1, Unbounded, true); got != c.Seq(a, c.Star(a, true)) {
		t.Errorf("x+ = %v", got)
	}
	star := c.Star(a, true)
	if c.Star(star, true) != star {
		t.Error("(x*)* must be x*")
	}
	q := c.Loop(a, 2, 4, true)
	if !q.Counted() || q.Level() != 0 || q.Levels() != 1 {
		t.Errorf("a{2,4}: counted=%v level=%d levels=%d", q.Counted(), q.Level(), q.Levels())
	}
	outer := c.Loop(c.Seq(q, c.Char('b', false)), 2, 3, true)
	if outer.Level() != 1 || outer.Levels() != 2 {
		t.Errorf("nested counted loop: level=%d levels=%d", outer.Level(), outer.Levels())
	}
	nullable := c.Loop(c.Alt(a, c.Empty()), 3, 5, true)
	if nullable.Min() != 0 {
		t.Errorf("nullable body must relax the lower bound, min=%d", nullable.Min())
	}
}

func TestComplementRules(t *testing.T) {
	c := NewContext()
	a, b := c.Char('a', false), c.Char('b', false)
	if c.Compl(c.Compl(a)) != a {
		t.Error("double complement")
	}
	if c.Compl(c.Fail()) != c.AnyStar() || c.Compl(c.AnyStar()) != c.Fail() {
		t.Error("complement of the constants")
	}
	if got := c.Compl(c.Alt(c.Seq(a, a), c.Seq(b, b))); got.Kind() != KindInter {
		t.Errorf("De Morgan over Alt, got %v", got)
	}
	capt := c.Capture(c.Seq(a, b), 1, "")
	if c.Compl(capt) != c.Compl(c.Seq(a, b)) {
		t.Error("captures must be stripped under complement")
	}
}

func TestDerivativeShape(t *testing.T) {
	c := NewContext()
	a := c.Char('a', false)
	b := c.Char('b', false)

	ds := c.Derivatives(c.Seq(a, b))
	if len(ds) != 1 || ds[0].Accept != a || ds[0].Target != b {
		t.Fatalf("d(ab) = %v", ds)
	}

	// Every zero-width accept targets Empty.
	patterns := []*Node{
		c.Star(c.Capture(c.Alt(a, c.Seq(b, b)), 1, ""), true),
		c.Loop(a, 2, 3, false),
		c.Seq(c.Assert(AssertBeginLine), c.Star(a, true)),
		c.Inter(c.Star(c.Any(), true), c.Seq(a, c.Star(b, true))),
		c.Compl(c.Seq(a, b)),
		c.Seq(c.Capture(a, 1, ""), c.Backref(1, false)),
		c.Cond(1, a, b),
	}
	for _, p := range patterns {
		for _, n := range reachable(c, p) {
			for _, d := range c.Derivatives(n) {
				if d.Accept.ZeroWidth() && d.Target != c.Empty() {
					t.Errorf("%v: zero-width accept %v targets %v", n, d.Accept, d.Target)
				}
				if !d.Accept.IsInstruction() {
					t.Errorf("%v: accept %v is not an instruction", n, d.Accept)
				}
			}
		}
	}
}

func TestDerivativeOrder(t *testing.T) {
	c := NewContext()
	a := c.Char('a', false)
	greedy := c.Derivatives(c.Star(a, true))
	lazy := c.Derivatives(c.Star(a, false))
	if len(greedy) != 2 || len(lazy) != 2 {
		t.Fatalf("star derivatives: greedy=%v lazy=%v", greedy, lazy)
	}
	if greedy[0].Accept != a || greedy[1].Accept != c.True() {
		t.Errorf("greedy order: %v", greedy)
	}
	if lazy[0].Accept != c.True() || lazy[1].Accept != a {
		t.Errorf("lazy order: %v", lazy)
	}

	// An optional head must keep its empty alternative.
	b := c.Char('b', false)
	ds := c.Derivatives(c.Seq(c.Alt(a, c.Empty()), b))
	if len(ds) != 2 || ds[0].Accept != a || ds[0].Target != b || ds[1].Accept != b {
		t.Errorf("d(a?b) = %v", ds)
	}
}

func TestDerivativesCached(t *testing.T) {
	c := NewContext()
	p := c.Seq(c.Char('x', false), c.Star(c.Range('0', '9', false), true))
	d1 := c.Derivatives(p)
	d2 := c.Derivatives(p)
	if &d1[0] != &d2[0] {
		t.Error("derivatives must be computed once per node")
	}
}

// TestDerivativeCorrectness checks that a codepoint starts a match of a
// pattern exactly when one of the pattern's derivatives accepts it.
func TestDerivativeCorrectness(t *testing.T) {
	c := NewContext()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		p := c.Purify(randomPattern(c, rng, 3))
		for _, r := range []rune("abc") {
			s := string(r)
			want := false
			for j := 0; j <= 3 && !want; j++ {
				for _, tail := range allStrings(j) {
					if naiveMatch(c, p, s+tail) {
						want = true
						break
					}
				}
			}
			got := false
			for _, d := range c.Derivatives(p) {
				if !d.Accept.ZeroWidth() && d.Accept.ContainsRune(r) && d.Target != c.Fail() {
					if canMatch(c, d.Target, 3) {
						got = true
					}
				}
			}
			if got != want {
				t.Fatalf("pattern %v, rune %q: derivative says %v, naive says %v", p, r, got, want)
			}
		}
	}
}

// TestAlgebraSoundness matches random patterns against every short string
// both through derivatives and through a direct interpretation of the tree.
func TestAlgebraSoundness(t *testing.T) {
	c := NewContext()
	rng := rand.New(rand.NewSource(42))
	inputs := []string{}
	for n := 0; n <= 4; n++ {
		inputs = append(inputs, allStrings(n)...)
	}
	for i := 0; i < 300; i++ {
		p := c.Purify(randomPattern(c, rng, 3))
		for _, s := range inputs {
			want := naiveMatch(c, p, s)
			got := derivMatch(c, p, s)
			if got != want {
				t.Fatalf("pattern %v on %q: derivatives=%v naive=%v", p, s, got, want)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	build := func() []string {
		c := NewContext()
		a, b := c.Char('a', false), c.Char('b', false)
		p := c.Seq(c.Capture(c.Star(c.Alt(a, c.Seq(b, a)), true), 1, ""), c.Loop(b, 1, 3, true))
		var out []string
		for _, n := range reachable(c, p) {
			for _, d := range c.Derivatives(n) {
				out = append(out, n.String()+" --"+d.Accept.String()+"--> "+d.Target.String())
			}
		}
		return out
	}
	if diff := cmp.Diff(build(), build()); diff != "" {
		t.Errorf("derivative graph differs between runs (-first +second):\n%s", diff)
	}
}

func TestAnnotate(t *testing.T) {
	c := NewContext()
	a := c.Char('a', false)
	p := c.Seq(c.Assert(AssertBeginText),
		c.Seq(c.Capture(c.Atomic(c.Loop(a, 2, 3, true), 0), 1, "first"),
			c.Seq(c.Capture(a, 2, ""), c.Backref(1, false))))
	info := c.Annotate(p)
	if info.NumCaptures != 3 {
		t.Errorf("NumCaptures = %d, want 3", info.NumCaptures)
	}
	if !slices.Equal(info.Names, []string{"", "first", ""}) {
		t.Errorf("Names = %q", info.Names)
	}
	if info.NumAtomics != 1 || info.Levels != 1 || !info.Anchored || !info.HasBackrefs {
		t.Errorf("info = %+v", info)
	}
	if c.Annotate(p) != info {
		t.Error("Annotate must be idempotent")
	}
	if c.Annotate(a).Anchored {
		t.Error("unanchored pattern reported as anchored")
	}
}

func TestString(t *testing.T) {
	c := NewContext()
	p := c.Seq(c.Char('a', false), c.Star(c.Alt(c.Seq(c.Char('b', false), c.Char('c', false)), c.Char('d', false)), true))
	if got := p.String(); !strings.Contains(got, "*") || !strings.HasPrefix(got, "a") {
		t.Errorf("String() = %q", got)
	}
}

// --- helpers ---------------------------------------------------------------

func reachable(c *Context, root *Node) []*Node {
	seen := map[*Node]bool{root: true}
	order := []*Node{root}
	for i := 0; i < len(order); i++ {
		for _, d := range c.Derivatives(order[i]) {
			if !seen[d.Target] {
				seen[d.Target] = true
				order = append(order, d.Target)
			}
		}
	}
	return order
}

func allStrings(n int) []string {
	out := []string{""}
	for i := 0; i < n; i++ {
		var next []string
		for _, s := range out {
			for _, r := range "abc" {
				next = append(next, s+string(r))
			}
		}
		out = next
	}
	return out
}

func randomPattern(c *Context, rng *rand.Rand, depth int) *Node {
	if depth == 0 || rng.Intn(4) == 0 {
		switch rng.Intn(5) {
		case 0:
			return c.Char('a', false)
		case 1:
			return c.Char('b', false)
		case 2:
			return c.Range('b', 'c', false)
		case 3:
			return c.Empty()
		default:
			return c.Char(rune('a'+rng.Intn(3)), false)
		}
	}
	x := randomPattern(c, rng, depth-1)
	switch rng.Intn(7) {
	case 0, 1:
		return c.Seq(x, randomPattern(c, rng, depth-1))
	case 2:
		return c.Alt(x, randomPattern(c, rng, depth-1))
	case 3:
		return c.Star(x, rng.Intn(2) == 0)
	case 4:
		return c.Inter(x, randomPattern(c, rng, depth-1))
	case 5:
		return c.Compl(x)
	default:
		min := rng.Intn(3)
		return c.Loop(x, min, min+rng.Intn(2), true)
	}
}

// naiveMatch interprets a pure pattern directly on the tree.
func naiveMatch(c *Context, n *Node, s string) bool {
	return slices.Contains(ends(c, n, s, 0), len(s))
}

func ends(c *Context, n *Node, s string, i int) []int {
	switch n.Kind() {
	case KindEmpty:
		return []int{i}
	case KindFail:
		return nil
	case KindSeq:
		var out []int
		for _, e := range ends(c, n.Left(), s, i) {
			out = union(out, ends(c, n.Right(), s, e))
		}
		return out
	case KindAlt:
		return union(ends(c, n.Left(), s, i), ends(c, n.Right(), s, i))
	case KindInter:
		r := ends(c, n.Right(), s, i)
		var out []int
		for _, e := range ends(c, n.Left(), s, i) {
			if slices.Contains(r, e) {
				out = append(out, e)
			}
		}
		return out
	case KindCompl:
		inner := ends(c, n.Left(), s, i)
		var out []int
		for e := i; e <= len(s); e++ {
			if e == len(s) || utf8.RuneStart(s[e]) {
				if !slices.Contains(inner, e) {
					out = append(out, e)
				}
			}
		}
		return out
	case KindLoop:
		cur := []int{i}
		var out []int
		if n.Min() == 0 {
			out = []int{i}
		}
		for k := 1; n.Max() == Unbounded || k <= n.Max(); k++ {
			var next []int
			for _, p := range cur {
				for _, e := range ends(c, n.Left(), s, p) {
					if e != p {
						next = union(next, []int{e})
					}
				}
			}
			if len(next) == 0 {
				break
			}
			if k >= n.Min() {
				out = union(out, next)
			}
			if slices.Equal(next, cur) {
				break
			}
			cur = next
			if k > len(s)+1 && n.Max() == Unbounded {
				break
			}
		}
		if n.Min() > 0 && n.Left().Nullable() {
			out = union(out, []int{i})
		}
		return out
	case KindCapture, KindAtomic:
		return ends(c, n.Left(), s, i)
	}
	if n.consumingTest() {
		if i < len(s) {
			r, w := utf8.DecodeRuneInString(s[i:])
			if n.ContainsRune(r) {
				return []int{i + w}
			}
		}
		return nil
	}
	if n == c.True() {
		return []int{i}
	}
	panic("naiveMatch: unsupported node " + n.Kind().String())
}

func union(a, b []int) []int {
	for _, x := range b {
		if !slices.Contains(a, x) {
			a = append(a, x)
		}
	}
	slices.Sort(a)
	return a
}

// derivMatch runs a pure, assertion-free pattern through its derivatives.
func derivMatch(c *Context, n *Node, s string) bool {
	if n == c.Empty() {
		return s == ""
	}
	for _, d := range c.Derivatives(n) {
		if d.Accept.ZeroWidth() {
			if s == "" && d.Accept == c.True() {
				return true
			}
			continue
		}
		if s == "" {
			continue
		}
		r, w := utf8.DecodeRuneInString(s)
		if d.Accept.ContainsRune(r) && derivMatch(c, d.Target, s[w:]) {
			return true
		}
	}
	return false
}

// canMatch reports whether n matches some string over {a,b,c} of at most n
// codepoints.
func canMatch(c *Context, n *Node, limit int) bool {
	for j := 0; j <= limit; j++ {
		for _, s := range allStrings(j) {
			if naiveMatch(c, n, s) {
				return true
			}
		}
	}
	return false
}
