package nfa

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/derivre/ast"
	"github.com/coregx/derivre/syntax"
)

func mustCompile(t *testing.T, pattern string, flags syntax.Flags) *NFA {
	t.Helper()
	n, err := Compile(pattern, flags, DefaultConfig())
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", pattern, err)
	}
	return n
}

// TestNFA_Compile_Literal tests compilation of literal patterns
func TestNFA_Compile_Literal(t *testing.T) {
	tests := []struct {
		pattern string
		states  int
	}{
		{"", 1},
		{"a", 2},
		{"abc", 4},
		{"привет", 7},
		{"😀", 2},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n := mustCompile(t, tt.pattern, 0)
			if n.States() != tt.states {
				t.Errorf("States() = %d, want %d", n.States(), tt.states)
			}
			if n.Final() == InvalidState {
				t.Error("literal pattern has no final state")
			}
			if len(n.Transitions(n.Final())) != 0 {
				t.Error("final state must have no transitions")
			}
		})
	}
}

func TestNFA_Compile_Errors(t *testing.T) {
	_, err := Compile("a(", 0, DefaultConfig())
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("unbalanced paren: got %v, want ErrInvalidPattern", err)
	}
	var compileErr *CompileError
	if !errors.As(err, &compileErr) || compileErr.Pattern != "a(" {
		t.Errorf("want *CompileError for %q, got %T", "a(", err)
	}
	var syntaxErr *syntax.Error
	if !errors.As(err, &syntaxErr) {
		t.Errorf("want the *syntax.Error preserved, got %v", err)
	}

	config := DefaultConfig()
	config.MaxStates = 0
	if _, err := Compile("a", 0, config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("MaxStates 0: got %v, want ErrInvalidConfig", err)
	}

	config = DefaultConfig()
	config.MaxStates = 2
	_, err = Compile("abc", 0, config)
	if !errors.Is(err, ErrTooComplex) {
		t.Fatalf("got %v, want ErrTooComplex", err)
	}
	var buildErr *BuildError
	if !errors.As(err, &buildErr) || buildErr.StateID != 2 {
		t.Errorf("want *BuildError at state 2, got %v", err)
	}
}

func TestNFA_CaptureInfo(t *testing.T) {
	n := mustCompile(t, `(?<year>\d+)-(\d+)(?>x)?`, 0)
	if n.CaptureCount() != 3 {
		t.Errorf("CaptureCount() = %d, want 3", n.CaptureCount())
	}
	if diff := cmp.Diff([]string{"", "year", ""}, n.SubexpNames()); diff != "" {
		t.Errorf("SubexpNames() mismatch (-want +got):\n%s", diff)
	}
	if n.AtomicCount() != 1 {
		t.Errorf("AtomicCount() = %d, want 1", n.AtomicCount())
	}
	if n.HasBackrefs() {
		t.Error("HasBackrefs() = true without backreferences")
	}
	if !mustCompile(t, `(a)\1`, 0).HasBackrefs() {
		t.Error(`HasBackrefs() = false for (a)\1`)
	}
}

func TestNFA_Anchored(t *testing.T) {
	tests := []struct {
		pattern string
		flags   syntax.Flags
		want    bool
	}{
		{`\Afoo`, 0, true},
		{`^foo`, 0, true},
		{`(?m)^foo`, 0, false},
		{`foo`, syntax.Anchored, true},
		{`\Gfoo|\Abar`, 0, true},
		{`foo|\Abar`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n := mustCompile(t, tt.pattern, tt.flags)
			if n.IsAnchored() != tt.want {
				t.Errorf("IsAnchored() = %v, want %v", n.IsAnchored(), tt.want)
			}
			if n.IsAnchored() && n.Prefilter() != nil {
				t.Error("anchored patterns need no prefilter")
			}
		})
	}
}

func TestNFA_FirstChar(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{`a|b`, true},
		{`[a-z]+\d`, true},
		{`(a)\1`, true},
		{`(?>x+)y`, true},
		{`a*`, false},
		{`(?s).b`, false},
		{`.b`, true},
		{`\bfoo`, true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, ok := mustCompile(t, tt.pattern, 0).FirstChar()
			if ok != tt.want {
				t.Errorf("FirstChar() ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

// Building the same pattern twice, in fresh contexts or in one, must give
// identical tables.
func TestNFA_Determinism(t *testing.T) {
	patterns := []string{
		`a(b|c)*d`,
		`(?i)hello\s+w[o0]rld`,
		`(a|ab)(c|bcd)(d*)`,
		`x{2,5}y?`,
		`(?<n>\w+)\k<n>`,
	}
	tables := func(n *NFA) ([]Instruction, [][]Transition) {
		states := make([][]Transition, n.States())
		for i := range states {
			states[i] = n.Transitions(StateID(i))
		}
		return n.Instructions(), states
	}
	for _, p := range patterns {
		t.Run(p, func(t *testing.T) {
			i1, s1 := tables(mustCompile(t, p, 0))
			i2, s2 := tables(mustCompile(t, p, 0))
			if diff := cmp.Diff(i1, i2); diff != "" {
				t.Errorf("instruction tables differ (-first +second):\n%s", diff)
			}
			if diff := cmp.Diff(s1, s2); diff != "" {
				t.Errorf("transition tables differ (-first +second):\n%s", diff)
			}

			c := ast.NewContext()
			re1, err := syntax.Parse(c, p, 0)
			if err != nil {
				t.Fatal(err)
			}
			re2, err := syntax.Parse(c, p, 0)
			if err != nil {
				t.Fatal(err)
			}
			if re1.Root != re2.Root {
				t.Error("parsing twice in one context must give the same root node")
			}
		})
	}
}

func TestTraverse_NeverMatches(t *testing.T) {
	c := ast.NewContext()
	n, err := Traverse(c, c.Fail(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if n.Final() != InvalidState {
		t.Errorf("Final() = %d, want InvalidState", n.Final())
	}
	if m := NewMatcher(n).Find("anything", 0, false); m.Success() {
		t.Errorf("Find succeeded on a pattern that never matches: %v", m)
	}
}

func TestTraverse_SharedInstructions(t *testing.T) {
	c := ast.NewContext()
	a := c.Char('a', false)
	// Every state of a* ∘ a* tests the same character.
	root := c.Seq(c.Star(a, true), c.Seq(c.Char('-', false), c.Star(a, true)))
	n, err := Traverse(c, root, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[Instruction]int)
	for i, in := range n.Instructions() {
		if j, dup := seen[in]; dup {
			t.Errorf("instruction %v stored twice, at %d and %d", in, j, i)
		}
		seen[in] = i
	}
}

func TestNFA_Stats(t *testing.T) {
	n := mustCompile(t, `(a)(b)`, 0)
	// Crossing from group 1 into group 2 closes one group and opens the
	// next while testing b.
	if n.MaxEffects() < 3 {
		t.Errorf("MaxEffects() = %d, want at least 3", n.MaxEffects())
	}
	if n.MaxNesting() < 2 {
		t.Errorf("MaxNesting() = %d, want at least 2", n.MaxNesting())
	}
}

func TestInstruction_String(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Instruction{Op: OpChar, A: 'x'}, `Char('x')`},
		{Instruction{Op: OpRange, A: 'a', B: 'z'}, `Range('a'-'z')`},
		{Instruction{Op: OpAny}, `Any`},
		{Instruction{Op: OpCaptureOpen, A: 2}, `CaptureOpen(2)`},
		{Instruction{Op: OpAnd, A: 1, B: 3}, `And(1, 3)`},
		{Instruction{Op: Op(200)}, `Unknown(200)(0, 0)`},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
