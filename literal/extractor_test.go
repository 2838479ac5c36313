package literal

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/derivre/ast"
	"github.com/coregx/derivre/syntax"
)

func parse(t *testing.T, pattern string) *ast.Node {
	t.Helper()
	re, err := syntax.Parse(ast.NewContext(), pattern, 0)
	if err != nil {
		t.Fatalf("Parse(%q): %v", pattern, err)
	}
	return re.Root
}

func TestExtractPrefixes(t *testing.T) {
	tests := []struct {
		pattern  string
		want     []string
		complete bool
	}{
		{"hello", []string{"hello"}, true},
		{"foo|bar", []string{"foo", "bar"}, true},
		{"(foo|bar)baz", []string{"foobaz", "barbaz"}, true},
		{"[abc]test", []string{"atest", "btest", "ctest"}, true},
		{"hello.*world", []string{"hello"}, false},
		{`^foo\b`, []string{"foo"}, true},
		{"(?i)ab", []string{"AB", "Ab", "aB", "ab"}, true},
		{"a+b", []string{"a"}, false},
		{"(?>ab)c", []string{"abc"}, true},
		{"é|ü", []string{"é", "ü"}, true},
		{".*foo", nil, false},
		{"foo|.*", nil, false},
		{"a?b", []string{"ab", "b"}, true},
		{"[a-z]x", nil, false},
		{"", []string{""}, true},
	}
	e := New(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			seq := e.ExtractPrefixes(parse(t, tt.pattern))
			got := seqStrings(seq)
			if len(got) == 0 {
				got = nil
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExtractPrefixes(%q) mismatch (-want +got):\n%s", tt.pattern, diff)
			}
			if seq.Len() > 0 && seq.AllComplete() != tt.complete {
				t.Errorf("AllComplete() = %v, want %v", seq.AllComplete(), tt.complete)
			}
		})
	}
}

func TestExtractPrefixesLimits(t *testing.T) {
	e := New(ExtractorConfig{MaxLiterals: 4, MaxLiteralLen: 3, MaxClassSize: 3})

	seq := e.ExtractPrefixes(parse(t, "abcdef"))
	if diff := cmp.Diff([]string{"abc"}, seqStrings(seq)); diff != "" {
		t.Errorf("MaxLiteralLen mismatch (-want +got):\n%s", diff)
	}
	if seq.AllComplete() {
		t.Error("truncated literal must be incomplete")
	}

	// 3 x 3 literals exceed MaxLiterals: the product is abandoned.
	seq = e.ExtractPrefixes(parse(t, "[abc][xyz]"))
	if diff := cmp.Diff([]string{"a", "b", "c"}, seqStrings(seq)); diff != "" {
		t.Errorf("MaxLiterals mismatch (-want +got):\n%s", diff)
	}
	if seq.AllComplete() {
		t.Error("abandoned product must be incomplete")
	}

	if seq := e.ExtractPrefixes(parse(t, "[a-d]")); !seq.IsEmpty() {
		t.Errorf("class larger than MaxClassSize expanded to %q", seqStrings(seq))
	}
	if seq := e.ExtractPrefixes(parse(t, "ab|cd|ef|gh|ij")); !seq.IsEmpty() {
		t.Errorf("alternation beyond MaxLiterals expanded to %q", seqStrings(seq))
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
		fold    bool
	}{
		{"hello", "hello", false},
		{`hello\d+`, "hello", false},
		{"(?i)ab(c|cd)", "ABC", true},
		{"x{3}y", "xxxy", false},
		{"x{2,3}y", "xx", false},
		{"foo|bar", "", false},
		{"foobar|foobaz", "fooba", false},
		{`\Aabc`, "abc", false},
		{"(ab)(?:cd)", "abcd", false},
		{"a(?i)b", "AB", true},
		{"a*b", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, fold := Prefix(parse(t, tt.pattern))
			if string(got) != tt.want || fold != tt.fold {
				t.Errorf("Prefix(%q) = %q, %v; want %q, %v", tt.pattern, string(got), fold, tt.want, tt.fold)
			}
		})
	}
}

func TestPrefixCap(t *testing.T) {
	got, _ := Prefix(parse(t, "a{100}"))
	if len(got) != MaxPrefixLen {
		t.Errorf("len(Prefix) = %d, want %d", len(got), MaxPrefixLen)
	}
}
