package literal

import (
	"unicode/utf8"

	"github.com/coregx/derivre/ast"
	"github.com/coregx/derivre/internal/casefold"
)

// ExtractorConfig bounds how far extraction expands a pattern.
type ExtractorConfig struct {
	// MaxLiterals limits the number of literals in a set. A set that would
	// grow larger stops extending its literals instead. Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the length of each literal in bytes.
	// Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the number of codepoints a character test may
	// accept and still be expanded into literals. Case-insensitive letters
	// count every variant. Default: 10.
	MaxClassSize int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
	}
}

// Extractor extracts prefix literal sets from patterns.
//
// Example:
//
//	c := ast.NewContext()
//	re, _ := syntax.Parse(c, "(hello|world)", 0)
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(re.Root)
//	// prefixes = ["hello", "world"]
type Extractor struct {
	config ExtractorConfig
}

// New creates a new Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// maxDepth guards the recursion on deeply nested patterns.
const maxDepth = 100

// ExtractPrefixes returns a set of literals such that every match of n
// begins with one of them. The result is empty when no such finite set is
// known; it may contain the empty literal when a match can start with
// anything.
//
// Zero-width assertions are transparent: they constrain where a match can
// begin but consume nothing, so /^foo/ yields ["foo"].
//
// Examples:
//
//	"hello"         → ["hello"]
//	"(foo|bar)"     → ["foo", "bar"]
//	"[abc]test"     → ["atest", "btest", "ctest"]
//	"hello.*world"  → ["hello"] (incomplete)
//	"(?i)ab"        → ["AB", "Ab", "aB", "ab"]
//	".*foo"         → []
func (e *Extractor) ExtractPrefixes(n *ast.Node) *Seq {
	return e.prefixes(n, 0)
}

func (e *Extractor) prefixes(n *ast.Node, depth int) *Seq {
	if depth > maxDepth {
		return NewSeq()
	}
	switch n.Kind() {
	case ast.KindEmpty, ast.KindTrue, ast.KindAssert:
		return NewSeq(NewLiteral([]byte{}, true))

	case ast.KindChar, ast.KindRange, ast.KindTestOr:
		return e.expandTest(n)

	case ast.KindSeq:
		head := e.prefixes(n.Left(), depth+1)
		if head.IsEmpty() || !head.AllComplete() {
			return head
		}
		return e.cross(head, e.prefixes(n.Right(), depth+1))

	case ast.KindAlt:
		var all []Literal
		for _, sub := range []*ast.Node{n.Left(), n.Right()} {
			seq := e.prefixes(sub, depth+1)
			if seq.IsEmpty() {
				// One unknown alternative leaves the whole set unknown.
				return NewSeq()
			}
			all = append(all, seq.literals...)
			if len(all) > e.config.MaxLiterals {
				return NewSeq()
			}
		}
		return NewSeq(all...)

	case ast.KindCapture, ast.KindAtomic:
		return e.prefixes(n.Body(), depth+1)

	case ast.KindLoop:
		if n.Min() == 0 {
			return NewSeq()
		}
		seq := e.prefixes(n.Body(), depth+1)
		seq.makeInexact()
		return seq
	}
	return NewSeq()
}

// cross appends every literal of tail to every literal of head. When the
// product would exceed the limits, head is returned with its literals
// marked incomplete.
func (e *Extractor) cross(head, tail *Seq) *Seq {
	if tail.IsEmpty() || head.Len()*tail.Len() > e.config.MaxLiterals {
		head.makeInexact()
		return head
	}
	out := make([]Literal, 0, head.Len()*tail.Len())
	for _, h := range head.literals {
		for _, t := range tail.literals {
			b := make([]byte, 0, len(h.Bytes)+len(t.Bytes))
			b = append(append(b, h.Bytes...), t.Bytes...)
			lit := NewLiteral(b, t.Complete)
			if len(b) > e.config.MaxLiteralLen {
				lit = NewLiteral(truncate(b, e.config.MaxLiteralLen), false)
			}
			out = append(out, lit)
		}
	}
	return NewSeq(out...)
}

// truncate cuts b to at most n bytes without splitting a UTF-8 sequence.
func truncate(b []byte, n int) []byte {
	for n > 0 && n < len(b) && !utf8.RuneStart(b[n]) {
		n--
	}
	return b[:n]
}

// expandTest expands a small character test into one literal per accepted
// codepoint. Larger tests yield an empty Seq.
func (e *Extractor) expandTest(n *ast.Node) *Seq {
	runes, ok := e.testRunes(nil, n)
	if !ok {
		return NewSeq()
	}
	lits := make([]Literal, 0, len(runes))
	seen := make(map[rune]bool, len(runes))
	for _, r := range runes {
		if seen[r] {
			continue
		}
		seen[r] = true
		lits = append(lits, NewLiteral(utf8.AppendRune(nil, r), true))
	}
	return NewSeq(lits...)
}

func (e *Extractor) testRunes(dst []rune, n *ast.Node) ([]rune, bool) {
	switch n.Kind() {
	case ast.KindChar:
		if n.Fold() {
			dst = casefold.Orbit(dst, n.Rune())
		} else {
			dst = append(dst, n.Rune())
		}
	case ast.KindRange:
		if int(n.Hi()-n.Lo()) >= e.config.MaxClassSize {
			return nil, false
		}
		for r := n.Lo(); r <= n.Hi(); r++ {
			if n.Fold() {
				dst = casefold.Orbit(dst, r)
			} else {
				dst = append(dst, r)
			}
		}
	case ast.KindTestOr:
		var ok bool
		if dst, ok = e.testRunes(dst, n.Left()); !ok {
			return nil, false
		}
		if dst, ok = e.testRunes(dst, n.Right()); !ok {
			return nil, false
		}
	default:
		return nil, false
	}
	return dst, len(dst) <= e.config.MaxClassSize
}
