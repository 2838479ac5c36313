// Package prefilter finds positions in a haystack where a match may begin,
// so the matcher can skip text that cannot start one.
//
// A prefilter never decides a match. It reports candidates; the matcher
// verifies every candidate against the full pattern.
//
// The Builder picks one strategy from what the pattern guarantees about
// the start of its matches:
//   - a fixed literal prefix (possibly case-insensitive) → BoyerMoore
//   - a small set of literal prefixes → PrefixSet (Aho-Corasick)
//   - a single leading byte → byte scanner
//
// Example usage:
//
//	c := ast.NewContext()
//	re, _ := syntax.Parse(c, "hello[0-9]+", 0)
//	prefix, fold := literal.Prefix(re.Root)
//	pf := prefilter.NewBuilder(prefix, fold, nil).Build()
//	pos := pf.Find("say hello42", 0) // 4
package prefilter

import (
	"fmt"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/coregx/derivre/literal"
)

// Prefilter reports candidate match starts.
type Prefilter interface {
	// Find returns the byte offset of the first candidate at or after
	// start, or -1 if there is none.
	//
	// start must be within [0, len(haystack)].
	Find(haystack string, start int) int

	// HeapBytes returns the memory held by the prefilter's tables.
	HeapBytes() int
}

// Builder chooses a prefilter for a pattern.
type Builder struct {
	prefix   []rune
	fold     bool
	prefixes *literal.Seq

	minPrefixLen int
	ahoCorasick  bool
}

// NewBuilder creates a builder from the fixed prefix of a pattern (see
// literal.Prefix) and its prefix literal set (see literal.ExtractPrefixes).
// Either may be empty.
func NewBuilder(prefix []rune, fold bool, prefixes *literal.Seq) *Builder {
	return &Builder{
		prefix:       prefix,
		fold:         fold,
		prefixes:     prefixes,
		minPrefixLen: 2,
		ahoCorasick:  true,
	}
}

// MinPrefixLen sets the shortest fixed prefix, in codepoints, worth a
// Boyer-Moore scanner. Default: 2.
func (b *Builder) MinPrefixLen(n int) *Builder {
	b.minPrefixLen = max(n, 1)
	return b
}

// AhoCorasick enables or disables the prefix-set strategy. Default: on.
func (b *Builder) AhoCorasick(enabled bool) *Builder {
	b.ahoCorasick = enabled
	return b
}

// Build returns the best prefilter, or nil if the pattern offers nothing to
// search for.
//
// Selection order:
//  1. fixed prefix of at least MinPrefixLen codepoints → BoyerMoore
//  2. 2+ non-empty prefix literals → PrefixSet
//  3. every match starts with the same byte → byte scanner
func (b *Builder) Build() Prefilter {
	if len(b.prefix) >= b.minPrefixLen {
		return NewBoyerMoore(b.prefix, b.fold)
	}

	seq := b.prefixes
	if !seq.IsEmpty() && !seq.HasEmpty() {
		seq = seq.Clone()
		seq.Minimize()
		if b.ahoCorasick && seq.Len() >= 2 {
			if ps, err := NewPrefixSet(seq.Bytes()); err == nil {
				return ps
			}
		}
		if c, ok := commonFirstByte(seq); ok {
			return newByteScanner(c)
		}
		return nil
	}

	if len(b.prefix) > 0 && !b.fold && b.prefix[0] < utf8.RuneSelf {
		return newByteScanner(byte(b.prefix[0]))
	}
	return nil
}

// commonFirstByte returns the first byte shared by every literal.
func commonFirstByte(seq *literal.Seq) (byte, bool) {
	first := seq.Get(0).Bytes[0]
	for i := 1; i < seq.Len(); i++ {
		if seq.Get(i).Bytes[0] != first {
			return 0, false
		}
	}
	return first, true
}

// byteScanner looks for a single byte.
//
// Any byte a pattern can start with is either ASCII or a UTF-8 lead byte,
// and neither occurs inside a multi-byte sequence, so every hit is a
// codepoint boundary.
type byteScanner struct {
	needle byte
}

func newByteScanner(needle byte) *byteScanner {
	return &byteScanner{needle: needle}
}

// Find implements Prefilter.Find.
func (p *byteScanner) Find(haystack string, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := strings.IndexByte(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *byteScanner) HeapBytes() int {
	return 0
}

func (p *byteScanner) String() string {
	return fmt.Sprintf("byte(%#02x)", p.needle)
}

// bytesOf views s as a byte slice without copying. The result must not be
// modified.
func bytesOf(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
