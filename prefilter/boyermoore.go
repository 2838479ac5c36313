package prefilter

import (
	"unicode/utf8"

	"github.com/coregx/derivre/internal/casefold"
	"github.com/coregx/derivre/internal/conv"
	"github.com/coregx/derivre/internal/cptable"
)

// BoyerMoore searches for a fixed codepoint sequence.
//
// The pattern is compared right to left one codepoint at a time, so a
// multi-byte UTF-8 sequence is a single symbol and shifts are counted in
// codepoints. With folding, both the pattern and the text are reduced to
// case-fold keys before comparison; the shift tables are built over keys.
//
// A BoyerMoore is immutable after construction and safe for concurrent use.
type BoyerMoore struct {
	pattern []rune
	fold    bool

	// last holds, for each codepoint, one plus the index of its last
	// occurrence in pattern (0 = absent).
	last *cptable.Table

	// shift[j] is the good-suffix shift after pattern[j:] matched and
	// pattern[j-1] did not. shift[0] applies after a full match.
	shift []int
}

// NewBoyerMoore builds a scanner for pattern. With fold, pattern must hold
// case-fold keys (casefold.Key), as returned by literal.Prefix.
//
// Panics if pattern is empty.
func NewBoyerMoore(pattern []rune, fold bool) *BoyerMoore {
	if len(pattern) == 0 {
		panic("prefilter: empty Boyer-Moore pattern")
	}
	p := make([]rune, len(pattern))
	for i, r := range pattern {
		if fold {
			r = casefold.Key(r)
		}
		p[i] = r
	}

	last := cptable.New()
	for i, r := range p {
		last.Set(r, conv.IntToInt32(i+1))
	}
	return &BoyerMoore{
		pattern: p,
		fold:    fold,
		last:    last,
		shift:   goodSuffix(p),
	}
}

// goodSuffix computes the strong good-suffix shifts of p using the border
// table of its reversed suffixes.
func goodSuffix(p []rune) []int {
	m := len(p)
	shift := make([]int, m+1)
	border := make([]int, m+1)

	i, j := m, m+1
	border[i] = j
	for i > 0 {
		for j <= m && p[i-1] != p[j-1] {
			if shift[j] == 0 {
				shift[j] = j - i
			}
			j = border[j]
		}
		i--
		j--
		border[i] = j
	}

	// Suffixes with no reoccurrence shift to the widest border of p.
	j = border[0]
	for i := 0; i <= m; i++ {
		if shift[i] == 0 {
			shift[i] = j
		}
		if i == j {
			j = border[j]
		}
	}
	return shift
}

// Len returns the pattern length in codepoints.
func (bm *BoyerMoore) Len() int {
	return len(bm.pattern)
}

// Scan returns the byte offset of the first occurrence of the pattern that
// starts at or after start and ends at or before end. It returns end when
// there is none.
func (bm *BoyerMoore) Scan(haystack string, start, end int) int {
	m := len(bm.pattern)
	text := haystack[:end]

	// The window is text[pos:stop] and always spans m codepoints.
	pos := start
	stop, ok := advance(text, pos, m)
	if !ok {
		return end
	}
	for {
		j := m - 1
		at := stop
		var r rune
		for j >= 0 {
			var w int
			r, w = utf8.DecodeLastRuneInString(text[:at])
			if bm.fold {
				r = casefold.Key(r)
			}
			if r != bm.pattern[j] {
				break
			}
			at -= w
			j--
		}
		if j < 0 {
			return pos
		}

		n := bm.shift[j+1]
		if bc := j - int(bm.last.Get(r)) + 1; bc > n {
			n = bc
		}
		if pos, ok = advance(text, pos, n); !ok {
			return end
		}
		if stop, ok = advance(text, stop, n); !ok {
			return end
		}
	}
}

// Find implements Prefilter.Find.
func (bm *BoyerMoore) Find(haystack string, start int) int {
	if start < 0 || start > len(haystack) {
		return -1
	}
	if pos := bm.Scan(haystack, start, len(haystack)); pos < len(haystack) {
		return pos
	}
	return -1
}

// HeapBytes implements Prefilter.HeapBytes.
func (bm *BoyerMoore) HeapBytes() int {
	return len(bm.pattern)*4 + len(bm.shift)*8 + bm.last.HeapBytes()
}

func (bm *BoyerMoore) String() string {
	if bm.fold {
		return "boyer-moore((?i)" + string(bm.pattern) + ")"
	}
	return "boyer-moore(" + string(bm.pattern) + ")"
}

// advance moves pos forward by n codepoints. It reports false when text
// ends first.
func advance(text string, pos, n int) (int, bool) {
	for ; n > 0; n-- {
		if pos >= len(text) {
			return pos, false
		}
		if text[pos] < utf8.RuneSelf {
			pos++
			continue
		}
		_, w := utf8.DecodeRuneInString(text[pos:])
		pos += w
	}
	return pos, true
}
