package literal

import (
	"slices"

	"github.com/coregx/derivre/ast"
	"github.com/coregx/derivre/internal/casefold"
)

// MaxPrefixLen caps the length of the prefix returned by Prefix.
const MaxPrefixLen = 64

// Prefix returns the codepoints every match of n begins with. When fold is
// true the prefix is made of case-fold keys (see casefold.Key) and must be
// compared case-insensitively.
//
// Example:
//
//	"hello\d+"      → "hello"
//	"(?i)ab(c|cd)"  → "ABC", fold
//	"x{3}y"         → "xxxy"
//	"foo|bar"       → ""
func Prefix(n *ast.Node) (prefix []rune, fold bool) {
	p := prefixOf(n, 0)
	if len(p.runes) > MaxPrefixLen {
		p.runes = p.runes[:MaxPrefixLen]
	}
	return p.runes, p.fold
}

type runePrefix struct {
	runes []rune
	fold  bool
	// complete is set when runes spell out everything the subpattern
	// consumes, so the prefix may continue past it.
	complete bool
}

func prefixOf(n *ast.Node, depth int) runePrefix {
	if depth > maxDepth {
		return runePrefix{}
	}
	switch n.Kind() {
	case ast.KindEmpty, ast.KindTrue, ast.KindAssert:
		return runePrefix{complete: true}

	case ast.KindChar:
		return runePrefix{runes: []rune{n.Rune()}, fold: n.Fold(), complete: true}

	case ast.KindSeq:
		head := prefixOf(n.Left(), depth+1)
		if !head.complete || len(head.runes) >= MaxPrefixLen {
			head.complete = false
			return head
		}
		return concat(head, prefixOf(n.Right(), depth+1))

	case ast.KindAlt:
		return common(prefixOf(n.Left(), depth+1), prefixOf(n.Right(), depth+1))

	case ast.KindInter:
		// Both operands hold; the longer prefix says more.
		l, r := prefixOf(n.Left(), depth+1), prefixOf(n.Right(), depth+1)
		l.complete, r.complete = false, false
		if len(r.runes) > len(l.runes) {
			return r
		}
		return l

	case ast.KindCapture, ast.KindAtomic:
		return prefixOf(n.Body(), depth+1)

	case ast.KindLoop:
		if n.Min() == 0 {
			return runePrefix{}
		}
		body := prefixOf(n.Body(), depth+1)
		if !body.complete {
			return body
		}
		out := runePrefix{fold: body.fold, complete: n.Max() == n.Min()}
		for i := 0; i < n.Min() && len(out.runes) < MaxPrefixLen; i++ {
			out.runes = append(out.runes, body.runes...)
		}
		if len(out.runes) >= MaxPrefixLen {
			out.complete = false
		}
		return out
	}
	return runePrefix{}
}

func concat(a, b runePrefix) runePrefix {
	if len(b.runes) == 0 {
		return runePrefix{runes: a.runes, fold: a.fold, complete: b.complete}
	}
	if len(a.runes) == 0 {
		return b
	}
	if a.fold != b.fold {
		a, b = toKeys(a), toKeys(b)
	}
	return runePrefix{
		runes:    append(slices.Clip(a.runes), b.runes...),
		fold:     a.fold,
		complete: b.complete,
	}
}

func common(a, b runePrefix) runePrefix {
	if a.fold != b.fold {
		a, b = toKeys(a), toKeys(b)
	}
	i := 0
	for i < len(a.runes) && i < len(b.runes) && a.runes[i] == b.runes[i] {
		i++
	}
	return runePrefix{
		runes:    a.runes[:i:i],
		fold:     a.fold,
		complete: a.complete && b.complete && i == len(a.runes) && i == len(b.runes),
	}
}

// toKeys turns an exact prefix into a case-insensitive one.
func toKeys(p runePrefix) runePrefix {
	if p.fold {
		return p
	}
	keys := make([]rune, len(p.runes))
	for i, r := range p.runes {
		keys[i] = casefold.Key(r)
	}
	return runePrefix{runes: keys, fold: true, complete: p.complete}
}
