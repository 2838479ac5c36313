// Package casefold implements the simple Unicode case folding used for
// case-insensitive matching.
//
// Every rune belongs to an orbit: the cycle produced by repeated
// unicode.SimpleFold. Two runes are equal under folding when their orbits
// coincide, which is tested by comparing orbit keys.
package casefold

import "unicode"

// Key returns the canonical representative of r's folding orbit: the
// smallest rune reachable through unicode.SimpleFold.
func Key(r rune) rune {
	min := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < min {
			min = f
		}
	}
	return min
}

// HasFold reports whether r has at least one case variant.
func HasFold(r rune) bool {
	return unicode.SimpleFold(r) != r
}

// Equal reports whether a and b are equal under simple case folding.
func Equal(a, b rune) bool {
	if a == b {
		return true
	}
	if a < 0x80 && b < 0x80 {
		// Inside ASCII only letters fold, and only onto their other case.
		if a|0x20 != b|0x20 {
			return false
		}
		c := a | 0x20
		return c >= 'a' && c <= 'z'
	}
	return Key(a) == Key(b)
}

// Orbit appends every member of r's folding orbit, r included, to dst.
func Orbit(dst []rune, r rune) []rune {
	dst = append(dst, r)
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		dst = append(dst, f)
	}
	return dst
}

// InRange reports whether some member of r's orbit lies in [lo, hi].
func InRange(r, lo, hi rune) bool {
	if lo <= r && r <= hi {
		return true
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if lo <= f && f <= hi {
			return true
		}
	}
	return false
}

// InTable reports whether some member of r's orbit is in t.
func InTable(t *unicode.RangeTable, r rune) bool {
	if unicode.Is(t, r) {
		return true
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if unicode.Is(t, f) {
			return true
		}
	}
	return false
}
