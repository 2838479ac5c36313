package syntax

import "strings"

// Flags control how a pattern is parsed.
type Flags uint16

const (
	// IgnoreCase matches letters case-insensitively using simple case
	// folding.
	IgnoreCase Flags = 1 << iota

	// Multiline makes ^ and $ match at line boundaries instead of only at
	// the text boundaries.
	Multiline

	// DotAll makes . match \n.
	DotAll

	// FreeSpacing ignores unescaped whitespace and #-comments outside
	// character classes.
	FreeSpacing

	// SimpleWordBreak makes \b and \B consider only ASCII word characters.
	SimpleWordBreak

	// Anchored requires every match to begin at the search start.
	Anchored

	// BooleanOps enables the intersection operator a&b and the complement
	// operator ~x. Without it & and ~ are literals.
	BooleanOps
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{IgnoreCase, "i"},
	{Multiline, "m"},
	{DotAll, "s"},
	{FreeSpacing, "x"},
	{SimpleWordBreak, "w"},
	{Anchored, "A"},
	{BooleanOps, "B"},
}

// String returns the flags as the letters used in inline flag groups, with
// w, A and B for the options that have no inline form.
func (f Flags) String() string {
	var b strings.Builder
	for _, n := range flagNames {
		if f&n.f != 0 {
			b.WriteString(n.name)
		}
	}
	return b.String()
}

// inlineFlag maps the letters accepted by (?imsx-imsx) to flags.
func inlineFlag(c byte) (Flags, bool) {
	switch c {
	case 'i':
		return IgnoreCase, true
	case 'm':
		return Multiline, true
	case 's':
		return DotAll, true
	case 'x':
		return FreeSpacing, true
	}
	return 0, false
}
