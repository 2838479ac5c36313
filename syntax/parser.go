// Package syntax parses regular expression patterns into ast nodes.
//
// The accepted language is the Perl family: literals and escapes, classes
// with ranges, subtraction and Unicode properties, anchors and word
// boundaries, capturing, named, non-capturing and atomic groups,
// conditionals, greedy, lazy and possessive quantifiers, backreferences and
// inline flags. With BooleanOps the parser also accepts intersection (a&b)
// and complement (~x).
//
// Nodes are built through an ast.Context, so the returned tree is already
// simplified and interned.
package syntax

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/rangetable"

	"github.com/coregx/derivre/ast"
)

// DefaultMaxDepth bounds the nesting of groups, classes and complements.
const DefaultMaxDepth = 1000

// maxRepeat bounds the counts of {n,m} quantifiers.
const maxRepeat = 1000

// WordTable is the set of word characters matched by \w and used by \b:
// letters, non-spacing marks, decimal digits and connector punctuation.
var WordTable = rangetable.Merge(unicode.L, unicode.Mn, unicode.Nd, unicode.Pc)

// IsWordChar reports whether r is in WordTable.
func IsWordChar(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '_' || '0' <= r && r <= '9' || 'a' <= r|0x20 && r|0x20 <= 'z'
	}
	return unicode.Is(WordTable, r)
}

// IsWordCharASCII reports whether r is an ASCII word character.
func IsWordCharASCII(r rune) bool {
	return r < utf8.RuneSelf && IsWordChar(r)
}

// Regexp is a parsed pattern.
type Regexp struct {
	// Root is the pattern tree.
	Root *ast.Node
	// NumGroups is the number of capturing groups, not counting the
	// implicit group 0 around the whole match.
	NumGroups int
	// Names holds the name of each group indexed by group number. Unnamed
	// groups and group 0 have "".
	Names []string
	// NumAtomics counts atomic groups, possessive quantifiers included.
	NumAtomics int
}

// Parse parses pattern with the default nesting limit.
func Parse(c *ast.Context, pattern string, flags Flags) (*Regexp, error) {
	return ParseDepth(c, pattern, flags, DefaultMaxDepth)
}

// ParseDepth parses pattern, failing with ErrNestingDepth when groups,
// classes or complements nest deeper than maxDepth.
func ParseDepth(c *ast.Context, pattern string, flags Flags, maxDepth int) (*Regexp, error) {
	for i := 0; i < len(pattern); {
		r, size := utf8.DecodeRuneInString(pattern[i:])
		if r == utf8.RuneError && size == 1 {
			return nil, &Error{Code: ErrInvalidUTF8, Pos: i, Expr: pattern[i:]}
		}
		i += size
	}
	p := &parser{
		c:        c,
		src:      pattern,
		flags:    flags,
		maxDepth: maxDepth,
		names:    make(map[string]int),
	}
	root, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if p.more() {
		// parseAlt only stops early at an unmatched ')'.
		return nil, p.errorAt(ErrUnexpectedParen, p.pos, p.pos+1)
	}
	for _, ref := range p.refs {
		if ref.index > p.ncap {
			return nil, p.errorAt(ErrUnknownGroup, ref.pos, ref.end)
		}
	}
	if flags&Anchored != 0 {
		root = c.Seq(c.Assert(ast.AssertStartPos), root)
	}
	names := make([]string, p.ncap+1)
	for name, i := range p.names {
		names[i] = name
	}
	return &Regexp{Root: root, NumGroups: p.ncap, Names: names, NumAtomics: p.natomic}, nil
}

type parser struct {
	c        *ast.Context
	src      string
	pos      int
	flags    Flags
	maxDepth int
	depth    int

	ncap    int
	natomic int
	names   map[string]int
	refs    []groupRef
	// compl is the number of enclosing complements.
	compl int
}

// groupRef is a numeric group reference, checked once every group is known.
type groupRef struct {
	index    int
	pos, end int
}

func (p *parser) more() bool { return p.pos < len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) fold() bool { return p.flags&IgnoreCase != 0 }

func (p *parser) errorAt(code ErrorCode, from, to int) *Error {
	to = min(max(to, from), len(p.src))
	return &Error{Code: code, Pos: from, Expr: p.src[from:to]}
}

func (p *parser) enter(start int) error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorAt(ErrNestingDepth, start, len(p.src))
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// skipSpace skips whitespace and comments in free-spacing mode.
func (p *parser) skipSpace() {
	if p.flags&FreeSpacing == 0 {
		return
	}
	for p.more() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		case '#':
			if i := strings.IndexByte(p.src[p.pos:], '\n'); i >= 0 {
				p.pos += i + 1
			} else {
				p.pos = len(p.src)
			}
		default:
			return
		}
	}
}

// parseAlt parses a|b|... .
func (p *parser) parseAlt() (*ast.Node, error) {
	var branches []*ast.Node
	for {
		b, err := p.parseInter()
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
		if !p.more() || p.peek() != '|' {
			break
		}
		p.pos++
	}
	n := branches[len(branches)-1]
	for i := len(branches) - 2; i >= 0; i-- {
		n = p.c.Alt(branches[i], n)
	}
	return n, nil
}

// parseInter parses a&b&... ; without BooleanOps it is a single concatenation.
func (p *parser) parseInter() (*ast.Node, error) {
	var ops []*ast.Node
	for {
		x, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		ops = append(ops, x)
		if p.flags&BooleanOps == 0 || !p.more() || p.peek() != '&' {
			break
		}
		p.pos++
	}
	n := ops[len(ops)-1]
	for i := len(ops) - 2; i >= 0; i-- {
		n = p.c.Inter(ops[i], n)
	}
	return n, nil
}

func (p *parser) atConcatEnd() bool {
	if !p.more() {
		return true
	}
	switch p.peek() {
	case '|', ')':
		return true
	case '&':
		return p.flags&BooleanOps != 0
	}
	return false
}

// parseConcat parses a sequence of quantified atoms.
func (p *parser) parseConcat() (*ast.Node, error) {
	var items []*ast.Node
	for {
		p.skipSpace()
		if p.atConcatEnd() {
			break
		}
		start := p.pos
		switch p.peek() {
		case '*', '+', '?':
			return nil, p.errorAt(ErrMissingRepeatArgument, start, start+1)
		case '{':
			if _, _, end, ok := p.repeatBounds(start); ok {
				return nil, p.errorAt(ErrMissingRepeatArgument, start, end)
			}
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if atom, err = p.parseRepeat(atom); err != nil {
			return nil, err
		}
		items = append(items, atom)
	}
	n := p.c.Empty()
	for i := len(items) - 1; i >= 0; i-- {
		n = p.c.Seq(items[i], n)
	}
	return n, nil
}

// parseRepeat applies the quantifier following an atom, if any.
func (p *parser) parseRepeat(atom *ast.Node) (*ast.Node, error) {
	p.skipSpace()
	if !p.more() {
		return atom, nil
	}
	start := p.pos
	lo, hi := 0, ast.Unbounded
	switch p.peek() {
	case '*':
		p.pos++
	case '+':
		lo = 1
		p.pos++
	case '?':
		hi = 1
		p.pos++
	case '{':
		var end int
		var ok bool
		lo, hi, end, ok = p.repeatBounds(start)
		if !ok {
			return atom, nil
		}
		if lo > maxRepeat || hi > maxRepeat {
			return nil, p.errorAt(ErrRepeatSize, start, end)
		}
		if hi != ast.Unbounded && hi < lo {
			return nil, p.errorAt(ErrRepeatOrder, start, end)
		}
		p.pos = end
	default:
		return atom, nil
	}

	greedy, possessive := true, false
	if p.more() {
		switch p.peek() {
		case '?':
			greedy = false
			p.pos++
		case '+':
			possessive = true
			p.pos++
		}
	}
	n := p.c.Loop(atom, lo, hi, greedy)
	if possessive {
		n = p.c.Atomic(n, p.natomic)
		p.natomic++
	}

	p.skipSpace()
	if p.more() {
		switch p.peek() {
		case '*', '+', '?':
			return nil, p.errorAt(ErrBadRepeat, start, p.pos+1)
		case '{':
			if _, _, end, ok := p.repeatBounds(p.pos); ok {
				return nil, p.errorAt(ErrBadRepeat, start, end)
			}
		}
	}
	return n, nil
}

// repeatBounds parses {n}, {n,} or {n,m} at i. ok is false when the text
// at i is not a counted repetition, in which case '{' is a literal.
func (p *parser) repeatBounds(i int) (lo, hi, end int, ok bool) {
	i++
	lo, i, ok = p.number(i)
	if !ok {
		return 0, 0, 0, false
	}
	hi = lo
	if i < len(p.src) && p.src[i] == ',' {
		i++
		if i < len(p.src) && p.src[i] == '}' {
			hi = ast.Unbounded
		} else if hi, i, ok = p.number(i); !ok {
			return 0, 0, 0, false
		}
	}
	if i >= len(p.src) || p.src[i] != '}' {
		return 0, 0, 0, false
	}
	return lo, hi, i + 1, true
}

// number parses decimal digits at i. Values past maxRepeat saturate so
// that oversized counts are reported rather than overflowing.
func (p *parser) number(i int) (n, end int, ok bool) {
	start := i
	for i < len(p.src) && isDigit(p.src[i]) {
		if n <= maxRepeat {
			n = n*10 + int(p.src[i]-'0')
		}
		i++
	}
	return n, i, i > start
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool { return isDigit(c) || 'a' <= c|0x20 && c|0x20 <= 'f' }

func hexValue(c byte) rune {
	if isDigit(c) {
		return rune(c - '0')
	}
	return rune(c|0x20-'a') + 10
}

// parseAtom parses a single atom at p.pos; the caller guarantees there is
// one.
func (p *parser) parseAtom() (*ast.Node, error) {
	switch p.peek() {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '\\':
		return p.parseEscape()
	case '.':
		p.pos++
		if p.flags&DotAll != 0 {
			return p.c.Any(), nil
		}
		return p.c.TestDiff(p.c.Any(), p.c.Char('\n', false)), nil
	case '^':
		p.pos++
		if p.flags&Multiline != 0 {
			return p.c.Assert(ast.AssertBeginLine), nil
		}
		return p.c.Assert(ast.AssertBeginText), nil
	case '$':
		p.pos++
		if p.flags&Multiline != 0 {
			return p.c.Assert(ast.AssertEndLine), nil
		}
		return p.c.Assert(ast.AssertEndTextOptNL), nil
	case '~':
		if p.flags&BooleanOps != 0 {
			return p.parseComplement()
		}
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return p.c.Char(r, p.fold()), nil
}

// parseComplement parses ~x, where x is the next atom.
func (p *parser) parseComplement() (*ast.Node, error) {
	start := p.pos
	p.pos++
	p.skipSpace()
	if p.atConcatEnd() {
		return nil, p.errorAt(ErrMissingOperand, start, start+1)
	}
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer p.leave()
	p.compl++
	x, err := p.parseAtom()
	p.compl--
	if err != nil {
		return nil, err
	}
	return p.c.Compl(x), nil
}

// parseGroup parses a parenthesized construct starting at '('.
func (p *parser) parseGroup() (*ast.Node, error) {
	start := p.pos
	p.pos++
	if !p.more() || p.peek() != '?' {
		idx := p.newCapture()
		body, err := p.groupBody(start, p.flags)
		if err != nil {
			return nil, err
		}
		return p.c.Capture(body, idx, ""), nil
	}
	p.pos++
	if !p.more() {
		return nil, p.errorAt(ErrMissingParen, start, len(p.src))
	}
	rest := p.src[p.pos:]
	switch {
	case rest[0] == ':':
		p.pos++
		return p.groupBody(start, p.flags)

	case rest[0] == '>':
		p.pos++
		body, err := p.groupBody(start, p.flags)
		if err != nil {
			return nil, err
		}
		idx := p.natomic
		p.natomic++
		return p.c.Atomic(body, idx), nil

	case rest[0] == '#':
		i := strings.IndexByte(rest, ')')
		if i < 0 {
			return nil, p.errorAt(ErrMissingParen, start, len(p.src))
		}
		p.pos += i + 1
		return p.c.Empty(), nil

	case rest[0] == '(':
		return p.parseConditional(start)

	case strings.HasPrefix(rest, "P<"):
		p.pos += 2
		return p.namedGroup(start, '>')

	case rest[0] == '<' && !strings.HasPrefix(rest, "<=") && !strings.HasPrefix(rest, "<!"):
		p.pos++
		return p.namedGroup(start, '>')

	case rest[0] == '\'':
		p.pos++
		return p.namedGroup(start, '\'')
	}
	return p.flagGroup(start)
}

func (p *parser) newCapture() int {
	p.ncap++
	return p.ncap
}

// groupBody parses the body of a group under inner flags and consumes the
// closing paren. The enclosing flags are restored afterwards.
func (p *parser) groupBody(start int, inner Flags) (*ast.Node, error) {
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer p.leave()
	saved := p.flags
	p.flags = inner
	body, err := p.parseAlt()
	p.flags = saved
	if err != nil {
		return nil, err
	}
	if !p.more() || p.peek() != ')' {
		return nil, p.errorAt(ErrMissingParen, start, len(p.src))
	}
	p.pos++
	return body, nil
}

func (p *parser) namedGroup(start int, term byte) (*ast.Node, error) {
	nameStart := p.pos
	name, ok := p.groupName(term)
	if !ok {
		return nil, p.errorAt(ErrBadName, nameStart, p.pos)
	}
	if _, dup := p.names[name]; dup {
		return nil, p.errorAt(ErrDuplicateName, nameStart, p.pos)
	}
	idx := p.newCapture()
	p.names[name] = idx
	body, err := p.groupBody(start, p.flags)
	if err != nil {
		return nil, err
	}
	return p.c.Capture(body, idx, name), nil
}

// groupName reads a name terminated by term and consumes the terminator.
func (p *parser) groupName(term byte) (string, bool) {
	i := strings.IndexByte(p.src[p.pos:], term)
	if i < 0 {
		p.pos = len(p.src)
		return "", false
	}
	name := p.src[p.pos : p.pos+i]
	p.pos += i + 1
	return name, isName(name)
}

func isName(s string) bool {
	if s == "" || isDigit(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && !isDigit(c) && !('a' <= c|0x20 && c|0x20 <= 'z') {
			return false
		}
	}
	return true
}

// flagGroup parses (?flags) and (?flags:body).
func (p *parser) flagGroup(start int) (*ast.Node, error) {
	flags := p.flags
	negate := false
	for p.more() {
		c := p.peek()
		switch c {
		case '-':
			if negate {
				return nil, p.errorAt(ErrBadGroup, start, p.pos+1)
			}
			negate = true
		case ')':
			p.pos++
			p.flags = flags
			return p.c.Empty(), nil
		case ':':
			p.pos++
			return p.groupBody(start, flags)
		default:
			f, ok := inlineFlag(c)
			if !ok {
				return nil, p.errorAt(ErrBadGroup, start, p.pos+1)
			}
			if negate {
				flags &^= f
			} else {
				flags |= f
			}
		}
		p.pos++
	}
	return nil, p.errorAt(ErrMissingParen, start, len(p.src))
}

// parseConditional parses (?(ref)yes|no); p.pos is at the inner '('.
func (p *parser) parseConditional(start int) (*ast.Node, error) {
	p.pos++
	refStart := p.pos
	i := strings.IndexByte(p.src[p.pos:], ')')
	if i < 0 {
		return nil, p.errorAt(ErrMissingParen, start, len(p.src))
	}
	ref := p.src[p.pos : p.pos+i]
	p.pos += i + 1
	if len(ref) >= 2 && (ref[0] == '<' && ref[len(ref)-1] == '>' || ref[0] == '\'' && ref[len(ref)-1] == '\'') {
		ref = ref[1 : len(ref)-1]
	}
	if p.compl > 0 {
		return nil, p.errorAt(ErrBackrefInComplement, start, p.pos)
	}
	var idx int
	switch {
	case ref != "" && strings.Trim(ref, "0123456789") == "":
		n, err := strconv.Atoi(ref)
		if err != nil || n == 0 {
			return nil, p.errorAt(ErrUnknownGroup, refStart, p.pos-1)
		}
		idx = n
		p.refs = append(p.refs, groupRef{index: n, pos: refStart, end: p.pos - 1})
	case isName(ref):
		n, ok := p.names[ref]
		if !ok {
			return nil, p.errorAt(ErrUnknownGroup, refStart, p.pos-1)
		}
		idx = n
	default:
		return nil, p.errorAt(ErrBadGroup, start, p.pos)
	}

	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer p.leave()
	saved := p.flags
	defer func() { p.flags = saved }()
	yes, err := p.parseInter()
	if err != nil {
		return nil, err
	}
	no := p.c.Empty()
	if p.more() && p.peek() == '|' {
		p.pos++
		if no, err = p.parseInter(); err != nil {
			return nil, err
		}
		if p.more() && p.peek() == '|' {
			return nil, p.errorAt(ErrBadConditional, start, p.pos+1)
		}
	}
	if !p.more() || p.peek() != ')' {
		return nil, p.errorAt(ErrMissingParen, start, len(p.src))
	}
	p.pos++
	return p.c.Cond(idx, yes, no), nil
}

// parseEscape parses an escape outside a class; p.pos is at '\'.
func (p *parser) parseEscape() (*ast.Node, error) {
	start := p.pos
	p.pos++
	if !p.more() {
		return nil, p.errorAt(ErrBadEscape, start, p.pos)
	}
	switch c := p.peek(); c {
	case 'A':
		p.pos++
		return p.c.Assert(ast.AssertBeginText), nil
	case 'z':
		p.pos++
		return p.c.Assert(ast.AssertEndText), nil
	case 'Z':
		p.pos++
		return p.c.Assert(ast.AssertEndTextOptNL), nil
	case 'G':
		p.pos++
		return p.c.Assert(ast.AssertStartPos), nil
	case 'b', 'B':
		p.pos++
		op := ast.AssertWordBoundary
		if p.flags&SimpleWordBreak != 0 {
			op = ast.AssertWordBoundaryASCII
		}
		if c == 'B' {
			op++
		}
		return p.c.Assert(op), nil
	case 'd', 'D', 'w', 'W', 's', 'S':
		p.pos++
		return p.perlClass(c), nil
	case 'p', 'P':
		return p.parseProperty(start)
	case 'k':
		return p.namedBackref(start)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, end, _ := p.number(p.pos)
		p.pos = end
		if p.compl > 0 {
			return nil, p.errorAt(ErrBackrefInComplement, start, end)
		}
		p.refs = append(p.refs, groupRef{index: n, pos: start, end: end})
		return p.c.Backref(n, p.fold()), nil
	}
	r, err := p.escapeRune(start)
	if err != nil {
		return nil, err
	}
	return p.c.Char(r, p.fold()), nil
}

// namedBackref parses \k<name>, \k'name' or \k{name}; p.pos is at 'k'.
func (p *parser) namedBackref(start int) (*ast.Node, error) {
	p.pos++
	if !p.more() {
		return nil, p.errorAt(ErrBadEscape, start, p.pos)
	}
	var term byte
	switch p.peek() {
	case '<':
		term = '>'
	case '\'':
		term = '\''
	case '{':
		term = '}'
	default:
		return nil, p.errorAt(ErrBadEscape, start, p.pos+1)
	}
	p.pos++
	name, ok := p.groupName(term)
	if !ok {
		return nil, p.errorAt(ErrBadName, start, p.pos)
	}
	idx, ok := p.names[name]
	if !ok {
		return nil, p.errorAt(ErrUnknownGroup, start, p.pos)
	}
	if p.compl > 0 {
		return nil, p.errorAt(ErrBackrefInComplement, start, p.pos)
	}
	return p.c.Backref(idx, p.fold()), nil
}

// escapeRune decodes a single-codepoint escape; p.pos is just past '\'.
func (p *parser) escapeRune(start int) (rune, error) {
	c, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case 'a':
		return '\a', nil
	case 'e':
		return 0x1b, nil
	case '0':
		// Up to two more octal digits.
		r := rune(0)
		for i := 0; i < 2 && p.more() && '0' <= p.peek() && p.peek() <= '7'; i++ {
			r = r*8 + rune(p.peek()-'0')
			p.pos++
		}
		return r, nil
	case 'x':
		if p.more() && p.peek() == '{' {
			end := strings.IndexByte(p.src[p.pos:], '}')
			if end < 0 {
				return 0, p.errorAt(ErrBadEscape, start, len(p.src))
			}
			digits := p.src[p.pos+1 : p.pos+end]
			p.pos += end + 1
			v, err := strconv.ParseUint(digits, 16, 32)
			if err != nil || v > unicode.MaxRune {
				return 0, p.errorAt(ErrBadEscape, start, p.pos)
			}
			return rune(v), nil
		}
		return p.hexDigits(start, 2)
	case 'u':
		return p.hexDigits(start, 4)
	case 'c':
		if p.more() && 'a' <= p.peek()|0x20 && p.peek()|0x20 <= 'z' {
			r := rune(p.peek() & 0x1f)
			p.pos++
			return r, nil
		}
		return 0, p.errorAt(ErrBadEscape, start, p.pos)
	}
	if c < utf8.RuneSelf && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
		return c, nil
	}
	if c >= utf8.RuneSelf && !unicode.IsLetter(c) {
		return c, nil
	}
	return 0, p.errorAt(ErrBadEscape, start, p.pos)
}

func (p *parser) hexDigits(start, n int) (rune, error) {
	if p.pos+n > len(p.src) {
		return 0, p.errorAt(ErrBadEscape, start, len(p.src))
	}
	var r rune
	for i := 0; i < n; i++ {
		c := p.src[p.pos+i]
		if !isHex(c) {
			return 0, p.errorAt(ErrBadEscape, start, p.pos+i+1)
		}
		r = r<<4 | hexValue(c)
	}
	p.pos += n
	return r, nil
}

// perlClass returns the node for \d, \D, \w, \W, \s or \S.
func (p *parser) perlClass(c byte) *ast.Node {
	var n *ast.Node
	switch c | 0x20 {
	case 'd':
		n = p.c.Class("Nd", unicode.Nd, false)
	case 'w':
		n = p.c.Class("Word", WordTable, false)
	case 's':
		n = p.c.Class("White_Space", unicode.White_Space, false)
	}
	if c < 'a' {
		return p.c.TestDiff(p.c.Any(), n)
	}
	return n
}

// parseProperty parses \pX, \p{Name}, \p{^Name} and the \P forms; p.pos is
// at 'p' or 'P'.
func (p *parser) parseProperty(start int) (*ast.Node, error) {
	negate := p.peek() == 'P'
	p.pos++
	if !p.more() {
		return nil, p.errorAt(ErrBadEscape, start, p.pos)
	}
	var name string
	if p.peek() == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return nil, p.errorAt(ErrBadEscape, start, len(p.src))
		}
		name = p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
	} else {
		_, size := utf8.DecodeRuneInString(p.src[p.pos:])
		name = p.src[p.pos : p.pos+size]
		p.pos += size
	}
	if rest, ok := strings.CutPrefix(name, "^"); ok {
		negate = !negate
		name = rest
	}
	n, ok := p.property(name)
	if !ok {
		return nil, p.errorAt(ErrUnknownProperty, start, p.pos)
	}
	if negate {
		return p.c.TestDiff(p.c.Any(), n), nil
	}
	return n, nil
}

// property looks name up among general categories, scripts and binary
// properties. An "Is" prefix is accepted for categories and scripts.
func (p *parser) property(name string) (*ast.Node, bool) {
	switch name {
	case "Any":
		return p.c.Any(), true
	case "ASCII":
		return p.c.Range(0, unicode.MaxASCII, false), true
	}
	fold := p.fold()
	if t, ok := unicode.Categories[name]; ok {
		return p.c.Class(name, t, fold), true
	}
	if t, ok := unicode.Scripts[name]; ok {
		return p.c.Class(name, t, fold), true
	}
	if t, ok := unicode.Properties[name]; ok {
		return p.c.Class(name, t, fold), true
	}
	if rest, ok := strings.CutPrefix(name, "Is"); ok && rest != "" {
		return p.property(rest)
	}
	return nil, false
}

// parseClass parses a bracketed class starting at '['.
func (p *parser) parseClass() (*ast.Node, error) {
	start := p.pos
	p.pos++
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer p.leave()

	negate := false
	if p.more() && p.peek() == '^' {
		negate = true
		p.pos++
	}
	fold := p.fold()
	set := p.c.Fail()
	for first := true; ; first = false {
		if !p.more() {
			return nil, p.errorAt(ErrMissingBracket, start, len(p.src))
		}
		rest := p.src[p.pos:]
		switch {
		case rest[0] == ']' && !first:
			p.pos++
			if negate {
				set = p.c.TestDiff(p.c.Any(), set)
			}
			return set, nil

		case strings.HasPrefix(rest, "-[") && !first:
			// Subtraction must be the last item of the class.
			p.pos++
			sub, err := p.parseClass()
			if err != nil {
				return nil, err
			}
			if negate {
				set = p.c.TestDiff(p.c.Any(), set)
			}
			set = p.c.TestDiff(set, sub)
			if !p.more() || p.peek() != ']' {
				return nil, p.errorAt(ErrMissingBracket, start, len(p.src))
			}
			p.pos++
			return set, nil

		case strings.HasPrefix(rest, "[:"):
			if n, ok := p.posixClass(); ok {
				set = p.c.TestOr(set, n)
				continue
			}
		}

		itemStart := p.pos
		lo, n, err := p.classAtom()
		if err != nil {
			return nil, err
		}
		if n != nil {
			set = p.c.TestOr(set, n)
			continue
		}
		hi := lo
		if rest := p.src[p.pos:]; len(rest) >= 2 && rest[0] == '-' && rest[1] != ']' && rest[1] != '[' {
			p.pos++
			hi, n, err = p.classAtom()
			if err != nil {
				return nil, err
			}
			if n != nil || hi < lo {
				return nil, p.errorAt(ErrBadClassRange, itemStart, p.pos)
			}
		}
		set = p.c.TestOr(set, p.c.Range(lo, hi, fold))
	}
}

// classAtom parses one class member: a codepoint, or a nested class such
// as \d or \p{L}.
func (p *parser) classAtom() (rune, *ast.Node, error) {
	if p.peek() != '\\' {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		return r, nil, nil
	}
	start := p.pos
	p.pos++
	if !p.more() {
		return 0, nil, p.errorAt(ErrBadEscape, start, p.pos)
	}
	switch c := p.peek(); c {
	case 'd', 'D', 'w', 'W', 's', 'S':
		p.pos++
		return 0, p.perlClass(c), nil
	case 'p', 'P':
		n, err := p.parseProperty(start)
		return 0, n, err
	case 'b':
		p.pos++
		return '\b', nil, nil
	}
	r, err := p.escapeRune(start)
	return r, nil, err
}

type runeRange struct{ lo, hi rune }

var posixClasses = map[string][]runeRange{
	"alnum":  {{'0', '9'}, {'A', 'Z'}, {'a', 'z'}},
	"alpha":  {{'A', 'Z'}, {'a', 'z'}},
	"ascii":  {{0, unicode.MaxASCII}},
	"blank":  {{'\t', '\t'}, {' ', ' '}},
	"cntrl":  {{0, 0x1f}, {0x7f, 0x7f}},
	"digit":  {{'0', '9'}},
	"graph":  {{'!', '~'}},
	"lower":  {{'a', 'z'}},
	"print":  {{' ', '~'}},
	"punct":  {{'!', '/'}, {':', '@'}, {'[', '`'}, {'{', '~'}},
	"space":  {{'\t', '\r'}, {' ', ' '}},
	"upper":  {{'A', 'Z'}},
	"word":   {{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}},
	"xdigit": {{'0', '9'}, {'A', 'F'}, {'a', 'f'}},
}

// posixClass parses [:name:] or [:^name:] inside a class. ok is false when
// the text is not a known POSIX class; nothing is consumed then.
func (p *parser) posixClass() (*ast.Node, bool) {
	rest := p.src[p.pos+2:]
	end := strings.Index(rest, ":]")
	if end < 0 {
		return nil, false
	}
	name, negate := rest[:end], false
	if n, ok := strings.CutPrefix(name, "^"); ok {
		name, negate = n, true
	}
	ranges, ok := posixClasses[name]
	if !ok {
		return nil, false
	}
	p.pos += 2 + end + 2
	n := p.c.Fail()
	for _, r := range ranges {
		n = p.c.TestOr(n, p.c.Range(r.lo, r.hi, p.fold()))
	}
	if negate {
		n = p.c.TestDiff(p.c.Any(), n)
	}
	return n, true
}
