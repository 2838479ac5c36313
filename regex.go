// Package derivre provides a regular expression engine built on Brzozowski
// derivatives.
//
// derivre compiles a pattern by repeatedly taking its derivative until no
// new states appear, producing an automaton whose transitions carry small
// instruction programs. Matching runs that automaton over the input while
// tracking several candidate matches at once:
//   - Leftmost match, longest among those starting there (POSIX)
//   - Captures, backreferences, atomic groups and conditionals
//   - Intersection (a&b) and complement (~x) with the BooleanOps flag
//   - Literal prefilters (Boyer-Moore, Aho-Corasick, byte scan)
//
// The public API follows stdlib regexp where the semantics agree, making
// it easy to try on existing code.
//
// Basic usage:
//
//	re, err := derivre.Compile(`\d+`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(re.FindString("hello 123 world")) // "123"
//
// Flags:
//
//	re := derivre.MustCompileWithFlags(`[a-z]+&~(?:.*q.*)`, syntax.BooleanOps)
//	re.MatchString("quiet") // true: "uiet" contains no q
//
// Performance characteristics:
//   - Patterns with literal prefixes skip to candidate positions
//   - Matching time is linear in the input for a fixed pattern, except for
//     backreferences
//   - Compilation cost grows with the number of distinct derivatives
package derivre

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/coregx/derivre/meta"
	"github.com/coregx/derivre/nfa"
	"github.com/coregx/derivre/syntax"
)

// Regex represents a compiled regular expression.
//
// A Regex is safe to use concurrently from multiple goroutines.
//
// Example:
//
//	re := derivre.MustCompile(`hello`)
//	if re.MatchString("hello world") {
//	    println("matched!")
//	}
type Regex struct {
	engine  *meta.Engine
	pattern string
}

// Regexp is an alias for Regex, for code written against stdlib regexp.
type Regexp = Regex

// Compile compiles a regular expression pattern with default flags.
//
// Example:
//
//	re, err := derivre.Compile(`\d{3}-\d{4}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, 0, meta.DefaultConfig())
}

// CompileWithFlags compiles a pattern with the given flags.
func CompileWithFlags(pattern string, flags syntax.Flags) (*Regex, error) {
	return CompileWithConfig(pattern, flags, meta.DefaultConfig())
}

// CompileWithConfig compiles a pattern with custom flags and limits.
//
// Example:
//
//	config := derivre.DefaultConfig()
//	config.MaxStates = 100000
//	re, err := derivre.CompileWithConfig(`(a|b|c)*abc`, 0, config)
func CompileWithConfig(pattern string, flags syntax.Flags, config meta.Config) (*Regex, error) {
	engine, err := meta.Compile(pattern, flags, config)
	if err != nil {
		return nil, err
	}
	return &Regex{
		engine:  engine,
		pattern: pattern,
	}, nil
}

// MustCompile compiles a regular expression pattern and panics if it fails.
//
// Example:
//
//	var emailRegex = derivre.MustCompile(`[a-z]+@[a-z]+\.[a-z]+`)
func MustCompile(pattern string) *Regex {
	return MustCompileWithFlags(pattern, 0)
}

// MustCompileWithFlags is like CompileWithFlags but panics on error.
func MustCompileWithFlags(pattern string, flags syntax.Flags) *Regex {
	re, err := CompileWithFlags(pattern, flags)
	if err != nil {
		panic("regexp: Compile(" + quote(pattern) + "): " + err.Error())
	}
	return re
}

func quote(s string) string {
	if strconv.CanBackquote(s) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}

// DefaultConfig returns the default configuration for compilation.
func DefaultConfig() meta.Config {
	return meta.DefaultConfig()
}

// QuoteMeta returns a string that escapes all regular expression
// metacharacters inside the argument text, including the & and ~ operators
// of BooleanOps; the returned string is a regular expression matching the
// literal text.
//
// Example:
//
//	escaped := derivre.QuoteMeta("hello.world")
//	// escaped = "hello\\.world"
func QuoteMeta(s string) string {
	const special = `\.+*?()|[]{}^$&~`

	n := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, len(s)+n)
	j := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			buf[j] = '\\'
			j++
		}
		buf[j] = s[i]
		j++
	}
	return string(buf)
}

// String returns the source text used to compile the regular expression.
func (r *Regex) String() string {
	return r.pattern
}

// Flags returns the flags the expression was compiled with.
func (r *Regex) Flags() syntax.Flags {
	return r.engine.Flags()
}

// Strategy returns the start strategy chosen for the expression.
func (r *Regex) Strategy() meta.Strategy {
	return r.engine.Strategy()
}

// Stats returns search statistics of the expression.
func (r *Regex) Stats() meta.Stats {
	return r.engine.Stats()
}

// NumSubexp returns the number of parenthesized subexpressions in this
// Regex, not counting the match as a whole. This matches stdlib
// regexp.Regexp.NumSubexp.
func (r *Regex) NumSubexp() int {
	return r.engine.NumCaptures() - 1
}

// SubexpNames returns the names of the parenthesized subexpressions in this
// Regex. names[0] is always the empty string. The slice returned is shared
// and must not be modified.
//
// Example:
//
//	re := derivre.MustCompile(`(?P<year>\d+)-(?P<month>\d+)`)
//	names := re.SubexpNames()
//	// names[1] = "year"
//	// names[2] = "month"
func (r *Regex) SubexpNames() []string {
	return r.engine.SubexpNames()
}

// SubexpIndex returns the index of the first subexpression with the given
// name, or -1 if there is no subexpression with that name.
func (r *Regex) SubexpIndex(name string) int {
	if name != "" {
		for i, s := range r.engine.SubexpNames() {
			if name == s {
				return i
			}
		}
	}
	return -1
}

// Match reports whether b contains any match of the pattern.
func (r *Regex) Match(b []byte) bool {
	return r.engine.IsMatch(string(b))
}

// MatchString reports whether s contains any match of the pattern.
func (r *Regex) MatchString(s string) bool {
	return r.engine.IsMatch(s)
}

// FindString returns the text of the leftmost match in s. It returns "" if
// there is no match, or if the match is empty; use FindStringIndex to tell
// the two apart.
//
// Example:
//
//	re := derivre.MustCompile(`\d+`)
//	println(re.FindString("age: 42")) // "42"
func (r *Regex) FindString(s string) string {
	return r.engine.Find(s, 0).Value()
}

// FindStringIndex returns the [start, end) bounds of the leftmost match in
// s, or nil if there is none.
func (r *Regex) FindStringIndex(s string) []int {
	m := r.engine.Find(s, 0)
	if !m.Success() {
		return nil
	}
	return []int{m.Start(), m.End()}
}

// FindStringSubmatch returns the text of the leftmost match and of every
// capture group. Groups that did not participate are "". It returns nil if
// there is no match.
//
// Example:
//
//	re := derivre.MustCompile(`(\w+)@(\w+)\.(\w+)`)
//	match := re.FindStringSubmatch("user@example.com")
//	// match[0] = "user@example.com"
//	// match[1] = "user"
func (r *Regex) FindStringSubmatch(s string) []string {
	return submatches(r.engine.Find(s, 0))
}

// FindStringSubmatchIndex returns index pairs for the leftmost match and
// its capture groups. Groups that did not participate have -1 indices.
func (r *Regex) FindStringSubmatchIndex(s string) []int {
	return r.engine.Find(s, 0).Index()
}

func submatches(m *nfa.Match) []string {
	if !m.Success() {
		return nil
	}
	groups := make([]string, m.NumGroups())
	for i := range groups {
		groups[i] = m.GroupString(i)
	}
	return groups
}

// allMatches calls deliver for each successive non-overlapping match in s,
// at most n times if n >= 0. As in stdlib regexp, an empty match
// immediately after the previous match is skipped.
func (r *Regex) allMatches(s string, n int, deliver func(*nfa.Match)) {
	if n < 0 {
		n = len(s) + 1
	}
	pos, prevMatchEnd := 0, -1
	for i := 0; i < n && pos <= len(s); {
		m := r.engine.Find(s, pos)
		if !m.Success() {
			break
		}

		accept := true
		if m.End() == pos {
			// Empty match at pos: step over one codepoint.
			if m.Start() == prevMatchEnd {
				accept = false
			}
			if pos < len(s) {
				_, width := utf8.DecodeRuneInString(s[pos:])
				pos += width
			} else {
				pos++
			}
		} else {
			pos = m.End()
		}
		prevMatchEnd = m.End()

		if accept {
			deliver(m)
			i++
		}
	}
}

// FindAllString returns a slice of all successive matches of the pattern in
// s. If n >= 0, it returns at most n matches; n < 0 returns all matches.
//
// Example:
//
//	re := derivre.MustCompile(`\d+`)
//	matches := re.FindAllString("1 2 3", -1)
//	// matches = ["1", "2", "3"]
func (r *Regex) FindAllString(s string, n int) []string {
	var result []string
	r.allMatches(s, n, func(m *nfa.Match) {
		result = append(result, m.Value())
	})
	return result
}

// FindAllStringIndex returns the [start, end) bounds of all successive
// matches of the pattern in s.
func (r *Regex) FindAllStringIndex(s string, n int) [][]int {
	var result [][]int
	r.allMatches(s, n, func(m *nfa.Match) {
		result = append(result, []int{m.Start(), m.End()})
	})
	return result
}

// FindAllStringSubmatch returns, for each successive match, the text of the
// match and of its capture groups.
//
// Example:
//
//	re := derivre.MustCompile(`(\w+)@(\w+)\.(\w+)`)
//	matches := re.FindAllStringSubmatch("a@b.c x@y.z", -1)
//	// matches[0] = ["a@b.c", "a", "b", "c"]
//	// matches[1] = ["x@y.z", "x", "y", "z"]
func (r *Regex) FindAllStringSubmatch(s string, n int) [][]string {
	var result [][]string
	r.allMatches(s, n, func(m *nfa.Match) {
		result = append(result, submatches(m))
	})
	return result
}

// FindAllStringSubmatchIndex returns, for each successive match, the index
// pairs of the match and its capture groups.
func (r *Regex) FindAllStringSubmatchIndex(s string, n int) [][]int {
	var result [][]int
	r.allMatches(s, n, func(m *nfa.Match) {
		result = append(result, m.Index())
	})
	return result
}

// CountString returns the number of non-overlapping matches in s, counting
// at most n if n >= 0.
func (r *Regex) CountString(s string, n int) int {
	count := 0
	r.allMatches(s, n, func(*nfa.Match) {
		count++
	})
	return count
}

// ReplaceAllString returns a copy of src, replacing matches of the pattern
// with the replacement string repl. Inside repl, $ signs are interpreted as
// in Expand: $1 or ${1} is the first group, $name or ${name} is a named
// group, $$ is a literal $.
//
// Example:
//
//	re := derivre.MustCompile(`(\w+)@(\w+)\.(\w+)`)
//	result := re.ReplaceAllString("user@example.com", "$1 at ${2} dot $3")
//	// result = "user at example dot com"
func (r *Regex) ReplaceAllString(src, repl string) string {
	if strings.IndexByte(repl, '$') < 0 {
		return r.ReplaceAllLiteralString(src, repl)
	}
	return r.replaceAll(src, func(dst []byte, m *nfa.Match) []byte {
		return r.expand(dst, repl, src, m.Index())
	})
}

// ReplaceAllLiteralString returns a copy of src, replacing matches of the
// pattern with repl, which is substituted directly.
func (r *Regex) ReplaceAllLiteralString(src, repl string) string {
	return r.replaceAll(src, func(dst []byte, _ *nfa.Match) []byte {
		return append(dst, repl...)
	})
}

// ReplaceAllStringFunc returns a copy of src in which all matches of the
// pattern have been replaced by the return value of repl applied to the
// matched text. The replacement is substituted directly.
//
// Example:
//
//	re := derivre.MustCompile(`\d+`)
//	result := re.ReplaceAllStringFunc("1 2 3", func(s string) string {
//	    n, _ := strconv.Atoi(s)
//	    return strconv.Itoa(n * 2)
//	})
//	// result = "2 4 6"
func (r *Regex) ReplaceAllStringFunc(src string, repl func(string) string) string {
	return r.replaceAll(src, func(dst []byte, m *nfa.Match) []byte {
		return append(dst, repl(m.Value())...)
	})
}

func (r *Regex) replaceAll(src string, repl func(dst []byte, m *nfa.Match) []byte) string {
	var buf []byte
	lastEnd, replaced := 0, false
	r.allMatches(src, -1, func(m *nfa.Match) {
		buf = append(buf, src[lastEnd:m.Start()]...)
		buf = repl(buf, m)
		lastEnd = m.End()
		replaced = true
	})
	if !replaced {
		return src
	}
	buf = append(buf, src[lastEnd:]...)
	return string(buf)
}

// ExpandString appends template to dst with $ variables replaced by the
// groups of match, a slice of index pairs as returned by FindStringSubmatchIndex.
func (r *Regex) ExpandString(dst []byte, template string, src string, match []int) []byte {
	return r.expand(dst, template, src, match)
}

func (r *Regex) expand(dst []byte, template string, src string, match []int) []byte {
	for len(template) > 0 {
		i := strings.IndexByte(template, '$')
		if i < 0 {
			break
		}
		dst = append(dst, template[:i]...)
		template = template[i:]
		if len(template) > 1 && template[1] == '$' {
			dst = append(dst, '$')
			template = template[2:]
			continue
		}
		name, num, rest, ok := extract(template)
		if !ok {
			// Malformed; treat $ as raw text.
			dst = append(dst, '$')
			template = template[1:]
			continue
		}
		template = rest
		if num < 0 {
			num = r.SubexpIndex(name)
		}
		if num >= 0 && 2*num+1 < len(match) && match[2*num] >= 0 {
			dst = append(dst, src[match[2*num]:match[2*num+1]]...)
		}
	}
	return append(dst, template...)
}

// extract returns the name from a leading "$name" or "${name}" in str. A
// name made only of digits is returned as num; otherwise num is -1.
func extract(str string) (name string, num int, rest string, ok bool) {
	if len(str) < 2 || str[0] != '$' {
		return
	}
	brace := false
	if str[1] == '{' {
		brace = true
		str = str[2:]
	} else {
		str = str[1:]
	}
	i := 0
	for i < len(str) {
		r, size := utf8.DecodeRuneInString(str[i:])
		if !syntax.IsWordCharASCII(r) {
			break
		}
		i += size
	}
	if i == 0 {
		return
	}
	name = str[:i]
	if brace {
		if i >= len(str) || str[i] != '}' {
			return
		}
		i++
	}

	num = -1
	if n, err := strconv.Atoi(name); err == nil && n >= 0 && name[0] != '+' {
		num = n
	}
	return name, num, str[i:], true
}

// Split slices s into substrings separated by the expression and returns a
// slice of the substrings between those expression matches.
//
// The count determines the number of substrings to return:
//
//	n > 0: at most n substrings; the last substring will be the unsplit remainder.
//	n == 0: the result is nil (zero substrings)
//	n < 0: all substrings
//
// Example:
//
//	re := derivre.MustCompile(`,`)
//	parts := re.Split("a,b,c", 2)
//	// parts = ["a", "b,c"]
func (r *Regex) Split(s string, n int) []string {
	if n == 0 {
		return nil
	}
	if r.pattern != "" && len(s) == 0 {
		return []string{""}
	}

	matches := r.FindAllStringIndex(s, n)
	strs := make([]string, 0, len(matches)+1)

	beg, end := 0, 0
	for _, match := range matches {
		if n > 0 && len(strs) == n-1 {
			break
		}
		end = match[0]
		if match[1] != 0 {
			strs = append(strs, s[beg:end])
		}
		beg = match[1]
	}
	if end != len(s) {
		strs = append(strs, s[beg:])
	}
	return strs
}
