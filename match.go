package derivre

import (
	"sync"

	"github.com/golang/glog"

	"github.com/coregx/derivre/meta"
	"github.com/coregx/derivre/nfa"
)

// Match is the result of one search. It stays valid after further searches
// and may be passed between goroutines.
//
// Example:
//
//	re := derivre.MustCompile(`(\w)(\d)`)
//	for m := re.FindMatch("a1 b2 c3", 0); m.Success(); m = m.Next() {
//	    fmt.Println(m.Value(), m.GroupString(2))
//	}
type Match struct {
	re *Regex
	m  *nfa.Match
}

// FindMatch returns the leftmost match in text at or after start. The
// result reports Success() == false when there is none.
//
// Anchors keep their meaning relative to text: ^ and \A still match only at
// offset 0, while \G matches at start.
//
// FindMatch panics if start is outside [0, len(text)].
func (r *Regex) FindMatch(text string, start int) *Match {
	return &Match{re: r, m: r.engine.Find(text, start)}
}

// MatchAt returns a match that begins exactly at start, if one exists.
func (r *Regex) MatchAt(text string, start int) *Match {
	return &Match{re: r, m: r.engine.FindAnchored(text, start)}
}

// Next returns the next match after m. An empty match is followed by a
// search one codepoint further on. Calling Next on a failed match panics.
func (m *Match) Next() *Match {
	return &Match{re: m.re, m: m.re.engine.FindNext(m.m)}
}

// Success reports whether the search found a match.
func (m *Match) Success() bool { return m.m.Success() }

// Start returns the byte offset of the match, or -1.
func (m *Match) Start() int { return m.m.Start() }

// End returns the byte offset just past the match, or -1.
func (m *Match) End() int { return m.m.End() }

// Value returns the matched text.
func (m *Match) Value() string { return m.m.Value() }

// NumGroups returns the number of groups, the whole match included.
func (m *Match) NumGroups() int { return m.m.NumGroups() }

// Group returns the bounds of group i, or (-1, -1) if it did not
// participate.
func (m *Match) Group(i int) (start, end int) { return m.m.Group(i) }

// GroupString returns the text of group i.
func (m *Match) GroupString(i int) string { return m.m.GroupString(i) }

// NamedGroup returns the text of the group called name, and whether such a
// group participated in the match.
func (m *Match) NamedGroup(name string) (string, bool) {
	i := m.re.SubexpIndex(name)
	if i < 0 {
		return "", false
	}
	if start, _ := m.m.Group(i); start < 0 {
		return "", false
	}
	return m.m.GroupString(i), true
}

// Index returns the bounds of every group as pairs, in the layout of
// FindStringSubmatchIndex, or nil for a failed match.
func (m *Match) Index() []int { return m.m.Index() }

// String returns a human-readable representation of the match.
func (m *Match) String() string { return m.m.String() }

var (
	cacheOnce sync.Once
	cache     *meta.Cache
)

func sharedCache() *meta.Cache {
	cacheOnce.Do(func() {
		var err error
		cache, err = meta.NewCache(meta.DefaultConfig())
		if err != nil {
			glog.Fatalf("derivre: default engine cache: %v", err)
		}
	})
	return cache
}

// MatchString reports whether s contains any match of pattern. Compiled
// patterns are kept in a shared cache, so repeated calls with the same
// pattern compile it once.
func MatchString(pattern string, s string) (matched bool, err error) {
	engine, err := sharedCache().Get(pattern, 0)
	if err != nil {
		return false, err
	}
	return engine.IsMatch(s), nil
}
