package ast

// Info summarizes the facts about a pattern that the automaton builder and
// the matcher need to size their state.
type Info struct {
	// NumCaptures counts capture groups, group 0 (the whole match) included.
	NumCaptures int
	// Names holds the capture name of each group, "" for unnamed groups.
	Names []string
	// NumAtomics counts atomic groups.
	NumAtomics int
	// Levels is the number of loop counters.
	Levels int
	// Anchored is set when every match must begin at the search start.
	Anchored bool
	// HasBackrefs is set when a backreference occurs in the pattern.
	HasBackrefs bool
}

// Annotate computes the Info of root. The result is cached, so repeated
// calls return the same value.
func (c *Context) Annotate(root *Node) *Info {
	if info, ok := c.info[root]; ok {
		return info
	}
	info := &Info{
		NumCaptures: 1,
		Levels:      root.levels,
		HasBackrefs: root.HasBackrefs(),
		Anchored:    anchoredStart(root),
	}
	names := map[int]string{}
	seen := make(map[*Node]bool)
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		switch n.kind {
		case KindCapture:
			info.NumCaptures = max(info.NumCaptures, n.index+1)
			if n.name != "" {
				names[n.index] = n.name
			}
		case KindAtomic:
			info.NumAtomics = max(info.NumAtomics, n.index+1)
		case KindBackref, KindCond:
			// References to groups that never appear still need a slot.
			info.NumCaptures = max(info.NumCaptures, n.index+1)
		}
		stack = append(stack, n.left, n.right)
	}
	info.Names = make([]string, info.NumCaptures)
	for i, name := range names {
		info.Names[i] = name
	}
	c.info[root] = info
	return info
}

// anchoredStart reports whether every match of n must begin with \A or \G.
func anchoredStart(n *Node) bool {
	switch n.kind {
	case KindAssert:
		return n.Op() == AssertBeginText || n.Op() == AssertStartPos
	case KindSeq:
		if anchoredStart(n.left) {
			return true
		}
		// Captures and atomic groups open without consuming.
		return n.left.kind == KindCaptureOpen && anchoredStart(n.right)
	case KindAlt:
		return anchoredStart(n.left) && anchoredStart(n.right)
	case KindCapture, KindAtomic:
		return anchoredStart(n.left)
	case KindLoop:
		return n.min > 0 && anchoredStart(n.left)
	case KindTestAnd:
		return anchoredStart(n.left) || anchoredStart(n.right)
	}
	return false
}
