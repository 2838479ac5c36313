// Package cptable provides a compact map from Unicode codepoints to small
// integer values.
//
// The table is a three-level trie split on codepoint bits:
//
//	level 1: r >> 12         (272 entries, covers U+0000..U+10FFFF)
//	level 2: (r >> 6) & 0x3F (64 entries per block)
//	level 3: r & 0x3F        (64 values per leaf)
//
// Blocks that were never written share a single all-zero block at each
// level, so a table holding a handful of entries costs a few hundred bytes
// regardless of how far apart the codepoints are.
package cptable

import "unicode"

const (
	leafBits  = 6
	blockBits = 6
	leafSize  = 1 << leafBits
	blockSize = 1 << blockBits
	rootSize  = (unicode.MaxRune >> (leafBits + blockBits)) + 1
)

// Table maps codepoints to int32 values. The zero value of an entry is 0;
// Get returns 0 for every codepoint that was never Set.
//
// A Table is safe for concurrent reads once construction is finished.
type Table struct {
	root   [rootSize]uint16
	blocks [][blockSize]uint16
	leaves [][leafSize]int32
}

// New returns an empty table.
func New() *Table {
	t := &Table{}
	// Index 0 at both levels is the shared zero block.
	t.blocks = make([][blockSize]uint16, 1, 4)
	t.leaves = make([][leafSize]int32, 1, 4)
	return t
}

// Get returns the value stored for r, or 0.
func (t *Table) Get(r rune) int32 {
	if r < 0 || r > unicode.MaxRune {
		return 0
	}
	b := t.root[r>>(leafBits+blockBits)]
	l := t.blocks[b][(r>>leafBits)&(blockSize-1)]
	return t.leaves[l][r&(leafSize-1)]
}

// Set stores v for r. Codepoints outside the Unicode range are ignored.
func (t *Table) Set(r rune, v int32) {
	if r < 0 || r > unicode.MaxRune {
		return
	}
	hi := r >> (leafBits + blockBits)
	b := t.root[hi]
	if b == 0 {
		t.blocks = append(t.blocks, [blockSize]uint16{})
		b = uint16(len(t.blocks) - 1)
		t.root[hi] = b
	}
	mid := (r >> leafBits) & (blockSize - 1)
	l := t.blocks[b][mid]
	if l == 0 {
		t.leaves = append(t.leaves, [leafSize]int32{})
		l = uint16(len(t.leaves) - 1)
		t.blocks[b][mid] = l
	}
	t.leaves[l][r&(leafSize-1)] = v
}

// HeapBytes returns the approximate memory held by the table.
func (t *Table) HeapBytes() int {
	return rootSize*2 + len(t.blocks)*blockSize*2 + len(t.leaves)*leafSize*4
}
