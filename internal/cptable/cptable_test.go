package cptable

import (
	"testing"
	"unicode"
)

func TestGetSet(t *testing.T) {
	tab := New()
	entries := map[rune]int32{
		0:               1,
		'a':             7,
		'z':             -3,
		'é':        12,
		'世':        40,
		0x1F600:         99,
		unicode.MaxRune: 5,
	}
	for r, v := range entries {
		tab.Set(r, v)
	}
	for r, v := range entries {
		if got := tab.Get(r); got != v {
			t.Errorf("Get(%U) = %d, want %d", r, got, v)
		}
	}
	for _, r := range []rune{'b', 'ê', '丗', 0x1F601, 0x10000} {
		if got := tab.Get(r); got != 0 {
			t.Errorf("Get(%U) = %d, want 0 for unset entry", r, got)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	tab := New()
	tab.Set(-1, 4)
	tab.Set(unicode.MaxRune+1, 4)
	if tab.Get(-1) != 0 || tab.Get(unicode.MaxRune+1) != 0 {
		t.Error("out-of-range codepoints must read as 0")
	}
}

func TestSharedZeroBlocks(t *testing.T) {
	tab := New()
	before := tab.HeapBytes()
	tab.Set('a', 1)
	tab.Set('b', 2) // same leaf
	afterSameLeaf := tab.HeapBytes()
	if afterSameLeaf-before != blockSize*2+leafSize*4 {
		t.Errorf("first write grew by %d bytes", afterSameLeaf-before)
	}
	tab.Set(0x10FF00, 3)
	if tab.HeapBytes() <= afterSameLeaf {
		t.Error("write to a distant block must allocate")
	}
	// Overwrite reuses storage.
	grown := tab.HeapBytes()
	tab.Set('a', 9)
	if tab.HeapBytes() != grown {
		t.Error("overwriting an entry must not allocate")
	}
	if tab.Get('a') != 9 {
		t.Errorf("Get('a') = %d after overwrite", tab.Get('a'))
	}
}
