package sparse

import (
	"slices"
	"testing"
)

func TestSetAdd(t *testing.T) {
	s := NewSet(8)
	for _, v := range []uint32{3, 1, 3, 7, 1} {
		s.Add(v)
	}
	if got, want := s.Values(), []uint32{3, 1, 7}; !slices.Equal(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if s.Add(3) {
		t.Error("Add(3) reported a new value")
	}
	if !s.Add(0) {
		t.Error("Add(0) reported a duplicate")
	}
}

func TestSetHas(t *testing.T) {
	s := NewSet(4)
	s.Add(2)
	tests := []struct {
		v    uint32
		want bool
	}{
		{0, false},
		{2, true},
		{3, false},
		{100, false},
	}
	for _, tt := range tests {
		if got := s.Has(tt.v); got != tt.want {
			t.Errorf("Has(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestSetGrow(t *testing.T) {
	s := NewSet(0)
	if !s.Add(50) {
		t.Fatal("Add(50) on empty set reported a duplicate")
	}
	if !s.Has(50) || s.Has(49) {
		t.Errorf("membership wrong after growth: Has(50)=%v Has(49)=%v", s.Has(50), s.Has(49))
	}
}

func TestSetReset(t *testing.T) {
	s := NewSet(4)
	s.Add(1)
	s.Add(2)
	s.Reset()
	if s.Len() != 0 || s.Has(1) || s.Has(2) {
		t.Fatalf("set not empty after Reset: %v", s.Values())
	}
	if !s.Add(1) {
		t.Error("Add(1) after Reset reported a duplicate")
	}
}

func TestSetGenerationWrap(t *testing.T) {
	s := NewSet(2)
	s.Add(0)
	s.gen = ^uint32(0)
	s.stamp[1] = s.gen
	s.Reset()
	if s.gen != 1 {
		t.Fatalf("gen = %d after wrap, want 1", s.gen)
	}
	if s.Has(0) || s.Has(1) {
		t.Error("stale values visible after generation wrap")
	}
}
