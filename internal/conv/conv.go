// Package conv holds checked integer narrowing used when slice lengths
// become automaton indexes.
package conv

import "math"

// IntToUint32 converts n to uint32 and panics when it does not fit.
func IntToUint32(n int) uint32 {
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("conv: int value out of uint32 range")
	}
	return uint32(n)
}

// IntToInt32 converts n to int32 and panics when it does not fit.
func IntToInt32(n int) int32 {
	if n < math.MinInt32 || n > math.MaxInt32 {
		panic("conv: int value out of int32 range")
	}
	return int32(n)
}
