// Package convert provides safe integer conversions.
package convert

import (
	"fmt"
	"math"
)

// IntToUint converts an int to uint, returning an error if negative.
func IntToUint(v int) (uint, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer underflow: %d cannot be converted to uint", v)
	}
	return uint(v), nil
}

// IntToUintClamped converts an int to uint, mapping negatives to 0.
func IntToUintClamped(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}

// IntToUint32Clamped converts an int to uint32, clamping to [0, MaxUint32].
func IntToUint32Clamped(v int) uint32 {
	if v < 0 {
		return 0
	}
	if uint64(v) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
