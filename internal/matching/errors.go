// Package matching scores pairs of community profiles and selects top matches from a candidate pool.
package matching

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when two embedding vectors differ in length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DimensionMismatchError carries the lengths of the mismatched vectors
type DimensionMismatchError struct {
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d != %d", ErrDimensionMismatch, e.Left, e.Right)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
