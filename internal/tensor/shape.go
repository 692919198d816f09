package tensor

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of an array.
type Shape []int

// NumElements returns the total number of elements in the array.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions >= 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return errors.Wrapf(ErrLayout, "invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// String formats the shape as (d0, d1, ...).
func (s Shape) String() string {
	out := "("
	for i, d := range s {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(d)
	}
	if len(s) == 1 {
		out += ","
	}
	return out + ")"
}

// ComputeStrides calculates row-major strides for the shape, in elements.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// IsContiguous reports whether strides are exactly the row-major strides of shape.
// Arrays without elements are always contiguous.
func IsContiguous(shape Shape, strides []int) bool {
	if len(shape) != len(strides) {
		return false
	}
	if shape.NumElements() == 0 {
		return true
	}
	expected := 1
	for i := len(shape) - 1; i >= 0; i-- {
		if strides[i] != expected {
			return false
		}
		expected *= shape[i]
	}
	return true
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Rules:
// 1. Compare shapes element-wise from right to left
// 2. Dimensions are compatible if:
//   - They are equal, OR
//   - One of them is 1
//
// 3. Missing dimensions are treated as 1
//
// Returns the broadcasted shape, a flag indicating if broadcasting is needed, and an error if incompatible.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := false

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, errors.Wrapf(ErrShapeMismatch,
				"shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, maxLen-1-i, aDim, bDim)
		}
	}

	return result, needsBroadcast, nil
}

// BroadcastStrides returns strides that read an array of shape/strides as if it
// had shape out. Broadcast dimensions get stride 0.
func BroadcastStrides(shape Shape, strides []int, out Shape) ([]int, error) {
	full, _, err := BroadcastShapes(shape, out)
	if err != nil {
		return nil, err
	}
	if !full.Equal(out) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v to %v", shape, out)
	}
	result := make([]int, len(out))
	offset := len(out) - len(shape)
	for i := range shape {
		if shape[i] != 1 || out[offset+i] == 1 {
			result[offset+i] = strides[i]
		}
	}
	return result, nil
}

// Cursor walks the positions of a shape in row-major order while tracking the
// element offsets of two layouts over that shape.
type Cursor struct {
	shape    Shape
	idx      []int
	aStrides []int
	bStrides []int
	a, b     int
}

// NewCursor creates a cursor positioned at row-major index start.
// A nil stride slice yields a constant offset for that side.
func NewCursor(shape Shape, aBase int, aStrides []int, bBase int, bStrides []int, start int) *Cursor {
	c := &Cursor{
		shape:    shape,
		idx:      make([]int, len(shape)),
		aStrides: aStrides,
		bStrides: bStrides,
		a:        aBase,
		b:        bBase,
	}
	rem := start
	for d := len(shape) - 1; d >= 0 && rem > 0; d-- {
		i := rem % shape[d]
		rem /= shape[d]
		c.idx[d] = i
		c.a += i * c.stride(c.aStrides, d)
		c.b += i * c.stride(c.bStrides, d)
	}
	return c
}

func (c *Cursor) stride(s []int, d int) int {
	if s == nil {
		return 0
	}
	return s[d]
}

// Offsets returns the current element offsets of both layouts.
func (c *Cursor) Offsets() (int, int) {
	return c.a, c.b
}

// Next advances to the following row-major position.
func (c *Cursor) Next() {
	for d := len(c.shape) - 1; d >= 0; d-- {
		c.idx[d]++
		c.a += c.stride(c.aStrides, d)
		c.b += c.stride(c.bStrides, d)
		if c.idx[d] < c.shape[d] {
			return
		}
		c.a -= c.idx[d] * c.stride(c.aStrides, d)
		c.b -= c.idx[d] * c.stride(c.bStrides, d)
		c.idx[d] = 0
	}
}

// Span returns the lowest and highest element offsets touched by a layout.
// ok is false when the shape has no elements.
func Span(shape Shape, strides []int, offset int) (lo, hi int, ok bool) {
	if shape.NumElements() == 0 {
		return 0, 0, false
	}
	lo, hi = offset, offset
	for d, n := range shape {
		step := (n - 1) * strides[d]
		if step < 0 {
			lo += step
		} else {
			hi += step
		}
	}
	return lo, hi, true
}

// MayOverlap reports whether a layout can map two positions of shape onto
// the same element. Dimensions are visited by increasing |stride|; each must
// step past everything the smaller ones reach. A true result may be
// conservative, a false one is exact.
func MayOverlap(shape Shape, strides []int) bool {
	if shape.NumElements() <= 1 {
		return false
	}
	dims := make([]int, 0, len(shape))
	for d, n := range shape {
		if n > 1 {
			dims = append(dims, d)
		}
	}
	slices.SortFunc(dims, func(a, b int) int {
		return abs(strides[a]) - abs(strides[b])
	})
	reach := 1
	for _, d := range dims {
		step := abs(strides[d])
		if step < reach {
			return true
		}
		reach += step * (shape[d] - 1)
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CheckBounds verifies that a layout of elemSize-byte elements fits in a
// buffer of nbytes.
func CheckBounds(shape Shape, strides []int, offset, elemSize, nbytes int) error {
	if len(strides) != len(shape) {
		return errors.Wrapf(ErrLayout, "%d strides for %d dimensions", len(strides), len(shape))
	}
	lo, hi, ok := Span(shape, strides, offset)
	if !ok {
		return nil
	}
	if lo < 0 || (hi+1)*elemSize > nbytes {
		return errors.Wrapf(ErrLayout, "layout %v strides %v offset %d spans elements [%d, %d] of a %d-byte buffer",
			shape, strides, offset, lo, hi, nbytes)
	}
	return nil
}
