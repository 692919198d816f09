package tensor

import (
	"testing"

	"github.com/pkg/errors"
)

func TestShapeString(t *testing.T) {
	tests := []struct {
		shape Shape
		want  string
	}{
		{Shape{}, "()"},
		{Shape{5}, "(5,)"},
		{Shape{2, 3}, "(2, 3)"},
	}
	for _, tt := range tests {
		if got := tt.shape.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", []int(tt.shape), got, tt.want)
		}
	}
}

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{0}, 0},
		{Shape{2, 0, 3}, 0},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestIsContiguous(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		strides []int
		want    bool
	}{
		{"row-major", Shape{2, 3}, []int{3, 1}, true},
		{"transposed", Shape{2, 3}, []int{1, 2}, false},
		{"scalar", Shape{}, []int{}, true},
		{"empty ignores strides", Shape{0, 3}, []int{7, 7}, true},
		{"unit dimension is strict", Shape{1, 3}, []int{99, 1}, false},
		{"unit dimension", Shape{1, 3}, []int{3, 1}, true},
		{"rank mismatch", Shape{6}, []int{1, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsContiguous(tt.shape, tt.strides); got != tt.want {
				t.Errorf("IsContiguous(%v, %v) = %v, want %v", tt.shape, tt.strides, got, tt.want)
			}
		})
	}
}

func TestBroadcastStrides(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		strides []int
		out     Shape
		want    []int
	}{
		{"column", Shape{2, 1}, []int{1, 1}, Shape{2, 3}, []int{1, 0}},
		{"leading", Shape{3}, []int{1}, Shape{2, 3}, []int{0, 1}},
		{"identity", Shape{2, 3}, []int{1, 2}, Shape{2, 3}, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BroadcastStrides(tt.shape, tt.strides, tt.out)
			if err != nil {
				t.Fatal(err)
			}
			if !Shape(got).Equal(tt.want) {
				t.Errorf("BroadcastStrides = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := BroadcastStrides(Shape{2, 3}, []int{3, 1}, Shape{3}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("narrowing broadcast error = %v, want ErrShapeMismatch", err)
	}
	if _, err := BroadcastStrides(Shape{4}, []int{1}, Shape{2, 3}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("incompatible broadcast error = %v, want ErrShapeMismatch", err)
	}
}

func TestMayOverlap(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		strides []int
		want    bool
	}{
		{"row-major", Shape{2, 3}, []int{3, 1}, false},
		{"transposed", Shape{3, 2}, []int{1, 3}, false},
		{"reversed", Shape{4}, []int{-1}, false},
		{"gapped", Shape{2, 2}, []int{10, 2}, false},
		{"sliding window", Shape{5, 2}, []int{1, 1}, true},
		{"broadcast", Shape{3, 4}, []int{0, 1}, true},
		{"interleaved", Shape{2, 3}, []int{1, 1}, true},
		{"unit dimensions ignored", Shape{1, 4, 1}, []int{0, 1, 0}, false},
		{"single element", Shape{1}, []int{0}, false},
		{"empty", Shape{0, 3}, []int{0, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MayOverlap(tt.shape, tt.strides); got != tt.want {
				t.Errorf("MayOverlap(%v, %v) = %v, want %v", tt.shape, tt.strides, got, tt.want)
			}
		})
	}
}

func TestCursor(t *testing.T) {
	shape := Shape{2, 3}
	c := NewCursor(shape, 0, []int{3, 1}, 0, []int{1, 2}, 0)
	wantA := []int{0, 1, 2, 3, 4, 5}
	wantB := []int{0, 2, 4, 1, 3, 5}
	for i := range shape.NumElements() {
		a, b := c.Offsets()
		if a != wantA[i] || b != wantB[i] {
			t.Fatalf("position %d: offsets (%d, %d), want (%d, %d)", i, a, b, wantA[i], wantB[i])
		}
		c.Next()
	}

	mid := NewCursor(shape, 5, []int{3, 1}, 0, nil, 4)
	if a, b := mid.Offsets(); a != 9 || b != 0 {
		t.Errorf("cursor at 4: offsets (%d, %d), want (9, 0)", a, b)
	}
}

func TestSpanAndCheckBounds(t *testing.T) {
	lo, hi, ok := Span(Shape{2, 3}, []int{3, -1}, 5)
	if !ok || lo != 3 || hi != 8 {
		t.Errorf("Span = (%d, %d, %v), want (3, 8, true)", lo, hi, ok)
	}
	if _, _, ok := Span(Shape{0, 3}, []int{3, 1}, 0); ok {
		t.Error("empty Span should report !ok")
	}

	tests := []struct {
		name    string
		shape   Shape
		strides []int
		offset  int
		nbytes  int
		wantErr bool
	}{
		{"fits", Shape{2, 3}, []int{3, 1}, 0, 24, false},
		{"one element short", Shape{2, 3}, []int{3, 1}, 0, 20, true},
		{"negative reach", Shape{2}, []int{-1}, 0, 8, true},
		{"rank mismatch", Shape{2, 3}, []int{1}, 0, 24, true},
		{"empty anywhere", Shape{0}, []int{1}, 1000, 0, false},
		{"offset fits", Shape{2}, []int{2}, 3, 32, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBounds(tt.shape, tt.strides, tt.offset, 4, tt.nbytes)
			if tt.wantErr != (err != nil) {
				t.Fatalf("CheckBounds error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrLayout) {
				t.Errorf("error kind = %v, want ErrLayout", err)
			}
		})
	}
}
