package tensor

import (
	"math"
	"testing"
)

func TestAccessorReadsSignedAndUnsigned(t *testing.T) {
	i8 := NewAccessor([]byte{0xff}, Int8)
	u8 := NewAccessor([]byte{0xff}, Uint8)
	if i8.Int64(0) != -1 || i8.Float64(0) != -1 {
		t.Errorf("int8 0xff = %d / %v, want -1", i8.Int64(0), i8.Float64(0))
	}
	if u8.Int64(0) != 255 || u8.Float64(0) != 255 {
		t.Errorf("uint8 0xff = %d / %v, want 255", u8.Int64(0), u8.Float64(0))
	}
}

func TestConvertElement(t *testing.T) {
	tests := []struct {
		name string
		src  *RawTensor
		dst  DataType
		want float64
	}{
		{"float to int truncates", must(FromSlice([]float32{-2.7}, Shape{1})), Int32, -2},
		{"narrowing wraps", must(FromSlice([]int64{300}, Shape{1})), Uint8, 44},
		{"sign extends", must(FromSlice([]int8{-1}, Shape{1})), Int64, -1},
		{"zero extends", must(FromSlice([]uint32{math.MaxUint32}, Shape{1})), Int64, math.MaxUint32},
		{"int to float", must(FromSlice([]int16{-7}, Shape{1})), Float64, -7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewAccessor(make([]byte, 8), tt.dst)
			ConvertElement(dst, 0, tt.src.Accessor(), 0)
			if got := dst.Float64(0); got != tt.want {
				t.Errorf("converted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertElementKeepsInt64Precision(t *testing.T) {
	src := must(FromSlice([]int64{math.MaxInt64 - 1}, Shape{1}))
	dst := NewAccessor(make([]byte, 8), Uint64)
	ConvertElement(dst, 0, src.Accessor(), 0)
	if dst.Int64(0) != math.MaxInt64-1 {
		t.Errorf("int64 -> uint64 = %d, want %d", dst.Int64(0), int64(math.MaxInt64-1))
	}
}

func TestSetFloat64Uint64Range(t *testing.T) {
	acc := NewAccessor(make([]byte, 8), Uint64)
	acc.SetFloat64(0, 1e19)
	if got := uint64(acc.Int64(0)); got != 10000000000000000000 {
		t.Errorf("uint64 element = %d, want 1e19", got)
	}
}

func TestNonZeroIsBitwise(t *testing.T) {
	vals := must(FromSlice([]float32{0, float32(math.Copysign(0, -1)), float32(math.NaN()), 1}, Shape{4}))
	acc := vals.Accessor()
	want := []bool{false, true, true, true}
	for i, w := range want {
		if acc.NonZero(i) != w {
			t.Errorf("NonZero(%d) = %v, want %v", i, acc.NonZero(i), w)
		}
	}
}

func TestAccessorScalar(t *testing.T) {
	f := must(FromSlice([]float32{1.5}, Shape{1}))
	s, err := f.Accessor().Scalar(0)
	if err != nil || s.Kind() != ScalarFloat64 || s.Float64() != 1.5 {
		t.Errorf("float32 scalar = %v, %v", s, err)
	}

	u := must(FromSlice([]uint64{math.MaxUint64}, Shape{1}))
	s, err = u.Accessor().Scalar(0)
	if err != nil || s.Kind() != ScalarInt64 || s.Int64() != -1 {
		t.Errorf("uint64 max scalar = %v, %v (wraps to -1)", s, err)
	}
}

func TestScalarConversions(t *testing.T) {
	if s := BoolScalar(true); s.Int64() != 1 || !s.Bool() || s.String() != "true (bool)" {
		t.Errorf("BoolScalar(true) = %v", s)
	}
	if s := FloatScalar(2.5); s.Int64() != 2 || s.String() != "2.5 (float64)" {
		t.Errorf("FloatScalar(2.5) = %v", s)
	}
	if s := IntScalar(-3); s.Float64() != -3 || !s.Bool() || s.String() != "-3 (int64)" {
		t.Errorf("IntScalar(-3) = %v", s)
	}
	if ScalarBool.String() != "bool" {
		t.Errorf("ScalarBool.String() = %q", ScalarBool.String())
	}
}

func must(r *RawTensor, err error) *RawTensor {
	if err != nil {
		panic(err)
	}
	return r
}
