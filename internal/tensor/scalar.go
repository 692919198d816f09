package tensor

import "fmt"

// ScalarKind tags the active field of a Scalar.
type ScalarKind int

// Scalar kinds.
const (
	ScalarFloat64 ScalarKind = iota
	ScalarInt64
	ScalarBool
)

// String returns the kind name.
func (k ScalarKind) String() string {
	switch k {
	case ScalarFloat64:
		return "float64"
	case ScalarInt64:
		return "int64"
	case ScalarBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Scalar is a tagged single value read back from an array.
//
// Int64 covers every integer dtype exactly except uint64 values above
// math.MaxInt64, which wrap to negative numbers.
type Scalar struct {
	kind ScalarKind
	f    float64
	i    int64
}

// FloatScalar returns a Float64-tagged scalar.
func FloatScalar(v float64) Scalar {
	return Scalar{kind: ScalarFloat64, f: v}
}

// IntScalar returns an Int64-tagged scalar.
func IntScalar(v int64) Scalar {
	return Scalar{kind: ScalarInt64, i: v}
}

// BoolScalar returns a Bool-tagged scalar stored as 0 or 1.
func BoolScalar(v bool) Scalar {
	s := Scalar{kind: ScalarBool}
	if v {
		s.i = 1
	}
	return s
}

// Kind returns the scalar's tag.
func (s Scalar) Kind() ScalarKind {
	return s.kind
}

// Float64 returns the value as float64, converting integer kinds.
func (s Scalar) Float64() float64 {
	if s.kind == ScalarFloat64 {
		return s.f
	}
	return float64(s.i)
}

// Int64 returns the value as int64, truncating floats toward zero.
func (s Scalar) Int64() int64 {
	if s.kind == ScalarFloat64 {
		return int64(s.f)
	}
	return s.i
}

// Bool reports whether the value is non-zero.
func (s Scalar) Bool() bool {
	if s.kind == ScalarFloat64 {
		return s.f != 0
	}
	return s.i != 0
}

// String formats the value with its kind.
func (s Scalar) String() string {
	switch s.kind {
	case ScalarFloat64:
		return fmt.Sprintf("%g (float64)", s.f)
	case ScalarBool:
		return fmt.Sprintf("%t (bool)", s.i != 0)
	default:
		return fmt.Sprintf("%d (int64)", s.i)
	}
}
