package tensor

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Accessor maps element indices of a raw byte buffer onto typed values.
// It is independent of RawTensor so device backends can use it over their
// own memory. Values are stored in the machine's native byte order.
type Accessor struct {
	data  []byte
	dtype DataType
	size  int
}

// NewAccessor creates an accessor reading data as elements of dtype.
// Panics if dtype is not a valid DataType.
func NewAccessor(data []byte, dtype DataType) Accessor {
	return Accessor{data: data, dtype: dtype, size: dtype.Size()}
}

// DType returns the element type.
func (a Accessor) DType() DataType {
	return a.dtype
}

// Len returns the number of whole elements in the buffer.
func (a Accessor) Len() int {
	return len(a.data) / a.size
}

// Bytes returns the raw bytes of element i.
func (a Accessor) Bytes(i int) []byte {
	return a.data[i*a.size : (i+1)*a.size]
}

// Range returns the raw bytes of elements [i, i+n).
func (a Accessor) Range(i, n int) []byte {
	return a.data[i*a.size : (i+n)*a.size]
}

// bits returns element i widened to 64 bits: sign-extended for signed
// integers, zero-extended for unsigned ones, raw IEEE bits for floats.
func (a Accessor) bits(i int) uint64 {
	b := a.Bytes(i)
	switch a.dtype {
	case Int8:
		return uint64(int64(int8(b[0])))
	case Uint8:
		return uint64(b[0])
	case Int16:
		return uint64(int64(int16(binary.NativeEndian.Uint16(b))))
	case Uint16:
		return uint64(binary.NativeEndian.Uint16(b))
	case Int32:
		return uint64(int64(int32(binary.NativeEndian.Uint32(b))))
	case Uint32, Float32:
		return uint64(binary.NativeEndian.Uint32(b))
	default:
		return binary.NativeEndian.Uint64(b)
	}
}

// setBits stores the low bytes of v into element i.
func (a Accessor) setBits(i int, v uint64) {
	b := a.Bytes(i)
	switch a.size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.NativeEndian.PutUint16(b, uint16(v))
	case 4:
		binary.NativeEndian.PutUint32(b, uint32(v))
	default:
		binary.NativeEndian.PutUint64(b, v)
	}
}

// Float64 returns element i converted to float64.
func (a Accessor) Float64(i int) float64 {
	v := a.bits(i)
	switch {
	case a.dtype == Float32:
		return float64(math.Float32frombits(uint32(v)))
	case a.dtype == Float64:
		return math.Float64frombits(v)
	case a.dtype.IsUnsigned():
		return float64(v)
	default:
		return float64(int64(v))
	}
}

// SetFloat64 stores v into element i, converting to the element type.
// Integer targets truncate toward zero and wrap to their width.
func (a Accessor) SetFloat64(i int, v float64) {
	switch {
	case a.dtype == Float32:
		a.setBits(i, uint64(math.Float32bits(float32(v))))
	case a.dtype == Float64:
		a.setBits(i, math.Float64bits(v))
	case a.dtype == Uint64 && v >= 0:
		a.setBits(i, uint64(v))
	default:
		a.setBits(i, uint64(int64(v)))
	}
}

// Int64 returns integer element i as int64. Uint64 values above
// math.MaxInt64 wrap; floats are truncated toward zero.
func (a Accessor) Int64(i int) int64 {
	if a.dtype.IsFloat() {
		return int64(a.Float64(i))
	}
	return int64(a.bits(i))
}

// NonZero reports whether any bit of element i is set. The element is
// treated as an opaque word of its width, so a float -0 counts as non-zero
// where a typed float comparison would report it unset.
func (a Accessor) NonZero(i int) bool {
	for _, b := range a.Bytes(i) {
		if b != 0 {
			return true
		}
	}
	return false
}

// Scalar decodes element i strictly by the accessor's dtype.
// Unsigned 64-bit values above math.MaxInt64 wrap to negative Int64 scalars.
func (a Accessor) Scalar(i int) (Scalar, error) {
	switch a.dtype {
	case Float32, Float64:
		return FloatScalar(a.Float64(i)), nil
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64:
		return IntScalar(int64(a.bits(i))), nil
	default:
		return Scalar{}, errors.Wrapf(ErrNotImplementedDType, "scalar of %s", a.dtype)
	}
}

// ConvertElement stores src element si into dst element di, converting between
// the accessors' data types. Integer-to-integer conversions keep full 64-bit
// precision before truncating to the target width.
func ConvertElement(dst Accessor, di int, src Accessor, si int) {
	switch {
	case dst.dtype == src.dtype:
		copy(dst.Bytes(di), src.Bytes(si))
	case src.dtype.IsFloat() || dst.dtype.IsFloat():
		dst.SetFloat64(di, src.Float64(si))
	default:
		dst.setBits(di, src.bits(si))
	}
}
