// Package tensor provides the array, storage and layout types shared by the
// strider view-and-transfer engine and its device backends.
package tensor

import "github.com/pkg/errors"

// DType is a constraint for the Go element types that map onto a DataType.
type DType interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

// DataType represents runtime type information for arrays.
// The enumeration is closed: every engine path switches over it exhaustively.
type DataType int

// Supported data types. Float32 is the zero value and the allocation default.
const (
	Float32 DataType = iota
	Float64
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64

	numDataTypes
)

var dataTypeNames = [...]string{
	Float32: "float32",
	Float64: "float64",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
}

// Valid reports whether dt belongs to the supported enumeration.
func (dt DataType) Valid() bool {
	return dt >= 0 && dt < numDataTypes
}

// Size returns the byte size of the data type.
// Panics if dt is not a valid DataType.
func (dt DataType) Size() int {
	switch dt {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Float32, Int32, Uint32:
		return 4
	case Float64, Int64, Uint64:
		return 8
	default:
		panic("unknown data type")
	}
}

// IsFloat reports whether dt is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// IsUnsigned reports whether dt is an unsigned integer type.
func (dt DataType) IsUnsigned() bool {
	switch dt {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	if !dt.Valid() {
		return "unknown"
	}
	return dataTypeNames[dt]
}

// ParseDataType parses the name returned by DataType.String.
func ParseDataType(s string) (DataType, error) {
	for dt, name := range dataTypeNames {
		if name == s {
			return DataType(dt), nil
		}
	}
	return 0, errors.Wrapf(ErrNotImplementedDType, "invalid data type %q", s)
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int8:
		return Int8
	case uint8:
		return Uint8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	case int64:
		return Int64
	case uint64:
		return Uint64
	default:
		panic("unsupported type")
	}
}

// DataTypeOf returns the DataType matching the Go type T.
func DataTypeOf[T DType]() DataType {
	return inferDataType[T]()
}
