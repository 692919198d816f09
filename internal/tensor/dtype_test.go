package tensor

import (
	"testing"

	"github.com/pkg/errors"
)

func TestDataTypeSizeAndName(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
		name  string
	}{
		{Float32, 4, "float32"},
		{Float64, 8, "float64"},
		{Int8, 1, "int8"},
		{Uint8, 1, "uint8"},
		{Int16, 2, "int16"},
		{Uint16, 2, "uint16"},
		{Int32, 4, "int32"},
		{Uint32, 4, "uint32"},
		{Int64, 8, "int64"},
		{Uint64, 8, "uint64"},
	}
	for _, tt := range tests {
		if tt.dtype.Size() != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.name, tt.dtype.Size(), tt.size)
		}
		if tt.dtype.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.dtype.String(), tt.name)
		}
		parsed, err := ParseDataType(tt.name)
		if err != nil || parsed != tt.dtype {
			t.Errorf("ParseDataType(%q) = %v, %v", tt.name, parsed, err)
		}
	}
}

func TestDataTypeInvalid(t *testing.T) {
	bad := DataType(42)
	if bad.Valid() {
		t.Error("DataType(42) should be invalid")
	}
	if bad.String() != "unknown" {
		t.Errorf("String() = %q, want unknown", bad.String())
	}
	if _, err := ParseDataType("bfloat16"); !errors.Is(err, ErrNotImplementedDType) {
		t.Errorf("ParseDataType error = %v, want ErrNotImplementedDType", err)
	}
}

func TestDataTypeOf(t *testing.T) {
	if DataTypeOf[uint16]() != Uint16 {
		t.Error("DataTypeOf[uint16] != Uint16")
	}
	if DataTypeOf[float64]() != Float64 {
		t.Error("DataTypeOf[float64] != Float64")
	}
}
