// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/strider/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for array element types.
type DType = tensor.DType

// DataType represents the element type of an array.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int8    DataType = tensor.Int8
	Uint8   DataType = tensor.Uint8
	Int16   DataType = tensor.Int16
	Uint16  DataType = tensor.Uint16
	Int32   DataType = tensor.Int32
	Uint32  DataType = tensor.Uint32
	Int64   DataType = tensor.Int64
	Uint64  DataType = tensor.Uint64
)

// ParseDataType returns the DataType named s ("float32", "int64", ...).
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// Device identifies where an array's storage lives.
type Device = tensor.Device

// DeviceKind distinguishes host memory from accelerator memory.
type DeviceKind = tensor.DeviceKind

// Device kinds.
const (
	Host        DeviceKind = tensor.Host
	Accelerator DeviceKind = tensor.Accelerator
)

// CPU is the host device.
var CPU = tensor.CPU

// AcceleratorDevice returns the accelerator with the given index.
func AcceleratorDevice(index int) Device {
	return tensor.AcceleratorDevice(index)
}

// Shape represents the dimensions of an array.
// Example: Shape{2, 3, 4} is a 3D array of 2×3×4 elements.
type Shape = tensor.Shape

// Scalar is a tagged value read back from a single-element array.
type Scalar = tensor.Scalar

// ScalarKind tags the active field of a Scalar.
type ScalarKind = tensor.ScalarKind

// Scalar kinds.
const (
	ScalarFloat64 ScalarKind = tensor.ScalarFloat64
	ScalarInt64   ScalarKind = tensor.ScalarInt64
	ScalarBool    ScalarKind = tensor.ScalarBool
)

// Error kinds. Match them with errors.Is.
var (
	ErrAllocation          = tensor.ErrAllocation
	ErrLayout              = tensor.ErrLayout
	ErrShapeMismatch       = tensor.ErrShapeMismatch
	ErrUnsupportedTransfer = tensor.ErrUnsupportedTransfer
	ErrNotImplementedDType = tensor.ErrNotImplementedDType
)
