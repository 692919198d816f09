// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/strider/internal/tensor"
)

// RawTensor is the array representation.
//
// RawTensor provides:
//   - Layout information via Shape(), Strides(), Offset(), DType(), Device()
//   - Typed host access via AsFloat32(), AsInt64(), etc.
//   - Aliasing via Alias(), sharing storage through reference counting
//   - Release() to drop the array's reference to its storage
//
// Example:
//
//	raw, _ := tensor.FromSlice([]int32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	data := raw.AsInt32()  // Type-safe access
//	view := raw.Alias()    // Shares storage via reference counting
type RawTensor = tensor.RawTensor

// Storage is the reference-counted buffer shared by aliasing arrays.
type Storage = tensor.Storage

// FromSlice creates a host array holding a copy of data.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// NewHostRaw allocates a zeroed, contiguous host array.
func NewHostRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewHostRaw(shape, dtype)
}

// Slice interprets a contiguous host array as []T without copying.
// Panics if T does not match the array's data type.
func Slice[T DType](r *RawTensor) []T {
	return tensor.Slice[T](r)
}
