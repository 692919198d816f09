// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public array types of strider.
//
// # Overview
//
// An array (RawTensor) is layout metadata over shared, reference-counted
// storage:
//   - Shape and Strides, both counted in elements
//   - a storage Offset where the view begins
//   - a DataType from a closed set of integer and float types
//   - a Device: the host or one accelerator
//
// Many arrays may alias one Storage with different layouts. Storage is
// freed when the last array referencing it is released.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/strider/ops"
//	    "github.com/born-ml/strider/tensor"
//	)
//
//	func main() {
//	    e := ops.New()
//	    x, _ := e.Allocate(tensor.Shape{2, 3}, ops.WithDType(tensor.Int32))
//	    defer x.Release()
//	    _ = e.Fill(x, 7)
//	}
//
// # Supported Data Types
//
//   - int8, int16, int32, int64 (signed integers)
//   - uint8, uint16, uint32, uint64 (unsigned integers)
//   - float32, float64 (floating-point)
package tensor
