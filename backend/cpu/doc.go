// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host memory backend.
//
// # Overview
//
// The CPU backend owns host arrays and runs the host side of every
// transfer:
//   - Pure Go implementation (no CGO)
//   - Strided copy with per-element data type conversion
//   - Fill over arbitrary strided views
//   - Parallel kernels for large arrays (see SetParallel)
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/strider/backend/cpu"
//	    "github.com/born-ml/strider/ops"
//	    "github.com/born-ml/strider/tensor"
//	)
//
//	func main() {
//	    e := ops.New(cpu.New())
//	    x, _ := e.Allocate(tensor.Shape{2, 3}, ops.OnDevice(tensor.CPU))
//	    _ = e.Fill(x, 1)
//	}
package cpu
