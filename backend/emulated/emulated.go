// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package emulated provides an accelerator backend whose device memory is an
// arena of host allocations.
//
// Arrays on an emulated device are only reachable through transfers and
// kernel launches, like arrays on a real GPU. Use it to exercise
// accelerator code paths on machines without one.
//
// Example:
//
//	import (
//	    "github.com/born-ml/strider/backend/emulated"
//	    "github.com/born-ml/strider/ops"
//	)
//
//	func main() {
//	    accel := emulated.New(0)
//	    accel.SetMemoryLimit(64 << 20)
//	    e := ops.New(accel)
//	    // ...
//	    fmt.Println(accel.MemoryStats().PeakBytes)
//	}
package emulated

import (
	internalemulated "github.com/born-ml/strider/internal/backend/emulated"
	"github.com/born-ml/strider/tensor"
)

// Backend represents an emulated accelerator.
type Backend = internalemulated.Backend

// MemoryStats represents device memory usage statistics.
type MemoryStats = internalemulated.MemoryStats

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates an emulated accelerator with the given device index.
func New(index int) *Backend {
	return internalemulated.New(index)
}
