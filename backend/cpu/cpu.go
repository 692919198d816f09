// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/strider/internal/backend/cpu"
	"github.com/born-ml/strider/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of the host kernels and the
// host end of every transfer.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/strider/backend/cpu"
//	    "github.com/born-ml/strider/ops"
//	)
//
//	func main() {
//	    e := ops.New(cpu.New())
//	}
func New() *Backend {
	return internalcpu.New()
}
