// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/strider/internal/tensor"

// Backend owns memory and kernels for one device.
//
// Implementations:
//   - backend/cpu: host memory, used to stage every transfer
//   - backend/emulated: accelerator backed by host memory, for tests and CPU-only hosts
//   - backend/webgpu: GPU accelerator via WebGPU (Windows)
type Backend = tensor.Backend

// Kernels is the compute layer the engine issues single calls into.
type Kernels = tensor.Kernels

// Buffer is a block of device memory owned by a Backend.
type Buffer = tensor.Buffer

// Queue is an ordered command stream on one device.
type Queue = tensor.Queue

// Strided locates a layout inside a buffer.
type Strided = tensor.Strided

// ExecContext supplies queues and the sync policy for device work.
type ExecContext = tensor.ExecContext

// IdentityExpr is the pointwise expression copying x0 into y0.
const IdentityExpr = tensor.IdentityExpr
