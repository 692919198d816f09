//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU accelerator backend.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via Dawn/D3D12)
//   - macOS (via Dawn/Metal)
//   - Linux (via Dawn/Vulkan)
//
// Example:
//
//	import (
//	    "github.com/born-ml/strider/backend/webgpu"
//	    "github.com/born-ml/strider/ops"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New(0)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    e := ops.New(gpu)
//	    x, _ := e.Allocate(tensor.Shape{1024, 1024})
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/strider/internal/backend/webgpu"
	"github.com/born-ml/strider/tensor"
)

// Backend represents the WebGPU accelerator backend.
type Backend = internalwebgpu.Backend

// MemoryStats represents GPU memory usage statistics.
type MemoryStats = internalwebgpu.MemoryStats

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend serving accelerator device index.
//
// Call Release() when done to free GPU resources.
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New(index int) (*Backend, error) {
	return internalwebgpu.New(index)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// This function attempts to initialize a WebGPU adapter to verify
// that a compatible GPU and drivers are present. It's useful for
// graceful fallback to the emulated accelerator when no GPU is present.
//
// Example:
//
//	var accel tensor.Backend = emulated.New(0)
//	if webgpu.IsAvailable() {
//	    if gpu, err := webgpu.New(0); err == nil {
//	        accel = gpu
//	    }
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
