// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops exposes the array view-and-transfer operations as a plain
// interface that any dispatch layer can bind to.
//
// Example:
//
//	e := ops.New()
//	src, _ := ops.FromSlice(e, []int64{10, 20, 30, 40, 50}, tensor.Shape{5})
//	mask, _ := ops.FromSlice(e, []uint8{1, 0, 1, 1, 0}, tensor.Shape{5})
//	out, _ := e.MaskedSelect(src, mask)
//	vals, _ := ops.ToSlice[int64](e, out) // [10 30 40]
package ops

import (
	"github.com/born-ml/strider/internal/backend/cpu"
	"github.com/born-ml/strider/internal/backend/emulated"
	"github.com/born-ml/strider/internal/engine"
	"github.com/born-ml/strider/internal/exec"
	"github.com/born-ml/strider/tensor"
)

// Ops is the set of operations the engine exposes to a dispatch layer.
type Ops interface {
	// Allocate creates a contiguous array with uninitialized contents.
	Allocate(shape tensor.Shape, opts ...AllocOption) (*tensor.RawTensor, error)

	// AliasReshape returns a view with the given shape and strides at src's offset.
	AliasReshape(src *tensor.RawTensor, shape tensor.Shape, strides []int) (*tensor.RawTensor, error)

	// View returns a contiguous view of a contiguous array with a new shape.
	// One dimension may be Placeholder.
	View(src *tensor.RawTensor, shape []int) (*tensor.RawTensor, error)

	// AsStrided returns a view with exactly the given shape, strides and,
	// optionally, storage offset.
	AsStrided(src *tensor.RawTensor, shape tensor.Shape, strides []int, opts ...ViewOption) (*tensor.RawTensor, error)

	// Copy overwrites dst's elements with src's.
	Copy(src, dst *tensor.RawTensor) error

	// Fill writes value to every element of a.
	Fill(a *tensor.RawTensor, value float64) error

	// Zero writes zero to every element of a.
	Zero(a *tensor.RawTensor) error

	// LocalScalar reads the single element of a back to the host.
	LocalScalar(a *tensor.RawTensor) (tensor.Scalar, error)

	// MaskedSelect returns the elements of src where mask is non-zero.
	MaskedSelect(src, mask *tensor.RawTensor) (*tensor.RawTensor, error)
}

// Engine implements Ops.
type Engine = engine.Engine

// Compile-time check that Engine implements Ops.
var _ Ops = (*Engine)(nil)

// Config holds the engine's allocation defaults.
type Config = engine.Config

// AllocOption configures Allocate.
type AllocOption = engine.AllocOption

// ViewOption configures AsStrided.
type ViewOption = engine.ViewOption

// Placeholder marks the dimension View infers from the element count.
const Placeholder = engine.Placeholder

// DefaultConfig returns float32 arrays on accelerator 0.
func DefaultConfig() Config {
	return engine.DefaultConfig()
}

// WithDType sets the data type of a new array.
func WithDType(dtype tensor.DataType) AllocOption {
	return engine.WithDType(dtype)
}

// OnDevice places a new array on d.
func OnDevice(d tensor.Device) AllocOption {
	return engine.OnDevice(d)
}

// WithStorageOffset replaces a view's storage offset, in elements.
func WithStorageOffset(offset int) ViewOption {
	return engine.WithStorageOffset(offset)
}

// New creates an engine over the given backends with the default Config and
// an execution context configured from the environment (STRIDER_SYNC).
// When no accelerator backend is given, an emulated accelerator 0 is used.
func New(backends ...tensor.Backend) *Engine {
	host := cpu.New()
	var accels []tensor.Backend
	for _, b := range backends {
		if h, ok := b.(*cpu.CPUBackend); ok {
			host = h
			continue
		}
		accels = append(accels, b)
	}
	if len(accels) == 0 {
		accels = append(accels, emulated.New(0))
	}
	all := append([]tensor.Backend{host}, accels...)
	return NewWithContext(exec.New(exec.ConfigFromEnv(), all...), DefaultConfig(), all...)
}

// NewWithContext creates an engine that takes its queues and sync policy from ctx.
func NewWithContext(ctx tensor.ExecContext, cfg Config, backends ...tensor.Backend) *Engine {
	return engine.New(ctx, cfg, backends...)
}

// FromSlice creates an array holding a copy of data on the engine's default
// device, or the device given by opts.
func FromSlice[T tensor.DType](e *Engine, data []T, shape tensor.Shape, opts ...AllocOption) (*tensor.RawTensor, error) {
	return engine.FromSlice(e, data, shape, opts...)
}

// ToSlice reads an array's elements back to the host in row-major order.
func ToSlice[T tensor.DType](e *Engine, x *tensor.RawTensor) ([]T, error) {
	return engine.ToSlice[T](e, x)
}
