package engine

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/tensor"
)

// AllocOption configures Allocate.
type AllocOption func(*allocOptions)

type allocOptions struct {
	dtype  tensor.DataType
	device tensor.Device
}

// WithDType sets the data type of the new array.
func WithDType(dtype tensor.DataType) AllocOption {
	return func(o *allocOptions) {
		o.dtype = dtype
	}
}

// OnDevice places the new array on d.
func OnDevice(d tensor.Device) AllocOption {
	return func(o *allocOptions) {
		o.device = d
	}
}

// Allocate creates a contiguous array with uninitialized contents.
// The data type and device default to the engine's Config.
func (e *Engine) Allocate(shape tensor.Shape, opts ...AllocOption) (*tensor.RawTensor, error) {
	o := allocOptions{dtype: e.cfg.DefaultDType, device: e.cfg.DefaultDevice}
	for _, opt := range opts {
		opt(&o)
	}

	b, ok := e.backends[o.device]
	if !ok {
		return nil, errors.Wrapf(tensor.ErrAllocation, "allocate %v: no backend for %s", shape, o.device)
	}
	raw, err := tensor.NewRaw(shape, o.dtype, b)
	if err != nil {
		return nil, errors.WithMessagef(err, "allocate %v %s", shape, o.dtype)
	}
	klog.V(4).Infof("allocated %v %s on %s (%d bytes)", shape, o.dtype, o.device, raw.ByteSize())
	return raw, nil
}

// EmptyStrided allocates like Allocate. The requested strides are accepted
// for signature compatibility and ignored: the result is always contiguous.
func (e *Engine) EmptyStrided(shape tensor.Shape, strides []int, opts ...AllocOption) (*tensor.RawTensor, error) {
	if len(strides) != len(shape) {
		return nil, errors.Wrapf(tensor.ErrLayout, "%d strides for %d dimensions", len(strides), len(shape))
	}
	return e.Allocate(shape, opts...)
}
