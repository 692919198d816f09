package engine

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/tensor"
)

// Contiguous returns a dense array holding x's elements as dtype on x's
// device. It aliases x when x already is dense and of dtype; the caller
// releases the result either way.
func (e *Engine) Contiguous(x *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if err := checkStorage(x, "contiguous"); err != nil {
		return nil, err
	}
	if x.Device().IsHost() {
		return e.host.Contiguous(x, dtype)
	}
	b, q, err := e.device(x.Device())
	if err != nil {
		return nil, err
	}
	out, err := contiguousOn(b, q, x, dtype)
	if err != nil {
		return nil, err
	}
	if err := e.syncIfRequired(x.Device()); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// ToHost returns a new dense host array with x's shape, data type and values.
func (e *Engine) ToHost(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.hostCopy(x)
}

// hostCopy returns a fresh dense host copy of x, never an alias.
func (e *Engine) hostCopy(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x.Device().IsHost() {
		return e.host.Cast(x, x.DType())
	}
	out, err := tensor.NewHostRaw(x.Shape(), x.DType())
	if err != nil {
		return nil, err
	}
	if err := e.Copy(x, out); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// hostView returns a dense host array with x's values for reading only.
// Dense host arrays are aliased rather than copied.
func (e *Engine) hostView(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x.Device().IsHost() {
		return e.host.Contiguous(x, x.DType())
	}
	return e.hostCopy(x)
}

// FromSlice creates an array holding a copy of data on the device chosen by
// opts (the engine's default device otherwise). The data type follows T.
func FromSlice[T tensor.DType](e *Engine, data []T, shape tensor.Shape, opts ...AllocOption) (*tensor.RawTensor, error) {
	host, err := tensor.FromSlice(data, shape)
	if err != nil {
		return nil, err
	}
	opts = append([]AllocOption{WithDType(host.DType())}, opts...)
	out, err := e.Allocate(shape, opts...)
	if err != nil {
		return nil, err
	}
	if out.Device().IsHost() {
		err = e.host.CopyStrided(nil, shape, host.Strided(), out.Strided(), host.DType(), out.DType())
	} else {
		err = e.Copy(host, out)
	}
	if err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// ToSlice reads x's elements back to the host in row-major order.
// T must match x's data type.
func ToSlice[T tensor.DType](e *Engine, x *tensor.RawTensor) ([]T, error) {
	if want := tensor.DataTypeOf[T](); want != x.DType() {
		return nil, errors.Errorf("to slice: array holds %s, not %s", x.DType(), want)
	}
	host, err := e.hostCopy(x)
	if err != nil {
		return nil, err
	}
	return tensor.Slice[T](host), nil
}
