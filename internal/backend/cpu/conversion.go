package cpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/tensor"
)

// Contiguous returns a dense host array holding x's elements as dtype.
// When x already is dense and of dtype the result aliases x; otherwise it is
// a new array. Either way the caller releases the result.
func (cpu *CPUBackend) Contiguous(x *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if !x.Device().IsHost() {
		return nil, errors.Wrapf(tensor.ErrUnsupportedTransfer, "cpu: contiguous copy of %s array", x.Device())
	}
	if x.DType() == dtype && x.IsContiguous() {
		return x.Alias(), nil
	}
	return cpu.Cast(x, dtype)
}

// Cast returns a new dense host array holding x converted to dtype.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	result, err := tensor.NewRaw(x.Shape(), dtype, cpu)
	if err != nil {
		return nil, errors.WithMessage(err, "cast")
	}
	if err := cpu.CopyStrided(nil, x.Shape(), x.Strided(), result.Strided(), x.DType(), dtype); err != nil {
		result.Release()
		return nil, errors.WithMessage(err, "cast")
	}
	return result, nil
}
