package engine

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/tensor"
)

// LocalScalar reads the single element of a back to the host.
//
// The bytes are decoded strictly by a's data type: floats yield a Float64
// scalar, integers an Int64 scalar. Uint64 values above math.MaxInt64 do not
// fit and wrap to negative values.
func (e *Engine) LocalScalar(a *tensor.RawTensor) (tensor.Scalar, error) {
	if n := a.NumElements(); n != 1 {
		return tensor.Scalar{}, errors.Wrapf(tensor.ErrShapeMismatch,
			"expected single-element array, got shape %v (%d elements)", a.Shape(), n)
	}
	if !a.DType().Valid() {
		return tensor.Scalar{}, errors.Wrapf(tensor.ErrNotImplementedDType, "local scalar of data type %d", int(a.DType()))
	}
	if err := checkStorage(a, "local scalar"); err != nil {
		return tensor.Scalar{}, err
	}

	size := a.DType().Size()
	if a.Device().IsHost() {
		data, err := hostBytes(a, size)
		if err != nil {
			return tensor.Scalar{}, err
		}
		return tensor.NewAccessor(data, a.DType()).Scalar(0)
	}

	b, q, err := e.device(a.Device())
	if err != nil {
		return tensor.Scalar{}, err
	}
	data := make([]byte, size)
	if err := b.ToHost(q, a.Buffer(), a.Offset()*size, data); err != nil {
		return tensor.Scalar{}, errors.WithMessage(err, "local scalar")
	}
	if err := e.syncIfRequired(a.Device()); err != nil {
		return tensor.Scalar{}, err
	}
	return tensor.NewAccessor(data, a.DType()).Scalar(0)
}
