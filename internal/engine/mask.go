package engine

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/tensor"
)

// MaskedSelect returns a new rank-1 array, on src's device, holding the
// elements of src at the positions where mask is non-zero, in row-major order.
//
// mask must have exactly src's shape; broadcasting is not supported. A mask
// element counts as set when any of its bytes is non-zero. An all-zero mask
// yields an empty array.
func (e *Engine) MaskedSelect(src, mask *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !src.Shape().Equal(mask.Shape()) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "masked select: mask %v does not match source %v", mask.Shape(), src.Shape())
	}
	for _, dt := range []tensor.DataType{src.DType(), mask.DType()} {
		if !dt.Valid() {
			return nil, errors.Wrapf(tensor.ErrNotImplementedDType, "masked select: data type %d", int(dt))
		}
	}
	if err := checkStorage(src, "masked select source"); err != nil {
		return nil, err
	}
	if err := checkStorage(mask, "masked select mask"); err != nil {
		return nil, err
	}

	// The source copy is compacted in place, so it must never alias src.
	values, err := e.hostCopy(src)
	if err != nil {
		return nil, errors.WithMessage(err, "masked select source")
	}
	defer values.Release()
	bits, err := e.hostView(mask)
	if err != nil {
		return nil, errors.WithMessage(err, "masked select mask")
	}
	defer bits.Release()

	size := src.DType().Size()
	total := src.NumElements()
	data, err := hostBytes(values, total*size)
	if err != nil {
		return nil, err
	}
	m := tensor.NewAccessor(bits.Data(), mask.DType())

	n := 0
	for i := 0; i < total; i++ {
		if !m.NonZero(i) {
			continue
		}
		if n != i {
			copy(data[n*size:(n+1)*size], data[i*size:(i+1)*size])
		}
		n++
	}
	klog.V(2).Infof("masked select: %d of %d elements", n, total)

	out, err := e.Allocate(tensor.Shape{n}, WithDType(src.DType()), OnDevice(src.Device()))
	if err != nil {
		return nil, errors.WithMessage(err, "masked select")
	}
	if n == 0 {
		return out, nil
	}

	if src.Device().IsHost() {
		dst, err := hostBytes(out, n*size)
		if err != nil {
			out.Release()
			return nil, err
		}
		copy(dst, data[:n*size])
		return out, nil
	}

	b, q, err := e.device(src.Device())
	if err == nil {
		err = b.ToDevice(q, out.Buffer(), 0, data[:n*size])
	}
	if err == nil {
		err = e.syncIfRequired(src.Device())
	}
	if err != nil {
		out.Release()
		return nil, errors.WithMessage(err, "masked select")
	}
	return out, nil
}
