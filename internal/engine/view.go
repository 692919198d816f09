package engine

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/tensor"
)

// Placeholder marks the one dimension View infers from the element count.
const Placeholder = -1

// ViewOption configures AsStrided.
type ViewOption func(*viewOptions)

type viewOptions struct {
	offset    int
	hasOffset bool
}

// WithStorageOffset replaces the view's storage offset, in elements.
func WithStorageOffset(offset int) ViewOption {
	return func(o *viewOptions) {
		o.offset = offset
		o.hasOffset = true
	}
}

// AliasReshape returns a view of src with the given shape and strides and
// src's offset. The layout is not checked against the storage size.
func (e *Engine) AliasReshape(src *tensor.RawTensor, shape tensor.Shape, strides []int) (*tensor.RawTensor, error) {
	if err := checkRank(shape, strides); err != nil {
		return nil, errors.WithMessage(err, "alias reshape")
	}
	return tensor.NewView(src, shape, strides, src.Offset()), nil
}

// View returns a contiguous view of src with a new shape holding the same
// number of elements. One dimension may be Placeholder and is inferred.
// src must be contiguous.
func (e *Engine) View(src *tensor.RawTensor, shape []int) (*tensor.RawTensor, error) {
	if !src.IsContiguous() {
		return nil, errors.Wrapf(tensor.ErrLayout,
			"view %v of non-contiguous array (shape %v, strides %v)", shape, src.Shape(), src.Strides())
	}
	out, err := InferShape(shape, src.NumElements())
	if err != nil {
		return nil, errors.WithMessagef(err, "view of %v", src.Shape())
	}
	return tensor.NewView(src, out, out.ComputeStrides(), src.Offset()), nil
}

// AsStrided returns a view of src with exactly the given shape and strides.
// The offset is src's unless WithStorageOffset is given. The layout is not
// checked against the storage size.
func (e *Engine) AsStrided(src *tensor.RawTensor, shape tensor.Shape, strides []int, opts ...ViewOption) (*tensor.RawTensor, error) {
	o := viewOptions{offset: src.Offset()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkRank(shape, strides); err != nil {
		return nil, errors.WithMessage(err, "as strided")
	}
	if o.offset < 0 {
		return nil, errors.Wrapf(tensor.ErrLayout, "as strided: negative storage offset %d", o.offset)
	}
	return tensor.NewView(src, shape, strides, o.offset), nil
}

// InferShape resolves a requested shape against numel elements.
// At most one dimension may be Placeholder; the explicit dimensions must
// divide numel when it is present and equal it otherwise.
func InferShape(requested []int, numel int) (tensor.Shape, error) {
	out := make(tensor.Shape, len(requested))
	infer := -1
	known := 1
	for i, d := range requested {
		switch {
		case d == Placeholder:
			if infer >= 0 {
				return nil, errors.Wrapf(tensor.ErrLayout, "shape %v: only one dimension can be inferred", requested)
			}
			infer = i
		case d < 0:
			return nil, errors.Wrapf(tensor.ErrLayout, "shape %v: invalid dimension %d", requested, d)
		default:
			known *= d
		}
		out[i] = d
	}

	if infer < 0 {
		if known != numel {
			return nil, errors.Wrapf(tensor.ErrLayout, "shape %v is invalid for %d elements", requested, numel)
		}
		return out, nil
	}
	if known == 0 || numel%known != 0 {
		return nil, errors.Wrapf(tensor.ErrLayout, "shape %v is invalid for %d elements", requested, numel)
	}
	out[infer] = numel / known
	return out, nil
}

func checkRank(shape tensor.Shape, strides []int) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	if len(strides) != len(shape) {
		return errors.Wrapf(tensor.ErrLayout, "%d strides for %d dimensions", len(strides), len(shape))
	}
	return nil
}
