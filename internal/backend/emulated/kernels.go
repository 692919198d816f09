package emulated

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/backend/cpu"
	"github.com/born-ml/strider/internal/tensor"
)

func (b *Backend) layout(buf tensor.Buffer, dtype tensor.DataType, offset int, strides []int) (cpu.Layout, error) {
	mem, err := b.bytes(buf)
	if err != nil {
		return cpu.Layout{}, err
	}
	return cpu.Layout{Acc: tensor.NewAccessor(mem, dtype), Offset: offset, Strides: strides}, nil
}

func (b *Backend) arrayLayout(t *tensor.RawTensor) (cpu.Layout, error) {
	if t.Device() != b.device {
		return cpu.Layout{}, errors.Wrapf(tensor.ErrUnsupportedTransfer,
			"emulated: kernel on %s cannot read %s array", b.device, t.Device())
	}
	return b.layout(t.Buffer(), t.DType(), t.Offset(), t.Strides())
}

// CopyStrided copies shape positions between two device layouts with dtype conversion.
func (b *Backend) CopyStrided(q tensor.Queue, shape tensor.Shape, src, dst tensor.Strided,
	srcType, dstType tensor.DataType,
) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	s, err := b.layout(src.Buffer, srcType, src.Offset, src.Strides)
	if err != nil {
		return errors.WithMessage(err, "emulated: copy source")
	}
	d, err := b.layout(dst.Buffer, dstType, dst.Offset, dst.Strides)
	if err != nil {
		return errors.WithMessage(err, "emulated: copy destination")
	}
	if err := s.Check(shape); err != nil {
		return errors.WithMessage(err, "emulated: copy source")
	}
	if err := d.Check(shape); err != nil {
		return errors.WithMessage(err, "emulated: copy destination")
	}

	cpu.StridedCopy(shape, d, s, b.parallel)
	b.count(&b.stats.KernelLaunches)
	return nil
}

// Fill writes value to every logical element of a device array.
func (b *Backend) Fill(q tensor.Queue, t *tensor.RawTensor, value float64) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	l, err := b.arrayLayout(t)
	if err != nil {
		return err
	}
	if err := l.Check(t.Shape()); err != nil {
		return errors.WithMessage(err, "emulated: fill")
	}

	cpu.FillStrided(t.Shape(), l, value, b.parallel)
	b.count(&b.stats.KernelLaunches)
	return nil
}

// Pointwise evaluates an assignment expression over device arrays.
func (b *Backend) Pointwise(q tensor.Queue, xs, ys []*tensor.RawTensor, expr string) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	if err := cpu.RunPointwise(xs, ys, expr, b.arrayLayout, b.parallel); err != nil {
		return errors.WithMessage(err, "emulated")
	}
	b.count(&b.stats.KernelLaunches)
	return nil
}
