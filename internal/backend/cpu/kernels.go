package cpu

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/parallel"
	"github.com/born-ml/strider/internal/tensor"
)

// Layout is a strided view over an accessor's elements.
type Layout struct {
	Acc     tensor.Accessor
	Offset  int
	Strides []int
}

// Check verifies that the layout over shape stays inside the accessor.
func (l Layout) Check(shape tensor.Shape) error {
	size := l.Acc.DType().Size()
	return tensor.CheckBounds(shape, l.Strides, l.Offset, size, l.Acc.Len()*size)
}

// StridedCopy copies every position of shape from src to dst, converting
// each element to dst's type. Both layouts must already be bounds checked.
func StridedCopy(shape tensor.Shape, dst, src Layout, cfg parallel.Config) {
	n := shape.NumElements()
	if n == 0 {
		return
	}

	// Identical dense layouts are a single memmove.
	if dst.Acc.DType() == src.Acc.DType() &&
		tensor.IsContiguous(shape, dst.Strides) && tensor.IsContiguous(shape, src.Strides) {
		copy(dst.Acc.Range(dst.Offset, n), src.Acc.Range(src.Offset, n))
		return
	}

	// Reads see the values from before the copy, even through a shared buffer.
	if sharesMemory(shape, dst, src) {
		src = staged(shape, src)
	}
	// Positions writing one element run in row-major order; the last write wins.
	if tensor.MayOverlap(shape, dst.Strides) {
		cfg = parallel.Sequential()
	}
	parallel.ForChunks(n, func(start, end int) {
		c := tensor.NewCursor(shape, dst.Offset, dst.Strides, src.Offset, src.Strides, start)
		for i := start; i < end; i++ {
			di, si := c.Offsets()
			tensor.ConvertElement(dst.Acc, di, src.Acc, si)
			c.Next()
		}
	}, cfg)
}

// FillStrided writes value, converted to dst's type, at every position of shape.
func FillStrided(shape tensor.Shape, dst Layout, value float64, cfg parallel.Config) {
	n := shape.NumElements()
	if n == 0 {
		return
	}

	dt := dst.Acc.DType()
	encoded := tensor.NewAccessor(make([]byte, dt.Size()), dt)
	encoded.SetFloat64(0, value)
	elem := encoded.Bytes(0)

	if tensor.MayOverlap(shape, dst.Strides) {
		cfg = parallel.Sequential()
	}
	parallel.ForChunks(n, func(start, end int) {
		c := tensor.NewCursor(shape, dst.Offset, dst.Strides, 0, nil, start)
		for i := start; i < end; i++ {
			di, _ := c.Offsets()
			copy(dst.Acc.Bytes(di), elem)
			c.Next()
		}
	}, cfg)
}

// RunPointwise evaluates an assignment expression ("y0=x0;") over arrays whose
// memory is reached through access. Inputs broadcast to each output's shape.
func RunPointwise(xs, ys []*tensor.RawTensor, expr string,
	access func(*tensor.RawTensor) (Layout, error), cfg parallel.Config,
) error {
	sources, err := tensor.ParseAssignments(expr, len(xs), len(ys))
	if err != nil {
		return err
	}

	// Resolve every operand before writing anything.
	type job struct {
		shape    tensor.Shape
		dst, src Layout
	}
	jobs := make([]job, len(ys))
	for i, y := range ys {
		x := xs[sources[i]]
		strides, err := tensor.BroadcastStrides(x.Shape(), x.Strides(), y.Shape())
		if err != nil {
			return errors.WithMessagef(err, "pointwise: x%d to y%d", sources[i], i)
		}
		dst, err := access(y)
		if err != nil {
			return err
		}
		src, err := access(x)
		if err != nil {
			return err
		}
		src.Strides = strides
		if err := dst.Check(y.Shape()); err != nil {
			return err
		}
		if err := src.Check(y.Shape()); err != nil {
			return err
		}
		jobs[i] = job{shape: y.Shape(), dst: dst, src: src}
	}

	for _, j := range jobs {
		StridedCopy(j.shape, j.dst, j.src, cfg)
	}
	return nil
}

// sharesMemory reports whether the bytes spanned by dst and src overlap.
func sharesMemory(shape tensor.Shape, dst, src Layout) bool {
	dlo, dhi, ok := tensor.Span(shape, dst.Strides, dst.Offset)
	if !ok {
		return false
	}
	slo, shi, _ := tensor.Span(shape, src.Strides, src.Offset)
	d := dst.Acc.Range(dlo, dhi-dlo+1)
	sb := src.Acc.Range(slo, shi-slo+1)
	//nolint:gosec // address comparison only, never dereferenced
	dp, sp := uintptr(unsafe.Pointer(unsafe.SliceData(d))), uintptr(unsafe.Pointer(unsafe.SliceData(sb)))
	return dp < sp+uintptr(len(sb)) && sp < dp+uintptr(len(d))
}

// staged returns src over a private copy of the elements it spans.
func staged(shape tensor.Shape, src Layout) Layout {
	lo, hi, _ := tensor.Span(shape, src.Strides, src.Offset)
	data := append([]byte(nil), src.Acc.Range(lo, hi-lo+1)...)
	return Layout{Acc: tensor.NewAccessor(data, src.Acc.DType()), Offset: src.Offset - lo, Strides: src.Strides}
}

func (cpu *CPUBackend) layout(buf tensor.Buffer, dtype tensor.DataType, offset int, strides []int) (Layout, error) {
	b, err := hostBytes(buf)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Acc: tensor.NewAccessor(b, dtype), Offset: offset, Strides: strides}, nil
}

func (cpu *CPUBackend) arrayLayout(t *tensor.RawTensor) (Layout, error) {
	return cpu.layout(t.Buffer(), t.DType(), t.Offset(), t.Strides())
}

// CopyStrided copies shape positions between two host layouts with dtype conversion.
func (cpu *CPUBackend) CopyStrided(_ tensor.Queue, shape tensor.Shape, src, dst tensor.Strided,
	srcType, dstType tensor.DataType,
) error {
	s, err := cpu.layout(src.Buffer, srcType, src.Offset, src.Strides)
	if err != nil {
		return err
	}
	d, err := cpu.layout(dst.Buffer, dstType, dst.Offset, dst.Strides)
	if err != nil {
		return err
	}
	if err := s.Check(shape); err != nil {
		return errors.WithMessage(err, "cpu: copy source")
	}
	if err := d.Check(shape); err != nil {
		return errors.WithMessage(err, "cpu: copy destination")
	}
	StridedCopy(shape, d, s, cpu.parallel)
	return nil
}

// Fill writes value to every logical element of a host array.
func (cpu *CPUBackend) Fill(_ tensor.Queue, t *tensor.RawTensor, value float64) error {
	l, err := cpu.arrayLayout(t)
	if err != nil {
		return err
	}
	if err := l.Check(t.Shape()); err != nil {
		return errors.WithMessage(err, "cpu: fill")
	}
	FillStrided(t.Shape(), l, value, cpu.parallel)
	return nil
}

// Pointwise evaluates an assignment expression over host arrays.
func (cpu *CPUBackend) Pointwise(_ tensor.Queue, xs, ys []*tensor.RawTensor, expr string) error {
	return RunPointwise(xs, ys, expr, cpu.arrayLayout, cpu.parallel)
}
