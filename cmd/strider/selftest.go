package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/strider/backend/emulated"
	"github.com/born-ml/strider/ops"
	"github.com/born-ml/strider/tensor"
)

type check struct {
	name string
	run  func(e *ops.Engine) error
}

var checks = []check{
	{"round trip", checkRoundTrip},
	{"transposed download", checkTranspose},
	{"view placeholder", checkView},
	{"masked select", checkMaskedSelect},
	{"local scalar", checkLocalScalar},
	{"fill and zero", checkFill},
}

// selftest runs every check against a fresh emulated accelerator and
// verifies that no device buffer outlives the run.
func selftest(w io.Writer) error {
	accel := emulated.New(0)
	e := ops.New(accel)
	for _, c := range checks {
		if err := c.run(e); err != nil {
			fmt.Fprintf(w, "FAIL  %s\n", c.name)
			return errors.WithMessage(err, c.name)
		}
		fmt.Fprintf(w, "ok    %s\n", c.name)
	}
	if stats := accel.MemoryStats(); stats.ActiveBuffers != 0 {
		return errors.Errorf("%d device buffers leaked", stats.ActiveBuffers)
	}
	fmt.Fprintf(w, "all %d checks passed\n", len(checks))
	return nil
}

func expect[T comparable](got, want []T) error {
	if !slices.Equal(got, want) {
		return errors.Errorf("got %v, want %v", got, want)
	}
	return nil
}

func checkRoundTrip(e *ops.Engine) error {
	want := []float32{1.5, -2, 3.25, 0, 7, -8}
	x, err := ops.FromSlice(e, want, tensor.Shape{2, 3})
	if err != nil {
		return err
	}
	defer x.Release()
	got, err := ops.ToSlice[float32](e, x)
	if err != nil {
		return err
	}
	return expect(got, want)
}

func checkTranspose(e *ops.Engine) error {
	x, err := ops.FromSlice(e, []int32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	if err != nil {
		return err
	}
	defer x.Release()
	xt, err := e.AsStrided(x, tensor.Shape{3, 2}, []int{1, 3})
	if err != nil {
		return err
	}
	defer xt.Release()

	dst, err := e.Allocate(tensor.Shape{3, 2}, ops.WithDType(tensor.Int64), ops.OnDevice(tensor.CPU))
	if err != nil {
		return err
	}
	defer dst.Release()
	if err := e.Copy(xt, dst); err != nil {
		return err
	}
	return expect(dst.AsInt64(), []int64{1, 4, 2, 5, 3, 6})
}

func checkView(e *ops.Engine) error {
	x, err := e.Allocate(tensor.Shape{4, 6})
	if err != nil {
		return err
	}
	defer x.Release()
	v, err := e.View(x, []int{ops.Placeholder, 8})
	if err != nil {
		return err
	}
	defer v.Release()
	if !v.Shape().Equal(tensor.Shape{3, 8}) {
		return errors.Errorf("view shape %v, want [3 8]", v.Shape())
	}
	if v.Storage() != x.Storage() {
		return errors.New("view does not share storage")
	}
	return nil
}

func checkMaskedSelect(e *ops.Engine) error {
	src, err := ops.FromSlice(e, []int64{10, 20, 30, 40, 50}, tensor.Shape{5})
	if err != nil {
		return err
	}
	defer src.Release()
	mask, err := ops.FromSlice(e, []uint8{1, 0, 1, 1, 0}, tensor.Shape{5})
	if err != nil {
		return err
	}
	defer mask.Release()

	out, err := e.MaskedSelect(src, mask)
	if err != nil {
		return err
	}
	defer out.Release()
	got, err := ops.ToSlice[int64](e, out)
	if err != nil {
		return err
	}
	return expect(got, []int64{10, 30, 40})
}

func checkLocalScalar(e *ops.Engine) error {
	x, err := ops.FromSlice(e, []float64{0.25, 42}, tensor.Shape{2})
	if err != nil {
		return err
	}
	defer x.Release()
	last, err := e.AsStrided(x, tensor.Shape{}, nil, ops.WithStorageOffset(1))
	if err != nil {
		return err
	}
	defer last.Release()
	s, err := e.LocalScalar(last)
	if err != nil {
		return err
	}
	if s.Kind() != tensor.ScalarFloat64 || s.Float64() != 42 {
		return errors.Errorf("scalar %v, want float64 42", s)
	}
	return nil
}

func checkFill(e *ops.Engine) error {
	x, err := e.Allocate(tensor.Shape{2, 3}, ops.WithDType(tensor.Int16))
	if err != nil {
		return err
	}
	defer x.Release()
	if err := e.Zero(x); err != nil {
		return err
	}
	col, err := e.AsStrided(x, tensor.Shape{2}, []int{3}, ops.WithStorageOffset(1))
	if err != nil {
		return err
	}
	defer col.Release()
	if err := e.Fill(col, 9); err != nil {
		return err
	}
	got, err := ops.ToSlice[int16](e, x)
	if err != nil {
		return err
	}
	return expect(got, []int16{0, 9, 0, 0, 9, 0})
}
