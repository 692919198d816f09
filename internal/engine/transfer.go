package engine

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/tensor"
)

// strategy is the path Copy takes between two arrays.
type strategy int

const (
	deviceToHost strategy = iota
	hostToDevice
	deviceContiguous
	deviceStrided
)

func (s strategy) String() string {
	switch s {
	case deviceToHost:
		return "device to host"
	case hostToDevice:
		return "host to device"
	case deviceContiguous:
		return "device pointwise"
	case deviceStrided:
		return "device strided"
	default:
		return "unknown"
	}
}

// selectStrategy picks the copy path for src and dst, or fails with
// ErrUnsupportedTransfer when the device pair is not host <-> accelerator
// or a single accelerator.
func selectStrategy(src, dst *tensor.RawTensor) (strategy, error) {
	sd, dd := src.Device(), dst.Device()
	switch {
	case !sd.IsHost() && dd.IsHost():
		return deviceToHost, nil
	case sd.IsHost() && !dd.IsHost():
		return hostToDevice, nil
	case !sd.IsHost() && sd == dd:
		if src.IsContiguous() && dst.IsContiguous() {
			return deviceContiguous, nil
		}
		return deviceStrided, nil
	default:
		return 0, errors.Wrapf(tensor.ErrUnsupportedTransfer, "copy from %s to %s", sd, dd)
	}
}

// Copy overwrites dst's elements with src's, converting to dst's data type.
// src and dst must hold the same number of elements; strided copies on one
// accelerator also require identical shapes. Every precondition is checked
// before dst is written.
func (e *Engine) Copy(src, dst *tensor.RawTensor) error {
	if src.NumElements() != dst.NumElements() {
		return errors.Wrapf(tensor.ErrShapeMismatch,
			"copy %v (%d elements) into %v (%d elements)", src.Shape(), src.NumElements(), dst.Shape(), dst.NumElements())
	}
	s, err := selectStrategy(src, dst)
	if err != nil {
		return err
	}
	if s == deviceStrided && !src.Shape().Equal(dst.Shape()) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "strided copy %v into %v", src.Shape(), dst.Shape())
	}
	if err := checkStorage(src, "copy source"); err != nil {
		return err
	}
	if err := checkStorage(dst, "copy destination"); err != nil {
		return err
	}
	if src.NumElements() == 0 {
		return nil
	}

	accel := src.Device()
	if accel.IsHost() {
		accel = dst.Device()
	}
	b, q, err := e.device(accel)
	if err != nil {
		return err
	}

	klog.V(2).Infof("copy %v %s -> %v %s: %s", src.Shape(), src.DType(), dst.Shape(), dst.DType(), s)

	switch s {
	case deviceToHost:
		err = e.copyToHost(b, q, src, dst)
	case hostToDevice:
		err = e.copyToDevice(b, q, src, dst)
	case deviceContiguous:
		err = pointwiseCopy(b, q, src, dst)
	case deviceStrided:
		err = b.CopyStrided(q, dst.Shape(), src.Strided(), dst.Strided(), src.DType(), dst.DType())
	}
	if err != nil {
		return errors.WithMessagef(err, "copy (%s)", s)
	}
	return e.syncIfRequired(accel)
}

// copyToHost densifies src on its device in dst's data type, then reads the
// bytes into dst, scattering through a temporary host buffer when dst is strided.
func (e *Engine) copyToHost(b tensor.Backend, q tensor.Queue, src, dst *tensor.RawTensor) error {
	size := dst.DType().Size()
	n := dst.NumElements() * size

	var direct []byte
	if dst.IsContiguous() {
		var err error
		if direct, err = hostBytes(dst, n); err != nil {
			return err
		}
	}

	staged, err := contiguousOn(b, q, src, dst.DType())
	if err != nil {
		return err
	}
	defer staged.Release()

	if direct != nil {
		return b.ToHost(q, staged.Buffer(), staged.Offset()*size, direct)
	}

	klog.V(2).Infof("staging %d bytes through host for strided destination %v", n, dst.Strides())
	tmp, err := tensor.NewHostRaw(dst.Shape(), dst.DType())
	if err != nil {
		return err
	}
	if err := b.ToHost(q, staged.Buffer(), staged.Offset()*size, tmp.Data()[:n]); err != nil {
		return err
	}
	return e.host.CopyStrided(nil, dst.Shape(), tmp.Strided(), dst.Strided(), dst.DType(), dst.DType())
}

// copyToDevice densifies src on the host in dst's data type, then writes the
// bytes into dst, going through a temporary device buffer when dst is strided.
func (e *Engine) copyToDevice(b tensor.Backend, q tensor.Queue, src, dst *tensor.RawTensor) error {
	size := dst.DType().Size()
	n := dst.NumElements() * size

	staged, err := e.host.Contiguous(src, dst.DType())
	if err != nil {
		return err
	}
	defer staged.Release()
	data, err := hostBytes(staged, n)
	if err != nil {
		return err
	}

	if dst.IsContiguous() {
		return b.ToDevice(q, dst.Buffer(), dst.Offset()*size, data)
	}

	klog.V(2).Infof("staging %d bytes through device for strided destination %v", n, dst.Strides())
	tmp, err := tensor.NewRaw(dst.Shape(), dst.DType(), b)
	if err != nil {
		return err
	}
	defer tmp.Release()
	if err := b.ToDevice(q, tmp.Buffer(), 0, data); err != nil {
		return err
	}
	return b.CopyStrided(q, dst.Shape(), tmp.Strided(), dst.Strided(), dst.DType(), dst.DType())
}

// contiguousOn returns x as a dense array of dtype on x's device, aliasing x
// when it already is one. The caller releases the result.
func contiguousOn(b tensor.Backend, q tensor.Queue, x *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if x.DType() == dtype && x.IsContiguous() {
		return x.Alias(), nil
	}
	out, err := tensor.NewRaw(x.Shape(), dtype, b)
	if err != nil {
		return nil, err
	}
	if x.IsContiguous() {
		err = pointwiseCopy(b, q, x, out)
	} else {
		err = b.CopyStrided(q, x.Shape(), x.Strided(), out.Strided(), x.DType(), dtype)
	}
	if err != nil {
		out.Release()
		return nil, errors.WithMessage(err, "densify")
	}
	return out, nil
}

// pointwiseCopy runs the identity expression over rank-1 aliases of two
// contiguous arrays, so any shapes with equal element counts match.
func pointwiseCopy(b tensor.Backend, q tensor.Queue, src, dst *tensor.RawTensor) error {
	fs, fd := flat(src), flat(dst)
	defer fs.Release()
	defer fd.Release()
	return b.Pointwise(q, []*tensor.RawTensor{fs}, []*tensor.RawTensor{fd}, tensor.IdentityExpr)
}
