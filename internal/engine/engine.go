// Package engine implements the array view-and-transfer operations: allocation,
// zero-copy views, cross-device copies, fill, scalar readback and masked
// selection.
//
// The engine owns no device state. Memory and kernels come from the
// registered backends; queues and the sync policy come from the
// tensor.ExecContext passed to New.
package engine

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/backend/cpu"
	"github.com/born-ml/strider/internal/tensor"
)

// Config holds the defaults applied when an operation leaves them unspecified.
type Config struct {
	// DefaultDType is used by Allocate when no data type is given.
	DefaultDType tensor.DataType
	// DefaultDevice is used by Allocate when no device is given.
	DefaultDevice tensor.Device
}

// DefaultConfig returns float32 arrays on accelerator 0.
func DefaultConfig() Config {
	return Config{
		DefaultDType:  tensor.Float32,
		DefaultDevice: tensor.AcceleratorDevice(0),
	}
}

// Engine executes array operations against a set of device backends.
// It adds no locking: callers serialize writes to arrays sharing storage.
type Engine struct {
	cfg      Config
	ctx      tensor.ExecContext
	host     *cpu.CPUBackend
	backends map[tensor.Device]tensor.Backend
}

// New creates an engine over the given backends. A CPU backend is created
// when none is supplied; at most one accelerator backend per device is kept,
// the last one winning.
func New(ctx tensor.ExecContext, cfg Config, backends ...tensor.Backend) *Engine {
	e := &Engine{
		cfg:      cfg,
		ctx:      ctx,
		backends: make(map[tensor.Device]tensor.Backend),
	}
	for _, b := range backends {
		if h, ok := b.(*cpu.CPUBackend); ok {
			e.host = h
			continue
		}
		e.backends[b.Device()] = b
	}
	if e.host == nil {
		e.host = cpu.New()
	}
	e.backends[tensor.CPU] = e.host
	return e
}

// Config returns the engine's defaults.
func (e *Engine) Config() Config {
	return e.cfg
}

// Host returns the host backend used for staging.
func (e *Engine) Host() *cpu.CPUBackend {
	return e.host
}

// Backend returns the backend serving d.
func (e *Engine) Backend(d tensor.Device) (tensor.Backend, error) {
	b, ok := e.backends[d]
	if !ok {
		return nil, errors.Wrapf(tensor.ErrUnsupportedTransfer, "no backend for %s", d)
	}
	return b, nil
}

// device returns the backend and queue for accelerator work on d.
func (e *Engine) device(d tensor.Device) (tensor.Backend, tensor.Queue, error) {
	b, err := e.Backend(d)
	if err != nil {
		return nil, nil, err
	}
	q, err := e.ctx.Queue(d)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "queue for %s", d)
	}
	return b, q, nil
}

// syncIfRequired issues a barrier on d when the context's sync policy asks for one.
func (e *Engine) syncIfRequired(d tensor.Device) error {
	if d.IsHost() || !e.ctx.SyncPolicy() {
		return nil
	}
	klog.V(3).Infof("sync policy: barrier on %s", d)
	return errors.WithMessage(e.ctx.Sync(d), "sync")
}

// checkStorage verifies that x's layout stays inside its storage.
// Views are built without bounds checks; operations that read or write
// elements validate here before touching memory.
func checkStorage(x *tensor.RawTensor, what string) error {
	if x.Buffer() == nil {
		return errors.Wrapf(tensor.ErrLayout, "%s: array storage was released", what)
	}
	if err := tensor.CheckBounds(x.Shape(), x.Strides(), x.Offset(), x.DType().Size(), x.Storage().Len()); err != nil {
		return errors.WithMessage(err, what)
	}
	return nil
}

// hostBytes returns the host memory of a contiguous host array,
// starting at its offset and n bytes long.
func hostBytes(x *tensor.RawTensor, n int) ([]byte, error) {
	hb, ok := x.Buffer().(tensor.HostBuffer)
	if !ok {
		return nil, errors.Wrapf(tensor.ErrUnsupportedTransfer, "%s buffer is not host memory", x.Device())
	}
	start := x.Offset() * x.DType().Size()
	if start+n > len(hb) {
		return nil, errors.Wrapf(tensor.ErrLayout, "bytes [%d, %d) outside %d-byte storage", start, start+n, len(hb))
	}
	return hb[start : start+n], nil
}

// flat returns a rank-1 alias over the elements of a contiguous array.
func flat(x *tensor.RawTensor) *tensor.RawTensor {
	return tensor.NewView(x, tensor.Shape{x.NumElements()}, []int{1}, x.Offset())
}
