// Package cpu implements the host backend: plain Go memory plus the generic
// strided kernels every other backend falls back on.
package cpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/parallel"
	"github.com/born-ml/strider/internal/tensor"
)

// CPUBackend owns host memory and runs kernels on it.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// SetParallel replaces the kernel parallelism settings.
func (cpu *CPUBackend) SetParallel(cfg parallel.Config) {
	cpu.parallel = cfg
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the host device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Alloc returns a zeroed host buffer. Memory is reclaimed by the GC.
func (cpu *CPUBackend) Alloc(nbytes int) (tensor.Buffer, error) {
	if nbytes < 0 {
		return nil, errors.Wrapf(tensor.ErrAllocation, "cpu: negative size %d", nbytes)
	}
	return make(tensor.HostBuffer, nbytes), nil
}

// Free is a no-op; host buffers are garbage collected.
func (cpu *CPUBackend) Free(buf tensor.Buffer) error {
	_, err := hostBytes(buf)
	return err
}

// ToHost copies len(dst) bytes from src starting at offset.
func (cpu *CPUBackend) ToHost(_ tensor.Queue, src tensor.Buffer, offset int, dst []byte) error {
	b, err := window(src, offset, len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// ToDevice copies src into dst starting at offset.
func (cpu *CPUBackend) ToDevice(_ tensor.Queue, dst tensor.Buffer, offset int, src []byte) error {
	b, err := window(dst, offset, len(src))
	if err != nil {
		return err
	}
	copy(b, src)
	return nil
}

type hostQueue struct{}

func (hostQueue) Device() tensor.Device { return tensor.CPU }

// NewQueue returns the host queue. Host work completes synchronously.
func (cpu *CPUBackend) NewQueue() tensor.Queue {
	return hostQueue{}
}

// Finish returns immediately; host kernels never run asynchronously.
func (cpu *CPUBackend) Finish(tensor.Queue) error {
	return nil
}

func hostBytes(buf tensor.Buffer) ([]byte, error) {
	hb, ok := buf.(tensor.HostBuffer)
	if !ok {
		return nil, errors.Errorf("cpu: foreign buffer %T", buf)
	}
	return hb, nil
}

func window(buf tensor.Buffer, offset, n int) ([]byte, error) {
	b, err := hostBytes(buf)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset+n > len(b) {
		return nil, errors.Wrapf(tensor.ErrLayout, "cpu: range [%d, %d) outside %d-byte buffer", offset, offset+n, len(b))
	}
	return b[offset : offset+n], nil
}
