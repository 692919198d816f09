//go:build windows

// Package webgpu implements an accelerator backend on WebGPU.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Device arrays live in storage buffers. Strided copy and fill run as WGSL
// compute shaders for 32-bit element types; other types are staged through
// host memory and processed by the host kernels.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/parallel"
	"github.com/born-ml/strider/internal/tensor"
)

// storageUsage is the usage of every array buffer.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Buffer is an array buffer in GPU memory. Capacity is rounded up to the
// 4-byte granularity WebGPU copies require.
type Buffer struct {
	buf      *wgpu.Buffer
	size     int
	capacity uint64
	owner    *Backend
}

// Len returns the usable size in bytes.
func (b *Buffer) Len() int { return b.size }

// Queue is the command stream of a WebGPU device.
type Queue struct {
	backend *Backend
}

// Device returns the device the queue submits to.
func (q *Queue) Device() tensor.Device { return q.backend.device }

// MemoryStats represents GPU memory usage statistics.
type MemoryStats struct {
	// Bytes currently allocated to arrays
	AllocatedBytes uint64
	// Peak of AllocatedBytes
	PeakBytes uint64
	// Number of live array buffers
	ActiveBuffers int64
}

// Backend implements tensor.Backend on a WebGPU device.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	gpu      *wgpu.Device
	queue    *wgpu.Queue
	device   tensor.Device

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	// Buffer pool for memory management
	pool *BufferPool

	// Source of the completion readback used by Finish
	sentinel *wgpu.Buffer

	// Settings of the host fallback kernels
	parallel parallel.Config

	// Memory tracking
	statsMu sync.Mutex
	stats   MemoryStats
}

// New creates a WebGPU backend serving accelerator device index.
// Returns an error if WebGPU is not available or initialization fails.
func New(index int) (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = errors.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, errors.Wrap(adapterErr, "webgpu: failed to request adapter")
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, errors.Wrap(deviceErr, "webgpu: failed to request device")
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.New("webgpu: failed to get queue")
	}

	b := &Backend{
		instance:  instance,
		adapter:   adapter,
		gpu:       device,
		queue:     queue,
		device:    tensor.AcceleratorDevice(index),
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		pool:      NewBufferPool(device),
		parallel:  parallel.DefaultConfig(),
	}
	b.sentinel = b.createBuffer(make([]byte, 4), wgpu.BufferUsageCopySrc)
	klog.V(1).Infof("webgpu: initialized %s", b.device)
	return b, nil
}

// Release frees all GPU resources. The backend must not be used afterwards.
func (b *Backend) Release() {
	b.pool.Clear()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil

	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.sentinel != nil {
		b.sentinel.Release()
		b.sentinel = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.gpu != nil {
		b.gpu.Release()
		b.gpu = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return fmt.Sprintf("WebGPU (%s)", b.device)
}

// Device returns the accelerator device.
func (b *Backend) Device() tensor.Device {
	return b.device
}

// SetParallel replaces the parallelism settings of the host fallback kernels.
func (b *Backend) SetParallel(cfg parallel.Config) {
	b.parallel = cfg
}

// MemoryStats returns current GPU memory usage.
func (b *Backend) MemoryStats() MemoryStats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	return b.stats
}

// Alloc reserves a storage buffer of at least nbytes. Contents are undefined.
func (b *Backend) Alloc(nbytes int) (buf tensor.Buffer, err error) {
	if nbytes < 0 {
		return nil, errors.Wrapf(tensor.ErrAllocation, "webgpu: negative size %d", nbytes)
	}
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = errors.Wrapf(tensor.ErrAllocation, "webgpu: allocate %d bytes: %v", nbytes, r)
		}
	}()

	//nolint:gosec // G115: nbytes checked non-negative above
	want := align4(uint64(nbytes))
	gb, capacity := b.pool.Acquire(want, storageUsage)
	if gb == nil {
		return nil, errors.Wrapf(tensor.ErrAllocation, "webgpu: allocate %d bytes", nbytes)
	}

	b.statsMu.Lock()
	b.stats.AllocatedBytes += capacity
	b.stats.PeakBytes = max(b.stats.PeakBytes, b.stats.AllocatedBytes)
	b.stats.ActiveBuffers++
	b.statsMu.Unlock()

	return &Buffer{buf: gb, size: nbytes, capacity: capacity, owner: b}, nil
}

// Free returns a buffer to the pool.
func (b *Backend) Free(buf tensor.Buffer) error {
	gb, err := b.own(buf)
	if err != nil {
		return err
	}
	if gb.buf == nil {
		return errors.New("webgpu: double free")
	}
	b.pool.Release(gb.buf, gb.capacity, storageUsage)
	gb.buf = nil

	b.statsMu.Lock()
	b.stats.AllocatedBytes -= gb.capacity
	b.stats.ActiveBuffers--
	b.statsMu.Unlock()
	return nil
}

// NewQueue returns a command stream on this device. All streams share the
// device's single WebGPU queue.
func (b *Backend) NewQueue() tensor.Queue {
	return &Queue{backend: b}
}

func (b *Backend) checkQueue(q tensor.Queue) error {
	if q == nil {
		return nil
	}
	if wq, ok := q.(*Queue); !ok || wq.backend != b {
		return errors.Wrapf(tensor.ErrUnsupportedTransfer, "webgpu: queue for %s used on %s", q.Device(), b.device)
	}
	return nil
}

func (b *Backend) own(buf tensor.Buffer) (*Buffer, error) {
	gb, ok := buf.(*Buffer)
	if !ok || gb.owner != b {
		return nil, errors.Wrapf(tensor.ErrUnsupportedTransfer, "webgpu: buffer %T does not belong to %s", buf, b.device)
	}
	if gb.buf == nil {
		return nil, errors.New("webgpu: use of freed buffer")
	}
	return gb, nil
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

func align4(n uint64) uint64 {
	return max(4, (n+3)&^3)
}
