// Package emulated implements an accelerator whose device memory is an arena
// of host allocations addressed by buffer handles.
//
// The engine cannot reach emulated memory directly: every byte crosses
// through ToHost/ToDevice or a kernel launch, exactly as with a real device.
// That makes it the reference accelerator for tests and for hosts without a GPU.
package emulated

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/strider/internal/parallel"
	"github.com/born-ml/strider/internal/tensor"
)

// BufferID indexes a buffer in the device arena.
type BufferID uint32

// Buffer is a handle to emulated device memory.
type Buffer struct {
	id    BufferID
	gen   uint32
	size  int
	owner *Backend
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int { return b.size }

// ID returns the arena slot of the buffer.
func (b *Buffer) ID() BufferID { return b.id }

// Queue is the command stream of an emulated device.
// Commands execute on submission; Finish only records the barrier.
type Queue struct {
	backend *Backend
}

// Device returns the device the queue submits to.
func (q *Queue) Device() tensor.Device { return q.backend.device }

// slot is one arena entry. gen advances on every free so stale handles
// to a recycled slot are rejected.
type slot struct {
	mem []byte
	gen uint32
}

// MemoryStats represents device memory usage statistics.
type MemoryStats struct {
	// Bytes currently allocated
	AllocatedBytes int
	// Peak of AllocatedBytes
	PeakBytes int
	// Number of currently live buffers
	ActiveBuffers int
	// Buffers allocated since creation
	TotalAllocations uint64
	// Kernel launches since creation
	KernelLaunches uint64
	// Host <-> device transfers since creation
	Transfers uint64
	// Finish barriers since creation
	Syncs uint64
}

// Backend is an emulated accelerator device.
type Backend struct {
	device   tensor.Device
	parallel parallel.Config

	mu    sync.Mutex
	arena []slot     // indexed by BufferID; nil mem marks a free slot
	free  []BufferID // recycled slots
	limit int        // bytes; 0 = unlimited
	stats MemoryStats
}

// New creates an emulated accelerator with the given device index.
func New(index int) *Backend {
	return &Backend{
		device:   tensor.AcceleratorDevice(index),
		parallel: parallel.DefaultConfig(),
	}
}

// SetMemoryLimit caps total allocated bytes. Zero removes the cap.
func (b *Backend) SetMemoryLimit(nbytes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limit = nbytes
}

// SetParallel replaces the kernel parallelism settings.
func (b *Backend) SetParallel(cfg parallel.Config) {
	b.parallel = cfg
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return fmt.Sprintf("Emulated (%s)", b.device)
}

// Device returns the accelerator device.
func (b *Backend) Device() tensor.Device {
	return b.device
}

// MemoryStats returns current usage statistics.
func (b *Backend) MemoryStats() MemoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Alloc reserves nbytes of zeroed device memory.
func (b *Backend) Alloc(nbytes int) (tensor.Buffer, error) {
	if nbytes < 0 {
		return nil, errors.Wrapf(tensor.ErrAllocation, "emulated: negative size %d", nbytes)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit > 0 && b.stats.AllocatedBytes+nbytes > b.limit {
		return nil, errors.Wrapf(tensor.ErrAllocation,
			"emulated: out of memory: requested %d bytes, %d in use, limit %d",
			nbytes, b.stats.AllocatedBytes, b.limit)
	}

	var id BufferID
	if n := len(b.free); n > 0 {
		id = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		id = BufferID(len(b.arena))
		b.arena = append(b.arena, slot{})
	}
	b.arena[id].mem = make([]byte, nbytes)

	b.stats.AllocatedBytes += nbytes
	b.stats.PeakBytes = max(b.stats.PeakBytes, b.stats.AllocatedBytes)
	b.stats.ActiveBuffers++
	b.stats.TotalAllocations++

	return &Buffer{id: id, gen: b.arena[id].gen, size: nbytes, owner: b}, nil
}

// Free returns a buffer's slot to the arena.
func (b *Backend) Free(buf tensor.Buffer) error {
	eb, err := b.own(buf)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s := &b.arena[eb.id]
	if s.mem == nil || s.gen != eb.gen {
		return errors.Errorf("emulated: double free of buffer %d", eb.id)
	}
	s.mem = nil
	s.gen++
	b.free = append(b.free, eb.id)

	b.stats.AllocatedBytes -= eb.size
	b.stats.ActiveBuffers--
	return nil
}

// ToHost copies len(dst) bytes of src, starting at byte offset, into host memory.
func (b *Backend) ToHost(q tensor.Queue, src tensor.Buffer, offset int, dst []byte) error {
	mem, err := b.window(q, src, offset, len(dst))
	if err != nil {
		return errors.WithMessage(err, "emulated: to host")
	}
	copy(dst, mem)
	b.count(&b.stats.Transfers)
	return nil
}

// ToDevice copies host bytes into dst starting at byte offset.
func (b *Backend) ToDevice(q tensor.Queue, dst tensor.Buffer, offset int, src []byte) error {
	mem, err := b.window(q, dst, offset, len(src))
	if err != nil {
		return errors.WithMessage(err, "emulated: to device")
	}
	copy(mem, src)
	b.count(&b.stats.Transfers)
	return nil
}

// NewQueue returns a new command stream on this device.
func (b *Backend) NewQueue() tensor.Queue {
	return &Queue{backend: b}
}

// Finish waits for the queue to drain. Emulated commands complete on
// submission, so only the barrier is recorded.
func (b *Backend) Finish(q tensor.Queue) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	b.count(&b.stats.Syncs)
	return nil
}

func (b *Backend) count(c *uint64) {
	b.mu.Lock()
	*c++
	b.mu.Unlock()
}

func (b *Backend) checkQueue(q tensor.Queue) error {
	if q == nil {
		return nil
	}
	if eq, ok := q.(*Queue); !ok || eq.backend != b {
		return errors.Wrapf(tensor.ErrUnsupportedTransfer, "emulated: queue for %s used on %s", q.Device(), b.device)
	}
	return nil
}

func (b *Backend) own(buf tensor.Buffer) (*Buffer, error) {
	eb, ok := buf.(*Buffer)
	if !ok || eb.owner != b {
		return nil, errors.Wrapf(tensor.ErrUnsupportedTransfer, "emulated: buffer %T does not belong to %s", buf, b.device)
	}
	return eb, nil
}

// bytes resolves a handle to its arena memory.
func (b *Backend) bytes(buf tensor.Buffer) ([]byte, error) {
	eb, err := b.own(buf)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	s := b.arena[eb.id]
	b.mu.Unlock()
	mem := s.mem
	if mem == nil || s.gen != eb.gen {
		return nil, errors.Errorf("emulated: use of freed buffer %d", eb.id)
	}
	return mem, nil
}

func (b *Backend) window(q tensor.Queue, buf tensor.Buffer, offset, n int) ([]byte, error) {
	if err := b.checkQueue(q); err != nil {
		return nil, err
	}
	mem, err := b.bytes(buf)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset+n > len(mem) {
		return nil, errors.Wrapf(tensor.ErrLayout, "range [%d, %d) outside %d-byte buffer", offset, offset+n, len(mem))
	}
	return mem[offset : offset+n], nil
}
