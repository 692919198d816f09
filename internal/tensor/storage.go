package tensor

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Buffer is a block of device memory owned by a Backend.
// Only the owning backend can interpret it.
type Buffer interface {
	// Len returns the usable size of the buffer in bytes.
	Len() int
}

// HostBuffer is host memory; the engine may address it directly.
type HostBuffer []byte

// Len returns the buffer size in bytes.
func (b HostBuffer) Len() int { return len(b) }

// Storage is a reference-counted buffer shared by every array that aliases it.
// It is created once, never resized, and never moved to another device.
type Storage struct {
	buffer   Buffer
	device   Device
	owner    Backend // nil for plain host memory released by the GC
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// NewStorage allocates nbytes on the backend's device with refCount = 1.
func NewStorage(b Backend, nbytes int) (*Storage, error) {
	buf, err := b.Alloc(nbytes)
	if err != nil {
		return nil, errors.WithMessagef(err, "allocate %d bytes on %s", nbytes, b.Device())
	}
	s := &Storage{
		buffer: buf,
		device: b.Device(),
		owner:  b,
	}
	s.refCount.Store(1)
	return s, nil
}

// newHostStorage wraps freshly made host memory with refCount = 1.
func newHostStorage(nbytes int) *Storage {
	s := &Storage{
		buffer: make(HostBuffer, nbytes),
		device: CPU,
	}
	s.refCount.Store(1)
	return s
}

// Buffer returns the underlying device buffer.
func (s *Storage) Buffer() Buffer {
	return s.buffer
}

// Device returns the device holding the buffer.
func (s *Storage) Device() Device {
	return s.device
}

// Len returns the storage size in bytes.
func (s *Storage) Len() int {
	return s.buffer.Len()
}

// RefCount returns the number of live arrays referencing the storage.
func (s *Storage) RefCount() int {
	return int(s.refCount.Load())
}

func (s *Storage) addRef() {
	s.refCount.Add(1)
}

// release decrements the reference count and frees the buffer when it reaches 0.
func (s *Storage) release() {
	if s.refCount.Add(-1) != 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != nil && s.buffer != nil {
		if err := s.owner.Free(s.buffer); err != nil {
			klog.Warningf("failed to free %d-byte buffer on %s: %v", s.buffer.Len(), s.device, err)
		}
	}
	s.buffer = nil
}
