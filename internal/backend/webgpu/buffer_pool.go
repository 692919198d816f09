//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// BufferSize represents different buffer size categories for pooling.
type BufferSize int

const (
	// SmallBuffer for arrays < 4KB.
	SmallBuffer BufferSize = iota
	// MediumBuffer for arrays 4KB-1MB.
	MediumBuffer
	// LargeBuffer for arrays > 1MB.
	LargeBuffer
)

const (
	// Size thresholds for buffer categories.
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 64          // Max buffers per category
)

// pooledBuffer wraps a GPU buffer with metadata.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool recycles released array buffers. Buffers are categorized by
// size; a pooled buffer is reused for any request it can hold with the
// same usage flags.
type BufferPool struct {
	device *wgpu.Device
	pools  [3][]*pooledBuffer
	mu     sync.Mutex

	// Statistics
	hits   uint64
	misses uint64
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire returns a buffer of at least size bytes with the given usage, and
// its actual size. Pooled buffers are preferred over new allocations.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	category := categorize(size)
	pool := p.pools[category]
	for i, pb := range pool {
		// Pooled buffers may be at most twice the request to bound waste.
		if pb.size >= size && pb.size <= 2*size && pb.usage == usage {
			p.pools[category] = append(pool[:i], pool[i+1:]...)
			p.hits++
			return pb.buffer, pb.size
		}
	}

	p.misses++
	buffer := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
	return buffer, size
}

// Release returns a buffer to the pool for reuse.
// If the pool is full, the buffer is released immediately.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	category := categorize(size)
	if len(p.pools[category]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.pools[category] = append(p.pools[category], &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Clear releases all pooled buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.pools {
		for _, pb := range p.pools[c] {
			pb.buffer.Release()
		}
		p.pools[c] = nil
	}
}

// Stats returns pool hits, misses and the number of pooled buffers.
func (p *BufferPool) Stats() (hits, misses uint64, pooled int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pool := range p.pools {
		pooled += len(pool)
	}
	return p.hits, p.misses, pooled
}

// categorize determines the size category for a buffer.
func categorize(size uint64) BufferSize {
	if size < smallThreshold {
		return SmallBuffer
	}
	if size < mediumThreshold {
		return MediumBuffer
	}
	return LargeBuffer
}
