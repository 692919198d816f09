//go:build windows

package webgpu

import (
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strider/internal/tensor"
)

// createBuffer creates a GPU buffer holding data, padded to 4 bytes.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := align4(uint64(len(data)))

	// Create buffer with MappedAtCreation for initial data upload
	buffer := b.gpu.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads size bytes at offset of src back to CPU memory.
// offset and size must be multiples of 4. Blocks until the GPU has finished
// all work submitted before the read.
func (b *Backend) readBuffer(src *wgpu.Buffer, offset, size uint64) ([]byte, error) {
	// Create staging buffer for reading (MAP_READ | COPY_DST)
	staging := b.gpu.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.gpu.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, offset, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.gpu, wgpu.MapModeRead, 0, size); err != nil {
		return nil, errors.Wrap(err, "webgpu: failed to map staging buffer")
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mapped := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mapped)
	staging.Unmap()

	return result, nil
}

// writeBuffer uploads data at offset of dst. offset and len(data) must be
// multiples of 4.
func (b *Backend) writeBuffer(dst *wgpu.Buffer, offset uint64, data []byte) {
	staging := b.createBuffer(data, wgpu.BufferUsageCopySrc)
	defer staging.Release()

	encoder := b.gpu.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, dst, offset, uint64(len(data)))
	b.queue.Submit(encoder.Finish(nil))
}

// window returns the 4-byte aligned byte range covering [offset, offset+n).
func (b *Backend) window(gb *Buffer, offset, n int) (start, end uint64, err error) {
	if offset < 0 || n < 0 || offset+n > gb.size {
		return 0, 0, errors.Wrapf(tensor.ErrLayout, "range [%d, %d) outside %d-byte buffer", offset, offset+n, gb.size)
	}
	//nolint:gosec // G115: bounds checked above
	start, end = uint64(offset)&^3, align4(uint64(offset+n))
	return start, min(end, gb.capacity), nil
}

// ToHost copies len(dst) bytes of src, starting at byte offset, into host memory.
func (b *Backend) ToHost(q tensor.Queue, src tensor.Buffer, offset int, dst []byte) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	gb, err := b.own(src)
	if err != nil {
		return err
	}
	start, end, err := b.window(gb, offset, len(dst))
	if err != nil {
		return errors.WithMessage(err, "webgpu: to host")
	}
	if len(dst) == 0 {
		return nil
	}

	data, err := b.readBuffer(gb.buf, start, end-start)
	if err != nil {
		return err
	}
	//nolint:gosec // G115: offset >= start
	copy(dst, data[uint64(offset)-start:])
	return nil
}

// ToDevice copies host bytes into dst starting at byte offset. Writes that
// do not start and end on 4-byte boundaries read back the partial words
// first so neighbouring bytes are preserved.
func (b *Backend) ToDevice(q tensor.Queue, dst tensor.Buffer, offset int, src []byte) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	gb, err := b.own(dst)
	if err != nil {
		return err
	}
	start, end, err := b.window(gb, offset, len(src))
	if err != nil {
		return errors.WithMessage(err, "webgpu: to device")
	}
	if len(src) == 0 {
		return nil
	}

	//nolint:gosec // G115: offset >= start
	head := uint64(offset) - start
	if head == 0 && uint64(len(src)) == end-start {
		b.writeBuffer(gb.buf, start, src)
		return nil
	}

	klog.V(4).Infof("webgpu: unaligned write of %d bytes at %d", len(src), offset)
	data, err := b.readBuffer(gb.buf, start, end-start)
	if err != nil {
		return err
	}
	copy(data[head:], src)
	b.writeBuffer(gb.buf, start, data)
	return nil
}

// Finish blocks until all submitted work has completed, by mapping a buffer
// written after it.
func (b *Backend) Finish(q tensor.Queue) error {
	if err := b.checkQueue(q); err != nil {
		return err
	}
	_, err := b.readBuffer(b.sentinel, 0, 4)
	return errors.WithMessage(err, "webgpu: finish")
}
