package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// RawTensor is the low-level array representation: layout metadata over a
// shared, reference-counted Storage. Several RawTensors may alias one Storage
// with different shapes, strides and offsets.
type RawTensor struct {
	storage *Storage // Shared reference-counted storage
	shape   Shape    // Array dimensions
	stride  []int    // Per-dimension strides, in elements
	dtype   DataType // Runtime type information
	offset  int      // Element offset into storage where the view begins

	released atomic.Bool
}

// NewRaw allocates a contiguous array on the backend's device.
// Contents are uninitialized.
func NewRaw(shape Shape, dtype DataType, b Backend) (*RawTensor, error) {
	if err := validate(shape, dtype); err != nil {
		return nil, err
	}
	storage, err := NewStorage(b, shape.NumElements()*dtype.Size())
	if err != nil {
		return nil, err
	}
	return &RawTensor{
		storage: storage,
		shape:   shape.Clone(),
		stride:  shape.ComputeStrides(),
		dtype:   dtype,
	}, nil
}

// NewHostRaw allocates a contiguous, zeroed host array.
func NewHostRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := validate(shape, dtype); err != nil {
		return nil, err
	}
	return &RawTensor{
		storage: newHostStorage(shape.NumElements() * dtype.Size()),
		shape:   shape.Clone(),
		stride:  shape.ComputeStrides(),
		dtype:   dtype,
	}, nil
}

func validate(shape Shape, dtype DataType) error {
	if err := shape.Validate(); err != nil {
		return errors.WithMessage(err, "invalid shape")
	}
	if !dtype.Valid() {
		return errors.Wrapf(ErrNotImplementedDType, "data type %d", int(dtype))
	}
	return nil
}

// FromSlice creates a host array holding a copy of data.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewHostRaw(shape, inferDataType[T]())
	if err != nil {
		return nil, err
	}
	copy(Slice[T](raw), data)
	return raw, nil
}

// NewView creates an array over src's storage with the given layout.
// The storage stays alive until both src and the view are released.
// No bounds checking is done against the storage size.
func NewView(src *RawTensor, shape Shape, strides []int, offset int) *RawTensor {
	src.storage.addRef()
	return &RawTensor{
		storage: src.storage,
		shape:   shape.Clone(),
		stride:  append([]int(nil), strides...),
		dtype:   src.dtype,
		offset:  offset,
	}
}

// Shape returns the array's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the array's strides, in elements.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Offset returns the storage offset, in elements.
func (r *RawTensor) Offset() int {
	return r.offset
}

// DType returns the array's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the device holding the array's storage.
func (r *RawTensor) Device() Device {
	return r.storage.device
}

// Storage returns the shared storage.
func (r *RawTensor) Storage() *Storage {
	return r.storage
}

// Buffer returns the storage's device buffer.
func (r *RawTensor) Buffer() Buffer {
	return r.storage.buffer
}

// Strided returns the array's layout inside its buffer.
func (r *RawTensor) Strided() Strided {
	return Strided{Buffer: r.storage.buffer, Offset: r.offset, Strides: r.stride}
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the size of the array's elements in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// IsContiguous reports whether the array has row-major strides.
func (r *RawTensor) IsContiguous() bool {
	return IsContiguous(r.shape, r.stride)
}

// String describes the array's metadata.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(shape=%v, strides=%v, offset=%d, dtype=%s, device=%s)",
		r.shape, r.stride, r.offset, r.dtype, r.Device())
}

// Data returns the host bytes from the array's offset to the end of storage.
// WARNING: Direct access to underlying memory. Use with caution.
// Panics if the array is not host-resident.
func (r *RawTensor) Data() []byte {
	hb, ok := r.storage.buffer.(HostBuffer)
	if !ok {
		panic(fmt.Sprintf("tensor: Data() on %s array", r.Device()))
	}
	return hb[r.offset*r.dtype.Size():]
}

// Slice interprets a contiguous host array as []T.
// Panics if T does not match the dtype, or the array is strided or not on the host.
func Slice[T DType](r *RawTensor) []T {
	if dt := inferDataType[T](); dt != r.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dt))
	}
	if !r.IsContiguous() {
		panic("tensor: typed access to a strided array")
	}
	n := r.NumElements()
	if n == 0 {
		return []T{}
	}
	data := r.Data()
	if len(data) < n*r.dtype.Size() {
		panic(fmt.Sprintf("tensor: view %v at offset %d exceeds storage", r.shape, r.offset))
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}

// AsFloat32 interprets the data as []float32.
func (r *RawTensor) AsFloat32() []float32 { return Slice[float32](r) }

// AsFloat64 interprets the data as []float64.
func (r *RawTensor) AsFloat64() []float64 { return Slice[float64](r) }

// AsInt32 interprets the data as []int32.
func (r *RawTensor) AsInt32() []int32 { return Slice[int32](r) }

// AsInt64 interprets the data as []int64.
func (r *RawTensor) AsInt64() []int64 { return Slice[int64](r) }

// AsUint8 interprets the data as []uint8.
func (r *RawTensor) AsUint8() []uint8 { return Slice[uint8](r) }

// Accessor returns typed element access over a host array's storage.
// Element indices are storage indices; combine with Offset and Strides.
func (r *RawTensor) Accessor() Accessor {
	hb, ok := r.storage.buffer.(HostBuffer)
	if !ok {
		panic(fmt.Sprintf("tensor: Accessor() on %s array", r.Device()))
	}
	return NewAccessor(hb, r.dtype)
}

// Alias creates a view with identical metadata sharing the same storage.
func (r *RawTensor) Alias() *RawTensor {
	return NewView(r, r.shape, r.stride, r.offset)
}

// Release drops this array's reference to the storage.
// The storage is freed once no array references it. Repeated calls are no-ops.
func (r *RawTensor) Release() {
	if r.released.CompareAndSwap(false, true) {
		r.storage.release()
	}
}

// IsUnique returns true if this array is the only reference to the storage.
func (r *RawTensor) IsUnique() bool {
	return r.storage.refCount.Load() == 1
}
