package tensor

// Queue is an ordered command stream on one device.
// Backends hand out their own queue types; the engine treats them as opaque.
type Queue interface {
	Device() Device
}

// Strided locates a layout inside a buffer: element offset plus per-dimension
// element strides.
type Strided struct {
	Buffer  Buffer
	Offset  int
	Strides []int
}

// Kernels is the compute layer the engine issues single calls into.
type Kernels interface {
	// Pointwise evaluates expr elementwise over xs into ys, broadcasting
	// inputs to each output's shape. "y0=x0;" is the identity copy and
	// converts dtype implicitly.
	Pointwise(q Queue, xs, ys []*RawTensor, expr string) error

	// CopyStrided copies every position of shape from src to dst,
	// converting each element from srcType to dstType.
	CopyStrided(q Queue, shape Shape, src, dst Strided, srcType, dstType DataType) error

	// Fill writes value, converted to the array's dtype, to every logical element.
	Fill(q Queue, t *RawTensor, value float64) error
}

// Backend owns memory and kernels for one device.
//
// Implementations:
//   - cpu: host memory, the staging side of every transfer
//   - emulated: arena-backed accelerator running kernels on the host
//   - webgpu: GPU accelerator via go-webgpu (Windows)
type Backend interface {
	Kernels

	// Metadata
	Name() string
	Device() Device

	// Memory management
	Alloc(nbytes int) (Buffer, error)
	Free(buf Buffer) error

	// ToHost reads len(dst) bytes starting at byte offset of src.
	ToHost(q Queue, src Buffer, offset int, dst []byte) error
	// ToDevice writes src into dst starting at byte offset.
	ToDevice(q Queue, dst Buffer, offset int, src []byte) error

	// Queues
	NewQueue() Queue
	Finish(q Queue) error
}

// ExecContext supplies queues and synchronization for device work.
// It owns the sync policy; the engine only honors it.
type ExecContext interface {
	// Queue returns the queue used for operations on d.
	Queue(d Device) (Queue, error)
	// Sync blocks until all work queued on d has completed.
	Sync(d Device) error
	// SyncPolicy reports whether device-touching operations must end with Sync.
	SyncPolicy() bool
}
