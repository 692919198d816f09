package tensor

import (
	"sync"

	"github.com/pkg/errors"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple accelerator backend for testing.
// Memory lives in the Go heap and kernels run element by element, so it
// serves as a correctness reference. It records every call it receives.
type MockBackend struct {
	device Device

	mu       sync.Mutex
	live     map[*mockBuffer]struct{}
	allocs   int
	frees    int
	finishes int
}

type mockBuffer struct {
	data []byte
}

// Len returns the buffer size in bytes.
func (b *mockBuffer) Len() int { return len(b.data) }

type mockQueue struct {
	device Device
}

func (q mockQueue) Device() Device { return q.device }

// NewMockBackend creates a new MockBackend serving accelerator index.
func NewMockBackend(index int) *MockBackend {
	return &MockBackend{
		device: AcceleratorDevice(index),
		live:   make(map[*mockBuffer]struct{}),
	}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device the backend serves.
func (m *MockBackend) Device() Device {
	return m.device
}

// Alloc allocates a zeroed buffer.
func (m *MockBackend) Alloc(nbytes int) (Buffer, error) {
	if nbytes < 0 {
		return nil, errors.Wrapf(ErrAllocation, "mock: negative size %d", nbytes)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := &mockBuffer{data: make([]byte, nbytes)}
	m.live[buf] = struct{}{}
	m.allocs++
	return buf, nil
}

// Free releases a buffer. Freeing an unknown buffer is an error.
func (m *MockBackend) Free(buf Buffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mb, ok := buf.(*mockBuffer)
	if !ok {
		return errors.Errorf("mock: foreign buffer %T", buf)
	}
	if _, ok := m.live[mb]; !ok {
		return errors.New("mock: double free")
	}
	delete(m.live, mb)
	m.frees++
	return nil
}

// Counts returns the number of allocations, frees and Finish calls so far.
func (m *MockBackend) Counts() (allocs, frees, finishes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocs, m.frees, m.finishes
}

// Live returns the number of buffers not yet freed.
func (m *MockBackend) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

func (m *MockBackend) bytes(buf Buffer) ([]byte, error) {
	mb, ok := buf.(*mockBuffer)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedTransfer, "mock: foreign buffer %T", buf)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[mb]; !ok {
		return nil, errors.New("mock: use of freed buffer")
	}
	return mb.data, nil
}

func (m *MockBackend) window(buf Buffer, offset, n int) ([]byte, error) {
	data, err := m.bytes(buf)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset+n > len(data) {
		return nil, errors.Wrapf(ErrLayout, "mock: range [%d, %d) outside %d-byte buffer", offset, offset+n, len(data))
	}
	return data[offset : offset+n], nil
}

// ToHost copies device bytes into dst.
func (m *MockBackend) ToHost(_ Queue, src Buffer, offset int, dst []byte) error {
	w, err := m.window(src, offset, len(dst))
	if err != nil {
		return err
	}
	copy(dst, w)
	return nil
}

// ToDevice copies host bytes into dst.
func (m *MockBackend) ToDevice(_ Queue, dst Buffer, offset int, src []byte) error {
	w, err := m.window(dst, offset, len(src))
	if err != nil {
		return err
	}
	copy(w, src)
	return nil
}

// NewQueue returns a queue on the backend's device.
func (m *MockBackend) NewQueue() Queue {
	return mockQueue{device: m.device}
}

// Finish records the call; mock work completes synchronously.
func (m *MockBackend) Finish(Queue) error {
	m.mu.Lock()
	m.finishes++
	m.mu.Unlock()
	return nil
}

// CopyStrided copies shape positions between two layouts with conversion.
func (m *MockBackend) CopyStrided(_ Queue, shape Shape, src, dst Strided, srcType, dstType DataType) error {
	sdata, err := m.bytes(src.Buffer)
	if err != nil {
		return err
	}
	ddata, err := m.bytes(dst.Buffer)
	if err != nil {
		return err
	}
	if err := CheckBounds(shape, src.Strides, src.Offset, srcType.Size(), len(sdata)); err != nil {
		return err
	}
	if err := CheckBounds(shape, dst.Strides, dst.Offset, dstType.Size(), len(ddata)); err != nil {
		return err
	}
	n := shape.NumElements()
	if n == 0 {
		return nil
	}
	// Stage the source so overlapping layouts read pre-copy values.
	staged := append([]byte(nil), sdata...)
	sa, da := NewAccessor(staged, srcType), NewAccessor(ddata, dstType)
	c := NewCursor(shape, src.Offset, src.Strides, dst.Offset, dst.Strides, 0)
	for range n {
		si, di := c.Offsets()
		ConvertElement(da, di, sa, si)
		c.Next()
	}
	return nil
}

// Fill writes value to every logical element of t.
func (m *MockBackend) Fill(_ Queue, t *RawTensor, value float64) error {
	data, err := m.bytes(t.Buffer())
	if err != nil {
		return err
	}
	if err := CheckBounds(t.Shape(), t.Strides(), t.Offset(), t.DType().Size(), len(data)); err != nil {
		return err
	}
	acc := NewAccessor(data, t.DType())
	n := t.NumElements()
	if n == 0 {
		return nil
	}
	c := NewCursor(t.Shape(), t.Offset(), t.Strides(), 0, nil, 0)
	for range n {
		i, _ := c.Offsets()
		acc.SetFloat64(i, value)
		c.Next()
	}
	return nil
}

// Pointwise supports assignment expressions only.
func (m *MockBackend) Pointwise(q Queue, xs, ys []*RawTensor, expr string) error {
	sources, err := ParseAssignments(expr, len(xs), len(ys))
	if err != nil {
		return err
	}
	for i, y := range ys {
		x := xs[sources[i]]
		strides, err := BroadcastStrides(x.Shape(), x.Strides(), y.Shape())
		if err != nil {
			return errors.WithMessagef(err, "mock: pointwise y%d", i)
		}
		src := x.Strided()
		src.Strides = strides
		if err := m.CopyStrided(q, y.Shape(), src, y.Strided(), x.DType(), y.DType()); err != nil {
			return err
		}
	}
	return nil
}
