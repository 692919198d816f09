package tensor

import (
	"testing"

	"github.com/pkg/errors"
)

func upload(t *testing.T, b *MockBackend, host *RawTensor) *RawTensor {
	t.Helper()
	dev, err := NewRaw(host.Shape(), host.DType(), b)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ToDevice(nil, dev.Buffer(), 0, host.Data()[:host.ByteSize()]); err != nil {
		t.Fatal(err)
	}
	return dev
}

func download(t *testing.T, b *MockBackend, dev *RawTensor) *RawTensor {
	t.Helper()
	host, err := NewHostRaw(dev.Shape(), dev.DType())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ToHost(nil, dev.Buffer(), 0, host.Data()); err != nil {
		t.Fatal(err)
	}
	return host
}

func TestMockPointwiseBroadcast(t *testing.T) {
	b := NewMockBackend(0)
	x := upload(t, b, must(FromSlice([]float64{1.9, -2.1}, Shape{2, 1})))
	y, _ := NewRaw(Shape{2, 3}, Int32, b)

	if err := b.Pointwise(b.NewQueue(), []*RawTensor{x}, []*RawTensor{y}, IdentityExpr); err != nil {
		t.Fatal(err)
	}
	got := download(t, b, y).AsInt32()
	want := []int32{1, 1, 1, -2, -2, -2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Pointwise = %v, want %v", got, want)
		}
	}
}

func TestMockCopyStridedOverlap(t *testing.T) {
	b := NewMockBackend(0)
	a := upload(t, b, must(FromSlice([]int16{1, 2, 3, 4}, Shape{4})))

	// Shift elements [0, 3) up by one within the same buffer.
	err := b.CopyStrided(nil, Shape{3},
		Strided{Buffer: a.Buffer(), Offset: 0, Strides: []int{1}},
		Strided{Buffer: a.Buffer(), Offset: 1, Strides: []int{1}},
		Int16, Int16)
	if err != nil {
		t.Fatal(err)
	}
	got := Slice[int16](download(t, b, a))
	if got[0] != 1 || got[1] != 1 || got[2] != 2 || got[3] != 3 {
		t.Errorf("overlapping copy = %v, want [1 1 2 3]", got)
	}
}

func TestMockFillAndBounds(t *testing.T) {
	b := NewMockBackend(1)
	a, _ := NewRaw(Shape{2, 2}, Uint8, b)
	col := NewView(a, Shape{2}, []int{2}, 1)
	if err := b.Fill(nil, col, 7); err != nil {
		t.Fatal(err)
	}
	got := download(t, b, a).AsUint8()
	if got[0] != 0 || got[1] != 7 || got[2] != 0 || got[3] != 7 {
		t.Errorf("Fill = %v, want [0 7 0 7]", got)
	}

	past := NewView(a, Shape{2}, []int{2}, 2)
	if err := b.Fill(nil, past, 1); !errors.Is(err, ErrLayout) {
		t.Errorf("out-of-bounds fill error = %v, want ErrLayout", err)
	}
}

func TestMockFreeTracking(t *testing.T) {
	b := NewMockBackend(0)
	buf, _ := b.Alloc(8)
	if err := b.Free(buf); err != nil {
		t.Fatal(err)
	}
	if err := b.Free(buf); err == nil {
		t.Error("double free should fail")
	}
	if err := b.ToHost(nil, buf, 0, make([]byte, 1)); err == nil {
		t.Error("read of freed buffer should fail")
	}
	if err := b.ToHost(nil, HostBuffer{1}, 0, make([]byte, 1)); !errors.Is(err, ErrUnsupportedTransfer) {
		t.Errorf("foreign buffer error = %v, want ErrUnsupportedTransfer", err)
	}
}
