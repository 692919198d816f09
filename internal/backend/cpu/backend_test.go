package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strider/internal/parallel"
	"github.com/born-ml/strider/internal/tensor"
)

// Helper to create test backend.
func newTestBackend() *CPUBackend {
	b := New()
	b.SetParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2})
	return b
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.Equal(t, tensor.CPU, backend.NewQueue().Device())
	assert.NoError(t, backend.Finish(backend.NewQueue()))
}

func TestCPUBackend_TransfersRespectOffset(t *testing.T) {
	backend := newTestBackend()
	buf, err := backend.Alloc(8)
	require.NoError(t, err)

	require.NoError(t, backend.ToDevice(nil, buf, 2, []byte{1, 2, 3}))
	out := make([]byte, 5)
	require.NoError(t, backend.ToHost(nil, buf, 1, out))
	assert.Equal(t, []byte{0, 1, 2, 3, 0}, out)

	err = backend.ToHost(nil, buf, 6, make([]byte, 4))
	assert.ErrorIs(t, err, tensor.ErrLayout)
}

func TestCPUBackend_CopyStridedTranspose(t *testing.T) {
	backend := newTestBackend()
	src, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	dst, err := tensor.NewHostRaw(tensor.Shape{3, 2}, tensor.Float32)
	require.NoError(t, err)

	// Read src as its (3, 2) transpose.
	err = backend.CopyStrided(nil, tensor.Shape{3, 2},
		tensor.Strided{Buffer: src.Buffer(), Offset: 0, Strides: []int{1, 3}},
		dst.Strided(), tensor.Float32, tensor.Float32)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, dst.AsFloat32())
}

func TestCPUBackend_CopyStridedConverts(t *testing.T) {
	backend := newTestBackend()
	src, err := tensor.FromSlice([]int32{-3, 7, 1 << 20}, tensor.Shape{3})
	require.NoError(t, err)
	dst, err := tensor.NewHostRaw(tensor.Shape{3}, tensor.Float64)
	require.NoError(t, err)

	require.NoError(t, backend.CopyStrided(nil, src.Shape(), src.Strided(), dst.Strided(), tensor.Int32, tensor.Float64))
	assert.Equal(t, []float64{-3, 7, 1 << 20}, dst.AsFloat64())
}

func TestCPUBackend_CopyStridedRejectsOutOfBounds(t *testing.T) {
	backend := newTestBackend()
	src, err := tensor.FromSlice([]int64{1, 2, 3, 4}, tensor.Shape{4})
	require.NoError(t, err)
	dst, err := tensor.NewHostRaw(tensor.Shape{4}, tensor.Int64)
	require.NoError(t, err)

	err = backend.CopyStrided(nil, tensor.Shape{4},
		tensor.Strided{Buffer: src.Buffer(), Offset: 1, Strides: []int{1}},
		dst.Strided(), tensor.Int64, tensor.Int64)
	assert.ErrorIs(t, err, tensor.ErrLayout)
	assert.Equal(t, []int64{0, 0, 0, 0}, dst.AsInt64(), "destination must be untouched")
}

func TestCPUBackend_FillStridedView(t *testing.T) {
	backend := newTestBackend()
	base, err := tensor.NewHostRaw(tensor.Shape{3, 4}, tensor.Int16)
	require.NoError(t, err)

	// Column 1 of the 3x4 matrix.
	col := tensor.NewView(base, tensor.Shape{3}, []int{4}, 1)
	defer col.Release()
	require.NoError(t, backend.Fill(nil, col, 9.9))

	assert.Equal(t, []int16{
		0, 9, 0, 0,
		0, 9, 0, 0,
		0, 9, 0, 0,
	}, tensor.Slice[int16](base))
}

func TestCPUBackend_FillLarge(t *testing.T) {
	backend := newTestBackend()
	a, err := tensor.NewHostRaw(tensor.Shape{64, 33}, tensor.Float64)
	require.NoError(t, err)

	require.NoError(t, backend.Fill(nil, a, -1.5))
	for i, v := range a.AsFloat64() {
		require.Equal(t, -1.5, v, "element %d", i)
	}
}

func TestCPUBackend_PointwiseIdentityBroadcast(t *testing.T) {
	backend := newTestBackend()
	row, err := tensor.FromSlice([]uint8{1, 2, 3}, tensor.Shape{1, 3})
	require.NoError(t, err)
	out, err := tensor.NewHostRaw(tensor.Shape{2, 3}, tensor.Int32)
	require.NoError(t, err)

	require.NoError(t, backend.Pointwise(nil, []*tensor.RawTensor{row}, []*tensor.RawTensor{out}, tensor.IdentityExpr))
	assert.Equal(t, []int32{1, 2, 3, 1, 2, 3}, out.AsInt32())
}

func TestCPUBackend_PointwiseRejectsExpressions(t *testing.T) {
	backend := newTestBackend()
	x, err := tensor.FromSlice([]float32{1}, tensor.Shape{1})
	require.NoError(t, err)
	y, err := tensor.NewHostRaw(tensor.Shape{1}, tensor.Float32)
	require.NoError(t, err)

	tests := []string{"y0=x0*2;", "y0=x1;", "y1=x0;", "", "y0=x0;y0=x0;"}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			err := backend.Pointwise(nil, []*tensor.RawTensor{x}, []*tensor.RawTensor{y}, expr)
			assert.Error(t, err)
		})
	}
}

func TestCPUBackend_Contiguous(t *testing.T) {
	backend := newTestBackend()
	src, err := tensor.FromSlice([]int8{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)

	same, err := backend.Contiguous(src, tensor.Int8)
	require.NoError(t, err)
	assert.Same(t, src.Storage(), same.Storage(), "dense same-dtype input is aliased")
	same.Release()

	transposed := tensor.NewView(src, tensor.Shape{3, 2}, []int{1, 3}, 0)
	defer transposed.Release()
	dense, err := backend.Contiguous(transposed, tensor.Float32)
	require.NoError(t, err)
	defer dense.Release()
	assert.True(t, dense.IsContiguous())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, dense.AsFloat32())
}

func TestCPUBackend_CopyStridedWithinOneBuffer(t *testing.T) {
	backend := newTestBackend()
	a, err := tensor.FromSlice([]int16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{10})
	require.NoError(t, err)

	// Every other element shifted up by two: reads see the values before the copy.
	err = backend.CopyStrided(nil, tensor.Shape{4},
		tensor.Strided{Buffer: a.Buffer(), Offset: 0, Strides: []int{2}},
		tensor.Strided{Buffer: a.Buffer(), Offset: 2, Strides: []int{2}},
		tensor.Int16, tensor.Int16)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 1, 0, 3, 2, 5, 4, 7, 6, 9}, tensor.Slice[int16](a))
}

func TestCPUBackend_CopyStridedSelfOverlappingDestination(t *testing.T) {
	backend := newTestBackend()
	const n = 1000
	src := make([]int32, 2*n)
	for i := range src {
		src[i] = int32(i)
	}
	s, err := tensor.FromSlice(src, tensor.Shape{2 * n})
	require.NoError(t, err)
	d, err := tensor.NewHostRaw(tensor.Shape{n + 1}, tensor.Int32)
	require.NoError(t, err)

	err = backend.CopyStrided(nil, tensor.Shape{n, 2},
		tensor.Strided{Buffer: s.Buffer(), Strides: []int{1, n}},
		tensor.Strided{Buffer: d.Buffer(), Strides: []int{1, 1}},
		tensor.Int32, tensor.Int32)
	require.NoError(t, err)

	got := d.AsInt32()
	for k := 0; k < n; k++ {
		require.Equal(t, int32(k), got[k], "element %d", k)
	}
	assert.Equal(t, int32(2*n-1), got[n])
}
