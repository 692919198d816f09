package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strider/internal/backend/cpu"
	"github.com/born-ml/strider/internal/backend/emulated"
	"github.com/born-ml/strider/internal/exec"
	"github.com/born-ml/strider/internal/parallel"
	"github.com/born-ml/strider/internal/tensor"
)

var accel1 = tensor.AcceleratorDevice(1)

// newReferenceEngine returns an engine with an emulated accelerator 0 that
// splits kernels across goroutines, and a MockBackend accelerator 1 that runs
// them element by element as the reference.
func newReferenceEngine(t *testing.T) (*Engine, *emulated.Backend, *tensor.MockBackend) {
	t.Helper()
	host := cpu.New()
	accel := emulated.New(0)
	accel.SetParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2})
	ref := tensor.NewMockBackend(1)
	ctx := exec.New(exec.DefaultConfig(), host, accel, ref)
	return New(ctx, DefaultConfig(), host, accel, ref), accel, ref
}

func iota32(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

// crossCheck runs scenario on both accelerators, requires identical results,
// and requires every device buffer to be freed afterwards.
func crossCheck(t *testing.T, scenario func(t *testing.T, e *Engine, d tensor.Device) []int32) []int32 {
	t.Helper()
	e, accel, ref := newReferenceEngine(t)

	got := scenario(t, e, accel0)
	want := scenario(t, e, accel1)
	assert.Equal(t, want, got, "emulated accelerator differs from reference")

	assert.Zero(t, accel.MemoryStats().ActiveBuffers)
	assert.Zero(t, ref.Live())
	return got
}

func TestEngine_CopyIntoSelfOverlappingView(t *testing.T) {
	const n = 20000
	got := crossCheck(t, func(t *testing.T, e *Engine, d tensor.Device) []int32 {
		srcBase, err := FromSlice(e, iota32(2*n), tensor.Shape{2 * n}, OnDevice(d))
		require.NoError(t, err)
		defer srcBase.Release()
		base, err := e.Allocate(tensor.Shape{n + 1}, WithDType(tensor.Int32), OnDevice(d))
		require.NoError(t, err)
		defer base.Release()
		require.NoError(t, e.Zero(base))

		src, err := e.AsStrided(srcBase, tensor.Shape{n, 2}, []int{1, n})
		require.NoError(t, err)
		defer src.Release()
		// Position (i, j) lands on element i+j, so most elements are written twice.
		dst, err := e.AsStrided(base, tensor.Shape{n, 2}, []int{1, 1})
		require.NoError(t, err)
		defer dst.Release()

		require.NoError(t, e.Copy(src, dst))
		return readBack[int32](t, e, base)
	})

	// Row-major order: the last write to element k < n comes from (k, 0).
	want := iota32(n + 1)
	want[n] = 2*n - 1
	assert.Equal(t, want, got)
}

func TestEngine_CopyBetweenOverlappingViews(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []int32
	}{
		{"forward", 0, 2, []int32{0, 1, 0, 3, 2, 5, 4, 7, 6, 9}},
		{"backward", 2, 0, []int32{2, 1, 4, 3, 6, 5, 8, 7, 8, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := crossCheck(t, func(t *testing.T, e *Engine, d tensor.Device) []int32 {
				a, err := FromSlice(e, iota32(10), tensor.Shape{10}, OnDevice(d))
				require.NoError(t, err)
				defer a.Release()

				src, err := e.AsStrided(a, tensor.Shape{4}, []int{2}, WithStorageOffset(tt.from))
				require.NoError(t, err)
				defer src.Release()
				dst, err := e.AsStrided(a, tensor.Shape{4}, []int{2}, WithStorageOffset(tt.to))
				require.NoError(t, err)
				defer dst.Release()

				require.NoError(t, e.Copy(src, dst))
				return readBack[int32](t, e, a)
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_FillSelfOverlappingView(t *testing.T) {
	const n = 5000
	got := crossCheck(t, func(t *testing.T, e *Engine, d tensor.Device) []int32 {
		base, err := e.Allocate(tensor.Shape{n + 1}, WithDType(tensor.Int32), OnDevice(d))
		require.NoError(t, err)
		defer base.Release()
		require.NoError(t, e.Zero(base))

		dst, err := e.AsStrided(base, tensor.Shape{n, 2}, []int{1, 1})
		require.NoError(t, err)
		defer dst.Release()
		require.NoError(t, e.Fill(dst, 3))
		return readBack[int32](t, e, base)
	})
	for i, v := range got {
		require.Equal(t, int32(3), v, "element %d", i)
	}
}

func TestEngine_TransfersMatchReference(t *testing.T) {
	got := crossCheck(t, func(t *testing.T, e *Engine, d tensor.Device) []int32 {
		x, err := FromSlice(e, []float64{1.5, -2.5, 3.9, -4.1, 5, 6.7}, tensor.Shape{2, 3}, OnDevice(d))
		require.NoError(t, err)
		defer x.Release()
		xt, err := e.AsStrided(x, tensor.Shape{3, 2}, []int{1, 3})
		require.NoError(t, err)
		defer xt.Release()

		// Strided device source into a strided host destination, with conversion.
		host, err := e.Allocate(tensor.Shape{3, 4}, WithDType(tensor.Int32), OnDevice(tensor.CPU))
		require.NoError(t, err)
		require.NoError(t, e.Zero(host))
		cols, err := e.AsStrided(host, tensor.Shape{3, 2}, []int{4, 2}, WithStorageOffset(1))
		require.NoError(t, err)
		require.NoError(t, e.Copy(xt, cols))

		// And back into a strided device view.
		back, err := e.Allocate(tensor.Shape{2, 3}, WithDType(tensor.Int32), OnDevice(d))
		require.NoError(t, err)
		defer back.Release()
		require.NoError(t, e.Zero(back))
		backT, err := e.AsStrided(back, tensor.Shape{3, 2}, []int{1, 3})
		require.NoError(t, err)
		defer backT.Release()
		require.NoError(t, e.Copy(cols, backT))

		return append(host.AsInt32(), readBack[int32](t, e, back)...)
	})

	assert.Equal(t, []int32{
		0, 1, 0, -4,
		0, -2, 0, 5,
		0, 3, 0, 6,
		1, -2, 3, -4, 5, 6,
	}, got)
}
