package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strider/internal/backend/cpu"
	"github.com/born-ml/strider/internal/backend/emulated"
	"github.com/born-ml/strider/internal/tensor"
)

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
		{"maybe", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(SyncEnv, tt.value)
			assert.Equal(t, tt.want, ConfigFromEnv().SyncPolicy)
		})
	}
}

func TestContext_QueueIsCached(t *testing.T) {
	accel := emulated.New(0)
	ctx := New(DefaultConfig(), cpu.New(), accel)

	q1, err := ctx.Queue(accel.Device())
	require.NoError(t, err)
	q2, err := ctx.Queue(accel.Device())
	require.NoError(t, err)
	assert.Same(t, q1, q2)
	assert.Equal(t, accel.Device(), q1.Device())

	hq, err := ctx.Queue(tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, tensor.CPU, hq.Device())
}

func TestContext_UnknownDevice(t *testing.T) {
	ctx := New(DefaultConfig(), cpu.New())

	_, err := ctx.Queue(tensor.AcceleratorDevice(4))
	assert.ErrorIs(t, err, tensor.ErrUnsupportedTransfer)
	_, err = ctx.Backend(tensor.AcceleratorDevice(4))
	assert.ErrorIs(t, err, tensor.ErrUnsupportedTransfer)
	assert.ErrorIs(t, ctx.Sync(tensor.AcceleratorDevice(4)), tensor.ErrUnsupportedTransfer)
}

func TestContext_SyncFinishesQueue(t *testing.T) {
	accel := emulated.New(0)
	ctx := New(Config{SyncPolicy: true}, accel)
	assert.True(t, ctx.SyncPolicy())

	require.NoError(t, ctx.Sync(accel.Device()))
	assert.Equal(t, uint64(1), accel.MemoryStats().Syncs)

	ctx.SetSyncPolicy(false)
	assert.False(t, ctx.SyncPolicy())
}

func TestContext_RegisterReplacesQueue(t *testing.T) {
	first := emulated.New(0)
	ctx := New(DefaultConfig(), first)
	q1, err := ctx.Queue(first.Device())
	require.NoError(t, err)

	second := emulated.New(0)
	ctx.Register(second)
	q2, err := ctx.Queue(second.Device())
	require.NoError(t, err)
	assert.NotSame(t, q1, q2)

	b, err := ctx.Backend(second.Device())
	require.NoError(t, err)
	assert.Same(t, second, b)
}
