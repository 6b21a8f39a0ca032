package blockdev

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottledDevice(t *testing.T) {
	const blockSize = 512
	ctx := context.Background()

	t.Run("passes transfers through", func(t *testing.T) {
		mem := NewMemDevice(blockSize)
		dev := NewThrottledDevice(mem, 1<<20)

		want := make([]byte, blockSize)
		for i := range want {
			want[i] = byte(i)
		}
		require.NoError(t, dev.WriteBlock(ctx, 0, want))

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 0, got))
		assert.Equal(t, want, got)
		assert.Equal(t, blockSize, dev.BlockSize())
	})

	t.Run("rejects transfers the deadline cannot cover", func(t *testing.T) {
		mem := NewMemDevice(blockSize)
		// Budget for exactly one block per second: after the first transfer
		// the limiter needs a full second to refill.
		dev := NewThrottledDevice(mem, blockSize)

		p := make([]byte, blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 0, p))

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		// The limiter sees the wait exceeds the deadline and fails without
		// touching the inner device.
		assert.Error(t, dev.ReadBlock(cctx, 0, p))
		assert.EqualValues(t, 0, mem.Reads())
	})

	t.Run("waits for refill", func(t *testing.T) {
		mem := NewMemDevice(blockSize)
		dev := NewThrottledDevice(mem, 20*blockSize)

		p := make([]byte, blockSize)
		// Spend the whole burst, then one more transfer has to wait for a
		// block's worth of refill (1/20 s).
		for i := uint64(0); i < 20; i++ {
			require.NoError(t, dev.WriteBlock(ctx, i, p))
		}

		start := time.Now()
		require.NoError(t, dev.ReadBlock(ctx, 0, p))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})
}
