package blockdev

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockcache/internal/testutil"
)

func TestChecksumDevice(t *testing.T) {
	const blockSize = 512
	rng := testutil.NewRNG(5)
	ctx := context.Background()

	t.Run("clean round trip", func(t *testing.T) {
		mem := NewMemDevice(blockSize)
		dev := NewChecksumDevice(mem)

		want := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 1, want))

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 1, got))
		assert.Equal(t, want, got)
	})

	t.Run("detects corruption behind its back", func(t *testing.T) {
		mem := NewMemDevice(blockSize)
		dev := NewChecksumDevice(mem)

		p := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 2, p))

		// Flip a bit directly on the inner device.
		p[17] ^= 0x01
		require.NoError(t, mem.WriteBlock(ctx, 2, p))

		got := make([]byte, blockSize)
		assert.ErrorIs(t, dev.ReadBlock(ctx, 2, got), ErrChecksum)
	})

	t.Run("rewriting refreshes the checksum", func(t *testing.T) {
		mem := NewMemDevice(blockSize)
		dev := NewChecksumDevice(mem)

		require.NoError(t, dev.WriteBlock(ctx, 3, rng.Block(blockSize)))

		want := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 3, want))

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 3, got))
		assert.Equal(t, want, got)
	})

	t.Run("unwritten blocks are not checked", func(t *testing.T) {
		mem := NewMemDevice(blockSize)
		require.NoError(t, mem.WriteBlock(ctx, 4, rng.Block(blockSize)))

		dev := NewChecksumDevice(mem)
		got := make([]byte, blockSize)
		assert.NoError(t, dev.ReadBlock(ctx, 4, got))
	})
}
