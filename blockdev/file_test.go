package blockdev

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockcache/internal/testutil"
)

func TestFileDevice(t *testing.T) {
	const blockSize = 512
	rng := testutil.NewRNG(2)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		dev, err := OpenFileDevice(filepath.Join(t.TempDir(), "disk.img"), blockSize, false)
		require.NoError(t, err)
		t.Cleanup(func() { _ = dev.Close() })

		want := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 3, want))

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 3, got))
		assert.Equal(t, want, got)
	})

	t.Run("reads past EOF zero-fill", func(t *testing.T) {
		dev, err := OpenFileDevice(filepath.Join(t.TempDir(), "disk.img"), blockSize, false)
		require.NoError(t, err)
		t.Cleanup(func() { _ = dev.Close() })

		got := rng.Block(blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 100, got))
		assert.Equal(t, make([]byte, blockSize), got)
	})

	t.Run("partial tail block zero-fills the rest", func(t *testing.T) {
		dev, err := OpenFileDevice(filepath.Join(t.TempDir(), "disk.img"), blockSize, false)
		require.NoError(t, err)
		t.Cleanup(func() { _ = dev.Close() })

		// Writing block 0 leaves the file one block long; reading block 0 is
		// complete, reading block 1 is entirely past EOF.
		require.NoError(t, dev.WriteBlock(ctx, 0, rng.Block(blockSize)))

		got := rng.Block(blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 1, got))
		assert.Equal(t, make([]byte, blockSize), got)
	})

	t.Run("contents survive reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "disk.img")

		dev, err := OpenFileDevice(path, blockSize, true)
		require.NoError(t, err)

		want := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 9, want))
		require.NoError(t, dev.Close())

		dev, err = OpenFileDevice(path, blockSize, false)
		require.NoError(t, err)
		t.Cleanup(func() { _ = dev.Close() })

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 9, got))
		assert.Equal(t, want, got)
	})

	t.Run("buffer size mismatch", func(t *testing.T) {
		dev, err := OpenFileDevice(filepath.Join(t.TempDir(), "disk.img"), blockSize, false)
		require.NoError(t, err)
		t.Cleanup(func() { _ = dev.Close() })

		short := make([]byte, blockSize/2)
		assert.ErrorIs(t, dev.ReadBlock(ctx, 0, short), ErrBufferSize)
		assert.ErrorIs(t, dev.WriteBlock(ctx, 0, short), ErrBufferSize)
	})
}
