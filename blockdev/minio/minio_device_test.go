package minio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockcache/blockdev"
	"github.com/hupe1980/blockcache/internal/testutil"
)

// TestMinioDevice_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioDevice_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-blockcache"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	const blockSize = 4096
	rng := testutil.NewRNG(12)

	prefix := fmt.Sprintf("test-%d/", time.Now().UnixNano())
	dev := NewDevice(client, bucket, prefix, blockSize)

	t.Run("round trip", func(t *testing.T) {
		want := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 5, want))

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 5, got))
		assert.Equal(t, want, got)
	})

	t.Run("missing objects read as zeroes", func(t *testing.T) {
		got := rng.Block(blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 1<<30, got))
		assert.Equal(t, make([]byte, blockSize), got)
	})

	t.Run("codec round trip", func(t *testing.T) {
		cdev := NewDevice(client, bucket, prefix+"lz4/", blockSize, WithCodec(blockdev.LZ4()))

		want := rng.Block(blockSize)
		require.NoError(t, cdev.WriteBlock(ctx, 0, want))

		got := make([]byte, blockSize)
		require.NoError(t, cdev.ReadBlock(ctx, 0, got))
		assert.Equal(t, want, got)
	})
}

func TestMinioDevice_Key(t *testing.T) {
	dev := NewDevice(nil, "bucket", "vol1/", 512)
	assert.Equal(t, "vol1/00000000000000000003", dev.key(3))
}
