package s3

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockcache/blockdev"
	"github.com/hupe1980/blockcache/internal/testutil"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // device:blockno -> item
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func ddbKey(item map[string]types.AttributeValue) string {
	device := item["device"].(*types.AttributeValueMemberS).Value
	blockno := item["blockno"].(*types.AttributeValueMemberN).Value
	return device + ":" + blockno
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[ddbKey(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[ddbKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (m *mockDDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, ddbKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoDevice(t *testing.T) {
	const blockSize = 512
	rng := testutil.NewRNG(10)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		dev := NewDynamoDevice(newMockDDBClient(), "blocks", "vol0", blockSize)

		want := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 7, want))

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 7, got))
		assert.Equal(t, want, got)
	})

	t.Run("missing items read as zeroes", func(t *testing.T) {
		dev := NewDynamoDevice(newMockDDBClient(), "blocks", "vol0", blockSize)

		got := rng.Block(blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 99, got))
		assert.Equal(t, make([]byte, blockSize), got)
	})

	t.Run("devices share a table without collisions", func(t *testing.T) {
		client := newMockDDBClient()
		vol0 := NewDynamoDevice(client, "blocks", "vol0", blockSize)
		vol1 := NewDynamoDevice(client, "blocks", "vol1", blockSize)

		want := rng.Block(blockSize)
		require.NoError(t, vol0.WriteBlock(ctx, 0, want))

		got := make([]byte, blockSize)
		require.NoError(t, vol1.ReadBlock(ctx, 0, got))
		assert.Equal(t, make([]byte, blockSize), got, "vol1 block 0 must be untouched")

		require.NoError(t, vol0.ReadBlock(ctx, 0, got))
		assert.Equal(t, want, got)
	})

	t.Run("trim makes a block read as zeroes", func(t *testing.T) {
		dev := NewDynamoDevice(newMockDDBClient(), "blocks", "vol0", blockSize)

		require.NoError(t, dev.WriteBlock(ctx, 4, rng.Block(blockSize)))
		require.NoError(t, dev.Trim(ctx, 4))

		got := rng.Block(blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 4, got))
		assert.Equal(t, make([]byte, blockSize), got)
	})

	t.Run("codec round trip", func(t *testing.T) {
		codec, err := blockdev.Zstd()
		require.NoError(t, err)

		dev := NewDynamoDevice(newMockDDBClient(), "blocks", "vol0", blockSize, WithCodec(codec))

		want := rng.Block(blockSize)
		require.NoError(t, dev.WriteBlock(ctx, 1, want))

		got := make([]byte, blockSize)
		require.NoError(t, dev.ReadBlock(ctx, 1, got))
		assert.Equal(t, want, got)
	})

	t.Run("buffer size mismatch", func(t *testing.T) {
		dev := NewDynamoDevice(newMockDDBClient(), "blocks", "vol0", blockSize)

		short := make([]byte, blockSize-1)
		assert.ErrorIs(t, dev.ReadBlock(ctx, 0, short), blockdev.ErrBufferSize)
		assert.ErrorIs(t, dev.WriteBlock(ctx, 0, short), blockdev.ErrBufferSize)
	})
}
