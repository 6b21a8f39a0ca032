package s3

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/blockcache/blockdev"
)

// DDBClient is the interface for the DynamoDB operations the device uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDevice implements blockdev.Device on DynamoDB, one item per block.
// Item writes are atomic, which gives single-block write atomicity for free;
// useful for small volumes that want serverless durability without S3's
// per-object latency.
//
// Table schema:
//   - Partition key: device (string) - the logical device name
//   - Sort key: blockno (number) - the block number
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name blockcache-blocks \
//	  --attribute-definitions AttributeName=device,AttributeType=S AttributeName=blockno,AttributeType=N \
//	  --key-schema AttributeName=device,KeyType=HASH AttributeName=blockno,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDevice struct {
	client    DDBClient
	tableName string
	deviceKey string // partition key value for this device
	blockSize int
	codec     blockdev.Codec
}

// NewDynamoDevice creates a DynamoDB-backed block device.
func NewDynamoDevice(client DDBClient, tableName, deviceKey string, blockSize int, optFns ...Option) *DynamoDevice {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	return &DynamoDevice{
		client:    client,
		tableName: tableName,
		deviceKey: deviceKey,
		blockSize: blockSize,
		codec:     o.codec,
	}
}

func (d *DynamoDevice) itemKey(num uint64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"device":  &types.AttributeValueMemberS{Value: d.deviceKey},
		"blockno": &types.AttributeValueMemberN{Value: strconv.FormatUint(num, 10)},
	}
}

// ReadBlock implements blockdev.Device. Missing items read as zeroes.
func (d *DynamoDevice) ReadBlock(ctx context.Context, num uint64, p []byte) error {
	if len(p) != d.blockSize {
		return blockdev.ErrBufferSize
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.itemKey(num),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return err
	}
	if out.Item == nil {
		clear(p)
		return nil
	}

	payload, ok := out.Item["payload"].(*types.AttributeValueMemberB)
	if !ok {
		clear(p)
		return nil
	}
	return decodeInto(p, payload.Value, d.codec, d.blockSize)
}

// WriteBlock implements blockdev.Device.
func (d *DynamoDevice) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	if len(p) != d.blockSize {
		return blockdev.ErrBufferSize
	}

	data, err := encode(p, d.codec)
	if err != nil {
		return err
	}

	item := d.itemKey(num)
	item["payload"] = &types.AttributeValueMemberB{Value: data}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	return err
}

// Trim deletes the item backing block num, so it reads as zeroes again.
func (d *DynamoDevice) Trim(ctx context.Context, num uint64) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.itemKey(num),
	})
	return err
}

// BlockSize implements blockdev.Device.
func (d *DynamoDevice) BlockSize() int { return d.blockSize }

// Close implements blockdev.Device.
func (d *DynamoDevice) Close() error { return nil }
