package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/blockcache/blockdev"
)

type options struct {
	codec blockdev.Codec
}

// Option configures the device.
type Option func(*options)

// WithCodec compresses blocks at rest with the given codec.
func WithCodec(c blockdev.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// Device implements blockdev.Device for MinIO and S3-compatible storage,
// one object per block.
type Device struct {
	client    *minio.Client
	bucket    string
	prefix    string
	blockSize int
	codec     blockdev.Codec
}

// NewDevice creates a MinIO-backed block device.
// rootPrefix is prepended to all keys (e.g. "vol0/").
func NewDevice(client *minio.Client, bucket, rootPrefix string, blockSize int, optFns ...Option) *Device {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	return &Device{
		client:    client,
		bucket:    bucket,
		prefix:    rootPrefix,
		blockSize: blockSize,
		codec:     o.codec,
	}
}

func (d *Device) key(num uint64) string {
	return path.Join(d.prefix, fmt.Sprintf("%020d", num))
}

// ReadBlock implements blockdev.Device. Missing objects read as zeroes.
func (d *Device) ReadBlock(ctx context.Context, num uint64, p []byte) error {
	if len(p) != d.blockSize {
		return blockdev.ErrBufferSize
	}

	obj, err := d.client.GetObject(ctx, d.bucket, d.key(num), minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	body, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			clear(p)
			return nil
		}
		return err
	}

	if d.codec == nil {
		if len(body) != d.blockSize {
			return fmt.Errorf("%w: object is %d bytes, want %d", blockdev.ErrCodecCorrupt, len(body), d.blockSize)
		}
		copy(p, body)
		return nil
	}
	decoded, err := d.codec.Decode(body, d.blockSize)
	if err != nil {
		return err
	}
	copy(p, decoded)
	return nil
}

// WriteBlock implements blockdev.Device.
func (d *Device) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	if len(p) != d.blockSize {
		return blockdev.ErrBufferSize
	}

	data := p
	if d.codec != nil {
		encoded, err := d.codec.Encode(p)
		if err != nil {
			return err
		}
		data = encoded
	}

	_, err := d.client.PutObject(ctx, d.bucket, d.key(num),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// BlockSize implements blockdev.Device.
func (d *Device) BlockSize() int { return d.blockSize }

// Close implements blockdev.Device.
func (d *Device) Close() error { return nil }
