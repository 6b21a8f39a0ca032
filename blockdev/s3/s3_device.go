package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/blockcache/blockdev"
)

type options struct {
	codec blockdev.Codec
}

// Option configures object-store devices in this package.
type Option func(*options)

// WithCodec compresses blocks at rest with the given codec.
func WithCodec(c blockdev.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// Device implements blockdev.Device on S3, one object per block. S3 has no
// partial-object writes, so each block maps to its own key under the prefix.
type Device struct {
	client    *s3.Client
	bucket    string
	prefix    string
	blockSize int
	codec     blockdev.Codec
}

// NewDevice creates a new S3-backed block device.
// rootPrefix is prepended to all keys (e.g. "vol0/").
func NewDevice(client *s3.Client, bucket, rootPrefix string, blockSize int, optFns ...Option) *Device {
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

	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(num)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			clear(p)
			return nil
		}
		return err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return err
	}
	return decodeInto(p, body, d.codec, d.blockSize)
}

// WriteBlock implements blockdev.Device.
func (d *Device) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	if len(p) != d.blockSize {
		return blockdev.ErrBufferSize
	}

	data, err := encode(p, d.codec)
	if err != nil {
		return err
	}

	_, err = d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(num)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// BlockSize implements blockdev.Device.
func (d *Device) BlockSize() int { return d.blockSize }

// Close implements blockdev.Device.
func (d *Device) Close() error { return nil }

// UploadImage stores a whole-device image snapshot as a single object next
// to the block objects, using multipart upload for large images. The image
// is raw (no codec) so it can be restored with any tooling.
func (d *Device) UploadImage(ctx context.Context, name string, r io.Reader) error {
	uploader := manager.NewUploader(d.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path.Join(d.prefix, name)),
		Body:   r,
	})
	return err
}

// DownloadImage retrieves an image snapshot written by UploadImage. Parts
// are fetched concurrently into w.
func (d *Device) DownloadImage(ctx context.Context, name string, w io.WriterAt) error {
	downloader := manager.NewDownloader(d.client)
	_, err := downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path.Join(d.prefix, name)),
	})
	return err
}

func encode(p []byte, codec blockdev.Codec) ([]byte, error) {
	if codec == nil {
		return p, nil
	}
	return codec.Encode(p)
}

func decodeInto(p, body []byte, codec blockdev.Codec, blockSize int) error {
	if codec == nil {
		if len(body) != blockSize {
			return fmt.Errorf("%w: object is %d bytes, want %d", blockdev.ErrCodecCorrupt, len(body), blockSize)
		}
		copy(p, body)
		return nil
	}
	decoded, err := codec.Decode(body, blockSize)
	if err != nil {
		return err
	}
	copy(p, decoded)
	return nil
}
