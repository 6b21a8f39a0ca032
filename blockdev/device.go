package blockdev

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned for transfers on a closed device.
	ErrClosed = errors.New("blockdev: device closed")

	// ErrBufferSize is returned when the transfer buffer length does not
	// match the device block size.
	ErrBufferSize = errors.New("blockdev: buffer length does not match block size")
)

// Device is a synchronous block-storage transport. Transfers move exactly one
// block and block the caller until complete; cancellation, if any, comes from
// the context. Implementations must be safe for concurrent use.
type Device interface {
	// ReadBlock fills p with the durable content of block num. p must be
	// exactly BlockSize bytes long. Blocks that were never written read as
	// zeroes, like a fresh disk.
	ReadBlock(ctx context.Context, num uint64, p []byte) error

	// WriteBlock stores p as the durable content of block num.
	WriteBlock(ctx context.Context, num uint64, p []byte) error

	// BlockSize returns the transfer unit in bytes.
	BlockSize() int

	// Close releases any resources held by the device.
	Close() error
}
