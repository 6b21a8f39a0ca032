package blockdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// FileDevice is a Device backed by a regular file. Block num lives at byte
// offset num*blockSize; reads past the current end of file zero-fill, so a
// sparse or freshly created file behaves like a blank disk.
type FileDevice struct {
	f          *os.File
	blockSize  int
	syncWrites bool
}

// OpenFileDevice opens (creating if necessary) a file-backed device. With
// syncWrites set, every WriteBlock is followed by fdatasync, so the transfer
// does not complete until the block is durable.
func OpenFileDevice(path string, blockSize int, syncWrites bool) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: open %s: %w", path, err)
	}
	return &FileDevice{
		f:          f,
		blockSize:  blockSize,
		syncWrites: syncWrites,
	}, nil
}

// ReadBlock implements Device.
func (d *FileDevice) ReadBlock(ctx context.Context, num uint64, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) != d.blockSize {
		return ErrBufferSize
	}

	n, err := d.f.ReadAt(p, int64(num)*int64(d.blockSize))
	if errors.Is(err, io.EOF) {
		clear(p[n:])
		return nil
	}
	return err
}

// WriteBlock implements Device.
func (d *FileDevice) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) != d.blockSize {
		return ErrBufferSize
	}

	if _, err := d.f.WriteAt(p, int64(num)*int64(d.blockSize)); err != nil {
		return err
	}
	if d.syncWrites {
		return datasync(d.f)
	}
	return nil
}

// BlockSize implements Device.
func (d *FileDevice) BlockSize() int { return d.blockSize }

// Close implements Device.
func (d *FileDevice) Close() error { return d.f.Close() }
