package blockdev

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/blockcache/internal/hash"
)

// ErrChecksum is returned when a block read back from the inner device does
// not match the checksum recorded when it was written.
var ErrChecksum = errors.New("blockdev: block checksum mismatch")

// ChecksumDevice wraps a Device and verifies block integrity across the
// transport. A CRC32C is recorded per written block and checked on read,
// catching torn or corrupted transfers. Blocks never written through this
// wrapper are not checked.
type ChecksumDevice struct {
	inner Device

	mu   sync.Mutex
	sums map[uint64]uint32
}

// NewChecksumDevice creates an integrity-checking wrapper around inner.
func NewChecksumDevice(inner Device) *ChecksumDevice {
	return &ChecksumDevice{
		inner: inner,
		sums:  make(map[uint64]uint32),
	}
}

// ReadBlock implements Device.
func (d *ChecksumDevice) ReadBlock(ctx context.Context, num uint64, p []byte) error {
	if err := d.inner.ReadBlock(ctx, num, p); err != nil {
		return err
	}

	d.mu.Lock()
	want, ok := d.sums[num]
	d.mu.Unlock()
	if !ok {
		return nil
	}

	if got := hash.CRC32C(p); got != want {
		return fmt.Errorf("%w: block %d: got %08x, want %08x", ErrChecksum, num, got, want)
	}
	return nil
}

// WriteBlock implements Device.
func (d *ChecksumDevice) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	sum := hash.CRC32C(p)
	if err := d.inner.WriteBlock(ctx, num, p); err != nil {
		return err
	}

	d.mu.Lock()
	d.sums[num] = sum
	d.mu.Unlock()
	return nil
}

// BlockSize implements Device.
func (d *ChecksumDevice) BlockSize() int { return d.inner.BlockSize() }

// Close implements Device.
func (d *ChecksumDevice) Close() error { return d.inner.Close() }
