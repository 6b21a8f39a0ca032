package blockdev

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledDevice wraps a Device with a byte-rate limit across reads and
// writes. Transfers wait for budget before reaching the inner device.
type ThrottledDevice struct {
	inner   Device
	limiter *rate.Limiter
}

// NewThrottledDevice limits inner to bytesPerSec. The burst equals one
// second of budget, so bytesPerSec must be at least the device block size.
func NewThrottledDevice(inner Device, bytesPerSec int64) *ThrottledDevice {
	return &ThrottledDevice{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec)),
	}
}

// ReadBlock implements Device.
func (t *ThrottledDevice) ReadBlock(ctx context.Context, num uint64, p []byte) error {
	if err := t.limiter.WaitN(ctx, len(p)); err != nil {
		return err
	}
	return t.inner.ReadBlock(ctx, num, p)
}

// WriteBlock implements Device.
func (t *ThrottledDevice) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	if err := t.limiter.WaitN(ctx, len(p)); err != nil {
		return err
	}
	return t.inner.WriteBlock(ctx, num, p)
}

// BlockSize implements Device.
func (t *ThrottledDevice) BlockSize() int { return t.inner.BlockSize() }

// Close implements Device.
func (t *ThrottledDevice) Close() error { return t.inner.Close() }
