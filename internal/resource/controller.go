package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds transport and memory limits for one cache instance.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory (the pool
	// arena). If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxInflightTransfers bounds concurrent device transfers.
	// If 0, unlimited.
	MaxInflightTransfers int64

	// IOLimitBytesPerSec is the maximum transport throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages resources shared by all operations of a cache. A nil
// Controller is valid and enforces nothing.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Transfers
	xferSem *semaphore.Weighted // nil if unlimited

	// IO
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.MaxInflightTransfers > 0 {
		c.xferSem = semaphore.NewWeighted(cfg.MaxInflightTransfers)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
// Non-blocking - callers control retry/backoff policy.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsed returns the currently reserved memory in bytes.
func (c *Controller) MemoryUsed() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// BeginTransfer reserves an in-flight transfer slot, blocking when the limit
// is reached. Every successful call must be paired with EndTransfer.
func (c *Controller) BeginTransfer(ctx context.Context) error {
	if c == nil || c.xferSem == nil {
		return nil
	}
	return c.xferSem.Acquire(ctx, 1)
}

// EndTransfer releases a slot taken by BeginTransfer.
func (c *Controller) EndTransfer() {
	if c == nil || c.xferSem == nil {
		return
	}
	c.xferSem.Release(1)
}

// AcquireIO waits until n bytes of transport budget are available.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, n)
}
