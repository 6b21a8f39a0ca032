package blockcache

import (
	"context"
	"fmt"
	"time"
)

// Read returns an exclusively held buffer containing the durable content of
// the block. On a cache hit no transfer is issued; on a miss (or a buffer
// whose identity was just reassigned) the block is loaded synchronously from
// the attached device.
//
// The caller must pass the buffer to Release exactly once when done.
func (c *Cache) Read(ctx context.Context, dev DeviceID, num uint64) (*Buf, error) {
	start := time.Now()
	id := BlockID{Dev: dev, Num: num}

	b := c.acquire(id)

	var err error
	loaded := false
	if !b.valid {
		err = c.load(ctx, b)
		loaded = err == nil
	}

	c.metrics.RecordRead(time.Since(start), err)
	c.logger.LogRead(ctx, id, loaded, err)

	if err != nil {
		// Give the reference back so a failed load cannot leak the slot. The
		// buffer stays identified but invalid; a later read retries the load.
		c.Release(b)
		return nil, err
	}
	return b, nil
}

// load fills b's payload from its device. Caller holds b's exclusive lock
// and no index locks, so the transfer may block freely.
func (c *Cache) load(ctx context.Context, b *Buf) error {
	d, err := c.device(b.id.Dev)
	if err != nil {
		return err
	}

	if err := c.rc.BeginTransfer(ctx); err != nil {
		return err
	}
	defer c.rc.EndTransfer()
	if err := c.rc.AcquireIO(ctx, len(b.data)); err != nil {
		return err
	}

	if err := d.ReadBlock(ctx, b.id.Num, b.data); err != nil {
		return fmt.Errorf("blockcache: load %v: %w", b.id, err)
	}
	b.valid = true
	return nil
}

// Write stores the buffer's payload through to its device block. There is no
// delayed writeback; the transfer completes before Write returns.
//
// The caller must hold the buffer via Read; calling Write on an unheld
// buffer panics with a ContractViolationError.
func (c *Cache) Write(ctx context.Context, b *Buf) error {
	if !b.held {
		panic(&ContractViolationError{Op: "Write", ID: b.id})
	}

	start := time.Now()
	err := c.store(ctx, b)
	c.metrics.RecordWrite(time.Since(start), err)
	c.logger.LogWrite(ctx, b.id, err)
	return err
}

func (c *Cache) store(ctx context.Context, b *Buf) error {
	d, err := c.device(b.id.Dev)
	if err != nil {
		return err
	}

	if err := c.rc.BeginTransfer(ctx); err != nil {
		return err
	}
	defer c.rc.EndTransfer()
	if err := c.rc.AcquireIO(ctx, len(b.data)); err != nil {
		return err
	}

	if err := d.WriteBlock(ctx, b.id.Num, b.data); err != nil {
		return fmt.Errorf("blockcache: store %v: %w", b.id, err)
	}
	return nil
}
