package blockdev

import (
	"context"
	"errors"
	"sync"
)

// FaultyDevice is a Device wrapper that can inject transport errors. It is
// meant for tests exercising failure paths.
type FaultyDevice struct {
	inner Device

	mu              sync.Mutex
	err             error
	failAfterReads  int64 // fail reads once this many have succeeded; -1 disables
	failAfterWrites int64
	reads           int64
	writes          int64
}

// NewFaultyDevice wraps inner with fault injection disabled.
func NewFaultyDevice(inner Device) *FaultyDevice {
	return &FaultyDevice{
		inner:           inner,
		err:             errors.New("injected fault error"),
		failAfterReads:  -1,
		failAfterWrites: -1,
	}
}

// SetErr changes the injected error.
func (d *FaultyDevice) SetErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// FailReadsAfter makes reads fail once n have succeeded. n = 0 fails the
// next read; n < 0 disables read faults.
func (d *FaultyDevice) FailReadsAfter(n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAfterReads = n
	d.reads = 0
}

// FailWritesAfter makes writes fail once n have succeeded.
func (d *FaultyDevice) FailWritesAfter(n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAfterWrites = n
	d.writes = 0
}

// ReadBlock implements Device.
func (d *FaultyDevice) ReadBlock(ctx context.Context, num uint64, p []byte) error {
	d.mu.Lock()
	if d.failAfterReads >= 0 && d.reads >= d.failAfterReads {
		err := d.err
		d.mu.Unlock()
		return err
	}
	d.reads++
	d.mu.Unlock()

	return d.inner.ReadBlock(ctx, num, p)
}

// WriteBlock implements Device.
func (d *FaultyDevice) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	d.mu.Lock()
	if d.failAfterWrites >= 0 && d.writes >= d.failAfterWrites {
		err := d.err
		d.mu.Unlock()
		return err
	}
	d.writes++
	d.mu.Unlock()

	return d.inner.WriteBlock(ctx, num, p)
}

// BlockSize implements Device.
func (d *FaultyDevice) BlockSize() int { return d.inner.BlockSize() }

// Close implements Device.
func (d *FaultyDevice) Close() error { return d.inner.Close() }
