package blockdev

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// MemDevice is an in-memory Device, primarily for tests and ephemeral use.
// Written block numbers are tracked in a roaring bitmap, which stays compact
// even for sparse writes over a large address space.
type MemDevice struct {
	blockSize int

	mu      sync.RWMutex
	blocks  map[uint64][]byte
	written *roaring64.Bitmap
	closed  bool

	reads  atomic.Int64
	writes atomic.Int64
}

// NewMemDevice creates an empty in-memory device with the given block size.
func NewMemDevice(blockSize int) *MemDevice {
	return &MemDevice{
		blockSize: blockSize,
		blocks:    make(map[uint64][]byte),
		written:   roaring64.New(),
	}
}

// ReadBlock implements Device. Unwritten blocks read as zeroes.
func (m *MemDevice) ReadBlock(ctx context.Context, num uint64, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) != m.blockSize {
		return ErrBufferSize
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	m.reads.Add(1)

	if blk, ok := m.blocks[num]; ok {
		copy(p, blk)
	} else {
		clear(p)
	}
	return nil
}

// WriteBlock implements Device.
func (m *MemDevice) WriteBlock(ctx context.Context, num uint64, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) != m.blockSize {
		return ErrBufferSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.writes.Add(1)

	blk, ok := m.blocks[num]
	if !ok {
		blk = make([]byte, m.blockSize)
		m.blocks[num] = blk
	}
	copy(blk, p)
	m.written.Add(num)
	return nil
}

// BlockSize implements Device.
func (m *MemDevice) BlockSize() int { return m.blockSize }

// Close implements Device. Further transfers fail with ErrClosed.
func (m *MemDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Contains reports whether block num has ever been written.
func (m *MemDevice) Contains(num uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written.Contains(num)
}

// Written returns the number of distinct blocks ever written.
func (m *MemDevice) Written() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written.GetCardinality()
}

// Reads returns the number of read transfers issued against the device.
func (m *MemDevice) Reads() int64 { return m.reads.Load() }

// Writes returns the number of write transfers issued against the device.
func (m *MemDevice) Writes() int64 { return m.writes.Load() }
