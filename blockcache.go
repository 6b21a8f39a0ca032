package blockcache

import (
	"context"
	"fmt"
	"hash/maphash"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/blockcache/blockdev"
	"github.com/hupe1980/blockcache/internal/resource"
)

// warmConcurrency bounds parallel loads issued by Warm.
const warmConcurrency = 8

// Cache is a fixed-capacity block cache shared by many goroutines. It is
// constructed once via New; pool geometry is immutable afterwards.
type Cache struct {
	blockSize int

	arena  []byte  // one contiguous allocation backing every payload
	bufs   []Buf   // the pool; buffers never move
	shards []shard // identity index partitions
	seed   maphash.Seed

	// evictMu is the pool lock. It serializes the miss rescan and the global
	// LRU scan, and is never acquired while a shard lock is held.
	evictMu sync.Mutex

	ticks   TickSource
	rc      *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	devMu sync.RWMutex
	devs  map[DeviceID]blockdev.Device

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a cache. All buffers start unassigned and invalid, spread over
// the shard chains so the first misses can claim them without relocation.
func New(optFns ...Option) (*Cache, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	if o.numSlots <= 0 {
		return nil, fmt.Errorf("blockcache: invalid slot count %d", o.numSlots)
	}
	if o.numShards <= 0 {
		return nil, fmt.Errorf("blockcache: invalid shard count %d", o.numShards)
	}
	if o.blockSize <= 0 {
		return nil, fmt.Errorf("blockcache: invalid block size %d", o.blockSize)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:     o.memoryLimit,
		MaxInflightTransfers: o.maxInflightTransfers,
		IOLimitBytesPerSec:   o.ioLimit,
	})
	arenaSize := int64(o.numSlots) * int64(o.blockSize)
	if err := rc.AcquireMemory(arenaSize); err != nil {
		return nil, fmt.Errorf("blockcache: pool arena (%d bytes): %w", arenaSize, err)
	}

	c := &Cache{
		blockSize: o.blockSize,
		arena:     make([]byte, arenaSize),
		bufs:      make([]Buf, o.numSlots),
		shards:    make([]shard, o.numShards),
		seed:      maphash.MakeSeed(),
		ticks:     o.ticks,
		rc:        rc,
		logger:    o.logger,
		metrics:   o.metrics,
		devs:      make(map[DeviceID]blockdev.Device, len(o.devices)),
	}

	for i := range c.shards {
		c.shards[i].head = -1
	}
	for i := range c.bufs {
		b := &c.bufs[i]
		b.ord = int32(i)
		b.data = c.arena[i*o.blockSize : (i+1)*o.blockSize : (i+1)*o.blockSize]
		b.id = BlockID{Dev: reservedDev, Num: uint64(i)}
		b.next = -1
		b.prev = -1
		c.insertLocked(c.shardOf(b.id), b)
	}

	for id, dev := range o.devices {
		if err := c.Attach(id, dev); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("cache initialized",
		"slots", o.numSlots,
		"shards", o.numShards,
		"block_size", o.blockSize,
	)

	return c, nil
}

// Attach registers a device under id. The device block size must match the
// cache block size. Attach may be called at any time, but blocks of an
// unattached device cannot be read or written.
func (c *Cache) Attach(id DeviceID, dev blockdev.Device) error {
	if id == reservedDev {
		return fmt.Errorf("%w: %d", ErrReservedDeviceID, id)
	}
	if dev.BlockSize() != c.blockSize {
		return fmt.Errorf("%w: device %d has block size %d, cache uses %d",
			ErrBlockSizeMismatch, id, dev.BlockSize(), c.blockSize)
	}

	c.devMu.Lock()
	defer c.devMu.Unlock()

	if _, ok := c.devs[id]; ok {
		return fmt.Errorf("%w: %d", ErrDeviceAttached, id)
	}
	c.devs[id] = dev
	return nil
}

func (c *Cache) device(id DeviceID) (blockdev.Device, error) {
	c.devMu.RLock()
	defer c.devMu.RUnlock()

	d, ok := c.devs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotAttached, id)
	}
	return d, nil
}

// Warm loads the given blocks into the cache and releases them immediately,
// so later reads hit. Loads run concurrently; the first transport error
// cancels the remaining ones.
func (c *Cache) Warm(ctx context.Context, dev DeviceID, nums []uint64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)

	for _, num := range nums {
		num := num
		g.Go(func() error {
			b, err := c.Read(ctx, dev, num)
			if err != nil {
				return err
			}
			c.Release(b)
			return nil
		})
	}
	return g.Wait()
}

// CacheStats is a point-in-time snapshot of cache counters and geometry.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Slots     int
	Shards    int
	BlockSize int
}

// Stats returns current counters. Hits and misses are counted per acquire,
// not per transport transfer.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Slots:     len(c.bufs),
		Shards:    len(c.shards),
		BlockSize: c.blockSize,
	}
}

// Close closes every attached device. The pool itself needs no teardown; it
// lives for the process lifetime.
func (c *Cache) Close() error {
	c.devMu.Lock()
	defer c.devMu.Unlock()

	var firstErr error
	for id, dev := range c.devs {
		if err := dev.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("blockcache: close device %d: %w", id, err)
		}
	}
	return firstErr
}
