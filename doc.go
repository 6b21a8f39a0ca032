// Package blockcache provides a fixed-capacity, concurrently shared block
// cache for slow block-storage transports.
//
// The cache sits between many goroutines and one or more block devices. It
// hands out in-memory copies of device blocks, deduplicates concurrent
// requests for the same block, and recycles the least-recently-released
// buffer when the pool is full. All buffers live in a single arena allocated
// once at construction; nothing is allocated per request.
//
// # Quick Start
//
//	ctx := context.Background()
//	dev := blockdev.NewMemDevice(4096)
//
//	cache, err := blockcache.New(
//	    blockcache.WithNumSlots(128),
//	    blockcache.WithDevice(1, dev),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	buf, err := cache.Read(ctx, 1, 7) // exclusively held, payload loaded
//	if err != nil {
//	    panic(err)
//	}
//	copy(buf.Data(), payload)
//	if err := cache.Write(ctx, buf); err != nil { // write-through
//	    panic(err)
//	}
//	cache.Release(buf) // do not touch buf afterwards
//
// # Usage Rules
//
//   - Call Read before touching a buffer; call Release exactly once per Read.
//   - Never use a buffer after its matching Release.
//   - Pin/Unpin keep a buffer resident across acquire/release cycles without
//     taking its exclusive lock; pins must be balanced by the caller.
//   - Only one goroutine at a time holds a buffer, so do not keep buffers
//     longer than necessary.
//
// # Concurrency
//
// Index bookkeeping is protected by per-shard locks plus one pool-wide
// eviction lock; both are short-held and never held across a device transfer.
// Each buffer additionally carries an exclusive-use lock that is held across
// the transfer and the caller's read-modify-write of the payload. The
// exclusive lock is always acquired after every index lock has been released,
// which is the deadlock-avoidance invariant of the design.
//
// Contract violations (releasing or writing a buffer that is not held,
// exhausting the pool while every buffer is referenced) indicate corrupted
// shared state or a reference leak and panic with a typed error value rather
// than returning an error. Transport faults are returned as ordinary errors
// and are fatal to the calling operation only; the cache performs no retries.
package blockcache
