package blockcache

import (
	"encoding/binary"
	"hash/maphash"
	"sync"
)

// shard is one partition of the identity index. Chain membership, reference
// counts and recency stamps of the buffers on the chain are guarded by mu.
type shard struct {
	mu   sync.Mutex
	head int32 // ordinal of the first buffer on the chain; -1 when empty
}

// shardOf maps an identity to its shard key using a seeded maphash over the
// packed (device, block) pair.
func (c *Cache) shardOf(id BlockID) uint32 {
	var h maphash.Hash
	h.SetSeed(c.seed)

	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(id.Dev))
	binary.LittleEndian.PutUint64(buf[4:12], id.Num)
	_, _ = h.Write(buf[:])

	return uint32(h.Sum64() % uint64(len(c.shards)))
}

// findLocked scans shard key's chain for id. Caller holds the shard lock.
func (c *Cache) findLocked(key uint32, id BlockID) *Buf {
	for ord := c.shards[key].head; ord >= 0; ord = c.bufs[ord].next {
		if c.bufs[ord].id == id {
			return &c.bufs[ord]
		}
	}
	return nil
}

// insertLocked links b at the head of shard key's chain. Caller holds the
// shard lock; b must not currently be on any chain.
func (c *Cache) insertLocked(key uint32, b *Buf) {
	if int(key) >= len(c.shards) {
		panic(&InvalidShardError{Key: key, Shards: len(c.shards)})
	}

	sh := &c.shards[key]
	b.prev = -1
	b.next = sh.head
	if sh.head >= 0 {
		c.bufs[sh.head].prev = b.ord
	}
	sh.head = b.ord
}

// removeLocked unlinks b from shard key's chain. Caller holds the shard lock.
func (c *Cache) removeLocked(key uint32, b *Buf) {
	if int(key) >= len(c.shards) {
		panic(&InvalidShardError{Key: key, Shards: len(c.shards)})
	}

	sh := &c.shards[key]
	if b.prev >= 0 {
		c.bufs[b.prev].next = b.next
	} else {
		sh.head = b.next
	}
	if b.next >= 0 {
		c.bufs[b.next].prev = b.prev
	}
	b.next = -1
	b.prev = -1
}
