package blockcache

// acquire returns the buffer for id with its exclusive lock held and its
// reference count incremented, allocating by eviction on a miss.
//
// Lock protocol: the fast path takes only the target shard lock. On a miss
// the shard lock is dropped before the pool lock is taken; holding a shard
// lock while waiting for the pool lock would invert order against a
// concurrent miss in another shard. The exclusive lock is acquired strictly
// after every index lock has been released.
func (c *Cache) acquire(id BlockID) *Buf {
	key := c.shardOf(id)
	sh := &c.shards[key]

	sh.mu.Lock()
	if b := c.findLocked(key, id); b != nil {
		b.refcnt++
		sh.mu.Unlock()
		c.hits.Add(1)

		b.mu.Lock()
		b.held = true
		return b
	}
	sh.mu.Unlock()
	c.misses.Add(1)

	c.evictMu.Lock()

	// Rescan: another miss may have inserted id while no lock was held.
	sh.mu.Lock()
	if b := c.findLocked(key, id); b != nil {
		b.refcnt++
		sh.mu.Unlock()
		c.evictMu.Unlock()

		b.mu.Lock()
		b.held = true
		return b
	}
	sh.mu.Unlock()

	b, victimKey := c.scanVictim()
	if b == nil {
		c.evictMu.Unlock()
		panic(&CacheExhaustedError{Slots: len(c.bufs)})
	}

	old := b.id
	c.removeLocked(victimKey, b)
	if victimKey != key {
		c.shards[victimKey].mu.Unlock()
		sh.mu.Lock()
	}
	b.id = id
	b.valid = false
	b.refcnt = 1
	c.insertLocked(key, b)
	sh.mu.Unlock()
	c.evictMu.Unlock()

	c.evictions.Add(1)
	c.metrics.RecordEviction()
	c.logger.LogEvict(old, id)

	b.mu.Lock()
	b.held = true
	return b
}

// scanVictim visits every shard in ordinal order and tracks the idle buffer
// with the globally smallest recency stamp. A shard's lock is released as
// soon as the scan moves on, unless that shard holds the best candidate so
// far; then it stays held until a later shard produces a better one. On
// return the victim's shard lock is the only shard lock still held.
//
// Ties go to the candidate encountered last in scan order.
//
// Caller holds the pool lock and no shard locks.
func (c *Cache) scanVictim() (*Buf, uint32) {
	var (
		best     *Buf
		bestKey  uint32
		haveBest bool
	)

	for i := range c.shards {
		key := uint32(i)
		c.shards[key].mu.Lock()

		improved := false
		for ord := c.shards[key].head; ord >= 0; ord = c.bufs[ord].next {
			t := &c.bufs[ord]
			if t.refcnt == 0 && (best == nil || t.stamp <= best.stamp) {
				best = t
				improved = true
			}
		}

		if improved {
			if haveBest && bestKey != key {
				c.shards[bestKey].mu.Unlock()
			}
			bestKey = key
			haveBest = true
		} else {
			c.shards[key].mu.Unlock()
		}
	}

	if best == nil {
		return nil, 0
	}
	return best, bestKey
}
