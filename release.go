package blockcache

// Release gives up an exclusively held buffer. The exclusive lock is dropped
// first, so the payload becomes inaccessible to this caller before any
// bookkeeping changes; then the reference count is decremented under the
// shard lock.
//
// The recency stamp is written only here, and only when the reference count
// reaches zero. Stamping on every hit, or capturing the tick before the
// exclusive lock is released, both produce wrong eviction order.
//
// Releasing a buffer that is not held panics with a ContractViolationError.
func (c *Cache) Release(b *Buf) {
	if !b.held {
		panic(&ContractViolationError{Op: "Release", ID: b.id})
	}
	b.held = false

	// The identity cannot change until the decrement below: our reference is
	// still counted, so eviction cannot select this buffer.
	id := b.id
	b.mu.Unlock()

	key := c.shardOf(id)
	sh := &c.shards[key]
	sh.mu.Lock()
	b.refcnt--
	if b.refcnt == 0 {
		b.stamp = c.ticks.Now()
	}
	sh.mu.Unlock()
}

// Pin takes an extra reference on the buffer without its exclusive lock,
// keeping it resident across acquire/release cycles. Callers such as a
// journal pin a block before releasing it and unpin once the multi-step
// transaction no longer needs it. Pins must be balanced with Unpin.
func (c *Cache) Pin(b *Buf) {
	key := c.shardOf(b.id)
	sh := &c.shards[key]
	sh.mu.Lock()
	b.refcnt++
	sh.mu.Unlock()
}

// Unpin drops a reference taken by Pin. A buffer whose last pin is dropped
// becomes eligible for eviction; its recency stamp is taken at that moment.
func (c *Cache) Unpin(b *Buf) {
	key := c.shardOf(b.id)
	sh := &c.shards[key]
	sh.mu.Lock()
	b.refcnt--
	if b.refcnt == 0 {
		b.stamp = c.ticks.Now()
	}
	sh.mu.Unlock()
}
