package blockcache

import "sync/atomic"

// Tick is a recency stamp. Absolute values are meaningless; only the relative
// order among idle buffers matters.
type Tick uint64

// TickSource provides monotonically non-decreasing ticks. The cache stamps a
// tick whenever a buffer's reference count drops to zero; eviction prefers
// the smallest stamp.
type TickSource interface {
	Now() Tick
}

// LogicalTicks is the default TickSource: an atomic counter that advances on
// every call. It orders idle transitions without consulting the wall clock,
// which also makes eviction order deterministic in tests.
type LogicalTicks struct {
	n atomic.Uint64
}

// Now returns the next tick.
func (t *LogicalTicks) Now() Tick {
	return Tick(t.n.Add(1))
}
