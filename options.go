package blockcache

import "github.com/hupe1980/blockcache/blockdev"

// Defaults for pool geometry. Slot and shard counts are fixed at New; there
// is no runtime resizing.
const (
	DefaultNumSlots  = 128
	DefaultNumShards = 13 // small prime, spreads identities across buckets
	DefaultBlockSize = 4096
)

type options struct {
	numSlots  int
	numShards int
	blockSize int

	ticks   TickSource
	logger  *Logger
	metrics MetricsCollector
	devices map[DeviceID]blockdev.Device

	memoryLimit          int64
	maxInflightTransfers int64
	ioLimit              int64
}

func defaultOptions() options {
	return options{
		numSlots:  DefaultNumSlots,
		numShards: DefaultNumShards,
		blockSize: DefaultBlockSize,
		ticks:     &LogicalTicks{},
		logger:    NoopLogger(),
		metrics:   NoopMetricsCollector{},
		devices:   make(map[DeviceID]blockdev.Device),
	}
}

// Option configures New.
type Option func(*options)

// WithNumSlots sets the number of buffers in the pool. This bounds how many
// distinct blocks can be resident at once.
func WithNumSlots(n int) Option {
	return func(o *options) {
		o.numSlots = n
	}
}

// WithNumShards sets the number of index partitions. More shards reduce lock
// contention on the hit path; a small prime spreads identities well.
func WithNumShards(n int) Option {
	return func(o *options) {
		o.numShards = n
	}
}

// WithBlockSize sets the payload size in bytes. Every attached device must
// use the same block size.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithDevice attaches a device during construction. Equivalent to calling
// Attach after New; New fails if the device is rejected.
func WithDevice(id DeviceID, dev blockdev.Device) Option {
	return func(o *options) {
		o.devices[id] = dev
	}
}

// WithTickSource overrides the recency tick source. The source must be
// monotonically non-decreasing; tests inject deterministic sources here.
func WithTickSource(ts TickSource) Option {
	return func(o *options) {
		if ts == nil {
			ts = &LogicalTicks{}
		}
		o.ticks = ts
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithMemoryLimit caps the pool arena allocation. New fails if the arena
// (slots times block size) would exceed the limit. Zero means no limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxInflightTransfers bounds concurrent device transfers issued by the
// cache. Zero means unlimited.
func WithMaxInflightTransfers(n int64) Option {
	return func(o *options) {
		o.maxInflightTransfers = n
	}
}

// WithIOLimit caps transport throughput in bytes per second across all
// attached devices. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}
