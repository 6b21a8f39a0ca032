package blockcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordRead is called after each read operation.
	// duration is the total time taken, err is nil if successful.
	RecordRead(duration time.Duration, err error)

	// RecordWrite is called after each write-through operation.
	RecordWrite(duration time.Duration, err error)

	// RecordEviction is called whenever a buffer's identity is reassigned.
	RecordEviction()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRead(time.Duration, error)  {}
func (NoopMetricsCollector) RecordWrite(time.Duration, error) {}
func (NoopMetricsCollector) RecordEviction()                  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadTotalNanos  atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteTotalNanos atomic.Int64
	EvictionCount   atomic.Int64
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction() {
	b.EvictionCount.Add(1)
}

// BasicMetricsStats is a snapshot of collected metrics.
type BasicMetricsStats struct {
	ReadCount     int64
	ReadErrors    int64
	ReadAvgNanos  int64
	WriteCount    int64
	WriteErrors   int64
	WriteAvgNanos int64
	EvictionCount int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		ReadCount:     b.ReadCount.Load(),
		ReadErrors:    b.ReadErrors.Load(),
		WriteCount:    b.WriteCount.Load(),
		WriteErrors:   b.WriteErrors.Load(),
		EvictionCount: b.EvictionCount.Load(),
	}
	if s.ReadCount > 0 {
		s.ReadAvgNanos = b.ReadTotalNanos.Load() / s.ReadCount
	}
	if s.WriteCount > 0 {
		s.WriteAvgNanos = b.WriteTotalNanos.Load() / s.WriteCount
	}
	return s
}
