// Package blockdev provides block-storage transports for the cache.
//
// A Device moves exactly one block per transfer, synchronously. MemDevice
// and FileDevice are self-contained backends; ThrottledDevice,
// ChecksumDevice and FaultyDevice wrap another Device to add throughput
// limits, integrity checks and test fault injection. Object-store backends
// live in the s3 and minio subpackages and can compress blocks at rest via a
// Codec.
package blockdev
