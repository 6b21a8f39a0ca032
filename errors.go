package blockcache

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotAttached is returned by Read or Write when the buffer's
	// device has no transport attached.
	ErrDeviceNotAttached = errors.New("blockcache: device not attached")

	// ErrDeviceAttached is returned by Attach when the device id is already
	// in use.
	ErrDeviceAttached = errors.New("blockcache: device already attached")

	// ErrBlockSizeMismatch is returned by Attach when the device block size
	// differs from the cache block size.
	ErrBlockSizeMismatch = errors.New("blockcache: block size mismatch")

	// ErrReservedDeviceID is returned by Attach for the device id the pool
	// reserves for unassigned buffers.
	ErrReservedDeviceID = errors.New("blockcache: reserved device id")
)

// CacheExhaustedError is the panic value raised when an eviction scan finds
// no buffer with a zero reference count. Every slot being referenced at once
// is a resource-sizing bug or a reference leak, not a transient condition,
// so the operation is not retried.
type CacheExhaustedError struct {
	Slots int
}

func (e *CacheExhaustedError) Error() string {
	return fmt.Sprintf("blockcache: all %d buffers in use", e.Slots)
}

// ContractViolationError is the panic value raised when Write or Release is
// invoked on a buffer whose exclusive lock the caller does not hold. This
// indicates corrupted shared state, not a recoverable failure.
type ContractViolationError struct {
	Op string
	ID BlockID
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("blockcache: %s on unheld buffer (%v)", e.Op, e.ID)
}

// InvalidShardError is the panic value raised by the defensive shard-index
// checks on chain mutation.
type InvalidShardError struct {
	Key    uint32
	Shards int
}

func (e *InvalidShardError) Error() string {
	return fmt.Sprintf("blockcache: shard key %d out of range (shards=%d)", e.Key, e.Shards)
}
