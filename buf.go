package blockcache

import (
	"fmt"
	"sync"
)

// DeviceID identifies an attached block device.
type DeviceID uint32

// reservedDev marks pool buffers that have never been assigned a client
// identity. Attach rejects it, so no lookup can ever match an unassigned
// buffer.
const reservedDev = ^DeviceID(0)

// BlockID is the identity of a cached block: a device and a block number on
// that device.
type BlockID struct {
	Dev DeviceID
	Num uint64
}

func (id BlockID) String() string {
	return fmt.Sprintf("dev=%d block=%d", id.Dev, id.Num)
}

// Buf is one cache slot. Buffers are embedded in the pool for the process
// lifetime; only their identity is born and dies, during eviction.
//
// A Buf returned by Cache.Read is exclusively held by the caller until the
// matching Cache.Release. ID and Data must not be used outside that window.
type Buf struct {
	mu   sync.Mutex // exclusive-use lock; held across device transfers
	held bool       // guarded by mu; true while a caller owns the buffer

	// valid is written under mu after a load, and during eviction while the
	// pool and shard locks are held. Eviction only runs at refcnt == 0, so no
	// holder can race it.
	valid bool

	// Guarded by the owning shard lock, plus the pool lock during eviction.
	id     BlockID
	refcnt int
	stamp  Tick // tick of the last refcnt zero-transition; meaningful only while idle

	data []byte // fixed block-size window into the pool arena
	ord  int32  // position in the pool array; never changes

	// Shard chain links by pool ordinal; -1 terminates a chain.
	// Guarded like id.
	next, prev int32
}

// ID returns the block identity this buffer currently represents.
func (b *Buf) ID() BlockID { return b.id }

// Data returns the payload. The slice is one block long and aliases the pool
// arena; it must only be read or written while the buffer is held.
func (b *Buf) Data() []byte { return b.data }

// Valid reports whether the payload reflects the durable content of ID.
// Buffers returned by Cache.Read are always valid.
func (b *Buf) Valid() bool { return b.valid }
