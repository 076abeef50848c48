package wire

import (
	"sync/atomic"
	"time"
)

var lastTempID atomic.Int64

// NewTempID returns a client-generated correlation id derived from the
// current wall clock in milliseconds. Ids are strictly increasing within
// the process, so two sends inside the same millisecond cannot collide.
func NewTempID() int64 {
	for {
		id := time.Now().UnixMilli()
		last := lastTempID.Load()
		if id <= last {
			id = last + 1
		}
		if lastTempID.CompareAndSwap(last, id) {
			return id
		}
	}
}
