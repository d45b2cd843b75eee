package sim

import "sync/atomic"

// SerialAllocator issues globally unique candidate serial numbers. It is the
// only mutable state shared across candidate-processing calls, so Next is
// atomic: workers splitting candidates in parallel never observe a duplicate.
//
// The counter is an explicit object with a defined lifecycle -- Reset once at
// run start, Next thereafter -- rather than an implicit process-wide global.
// No wraparound handling; 64 bits outlast any realistic run.
type SerialAllocator struct {
	next atomic.Uint64
}

// NewSerialAllocator returns an allocator whose first issued value is 0.
func NewSerialAllocator() *SerialAllocator {
	return &SerialAllocator{}
}

// Reset sets the next value to be issued. Call once at simulation-run start,
// never while workers are active.
func (a *SerialAllocator) Reset(start uint64) {
	a.next.Store(start)
}

// Next returns the current counter value and increments it atomically.
func (a *SerialAllocator) Next() uint64 {
	return a.next.Add(1) - 1
}
