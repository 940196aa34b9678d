package machine

import "sync/atomic"

// Ring is a fixed-capacity single-producer/single-consumer triple
// buffer: Publish never blocks the producer and Consume always
// returns the most recently completed value, discarding whatever the
// consumer hasn't caught up to rather than stalling either side. This
// is the SPSC hand-off spec.md requires between the emulator's frame
// loop and a host audio/video thread, built the same way the teacher's
// ULA publishes completed raster buffers to its render goroutine:
// three slots, one atomically-swapped index naming the latest complete
// one, the other two split between whichever side isn't touching it.
type Ring[T any] struct {
	slots     [3]T
	writeIdx  int
	sharedIdx atomic.Int32
	readIdx   int
}

// NewRing builds a Ring, calling makeEmpty once per slot so each one
// starts as a correctly-shaped value (e.g. a pre-sized frame buffer
// slice) instead of T's zero value.
func NewRing[T any](makeEmpty func() T) *Ring[T] {
	r := &Ring[T]{writeIdx: 0, readIdx: 2}
	for i := range r.slots {
		r.slots[i] = makeEmpty()
	}
	r.sharedIdx.Store(1)
	return r
}

// Publish calls fill with the producer's current slot, then publishes
// it by swapping it into sharedIdx, taking back whatever slot the
// consumer most recently released.
func (r *Ring[T]) Publish(fill func(T)) {
	fill(r.slots[r.writeIdx])
	r.writeIdx = int(r.sharedIdx.Swap(int32(r.writeIdx)|ringFresh) &^ ringFresh)
}

// ringFresh is set in sharedIdx alongside the slot index while that
// slot holds a value Consume has not yet taken.
const ringFresh = 4

// Consume swaps in the most recently published slot and returns it.
// Calling Consume again before the next Publish returns the same
// value; nothing queues.
func (r *Ring[T]) Consume() T {
	if r.sharedIdx.Load()&ringFresh != 0 {
		r.readIdx = int(r.sharedIdx.Swap(int32(r.readIdx)) &^ ringFresh)
	}
	return r.slots[r.readIdx]
}
