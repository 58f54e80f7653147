package rcradio

import "sync/atomic"

// doubleBuffer implements the double-buffered "latest control record":
// two slots, and an index identifying the freshest one. The writer
// (thread-mode SetData) fills the non-current
// slot and then publishes the new index with a single atomic store; the
// reader (the timer-fire handler, conceptually running at interrupt
// level) loads the index once and then copies out that slot. No lock is
// held across the publish, so the reader never observes a half-written
// record.
//
// index uses noSlot as a sentinel meaning "nothing published yet", so
// the first Write unambiguously becomes slot 0 without the reader ever
// seeing slot 1's zero value mistaken for real data.
type doubleBuffer struct {
	slots [2]ControlData
	index atomic.Uint32
}

const noSlot = 2 // past-the-end sentinel; never a valid slot index

func newDoubleBuffer() *doubleBuffer {
	b := &doubleBuffer{}
	b.index.Store(noSlot)
	return b
}

// Write copies v into the non-current slot and publishes it. It returns
// true if this was the first write (index was noSlot beforehand).
// SetData does not use this result; it starts binding based on the
// link's state.
func (b *doubleBuffer) Write(v ControlData) (firstWrite bool) {
	cur := b.index.Load()
	first := cur == noSlot
	next := uint32(0)
	if !first {
		next = (cur + 1) % 2
	}
	b.slots[next] = v
	b.index.Store(next)
	return first
}

// Read copies out the freshest published slot. ok is false if nothing
// has been published yet.
func (b *doubleBuffer) Read() (v ControlData, ok bool) {
	idx := b.index.Load()
	if idx == noSlot {
		return ControlData{}, false
	}
	return b.slots[idx], true
}
