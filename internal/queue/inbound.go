package queue

import "time"

// DefaultCapacity is the inbound frame limit between two pumps.
const DefaultCapacity = 1024

// RawFrame is one undecoded MIDI frame and the moment it was received.
type RawFrame struct {
	Timestamp uint64 // microseconds on the queue's monotonic clock
	Bytes     []byte
}

// Inbound buffers frames from a backend callback until the pump drains them.
// Callbacks keep a pointer to the Inbound, so it stays valid for as long as a
// backend may still call into it, even after the transport is closed.
type Inbound struct {
	*Bounded[RawFrame]
	now func() uint64
}

// NewInbound returns a queue stamping frames with a monotonic clock.
func NewInbound(capacity int) *Inbound {
	return NewInboundWithClock(capacity, monotonicClock())
}

// NewInboundWithClock uses now, in microseconds, for timestamps.
func NewInboundWithClock(capacity int, now func() uint64) *Inbound {
	return &Inbound{Bounded: NewBounded[RawFrame](capacity), now: now}
}

// Enqueue copies b, stamps it and appends it. Empty frames are ignored.
// It reports false when the frame was not queued.
func (q *Inbound) Enqueue(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	ts := q.now()
	data := make([]byte, len(b))
	copy(data, b)
	return q.Push(RawFrame{Timestamp: ts, Bytes: data})
}

func monotonicClock() func() uint64 {
	epoch := time.Now()
	return func() uint64 {
		return uint64(time.Since(epoch).Microseconds())
	}
}
