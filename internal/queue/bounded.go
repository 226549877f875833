// Package queue hands data from backend goroutines to the pump goroutine.
//
// The mutex inside Bounded is the only synchronization in the transport. It is
// held for one append or one slice swap, never while frames are decoded or
// dispatched.
package queue

import (
	"sync"
	"sync/atomic"
)

// Bounded is a FIFO with a fixed capacity that drops new items when full.
// Any number of goroutines may Push; exactly one goroutine should DrainAll.
type Bounded[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	dropped  atomic.Uint64
}

// NewBounded returns an empty queue holding at most capacity items.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Bounded[T]{capacity: capacity}
}

// Push appends v unless the queue is full, in which case v is discarded and
// Push reports false. It never blocks on the consumer.
func (q *Bounded[T]) Push(v T) bool {
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		q.dropped.Add(1)
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	return true
}

// DrainAll removes and returns everything queued, oldest first.
func (q *Bounded[T]) DrainAll() []T {
	q.mu.Lock()
	out := q.items
	q.items = nil
	q.mu.Unlock()
	return out
}

// Len returns the number of queued items.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the capacity.
func (q *Bounded[T]) Cap() int {
	return q.capacity
}

// Dropped returns how many pushes were rejected since creation.
func (q *Bounded[T]) Dropped() uint64 {
	return q.dropped.Load()
}
