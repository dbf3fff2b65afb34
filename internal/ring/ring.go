// Package ring provides the bounded drop-oldest queue used between the
// feed, the engine workers and the async sinks. Every queue in the
// pipeline is bounded; when a producer outruns its consumer the oldest
// entry is shed and counted, never silently and never by blocking the
// producer.
package ring

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue is a bounded FIFO with drop-oldest overflow. Push never blocks;
// Pop blocks until an item, close or cancellation.
type Queue[T any] struct {
	mu     sync.Mutex
	buf    []T
	head   int
	n      int
	closed bool

	drops uint64

	ready chan struct{}
	done  chan struct{}
}

// New returns a queue holding at most capacity items. Capacity is
// validated at config load; New panics on nonsense to fail loud in tests.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("ring: capacity must be at least 1")
	}
	return &Queue[T]{
		buf:   make([]T, capacity),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push enqueues v, evicting the oldest entry when full. It reports whether
// an eviction happened. Pushes after Close are discarded.
func (q *Queue[T]) Push(v T) (dropped bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if q.n == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.n--
		dropped = true
		atomic.AddUint64(&q.drops, 1)
	}
	q.buf[(q.head+q.n)%len(q.buf)] = v
	q.n++
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return dropped
}

// Pop dequeues the oldest item, waiting for one if the queue is empty.
// ok=false means the queue closed and drained, or ctx ended.
func (q *Queue[T]) Pop(ctx context.Context) (v T, ok bool) {
	for {
		q.mu.Lock()
		if q.n > 0 {
			v = q.buf[q.head]
			var zero T
			q.buf[q.head] = zero
			q.head = (q.head + 1) % len(q.buf)
			q.n--
			q.mu.Unlock()
			return v, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return v, false
		}

		select {
		case <-ctx.Done():
			return v, false
		case <-q.done:
			// Re-check: items pushed before Close still drain.
		case <-q.ready:
		}
	}
}

// Close stops accepting pushes. Pending items remain poppable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Cap returns the configured capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Drops returns the total number of evicted entries.
func (q *Queue[T]) Drops() uint64 {
	return atomic.LoadUint64(&q.drops)
}
