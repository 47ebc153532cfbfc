// Package fifo provides a small thread-safe FIFO used for recycling
// playback sources.
package fifo

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrEmpty is returned when dequeueing from an empty queue.
	ErrEmpty = errors.New("fifo is empty")

	// ErrClosed is returned when operations are attempted on a closed queue.
	ErrClosed = errors.New("fifo is closed")
)

// Stats tracks queue activity.
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

// FIFO is a mutex-guarded first-in-first-out queue.
type FIFO[T any] struct {
	mu     sync.RWMutex
	items  []T
	closed bool
	stats  Stats
}

// New creates a FIFO with capacity preallocated for hint items.
func New[T any](hint int) *FIFO[T] {
	if hint < 0 {
		hint = 0
	}
	return &FIFO[T]{
		items: make([]T, 0, hint),
	}
}

// Enqueue appends an item to the tail of the queue.
func (q *FIFO[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.items = append(q.items, item)
	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = time.Now()
	q.stats.CurrentSize = len(q.items)
	if q.stats.CurrentSize > q.stats.PeakSize {
		q.stats.PeakSize = q.stats.CurrentSize
	}

	return nil
}

// Dequeue removes and returns the item at the head of the queue.
func (q *FIFO[T]) Dequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.closed {
		return zero, ErrClosed
	}
	if len(q.items) == 0 {
		return zero, ErrEmpty
	}

	item := q.items[0]
	q.items[0] = zero // release the reference
	q.items = q.items[1:]

	q.stats.TotalDequeued++
	q.stats.LastDequeue = time.Now()
	q.stats.CurrentSize = len(q.items)

	return item, nil
}

// Peek returns the head item without removing it.
func (q *FIFO[T]) Peek() (T, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var zero T
	if q.closed {
		return zero, ErrClosed
	}
	if len(q.items) == 0 {
		return zero, ErrEmpty
	}
	return q.items[0], nil
}

// Len returns the current number of queued items.
func (q *FIFO[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Drain removes and returns all queued items in order.
func (q *FIFO[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.items) == 0 {
		return nil
	}

	out := q.items
	q.items = make([]T, 0, cap(out))
	q.stats.TotalDequeued += int64(len(out))
	q.stats.LastDequeue = time.Now()
	q.stats.CurrentSize = 0
	return out
}

// GetStats returns a snapshot of queue statistics.
func (q *FIFO[T]) GetStats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := q.stats
	stats.CurrentSize = len(q.items)
	return stats
}

// Close marks the queue closed. Further operations return ErrClosed.
func (q *FIFO[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.items = nil
	return nil
}
