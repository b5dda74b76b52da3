// Package queue holds the mutex-guarded FIFO used for the controller log and
// for journal entries waiting on a batch write.
package queue

import "sync"

// Queue is safe for concurrent use. When capacity is set, pushing past it
// evicts the oldest items and counts them as dropped.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	dropped  uint64
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// NewBounded keeps at most capacity items; capacity < 1 means unbounded.
func NewBounded[T any](capacity int) *Queue[T] {
	return &Queue[T]{capacity: max(capacity, 0)}
}

func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	if q.capacity == 0 || len(q.items) <= q.capacity {
		return
	}
	over := len(q.items) - q.capacity
	q.dropped += uint64(over)
	// reallocate, otherwise the head of the backing array is never released
	q.items = append(make([]T, 0, q.capacity), q.items[over:]...)
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped is the number of items evicted by the capacity limit.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// GetAndEmpty hands the current items to the caller and starts a fresh slice.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = make([]T, 0, cap(out))
	return out
}

// Tail copies the newest n items, oldest first. n <= 0 copies everything.
func (q *Queue[T]) Tail(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	start := 0
	if n > 0 && n < len(q.items) {
		start = len(q.items) - n
	}
	return append([]T(nil), q.items[start:]...)
}
