// Package memory keeps the journal in process memory. It is the default
// backend and loses everything on exit.
package memory

import (
	"github.com/OpenRadar/awacs/internal/queue"
	"github.com/OpenRadar/awacs/pkg/core"
)

// Backend stores journal lines in a bounded in-memory queue.
type Backend struct {
	entries *queue.Queue[core.Alert]
}

// New creates a memory backend holding at most capacity lines. A capacity
// below 1 keeps everything.
func New(capacity int) *Backend {
	return &Backend{entries: queue.NewBounded[core.Alert](capacity)}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Record appends a line.
func (b *Backend) Record(a core.Alert) error {
	b.entries.Push(a)
	return nil
}

// Recent returns the newest limit lines, oldest first. limit <= 0 returns all.
func (b *Backend) Recent(limit int) ([]core.Alert, error) {
	return b.entries.Tail(limit), nil
}

// Len returns the number of stored lines.
func (b *Backend) Len() int {
	return b.entries.Len()
}

// Dropped returns how many lines were evicted to honour the capacity.
func (b *Backend) Dropped() uint64 {
	return b.entries.Dropped()
}
