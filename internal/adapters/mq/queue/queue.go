// Package queue provides the bounded in-memory queue that feeds the worker pool.
package queue

import (
	"context"
	"sync"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 64
)

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item, waiting for space until ctx is done.
	Enqueue(ctx context.Context, item T) error

	// Dequeue returns the channel items are delivered on.
	// The channel is closed when the queue is closed and drained.
	Dequeue() <-chan T

	// Len returns the current number of queued items.
	Len() int

	// Close stops accepting items.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	quit     chan struct{}
	quitOnce sync.Once
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	s := settings{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(&s)
	}
	return &InMemoryQueue[T]{
		items:    make(chan T, s.capacity),
		quit:     make(chan struct{}),
		capacity: s.capacity,
	}
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	// the read lock keeps Close from closing the channel under a pending send
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.items <- item:
		return nil
	case <-q.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue[T]) Dequeue() <-chan T {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len() int {
	return len(q.items)
}

// Capacity returns the maximum number of buffered items.
func (q *InMemoryQueue[T]) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue. Buffered items stay readable.
func (q *InMemoryQueue[T]) Close() error {
	// wake blocked senders so they release the read lock
	q.quitOnce.Do(func() { close(q.quit) })

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
