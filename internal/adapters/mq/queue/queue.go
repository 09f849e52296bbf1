// Package queue holds processing units waiting for a worker.
//
// The queue is a bounded in-memory channel. Enqueue never blocks: a full or
// closed queue rejects the unit with an error.
package queue

import (
	"context"
	"sync"

	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 4096
)

// Unit is the payload type flowing through the queue.
type Unit = *model.ProcessingUnit

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a unit to the queue. It fails with ErrQueueFull or
	// ErrQueueClosed when the unit was not accepted.
	Enqueue(ctx context.Context, u Unit) error

	// Dequeue returns the channel units are received from. The channel is
	// closed once the queue is closed and drained.
	Dequeue() <-chan Unit

	// Len returns the current number of queued units.
	Len() int

	// Close stops accepting units. Units already queued remain readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	units    chan Unit
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.units = make(chan Unit, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a unit to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, u Unit) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	default:
	}

	select {
	case q.units <- u:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.units))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Unit {
	return q.units
}

// Len returns the current number of queued units.
func (q *InMemoryQueue) Len() int {
	size := len(q.units)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.units)
	q.closed = true

	return nil
}
