// Package queue buffers accepted records between the HTTP handlers and the
// persistence workers.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/metrics"
)

const defaultQueueCapacity = 100000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a record without blocking. It fails with ErrQueueFull or
	// ErrQueueClosed.
	Enqueue(ctx context.Context, e model.Envelope) error

	// Receive blocks until a record is available. It fails with
	// ErrQueueClosed once the queue is closed and drained, or with the
	// context's error when ctx is done.
	Receive(ctx context.Context) (model.Envelope, error)

	// Len returns the number of buffered records.
	Len(ctx context.Context) int

	// Close stops accepting records. Buffered records remain readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	records  chan model.Envelope
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.records = make(chan model.Envelope, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e model.Envelope) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue: %w", err)
	}

	select {
	case q.records <- e:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Receive implements Queue. A record taken off the buffer is always
// returned to the caller.
func (q *InMemoryQueue) Receive(ctx context.Context) (model.Envelope, error) {
	select {
	case <-ctx.Done():
		return model.Envelope{}, fmt.Errorf("receive: %w", ctx.Err())
	case e, ok := <-q.records:
		if !ok {
			return model.Envelope{}, ErrQueueClosed
		}
		metrics.RecordQueueDequeue()
		q.observe()
		return e, nil
	}
}

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// Close implements Queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.records)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// observe publishes size and utilization and returns the size.
func (q *InMemoryQueue) observe() int {
	size := len(q.records)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}
