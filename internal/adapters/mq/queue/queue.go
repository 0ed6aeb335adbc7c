// Package queue holds pending catalog refresh jobs between the API and the
// refresh workers.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/pkg/metrics"
)

const defaultCapacity = 64

// Job is the payload flowing through the queue.
type Job = model.RefreshJob

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns false when the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel that receives jobs as they become available.
	// Every caller shares the same channel, so a job goes to whichever
	// consumer is ready first. The channel is closed when the queue is
	// closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue over a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	out     chan Job
	outOnce sync.Once

	mu      sync.RWMutex
	closed  bool
	pending map[model.DatasetID]int
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		pending:  make(map[model.DatasetID]int),
	}

	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Capacity returns the maximum number of queued jobs.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds a job to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.reject("closed")
		return false
	}

	select {
	case <-ctx.Done():
		q.reject("context_cancelled")
		return false
	default:
	}

	select {
	case q.jobs <- j:
		q.pending[j.Dataset]++
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		q.reject("queue_full")
		return false
	}
}

// Dequeue returns the shared job channel. The first call starts the single
// forwarder; its ctx bounds forwarding for every consumer.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	q.outOnce.Do(func() {
		q.out = make(chan Job)
		go q.forward(ctx)
	})
	return q.out
}

// forward hands each job to the first ready consumer. A job counts as
// pending until a consumer has taken it.
func (q *InMemoryQueue) forward(ctx context.Context) {
	defer close(q.out)
	for j := range q.jobs {
		select {
		case q.out <- j:
			q.mu.Lock()
			if q.pending[j.Dataset]--; q.pending[j.Dataset] <= 0 {
				delete(q.pending, j.Dataset)
			}
			q.mu.Unlock()
			metrics.RecordQueueDequeue()
			q.observe()
		case <-ctx.Done():
			return
		}
	}
}

// Pending reports whether a job for dataset is waiting to be picked up.
func (q *InMemoryQueue) Pending(dataset model.DatasetID) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.pending[dataset] > 0
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.jobs)
}

// Close stops accepting jobs. Queued jobs remain readable through Dequeue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
