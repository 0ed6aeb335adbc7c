// Package worker drains refresh jobs from the queue and re-ingests datasets.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/discmatch/internal/adapters/mq/queue"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
)

const (
	defaultWorkerCount = 2
	defaultJobTimeout  = 30 * time.Second
)

// Refresher re-ingests one dataset and installs the result.
type Refresher interface {
	Refresh(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Observer is told the outcome of every processed job. err is nil on success.
type Observer func(job queue.Job, snap *model.Snapshot, err error)

// Worker processes refresh jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a Queue.
type InMemoryWorker struct {
	queue     Queue
	refresher Refresher
	name      string
	timeout   time.Duration
	observer  Observer
	busy      *atomic.Int32

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

var _ Worker = (*InMemoryWorker)(nil)

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, refresher Refresher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		refresher: refresher,
		name:      "worker",
		timeout:   defaultJobTimeout,
		busy:      new(atomic.Int32),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "refresh job failed",
					logger.String("job", job.ID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	w.busy.Add(1)
	defer func() {
		w.busy.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	snap, err := w.refresher.Refresh(jobCtx, job.Dataset)
	if w.observer != nil {
		w.observer(job, snap, err)
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "refresh_error")
		metrics.RecordRefreshJob(string(job.Dataset), "error")
		return fmt.Errorf("refresh %s: %w", job.Dataset, err)
	}

	metrics.RecordRefreshJob(string(job.Dataset), "ok")
	w.logger.Info(ctx, "dataset refreshed",
		logger.String("job", job.ID),
		logger.String("dataset", string(job.Dataset)),
		logger.String("reason", job.Reason),
		logger.Int("records", snap.Len()),
		logger.Duration("queued", start.Sub(job.RequestedAt)))
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    atomic.Int32

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. Options are applied to each
// worker; names are assigned per index.
func NewPool(workerCount int, q Queue, refresher Refresher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := range p.workers {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)), withCounter(&p.busy))
		p.workers[i] = NewInMemoryWorker(q, refresher, wopts...)
	}

	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return p
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns the number of workers currently processing a job.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start starts all workers and the pool's metrics updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)

	p.logger.Info(ctx, "refresh workers started", logger.Int("workers", len(p.workers)))
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			busy := p.Busy()
			metrics.UpdateWorkerActiveCount(busy)
			metrics.UpdateWorkerIdleCount(len(p.workers) - busy)
		}
	}
}

// Shutdown closes the queue when it supports closing and waits for every
// worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
