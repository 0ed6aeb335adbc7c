package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/discmatch/internal/adapters/mq/queue"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/pkg/logger"
)

// ReasonScheduled tags jobs created by the Scheduler.
const ReasonScheduled = "scheduled"

// Enqueuer accepts refresh jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// Scheduler enqueues a refresh of every dataset at a fixed interval.
type Scheduler struct {
	queue    Enqueuer
	interval time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewScheduler creates a scheduler. An interval of zero or less disables it.
func NewScheduler(q Enqueuer, interval time.Duration) *Scheduler {
	return &Scheduler{
		queue:    q,
		interval: interval,
		now:      time.Now,
		logger:   logger.Get().Named("scheduler"),
	}
}

// Run blocks until ctx is done, enqueueing one job per dataset per tick.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick enqueues one refresh job per dataset that has none waiting and returns
// how many were accepted.
func (s *Scheduler) Tick(ctx context.Context) int {
	pending, _ := s.queue.(interface{ Pending(model.DatasetID) bool })

	accepted := 0
	for _, d := range model.Datasets {
		if pending != nil && pending.Pending(d) {
			continue
		}
		job := queue.Job{
			ID:          uuid.NewString(),
			Dataset:     d,
			Reason:      ReasonScheduled,
			RequestedAt: s.now(),
		}
		if s.queue.Enqueue(ctx, job) {
			accepted++
			continue
		}
		s.logger.Warn(ctx, "scheduled refresh dropped", logger.String("dataset", string(d)))
	}
	return accepted
}
