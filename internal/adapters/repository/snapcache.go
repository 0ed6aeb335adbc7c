package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const defaultTTL = 5 * time.Minute

// SnapshotCache is an in-memory Store with one slot per dataset.
//
// Concurrent fetches of the same dataset share a single in-flight call, so a
// burst of expired lookups costs one remote request and stores one snapshot.
// The flight runs detached from the caller's cancellation; a caller that gives
// up stops waiting but does not abort the fetch for the others.
type SnapshotCache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger

	mu    sync.RWMutex
	slots map[model.DatasetID]*model.Snapshot

	group singleflight.Group
}

var _ Store = (*SnapshotCache)(nil)

// NewSnapshotCache creates a cache over fetcher.
func NewSnapshotCache(fetcher Fetcher, opts ...Option) *SnapshotCache {
	c := &SnapshotCache{
		fetcher: fetcher,
		ttl:     defaultTTL,
		now:     time.Now,
		slots:   make(map[model.DatasetID]*model.Snapshot),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.Get().Named("cache")
	}
	return c
}

// TTL returns the configured freshness window.
func (c *SnapshotCache) TTL() time.Duration { return c.ttl }

// GetOrFetch implements Store.
func (c *SnapshotCache) GetOrFetch(ctx context.Context, dataset model.DatasetID) (Outcome, error) {
	prev := c.slot(dataset)
	if prev != nil && c.now().Sub(prev.FetchedAt()) < c.ttl {
		metrics.RecordCacheOutcome(string(dataset), OutcomeCached.String())
		return Outcome{Snapshot: prev, Kind: OutcomeCached}, nil
	}

	snap, err := c.fetch(ctx, dataset)
	if err == nil {
		metrics.RecordCacheOutcome(string(dataset), OutcomeFresh.String())
		return Outcome{Snapshot: snap, Kind: OutcomeFresh}, nil
	}

	// Re-read the slot: a concurrent Refresh may have stored something.
	if prev = c.slot(dataset); prev != nil {
		metrics.RecordCacheOutcome(string(dataset), OutcomeStale.String())
		c.logger.Warn(ctx, "serving stale snapshot",
			logger.String("dataset", string(dataset)),
			logger.Duration("age", prev.Age(c.now())),
			logger.Error(err))
		return Outcome{Snapshot: prev.WithProvenance(model.ProvenanceStaleCache), Kind: OutcomeStale, Err: err}, nil
	}

	metrics.RecordCacheOutcome(string(dataset), "miss")
	return Outcome{}, err
}

// Refresh implements Store.
func (c *SnapshotCache) Refresh(ctx context.Context, dataset model.DatasetID) (Outcome, error) {
	snap, err := c.fetch(ctx, dataset)
	if err != nil {
		return Outcome{}, err
	}
	metrics.RecordCacheOutcome(string(dataset), OutcomeFresh.String())
	return Outcome{Snapshot: snap, Kind: OutcomeFresh}, nil
}

// Invalidate implements Store.
func (c *SnapshotCache) Invalidate(ctx context.Context, dataset model.DatasetID) {
	c.mu.Lock()
	delete(c.slots, dataset)
	c.mu.Unlock()

	metrics.RecordCacheInvalidation(string(dataset))
	c.logger.Debug(ctx, "cache slot invalidated", logger.String("dataset", string(dataset)))
}

// Peek implements Store.
func (c *SnapshotCache) Peek(_ context.Context, dataset model.DatasetID) (*model.Snapshot, error) {
	if snap := c.slot(dataset); snap != nil {
		return snap, nil
	}
	return nil, ErrNotCached
}

func (c *SnapshotCache) slot(dataset model.DatasetID) *model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots[dataset]
}

// fetch runs at most one remote fetch per dataset at a time and stores the
// result on success.
func (c *SnapshotCache) fetch(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(string(dataset), func() (interface{}, error) {
		snap, err := c.fetcher.Fetch(flightCtx, dataset)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.slots[dataset] = snap
		c.mu.Unlock()
		c.logger.Debug(flightCtx, "snapshot stored",
			logger.String("dataset", string(dataset)),
			logger.String("snapshot", snap.ID()),
			logger.Int("records", snap.Len()))
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Snapshot), nil
	}
}
