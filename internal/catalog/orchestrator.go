// Package catalog decides which tier supplies each dataset: the remote source
// through the snapshot cache, or the compiled-in static catalog.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/discmatch/internal/adapters/repository"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// SourceStatic is reported as the source in use when no dataset is remote.
const (
	SourceStatic = "static"
	SourceMixed  = "mixed"
)

var allProvenances = []string{
	string(model.ProvenanceRemote),
	string(model.ProvenanceStaleCache),
	string(model.ProvenanceStaticFallback),
}

// DatasetStatus describes the active snapshot of one dataset.
type DatasetStatus struct {
	Dataset    model.DatasetID  `json:"dataset"`
	SnapshotID string           `json:"snapshotId"`
	Provenance model.Provenance `json:"provenance"`
	Records    int              `json:"records"`
	Dropped    int              `json:"dropped"`
	FetchedAt  time.Time        `json:"fetchedAt"`
	LastError  string           `json:"lastError,omitempty"`
}

// Status is a point-in-time summary of the orchestrator.
type Status struct {
	Initialized bool                              `json:"initialized"`
	UsingRemote bool                              `json:"usingRemote"`
	SourceInUse string                            `json:"sourceInUse"`
	Counts      map[model.DatasetID]int           `json:"counts"`
	Datasets    map[model.DatasetID]DatasetStatus `json:"datasets"`
}

// Orchestrator applies the sourcing policy per dataset and keeps the active
// snapshot of each. It never lets a sourcing failure escape as a crash: the
// worst case is an empty static snapshot.
type Orchestrator struct {
	cache         repository.Store
	sourceName    string
	staticEnabled bool
	retryAfter    time.Duration
	now           func() time.Time
	logger        logger.Logger

	mu          sync.RWMutex
	initialized bool
	active      map[model.DatasetID]*model.Snapshot
	lastErr     map[model.DatasetID]error
	failedAt    map[model.DatasetID]time.Time
}

// New creates an orchestrator over cache. sourceName labels the remote tier.
func New(cache repository.Store, sourceName string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:         cache,
		sourceName:    sourceName,
		staticEnabled: true,
		now:           time.Now,
		active:        make(map[model.DatasetID]*model.Snapshot),
		lastErr:       make(map[model.DatasetID]error),
		failedAt:      make(map[model.DatasetID]time.Time),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logger.Get().Named("catalog")
	}
	return o
}

// Initialize sources both datasets concurrently and marks the orchestrator
// initialized, whatever tier each dataset ended up on.
func (o *Orchestrator) Initialize(ctx context.Context) Status {
	var g errgroup.Group
	for _, d := range model.Datasets {
		g.Go(func() error {
			o.load(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	o.mu.Lock()
	o.initialized = true
	o.mu.Unlock()

	st := o.Status()
	o.logger.Info(ctx, "catalog initialized",
		logger.String("source", st.SourceInUse),
		logger.Int("reference", st.Counts[model.DatasetReference]),
		logger.Int("target", st.Counts[model.DatasetTarget]))
	return st
}

// Catalog returns the active snapshot of dataset, re-running the sourcing
// policy first. Within the cache TTL, or within the retry interval after a
// remote failure, that costs no remote call.
func (o *Orchestrator) Catalog(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error) {
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
	return o.load(ctx, dataset), nil
}

// Refresh forces a remote fetch of dataset. On success the new snapshot
// becomes active. On failure the error is returned and the active snapshot
// is kept; the static tier is installed only when nothing was active.
func (o *Orchestrator) Refresh(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error) {
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}

	out, err := o.cache.Refresh(ctx, dataset)
	if err != nil {
		o.mu.Lock()
		o.lastErr[dataset] = err
		o.failedAt[dataset] = o.now()
		_, hasActive := o.active[dataset]
		o.mu.Unlock()

		o.logger.Warn(ctx, "refresh failed", logger.String("dataset", string(dataset)), logger.Error(err))
		if !hasActive {
			o.install(ctx, dataset, o.static(dataset), err)
		}
		return nil, fmt.Errorf("refresh %s: %w", dataset, err)
	}

	o.install(ctx, dataset, out.Snapshot, nil)
	return out.Snapshot, nil
}

// Invalidate drops the cached remote snapshot of dataset and re-runs the
// sourcing policy, bypassing the retry interval. The returned snapshot is
// the one now active.
func (o *Orchestrator) Invalidate(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error) {
	if !dataset.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}

	o.cache.Invalidate(ctx, dataset)
	o.mu.Lock()
	delete(o.failedAt, dataset)
	o.mu.Unlock()

	return o.load(ctx, dataset), nil
}

// Cached returns the snapshot held by the cache for dataset, regardless of
// which tier is active.
func (o *Orchestrator) Cached(ctx context.Context, dataset model.DatasetID) (*model.Snapshot, error) {
	return o.cache.Peek(ctx, dataset)
}

// Status reports the active snapshot of every dataset.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st := Status{
		Initialized: o.initialized,
		Counts:      make(map[model.DatasetID]int, len(model.Datasets)),
		Datasets:    make(map[model.DatasetID]DatasetStatus, len(model.Datasets)),
	}

	remote, static := 0, 0
	for _, d := range model.Datasets {
		snap, ok := o.active[d]
		if !ok {
			st.Counts[d] = 0
			continue
		}
		ds := DatasetStatus{
			Dataset:    d,
			SnapshotID: snap.ID(),
			Provenance: snap.Provenance(),
			Records:    snap.Len(),
			Dropped:    snap.Dropped(),
			FetchedAt:  snap.FetchedAt(),
		}
		if err := o.lastErr[d]; err != nil {
			ds.LastError = err.Error()
		}
		st.Datasets[d] = ds
		st.Counts[d] = snap.Len()

		if snap.Provenance() == model.ProvenanceStaticFallback {
			static++
		} else {
			remote++
		}
	}

	switch {
	case remote > 0 && static == 0:
		st.UsingRemote = true
		st.SourceInUse = o.sourceName
	case remote > 0:
		st.SourceInUse = SourceMixed
	default:
		st.SourceInUse = SourceStatic
	}
	return st
}

// load applies the sourcing policy: remote through the cache (fresh, cached
// or stale), then static. The chosen snapshot becomes active.
func (o *Orchestrator) load(ctx context.Context, dataset model.DatasetID) *model.Snapshot {
	if cur := o.backingOff(dataset); cur != nil {
		return cur
	}

	out, err := o.cache.GetOrFetch(ctx, dataset)
	if err != nil {
		o.mu.RLock()
		cur := o.active[dataset]
		o.mu.RUnlock()
		if cur != nil && cur.Provenance() == model.ProvenanceStaticFallback {
			o.install(ctx, dataset, cur, err)
			return cur
		}

		o.logger.Warn(ctx, "remote unavailable, using static catalog",
			logger.String("dataset", string(dataset)), logger.Error(err))
		snap := o.static(dataset)
		o.install(ctx, dataset, snap, err)
		return snap
	}

	o.install(ctx, dataset, out.Snapshot, out.Err)
	return out.Snapshot
}

// backingOff returns the active snapshot while dataset is inside the retry
// interval of its last remote failure, nil when the remote should be tried.
func (o *Orchestrator) backingOff(dataset model.DatasetID) *model.Snapshot {
	if o.retryAfter <= 0 {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	cur := o.active[dataset]
	if cur == nil || o.lastErr[dataset] == nil {
		return nil
	}
	at, ok := o.failedAt[dataset]
	if !ok || o.now().Sub(at) >= o.retryAfter {
		return nil
	}
	return cur
}

func (o *Orchestrator) static(dataset model.DatasetID) *model.Snapshot {
	metrics.RecordStaticFallback(string(dataset))
	return StaticSnapshot(dataset, o.staticEnabled, o.now())
}

// install makes snap the active snapshot of dataset. cause is the failure that
// led to a non-remote tier, nil otherwise.
func (o *Orchestrator) install(ctx context.Context, dataset model.DatasetID, snap *model.Snapshot, cause error) {
	o.mu.Lock()
	prev := o.active[dataset]
	o.active[dataset] = snap
	if cause != nil {
		o.lastErr[dataset] = cause
		o.failedAt[dataset] = o.now()
	} else {
		delete(o.lastErr, dataset)
		delete(o.failedAt, dataset)
	}
	o.mu.Unlock()

	metrics.UpdateSnapshot(string(dataset), string(snap.Provenance()), snap.Len(), snap.FetchedAt(), allProvenances)

	if prev == nil || prev.ID() != snap.ID() || prev.Provenance() != snap.Provenance() {
		o.logger.Info(ctx, "active snapshot changed",
			logger.String("dataset", string(dataset)),
			logger.String("snapshot", snap.ID()),
			logger.String("provenance", string(snap.Provenance())),
			logger.Int("records", snap.Len()))
	}
}
