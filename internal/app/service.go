// Package service wires ingestion, caching, sourcing, matching and refresh
// workers into the single instance the HTTP API depends on.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/okian/discmatch/internal/adapters/mq/queue"
	"github.com/okian/discmatch/internal/adapters/mq/worker"
	"github.com/okian/discmatch/internal/adapters/repository"
	"github.com/okian/discmatch/internal/adapters/source"
	"github.com/okian/discmatch/internal/catalog"
	"github.com/okian/discmatch/internal/config"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/scoring"
	"github.com/okian/discmatch/internal/domain/types"
	"github.com/okian/discmatch/internal/ingest"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service implements the API dependencies for the recommendation service.
type Service struct {
	mu sync.RWMutex

	cfg        *config.Config
	source     ingest.Source
	httpClient *http.Client
	now        func() time.Time

	// Overrides applied over cfg at Start, whatever the option order.
	workerCount int
	queueSize   int

	// Built by Start.
	transport *source.Transport
	pipeline  *ingest.Pipeline
	cache     *repository.SnapshotCache
	orch      *catalog.Orchestrator
	engine    *scoring.Engine
	validate  *validator.Validate
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	scheduler *worker.Scheduler

	started bool
	cancel  context.CancelFunc

	jobsCompleted atomic.Int64
	jobsFailed    atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Nothing is fetched until Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the components, sources both datasets and starts the refresh
// workers. Sourcing failures never fail Start; they degrade to the static
// tier and show up in Status. Only an unusable configuration is an error.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	mode, err := ingest.ParseNumberMode(s.cfg.NumericMode)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	if s.source == nil {
		if err := s.buildSource(); err != nil {
			return err
		}
	}

	s.logger.Info(ctx, "starting discmatch service...", logger.String("source", s.source.Name()))

	s.validate = ingest.NewValidator()
	s.pipeline = ingest.NewPipeline(s.source,
		ingest.WithNumberMode(mode),
		ingest.WithValidator(s.validate),
		ingest.WithClock(s.now))
	s.cache = repository.NewSnapshotCache(s.pipeline,
		repository.WithTTL(s.cfg.CacheTTL()),
		repository.WithClock(s.now))
	s.orch = catalog.New(s.cache, s.pipeline.SourceName(),
		catalog.WithStaticFallback(s.cfg.StaticFallback),
		catalog.WithRetryInterval(s.cfg.CacheTTL()),
		catalog.WithClock(s.now))
	s.engine = scoring.NewEngine()

	st := s.orch.Initialize(ctx)

	// Background work outlives the start-up context; Stop ends it.
	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueCapacity()))
	s.pool = worker.NewPool(s.workers(), s.queue, s.orch,
		worker.WithJobTimeout(s.cfg.FetchTimeout()*2),
		worker.WithObserver(s.observeJob))
	s.pool.Start(bg)
	s.scheduler = worker.NewScheduler(s.queue, s.cfg.RefreshInterval())
	go s.scheduler.Run(bg)

	s.started = true
	s.logger.Info(ctx, "discmatch service started",
		logger.String("sourceInUse", st.SourceInUse),
		logger.Int("reference", st.Counts[model.DatasetReference]),
		logger.Int("target", st.Counts[model.DatasetTarget]),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()))
	return nil
}

func (s *Service) buildSource() error {
	opts := []source.TransportOption{
		source.WithTimeout(s.cfg.FetchTimeout()),
		source.WithRateLimit(s.cfg.FetchRatePerSec, s.cfg.FetchBurst),
		source.WithBreaker(s.cfg.BreakerFailureThreshold, s.cfg.BreakerReset()),
	}
	if s.httpClient != nil {
		opts = append(opts, source.WithHTTPClient(s.httpClient))
	}

	switch s.cfg.Transport {
	case config.TransportCSV:
		s.transport = source.NewTransport("csv-export", opts...)
		s.source = source.NewCSVExport(s.transport, s.cfg.CSVBaseURL, s.cfg.SpreadsheetID,
			map[model.DatasetID]string{
				model.DatasetReference: s.cfg.ReferenceGID,
				model.DatasetTarget:    s.cfg.TargetGID,
			})
	case config.TransportValues:
		s.transport = source.NewTransport("values-api", opts...)
		s.source = source.NewValuesAPI(s.transport, s.cfg.ValuesBaseURL, s.cfg.SpreadsheetID, s.cfg.APIKey,
			map[model.DatasetID]string{
				model.DatasetReference: s.cfg.ReferenceSheet,
				model.DatasetTarget:    s.cfg.TargetSheet,
			})
	default:
		return fmt.Errorf("%w: unknown transport %q", config.ErrInvalidConfig, s.cfg.Transport)
	}
	return nil
}

// Stop drains the refresh workers and stops background work.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping discmatch service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "refresh workers did not stop in time", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "discmatch service stopped")
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) workers() int {
	if s.workerCount > 0 {
		return s.workerCount
	}
	return s.cfg.RefreshWorkerCount
}

func (s *Service) queueCapacity() int {
	if s.queueSize > 0 {
		return s.queueSize
	}
	return s.cfg.RefreshQueueSize
}

func (s *Service) orchestrator() (*catalog.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.orch, nil
}

// Status reports the sourcing state of both datasets.
func (s *Service) Status(_ context.Context) catalog.Status {
	o, err := s.orchestrator()
	if err != nil {
		return catalog.Status{
			Counts:   map[model.DatasetID]int{},
			Datasets: map[model.DatasetID]catalog.DatasetStatus{},
		}
	}
	return o.Status()
}

// Catalog returns every record of the active snapshot of dataset.
func (s *Service) Catalog(ctx context.Context, dataset model.DatasetID) (types.CatalogPage, error) {
	o, err := s.orchestrator()
	if err != nil {
		return types.CatalogPage{}, err
	}
	snap, err := o.Catalog(ctx, dataset)
	if err != nil {
		return types.CatalogPage{}, err
	}
	return page(snap, "", snap.Records()), nil
}

// Refresh forces a synchronous remote fetch of dataset.
func (s *Service) Refresh(ctx context.Context, dataset model.DatasetID) (types.RefreshResult, error) {
	o, err := s.orchestrator()
	if err != nil {
		return types.RefreshResult{}, err
	}
	snap, err := o.Refresh(ctx, dataset)
	if err != nil {
		return types.RefreshResult{}, err
	}
	return types.RefreshResult{
		Dataset:    dataset,
		Status:     types.RefreshCompleted,
		SnapshotID: snap.ID(),
		Records:    snap.Len(),
		Provenance: snap.Provenance(),
	}, nil
}

// Invalidate drops the cached snapshot of dataset and re-sources it. Unlike
// Refresh it never fails on the remote: the static tier takes over.
func (s *Service) Invalidate(ctx context.Context, dataset model.DatasetID) (types.RefreshResult, error) {
	o, err := s.orchestrator()
	if err != nil {
		return types.RefreshResult{}, err
	}
	snap, err := o.Invalidate(ctx, dataset)
	if err != nil {
		return types.RefreshResult{}, err
	}
	return types.RefreshResult{
		Dataset:    dataset,
		Status:     types.RefreshInvalidated,
		SnapshotID: snap.ID(),
		Records:    snap.Len(),
		Provenance: snap.Provenance(),
	}, nil
}

// EnqueueRefresh queues an asynchronous refresh of dataset.
func (s *Service) EnqueueRefresh(ctx context.Context, dataset model.DatasetID, reason string) (types.RefreshResult, error) {
	if !dataset.Valid() {
		return types.RefreshResult{}, fmt.Errorf("%w: %q", catalog.ErrUnknownDataset, dataset)
	}

	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return types.RefreshResult{}, ErrNotStarted
	}

	job := queue.Job{
		ID:          uuid.NewString(),
		Dataset:     dataset,
		Reason:      reason,
		RequestedAt: s.now(),
	}
	if !q.Enqueue(ctx, job) {
		return types.RefreshResult{}, ErrQueueFull
	}

	s.logger.Debug(ctx, "refresh queued",
		logger.String("job", job.ID),
		logger.String("dataset", string(dataset)),
		logger.String("reason", reason))
	return types.RefreshResult{Dataset: dataset, Status: types.RefreshQueued, JobID: job.ID}, nil
}

func (s *Service) observeJob(_ queue.Job, _ *model.Snapshot, err error) {
	if err != nil {
		s.jobsFailed.Add(1)
		return
	}
	s.jobsCompleted.Add(1)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"transport":        s.cfg.Transport,
		"workerCount":      s.workers(),
		"queueSize":        s.queueCapacity(),
		"cacheTTLSeconds":  s.cfg.CacheTTLSeconds,
		"staticFallback":   s.cfg.StaticFallback,
		"maxSearchResults": s.cfg.MaxSearchResults,
		"jobsCompleted":    s.jobsCompleted.Load(),
		"jobsFailed":       s.jobsFailed.Load(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		st := s.orch.Status()

		stats["queueLength"] = queueLen
		stats["busyWorkers"] = s.pool.Busy()
		stats["poolSize"] = s.pool.Size()
		stats["queueCapacity"] = s.queue.Capacity()
		stats["source"] = s.pipeline.SourceName()
		stats["sourceInUse"] = st.SourceInUse
		stats["referenceCount"] = st.Counts[model.DatasetReference]
		stats["targetCount"] = st.Counts[model.DatasetTarget]
		if s.transport != nil {
			stats["breakerState"] = s.transport.State()
		}
		for _, d := range model.Datasets {
			if snap, err := s.orch.Cached(ctx, d); err == nil {
				stats[string(d)+"CachedSnapshot"] = snap.ID()
			}
		}

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}

func page(snap *model.Snapshot, query string, records []model.DiscRecord) types.CatalogPage {
	if records == nil {
		records = []model.DiscRecord{}
	}
	return types.CatalogPage{
		Dataset:    snap.Dataset(),
		SnapshotID: snap.ID(),
		Provenance: snap.Provenance(),
		FetchedAt:  snap.FetchedAt(),
		Total:      snap.Len(),
		Query:      query,
		Records:    records,
	}
}
