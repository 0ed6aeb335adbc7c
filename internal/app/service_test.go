package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/discmatch/internal/app"
	"github.com/okian/discmatch/internal/catalog"
	"github.com/okian/discmatch/internal/config"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/types"
	"github.com/okian/discmatch/internal/ingest"
	"github.com/okian/discmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var referenceRows = [][]string{
	{"Name", "Manufacturer", "Type", "Speed", "Glide", "Turn", "Fade"},
	{"Buzzz", "Discraft", "Midrange", "5", "4", "-1", "1"},
	{"Roc", "Innova", "Midrange", "4", "4", "0", "3"},
	{"Teebird", "Innova", "Fairway Driver", "7", "5", "0", "2"},
	{"Teebird", "Latitude 64", "Fairway Driver", "8", "5", "-1", "1.5"},
	{"Destroyer", "Innova", "Distance Driver", "12", "5", "-1", "3"},
}

var targetRows = [][]string{
	{"Name", "Type", "Speed", "Glide", "Turn", "Fade", "Description", "Link"},
	{"M3", "Midrange", "5", "5", "-1", "2", "Straight mid", "/m3"},
	{"M2", "Midrange", "5", "5", "0", "2", "", ""},
	{"F2", "Fairway Driver", "9", "5", "-1", "2", "", ""},
	{"F5", "Fairway Driver", "7", "5", "-2", "1", "", ""},
	{"D1", "Distance Driver", "13", "4", "0", "3", "", ""},
	{"PA-3", "Putter", "3", "4", "-1", "0.5", "", ""},
}

// fakeSource serves fixed value rows and can be switched off.
type fakeSource struct {
	mu    sync.Mutex
	down  bool
	calls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(_ context.Context, d model.DatasetID) (ingest.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return ingest.Payload{}, ingest.ErrNetwork
	}
	rows := referenceRows
	if d == model.DatasetTarget {
		rows = targetRows
	}
	return ingest.Payload{Format: ingest.FormatValues, Rows: rows, Numbers: ingest.NumbersDecimal}, nil
}

func (f *fakeSource) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func startService(src *fakeSource, opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithSource(src)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is not started and reports defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Started(), ShouldBeFalse)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["transport"], ShouldEqual, config.TransportCSV)
			So(stats["cacheTTLSeconds"], ShouldEqual, 300)
		})

		Convey("Then reads fail until it is started", func() {
			_, err := svc.Catalog(context.Background(), model.DatasetTarget)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.EnqueueRefresh(context.Background(), model.DatasetTarget, "test")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Status(context.Background()).Initialized, ShouldBeFalse)
		})
	})

	Convey("Given a service with custom options", t, func() {
		cfg := config.New()
		cfg.MaxSearchResults = 3
		svc := service.New(
			service.WithConfig(cfg),
			service.WithWorkerCount(4),
			service.WithQueueSize(16),
		)

		Convey("Then the options are applied without touching the caller's config", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 4)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["maxSearchResults"], ShouldEqual, 3)
			So(cfg.RefreshWorkerCount, ShouldEqual, 2)
		})
	})

	Convey("Given worker and queue options placed before the configuration", t, func() {
		cfg := config.New()
		cfg.RefreshWorkerCount = 1
		cfg.RefreshQueueSize = 2
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(7),
			service.WithSource(&fakeSource{}),
			service.WithConfig(cfg),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the explicit options still size the pool and the queue", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 7)
			So(stats["poolSize"], ShouldEqual, 3)
			So(stats["queueCapacity"], ShouldEqual, 7)
		})
	})

	Convey("Given a service with an unusable configuration", t, func() {
		cfg := config.New()
		cfg.NumericMode = "roman"

		Convey("Then Start fails with ErrInvalidConfig", func() {
			err := service.New(service.WithConfig(cfg)).Start(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		src := &fakeSource{}
		svc := startService(src)

		Convey("Then both datasets come from the remote source", func() {
			st := svc.Status(context.Background())
			So(st.Initialized, ShouldBeTrue)
			So(st.UsingRemote, ShouldBeTrue)
			So(st.SourceInUse, ShouldEqual, "fake")
			So(st.Counts[model.DatasetReference], ShouldEqual, 5)
			So(st.Counts[model.DatasetTarget], ShouldEqual, 6)
		})

		Convey("Then starting twice is a no-op", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(src.calls, ShouldEqual, 2)
		})

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				svc.Stop()
			})
		})

		Reset(svc.Stop)
	})

	Convey("Given a remote that is down at start", t, func() {
		src := &fakeSource{down: true}
		svc := startService(src)
		defer svc.Stop()

		Convey("Then the service still starts over the static catalog", func() {
			st := svc.Status(context.Background())
			So(st.Initialized, ShouldBeTrue)
			So(st.SourceInUse, ShouldEqual, catalog.SourceStatic)
			So(st.Counts[model.DatasetTarget], ShouldBeGreaterThan, 0)
		})
	})
}

func TestService_Search(t *testing.T) {
	Convey("Given a started service", t, func() {
		cfg := config.New()
		cfg.MaxSearchResults = 2
		svc := startService(&fakeSource{}, service.WithConfig(cfg))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When searching by manufacturer", func() {
			page, err := svc.Search(ctx, model.DatasetReference, "innova", 0)

			Convey("Then hits are capped and in catalog order", func() {
				So(err, ShouldBeNil)
				So(len(page.Records), ShouldEqual, 2)
				So(page.Records[0].Name, ShouldEqual, "Roc")
				So(page.Records[1].Name, ShouldEqual, "Teebird")
				So(page.Total, ShouldEqual, 5)
				So(page.Query, ShouldEqual, "innova")
			})
		})

		Convey("When searching by category with a smaller limit", func() {
			page, err := svc.Search(ctx, model.DatasetTarget, " FAIRWAY ", 1)
			So(err, ShouldBeNil)
			So(len(page.Records), ShouldEqual, 1)
			So(page.Records[0].Name, ShouldEqual, "F2")
		})

		Convey("When nothing matches", func() {
			page, err := svc.Search(ctx, model.DatasetTarget, "zzz", 0)
			So(err, ShouldBeNil)
			So(page.Records, ShouldNotBeNil)
			So(len(page.Records), ShouldEqual, 0)
		})

		Convey("When the query is too short", func() {
			_, err := svc.Search(ctx, model.DatasetTarget, " m ", 0)
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
		})

		Convey("When the dataset is unknown", func() {
			_, err := svc.Search(ctx, model.DatasetID("other"), "m3", 0)
			So(errors.Is(err, catalog.ErrUnknownDataset), ShouldBeTrue)
		})
	})
}

func TestService_Match(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(&fakeSource{})
		defer svc.Stop()
		ctx := context.Background()

		Convey("When matching a reference disc by name", func() {
			resp, err := svc.Match(ctx, types.MatchQuery{Name: "buzzz"})

			Convey("Then the closest target disc is ranked first", func() {
				So(err, ShouldBeNil)
				So(resp.Query.Name, ShouldEqual, "Buzzz")
				So(resp.Best, ShouldNotBeNil)
				So(resp.Best.Disc.Name, ShouldEqual, "M3")
				So(resp.Best.Percentage, ShouldEqual, 95)
				So(len(resp.Alternates), ShouldEqual, 2)
				So(resp.Candidates, ShouldEqual, 6)
				So(resp.Provenance, ShouldEqual, model.ProvenanceRemote)
			})
		})

		Convey("When the manufacturer disambiguates a shared name", func() {
			resp, err := svc.Match(ctx, types.MatchQuery{Name: "Teebird", Manufacturer: "latitude 64"})
			So(err, ShouldBeNil)
			So(resp.Query.Manufacturer, ShouldEqual, "Latitude 64")
			So(resp.Query.Fade, ShouldEqual, 1.5)
		})

		Convey("When the name is unknown", func() {
			_, err := svc.Match(ctx, types.MatchQuery{Name: "Nope"})
			So(errors.Is(err, service.ErrDiscNotFound), ShouldBeTrue)
		})

		Convey("When the manufacturer does not match", func() {
			_, err := svc.Match(ctx, types.MatchQuery{Name: "Buzzz", Manufacturer: "Innova"})
			So(errors.Is(err, service.ErrDiscNotFound), ShouldBeTrue)
		})

		Convey("When an inline disc is supplied", func() {
			disc := model.DiscRecord{Category: "Putter", Speed: 3, Glide: 4, Turn: -1, Fade: 0.5}
			resp, err := svc.Match(ctx, types.MatchQuery{Disc: &disc})

			Convey("Then it is ranked without a lookup", func() {
				So(err, ShouldBeNil)
				So(resp.Query.Name, ShouldEqual, "Custom disc")
				So(resp.Best.Disc.Name, ShouldEqual, "PA-3")
				So(resp.Best.Percentage, ShouldEqual, 100)
			})
		})

		Convey("When an inline disc has no category", func() {
			disc := model.DiscRecord{Name: "Mystery", Speed: 3}
			_, err := svc.Match(ctx, types.MatchQuery{Disc: &disc})
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
		})

		Convey("When neither a name nor a disc is given", func() {
			_, err := svc.Match(ctx, types.MatchQuery{})
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a started service", t, func() {
		src := &fakeSource{}
		svc := startService(src, service.WithQueueSize(1), service.WithWorkerCount(1))
		defer svc.Stop()
		ctx := context.Background()
		before := svc.Status(ctx).Datasets[model.DatasetTarget].SnapshotID

		Convey("When refreshing synchronously", func() {
			res, err := svc.Refresh(ctx, model.DatasetTarget)

			Convey("Then a new snapshot is active", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.RefreshCompleted)
				So(res.Records, ShouldEqual, 6)
				So(res.SnapshotID, ShouldNotEqual, before)
			})
		})

		Convey("When the remote is down during a refresh", func() {
			src.setDown(true)
			_, err := svc.Refresh(ctx, model.DatasetTarget)

			Convey("Then the error surfaces and the old snapshot stays", func() {
				So(errors.Is(err, ingest.ErrNetwork), ShouldBeTrue)
				So(svc.Status(ctx).Datasets[model.DatasetTarget].SnapshotID, ShouldEqual, before)
			})
		})

		Convey("When refreshing asynchronously", func() {
			res, err := svc.EnqueueRefresh(ctx, model.DatasetReference, "test")

			Convey("Then a job is accepted and processed by a worker", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.RefreshQueued)
				So(res.JobID, ShouldNotBeEmpty)

				deadline := time.Now().Add(2 * time.Second)
				for svc.GetStats()["jobsCompleted"].(int64) == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(svc.GetStats()["jobsCompleted"], ShouldEqual, int64(1))
			})
		})

		Convey("When enqueueing an unknown dataset", func() {
			_, err := svc.EnqueueRefresh(ctx, model.DatasetID("x"), "test")
			So(errors.Is(err, catalog.ErrUnknownDataset), ShouldBeTrue)
		})

		Convey("When invalidating a dataset", func() {
			res, err := svc.Invalidate(ctx, model.DatasetTarget)

			Convey("Then it is re-sourced from the remote", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.RefreshInvalidated)
				So(res.Provenance, ShouldEqual, model.ProvenanceRemote)
				So(res.SnapshotID, ShouldNotEqual, before)
				So(svc.GetStats()["targetCachedSnapshot"], ShouldEqual, res.SnapshotID)
			})
		})

		Convey("When invalidating a dataset while the remote is down", func() {
			src.setDown(true)
			res, err := svc.Invalidate(ctx, model.DatasetTarget)

			Convey("Then the static tier takes over instead of failing", func() {
				So(err, ShouldBeNil)
				So(res.Provenance, ShouldEqual, model.ProvenanceStaticFallback)
				So(res.Records, ShouldBeGreaterThan, 0)
				_, cached := svc.GetStats()["targetCachedSnapshot"]
				So(cached, ShouldBeFalse)
			})
		})

		Convey("When invalidating an unknown dataset", func() {
			_, err := svc.Invalidate(ctx, model.DatasetID("x"))
			So(errors.Is(err, catalog.ErrUnknownDataset), ShouldBeTrue)
		})
	})
}
