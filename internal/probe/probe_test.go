package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/discmatch/internal/adapters/http/api"
	service "github.com/okian/discmatch/internal/app"
	"github.com/okian/discmatch/internal/config"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/types"
	"github.com/okian/discmatch/internal/probe"
	"github.com/okian/discmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// staticService starts a service whose spreadsheet is unreachable, so both
// datasets come from the compiled-in catalogs.
func staticService(t *testing.T) *httptest.Server {
	t.Helper()
	sheet := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(sheet.Close)

	cfg := config.New()
	cfg.CSVBaseURL = sheet.URL + "/d"
	cfg.FetchRatePerSec = 0

	svc := service.New(service.WithConfig(cfg))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running service on static catalogs", t, func() {
		srv := staticService(t)
		out := filepath.Join(t.TempDir(), "reports", "probe.json")

		Convey("When the probe runs", func() {
			report, err := probe.Run(context.Background(), &probe.Config{
				BaseURL:    srv.URL,
				Workers:    4,
				Timeout:    5 * time.Second,
				OutputFile: out,
			})

			Convey("Then every reference disc is matched without violations", func() {
				So(err, ShouldBeNil)
				So(report.SourceInUse, ShouldEqual, "static")
				So(report.ReferenceDisc, ShouldEqual, 10)
				So(report.Matched, ShouldEqual, 10)
				So(report.Violations, ShouldBeEmpty)
				So(report.OK(), ShouldBeTrue)
			})

			Convey("Then the report is written as JSON", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved probe.Report
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved.Results, ShouldHaveLength, 10)
			})
		})

		Convey("When matching a disc the service does not know", func() {
			res := probe.MatchOne(context.Background(), probe.NewClient(srv.URL, time.Second), "Nope", "")

			Convey("Then the failure is recorded with its status", func() {
				So(res.Status, ShouldEqual, http.StatusNotFound)
				So(res.Err, ShouldContainSubstring, "not_found")
			})
		})
	})

	Convey("Given no service", t, func() {
		_, err := probe.Run(context.Background(), &probe.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
		So(err, ShouldNotBeNil)
	})
}

func TestVerify(t *testing.T) {
	match := func(rank int, name string, score float64) types.Match {
		return types.Match{
			Rank:       rank,
			Disc:       model.DiscRecord{Name: name},
			Score:      score,
			Percentage: int(score*100 + 0.5),
			Reasons:    []string{"Similar flight"},
		}
	}

	Convey("Given a well-formed answer", t, func() {
		best := match(1, "M3", 0.95)
		r := probe.Result{Name: "Buzzz", Response: &types.MatchResponse{
			Best:       &best,
			Alternates: []types.Match{match(2, "M2", 0.9), match(3, "F2", 0.7)},
			Candidates: 6,
		}}
		So(probe.Verify(r), ShouldBeEmpty)

		Convey("When alternates are out of order", func() {
			r.Response.Alternates[1] = match(3, "F2", 0.99)
			So(probe.Verify(r), ShouldNotBeEmpty)
		})

		Convey("When a percentage disagrees with its score", func() {
			r.Response.Best.Percentage = 50
			So(probe.Verify(r)[0], ShouldContainSubstring, "percentage 50")
		})

		Convey("When there is no best match", func() {
			r.Response.Best = nil
			So(probe.Verify(r), ShouldHaveLength, 1)
		})
	})

	Convey("Given an empty target catalog", t, func() {
		r := probe.Result{Name: "Buzzz", Response: &types.MatchResponse{Alternates: []types.Match{}}}
		So(probe.Verify(r), ShouldBeEmpty)
	})
}
