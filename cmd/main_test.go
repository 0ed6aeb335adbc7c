package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/discmatch/internal/adapters/http/api"
	app "github.com/okian/discmatch/internal/app"
	"github.com/okian/discmatch/internal/config"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("DISCMATCH_ADDR", ":8080")
			_ = os.Setenv("DISCMATCH_REFRESH_QUEUE_SIZE", "1000")
			_ = os.Setenv("DISCMATCH_REFRESH_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("DISCMATCH_ADDR")
				_ = os.Unsetenv("DISCMATCH_REFRESH_QUEUE_SIZE")
				_ = os.Unsetenv("DISCMATCH_REFRESH_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RefreshQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.RefreshWorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the address is empty", func() {
			_ = os.Setenv("DISCMATCH_ADDR", "")
			defer func() { _ = os.Unsetenv("DISCMATCH_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a service whose spreadsheet is down", t, func() {
		sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer sheet.Close()

		ctx := context.Background()
		cfg := config.New()
		cfg.CSVBaseURL = sheet.URL + "/d"
		cfg.FetchRatePerSec = 0
		cfg.FetchTimeoutMS = 500
		cfg.CORSAllowedOrigins = "https://shop.example"
		cfg.DocsScriptURL = "/static/redoc.standalone.js"

		svc := app.New(app.WithConfig(cfg))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc)

		convey.Convey("When checking health", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"initialized":true`)
		})

		convey.Convey("When matching against the static catalogs", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match?name=buzzz", nil))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"provenance":"static-fallback"`)
		})

		convey.Convey("When reading the API docs", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(strings.HasPrefix(rec.Body.String(), "openapi:"), convey.ShouldBeTrue)

			page := httptest.NewRecorder()
			h.ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/api-docs", nil))
			convey.So(page.Body.String(), convey.ShouldContainSubstring, `<script src="/static/redoc.standalone.js">`)
		})

		convey.Convey("When a browser calls from an allowed origin", func() {
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			req.Header.Set("Origin", "https://shop.example")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			convey.So(rec.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://shop.example")
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the system metrics updater until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When running the service metrics updater until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("When building the API over an unstarted service", func() {
			svc := app.New()
			server := api.NewServer(svc, svc)
			mux := http.NewServeMux()
			server.Register(context.Background(), mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match?name=Buzzz", nil))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		sheet := httptest.NewServer(http.NotFoundHandler())
		defer sheet.Close()

		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.CSVBaseURL = sheet.URL + "/d"
		cfg.FetchRatePerSec = 0

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, logger.Get()) }()

		time.Sleep(200 * time.Millisecond)
		cancel()

		convey.Convey("Then run shuts down cleanly", func() {
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("run did not return")
			}
		})
	})
}
