package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/discmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.SpreadsheetID, convey.ShouldEqual, config.DefaultSpreadsheetID)
			convey.So(cfg.ReferenceGID, convey.ShouldEqual, "0")
			convey.So(cfg.TargetGID, convey.ShouldEqual, "1")
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.RefreshInterval(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then origins are split and trimmed", func() {
			cfg.CORSAllowedOrigins = " https://a.example , ,https://b.example"
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"transport", func(c *config.Config) { c.Transport = "ftp" }},
			{"numeric_mode", func(c *config.Config) { c.NumericMode = "roman" }},
			{"cache_ttl", func(c *config.Config) { c.CacheTTLSeconds = -1 }},
			{"timeout", func(c *config.Config) { c.FetchTimeoutMS = 0 }},
			{"queue", func(c *config.Config) { c.RefreshQueueSize = 0 }},
			{"workers", func(c *config.Config) { c.RefreshWorkerCount = 0 }},
			{"max_search_results", func(c *config.Config) { c.MaxSearchResults = 0 }},
			{"negative max_search_results", func(c *config.Config) { c.MaxSearchResults = -3 }},
			{"base url", func(c *config.Config) { c.CSVBaseURL = "not a url" }},
			{"sheet", func(c *config.Config) { c.SpreadsheetID = "" }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name+" is invalid", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
