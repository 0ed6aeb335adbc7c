package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/discmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Transport, convey.ShouldEqual, config.TransportCSV)
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 300)
				convey.So(cfg.MaxSearchResults, convey.ShouldEqual, 8)
				convey.So(cfg.StaticFallback, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DISCMATCH_ADDR", ":8080")
			_ = os.Setenv("DISCMATCH_CACHE_TTL_SECONDS", "60")
			_ = os.Setenv("DISCMATCH_REFRESH_WORKER_COUNT", "4")
			_ = os.Setenv("DISCMATCH_STATIC_FALLBACK", "false")
			_ = os.Setenv("DISCMATCH_FETCH_RATE_PER_SEC", "0.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.RefreshWorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.StaticFallback, convey.ShouldBeFalse)
				convey.So(cfg.FetchRatePerSec, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# sheet overrides
addr: ":9090"
spreadsheet_id: "abc123"
reference_gid: "10"
target_gid: "11"
cache_ttl_seconds: 120
max_search_results: 5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DISCMATCH_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SpreadsheetID, convey.ShouldEqual, "abc123")
				convey.So(cfg.ReferenceGID, convey.ShouldEqual, "10")
				convey.So(cfg.TargetGID, convey.ShouldEqual, "11")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.MaxSearchResults, convey.ShouldEqual, 5)
				convey.So(cfg.RefreshQueueSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
cache_ttl_seconds: 120
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DISCMATCH_CONFIG", tmpFile)
			_ = os.Setenv("DISCMATCH_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")        // env
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 120) // file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DISCMATCH_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DISCMATCH_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("DISCMATCH_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When selecting the values transport without an api key", func() {
			_ = os.Setenv("DISCMATCH_TRANSPORT", "values")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "api_key")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("DISCMATCH_CACHE_TTL_SECONDS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"DISCMATCH_CONFIG",
		"DISCMATCH_ADDR",
		"DISCMATCH_TRANSPORT",
		"DISCMATCH_CACHE_TTL_SECONDS",
		"DISCMATCH_REFRESH_WORKER_COUNT",
		"DISCMATCH_STATIC_FALLBACK",
		"DISCMATCH_FETCH_RATE_PER_SEC",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "discmatch-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
