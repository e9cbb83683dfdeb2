package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/teamforge/crew/internal/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"CREW_CONFIG",
		"CREW_ADDR",
		"CREW_LOG_LEVEL",
		"CREW_FETCH_LIMIT",
		"CREW_DEFAULT_LIMIT",
		"CREW_MAX_LIMIT",
		"CREW_RECOMMENDATION_TTL_HOURS",
		"CREW_ENTITY_TTL_MINUTES",
		"CREW_LOADER_BATCH_SIZE",
		"CREW_LOADER_DEBOUNCE_MS",
		"CREW_CHUNK_SIZE",
		"CREW_CONCURRENCY",
		"CREW_SEED_FILE",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "crew-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	_ = f.Close()
	return f.Name()
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.FetchLimit, convey.ShouldEqual, 200)
			convey.So(cfg.DefaultLimit, convey.ShouldEqual, 10)
			convey.So(cfg.MaxLimit, convey.ShouldEqual, 50)
			convey.So(cfg.RecommendationTTLHours, convey.ShouldEqual, 6)
			convey.So(cfg.EntityTTLMinutes, convey.ShouldEqual, 5)
			convey.So(cfg.LoaderBatchSize, convey.ShouldEqual, 100)
			convey.So(cfg.LoaderDebounceMS, convey.ShouldEqual, 5)
			convey.So(cfg.ChunkSize, convey.ShouldEqual, 100)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.FetchLimit, convey.ShouldEqual, 200)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CREW_ADDR", ":8080")
			_ = os.Setenv("CREW_FETCH_LIMIT", "150")
			_ = os.Setenv("CREW_DEFAULT_LIMIT", "5")
			_ = os.Setenv("CREW_RECOMMENDATION_TTL_HOURS", "12")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FetchLimit, convey.ShouldEqual, 150)
				convey.So(cfg.DefaultLimit, convey.ShouldEqual, 5)
				convey.So(cfg.RecommendationTTLHours, convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":7070"
fetch_limit: 120
chunk_size: 50
log_level: "debug"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CREW_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.FetchLimit, convey.ShouldEqual, 120)
				convey.So(cfg.ChunkSize, convey.ShouldEqual, 50)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":7070"
fetch_limit: 120
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CREW_CONFIG", tmpFile)
			_ = os.Setenv("CREW_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FetchLimit, convey.ShouldEqual, 120)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("CREW_FETCH_LIMIT", "-1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "fetch_limit")
			})
		})
	})
}
