package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/funnel/internal/config"
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
				convey.So(cfg.ATSThreshold, convey.ShouldEqual, 70.0)
				convey.So(cfg.TokenTTL, convey.ShouldEqual, 48*time.Hour)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FUNNEL_ADDR", ":8080")
			_ = os.Setenv("FUNNEL_ATS_THRESHOLD", "80")
			_ = os.Setenv("FUNNEL_TOKEN_TTL", "24h")
			_ = os.Setenv("FUNNEL_NOTIFY_WORKERS", "16")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ATSThreshold, convey.ShouldEqual, 80.0)
				convey.So(cfg.TokenTTL, convey.ShouldEqual, 24*time.Hour)
				convey.So(cfg.NotifyWorkers, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
exam_threshold: 65
token_ttl: 12h
notify_queue_size: 4096
shard_count: 16
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FUNNEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ExamThreshold, convey.ShouldEqual, 65.0)
				convey.So(cfg.TokenTTL, convey.ShouldEqual, 12*time.Hour)
				convey.So(cfg.NotifyQueueSize, convey.ShouldEqual, 4096)
				convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When env vars and file are both present", func() {
			yamlContent := `
addr: ":9090"
exam_threshold: 65
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FUNNEL_CONFIG", tmpFile)
			_ = os.Setenv("FUNNEL_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars take precedence over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.ExamThreshold, convey.ShouldEqual, 65.0)
			})
		})

		convey.Convey("When a threshold is out of range", func() {
			clearConfigEnvVars()
			_ = os.Setenv("FUNNEL_EXAM_THRESHOLD", "150")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	vars := []string{
		"FUNNEL_CONFIG",
		"FUNNEL_ADDR",
		"FUNNEL_ATS_THRESHOLD",
		"FUNNEL_EXAM_THRESHOLD",
		"FUNNEL_TOKEN_TTL",
		"FUNNEL_NOTIFY_WORKERS",
		"FUNNEL_NOTIFY_QUEUE_SIZE",
		"FUNNEL_SHARD_COUNT",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "funnel-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp config file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("failed to write temp config file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close temp config file: %v", err)
	}
	return f.Name()
}
