package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/campuslink/beacon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.PromotionThreshold, convey.ShouldEqual, 1)
			convey.So(cfg.SweepInterval, convey.ShouldEqual, time.Minute)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, "memory")
			convey.So(cfg.Pods.Driver, convey.ShouldEqual, "log")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.SeedEvents, convey.ShouldBeTrue)
				convey.So(cfg.Client.Timeout, convey.ShouldEqual, 10*time.Second)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BEACON_ADDR", ":8080")
			_ = os.Setenv("BEACON_QUEUE_SIZE", "500")
			_ = os.Setenv("BEACON_SWEEP_INTERVAL", "2m")
			_ = os.Setenv("BEACON_SEED_EVENTS", "false")
			_ = os.Setenv("BEACON_STORE__DRIVER", "postgres")
			_ = os.Setenv("BEACON_STORE__POSTGRES_DSN", "postgres://localhost/beacon")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults, including nested keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.SweepInterval, convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.SeedEvents, convey.ShouldBeFalse)
				convey.So(cfg.Store.Driver, convey.ShouldEqual, "postgres")
				convey.So(cfg.Store.PostgresDSN, convey.ShouldEqual, "postgres://localhost/beacon")
				convey.So(cfg.Catalog.MongoDatabase, convey.ShouldEqual, "beacon")
			})
		})

		convey.Convey("When loading config with both YAML file and environment variables", func() {
			tmpFile := writeTemp(t, "config.yaml", `
addr: ":9090"
worker_count: 3
promotion_threshold: 2
pods:
  driver: webhook
  webhook_url: http://pods.local
`)
			_ = os.Setenv("BEACON_CONFIG", tmpFile)
			_ = os.Setenv("BEACON_WORKER_COUNT", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file and file wins over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 7)
				convey.So(cfg.PromotionThreshold, convey.ShouldEqual, 2)
				convey.So(cfg.Pods.Driver, convey.ShouldEqual, "webhook")
				convey.So(cfg.Pods.WebhookURL, convey.ShouldEqual, "http://pods.local")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When a .env file is present", func() {
			envFile := writeTemp(t, "test.env", "BEACON_LOG_LEVEL=debug\nBEACON_AUTH__JWT_SECRET=from-dotenv\n")
			_ = os.Setenv("BEACON_ENV_FILE", envFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its variables are layered in", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Auth.JWTSecret, convey.ShouldEqual, "from-dotenv")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := writeTemp(t, "bad.yaml", `invalid: yaml: content: [`)
			_ = os.Setenv("BEACON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("BEACON_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BEACON_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When a driver is unknown", func() {
			cfg.Store.Driver = "sqlite"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, config.ErrUnknownDriver), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "store.driver")
		})

		convey.Convey("When the redis tracker has no address", func() {
			cfg.Tracking.Driver = "redis"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the promotion threshold is zero", func() {
			cfg.PromotionThreshold = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the address is empty", func() {
			cfg.Addr = ""
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "addr must not be empty")
		})
	})
}

func TestConfigWarnings(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then the development jwt secret is flagged", func() {
			warnings := cfg.Warnings()
			convey.So(warnings, convey.ShouldHaveLength, 1)
			convey.So(warnings[0], convey.ShouldContainSubstring, "auth.jwt_secret")
		})

		convey.Convey("When an explicit secret is configured", func() {
			cfg.Auth.JWTSecret = "a-real-secret"
			convey.So(cfg.Warnings(), convey.ShouldBeEmpty)
		})
	})
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"BEACON_CONFIG", "BEACON_ENV_FILE", "BEACON_ADDR", "BEACON_QUEUE_SIZE",
		"BEACON_WORKER_COUNT", "BEACON_SWEEP_INTERVAL", "BEACON_SEED_EVENTS",
		"BEACON_LOG_LEVEL", "BEACON_STORE__DRIVER", "BEACON_STORE__POSTGRES_DSN",
		"BEACON_AUTH__JWT_SECRET",
	} {
		_ = os.Unsetenv(key)
	}
}
