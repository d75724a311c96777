package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "BEACON_"
	envFileVar = "BEACON_ENV_FILE"
	configVar  = "BEACON_CONFIG"
)

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file (BEACON_ENV_FILE or ./.env), exported into the environment
//  3. YAML file if BEACON_CONFIG is set
//  4. env (prefix BEACON_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	envFile := os.Getenv(envFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already present in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, envFile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(configVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BEACON_QUEUE_SIZE -> queue_size, BEACON_STORE__DRIVER -> store.driver
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as runtime panics
// or silently broken components.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.PromotionThreshold < 1:
		return fmt.Errorf("%w: promotion_threshold must be at least 1", ErrInvalidConfig)
	case c.SweepInterval <= 0:
		return fmt.Errorf("%w: sweep_interval must be positive", ErrInvalidConfig)
	}

	if err := oneOf("store.driver", c.Store.Driver, "memory", "postgres"); err != nil {
		return err
	}
	if c.Store.Driver == "postgres" && c.Store.PostgresDSN == "" {
		return fmt.Errorf("%w: store.postgres_dsn is required for the postgres driver", ErrInvalidConfig)
	}
	if err := oneOf("catalog.driver", c.Catalog.Driver, "memory", "mongo"); err != nil {
		return err
	}
	if c.Catalog.Driver == "mongo" && c.Catalog.MongoURI == "" {
		return fmt.Errorf("%w: catalog.mongo_uri is required for the mongo driver", ErrInvalidConfig)
	}
	if err := oneOf("tracking.driver", c.Tracking.Driver, "memory", "redis"); err != nil {
		return err
	}
	if c.Tracking.Driver == "redis" && c.Tracking.RedisAddr == "" {
		return fmt.Errorf("%w: tracking.redis_addr is required for the redis driver", ErrInvalidConfig)
	}
	if err := oneOf("pods.driver", c.Pods.Driver, "log", "redis", "webhook"); err != nil {
		return err
	}
	if c.Pods.Driver == "redis" && c.Pods.RedisAddr == "" {
		return fmt.Errorf("%w: pods.redis_addr is required for the redis driver", ErrInvalidConfig)
	}
	if c.Pods.Driver == "webhook" && c.Pods.WebhookURL == "" {
		return fmt.Errorf("%w: pods.webhook_url is required for the webhook driver", ErrInvalidConfig)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Warnings lists settings that are valid but unsafe outside development.
func (c *Config) Warnings() []string {
	var out []string
	if c.Auth.JWTSecret == DefaultJWTSecret {
		out = append(out, "auth.jwt_secret is the built-in development secret; set BEACON_AUTH__JWT_SECRET before exposing the service")
	}
	return out
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %w: %s must be one of %s, got %q", ErrInvalidConfig, ErrUnknownDriver, key, strings.Join(allowed, "|"), value)
}
