// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config with defaults; Load layers files and env on top.
//   - Nested sections map to "section.key" in YAML and SECTION__KEY in env.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory promotion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of promotion dispatch workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the idempotency key cache for application submissions.
	DedupeSize int `koanf:"dedupe_size"`

	// PromotionThreshold is the applicant count from which pod promotion
	// events are emitted.
	PromotionThreshold int `koanf:"promotion_threshold"`

	// SweepInterval is how often expired posts are checked for purging.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// Retention keeps expired posts visible for this long before purging.
	Retention time.Duration `koanf:"retention"`

	// SeedEvents loads the built-in sample events into the catalog.
	SeedEvents bool `koanf:"seed_events"`

	Store    StoreConfig    `koanf:"store"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Tracking TrackingConfig `koanf:"tracking"`
	Pods     PodsConfig     `koanf:"pods"`
	Auth     AuthConfig     `koanf:"auth"`
	Client   ClientConfig   `koanf:"client"`
}

// StoreConfig selects the post store backend.
type StoreConfig struct {
	Driver      string `koanf:"driver"` // memory | postgres
	PostgresDSN string `koanf:"postgres_dsn"`
}

// CatalogConfig selects the event catalog backend.
type CatalogConfig struct {
	Driver        string `koanf:"driver"` // memory | mongo
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
}

// TrackingConfig selects the applicant tracking index backend.
type TrackingConfig struct {
	Driver    string `koanf:"driver"` // memory | redis
	RedisAddr string `koanf:"redis_addr"`
}

// PodsConfig selects where promotion events are delivered.
type PodsConfig struct {
	Driver     string `koanf:"driver"` // log | redis | webhook
	RedisAddr  string `koanf:"redis_addr"`
	WebhookURL string `koanf:"webhook_url"`
}

// DefaultJWTSecret lets a fresh checkout run locally. Anyone who knows it can
// mint tokens, so startup warns while it is in use.
const DefaultJWTSecret = "dev-secret-change-me"

// AuthConfig holds the bearer token verification secret.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

// ClientConfig configures the REST client used by the CLI.
type ClientConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         100_000,
		PromotionThreshold: 1,
		SweepInterval:      time.Minute,
		Retention:          7 * 24 * time.Hour,
		SeedEvents:         true,
		Store:              StoreConfig{Driver: "memory"},
		Catalog:            CatalogConfig{Driver: "memory", MongoDatabase: "beacon"},
		Tracking:           TrackingConfig{Driver: "memory"},
		Pods:               PodsConfig{Driver: "log"},
		Auth:               AuthConfig{JWTSecret: DefaultJWTSecret},
		Client:             ClientConfig{BaseURL: "http://localhost:9080", Timeout: 10 * time.Second},
	}
}
