package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuslink/beacon/internal/adapters/catalog"
	"github.com/campuslink/beacon/internal/adapters/pods"
	"github.com/campuslink/beacon/internal/adapters/redisclient"
	"github.com/campuslink/beacon/internal/adapters/remote"
	"github.com/campuslink/beacon/internal/adapters/repository"
	"github.com/campuslink/beacon/internal/adapters/tracking"
	"github.com/campuslink/beacon/internal/config"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/logger"
)

// backends holds the storage and delivery adapters chosen by config.
type backends struct {
	store    repository.Store
	catalog  catalog.Catalog
	tracker  tracking.Tracker
	notifier pods.Notifier

	closers []func(context.Context)
}

// Close releases connections in reverse order of opening.
func (b *backends) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i](ctx)
	}
}

func openBackends(ctx context.Context, cfg *config.Config) (_ *backends, err error) {
	log := logger.Get().Named("backends")
	b := &backends{}
	defer func() {
		if err != nil {
			b.Close(context.Background())
		}
	}()

	// One client per address, shared by tracking and pods.
	redisClients := map[string]*redis.Client{}
	redisFor := func(addr string) (*redis.Client, error) {
		if rdb, ok := redisClients[addr]; ok {
			return rdb, nil
		}
		rdb, err := redisclient.New(ctx, addr)
		if err != nil {
			return nil, err
		}
		redisClients[addr] = rdb
		b.closers = append(b.closers, func(context.Context) { _ = rdb.Close() })
		return rdb, nil
	}

	switch cfg.Store.Driver {
	case "postgres":
		pg, err := repository.NewPostgresStore(ctx, cfg.Store.PostgresDSN,
			repository.WithPostgresLogger(log.Named("postgres")),
			repository.WithMigrate(true))
		if err != nil {
			return nil, fmt.Errorf("open post store: %w", err)
		}
		b.closers = append(b.closers, func(context.Context) { pg.Close() })
		b.store = repository.Instrumented(pg)
	default:
		b.store = repository.Instrumented(repository.NewMemoryStore())
	}

	var seed []model.Event
	if cfg.SeedEvents {
		seed = catalog.SeedEvents(time.Now())
	}
	switch cfg.Catalog.Driver {
	case "mongo":
		mc, err := catalog.NewMongoCatalog(ctx, cfg.Catalog.MongoURI, cfg.Catalog.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open event catalog: %w", err)
		}
		b.closers = append(b.closers, func(ctx context.Context) { _ = mc.Disconnect(ctx) })
		if err := mc.EnsureSeed(ctx, seed); err != nil {
			return nil, fmt.Errorf("seed event catalog: %w", err)
		}
		b.catalog = mc
	default:
		b.catalog = catalog.NewMemoryCatalog(seed...)
	}

	switch cfg.Tracking.Driver {
	case "redis":
		rdb, err := redisFor(cfg.Tracking.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open tracking index: %w", err)
		}
		b.tracker = tracking.NewRedisTracker(rdb)
	default:
		b.tracker = tracking.NewMemoryTracker()
	}

	switch cfg.Pods.Driver {
	case "redis":
		rdb, err := redisFor(cfg.Pods.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open pods channel: %w", err)
		}
		b.notifier = pods.NewRedisNotifier(rdb)
	case "webhook":
		client := remote.NewClient(cfg.Pods.WebhookURL,
			remote.WithHTTPClient(remote.NewDefaultHTTPClient(cfg.Client.Timeout)),
			remote.WithLogger(log.Named("pods")))
		b.notifier = pods.NewWebhookNotifier(client)
	default:
		b.notifier = pods.NewLogNotifier(log.Named("pods"))
	}

	log.Info(ctx, "backends ready",
		logger.String("store", cfg.Store.Driver),
		logger.String("catalog", cfg.Catalog.Driver),
		logger.String("tracking", cfg.Tracking.Driver),
		logger.String("pods", cfg.Pods.Driver))
	return b, nil
}
