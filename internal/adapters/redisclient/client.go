// Package redisclient builds the Redis connections shared by the tracking
// index and the pods notifier.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout.
const (
	// AppliedKeyPrefix holds the set of post ids a user applied to: applied:{userID}
	AppliedKeyPrefix = "beacon:applied:{%s}"
	// PodsChannel receives one JSON message per promotion event.
	PodsChannel = "beacon:pods:applicant-added"
)

// New creates a client for addr and pings it.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("no Redis address provided")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  6 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// AppliedKey returns the applied-set key for userID.
func AppliedKey(userID string) string {
	return fmt.Sprintf(AppliedKeyPrefix, userID)
}
