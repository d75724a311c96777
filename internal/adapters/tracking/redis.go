package tracking

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/campuslink/beacon/internal/adapters/redisclient"
)

// RedisTracker stores each user's applied posts in a Redis set.
type RedisTracker struct {
	rdb redis.Cmdable
}

// NewRedisTracker wraps an existing client.
func NewRedisTracker(rdb redis.Cmdable) *RedisTracker {
	return &RedisTracker{rdb: rdb}
}

func (t *RedisTracker) Record(ctx context.Context, userID, postID string) error {
	if err := t.rdb.SAdd(ctx, redisclient.AppliedKey(userID), postID).Err(); err != nil {
		return fmt.Errorf("failed to record application for %s: %w", userID, err)
	}
	return nil
}

func (t *RedisTracker) Applied(ctx context.Context, userID string) (map[string]struct{}, error) {
	members, err := t.rdb.SMembers(ctx, redisclient.AppliedKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read applications for %s: %w", userID, err)
	}
	out := make(map[string]struct{}, len(members))
	for _, id := range members {
		out[id] = struct{}{}
	}
	return out, nil
}
