// Package pods delivers promotion events to the external pods service.
package pods

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/campuslink/beacon/internal/adapters/redisclient"
	"github.com/campuslink/beacon/internal/adapters/remote"
	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/logger"
)

// PromotionsPath is where the webhook notifier posts events.
const PromotionsPath = "/api/pods/promotions"

// Notifier hands one promotion event to the pods service.
type Notifier interface {
	Notify(ctx context.Context, e model.PodEvent) error
}

// LogNotifier only writes the event to the log.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a notifier logging through l, or the global logger.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Get().Named("pods")
	}
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Notify(ctx context.Context, e model.PodEvent) error { //nolint:gocritic // hugeParam: matches Notifier
	n.log.Info(ctx, "post ready for pod promotion",
		logger.String("post_id", e.PostID),
		logger.String("event_id", e.EventID),
		logger.String("applicant_id", e.ApplicantID),
		logger.Int("applicants", e.ApplicantCount),
		logger.Int("team_size", e.TeamSize),
		logger.Int("max_team_size", e.MaxTeamSize))
	return nil
}

// RedisNotifier publishes each event as JSON on redisclient.PodsChannel.
type RedisNotifier struct {
	rdb     redis.Cmdable
	channel string
}

// NewRedisNotifier wraps an existing client.
func NewRedisNotifier(rdb redis.Cmdable) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: redisclient.PodsChannel}
}

func (n *RedisNotifier) Notify(ctx context.Context, e model.PodEvent) error { //nolint:gocritic // hugeParam: matches Notifier
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal pod event: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish pod event for post %s: %w", e.PostID, err)
	}
	return nil
}

// WebhookNotifier posts each event to the pods service REST API.
type WebhookNotifier struct {
	client *remote.Client
}

// NewWebhookNotifier creates a notifier sending to baseURL+PromotionsPath.
func NewWebhookNotifier(client *remote.Client) *WebhookNotifier {
	return &WebhookNotifier{client: client}
}

func (n *WebhookNotifier) Notify(ctx context.Context, e model.PodEvent) error { //nolint:gocritic // hugeParam: matches Notifier
	if err := n.client.Do(ctx, http.MethodPost, PromotionsPath, nil, e, nil); err != nil {
		return fmt.Errorf("failed to post pod event for post %s: %w", e.PostID, err)
	}
	return nil
}
