package counter

import (
	"context"
	"strconv"

	"github.com/JonasWeigert/PlanPort/internal/pkg/cache"
)

const (
	webhookProcessedKey = "webhook:counters:processed"
	webhookFailedKey    = "webhook:counters:failed"
)

// AddWebhookProcessed increments the processed counter for an event type in Redis
func AddWebhookProcessed(eventType string) error {
	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}
	return rdb.HIncrBy(context.Background(), webhookProcessedKey, eventType, 1).Err()
}

// AddWebhookFailed increments the failure counter for an event type in Redis
func AddWebhookFailed(eventType string) error {
	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}
	return rdb.HIncrBy(context.Background(), webhookFailedKey, eventType, 1).Err()
}

// WebhookSnapshot returns per-event-type processed and failed totals.
func WebhookSnapshot() (processed, failed map[string]int64, err error) {
	ctx := context.Background()
	rdb := cache.GetClient()
	if rdb == nil {
		return map[string]int64{}, map[string]int64{}, nil
	}

	rawProcessed, err := rdb.HGetAll(ctx, webhookProcessedKey).Result()
	if err != nil {
		return nil, nil, err
	}
	rawFailed, err := rdb.HGetAll(ctx, webhookFailedKey).Result()
	if err != nil {
		return nil, nil, err
	}
	return parseHash(rawProcessed), parseHash(rawFailed), nil
}

func parseHash(raw map[string]string) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		}
	}
	return out
}
