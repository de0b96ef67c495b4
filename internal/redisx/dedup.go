package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup remembers provider event ids for a bounded window.
type Dedup struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDedup(rdb *redis.Client, ttl time.Duration) *Dedup {
	if ttl <= 0 {
		ttl = WebhookDedupTTL
	}
	return &Dedup{rdb: rdb, ttl: ttl}
}

// FirstSeen claims the event id. It reports false when another delivery
// already claimed it.
func (d *Dedup) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, WebhookEventKey(eventID), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Forget releases a claim so a failed delivery can be retried by the provider.
func (d *Dedup) Forget(ctx context.Context, eventID string) error {
	return d.rdb.Del(ctx, WebhookEventKey(eventID)).Err()
}
