package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "food:view:"

// ViewDedup admits at most one counted view per (food, client) per window.
type ViewDedup struct {
	client *redis.Client
	window time.Duration
}

func NewViewDedup(client *redis.Client, window time.Duration) *ViewDedup {
	return &ViewDedup{client: client, window: window}
}

// ShouldCount reports whether this read should bump the view counter.
func (d *ViewDedup) ShouldCount(ctx context.Context, foodID int64, clientKey string) (bool, error) {
	if d == nil || d.window <= 0 || d.client == nil {
		return true, nil
	}
	key := viewKeyPrefix + strconv.FormatInt(foodID, 10) + ":" + clientKey
	return d.client.SetNX(ctx, key, 1, d.window).Result()
}
