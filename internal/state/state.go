package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const processedKey = "pricer:progress:items"

// Tracker records which catalogue items have already been priced so an
// interrupted batch can resume without re-scraping.
type Tracker interface {
	IsProcessed(ctx context.Context, itemID string) (bool, error)
	MarkProcessed(ctx context.Context, itemID string) error
	CountProcessed(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

type redisTracker struct {
	redisClient *redis.Client
	key         string
}

func NewRedisTracker(redisClient *redis.Client) Tracker {
	return &redisTracker{
		redisClient: redisClient,
		key:         processedKey,
	}
}

func (t *redisTracker) IsProcessed(ctx context.Context, itemID string) (bool, error) {
	done, err := t.redisClient.SIsMember(ctx, t.key, itemID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check progress for item %s: %w", itemID, err)
	}
	return done, nil
}

func (t *redisTracker) MarkProcessed(ctx context.Context, itemID string) error {
	if err := t.redisClient.SAdd(ctx, t.key, itemID).Err(); err != nil {
		return fmt.Errorf("failed to mark item %s processed: %w", itemID, err)
	}
	return nil
}

func (t *redisTracker) CountProcessed(ctx context.Context) (int64, error) {
	count, err := t.redisClient.SCard(ctx, t.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count processed items: %w", err)
	}
	return count, nil
}

// Reset clears recorded progress so the next run prices every item again.
func (t *redisTracker) Reset(ctx context.Context) error {
	if err := t.redisClient.Del(ctx, t.key).Err(); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}
