package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboard_key = "leaderboard:v1"
	LEADERBOARD_TTL = 30 * time.Second
)

// GetCachedLeaderboard returns the serialized leaderboard payload, or
// redis.Nil when the cache entry is absent or expired.
func (cache *Cache) GetCachedLeaderboard() (string, error) {
	ctx := context.Background()

	payload, err := cache.Db.Get(ctx, leaderboard_key).Result()
	if err == redis.Nil {
		return "", err
	} else if err != nil {
		return "", fmt.Errorf("failed to read leaderboard cache: %w", err)
	}
	return payload, nil
}

func (cache *Cache) SetCachedLeaderboard(payload string) error {
	ctx := context.Background()

	err := cache.Db.Set(ctx, leaderboard_key, payload, LEADERBOARD_TTL).Err()
	if err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}
