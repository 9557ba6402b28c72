package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PopularityCacheRepository shares cohort popularity between server
// instances so the 7d counts are computed once per age bin per TTL.
type PopularityCacheRepository struct {
	client *redis.Client
}

func NewPopularityCacheRepository(client *redis.Client) *PopularityCacheRepository {
	return &PopularityCacheRepository{
		client: client,
	}
}

func (r *PopularityCacheRepository) Get(ctx context.Context, ageBin string, windowDays int) (map[string]float64, error) {
	key := fmt.Sprintf("recsys:popular:%s:%dd", ageBin, windowDays)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get popularity from Redis: %w", err)
	}

	var scores map[string]float64
	if err := json.Unmarshal([]byte(val), &scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached popularity: %w", err)
	}

	return scores, nil
}

func (r *PopularityCacheRepository) Set(ctx context.Context, ageBin string, windowDays int, scores map[string]float64, ttl time.Duration) error {
	key := fmt.Sprintf("recsys:popular:%s:%dd", ageBin, windowDays)

	jsonData, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("failed to marshal popularity: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache popularity: %w", err)
	}

	return nil
}
