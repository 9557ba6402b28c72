package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"modaMarket/domain"

	"github.com/redis/go-redis/v9"
)

// RecommendCacheRepository caches per-user serving results so repeated
// page loads do not re-run retrieval and scoring. A miss is (nil, nil),
// never an error.
type RecommendCacheRepository struct {
	client *redis.Client
}

func NewRecommendCacheRepository(client *redis.Client) *RecommendCacheRepository {
	return &RecommendCacheRepository{
		client: client,
	}
}

func (r *RecommendCacheRepository) GetRecommendations(ctx context.Context, userID uint) (*domain.RecommendResult, error) {
	key := fmt.Sprintf("recsys:recommend:%d", userID)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recommendations from Redis: %w", err)
	}

	var result domain.RecommendResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached recommendations: %w", err)
	}

	return &result, nil
}

func (r *RecommendCacheRepository) SetRecommendations(ctx context.Context, userID uint, result *domain.RecommendResult, ttl time.Duration) error {
	key := fmt.Sprintf("recsys:recommend:%d", userID)

	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache recommendations: %w", err)
	}

	return nil
}

func (r *RecommendCacheRepository) GetForYou(ctx context.Context, userID uint) ([]domain.ForYouItem, error) {
	key := fmt.Sprintf("recsys:foryou:%d", userID)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get for-you items from Redis: %w", err)
	}

	var items []domain.ForYouItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached for-you items: %w", err)
	}

	return items, nil
}

func (r *RecommendCacheRepository) SetForYou(ctx context.Context, userID uint, items []domain.ForYouItem, ttl time.Duration) error {
	key := fmt.Sprintf("recsys:foryou:%d", userID)

	jsonData, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal for-you items: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache for-you items: %w", err)
	}

	return nil
}

// InvalidateUser drops both cached shelves after a purchase so the next
// request reflects the new history.
func (r *RecommendCacheRepository) InvalidateUser(ctx context.Context, userID uint) error {
	keys := []string{
		fmt.Sprintf("recsys:recommend:%d", userID),
		fmt.Sprintf("recsys:foryou:%d", userID),
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate recommendation cache: %w", err)
	}

	return nil
}
