package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/pkg/models"
)

const recommendationKeyPrefix = "recs:"

// RecommendationCache stores rendered recommendation responses in Redis. A nil
// client turns every operation into a no-op miss.
type RecommendationCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRecommendationCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *RecommendationCache {
	return &RecommendationCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func recommendationKey(userID uuid.UUID, limit int, includeReasons bool) string {
	return fmt.Sprintf("%s%s:%d:%t", recommendationKeyPrefix, userID, limit, includeReasons)
}

func (c *RecommendationCache) Get(ctx context.Context, userID uuid.UUID, limit int, includeReasons bool) (*models.RecommendationResponse, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	key := recommendationKey(userID, limit, includeReasons)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("Recommendation cache read failed")
		}
		return nil, false
	}

	var response models.RecommendationResponse
	if err := json.Unmarshal(data, &response); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding malformed cached recommendations")
		return nil, false
	}
	return &response, true
}

func (c *RecommendationCache) Set(ctx context.Context, userID uuid.UUID, limit int, includeReasons bool, response *models.RecommendationResponse) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode recommendations for cache")
		return
	}

	key := recommendationKey(userID, limit, includeReasons)
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Recommendation cache write failed")
	}
}

// InvalidateUser drops every cached list of userID.
func (c *RecommendationCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	if c == nil || c.redis == nil {
		return nil
	}

	pattern := fmt.Sprintf("%s%s:*", recommendationKeyPrefix, userID)
	iter := c.redis.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached recommendations: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached recommendations: %w", err)
	}
	return nil
}
