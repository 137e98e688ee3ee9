// Package cache puts Redis in front of the slower preference store.
package cache

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

const preferenceKeyPrefix = "prefs:"

// PreferenceBackend is the store the cache reads through to.
type PreferenceBackend interface {
	Get(ctx context.Context, userID uuid.UUID) (models.PreferenceMap, error)
}

// PreferenceCache is a read-through Redis cache of learned preference maps.
// Writers update the backend and then call Invalidate. Redis failures are
// logged and fall back to the backend.
type PreferenceCache struct {
	backend PreferenceBackend
	redis   *redis.Client
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewPreferenceCache(backend PreferenceBackend, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *PreferenceCache {
	return &PreferenceCache{
		backend: backend,
		redis:   redisClient,
		ttl:     ttl,
		logger:  logger,
	}
}

func preferenceKey(userID uuid.UUID) string {
	return preferenceKeyPrefix + userID.String()
}

func (c *PreferenceCache) Get(ctx context.Context, userID uuid.UUID) (models.PreferenceMap, error) {
	key := preferenceKey(userID)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var prefs models.PreferenceMap
		if err := json.Unmarshal(data, &prefs); err == nil {
			return prefs.Clone(), nil
		}
		c.logger.WithField("key", key).Warn("Discarding malformed cached preferences")
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).WithField("key", key).Warn("Preference cache read failed")
	}

	prefs, err := c.backend.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, prefs)
	return prefs, nil
}

// Invalidate drops the cached map of userID.
func (c *PreferenceCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.redis.Del(ctx, preferenceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached preferences: %w", err)
	}
	return nil
}

func (c *PreferenceCache) store(ctx context.Context, key string, prefs models.PreferenceMap) {
	data, err := json.Marshal(prefs.Clone())
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode preferences for cache")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Preference cache write failed")
	}
}
