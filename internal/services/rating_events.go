package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/pkg/models"
)

// RatingEventHandler applies the effects of a recorded rating that may lag the
// write: the graph projection and cached recommendation lists.
type RatingEventHandler struct {
	projection RatingProjection
	cache      *RecommendationCache
	metrics    *MetricsCollector
	logger     *logrus.Logger
}

func NewRatingEventHandler(projection RatingProjection, cache *RecommendationCache, metrics *MetricsCollector, logger *logrus.Logger) *RatingEventHandler {
	return &RatingEventHandler{
		projection: projection,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle is safe to call more than once for the same event.
func (h *RatingEventHandler) Handle(ctx context.Context, event models.RatingEvent) error {
	if h.projection != nil {
		rating := &models.BookRating{
			ID:        event.EventID,
			BookID:    event.BookID,
			UserID:    event.UserID,
			Rating:    event.Rating,
			CreatedAt: event.Timestamp,
		}
		if err := h.projection.RecordRating(ctx, rating); err != nil {
			h.metrics.RecordRatingEvent("error")
			return fmt.Errorf("failed to project rating: %w", err)
		}
	}

	if err := h.cache.InvalidateUser(ctx, event.UserID); err != nil {
		h.metrics.RecordRatingEvent("error")
		return err
	}

	h.metrics.RecordRatingEvent("success")
	h.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  event.UserID,
		"book_id":  event.BookID,
	}).Debug("Rating event handled")
	return nil
}
