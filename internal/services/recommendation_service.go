package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/recommend"
	"github.com/temcen/bookrec/pkg/models"
)

// RecommendationService serves ranked lists from the engine through the
// response cache and logs what it served for click tracking.
type RecommendationService struct {
	engine  Recommender
	cache   *RecommendationCache
	log     RecommendationLog
	metrics *MetricsCollector
	logger  *logrus.Logger
}

func NewRecommendationService(
	engine Recommender,
	cache *RecommendationCache,
	log RecommendationLog,
	metrics *MetricsCollector,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		engine:  engine,
		cache:   cache,
		log:     log,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *RecommendationService) Get(ctx context.Context, userID uuid.UUID, query models.RecommendationQuery) (*models.RecommendationResponse, error) {
	start := time.Now()

	limit, err := recommend.Validate(userID, query.Limit)
	if err != nil {
		s.metrics.RecordRecommendationRequest("invalid", false, time.Since(start))
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, userID, limit, query.IncludeReasons); ok {
		cached.CacheHit = true
		s.metrics.RecordRecommendationRequest("success", true, time.Since(start))
		return cached, nil
	}

	ranked, err := s.engine.GetRecommendations(ctx, userID, &limit, query.IncludeReasons)
	if err != nil {
		s.metrics.RecordRecommendationRequest("error", false, time.Since(start))
		return nil, err
	}

	requestID := uuid.New()
	now := time.Now()
	entries := make([]models.RecommendationLogEntry, len(ranked))
	scores := make([]float64, len(ranked))
	for i := range ranked {
		ranked[i].RecommendationID = uuid.New()
		scores[i] = ranked[i].Score
		entries[i] = models.RecommendationLogEntry{
			ID:        ranked[i].RecommendationID,
			RequestID: requestID,
			UserID:    userID,
			BookID:    ranked[i].Book.ID,
			Score:     ranked[i].Score,
			Position:  ranked[i].Position,
			CreatedAt: now,
		}
	}

	if err := s.log.LogRecommendations(ctx, entries); err != nil {
		s.logger.WithError(err).WithField("request_id", requestID).Warn("Failed to log served recommendations")
	}

	response := &models.RecommendationResponse{
		UserID:          userID,
		RequestID:       requestID,
		Recommendations: ranked,
		TotalCount:      len(ranked),
		GeneratedAt:     now,
	}
	s.cache.Set(ctx, userID, limit, query.IncludeReasons, response)

	s.metrics.RecordScores(scores)
	s.metrics.RecordRecommendationRequest("success", false, time.Since(start))

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"request_id": requestID,
		"count":      len(ranked),
		"duration":   time.Since(start),
	}).Info("Recommendations served")

	return response, nil
}

// RecordClick marks a recommendation served to userID as clicked. Another
// user's recommendation is reported as not found.
func (s *RecommendationService) RecordClick(ctx context.Context, userID, recommendationID uuid.UUID) error {
	if err := s.log.MarkClicked(ctx, userID, recommendationID); err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	s.metrics.RecordClick()

	s.logger.WithFields(logrus.Fields{
		"user_id":           userID,
		"recommendation_id": recommendationID,
	}).Info("Recommendation clicked")
	return nil
}
