package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/recommend"
	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

const (
	minStatedPreferences = 1
	maxStatedPreferences = 20
)

var ErrInvalidPreferences = errors.New("stated preferences must name between 1 and 20 genres")

type PreferenceService struct {
	stated  StatedPreferenceRepository
	learned LearnedPreferenceRepository
	cache   *RecommendationCache
	metrics *MetricsCollector
	logger  *logrus.Logger
}

func NewPreferenceService(
	stated StatedPreferenceRepository,
	learned LearnedPreferenceRepository,
	cache *RecommendationCache,
	metrics *MetricsCollector,
	logger *logrus.Logger,
) *PreferenceService {
	return &PreferenceService{
		stated:  stated,
		learned: learned,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// UpdateStatedPreferences replaces the genres the user declared interest in.
// Labels are normalized and deduplicated before the count is checked.
func (s *PreferenceService) UpdateStatedPreferences(ctx context.Context, userID uuid.UUID, genres []string) (*models.PreferencesResponse, error) {
	if userID == uuid.Nil {
		return nil, recommend.ErrInvalidUser
	}

	normalized := store.NormalizeGenres(genres)
	if len(normalized) < minStatedPreferences || len(normalized) > maxStatedPreferences {
		return nil, ErrInvalidPreferences
	}

	if err := s.stated.UpdateStatedPreferences(ctx, userID, normalized); err != nil {
		return nil, fmt.Errorf("failed to update stated preferences: %w", err)
	}
	s.metrics.RecordStatedPreferenceUpdate()

	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached recommendations")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"genres":  len(normalized),
	}).Info("Stated preferences updated")

	return s.GetPreferences(ctx, userID)
}

func (s *PreferenceService) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.PreferencesResponse, error) {
	if userID == uuid.Nil {
		return nil, recommend.ErrInvalidUser
	}

	stated, err := s.stated.StatedPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stated preferences: %w", err)
	}

	learned, err := s.learned.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load learned preferences: %w", err)
	}

	return &models.PreferencesResponse{
		UserID:  userID,
		Stated:  stated,
		Learned: learned.Clone(),
	}, nil
}
