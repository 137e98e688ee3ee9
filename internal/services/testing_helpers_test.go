package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/bookrec/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func newTestCache(t *testing.T) (*RecommendationCache, *miniredis.Miniredis) {
	t.Helper()

	client, mr := newTestRedis(t)
	return NewRecommendationCache(client, 15*time.Minute, testLogger()), mr
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishRating(ctx context.Context, event models.RatingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockProjection struct {
	mock.Mock
}

func (m *MockProjection) RecordRating(ctx context.Context, rating *models.BookRating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) GetRecommendations(ctx context.Context, userID uuid.UUID, limit *int, includeReasons bool) ([]models.ScoredBook, error) {
	args := m.Called(ctx, userID, limit, includeReasons)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScoredBook), args.Error(1)
}

func (m *MockRecommender) ApplyRating(current models.PreferenceMap, book models.Book, rating float64) (models.PreferenceMap, error) {
	args := m.Called(current, book, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.PreferenceMap), args.Error(1)
}

func scoredBooks(scores ...float64) []models.ScoredBook {
	out := make([]models.ScoredBook, len(scores))
	for i, score := range scores {
		out[i] = models.ScoredBook{
			Book:     models.Book{ID: uuid.New(), Title: fmt.Sprintf("Book %d", i), Genres: []string{"Fantasy"}},
			Score:    score,
			Position: i + 1,
		}
	}
	return out
}
