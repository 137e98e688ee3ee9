package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

// RecommendationServiceInterface defines the recommendation operations exposed over HTTP
type RecommendationServiceInterface interface {
	Get(ctx context.Context, userID uuid.UUID, query models.RecommendationQuery) (*models.RecommendationResponse, error)
	RecordClick(ctx context.Context, userID, recommendationID uuid.UUID) error
}

// BookServiceInterface defines catalog and rating operations
type BookServiceInterface interface {
	CreateBook(ctx context.Context, createdBy uuid.UUID, req *models.CreateBookRequest) (*models.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListBooks(ctx context.Context, query models.BookListQuery) (*models.BookListResponse, error)
	RateBook(ctx context.Context, userID, bookID uuid.UUID, req *models.RateBookRequest) (*models.RateBookResponse, error)
}

// PreferenceServiceInterface defines stated and learned preference operations
type PreferenceServiceInterface interface {
	UpdateStatedPreferences(ctx context.Context, userID uuid.UUID, genres []string) (*models.PreferencesResponse, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*models.PreferencesResponse, error)
}

// Recommender is the scoring engine as seen by the services.
type Recommender interface {
	GetRecommendations(ctx context.Context, userID uuid.UUID, limit *int, includeReasons bool) ([]models.ScoredBook, error)
	ApplyRating(current models.PreferenceMap, book models.Book, rating float64) (models.PreferenceMap, error)
}

type BookRepository interface {
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListBooks(ctx context.Context, genre string, limit, offset int) ([]models.Book, error)
}

// RatingRepository saves a rating together with the book statistics and the
// learned preferences it changes, and returns the updated book and map.
type RatingRepository interface {
	SaveRating(ctx context.Context, rating *models.BookRating, learn store.LearnFunc) (*models.Book, models.PreferenceMap, error)
}

type StatedPreferenceRepository interface {
	StatedPreferences(ctx context.Context, userID uuid.UUID) ([]string, error)
	UpdateStatedPreferences(ctx context.Context, userID uuid.UUID, genres []string) error
}

type LearnedPreferenceRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (models.PreferenceMap, error)
}

// PreferenceInvalidator drops a cached copy of a user's learned preferences
// after they were changed behind the cache.
type PreferenceInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type RecommendationLog interface {
	LogRecommendations(ctx context.Context, entries []models.RecommendationLogEntry) error
	MarkClicked(ctx context.Context, userID, recommendationID uuid.UUID) error
}

type RatingPublisher interface {
	PublishRating(ctx context.Context, event models.RatingEvent) error
}

// RatingProjection mirrors ratings into a secondary history store.
type RatingProjection interface {
	RecordRating(ctx context.Context, rating *models.BookRating) error
}
