package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/pkg/models"
)

// Catalog lists books that may be recommended.
type Catalog interface {
	ListCandidates(ctx context.Context, exclude map[uuid.UUID]struct{}) ([]models.Book, error)
}

// HistoryStore returns a user's ratings, oldest first.
type HistoryStore interface {
	GetRatingHistory(ctx context.Context, userID uuid.UUID) ([]models.RatedBook, error)
}

// PreferenceStore reads learned genre affinities per user. Get returns an
// empty map for a user with no stored preferences.
type PreferenceStore interface {
	Get(ctx context.Context, userID uuid.UUID) (models.PreferenceMap, error)
}

// UserDirectory returns the genres a user explicitly declared interest in.
type UserDirectory interface {
	StatedPreferences(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type Config struct {
	MinRating    float64 `mapstructure:"min_rating"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Weights      Weights `mapstructure:"weights"`
}

func DefaultConfig() Config {
	return Config{
		MinRating:    0,
		LearningRate: 0.1,
		Weights:      DefaultWeights,
	}
}

// Engine ties the scoring pipeline to its collaborators. It holds no mutable
// state of its own and is safe for concurrent use.
type Engine struct {
	catalog     Catalog
	history     HistoryStore
	preferences PreferenceStore
	users       UserDirectory
	config      Config
	logger      *logrus.Logger
}

func NewEngine(
	catalog Catalog,
	history HistoryStore,
	preferences PreferenceStore,
	users UserDirectory,
	config Config,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		catalog:     catalog,
		history:     history,
		preferences: preferences,
		users:       users,
		config:      config,
		logger:      logger,
	}
}

// GetRecommendations ranks unread catalog books for userID. Scoring uses the
// stored preference map, or one derived from the rating history when nothing
// is stored yet.
func (e *Engine) GetRecommendations(
	ctx context.Context,
	userID uuid.UUID,
	limit *int,
	includeReasons bool,
) ([]models.ScoredBook, error) {
	n, err := Validate(userID, limit)
	if err != nil {
		return nil, err
	}

	history, err := e.history.GetRatingHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}

	readIDs := make(map[uuid.UUID]struct{}, len(history))
	for _, rated := range history {
		readIDs[rated.Book.ID] = struct{}{}
	}

	stated, err := e.users.StatedPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stated preferences: %w", err)
	}

	prefs, err := e.preferences.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if len(prefs) == 0 {
		prefs = CalculateFromHistory(history)
	}

	catalog, err := e.catalog.ListCandidates(ctx, readIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	candidates := Select(catalog, readIDs, GenreSet(stated), e.config.MinRating)

	scored := make([]models.ScoredBook, len(candidates))
	for i, book := range candidates {
		scored[i] = models.ScoredBook{
			Book:  book,
			Score: e.config.Weights.Score(book, prefs),
		}
	}

	ranked := Rank(scored, n)
	if includeReasons {
		for i := range ranked {
			reason := Explain(ranked[i].Book, prefs, ranked[i].Score)
			ranked[i].Explanation = &reason
		}
	}

	e.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"history":    len(history),
		"catalog":    len(catalog),
		"candidates": len(candidates),
		"returned":   len(ranked),
	}).Debug("Recommendations ranked")

	return ranked, nil
}

// RecordRating returns the user's preference map with rating applied. The
// stored map is left unchanged; persisting the result is up to the caller.
func (e *Engine) RecordRating(
	ctx context.Context,
	userID uuid.UUID,
	book models.Book,
	rating float64,
) (models.PreferenceMap, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUser
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}

	current, err := e.preferences.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	return e.ApplyRating(current, book, rating)
}

// ApplyRating folds rating into an already loaded preference map using the
// configured learning rate.
func (e *Engine) ApplyRating(current models.PreferenceMap, book models.Book, rating float64) (models.PreferenceMap, error) {
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	return Update(current, book, rating, e.config.LearningRate), nil
}
