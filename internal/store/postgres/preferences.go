package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/bookrec/pkg/models"
)

const selectPreferences = `SELECT genre, preference_score FROM user_genre_preferences WHERE user_id = $1`

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PreferenceStore reads learned genre affinities, one row per user and genre.
// RatingStore.SaveRating writes them.
type PreferenceStore struct {
	db DB
}

func NewPreferenceStore(db DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

func (s *PreferenceStore) Get(ctx context.Context, userID uuid.UUID) (models.PreferenceMap, error) {
	return readPreferences(ctx, s.db, selectPreferences, userID)
}

func readPreferences(ctx context.Context, q querier, query string, userID uuid.UUID) (models.PreferenceMap, error) {
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(models.PreferenceMap)
	for rows.Next() {
		var genre string
		var score float64
		if err := rows.Scan(&genre, &score); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[genre] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return prefs, nil
}

func replacePreferences(ctx context.Context, q querier, userID uuid.UUID, prefs models.PreferenceMap) error {
	genres := make([]string, 0, len(prefs))
	scores := make([]float64, 0, len(prefs))
	for genre, score := range prefs {
		genres = append(genres, genre)
		scores = append(scores, score)
	}

	if _, err := q.Exec(ctx, `DELETE FROM user_genre_preferences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear preferences: %w", err)
	}

	if len(genres) > 0 {
		_, err := q.Exec(ctx, `
			INSERT INTO user_genre_preferences (user_id, genre, preference_score, last_updated)
			SELECT $1, g, s, now() FROM unnest($2::text[], $3::float8[]) AS t(g, s)`,
			userID, genres, scores,
		)
		if err != nil {
			return fmt.Errorf("failed to insert preferences: %w", err)
		}
	}
	return nil
}
