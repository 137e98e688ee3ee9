package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserStore keeps the genres each user explicitly declared interest in.
type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

// StatedPreferences returns an empty slice for users who never declared any.
func (s *UserStore) StatedPreferences(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var genres []string
	err := s.db.QueryRow(ctx,
		`SELECT genres FROM user_stated_preferences WHERE user_id = $1`, userID,
	).Scan(&genres)
	if errors.Is(err, pgx.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stated preferences: %w", err)
	}
	if genres == nil {
		genres = []string{}
	}
	return genres, nil
}

func (s *UserStore) UpdateStatedPreferences(ctx context.Context, userID uuid.UUID, genres []string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_stated_preferences (user_id, genres, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET genres = EXCLUDED.genres, updated_at = now()`,
		userID, genres,
	)
	if err != nil {
		return fmt.Errorf("failed to update stated preferences: %w", err)
	}
	return nil
}
