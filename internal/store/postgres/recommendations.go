package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

// RecommendationLog records served recommendations for click tracking.
type RecommendationLog struct {
	db DB
}

func NewRecommendationLog(db DB) *RecommendationLog {
	return &RecommendationLog{db: db}
}

func (s *RecommendationLog) LogRecommendations(ctx context.Context, entries []models.RecommendationLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(entries))
	for i, e := range entries {
		rows[i] = []interface{}{e.ID, e.RequestID, e.UserID, e.BookID, e.Score, e.Position, e.Clicked, e.CreatedAt}
	}

	_, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"recommendation_log"},
		[]string{"id", "request_id", "user_id", "book_id", "score", "position", "clicked", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to log recommendations: %w", err)
	}
	return nil
}

// MarkClicked flags an entry served to userID; entries served to anyone else
// are reported as missing.
func (s *RecommendationLog) MarkClicked(ctx context.Context, userID, recommendationID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE recommendation_log SET clicked = true WHERE id = $1 AND user_id = $2`,
		recommendationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark recommendation clicked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
