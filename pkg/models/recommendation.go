package models

import (
	"time"

	"github.com/google/uuid"
)

// PreferenceMap maps a genre label to an affinity in [0,1]. A missing key means
// the genre has never been observed, which is not the same as an affinity of 0.
type PreferenceMap map[string]float64

// Clone returns an independent copy of the map. A nil map clones to an empty one.
func (p PreferenceMap) Clone() PreferenceMap {
	out := make(PreferenceMap, len(p))
	for genre, affinity := range p {
		out[genre] = affinity
	}
	return out
}

// ScoredBook is a ranked recommendation candidate.
// RecommendationID is set once the recommendation has been served and logged.
type ScoredBook struct {
	RecommendationID uuid.UUID `json:"recommendation_id"`
	Book             Book      `json:"book"`
	Score            float64   `json:"score"`
	Explanation      *string   `json:"reason,omitempty"`
	Position         int       `json:"position"`
}

type RecommendationQuery struct {
	Limit          *int `form:"limit"`
	IncludeReasons bool `form:"include_reasons"`
}

type RecommendationResponse struct {
	UserID          uuid.UUID    `json:"user_id"`
	RequestID       uuid.UUID    `json:"request_id"`
	Recommendations []ScoredBook `json:"recommendations"`
	TotalCount      int          `json:"total_count"`
	GeneratedAt     time.Time    `json:"generated_at"`
	CacheHit        bool         `json:"cache_hit"`
}

// RecommendationLogEntry records a served recommendation for click tracking.
type RecommendationLogEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RequestID uuid.UUID `json:"request_id" db:"request_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	BookID    uuid.UUID `json:"book_id" db:"book_id"`
	Score     float64   `json:"score" db:"score"`
	Position  int       `json:"position" db:"position"`
	Clicked   bool      `json:"clicked" db:"clicked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type UpdatePreferencesRequest struct {
	Preferences []string `json:"preferences" validate:"required,min=1,max=20,dive,required,max=100"`
}

type PreferencesResponse struct {
	UserID  uuid.UUID     `json:"user_id"`
	Stated  []string      `json:"stated"`
	Learned PreferenceMap `json:"learned"`
}

// RatingEvent is published whenever a user rates a book.
type RatingEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	BookID    uuid.UUID `json:"book_id"`
	Rating    float64   `json:"rating"`
	Genres    []string  `json:"genres"`
	Timestamp time.Time `json:"timestamp"`
}
