package recommend

import (
	"gonum.org/v1/gonum/stat"

	"github.com/temcen/bookrec/pkg/models"
)

// neutralAffinity is the starting point of an online update for a genre the
// user has no affinity for yet.
const neutralAffinity = 0.5

// CalculateFromHistory derives a preference map from a full rating history.
// Every rating counts toward each genre of its book; the affinity of a genre is
// its mean rating mapped from the 1..5 scale onto [0,1]. Genres that never
// appear in the history are absent from the result.
func CalculateFromHistory(ratings []models.RatedBook) models.PreferenceMap {
	byGenre := make(map[string][]float64)
	for _, rated := range ratings {
		for _, genre := range rated.Book.Genres {
			byGenre[genre] = append(byGenre[genre], rated.Rating)
		}
	}

	prefs := make(models.PreferenceMap, len(byGenre))
	for genre, values := range byGenre {
		prefs[genre] = normalizeRating(stat.Mean(values, nil))
	}
	return prefs
}

// Update folds a single new rating into current and returns the result as a
// new map. current is never modified. Genres missing from current start from
// a neutral affinity of 0.5.
func Update(current models.PreferenceMap, book models.Book, rating, learningRate float64) models.PreferenceMap {
	updated := current.Clone()
	signed := (rating - 3.0) / 2.0 // 1..5 onto -1..1

	for _, genre := range book.Genres {
		base, ok := updated[genre]
		if !ok {
			base = neutralAffinity
		}
		updated[genre] = clamp01(base + signed*learningRate)
	}
	return updated
}

// normalizeRating maps a 1..5 rating onto [0,1].
func normalizeRating(r float64) float64 {
	return clamp01((r - 1.0) / 4.0)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
