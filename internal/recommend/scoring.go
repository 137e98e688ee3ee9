package recommend

import (
	"gonum.org/v1/gonum/floats"

	"github.com/temcen/bookrec/pkg/models"
)

// popularityCap is the rating count at which a book counts as fully popular.
const popularityCap = 1000

// Weights sets the contribution of each component to the composite score.
type Weights struct {
	Genre      float64 `json:"genre" mapstructure:"genre"`
	Quality    float64 `json:"quality" mapstructure:"quality"`
	Popularity float64 `json:"popularity" mapstructure:"popularity"`
}

// DefaultWeights favours genre affinity over book quality and popularity.
var DefaultWeights = Weights{Genre: 0.6, Quality: 0.3, Popularity: 0.1}

// Score computes the composite score of book for a user with the given
// preferences using DefaultWeights.
func Score(book models.Book, prefs models.PreferenceMap) float64 {
	return DefaultWeights.Score(book, prefs)
}

// Score computes the weighted mean of the genre, quality and popularity
// components of book. The result lies in [0,1]; it is 0 when every weight is 0.
func (w Weights) Score(book models.Book, prefs models.PreferenceMap) float64 {
	weights := []float64{w.Genre, w.Quality, w.Popularity}
	components := []float64{
		genreComponent(book, prefs),
		normalizeRating(book.AverageRating),
		popularityComponent(book.RatingsCount),
	}

	total := floats.Sum(weights)
	if total <= 0 {
		return 0
	}
	return clamp01(floats.Dot(weights, components) / total)
}

// genreComponent is the strongest affinity among the book's genres. Genres
// absent from prefs contribute nothing.
func genreComponent(book models.Book, prefs models.PreferenceMap) float64 {
	best := 0.0
	for _, genre := range book.Genres {
		if affinity, ok := prefs[genre]; ok && affinity > best {
			best = affinity
		}
	}
	return best
}

func popularityComponent(count int) float64 {
	if count <= 0 {
		return 0
	}
	if count > popularityCap {
		count = popularityCap
	}
	return float64(count) / popularityCap
}
