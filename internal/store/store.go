package store

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/temcen/bookrec/pkg/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// LearnFunc derives a user's new learned preferences from the just-rated book,
// whose statistics already include the rating, and the user's current map.
// A returned error aborts the whole rating.
type LearnFunc func(book models.Book, current models.PreferenceMap) (models.PreferenceMap, error)

// NormalizeGenres trims and NFC-normalizes genre labels and drops empty and
// duplicate entries, keeping first-seen order. Labels are compared byte-wise
// downstream, so differently composed forms of the same text must not both
// reach storage.
func NormalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = norm.NFC.String(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// NewAverageRating folds one more rating into an existing average.
func NewAverageRating(currentAverage float64, currentCount int, rating float64) float64 {
	if currentCount <= 0 {
		return rating
	}
	total := currentAverage*float64(currentCount) + rating
	return total / float64(currentCount+1)
}
