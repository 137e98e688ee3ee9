package recommend

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/temcen/bookrec/pkg/models"
)

const (
	// strongAffinity is the affinity a genre needs to be named as a match reason.
	strongAffinity = 0.6
	// maxReasonGenres caps how many matching genres an explanation names.
	maxReasonGenres = 2
	// acclaimedRating is the average rating above which quality is the reason.
	acclaimedRating = 4.5
)

// Explain produces a human-readable justification for recommending book with
// the given score.
func Explain(book models.Book, prefs models.PreferenceMap, score float64) string {
	genres := strings.Join(book.Genres, "/")
	pct := MatchPercent(score)

	if matches := strongGenres(book, prefs); len(matches) > 0 {
		return fmt.Sprintf("You might like this %s book because you enjoy %s (%d%% match)",
			genres, strings.Join(matches, " and "), pct)
	}

	if book.AverageRating > acclaimedRating {
		return fmt.Sprintf("Highly rated %s book (%s★) - %d%% match based on your preferences",
			genres, strconv.FormatFloat(book.AverageRating, 'f', -1, 64), pct)
	}

	return fmt.Sprintf("Recommended %s book based on your reading patterns (%d%% match)", genres, pct)
}

// MatchPercent renders a score as an integer percentage, rounding halves up.
func MatchPercent(score float64) int {
	return int(math.Floor(score*100 + 0.5))
}

// strongGenres returns up to maxReasonGenres genres of book whose affinity
// exceeds strongAffinity, strongest first. Ties keep the book's genre order.
func strongGenres(book models.Book, prefs models.PreferenceMap) []string {
	var matches []string
	for _, genre := range book.Genres {
		if affinity, ok := prefs[genre]; ok && affinity > strongAffinity {
			matches = append(matches, genre)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return prefs[matches[i]] > prefs[matches[j]]
	})

	if len(matches) > maxReasonGenres {
		matches = matches[:maxReasonGenres]
	}
	return matches
}
