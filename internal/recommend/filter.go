package recommend

import (
	"github.com/google/uuid"

	"github.com/temcen/bookrec/pkg/models"
)

// Select narrows the catalog to books the user has not read, that meet
// minRating and that share at least one genre with the user's stated
// preferences. Catalog order is preserved.
func Select(
	catalog []models.Book,
	readIDs map[uuid.UUID]struct{},
	statedPreferences map[string]struct{},
	minRating float64,
) []models.Book {
	selected := make([]models.Book, 0, len(catalog))
	for _, book := range catalog {
		if _, read := readIDs[book.ID]; read {
			continue
		}
		if book.AverageRating < minRating {
			continue
		}
		if !overlaps(book.Genres, statedPreferences) {
			continue
		}
		selected = append(selected, book)
	}
	return selected
}

func overlaps(genres []string, set map[string]struct{}) bool {
	for _, g := range genres {
		if _, ok := set[g]; ok {
			return true
		}
	}
	return false
}

// GenreSet builds a lookup set from a list of genre labels.
func GenreSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		set[g] = struct{}{}
	}
	return set
}
