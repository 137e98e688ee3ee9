package recommend

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/temcen/bookrec/pkg/models"
)

func TestSelect(t *testing.T) {
	read := testBook("Read", []string{"Fiction"}, 4.8, 500)
	lowRated := testBook("Low", []string{"Fiction"}, 2.0, 500)
	offGenre := testBook("Off", []string{"Cooking"}, 4.8, 500)
	first := testBook("First", []string{"Fiction"}, 4.0, 10)
	second := testBook("Second", []string{"Poetry", "Romance"}, 3.5, 10)

	catalog := []models.Book{read, first, lowRated, offGenre, second}
	readIDs := map[uuid.UUID]struct{}{read.ID: {}}
	stated := GenreSet([]string{"Fiction", "Romance"})

	selected := Select(catalog, readIDs, stated, 3.0)

	assert.Equal(t, []models.Book{first, second}, selected)
}

func TestSelect_NoStatedPreferences(t *testing.T) {
	catalog := []models.Book{testBook("A", []string{"Fiction"}, 4.0, 10)}
	assert.Empty(t, Select(catalog, nil, GenreSet(nil), 0))
}

func TestGenreSet(t *testing.T) {
	set := GenreSet([]string{"Fiction", "Romance", "Fiction"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "Romance")
	assert.Empty(t, GenreSet(nil))
}
