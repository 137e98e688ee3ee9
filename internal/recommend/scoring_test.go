package recommend

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/temcen/bookrec/pkg/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		book     models.Book
		prefs    models.PreferenceMap
		expected float64
	}{
		{
			name:     "all components",
			book:     testBook("A", []string{"Fiction"}, 4.5, 1000),
			prefs:    models.PreferenceMap{"Fiction": 0.9},
			expected: 0.6*0.9 + 0.3*0.875 + 0.1*1.0,
		},
		{
			name:     "best genre wins",
			book:     testBook("B", []string{"Fiction", "Mystery"}, 1.0, 0),
			prefs:    models.PreferenceMap{"Fiction": 0.2, "Mystery": 0.8},
			expected: 0.6 * 0.8,
		},
		{
			name:     "absent genre counts as zero",
			book:     testBook("C", []string{"Romance"}, 3.0, 10),
			prefs:    models.PreferenceMap{"Fiction": 0.9},
			expected: 0.3*0.5 + 0.1*0.01,
		},
		{
			name:     "popularity is capped",
			book:     testBook("D", []string{"Romance"}, 1.0, 50000),
			prefs:    models.PreferenceMap{},
			expected: 0.1,
		},
		{
			name:     "unrated book has no quality",
			book:     testBook("E", []string{"Fiction"}, 0.0, 0),
			prefs:    models.PreferenceMap{"Fiction": 1.0},
			expected: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.book, tt.prefs)
			assert.InDelta(t, tt.expected, score, 1e-9)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestWeights_Score(t *testing.T) {
	book := testBook("A", []string{"Fiction"}, 5.0, 0)
	prefs := models.PreferenceMap{"Fiction": 0.5}

	t.Run("weights are normalised", func(t *testing.T) {
		w := Weights{Genre: 2, Quality: 2, Popularity: 0}
		assert.InDelta(t, 0.75, w.Score(book, prefs), 1e-9)
	})

	t.Run("zero weights score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Weights{}.Score(book, prefs))
	})
}

func TestScore_IndependentOfOtherCandidates(t *testing.T) {
	prefs := models.PreferenceMap{"Fiction": 0.8, "Romance": 0.3}
	books := []models.Book{
		testBook("A", []string{"Fiction"}, 4.2, 300),
		testBook("B", []string{"Romance"}, 3.1, 20),
		testBook("C", []string{"Fiction", "Romance"}, 4.9, 1200),
	}

	forward := make(map[uuid.UUID]float64)
	for _, b := range books {
		forward[b.ID] = Score(b, prefs)
	}

	for i := len(books) - 1; i >= 0; i-- {
		assert.Equal(t, forward[books[i].ID], Score(books[i], prefs))
	}
	assert.Equal(t, forward[books[1].ID], Score(books[1], prefs))
}
