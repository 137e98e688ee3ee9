package recommend

import (
	"sort"

	"github.com/temcen/bookrec/pkg/models"
)

// Rank orders scored candidates by descending score and keeps the first limit.
// Candidates with equal scores keep their input order. Positions are assigned
// from 1. The input slice is not reordered.
func Rank(scored []models.ScoredBook, limit int) []models.ScoredBook {
	ranked := make([]models.ScoredBook, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}
