// Package recommend ranks the nearest neighbours of a movie and assembles
// enriched recommendations.
package recommend

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kdimtricp/movierec/internal/catalog"
	"github.com/kdimtricp/movierec/internal/models"
)

const DefaultK = 5

var ErrInvalidK = errors.New("k must be positive")

// Rank orders every index of row by descending score and returns the first
// k, excluding query. Equal scores keep ascending index order. The result
// has min(k, len(row)-1) entries.
func Rank(row []float64, query, k int) ([]models.Neighbor, error) {
	if query < 0 || query >= len(row) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", catalog.ErrOutOfRange, query, len(row))
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}

	neighbors := make([]models.Neighbor, 0, len(row)-1)
	for i, score := range row {
		if i == query {
			continue
		}
		neighbors = append(neighbors, models.Neighbor{Index: i, Score: score})
	}

	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].Score > neighbors[b].Score
	})

	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Recommender ranks neighbours over a catalog.
type Recommender struct {
	catalog *catalog.Catalog
}

func NewRecommender(c *catalog.Catalog) *Recommender {
	return &Recommender{catalog: c}
}

func (r *Recommender) Recommend(index, k int) ([]models.Neighbor, error) {
	row, err := r.catalog.Row(index)
	if err != nil {
		return nil, err
	}
	return Rank(row, index, k)
}

func (r *Recommender) RecommendTitle(title string, k int) ([]models.Neighbor, error) {
	index, err := r.catalog.Resolve(title)
	if err != nil {
		return nil, err
	}
	return r.Recommend(index, k)
}
