// Package catalog holds the immutable movie table and similarity matrix.
//
// A Catalog is built once at startup and is safe for concurrent readers.
package catalog

import (
	"fmt"
	"math"

	"github.com/kdimtricp/movierec/internal/models"
)

type Catalog struct {
	movies     []models.Movie
	matrix     [][]float64
	byTitle    map[string]int
	duplicates map[string][]int
}

// New validates movies and matrix and returns a read-only catalog. Row i of
// matrix must belong to movies[i].
func New(movies []models.Movie, matrix [][]float64) (*Catalog, error) {
	if len(movies) == 0 {
		return nil, configErrorf("movies", "no movies")
	}
	if len(matrix) != len(movies) {
		return nil, configErrorf("similarity", "matrix has %d rows, expected %d", len(matrix), len(movies))
	}

	c := &Catalog{
		movies:     make([]models.Movie, len(movies)),
		matrix:     make([][]float64, len(matrix)),
		byTitle:    make(map[string]int, len(movies)),
		duplicates: make(map[string][]int),
	}

	for i, m := range movies {
		if m.Index != i {
			return nil, configErrorf("movies", "movie %q has index %d at row %d", m.Title, m.Index, i)
		}
		if m.Title == "" {
			return nil, configErrorf("movies", "movie at row %d has no title", i)
		}
		c.movies[i] = m

		if first, ok := c.byTitle[m.Title]; ok {
			if len(c.duplicates[m.Title]) == 0 {
				c.duplicates[m.Title] = []int{first}
			}
			c.duplicates[m.Title] = append(c.duplicates[m.Title], i)
			continue
		}
		c.byTitle[m.Title] = i
	}

	for i, row := range matrix {
		if len(row) != len(movies) {
			return nil, configErrorf("similarity", "row %d has %d columns, expected %d", i, len(row), len(movies))
		}
		for j, v := range row {
			if math.IsNaN(v) {
				return nil, configErrorf("similarity", "cell (%d,%d) is NaN", i, j)
			}
		}
		c.matrix[i] = append([]float64(nil), row...)
	}

	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.movies)
}

// Resolve returns the row index for title. Duplicate titles resolve to the
// lowest index; see Duplicates.
func (c *Catalog) Resolve(title string) (int, error) {
	idx, ok := c.byTitle[title]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	return idx, nil
}

func (c *Catalog) Movie(index int) (models.Movie, error) {
	if index < 0 || index >= len(c.movies) {
		return models.Movie{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(c.movies))
	}
	return c.movies[index], nil
}

// Row returns the similarity scores of index against every movie. The slice
// is shared and must not be modified.
func (c *Catalog) Row(index int) ([]float64, error) {
	if index < 0 || index >= len(c.matrix) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(c.matrix))
	}
	return c.matrix[index], nil
}

// Titles returns every title in row order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.movies))
	for i, m := range c.movies {
		titles[i] = m.Title
	}
	return titles
}

// Duplicates maps each title that appears more than once to all of its rows.
func (c *Catalog) Duplicates() map[string][]int {
	out := make(map[string][]int, len(c.duplicates))
	for title, rows := range c.duplicates {
		out[title] = append([]int(nil), rows...)
	}
	return out
}
